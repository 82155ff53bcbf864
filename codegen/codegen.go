// Package codegen produces record identifiers and the short join codes guests
// share around a table.
package codegen

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// JoinCodeLength is the number of symbols in a join code.
const JoinCodeLength = 6

const joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var alphabetSize = big.NewInt(int64(len(joinCodeAlphabet)))

// Generator is what the order engine needs from this package. Tests swap in a
// scripted implementation to force collisions.
type Generator interface {
	NewID() string
	NewJoinCode() (string, error)
}

type randomGenerator struct{}

// Default is backed by crypto/rand.
var Default Generator = randomGenerator{}

func (randomGenerator) NewID() string { return NewID() }

func (randomGenerator) NewJoinCode() (string, error) { return NewJoinCode() }

// NewID returns a random v4 UUID as 32 lowercase hex characters.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewJoinCode draws JoinCodeLength symbols uniformly from [A-Z0-9].
// rand.Int samples without modulo bias.
func NewJoinCode() (string, error) {
	var sb strings.Builder
	sb.Grow(JoinCodeLength)
	for i := 0; i < JoinCodeLength; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		sb.WriteByte(joinCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// NormalizeJoinCode trims and upper-cases user input before lookup.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidJoinCode reports whether code has the right length and alphabet.
func ValidJoinCode(code string) bool {
	if len(code) != JoinCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(joinCodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
