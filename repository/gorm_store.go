package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore wraps an open gorm connection.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Tables() TableRepository { return &tableRepository{db: s.db} }
func (s *gormStore) Menus() MenuRepository   { return &menuRepository{db: s.db} }
func (s *gormStore) Orders() OrderRepository { return &orderRepository{db: s.db} }
func (s *gormStore) Users() UserRepository   { return &userRepository{db: s.db} }

func (s *gormStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// isUniqueViolation catches drivers that do not translate their errors.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
