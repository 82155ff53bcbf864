package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/table-order-app/models"
	"github.com/yeremiapane/table-order-app/repository"
	"github.com/yeremiapane/table-order-app/utils"
	"gopkg.in/yaml.v3"
)

// Seed is the YAML layout of SEED_FILE:
//
//	tables: ["T01", "T02"]
//	menu:
//	  - name: Margherita
//	    category: Mains
//	    price: "12.50"
type Seed struct {
	Tables []string       `yaml:"tables"`
	Menu   []SeedMenuItem `yaml:"menu"`
}

type SeedMenuItem struct {
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Price       string `yaml:"price"`
	Description string `yaml:"description"`
	Unavailable bool   `yaml:"unavailable"`
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

// Apply inserts tables and menu items that do not exist yet. Tables match on
// number, menu items on name within a category, so reruns are harmless.
func (s *Seed) Apply(ctx context.Context, store repository.Store) error {
	return store.WithTx(ctx, func(tx repository.Store) error {
		for _, number := range s.Tables {
			_, err := tx.Tables().FindByNumber(ctx, number)
			if err == nil {
				continue
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			if err := tx.Tables().Create(ctx, &models.Table{TableNumber: number}); err != nil {
				return fmt.Errorf("seed table %s: %w", number, err)
			}
		}

		for _, m := range s.Menu {
			price, err := decimal.NewFromString(m.Price)
			if err != nil {
				return fmt.Errorf("seed menu %s: invalid price %q", m.Name, m.Price)
			}
			existing, err := tx.Menus().List(ctx, repository.MenuFilter{Category: m.Category})
			if err != nil {
				return err
			}
			if containsMenuName(existing, m.Name) {
				continue
			}
			item := &models.MenuItem{
				Name:        m.Name,
				Category:    m.Category,
				Price:       price,
				Description: m.Description,
				IsAvailable: !m.Unavailable,
			}
			if err := tx.Menus().Create(ctx, item); err != nil {
				return fmt.Errorf("seed menu %s: %w", m.Name, err)
			}
		}

		utils.InfoLogger.Printf("Seed applied: %d tables, %d menu items", len(s.Tables), len(s.Menu))
		return nil
	})
}

func containsMenuName(items []models.MenuItem, name string) bool {
	for _, it := range items {
		if it.Name == name {
			return true
		}
	}
	return false
}
