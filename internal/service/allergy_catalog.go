package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jjikmuck/jjikmuck/backend/config"
	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllergyCatalog is the list of allergies users choose from.
type AllergyCatalog struct {
	db *gorm.DB
}

func NewAllergyCatalog(db *gorm.DB) *AllergyCatalog {
	return &AllergyCatalog{db: db}
}

// List returns the catalog in insertion order.
func (c *AllergyCatalog) List(ctx context.Context) ([]models.Allergy, error) {
	var out []models.Allergy
	if err := c.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list allergies: %w", err)
	}
	return out, nil
}

// Seed inserts one entry per allergen alias group. Names already present are
// left untouched, so seeding twice is safe. It returns the number inserted.
func (c *AllergyCatalog) Seed(ctx context.Context, tables *config.Tables) (int, error) {
	inserted := 0
	for _, group := range tables.AllergenAliases {
		name := strings.TrimSpace(group.Canonical)
		if name == "" {
			continue
		}
		row := models.Allergy{
			Name:        name,
			DisplayName: name,
			Aliases:     models.JSONBStringArray(append([]string{}, group.Aliases...)),
		}
		res := c.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&row)
		if res.Error != nil {
			return inserted, fmt.Errorf("failed to seed allergy %s: %w", name, res.Error)
		}
		inserted += int(res.RowsAffected)
	}
	return inserted, nil
}
