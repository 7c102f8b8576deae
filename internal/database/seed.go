package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
)

// SeedRoles makes sure every role in the registry has a row.
func SeedRoles(db *gorm.DB, registry *roles.Registry) error {
	for _, def := range registry.All() {
		var role models.Role
		err := db.Where("name = ?", def.Name).First(&role).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			role = models.Role{Name: def.Name, DisplayName: def.DisplayName, Priority: def.Priority}
			if err := db.Create(&role).Error; err != nil {
				return fmt.Errorf("failed to seed role %s: %w", def.Name, err)
			}
		case err != nil:
			return err
		default:
			if role.DisplayName != def.DisplayName || role.Priority != def.Priority {
				err := db.Model(&role).Updates(map[string]interface{}{
					"display_name": def.DisplayName,
					"priority":     def.Priority,
				}).Error
				if err != nil {
					return fmt.Errorf("failed to update role %s: %w", def.Name, err)
				}
			}
		}
	}
	return nil
}
