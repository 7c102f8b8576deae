package logging

import (
	"time"

	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
)

// Cleanup deletes system_logs older than retentionDays.
func Cleanup(db *gorm.DB, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}
