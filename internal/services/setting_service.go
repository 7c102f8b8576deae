package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/crms/internal/config"
	"github.com/ahmetcoskunkizilkaya/crms/internal/dto"
	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
)

var (
	ErrSettingNotFound = errors.New("setting not found")
	ErrInvalidSetting  = errors.New("value does not match setting type")
)

const (
	SettingAppName         = "app_name"
	SettingPassingGrade    = "passing_grade"
	SettingCurrentTerm     = "current_term"
	SettingMaintenanceMode = "maintenance_mode"
	SettingPrivacyNotice   = "privacy_notice_version"
)

type SettingService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewSettingService(db *gorm.DB, cfg *config.Config) *SettingService {
	return &SettingService{db: db, cfg: cfg}
}

// Public returns the settings exposed to unauthenticated clients, decoded by type.
func (s *SettingService) Public() (map[string]interface{}, error) {
	var settings []models.Setting
	if err := s.db.Where("public = ?", true).Order("key").Find(&settings).Error; err != nil {
		return nil, err
	}
	return decodeAll(settings), nil
}

func (s *SettingService) All() ([]models.Setting, error) {
	var settings []models.Setting
	err := s.db.Order("key").Find(&settings).Error
	return settings, err
}

// Set upserts a setting after checking the value parses as its type.
func (s *SettingService) Set(key string, req *dto.SetSettingRequest) (*models.Setting, error) {
	typ := req.Type
	if typ == "" {
		typ = "string"
	}
	if _, err := DecodeSetting(typ, req.Value); err != nil {
		return nil, ErrInvalidSetting
	}

	var setting models.Setting
	err := s.db.Where("key = ?", key).First(&setting).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		setting = models.Setting{Key: key, Value: req.Value, Type: typ}
		if req.Public != nil {
			setting.Public = *req.Public
		}
		if err := s.db.Create(&setting).Error; err != nil {
			return nil, fmt.Errorf("failed to create setting: %w", err)
		}
	case err != nil:
		return nil, err
	default:
		setting.Value = req.Value
		setting.Type = typ
		if req.Public != nil {
			setting.Public = *req.Public
		}
		if err := s.db.Save(&setting).Error; err != nil {
			return nil, fmt.Errorf("failed to update setting: %w", err)
		}
	}
	return &setting, nil
}

func (s *SettingService) Delete(key string) error {
	result := s.db.Where("key = ?", key).Delete(&models.Setting{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}
	return nil
}

// PassingGrade is the percentage a computed grade needs to pass.
func (s *SettingService) PassingGrade() float64 {
	var setting models.Setting
	if err := s.db.Where("key = ?", SettingPassingGrade).First(&setting).Error; err == nil {
		if f, err := strconv.ParseFloat(setting.Value, 64); err == nil && f > 0 {
			return f
		}
	}
	return s.cfg.PassingGrade
}

// SeedDefaults creates the default settings that do not exist yet.
func (s *SettingService) SeedDefaults() error {
	defaults := []models.Setting{
		{Key: SettingAppName, Value: "Class Record Management System", Type: "string", Public: true},
		{Key: SettingPassingGrade, Value: strconv.FormatFloat(s.cfg.PassingGrade, 'f', -1, 64), Type: "float", Public: true},
		{Key: SettingCurrentTerm, Value: "", Type: "string", Public: true},
		{Key: SettingMaintenanceMode, Value: "false", Type: "bool", Public: true},
		{Key: SettingPrivacyNotice, Value: "1", Type: "int", Public: true},
	}
	for _, def := range defaults {
		var existing models.Setting
		err := s.db.Where("key = ?", def.Key).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			def := def
			if err := s.db.Create(&def).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	return nil
}

// DecodeSetting converts a stored string value to its typed form.
func DecodeSetting(typ, value string) (interface{}, error) {
	switch typ {
	case "bool":
		return strconv.ParseBool(value)
	case "int":
		return strconv.Atoi(value)
	case "float":
		return strconv.ParseFloat(value, 64)
	case "json":
		var v interface{}
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return value, nil
	}
}

func decodeAll(settings []models.Setting) map[string]interface{} {
	result := make(map[string]interface{}, len(settings))
	for _, st := range settings {
		v, err := DecodeSetting(st.Type, st.Value)
		if err != nil {
			v = st.Value
		}
		result[st.Key] = v
	}
	return result
}
