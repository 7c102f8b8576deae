package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/crms/internal/database"
	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
)

var (
	ErrSelfAction = errors.New("cannot perform this action on your own account")
)

type UserFilter struct {
	Role         string
	Status       string
	Search       string
	DepartmentID *uuid.UUID
	Page         int
	PageSize     int
}

// UserService backs the admin user and approval management screens.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) base() *gorm.DB {
	return s.db.Model(&models.User{}).
		Preload("Role").Preload("Approval").Preload("Student")
}

func (s *UserService) filtered(f UserFilter) *gorm.DB {
	q := s.db.Model(&models.User{}).
		Scopes(database.Search(f.Search, "users.email", "users.first_name", "users.last_name"))

	if f.Role != "" {
		q = q.Joins("JOIN roles ON roles.id = users.role_id").
			Where("roles.name = ?", roles.Normalize(f.Role))
	}
	if f.Status != "" {
		q = q.Joins("LEFT JOIN user_approvals ON user_approvals.user_id = users.id")
		if f.Status == models.ApprovalApproved {
			q = q.Where("(user_approvals.status = ? OR user_approvals.id IS NULL)", f.Status)
		} else {
			q = q.Where("user_approvals.status = ?", f.Status)
		}
	}
	if f.DepartmentID != nil {
		q = q.Where("users.department_id = ?", *f.DepartmentID)
	}
	return q
}

func (s *UserService) List(f UserFilter) ([]models.User, int64, error) {
	var total int64
	if err := s.filtered(f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := s.filtered(f).
		Preload("Role").Preload("Approval").Preload("Student").
		Scopes(database.Paginate(f.Page, f.PageSize)).
		Order("users.created_at DESC").
		Find(&users).Error
	return users, total, err
}

func (s *UserService) Get(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.base().First(&user, "users.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// PendingApprovals lists accounts waiting for review, oldest first.
func (s *UserService) PendingApprovals(page, pageSize int) ([]models.User, int64, error) {
	f := UserFilter{Status: models.ApprovalPending}

	var total int64
	if err := s.filtered(f).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := s.filtered(f).
		Preload("Role").Preload("Approval").Preload("Student").
		Scopes(database.Paginate(page, pageSize)).
		Order("users.created_at ASC").
		Find(&users).Error
	return users, total, err
}

// Review sets the approval status of a user. Rejecting an account also
// revokes its refresh tokens.
func (s *UserService) Review(reviewerID, userID uuid.UUID, status, note string) (*models.User, error) {
	if reviewerID == userID {
		return nil, ErrSelfAction
	}
	if _, err := s.Get(userID); err != nil {
		return nil, err
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var approval models.UserApproval
		err := tx.Where("user_id = ?", userID).First(&approval).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			approval = models.UserApproval{UserID: userID}
		} else if err != nil {
			return err
		}
		approval.Status = status
		approval.Note = note
		approval.ReviewedBy = &reviewerID
		approval.ReviewedAt = &now
		if err := tx.Save(&approval).Error; err != nil {
			return fmt.Errorf("failed to save approval: %w", err)
		}
		if status != models.ApprovalApproved {
			return tx.Model(&models.RefreshToken{}).
				Where("user_id = ?", userID).
				Update("revoked", true).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(userID)
}

func (s *UserService) SetRole(actorID, userID uuid.UUID, role string) (*models.User, error) {
	if actorID == userID {
		return nil, ErrSelfAction
	}
	name := roles.Normalize(role)
	if !roles.Default().Exists(name) {
		return nil, ErrUnknownRole
	}

	var roleRow models.Role
	if err := s.db.Where("name = ?", name).First(&roleRow).Error; err != nil {
		return nil, ErrUnknownRole
	}
	result := s.db.Model(&models.User{}).Where("id = ?", userID).Update("role_id", roleRow.ID)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return s.Get(userID)
}

func (s *UserService) SetActive(actorID, userID uuid.UUID, active bool) (*models.User, error) {
	if actorID == userID {
		return nil, ErrSelfAction
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).Where("id = ?", userID).Update("is_active", active)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		if !active {
			return tx.Model(&models.RefreshToken{}).Where("user_id = ?", userID).Update("revoked", true).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(userID)
}

// Delete soft-deletes the user and revokes its sessions.
func (s *UserService) Delete(actorID, userID uuid.UUID) error {
	if actorID == userID {
		return ErrSelfAction
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete refresh tokens: %w", err)
		}
		result := tx.Delete(&models.User{}, "id = ?", userID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// CountByRole returns the number of active users per role name.
func (s *UserService) CountByRole() (map[string]int64, error) {
	var rows []struct {
		Name  string
		Count int64
	}
	err := s.db.Model(&models.User{}).
		Select("roles.name AS name, COUNT(users.id) AS count").
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("users.is_active = ?", true).
		Group("roles.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, r := range rows {
		result[r.Name] = r.Count
	}
	return result, nil
}
