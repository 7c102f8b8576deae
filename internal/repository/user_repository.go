package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmetcoskunkizilkaya/crms/internal/database"
	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
)

type gormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) withRelations() *gorm.DB {
	return r.db.Preload("Role").Preload("Approval").Preload("Student").Preload("Student.Profile")
}

func (r *gormUserRepository) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.withRelations().Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *gormUserRepository) FindUserByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.withRelations().First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *gormUserRepository) EmailExists(email string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&models.User{}).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		Count(&count).Error
	return count > 0, err
}

func (r *gormUserRepository) StudentNumberExists(number string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Student{}).
		Where("LOWER(student_number) = ?", strings.ToLower(number)).
		Count(&count).Error
	return count > 0, err
}

func (r *gormUserRepository) RoleByName(name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.Where("name = ?", name).First(&role).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *gormUserRepository) CreateUser(user *models.User, approval *models.UserApproval) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return translate(err)
		}
		approval.UserID = user.ID
		if err := tx.Create(approval).Error; err != nil {
			return fmt.Errorf("failed to create approval: %w", err)
		}
		return nil
	})
}

func (r *gormUserRepository) CreateStudent(user *models.User, student *models.Student, profile *models.StudentProfile, approval *models.UserApproval) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return translate(err)
		}

		student.UserID = user.ID
		if err := tx.Omit(clause.Associations).Create(student).Error; err != nil {
			return translate(err)
		}

		profile.StudentID = student.ID
		if err := tx.Create(profile).Error; err != nil {
			return fmt.Errorf("failed to create student profile: %w", err)
		}

		approval.UserID = user.ID
		if err := tx.Create(approval).Error; err != nil {
			return fmt.Errorf("failed to create approval: %w", err)
		}
		return nil
	})
}

func (r *gormUserRepository) UpdateUser(user *models.User, columns ...string) error {
	q := r.db.Model(user).Omit(clause.Associations)
	if len(columns) > 0 {
		q = q.Select(columns)
	}
	return q.Updates(user).Error
}

func (r *gormUserRepository) SaveStudentProfile(profile *models.StudentProfile) error {
	return r.db.Save(profile).Error
}

func (r *gormUserRepository) SaveRefreshToken(token *models.RefreshToken) error {
	return r.db.Create(token).Error
}

func (r *gormUserRepository) FindRefreshToken(hash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.db.Where("token_hash = ? AND revoked = false", hash).First(&token).Error; err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

func (r *gormUserRepository) RevokeRefreshToken(hash string) error {
	return r.db.Model(&models.RefreshToken{}).
		Where("token_hash = ?", hash).
		Update("revoked", true).Error
}

func (r *gormUserRepository) RevokeUserTokens(userID uuid.UUID) error {
	return r.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = false", userID).
		Update("revoked", true).Error
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}
