package services

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/crypto/bcrypt"

	"github.com/ahmetcoskunkizilkaya/crms/internal/config"
	"github.com/ahmetcoskunkizilkaya/crms/internal/dto"
	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
	"github.com/ahmetcoskunkizilkaya/crms/internal/repository"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
	"github.com/ahmetcoskunkizilkaya/crms/internal/storage"
)

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrStudentNumberTaken  = errors.New("student number already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountPending      = errors.New("account is pending approval")
	ErrAccountRejected     = errors.New("account registration was rejected")
	ErrAccountDisabled     = errors.New("account is disabled")
	ErrInvalidToken        = errors.New("invalid or expired refresh token")
	ErrUserNotFound        = errors.New("user not found")
	ErrWrongPassword       = errors.New("current password is incorrect")
	ErrRoleNotAllowed      = errors.New("role cannot be self-registered")
	ErrUnknownRole         = errors.New("unknown role")
	ErrInvalidImage        = errors.New("avatar must be a JPEG, PNG or GIF image")
	ErrAvatarNotConfigured = errors.New("avatar storage is not configured")
)

// selfRegisterable lists the roles a visitor may request at signup. Students
// use the dedicated student registration.
var selfRegisterable = map[string]bool{
	roles.Faculty:      true,
	roles.Staff:        true,
	roles.ProgramChair: true,
	roles.Dean:         true,
}

type AuthService struct {
	repo        repository.UserRepository
	tokens      *TokenIssuer
	avatars     *storage.AvatarStore
	adminEmails []string
	now         func() time.Time
}

func NewAuthService(repo repository.UserRepository, cfg *config.Config, avatars *storage.AvatarStore) *AuthService {
	return &AuthService{
		repo:        repo,
		tokens:      NewTokenIssuer(cfg),
		avatars:     avatars,
		adminEmails: ParseCSV(cfg.AdminEmails),
		now:         time.Now,
	}
}

func (s *AuthService) Tokens() *TokenIssuer { return s.tokens }

// Register creates a non-student account awaiting approval. Emails listed in
// ADMIN_EMAILS are approved immediately and may register as admin.
func (s *AuthService) Register(req *dto.RegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	role := roles.Normalize(req.Role)
	bootstrap := ContainsFold(s.adminEmails, email)

	if !roles.Default().Exists(role) {
		return nil, ErrUnknownRole
	}
	if !selfRegisterable[role] && !(bootstrap && role == roles.Admin) {
		return nil, ErrRoleNotAllowed
	}

	taken, err := s.repo.EmailExists(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	roleRow, err := s.repo.RoleByName(role)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownRole
		}
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		RoleID:        roleRow.ID,
		DepartmentID:  req.DepartmentID,
		Email:         email,
		PasswordHash:  hash,
		FirstName:     strings.TrimSpace(req.FirstName),
		MiddleName:    strings.TrimSpace(req.MiddleName),
		LastName:      strings.TrimSpace(req.LastName),
		ContactNumber: strings.TrimSpace(req.ContactNumber),
		IsActive:      true,
	}
	approval := &models.UserApproval{Status: models.ApprovalPending}
	if bootstrap {
		approval.Status = models.ApprovalApproved
	}

	if err := s.repo.CreateUser(user, approval); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.Role = *roleRow
	user.Approval = approval
	slog.Info("user registered", "user_id", user.ID, "role", role, "status", approval.Status)
	return user, nil
}

// RegisterStudent creates the user, student, profile and approval rows in one
// transaction. Duplicate student numbers and emails are rejected before any
// insert.
func (s *AuthService) RegisterStudent(req *dto.StudentRegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	number := strings.TrimSpace(req.StudentNumber)

	taken, err := s.repo.StudentNumberExists(number)
	if err != nil {
		return nil, fmt.Errorf("failed to check student number: %w", err)
	}
	if taken {
		return nil, ErrStudentNumberTaken
	}
	taken, err = s.repo.EmailExists(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	roleRow, err := s.repo.RoleByName(roles.Student)
	if err != nil {
		return nil, fmt.Errorf("student role missing: %w", err)
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var birthDate *time.Time
	if req.BirthDate != "" {
		d, err := time.Parse("2006-01-02", req.BirthDate)
		if err == nil {
			birthDate = &d
		}
	}

	yearLevel := req.YearLevel
	if yearLevel == 0 {
		yearLevel = 1
	}

	user := &models.User{
		RoleID:        roleRow.ID,
		DepartmentID:  req.DepartmentID,
		Email:         email,
		PasswordHash:  hash,
		FirstName:     strings.TrimSpace(req.FirstName),
		MiddleName:    strings.TrimSpace(req.MiddleName),
		LastName:      strings.TrimSpace(req.LastName),
		ContactNumber: strings.TrimSpace(req.ContactNumber),
		IsActive:      true,
	}
	student := &models.Student{
		StudentNumber: number,
		ProgramID:     req.ProgramID,
		YearLevel:     yearLevel,
	}
	profile := &models.StudentProfile{
		BirthDate:       birthDate,
		Gender:          strings.TrimSpace(req.Gender),
		Address:         strings.TrimSpace(req.Address),
		GuardianName:    strings.TrimSpace(req.GuardianName),
		GuardianContact: strings.TrimSpace(req.GuardianContact),
	}
	approval := &models.UserApproval{Status: models.ApprovalPending}

	if err := s.repo.CreateStudent(user, student, profile, approval); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to register student: %w", err)
	}

	student.Profile = profile
	user.Role = *roleRow
	user.Approval = approval
	user.Student = student
	slog.Info("student registered", "user_id", user.ID, "student_number", number)
	return user, nil
}

// Login checks the approval state before the password, so a pending account
// is refused whether or not the password is right.
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.repo.FindUserByEmail(normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsApproved() {
		if user.Approval.Status == models.ApprovalRejected {
			return nil, ErrAccountRejected
		}
		return nil, ErrAccountPending
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	user.LastLoginAt = &now
	if err := s.repo.UpdateUser(user, "last_login_at"); err != nil {
		slog.Warn("failed to record login time", "user_id", user.ID, "error", err)
	}

	return s.issue(user)
}

func (s *AuthService) Refresh(req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	stored, err := s.repo.FindRefreshToken(tokenHash)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if err := s.repo.RevokeRefreshToken(tokenHash); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if s.now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.FindUserByID(stored.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !user.IsApproved() || !user.IsActive {
		return nil, ErrInvalidToken
	}

	return s.issue(user)
}

// Logout revokes the given refresh token, or every token of the user when
// none is given.
func (s *AuthService) Logout(userID uuid.UUID, refreshToken string) error {
	if refreshToken == "" {
		return s.repo.RevokeUserTokens(userID)
	}
	return s.repo.RevokeRefreshToken(hashToken(refreshToken))
}

func (s *AuthService) Me(userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(userID uuid.UUID, req *dto.UpdateProfileRequest) (*models.User, error) {
	user, err := s.Me(userID)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, 4)
	set := func(dst *string, src *string, column string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
			columns = append(columns, column)
		}
	}
	set(&user.FirstName, req.FirstName, "first_name")
	set(&user.MiddleName, req.MiddleName, "middle_name")
	set(&user.LastName, req.LastName, "last_name")
	set(&user.ContactNumber, req.ContactNumber, "contact_number")

	if len(columns) > 0 {
		if err := s.repo.UpdateUser(user, columns...); err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}

	if user.Student != nil && (req.Address != nil || req.GuardianName != nil || req.GuardianContact != nil) {
		profile := user.Student.Profile
		if profile == nil {
			profile = &models.StudentProfile{StudentID: user.Student.ID}
		}
		if req.Address != nil {
			profile.Address = strings.TrimSpace(*req.Address)
		}
		if req.GuardianName != nil {
			profile.GuardianName = strings.TrimSpace(*req.GuardianName)
		}
		if req.GuardianContact != nil {
			profile.GuardianContact = strings.TrimSpace(*req.GuardianContact)
		}
		if err := s.repo.SaveStudentProfile(profile); err != nil {
			return nil, fmt.Errorf("failed to update student profile: %w", err)
		}
		user.Student.Profile = profile
	}

	return user, nil
}

// ChangePassword replaces the password and signs out every other session.
func (s *AuthService) ChangePassword(userID uuid.UUID, req *dto.ChangePasswordRequest) error {
	user, err := s.Me(userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.repo.UpdateUser(user, "password_hash"); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.repo.RevokeUserTokens(userID); err != nil {
		slog.Warn("failed to revoke refresh tokens", "user_id", userID, "error", err)
	}
	return nil
}

func (s *AuthService) UploadAvatar(userID uuid.UUID, r io.Reader) (*models.User, error) {
	if s.avatars == nil {
		return nil, ErrAvatarNotConfigured
	}
	user, err := s.Me(userID)
	if err != nil {
		return nil, err
	}

	name, err := s.avatars.Save(userID, r)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidImage) {
			return nil, ErrInvalidImage
		}
		return nil, err
	}

	user.ProfilePic = name
	if err := s.repo.UpdateUser(user, "profile_pic"); err != nil {
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}
	return user, nil
}

// Avatar opens the stored avatar of a user.
func (s *AuthService) Avatar(userID uuid.UUID) (afero.File, error) {
	if s.avatars == nil {
		return nil, ErrAvatarNotConfigured
	}
	user, err := s.Me(userID)
	if err != nil {
		return nil, err
	}
	if user.ProfilePic == "" {
		return nil, ErrUserNotFound
	}
	return s.avatars.Open(user.ProfilePic)
}

func (s *AuthService) issue(user *models.User) (*dto.AuthResponse, error) {
	access, exp, err := s.tokens.AccessToken(user)
	if err != nil {
		return nil, err
	}

	raw, record, err := s.tokens.RefreshToken(user)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveRefreshToken(record); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &dto.AuthResponse{
		Success:      true,
		Token:        access,
		RefreshToken: raw,
		ExpiresAt:    exp,
		User:         dto.NewUserResponse(user),
	}, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseCSV splits a comma separated list and drops empty entries.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func ContainsFold(list []string, val string) bool {
	for _, item := range list {
		if strings.EqualFold(item, val) {
			return true
		}
	}
	return false
}
