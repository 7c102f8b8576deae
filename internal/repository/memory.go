package repository

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
)

// MemoryUserRepository is an in-process UserRepository for tests and local
// tooling. It is safe for concurrent use.
type MemoryUserRepository struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]*models.User
	roles     map[string]*models.Role
	approvals map[uuid.UUID]*models.UserApproval   // by user id
	students  map[uuid.UUID]*models.Student        // by user id
	profiles  map[uuid.UUID]*models.StudentProfile // by student id
	tokens    map[string]*models.RefreshToken      // by hash
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:     make(map[uuid.UUID]*models.User),
		roles:     make(map[string]*models.Role),
		approvals: make(map[uuid.UUID]*models.UserApproval),
		students:  make(map[uuid.UUID]*models.Student),
		profiles:  make(map[uuid.UUID]*models.StudentProfile),
		tokens:    make(map[string]*models.RefreshToken),
	}
}

// AddRole registers a role row and returns it.
func (r *MemoryUserRepository) AddRole(name, displayName string, priority int) *models.Role {
	r.mu.Lock()
	defer r.mu.Unlock()
	role := &models.Role{ID: uuid.New(), Name: name, DisplayName: displayName, Priority: priority}
	r.roles[name] = role
	return role
}

// SetApproval overwrites the approval status of a user.
func (r *MemoryUserRepository) SetApproval(userID uuid.UUID, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.approvals[userID]; ok {
		a.Status = status
		return
	}
	r.approvals[userID] = &models.UserApproval{ID: uuid.New(), UserID: userID, Status: status}
}

// Count returns the number of stored users, students and profiles.
func (r *MemoryUserRepository) Count() (users, students, profiles int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), len(r.students), len(r.profiles)
}

func (r *MemoryUserRepository) hydrate(u *models.User) *models.User {
	out := *u
	for _, role := range r.roles {
		if role.ID == u.RoleID {
			out.Role = *role
			break
		}
	}
	if a, ok := r.approvals[u.ID]; ok {
		ac := *a
		out.Approval = &ac
	}
	if s, ok := r.students[u.ID]; ok {
		sc := *s
		if p, ok := r.profiles[s.ID]; ok {
			pc := *p
			sc.Profile = &pc
		}
		out.Student = &sc
	}
	return &out
}

func (r *MemoryUserRepository) FindUserByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return r.hydrate(u), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) FindUserByID(id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[id]; ok {
		return r.hydrate(u), nil
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) EmailExists(email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.emailTaken(email), nil
}

func (r *MemoryUserRepository) emailTaken(email string) bool {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *MemoryUserRepository) StudentNumberExists(number string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.studentNumberTaken(number), nil
}

func (r *MemoryUserRepository) studentNumberTaken(number string) bool {
	for _, s := range r.students {
		if strings.EqualFold(s.StudentNumber, number) {
			return true
		}
	}
	return false
}

func (r *MemoryUserRepository) RoleByName(name string) (*models.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if role, ok := r.roles[name]; ok {
		rc := *role
		return &rc, nil
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) insertUser(user *models.User, approval *models.UserApproval) {
	now := time.Now()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	stored.Approval, stored.Student = nil, nil
	r.users[user.ID] = &stored

	if approval.ID == uuid.Nil {
		approval.ID = uuid.New()
	}
	approval.UserID = user.ID
	ac := *approval
	r.approvals[user.ID] = &ac
}

func (r *MemoryUserRepository) CreateUser(user *models.User, approval *models.UserApproval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(user.Email) {
		return ErrDuplicate
	}
	r.insertUser(user, approval)
	return nil
}

func (r *MemoryUserRepository) CreateStudent(user *models.User, student *models.Student, profile *models.StudentProfile, approval *models.UserApproval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(user.Email) || r.studentNumberTaken(student.StudentNumber) {
		return ErrDuplicate
	}
	r.insertUser(user, approval)

	if student.ID == uuid.Nil {
		student.ID = uuid.New()
	}
	student.UserID = user.ID
	sc := *student
	sc.User, sc.Profile = nil, nil
	r.students[user.ID] = &sc

	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	profile.StudentID = student.ID
	pc := *profile
	r.profiles[student.ID] = &pc
	return nil
}

func (r *MemoryUserRepository) UpdateUser(user *models.User, columns ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return ErrNotFound
	}
	stored := *user
	stored.Approval, stored.Student = nil, nil
	stored.UpdatedAt = time.Now()
	r.users[user.ID] = &stored
	return nil
}

func (r *MemoryUserRepository) SaveStudentProfile(profile *models.StudentProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	pc := *profile
	r.profiles[profile.StudentID] = &pc
	return nil
}

func (r *MemoryUserRepository) SaveRefreshToken(token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token.TokenHash]; ok {
		return ErrDuplicate
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	tc := *token
	r.tokens[token.TokenHash] = &tc
	return nil
}

func (r *MemoryUserRepository) FindRefreshToken(hash string) (*models.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.tokens[hash]; ok && !t.Revoked {
		tc := *t
		return &tc, nil
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) RevokeRefreshToken(hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[hash]; ok {
		t.Revoked = true
	}
	return nil
}

func (r *MemoryUserRepository) RevokeUserTokens(userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}
