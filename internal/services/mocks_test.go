package services

import (
	"context"
	"time"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/repositories"
)

// mockUserRepository is an in-memory UserRepository for service tests.
type mockUserRepository struct {
	users  map[string]*entities.User // keyed by email
	nextID int64

	createErr error
	getErr    error
	deleteErr error

	deleted []int64
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*entities.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *entities.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.users[user.Email]; exists {
		return repositories.ErrDuplicateEmail
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	m.users[user.Email] = &clone
	return nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	user, ok := m.users[email]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	for email, user := range m.users {
		if user.ID == id {
			delete(m.users, email)
		}
	}
	return nil
}

// mockPermissionRepository records writes and serves grant lookups.
type mockPermissionRepository struct {
	rows   []*entities.Permission
	nextID int64

	createErr error
	getErr    error

	getCalls int
}

func newMockPermissionRepository() *mockPermissionRepository {
	return &mockPermissionRepository{}
}

func (m *mockPermissionRepository) CreateBatch(ctx context.Context, permissions []*entities.Permission) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, permission := range permissions {
		m.nextID++
		permission.ID = m.nextID
		permission.CreatedAt = time.Now()
		clone := *permission
		m.rows = append(m.rows, &clone)
	}
	return nil
}

func (m *mockPermissionRepository) GetGrantsByEmail(ctx context.Context, email string) ([]entities.Grant, error) {
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	grants := []entities.Grant{}
	for _, row := range m.rows {
		if row.Email == email {
			grants = append(grants, row.Grant())
		}
	}
	return grants, nil
}

// mockHasher avoids the cost of real argon2 in service tests.
type mockHasher struct {
	hashErr   error
	verifyErr error
}

func (m *mockHasher) Hash(password string) (string, error) {
	if m.hashErr != nil {
		return "", m.hashErr
	}
	return "hashed:" + password, nil
}

func (m *mockHasher) Verify(password string, encoded string) (bool, error) {
	if m.verifyErr != nil {
		return false, m.verifyErr
	}
	return encoded == "hashed:"+password, nil
}

// mockIssuer returns a deterministic token and records the TTL used.
type mockIssuer struct {
	issueErr error
	lastTTL  time.Duration
}

func (m *mockIssuer) Issue(userID int64, email string, ttl time.Duration) (string, error) {
	if m.issueErr != nil {
		return "", m.issueErr
	}
	m.lastTTL = ttl
	return "token-for-" + email, nil
}
