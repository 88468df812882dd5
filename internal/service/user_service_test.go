package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/fleet-compliance-api/internal/models"
	appErrors "github.com/noah-isme/fleet-compliance-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]*models.User
	listErr   error
	auditLogs []*models.AuditLog
	seq       int
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var users []models.User
	for _, u := range m.users {
		if filter.CompanyID != "" && (u.CompanyID == nil || *u.CompanyID != filter.CompanyID) {
			continue
		}
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		users = append(users, *u)
	}
	return users, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	for _, u := range m.users {
		if u.ID != excludeID && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	m.seq++
	user.ID = fmt.Sprintf("user-%d", m.seq)
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if u, ok := m.users[id]; ok {
		u.Active = false
	}
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func newTestUserService(repo *mockUserRepo) *UserService {
	return NewUserService(repo, fakeCompanies{"c1": true, "c2": true}, nil, zap.NewNop())
}

func TestUserServiceCreateScopedToCompany(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newTestUserService(repo)
	meta := models.RequestMeta{IP: "10.0.0.1", UserAgent: "test"}

	user, err := svc.Create(context.Background(), "c1", CreateUserRequest{
		Email:    "Dispatcher@Acme.test",
		FullName: "Dana Dispatch",
		Role:     models.RoleManager,
		Active:   true,
		Password: "password123",
	}, "admin-1", meta)
	require.NoError(t, err)

	assert.Equal(t, "dispatcher@acme.test", user.Email)
	require.NotNil(t, user.CompanyID)
	assert.Equal(t, "c1", *user.CompanyID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))

	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionCreate, repo.auditLogs[0].Action)
	assert.Equal(t, "10.0.0.1", repo.auditLogs[0].IPAddress)
}

func TestUserServiceCreateRejections(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "taken@acme.test", CompanyID: strPtr("c1"), Role: models.RoleDriver},
	}}
	svc := newTestUserService(repo)
	ctx := context.Background()
	base := CreateUserRequest{Email: "new@acme.test", FullName: "New", Role: models.RoleDriver, Password: "password123"}

	_, err := svc.Create(ctx, "c1", CreateUserRequest{Email: "bad", FullName: "x", Role: models.RoleDriver, Password: "short"}, "a", models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	dup := base
	dup.Email = "TAKEN@acme.test"
	_, err = svc.Create(ctx, "c1", dup, "a", models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	other := base
	other.CompanyID = strPtr("c2")
	_, err = svc.Create(ctx, "c1", other, "a", models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	super := base
	super.Role = models.RoleSuperAdmin
	_, err = svc.Create(ctx, "c1", super, "a", models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Create(ctx, "", base, "a", models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation, "unscoped callers must name a company")
}

func TestUserServiceCreateSuperAdmin(t *testing.T) {
	svc := newTestUserService(&mockUserRepo{})

	user, err := svc.Create(context.Background(), "", CreateUserRequest{
		Email: "root@fleet.test", FullName: "Root", Role: models.RoleSuperAdmin, CompanyID: strPtr("c1"), Password: "password123",
	}, "a", models.RequestMeta{})
	require.NoError(t, err)
	assert.Nil(t, user.CompanyID)
}

func TestUserServiceGetOutOfScope(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "a@acme.test", CompanyID: strPtr("c2"), Role: models.RoleDriver},
	}}
	svc := newTestUserService(repo)

	_, err := svc.Get(context.Background(), "c1", "u1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	user, err := svc.Get(context.Background(), "", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = svc.Get(context.Background(), "", "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUserServiceUpdateResetsPassword(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "a@acme.test", CompanyID: strPtr("c1"), Role: models.RoleDriver, Active: true, PasswordHash: "old"},
	}}
	svc := newTestUserService(repo)

	updated, err := svc.Update(context.Background(), "c1", "u1", UpdateUserRequest{
		FullName: "Ann Driver",
		Role:     models.RoleInspector,
		Active:   boolPtr(false),
		Password: strPtr("new-password"),
	}, "admin-1", models.RequestMeta{})
	require.NoError(t, err)

	assert.Equal(t, models.RoleInspector, updated.Role)
	assert.False(t, updated.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["u1"].PasswordHash), []byte("new-password")))
	require.Len(t, repo.auditLogs, 1)
	assert.Contains(t, string(repo.auditLogs[0].NewValues), `"password_changed":true`)
}

func TestUserServiceDelete(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "a@acme.test", CompanyID: strPtr("c1"), Role: models.RoleDriver, Active: true},
	}}
	svc := newTestUserService(repo)

	err := svc.Delete(context.Background(), "c1", "u1", "u1", models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	require.NoError(t, svc.Delete(context.Background(), "c1", "u1", "admin-1", models.RequestMeta{}))
	assert.False(t, repo.users["u1"].Active)
	assert.Equal(t, models.AuditActionDelete, repo.auditLogs[0].Action)
}

func TestUserServiceListFiltersRole(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "a@acme.test", FullName: "Alpha", CompanyID: strPtr("c1"), Role: models.RoleDriver},
		"u2": {ID: "u2", Email: "b@acme.test", FullName: "Bravo", CompanyID: strPtr("c1"), Role: models.RoleManager},
		"u3": {ID: "u3", Email: "c@other.test", FullName: "Charlie", CompanyID: strPtr("c2"), Role: models.RoleDriver},
	}}
	svc := newTestUserService(repo)

	users, pagination, err := svc.List(context.Background(), models.ListQuery{CompanyID: "c1"}, rolePtr(models.RoleDriver))
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, 1, pagination.TotalCount)
}
