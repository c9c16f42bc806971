package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hosteldesk/facility-api/internal/dto"
	"github.com/hosteldesk/facility-api/internal/models"
	appErrors "github.com/hosteldesk/facility-api/pkg/errors"
)

type mockUserRepo struct {
	byEmail   map[string]*models.User
	byRole    map[models.UserRole][]models.User
	created   []*models.User
	auditLogs []*models.AuditLog
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	return m.byRole[role], nil
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var all []models.User
	for _, users := range m.byRole {
		all = append(all, users...)
	}
	return all, len(all), nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "generated"
	}
	m.created = append(m.created, user)
	if m.byEmail == nil {
		m.byEmail = make(map[string]*models.User)
	}
	m.byEmail[user.Email] = user
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func newUserService() (*UserService, *mockUserRepo) {
	repo := &mockUserRepo{
		byEmail: make(map[string]*models.User),
		byRole:  make(map[models.UserRole][]models.User),
	}
	return NewUserService(repo, validator.New(), zap.NewNop()), repo
}

func TestUserServiceCreate(t *testing.T) {
	svc, repo := newUserService()

	user, err := svc.Create(context.Background(), "adm-1", dto.CreateUserRequest{
		Email:    "cleaner@college.edu",
		Password: "password",
		FullName: "A Cleaner",
		Role:     models.RoleCleaner,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCleaner, user.Role)
	assert.True(t, user.Active)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserCreate, repo.auditLogs[0].Action)
}

func TestUserServiceCreateUnknownRole(t *testing.T) {
	svc, _ := newUserService()

	_, err := svc.Create(context.Background(), "adm-1", dto.CreateUserRequest{
		Email:    "x@college.edu",
		Password: "password",
		FullName: "X",
		Role:     models.UserRole("JANITOR"),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	svc, repo := newUserService()
	repo.byEmail["taken@college.edu"] = &models.User{ID: "u-1", Email: "taken@college.edu"}

	_, err := svc.Create(context.Background(), "adm-1", dto.CreateUserRequest{
		Email:    "taken@college.edu",
		Password: "password",
		FullName: "Dup",
		Role:     models.RoleWarden,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestUserServiceListByRoleRejectsUnknown(t *testing.T) {
	svc, _ := newUserService()

	_, err := svc.ListByRole(context.Background(), models.UserRole("GARDENER"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUserServiceEnsureDefaultAdmin(t *testing.T) {
	svc, repo := newUserService()

	require.NoError(t, svc.EnsureDefaultAdmin(context.Background(), "admin@college.edu", "admin123", "Administrator"))
	require.Len(t, repo.created, 1)
	assert.Equal(t, models.RoleAdmin, repo.created[0].Role)

	// Second call is a no-op once the account exists.
	require.NoError(t, svc.EnsureDefaultAdmin(context.Background(), "admin@college.edu", "admin123", "Administrator"))
	assert.Len(t, repo.created, 1)
}
