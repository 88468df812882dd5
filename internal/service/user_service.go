package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/fleet-compliance-api/internal/models"
	appErrors "github.com/noah-isme/fleet-compliance-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Email     string          `json:"email" validate:"required,email"`
	FullName  string          `json:"full_name" validate:"required"`
	Role      models.UserRole `json:"role" validate:"required,oneof=SUPERADMIN ADMIN MANAGER INSPECTOR DRIVER"`
	CompanyID *string         `json:"company_id"`
	Active    bool            `json:"active"`
	Password  string          `json:"password" validate:"required,min=8"`
}

// UpdateUserRequest payload for updating users.
type UpdateUserRequest struct {
	FullName string          `json:"full_name" validate:"required"`
	Role     models.UserRole `json:"role" validate:"required,oneof=SUPERADMIN ADMIN MANAGER INSPECTOR DRIVER"`
	Active   *bool           `json:"active"`
	Password *string         `json:"password" validate:"omitempty,min=8"`
}

// UserService handles user management workflows.
type UserService struct {
	repo      userRepository
	companies companyChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, companies companyChecker, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, companies: companies, validator: validate, logger: logger}
}

// List returns users in scope with pagination metadata.
func (s *UserService) List(ctx context.Context, q models.ListQuery, role *models.UserRole) ([]models.User, *models.Pagination, error) {
	users, err := s.repo.List(ctx, models.UserFilter{CompanyID: q.CompanyID, Role: role, Active: q.Active})
	if err != nil {
		return nil, nil, internalError(err, "failed to list users")
	}
	page, pagination := paginate(users, q, userSearchFields)
	return page, pagination, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, scope, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	if scope != "" && (user.CompanyID == nil || *user.CompanyID != scope) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return user, nil
}

// Create adds a new user. Company administrators may only create users of their own company.
func (s *UserService) Create(ctx context.Context, scope string, req CreateUserRequest, actorID string, meta models.RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid create user payload")
	}
	companyID, err := s.userCompany(ctx, scope, req.Role, req.CompanyID)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, internalError(err, "failed to check email uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError(err, "failed to hash password")
	}

	user := &models.User{
		CompanyID:    companyID,
		Email:        strings.ToLower(req.Email),
		FullName:     req.FullName,
		Role:         req.Role,
		Active:       req.Active,
		PasswordHash: string(passwordHash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, internalError(err, "failed to create user")
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"id": user.ID, "email": user.Email, "role": user.Role, "company_id": user.CompanyID})
	s.audit(ctx, models.AuditActionCreate, user.ID, actorID, meta, nil, newPayload)
	return user, nil
}

// Update modifies the user attributes and optionally resets the password.
func (s *UserService) Update(ctx context.Context, scope, id string, req UpdateUserRequest, actorID string, meta models.RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid update payload")
	}
	user, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	companyID, err := s.userCompany(ctx, scope, req.Role, user.CompanyID)
	if err != nil {
		return nil, err
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"role": user.Role, "active": user.Active})

	user.FullName = req.FullName
	user.Role = req.Role
	user.CompanyID = companyID
	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, internalError(err, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, internalError(err, "failed to update user")
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"role": user.Role, "active": user.Active, "password_changed": req.Password != nil})
	s.audit(ctx, models.AuditActionUpdate, user.ID, actorID, meta, oldPayload, newPayload)
	return user, nil
}

// Delete performs a soft delete (inactive) on a user.
func (s *UserService) Delete(ctx context.Context, scope, id string, actorID string, meta models.RequestMeta) error {
	if id == actorID {
		return appErrors.Clone(appErrors.ErrValidation, "cannot delete your own account")
	}
	user, err := s.Get(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return internalError(err, "failed to delete user")
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"active": user.Active})
	newPayload, _ := json.Marshal(map[string]interface{}{"active": false})
	s.audit(ctx, models.AuditActionDelete, user.ID, actorID, meta, oldPayload, newPayload)
	return nil
}

// userCompany resolves the company a user with role belongs to. Only SUPERADMIN accounts are
// companyless and only an unscoped caller may grant that role.
func (s *UserService) userCompany(ctx context.Context, scope string, role models.UserRole, requested *string) (*string, error) {
	if role == models.RoleSuperAdmin {
		if scope != "" {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only SUPERADMIN may grant SUPERADMIN")
		}
		return nil, nil
	}
	var want string
	if requested != nil {
		want = *requested
	}
	companyID, err := resolveCompany(ctx, s.companies, scope, want)
	if err != nil {
		return nil, err
	}
	return &companyID, nil
}

func (s *UserService) audit(ctx context.Context, action, userID, actorID string, meta models.RequestMeta, oldValues, newValues []byte) {
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "users",
		ResourceID: &userID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record user audit log", zap.String("action", action), zap.Error(err))
	}
}
