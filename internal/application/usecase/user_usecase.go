package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/erp-suite-api/internal/application/dto"
	"github.com/jhoicas/erp-suite-api/internal/domain"
	"github.com/jhoicas/erp-suite-api/internal/domain/access"
	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
	"github.com/jhoicas/erp-suite-api/internal/domain/repository"
)

// UserUseCase alta de usuarios y delegación a executives, con la jerarquía de roles aplicada.
type UserUseCase struct {
	users repository.UserRepository
	orgs  repository.OrganizationRepository
	roles repository.RoleRepository
	tx    TxRunner
	state AccessState
}

// NewUserUseCase construye el caso de uso.
func NewUserUseCase(
	users repository.UserRepository,
	orgs repository.OrganizationRepository,
	roles repository.RoleRepository,
	tx TxRunner,
	state AccessState,
) *UserUseCase {
	return &UserUseCase{users: users, orgs: orgs, roles: roles, tx: tx, state: state}
}

// CreateUser crea un usuario en la organización del scope (o en la indicada, solo super_admin).
// Un actor solo crea roles estrictamente inferiores al suyo.
func (uc *UserUseCase) CreateUser(ctx context.Context, scope access.Scope, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	actor := scope.Principal
	role, err := access.ParseRole(in.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	orgID := in.OrganizationID
	if orgID == "" {
		orgID = scope.OrgID
	}
	org, err := loadOrg(ctx, uc.orgs, orgID)
	if err != nil {
		return nil, err
	}

	nu := access.NewUser{Role: role, OrganizationID: orgID}
	for _, raw := range in.AssignedModules {
		m, err := access.ParseModule(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		nu.AssignedModules = append(nu.AssignedModules, m)
	}
	if len(in.SubmodulePermissions) > 0 {
		if role != access.RoleExecutive {
			return nil, fmt.Errorf("%w: solo un executive recibe submódulos delegados", domain.ErrInvalidInput)
		}
		if nu.Submodules, err = access.ParseSubmoduleGrants(in.SubmodulePermissions); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	}
	if role == access.RoleExecutive && in.ReportingManagerID != "" {
		mgr, err := uc.principalInOrg(ctx, orgID, in.ReportingManagerID)
		if err != nil {
			return nil, err
		}
		nu.Manager = mgr
	}
	if err := access.ValidateNewUser(actor, nu, uc.state.Policy().AccessibleModules(org)); err != nil {
		return nil, err
	}

	roleIDs, err := uc.assignableRoles(ctx, actor, orgID, in.RoleIDs)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	user := &entity.User{
		ID:                   uuid.New().String(),
		OrganizationID:       orgID,
		Email:                strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash:         string(hash),
		Name:                 in.Name,
		Role:                 string(role),
		Status:               "active",
		AssignedModules:      moduleStrings(nu.AssignedModules),
		SubmodulePermissions: in.SubmodulePermissions,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if role == access.RoleExecutive {
		user.ReportingManagerID = in.ReportingManagerID
	}

	err = uc.tx.Run(ctx, func(users repository.UserRepository, roles repository.RoleRepository) error {
		if err := users.Create(ctx, user); err != nil {
			return err
		}
		for _, id := range roleIDs {
			if err := roles.AssignToUser(ctx, user.ID, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// DelegateSubmodules reemplaza los pares submódulo/acción de un executive. Un manager solo
// delega a sus executives y dentro de sus propios módulos.
func (uc *UserUseCase) DelegateSubmodules(ctx context.Context, scope access.Scope, executiveID string, in dto.DelegateSubmodulesRequest) (*dto.UserResponse, error) {
	exec, err := uc.users.GetInOrg(ctx, scope.OrgID, executiveID)
	if err != nil {
		return nil, err
	}
	if exec == nil {
		return nil, domain.ErrUserNotFound
	}
	execP, err := access.PrincipalFromUser(exec)
	if err != nil {
		return nil, err
	}
	grants, err := access.ParseSubmoduleGrants(in.Submodules)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	org, err := loadOrg(ctx, uc.orgs, scope.OrgID)
	if err != nil {
		return nil, err
	}

	actorIn := uc.state.PermissionInput(ctx, scope.Principal, org)
	if err := access.ValidateSubmoduleDelegation(actorIn, execP, grants); err != nil {
		return nil, err
	}
	// Lo delegado fuera de los módulos del manager nunca sería efectivo: se rechaza.
	mgr, err := uc.principalInOrg(ctx, scope.OrgID, exec.ReportingManagerID)
	if err != nil {
		return nil, err
	}
	for m := range grants {
		if !mgr.HasModule(m) {
			return nil, fmt.Errorf("%w: %s", access.ErrOutsideManagerScope, m)
		}
	}

	if err := uc.users.UpdateSubmodulePermissions(ctx, scope.OrgID, exec.ID, in.Submodules); err != nil {
		return nil, err
	}
	exec.SubmodulePermissions = in.Submodules
	return toUserResponse(exec), nil
}

// List usuarios de la organización del scope.
func (uc *UserUseCase) List(ctx context.Context, scope access.Scope, limit, offset int) (*dto.UserListResponse, error) {
	list, err := uc.users.ListByOrganization(ctx, scope.OrgID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		items = append(items, *toUserResponse(u))
	}
	return &dto.UserListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}

func (uc *UserUseCase) principalInOrg(ctx context.Context, orgID, userID string) (*access.Principal, error) {
	if userID == "" {
		return nil, access.ErrExecutiveWithoutManager
	}
	u, err := uc.users.GetInOrg(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, access.ErrExecutiveWithoutManager
	}
	p, err := access.PrincipalFromUser(u)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// assignableRoles valida que cada rol existe en la organización y que su nivel
// queda por debajo del actor.
func (uc *UserUseCase) assignableRoles(ctx context.Context, actor access.Principal, orgID string, ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		r, err := uc.roles.GetInOrg(ctx, orgID, id)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, fmt.Errorf("%w: rol %s", domain.ErrNotFound, id)
		}
		level, err := access.ParseRole(r.Level)
		if err != nil {
			return nil, err
		}
		if !access.CanManage(actor.Role, level) {
			return nil, access.ErrHierarchy
		}
		out = append(out, r.ID)
	}
	return out, nil
}

func moduleStrings(ms []access.Module) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, string(m))
	}
	return out
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:                   u.ID,
		OrganizationID:       u.OrganizationID,
		Email:                u.Email,
		Name:                 u.Name,
		Role:                 u.Role,
		Status:               u.Status,
		ReportingManagerID:   u.ReportingManagerID,
		AssignedModules:      u.AssignedModules,
		SubmodulePermissions: u.SubmodulePermissions,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}
