package memory

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
)

// AddOrganization siembra una organización con los módulos indicados habilitados.
func (s *Store) AddOrganization(name string, enabled ...string) *entity.Organization {
	modules := make(map[string]entity.ModuleEntitlement, len(enabled))
	for _, m := range enabled {
		modules[m] = entity.ModuleEntitlement{Status: entity.ModuleStatusEnabled}
	}
	now := time.Now()
	org := &entity.Organization{
		ID:             uuid.New().String(),
		Name:           name,
		Status:         "active",
		EnabledModules: modules,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.mu.Lock()
	s.orgs[org.ID] = cloneOrg(org)
	s.mu.Unlock()
	return org
}

// SetEntitlement reemplaza la licencia de un módulo (sin validar, para siembra).
func (s *Store) SetEntitlement(orgID, module string, ent entity.ModuleEntitlement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orgs[orgID]; ok {
		o.EnabledModules[module] = cloneEntitlement(ent)
	}
}

// AddUser siembra un usuario activo. ID y timestamps se completan si faltan.
func (s *Store) AddUser(u entity.User) *entity.User {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Status == "" {
		u.Status = "active"
	}
	if u.Email == "" {
		u.Email = u.ID + "@example.test"
	}
	if u.Name == "" {
		u.Name = u.Role
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	s.mu.Lock()
	s.users[u.ID] = cloneUser(&u)
	s.mu.Unlock()
	return &u
}

// AddRole siembra un rol de la organización (orgID vacío = global) con sus permisos.
func (s *Store) AddRole(orgID, level string, permissions ...string) *entity.Role {
	now := time.Now()
	role := &entity.Role{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		Name:           level + "-" + uuid.New().String()[:8],
		Level:          level,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *role
	s.roles[role.ID] = &cp
	keys := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		keys[p] = struct{}{}
	}
	s.rolePerms[role.ID] = keys
	return role
}

// AssignRole vincula un rol sembrado a un usuario.
func (s *Store) AssignRole(userID, roleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userRoles[userID] == nil {
		s.userRoles[userID] = map[string]struct{}{}
	}
	s.userRoles[userID][roleID] = struct{}{}
}

// DemoCredentials usuarios sembrados por SeedDemo.
type DemoCredentials struct {
	OrganizationID string
	Password       string
	Emails         map[string]string // rol -> email
}

// SeedDemo siembra una organización con CRM e inventario y un usuario por rol, todos con la
// misma contraseña. Solo para APP_STORAGE=memory.
func (s *Store) SeedDemo(password string) (DemoCredentials, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return DemoCredentials{}, err
	}
	org := s.AddOrganization("Demo", "crm", "inventory", "sales")
	creds := DemoCredentials{OrganizationID: org.ID, Password: password, Emails: map[string]string{}}
	add := func(role, email, orgID string, mut func(*entity.User)) *entity.User {
		u := entity.User{Email: email, Name: role, Role: role, OrganizationID: orgID, PasswordHash: string(hash)}
		if mut != nil {
			mut(&u)
		}
		creds.Emails[role] = email
		return s.AddUser(u)
	}

	add("super_admin", "root@demo.test", "", nil)
	add("org_admin", "admin@demo.test", org.ID, nil)
	mgr := add("manager", "manager@demo.test", org.ID, func(u *entity.User) {
		u.AssignedModules = []string{"crm", "inventory"}
	})
	add("executive", "executive@demo.test", org.ID, func(u *entity.User) {
		u.ReportingManagerID = mgr.ID
		u.AssignedModules = []string{"crm"}
		u.SubmodulePermissions = map[string]map[string][]string{"crm": {"leads": {"read", "create"}}}
	})
	user := add("user", "user@demo.test", org.ID, nil)

	mgrRole := s.AddRole(org.ID, "manager", "crm.*", "inventory.*")
	s.AssignRole(mgr.ID, mgrRole.ID)
	userRole := s.AddRole(org.ID, "user", "inventory.read")
	s.AssignRole(user.ID, userRole.ID)
	return creds, nil
}
