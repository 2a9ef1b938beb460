// Package memory implementa los repositorios en memoria. Lo usan los tests y el modo de
// almacenamiento "memory" para desarrollo local sin PostgreSQL.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/erp-suite-api/internal/domain"
	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
	"github.com/jhoicas/erp-suite-api/internal/domain/repository"
)

var (
	_ repository.OrganizationRepository = (*OrganizationRepo)(nil)
	_ repository.UserRepository         = (*UserRepo)(nil)
	_ repository.RoleRepository         = (*RoleRepo)(nil)
	_ repository.WarehouseRepository    = (*WarehouseRepo)(nil)
)

// Store estado compartido por todos los repos en memoria.
type Store struct {
	mu          sync.RWMutex
	orgs        map[string]*entity.Organization
	users       map[string]*entity.User
	roles       map[string]*entity.Role
	rolePerms   map[string]map[string]struct{} // role_id -> claves
	userRoles   map[string]map[string]struct{} // user_id -> role_ids
	warehouses  map[string]*entity.Warehouse
	failPermsOn error
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		orgs:       map[string]*entity.Organization{},
		users:      map[string]*entity.User{},
		roles:      map[string]*entity.Role{},
		rolePerms:  map[string]map[string]struct{}{},
		userRoles:  map[string]map[string]struct{}{},
		warehouses: map[string]*entity.Warehouse{},
	}
}

// FailPermissionLoads hace que PermissionKeysForUser devuelva err (nil lo desactiva).
func (s *Store) FailPermissionLoads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPermsOn = err
}

// Organizations repo de organizaciones sobre el store.
func (s *Store) Organizations() *OrganizationRepo { return &OrganizationRepo{s: s} }

// Users repo de usuarios sobre el store.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Roles repo de roles sobre el store.
func (s *Store) Roles() *RoleRepo { return &RoleRepo{s: s} }

// Warehouses repo de bodegas sobre el store.
func (s *Store) Warehouses() *WarehouseRepo { return &WarehouseRepo{s: s} }

// Run ejecuta fn con los repos del store bajo un único lock de escritura lógico.
// Si fn falla los cambios ya aplicados se revierten desde una copia.
func (s *Store) Run(ctx context.Context, fn func(users repository.UserRepository, roles repository.RoleRepository) error) error {
	snap := s.snapshot()
	if err := fn(s.Users(), s.Roles()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	users     map[string]*entity.User
	rolePerms map[string]map[string]struct{}
	userRoles map[string]map[string]struct{}
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		users:     make(map[string]*entity.User, len(s.users)),
		rolePerms: copySetMap(s.rolePerms),
		userRoles: copySetMap(s.userRoles),
	}
	for k, u := range s.users {
		snap.users[k] = cloneUser(u)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.rolePerms = snap.rolePerms
	s.userRoles = snap.userRoles
}

func copySetMap(in map[string]map[string]struct{}) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(in))
	for k, set := range in {
		cp := make(map[string]struct{}, len(set))
		for v := range set {
			cp[v] = struct{}{}
		}
		out[k] = cp
	}
	return out
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// ─────────────────────────────────────────────────────────────────────────────
// Organizaciones
// ─────────────────────────────────────────────────────────────────────────────

// OrganizationRepo organizaciones en memoria.
type OrganizationRepo struct{ s *Store }

func (r *OrganizationRepo) Create(_ context.Context, org *entity.Organization) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orgs[org.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.orgs[org.ID] = cloneOrg(org)
	return nil
}

func (r *OrganizationRepo) GetByID(_ context.Context, id string) (*entity.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orgs[id]
	if !ok {
		return nil, nil
	}
	return cloneOrg(o), nil
}

func (r *OrganizationRepo) List(_ context.Context, limit, offset int) ([]*entity.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]*entity.Organization, 0, len(r.s.orgs))
	for _, o := range r.s.orgs {
		list = append(list, cloneOrg(o))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return page(list, limit, offset), nil
}

func (r *OrganizationRepo) SetModule(_ context.Context, orgID, module string, ent entity.ModuleEntitlement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orgs[orgID]
	if !ok {
		return domain.ErrNotFound
	}
	if o.EnabledModules == nil {
		o.EnabledModules = map[string]entity.ModuleEntitlement{}
	}
	o.EnabledModules[module] = cloneEntitlement(ent)
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Usuarios
// ─────────────────────────────────────────────────────────────────────────────

// UserRepo usuarios en memoria.
type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepo) GetInOrg(_ context.Context, orgID, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok || u.OrganizationID != orgID {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *UserRepo) ListByOrganization(_ context.Context, orgID string, limit, offset int) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.User
	for _, u := range r.s.users {
		if u.OrganizationID == orgID {
			list = append(list, cloneUser(u))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return page(list, limit, offset), nil
}

func (r *UserRepo) UpdateSubmodulePermissions(_ context.Context, orgID, id string, perms map[string]map[string][]string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.OrganizationID != orgID {
		return domain.ErrUserNotFound
	}
	u.SubmodulePermissions = cloneSubmodules(perms)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Roles
// ─────────────────────────────────────────────────────────────────────────────

// RoleRepo roles y permisos en memoria.
type RoleRepo struct{ s *Store }

func (r *RoleRepo) GetInOrg(_ context.Context, orgID, id string) (*entity.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	role, ok := r.s.roles[id]
	if !ok || (role.OrganizationID != "" && role.OrganizationID != orgID) {
		return nil, nil
	}
	cp := *role
	return &cp, nil
}

func (r *RoleRepo) PermissionKeysForUser(_ context.Context, orgID, userID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failPermsOn != nil {
		return nil, r.s.failPermsOn
	}
	u, ok := r.s.users[userID]
	if !ok || u.OrganizationID != orgID {
		return nil, nil
	}
	seen := map[string]struct{}{}
	for roleID := range r.s.userRoles[userID] {
		role, ok := r.s.roles[roleID]
		if !ok || (role.OrganizationID != "" && role.OrganizationID != orgID) {
			continue
		}
		for k := range r.s.rolePerms[roleID] {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *RoleRepo) AssignToUser(_ context.Context, userID, roleID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roles[roleID]; !ok {
		return domain.ErrNotFound
	}
	if r.s.userRoles[userID] == nil {
		r.s.userRoles[userID] = map[string]struct{}{}
	}
	r.s.userRoles[userID][roleID] = struct{}{}
	return nil
}

func (r *RoleRepo) AddPermissions(_ context.Context, roleID, _ string, keys []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roles[roleID]; !ok {
		return domain.ErrNotFound
	}
	if r.s.rolePerms[roleID] == nil {
		r.s.rolePerms[roleID] = map[string]struct{}{}
	}
	for _, k := range keys {
		r.s.rolePerms[roleID][k] = struct{}{}
	}
	return nil
}

func (r *RoleRepo) RemovePermissions(_ context.Context, roleID string, keys []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, k := range keys {
		delete(r.s.rolePerms[roleID], k)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Bodegas
// ─────────────────────────────────────────────────────────────────────────────

// WarehouseRepo bodegas en memoria, siempre filtradas por organización.
type WarehouseRepo struct{ s *Store }

func (r *WarehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.warehouses {
		if existing.OrganizationID == w.OrganizationID && existing.Name == w.Name {
			return domain.ErrDuplicate
		}
	}
	cp := *w
	r.s.warehouses[w.ID] = &cp
	return nil
}

func (r *WarehouseRepo) GetByID(_ context.Context, orgID, id string) (*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.warehouses[id]
	if !ok || w.OrganizationID != orgID {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *WarehouseRepo) Update(_ context.Context, w *entity.Warehouse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.warehouses[w.ID]
	if !ok || existing.OrganizationID != w.OrganizationID {
		return domain.ErrNotFound
	}
	existing.Name = w.Name
	existing.Address = w.Address
	existing.UpdatedAt = w.UpdatedAt
	return nil
}

func (r *WarehouseRepo) ListByOrganization(_ context.Context, orgID string, limit, offset int) ([]*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.Warehouse
	for _, w := range r.s.warehouses {
		if w.OrganizationID == orgID {
			cp := *w
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return page(list, limit, offset), nil
}

func (r *WarehouseRepo) Delete(_ context.Context, orgID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.warehouses[id]
	if !ok || w.OrganizationID != orgID {
		return domain.ErrNotFound
	}
	delete(r.s.warehouses, id)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// copias profundas: los llamadores nunca comparten mapas con el store
// ─────────────────────────────────────────────────────────────────────────────

func cloneOrg(o *entity.Organization) *entity.Organization {
	cp := *o
	cp.EnabledModules = make(map[string]entity.ModuleEntitlement, len(o.EnabledModules))
	for k, v := range o.EnabledModules {
		cp.EnabledModules[k] = cloneEntitlement(v)
	}
	return &cp
}

func cloneEntitlement(e entity.ModuleEntitlement) entity.ModuleEntitlement {
	cp := e
	if e.TrialExpiresAt != nil {
		t := *e.TrialExpiresAt
		cp.TrialExpiresAt = &t
	}
	if e.Submodules != nil {
		cp.Submodules = make(map[string]bool, len(e.Submodules))
		for k, v := range e.Submodules {
			cp.Submodules[k] = v
		}
	}
	return cp
}

func cloneUser(u *entity.User) *entity.User {
	cp := *u
	cp.AssignedModules = append([]string(nil), u.AssignedModules...)
	cp.SubmodulePermissions = cloneSubmodules(u.SubmodulePermissions)
	return &cp
}

func cloneSubmodules(in map[string]map[string][]string) map[string]map[string][]string {
	if in == nil {
		return nil
	}
	out := make(map[string]map[string][]string, len(in))
	for m, subs := range in {
		out[m] = make(map[string][]string, len(subs))
		for s, actions := range subs {
			out[m][s] = append([]string(nil), actions...)
		}
	}
	return out
}
