// Package guard compone tenant, licencia y RBAC en una sola decisión por petición.
package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/erp-suite-api/internal/domain"
	"github.com/jhoicas/erp-suite-api/internal/domain/access"
	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
	"github.com/jhoicas/erp-suite-api/internal/domain/repository"
)

// Identity lo que la capa de autenticación (JWT) afirma sobre quien llama.
type Identity struct {
	UserID         string
	OrganizationID string
	Role           string
}

// Requirement par (module, action) que declara cada ruta, con submódulo opcional.
type Requirement struct {
	Module    access.Module
	Submodule string
	Action    access.Action
}

// Permission permiso concreto que exige el requisito.
func (r Requirement) Permission() (access.Permission, error) {
	if r.Submodule != "" {
		return access.NewSubmodulePermission(r.Module, r.Submodule, r.Action)
	}
	return access.NewPermission(r.Module, r.Action)
}

// PermissionCache caché de las claves de permiso concedidas por roles, por (org, usuario).
type PermissionCache interface {
	Get(ctx context.Context, orgID, userID string) ([]string, bool)
	Set(ctx context.Context, orgID, userID string, keys []string)
	InvalidateOrg(ctx context.Context, orgID string) error
}

// Recorder registra el resultado de cada decisión (métricas).
type Recorder interface {
	RecordDecision(module, outcome string)
}

// Resultados registrados por Recorder.
const (
	OutcomeAllowed           = "allowed"
	OutcomeTenantDenied      = "tenant_denied"
	OutcomeEntitlementDenied = "entitlement_denied"
	OutcomePermissionDenied  = "permission_denied"
	OutcomeError             = "error"
)

// Service guard unificado. No guarda estado entre peticiones salvo la caché opcional.
type Service struct {
	orgs     repository.OrganizationRepository
	users    repository.UserRepository
	roles    repository.RoleRepository
	policy   *access.EntitlementPolicy
	cache    PermissionCache
	recorder Recorder
	log      zerolog.Logger
}

// Option configura dependencias opcionales del Service.
type Option func(*Service)

// WithCache activa la caché de permisos.
func WithCache(c PermissionCache) Option { return func(s *Service) { s.cache = c } }

// WithRecorder activa el registro de métricas.
func WithRecorder(r Recorder) Option { return func(s *Service) { s.recorder = r } }

// WithLogger inyecta el logger.
func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

// NewService construye el guard.
func NewService(
	orgs repository.OrganizationRepository,
	users repository.UserRepository,
	roles repository.RoleRepository,
	policy *access.EntitlementPolicy,
	opts ...Option,
) *Service {
	s := &Service{
		orgs:   orgs,
		users:  users,
		roles:  roles,
		policy: policy,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy política de licencias en uso.
func (s *Service) Policy() *access.EntitlementPolicy { return s.policy }

// LoadPrincipal carga al usuario de la identidad. La DB es la fuente de verdad del rol;
// una identidad cuyo usuario no existe, está inactivo o cambió de organización no es válida.
func (s *Service) LoadPrincipal(ctx context.Context, id Identity) (access.Principal, error) {
	if id.UserID == "" {
		return access.Principal{}, domain.ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		return access.Principal{}, fmt.Errorf("cargar usuario: %w", err)
	}
	if u == nil || !u.IsActive() || u.OrganizationID != id.OrganizationID {
		return access.Principal{}, domain.ErrUnauthorized
	}
	p, err := access.PrincipalFromUser(u)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", u.ID).Msg("usuario con datos de acceso inválidos")
		return access.Principal{}, domain.ErrUnauthorized
	}
	return p, nil
}

// CheckEntitlement decide la licencia de module/submodule para orgID.
// Solo devuelve error ante fallos de infraestructura.
func (s *Service) CheckEntitlement(ctx context.Context, orgID string, m access.Module, submodule string) (access.EntitlementDecision, error) {
	if d, ok := s.policy.Bypass(m); ok {
		return d, nil
	}
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return access.EntitlementDecision{}, fmt.Errorf("cargar organización: %w", err)
	}
	if org == nil {
		return access.EntitlementDecision{Status: access.StatusUnknown, Reason: "organización no encontrada"}, nil
	}
	return s.policy.Evaluate(org, m, submodule), nil
}

// HasPermission decide el permiso de p dentro de orgID. Los fallos de infraestructura
// se registran y producen un conjunto vacío: el resultado es denegar.
func (s *Service) HasPermission(ctx context.Context, p access.Principal, orgID string, perm access.Permission) bool {
	if p.IsSuperAdmin() {
		return true
	}
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		s.log.Error().Err(err).Str("org_id", orgID).Msg("rbac: no se pudo cargar la organización, se deniega")
		return false
	}
	return access.Allowed(s.PermissionInput(ctx, p, org), perm)
}

// ResolveScope valida la identidad y resuelve la organización de la petición, sin licencia
// ni permiso. Sirve a rutas cuyo control fino vive en el caso de uso (menú, delegación).
func (s *Service) ResolveScope(ctx context.Context, id Identity, requestedOrgID string) (access.Scope, error) {
	scope, _, err := s.resolve(ctx, id, requestedOrgID)
	if err != nil {
		return access.Scope{}, err
	}
	return scope, nil
}

func (s *Service) resolve(ctx context.Context, id Identity, requestedOrgID string) (access.Scope, *entity.Organization, error) {
	p, err := s.LoadPrincipal(ctx, id)
	if err != nil {
		return access.Scope{}, nil, err
	}
	orgID, err := access.ResolveOrgContext(p, requestedOrgID)
	if err != nil {
		return access.Scope{Principal: p}, nil, err
	}
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return access.Scope{Principal: p}, nil, fmt.Errorf("cargar organización: %w", err)
	}
	if org == nil {
		return access.Scope{Principal: p}, nil, &access.TenantError{Kind: access.TenantMismatch, RequestedOrgID: orgID}
	}
	return access.Scope{Principal: p, OrgID: orgID}, org, nil
}

// RequireAccess ejecuta tenant -> licencia -> permiso y corta en el primer fallo.
// La licencia va antes que el permiso para que un módulo deshabilitado no revele qué permisos existen.
func (s *Service) RequireAccess(ctx context.Context, id Identity, requestedOrgID string, req Requirement) (access.Scope, error) {
	target, err := req.Permission()
	if err != nil {
		return access.Scope{}, err
	}

	scope, org, err := s.resolve(ctx, id, requestedOrgID)
	if err != nil {
		if _, ok := access.IsTenantError(err); ok {
			s.deny(req, scope.Principal, OutcomeTenantDenied, err)
		} else {
			s.record(req.Module, OutcomeError)
		}
		return access.Scope{}, err
	}
	p := scope.Principal

	if d := s.policy.Evaluate(org, req.Module, req.Submodule); !d.Entitled {
		err := &access.EntitlementError{Module: req.Module, Submodule: req.Submodule, Status: d.Status, Reason: d.Reason}
		s.deny(req, p, OutcomeEntitlementDenied, err)
		return access.Scope{}, err
	}

	if !access.Allowed(s.PermissionInput(ctx, p, org), target) {
		err := &access.PermissionError{Permission: target}
		s.deny(req, p, OutcomePermissionDenied, err)
		return access.Scope{}, err
	}

	s.record(req.Module, OutcomeAllowed)
	return scope, nil
}

// PermissionInput reúne el estado RBAC de p en org. Nunca falla: ante errores de
// infraestructura registra el fallo y deja el conjunto vacío.
func (s *Service) PermissionInput(ctx context.Context, p access.Principal, org *entity.Organization) access.PermissionInput {
	in := access.PermissionInput{Principal: p}
	if org == nil {
		return in
	}
	switch p.Role {
	case access.RoleSuperAdmin:
		return in
	case access.RoleOrgAdmin, access.RoleManagement:
		in.OrgModules = s.policy.AccessibleModules(org)
	case access.RoleExecutive:
		in.Manager = s.loadManager(ctx, p, org.ID)
		return in
	}
	in.Granted = s.grantedPermissions(ctx, org.ID, p.UserID)
	return in
}

// Menu navegación filtrada con las mismas reglas del guard.
func (s *Service) Menu(ctx context.Context, scope access.Scope) ([]access.MenuItem, error) {
	org, err := s.orgs.GetByID(ctx, scope.OrgID)
	if err != nil {
		return nil, fmt.Errorf("cargar organización: %w", err)
	}
	if org == nil {
		return nil, &access.TenantError{Kind: access.TenantMismatch, RequestedOrgID: scope.OrgID}
	}
	in := s.PermissionInput(ctx, scope.Principal, org)
	return access.FilterMenu(access.DefaultMenu(), access.MenuChecks{
		Entitled: func(m access.Module, sub string) bool { return s.policy.Evaluate(org, m, sub).Entitled },
		Allowed:  func(p access.Permission) bool { return access.Allowed(in, p) },
	}), nil
}

// InvalidateOrg descarta los permisos cacheados de toda la organización.
func (s *Service) InvalidateOrg(ctx context.Context, orgID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateOrg(ctx, orgID); err != nil {
		s.log.Warn().Err(err).Str("org_id", orgID).Msg("no se pudo invalidar la caché de permisos")
	}
}

func (s *Service) grantedPermissions(ctx context.Context, orgID, userID string) access.PermissionSet {
	keys, ok := s.cachedKeys(ctx, orgID, userID)
	if !ok {
		var err error
		keys, err = s.roles.PermissionKeysForUser(ctx, orgID, userID)
		if err != nil {
			s.log.Error().Err(err).Str("org_id", orgID).Str("user_id", userID).
				Msg("rbac: fallo al cargar permisos, se usa conjunto vacío")
			return access.PermissionSet{}
		}
		if s.cache != nil {
			s.cache.Set(ctx, orgID, userID, keys)
		}
	}
	set, rejected := access.ParsePermissionSet(keys)
	if len(rejected) > 0 {
		s.log.Warn().Strs("permissions", rejected).Str("user_id", userID).Msg("rbac: permisos inválidos ignorados")
	}
	return set
}

func (s *Service) cachedKeys(ctx context.Context, orgID, userID string) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(ctx, orgID, userID)
}

func (s *Service) loadManager(ctx context.Context, p access.Principal, orgID string) *access.Principal {
	if p.ReportingManagerID == "" {
		return nil
	}
	u, err := s.users.GetInOrg(ctx, orgID, p.ReportingManagerID)
	if err != nil {
		s.log.Error().Err(err).Str("manager_id", p.ReportingManagerID).Msg("rbac: fallo al cargar el manager")
		return nil
	}
	if u == nil || !u.IsActive() {
		return nil
	}
	mgr, err := access.PrincipalFromUser(u)
	if err != nil {
		s.log.Error().Err(err).Str("manager_id", u.ID).Msg("rbac: manager con datos inválidos")
		return nil
	}
	return &mgr
}

func (s *Service) deny(req Requirement, p access.Principal, outcome string, err error) {
	s.record(req.Module, outcome)
	s.log.Debug().
		Str("user_id", p.UserID).
		Str("role", string(p.Role)).
		Str("module", string(req.Module)).
		Str("action", string(req.Action)).
		Str("outcome", outcome).
		Err(err).
		Msg("acceso denegado")
}

func (s *Service) record(m access.Module, outcome string) {
	if s.recorder != nil {
		s.recorder.RecordDecision(string(m), outcome)
	}
}

// IsDenial indica si err es una denegación tipada del guard (no un fallo de infraestructura).
func IsDenial(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := access.IsTenantError(err); ok {
		return true
	}
	if _, ok := access.IsEntitlementError(err); ok {
		return true
	}
	if _, ok := access.IsPermissionError(err); ok {
		return true
	}
	return errors.Is(err, domain.ErrUnauthorized)
}
