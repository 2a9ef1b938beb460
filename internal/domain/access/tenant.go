package access

import (
	"context"
	"fmt"

	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
)

// Principal vista tipada del usuario que realiza la petición.
type Principal struct {
	UserID             string
	OrganizationID     string
	Role               Role
	ReportingManagerID string
	AssignedModules    []Module
	// Submodules módulo -> submódulo -> acciones delegadas (executive).
	Submodules map[Module]map[string][]Action
}

// PrincipalFromUser valida los datos persistidos del usuario. Módulos o acciones
// fuera del catálogo invalidan al usuario completo en vez de ignorarse en silencio.
func PrincipalFromUser(u *entity.User) (Principal, error) {
	if u == nil {
		return Principal{}, fmt.Errorf("access: usuario nil")
	}
	role, err := ParseRole(u.Role)
	if err != nil {
		return Principal{}, err
	}
	p := Principal{
		UserID:             u.ID,
		OrganizationID:     u.OrganizationID,
		Role:               role,
		ReportingManagerID: u.ReportingManagerID,
	}
	for _, raw := range u.AssignedModules {
		m, err := ParseModule(raw)
		if err != nil {
			return Principal{}, err
		}
		p.AssignedModules = append(p.AssignedModules, m)
	}
	if len(u.SubmodulePermissions) > 0 {
		p.Submodules, err = ParseSubmoduleGrants(u.SubmodulePermissions)
		if err != nil {
			return Principal{}, err
		}
	}
	return p, nil
}

// ParseSubmoduleGrants valida el mapa módulo -> submódulo -> acciones.
func ParseSubmoduleGrants(raw map[string]map[string][]string) (map[Module]map[string][]Action, error) {
	out := make(map[Module]map[string][]Action, len(raw))
	for rawMod, subs := range raw {
		m, err := ParseModule(rawMod)
		if err != nil {
			return nil, err
		}
		out[m] = make(map[string][]Action, len(subs))
		for sub, actions := range subs {
			if !validSubmodule(sub) {
				return nil, fmt.Errorf("%w: submódulo %q", ErrInvalidPermission, sub)
			}
			for _, rawAct := range actions {
				a, err := ParseAction(rawAct)
				if err != nil {
					return nil, err
				}
				out[m][sub] = append(out[m][sub], a)
			}
		}
	}
	return out, nil
}

// HasModule indica si el módulo está en AssignedModules.
func (p Principal) HasModule(m Module) bool {
	for _, am := range p.AssignedModules {
		if am == m {
			return true
		}
	}
	return false
}

// IsSuperAdmin atajo para el único rol de plataforma.
func (p Principal) IsSuperAdmin() bool { return p.Role == RoleSuperAdmin }

// ResolveOrgContext decide la organización efectiva de la petición.
//
//   - super_admin: requestedOrgID es obligatorio y se devuelve sin cambios.
//   - resto: si viene debe coincidir con la del usuario; si no viene se usa la del usuario.
func ResolveOrgContext(p Principal, requestedOrgID string) (string, error) {
	if p.IsSuperAdmin() {
		if requestedOrgID == "" {
			return "", &TenantError{Kind: NoOrganizationContext}
		}
		return requestedOrgID, nil
	}
	if p.OrganizationID == "" {
		return "", &TenantError{Kind: NoOrganizationContext, RequestedOrgID: requestedOrgID}
	}
	if requestedOrgID != "" && requestedOrgID != p.OrganizationID {
		return "", &TenantError{Kind: TenantMismatch, RequestedOrgID: requestedOrgID}
	}
	return p.OrganizationID, nil
}

// Scope resultado validado del guard: quién pide y sobre qué organización.
// Es un valor inmutable que viaja por el context de la petición.
type Scope struct {
	Principal Principal
	OrgID     string
}

// EnsureSameOrg comprueba que un registro pertenece a la organización del scope.
func (s Scope) EnsureSameOrg(recordOrgID string) error {
	if recordOrgID == "" || recordOrgID != s.OrgID {
		return &TenantError{Kind: TenantMismatch, RequestedOrgID: recordOrgID}
	}
	return nil
}

type scopeKey struct{}

// WithScope guarda el scope en el context.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFromContext recupera el scope guardado por WithScope.
func ScopeFromContext(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(Scope)
	return s, ok
}
