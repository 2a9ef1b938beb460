package access

import (
	"errors"
	"fmt"
)

// Errores de construcción y de reglas de gestión.
var (
	ErrUnknownModule     = errors.New("access: módulo desconocido")
	ErrUnknownAction     = errors.New("access: acción desconocida")
	ErrInvalidPermission = errors.New("access: permiso inválido")
	ErrInvalidRole       = errors.New("access: rol inválido")

	ErrHierarchy               = errors.New("access: el rol del actor no puede gestionar ese rol")
	ErrDelegationToAdmin       = errors.New("access: no se delega a org_admin/management, ya tienen acceso total")
	ErrDelegationEscalation    = errors.New("access: no se puede delegar un permiso que el delegador no posee")
	ErrManagerWithoutModules   = errors.New("access: un manager necesita al menos un módulo asignado")
	ErrExecutiveWithoutManager = errors.New("access: un executive necesita un manager de reporte")
	ErrOutsideManagerScope     = errors.New("access: el permiso está fuera de los módulos del manager")
)

// TenantErrorKind tipo de fallo en la resolución del tenant.
type TenantErrorKind string

const (
	TenantMismatch        TenantErrorKind = "tenant_mismatch"
	NoOrganizationContext TenantErrorKind = "no_organization_context"
)

// TenantError fallo al resolver la organización de la petición.
type TenantError struct {
	Kind           TenantErrorKind
	RequestedOrgID string
}

func (e *TenantError) Error() string {
	switch e.Kind {
	case TenantMismatch:
		return "access: la organización solicitada no corresponde al usuario"
	case NoOrganizationContext:
		if e.RequestedOrgID == "" {
			return "access: se requiere un organization_id explícito"
		}
	}
	return "access: sin contexto de organización"
}

// EntitlementError el módulo (o submódulo) no está licenciado para la organización.
type EntitlementError struct {
	Module    Module
	Submodule string
	Status    EntitlementStatus
	Reason    string
}

func (e *EntitlementError) Error() string {
	key := string(e.Module)
	if e.Submodule != "" {
		key += "/" + e.Submodule
	}
	return fmt.Sprintf("access: módulo %s no habilitado (%s): %s", key, e.Status, e.Reason)
}

// PermissionError el rol no concede el permiso requerido.
type PermissionError struct {
	Permission Permission
}

func (e *PermissionError) Error() string {
	return "access: permiso requerido " + e.Permission.String()
}

// IsTenantError helper sobre errors.As.
func IsTenantError(err error) (*TenantError, bool) {
	var te *TenantError
	ok := errors.As(err, &te)
	return te, ok
}

// IsEntitlementError helper sobre errors.As.
func IsEntitlementError(err error) (*EntitlementError, bool) {
	var ee *EntitlementError
	ok := errors.As(err, &ee)
	return ee, ok
}

// IsPermissionError helper sobre errors.As.
func IsPermissionError(err error) (*PermissionError, bool) {
	var pe *PermissionError
	ok := errors.As(err, &pe)
	return pe, ok
}
