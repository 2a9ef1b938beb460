package access

import (
	"fmt"
	"strings"
)

// Role rol jerárquico de un usuario.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleOrgAdmin   Role = "org_admin"
	RoleManagement Role = "management"
	RoleManager    Role = "manager"
	RoleExecutive  Role = "executive"
	RoleUser       Role = "user"
)

var roleRank = map[Role]int{
	RoleSuperAdmin: 5,
	RoleOrgAdmin:   4,
	RoleManagement: 4,
	RoleManager:    3,
	RoleExecutive:  2,
	RoleUser:       1,
}

// ParseRole valida el rol persistido.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleRank[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Rank posición en la jerarquía; 0 para roles desconocidos.
func (r Role) Rank() int { return roleRank[r] }

// HasFullOrgAccess org_admin y management reciben todos los permisos de los módulos
// habilitados en su organización y no pueden restringirse.
func (r Role) HasFullOrgAccess() bool {
	return r == RoleOrgAdmin || r == RoleManagement
}

// CanManage indica si actor puede crear o modificar usuarios con rol target:
// solo hacia rangos estrictamente menores, y executive/user no gestionan a nadie.
func CanManage(actor, target Role) bool {
	if actor == RoleExecutive || actor == RoleUser {
		return false
	}
	a, t := actor.Rank(), target.Rank()
	return a > 0 && t > 0 && a > t
}
