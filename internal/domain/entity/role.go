package entity

import "time"

// Role agrupa permisos. OrganizationID vacío = rol global de plataforma.
// Level es el rol jerárquico al que aplica (manager, executive, user...).
type Role struct {
	ID             string
	OrganizationID string
	Name           string
	Level          string
	Description    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Permission cadena de permiso normalizada (module.action, module.*, module_admin, module_sub_action).
type Permission struct {
	ID          string
	Key         string
	Description string
}

// RolePermission vincula un rol con un permiso.
type RolePermission struct {
	RoleID       string
	PermissionID string
	GrantedBy    string
	GrantedAt    time.Time
}

// UserRole asigna un rol a un usuario.
type UserRole struct {
	UserID     string
	RoleID     string
	AssignedAt time.Time
}
