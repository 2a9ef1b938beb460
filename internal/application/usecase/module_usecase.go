package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/erp-suite-api/internal/application/dto"
	"github.com/jhoicas/erp-suite-api/internal/domain"
	"github.com/jhoicas/erp-suite-api/internal/domain/access"
	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
	"github.com/jhoicas/erp-suite-api/internal/domain/repository"
)

// ModuleUseCase consulta y cambia las licencias de módulos de una organización.
// Es el único punto de escritura de enabled_modules.
type ModuleUseCase struct {
	orgs  repository.OrganizationRepository
	state AccessState
	now   func() time.Time
}

// NewModuleUseCase construye el caso de uso de módulos.
func NewModuleUseCase(orgs repository.OrganizationRepository, state AccessState) *ModuleUseCase {
	return &ModuleUseCase{orgs: orgs, state: state, now: time.Now}
}

// ListModules catálogo completo con la decisión de licencia de cada módulo para la organización.
func (uc *ModuleUseCase) ListModules(ctx context.Context, scope access.Scope) (*dto.OrganizationModulesResponse, error) {
	org, err := loadOrg(ctx, uc.orgs, scope.OrgID)
	if err != nil {
		return nil, err
	}
	policy := uc.state.Policy()
	out := &dto.OrganizationModulesResponse{OrganizationID: org.ID}
	for _, m := range access.Modules() {
		d := policy.Evaluate(org, m, "")
		item := dto.ModuleStatusResponse{
			Module:   string(m),
			Entitled: d.Entitled,
			Status:   string(d.Status),
			Reason:   d.Reason,
		}
		if ent, ok := org.Module(string(m)); ok {
			item.TrialExpiresAt = ent.TrialExpiresAt
			item.Submodules = ent.Submodules
		}
		out.Modules = append(out.Modules, item)
	}
	return out, nil
}

// ToggleModule fija el estado de licencia de un módulo. Solo super_admin: la licencia es
// un hecho comercial, no una decisión de la organización. Invalida la caché de permisos
// porque org_admin/management derivan sus permisos de los módulos licenciados.
func (uc *ModuleUseCase) ToggleModule(ctx context.Context, scope access.Scope, moduleKey string, in dto.ToggleModuleRequest) (*dto.ModuleStatusResponse, error) {
	if !scope.Principal.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}
	m, err := access.ParseModule(moduleKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	policy := uc.state.Policy()
	if policy.Bypasses(m) {
		return nil, fmt.Errorf("%w: el módulo %s no está sujeto a licencia", domain.ErrInvalidInput, m)
	}

	current, err := loadOrg(ctx, uc.orgs, scope.OrgID)
	if err != nil {
		return nil, err
	}
	// Solo cambian estado y fecha de trial; las excepciones por submódulo se conservan
	// salvo que la petición traiga otras, así apagar y encender deja la licencia como estaba.
	prev, _ := current.Module(string(m))
	ent := entity.ModuleEntitlement{Status: in.Status, Submodules: prev.Submodules}
	if in.Submodules != nil {
		ent.Submodules = in.Submodules
	}
	switch in.Status {
	case entity.ModuleStatusEnabled, entity.ModuleStatusDisabled:
	case entity.ModuleStatusTrial:
		if in.TrialExpiresAt == nil || !in.TrialExpiresAt.After(uc.now()) {
			return nil, fmt.Errorf("%w: un trial requiere trial_expires_at futuro", domain.ErrInvalidInput)
		}
		ent.TrialExpiresAt = in.TrialExpiresAt
	default:
		return nil, fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, in.Status)
	}

	if err := uc.orgs.SetModule(ctx, scope.OrgID, string(m), ent); err != nil {
		return nil, err
	}
	uc.state.InvalidateOrg(ctx, scope.OrgID)

	org, err := loadOrg(ctx, uc.orgs, scope.OrgID)
	if err != nil {
		return nil, err
	}
	d := policy.Evaluate(org, m, "")
	return &dto.ModuleStatusResponse{
		Module:         string(m),
		Entitled:       d.Entitled,
		Status:         string(d.Status),
		Reason:         d.Reason,
		TrialExpiresAt: ent.TrialExpiresAt,
		Submodules:     ent.Submodules,
	}, nil
}
