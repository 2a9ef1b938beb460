package access

// MenuItem entrada de navegación. Module/Action vacíos = nodo agrupador sin control propio.
type MenuItem struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Path      string     `json:"path,omitempty"`
	Module    Module     `json:"module,omitempty"`
	Submodule string     `json:"submodule,omitempty"`
	Action    Action     `json:"action,omitempty"`
	Children  []MenuItem `json:"children,omitempty"`
}

// MenuChecks funciones de decisión que usa FilterMenu; las provee el guard.
type MenuChecks struct {
	Entitled func(m Module, submodule string) bool
	Allowed  func(p Permission) bool
}

// FilterMenu devuelve solo las entradas alcanzables con las mismas reglas del guard.
// Es orientativo para la UI: el guard de cada endpoint sigue siendo la autoridad.
// Un agrupador (sin Path) sin hijos visibles desaparece.
func FilterMenu(items []MenuItem, checks MenuChecks) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, it := range items {
		group := len(it.Children) > 0 && it.Path == ""
		switch {
		case it.Module == "":
		case group:
			// Un agrupador solo exige la licencia; el permiso lo deciden los hijos.
			if !checks.Entitled(it.Module, it.Submodule) {
				continue
			}
		case !menuItemVisible(it, checks):
			continue
		}
		if len(it.Children) > 0 {
			it.Children = FilterMenu(it.Children, checks)
			if len(it.Children) == 0 && it.Path == "" {
				continue
			}
		}
		out = append(out, it)
	}
	return out
}

func menuItemVisible(it MenuItem, checks MenuChecks) bool {
	if !checks.Entitled(it.Module, it.Submodule) {
		return false
	}
	action := it.Action
	if action == "" {
		action = ActionRead
	}
	var (
		p   Permission
		err error
	)
	if it.Submodule != "" {
		p, err = NewSubmodulePermission(it.Module, it.Submodule, action)
	} else {
		p, err = NewPermission(it.Module, action)
	}
	if err != nil {
		return false
	}
	return checks.Allowed(p)
}

// DefaultMenu navegación principal del ERP.
func DefaultMenu() []MenuItem {
	return []MenuItem{
		{Key: "dashboard", Label: "Dashboard", Path: "/dashboard", Module: ModuleDashboard},
		{Key: "email", Label: "Correo", Path: "/email", Module: ModuleEmail},
		{Key: "crm", Label: "CRM", Module: ModuleCRM, Children: []MenuItem{
			{Key: "crm.leads", Label: "Prospectos", Path: "/crm/leads", Module: ModuleCRM, Submodule: "leads"},
			{Key: "crm.contacts", Label: "Contactos", Path: "/crm/contacts", Module: ModuleCRM, Submodule: "contacts"},
			{Key: "crm.opportunities", Label: "Oportunidades", Path: "/crm/opportunities", Module: ModuleCRM, Submodule: "opportunities"},
		}},
		{Key: "inventory", Label: "Inventario", Module: ModuleInventory, Children: []MenuItem{
			{Key: "inventory.warehouses", Label: "Bodegas", Path: "/inventory/warehouses", Module: ModuleInventory, Submodule: "warehouses"},
			{Key: "inventory.products", Label: "Productos", Path: "/inventory/products", Module: ModuleInventory, Submodule: "products"},
			{Key: "inventory.movements", Label: "Movimientos", Path: "/inventory/movements", Module: ModuleInventory, Submodule: "movements"},
		}},
		{Key: "sales", Label: "Ventas", Path: "/sales", Module: ModuleSales},
		{Key: "purchase", Label: "Compras", Path: "/purchase", Module: ModulePurchase},
		{Key: "finance", Label: "Finanzas", Module: ModuleFinance, Children: []MenuItem{
			{Key: "finance.ledger", Label: "Libro mayor", Path: "/finance/ledger", Module: ModuleFinance, Submodule: "ledger"},
			{Key: "vouchers", Label: "Comprobantes", Path: "/finance/vouchers", Module: ModuleVouchers},
		}},
		{Key: "hr", Label: "Recursos humanos", Module: ModuleHR, Children: []MenuItem{
			{Key: "hr.employees", Label: "Empleados", Path: "/hr/employees", Module: ModuleHR, Submodule: "employees"},
			{Key: "hr.payroll", Label: "Nómina", Path: "/hr/payroll", Module: ModuleHR, Submodule: "payroll"},
		}},
		{Key: "manufacturing", Label: "Manufactura", Path: "/manufacturing", Module: ModuleManufacturing},
		{Key: "projects", Label: "Proyectos", Path: "/projects", Module: ModuleProjects},
		{Key: "service", Label: "Servicio", Path: "/service", Module: ModuleService},
		{Key: "reports", Label: "Reportes", Path: "/reports", Module: ModuleReports},
		{Key: "ai_analytics", Label: "Analítica IA", Path: "/ai-analytics", Module: ModuleAIAnalytics},
		{Key: "settings", Label: "Configuración", Module: ModuleSettings, Children: []MenuItem{
			{Key: "settings.users", Label: "Usuarios", Path: "/settings/users", Module: ModuleAdmin},
			{Key: "settings.organization", Label: "Organización", Path: "/settings/organization", Module: ModuleOrganization},
		}},
	}
}
