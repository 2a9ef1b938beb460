package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP. Las denegaciones de acceso añaden ErrorType y el detalle
// (módulo y estado de licencia, o permiso requerido) para que el cliente distinga ambos casos.
type ErrorResponse struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	ErrorType  string `json:"error_type,omitempty"`
	ModuleKey  string `json:"module_key,omitempty"`
	Submodule  string `json:"submodule,omitempty"`
	Status     string `json:"status,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Permission string `json:"permission,omitempty"`
}
