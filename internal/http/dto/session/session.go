package session

// LoginRequest body de POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse token de acceso emitido.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// SelectTenantRequest body de POST /v1/session/tenant.
type SelectTenantRequest struct {
	Code string `json:"code"`
}

// TenantOption hospital seleccionable por la cuenta.
type TenantOption struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// SelectionResponse selección vigente. Code vacío: sin hospital elegido.
type SelectionResponse struct {
	Code   string        `json:"code,omitempty"`
	Tenant *TenantOption `json:"tenant,omitempty"`
}
