// Package session contiene los controllers de login y de selección de hospital.
package session

import svc "github.com/dropDatabas3/clinicore/internal/http/services/session"

// Controllers agrupa los controllers de sesión.
type Controllers struct {
	Login     *LoginController
	Selection *SelectionController
}

// NewControllers crea el agregador. privileged son los roles que pueden elegir cualquier hospital.
func NewControllers(s svc.Service, privileged []string) *Controllers {
	return &Controllers{
		Login:     NewLoginController(s),
		Selection: NewSelectionController(s, privileged),
	}
}
