package tenantctx

import (
	"errors"
	"sync"
)

var (
	// ErrNoScope indica que el contexto no tiene Scope (no pasó por Begin/Run).
	ErrNoScope = errors.New("tenantctx: no scope in context")

	// ErrAlreadySuspended indica un Suspend anidado. Solo se soporta un nivel.
	ErrAlreadySuspended = errors.New("tenantctx: already suspended")
)

// Scope es la celda del tenant activo de una unidad de trabajo.
type Scope struct {
	mu        sync.Mutex
	value     Value
	suspended bool
	saved     Value
	// gen cambia en cada Clear; un resume de una generación vieja no restaura nada.
	gen uint64
}

// Set instala el tenant. Llamarlo de nuevo reemplaza el valor anterior.
func (s *Scope) Set(code string) {
	s.mu.Lock()
	s.value = Active(code)
	s.mu.Unlock()
}

// Get retorna el valor actual.
func (s *Scope) Get() Value {
	if s == nil {
		return Unset()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Clear vuelve a Unset y descarta cualquier suspensión pendiente. Idempotente.
func (s *Scope) Clear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.value = Unset()
	s.saved = Unset()
	s.suspended = false
	s.gen++
	s.mu.Unlock()
}

// Suspend pausa el tenant activo (queda Unset) y retorna la función que lo restaura.
// Un Suspend dentro de otro retorna ErrAlreadySuspended. resume es idempotente y no
// restaura nada si el Scope fue limpiado en el medio.
func (s *Scope) Suspend() (resume func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suspended {
		return nil, ErrAlreadySuspended
	}
	s.suspended = true
	s.saved = s.value
	s.value = Unset()
	gen := s.gen

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.gen != gen || !s.suspended {
				return
			}
			s.value = s.saved
			s.saved = Unset()
			s.suspended = false
		})
	}, nil
}

// Suspended indica si hay una suspensión en curso.
func (s *Scope) Suspended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suspended
}
