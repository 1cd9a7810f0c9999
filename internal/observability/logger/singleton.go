package logger

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.Mutex
	current atomic.Pointer[zap.Logger]
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init construye el logger global. El CLI lo llama una vez por comando;
// una segunda llamada reemplaza al anterior (tests de cobra corren varios comandos).
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	level.SetLevel(ParseLevel(cfg.Level))
	current.Store(build(cfg, level))
}

// L retorna el logger global; sin Init arranca en modo dev/info.
func L() *zap.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	mu.Lock()
	defer mu.Unlock()
	if l := current.Load(); l != nil {
		return l
	}
	l := build(Config{Env: "dev"}, level)
	current.Store(l)
	return l
}

// Replace instala l como global y devuelve cómo restaurar el anterior.
func Replace(l *zap.Logger) (restore func()) {
	prev := current.Swap(l)
	return func() { current.Store(prev) }
}

// Named logger de componente ("registry", "controlplane", ...).
func Named(name string) *zap.Logger { return L().Named(name) }

func With(fields ...zap.Field) *zap.Logger { return L().With(fields...) }

// Sync flushea buffers. El root command lo llama al terminar.
func Sync() error {
	if l := current.Load(); l != nil {
		return l.Sync()
	}
	return nil
}
