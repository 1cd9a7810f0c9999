// Package secretbox cifra secretos en reposo (DSN de los stores de cada hospital)
// con AES-256-GCM. Formato: base64(nonce)|base64(ciphertext).
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

const (
	// EnvMasterKey variable con la clave maestra en base64.
	EnvMasterKey = "SECRETBOX_MASTER_KEY"

	nonceSizeGCM      = 12  // AES-GCM nonce size recomendado (96 bits)
	requiredKeyLength = 32  // 32 bytes => AES-256
	sep               = "|" // nonce|ciphertext (ambos en base64)
)

var (
	// ErrNoMasterKey la clave maestra no está configurada.
	ErrNoMasterKey = fmt.Errorf("%s no seteada; genere una clave con: openssl rand -base64 32", EnvMasterKey)

	// ErrMalformed el texto cifrado no respeta el formato.
	ErrMalformed = errors.New("formato inválido: esperado base64(nonce)|base64(ciphertext)")
)

// Box cifra y descifra con una clave fija. Seguro para uso concurrente.
type Box struct {
	aead cipher.AEAD
}

// New crea un Box con una clave cruda de 32 bytes.
func New(key []byte) (*Box, error) {
	if len(key) != requiredKeyLength {
		return nil, fmt.Errorf("clave inválida: %d bytes (requiere %d)", len(key), requiredKeyLength)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &Box{aead: aead}, nil
}

// ParseKey acepta la clave en base64 (con o sin padding), hex (64 chars) o cruda.
func ParseKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrNoMasterKey
	}
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if len(key) == 2*requiredKeyLength {
		if h, err := hex.DecodeString(key); err == nil {
			return h, nil
		}
	}
	if len(key) == requiredKeyLength {
		return []byte(key), nil
	}
	return nil, fmt.Errorf("clave inválida: no decodifica a %d bytes", requiredKeyLength)
}

// Encrypt cifra plainText.
func (b *Box) Encrypt(plainText string) (string, error) {
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}
	ct := b.aead.Seal(nil, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt descifra un valor producido por Encrypt.
func (b *Box) Decrypt(cipherText string) (string, error) {
	parts := strings.Split(cipherText, sep)
	if len(parts) != 2 {
		return "", ErrMalformed
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("decode nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(nonce) != nonceSizeGCM {
		return "", fmt.Errorf("nonce inválido: esperado %d bytes, obtuvo %d", nonceSizeGCM, len(nonce))
	}
	pt, err := b.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("gcm auth/decrypt: %w", err)
	}
	return string(pt), nil
}

// ─── Box global (clave maestra del proceso) ───

var (
	mu         sync.RWMutex
	defaultBox *Box
	loadOnce   sync.Once
	loadErr    error
)

func ensureLoaded() (*Box, error) {
	loadOnce.Do(func() {
		k, err := ParseKey(os.Getenv(EnvMasterKey))
		if err != nil {
			loadErr = fmt.Errorf("%s: %w", EnvMasterKey, err)
			return
		}
		box, err := New(k)
		if err != nil {
			loadErr = err
			return
		}
		mu.Lock()
		if defaultBox == nil {
			defaultBox = box
		}
		mu.Unlock()
	})
	mu.RLock()
	defer mu.RUnlock()
	if defaultBox != nil {
		return defaultBox, nil
	}
	return nil, loadErr
}

// Init fija la clave maestra explícitamente (p. ej. desde config). Reemplaza la anterior.
func Init(key string) error {
	k, err := ParseKey(key)
	if err != nil {
		return err
	}
	box, err := New(k)
	if err != nil {
		return err
	}
	mu.Lock()
	defaultBox = box
	mu.Unlock()
	return nil
}

// Ready indica si hay clave maestra cargada (healthchecks).
func Ready() bool {
	_, err := ensureLoaded()
	return err == nil
}

// Encrypt cifra con la clave maestra.
func Encrypt(plainText string) (string, error) {
	box, err := ensureLoaded()
	if err != nil {
		return "", err
	}
	return box.Encrypt(plainText)
}

// Decrypt descifra con la clave maestra.
func Decrypt(cipherText string) (string, error) {
	box, err := ensureLoaded()
	if err != nil {
		return "", err
	}
	return box.Decrypt(cipherText)
}

// UnsafeResetForTests borra el estado global. Usar sólo en tests.
func UnsafeResetForTests() {
	mu.Lock()
	defaultBox = nil
	mu.Unlock()
	loadOnce = sync.Once{}
	loadErr = nil
}
