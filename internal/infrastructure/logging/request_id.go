package logging

import (
	"strings"

	"github.com/google/uuid"
)

// RequestIDGenerator genera identificadores únicos con prefijo
type RequestIDGenerator struct {
	prefix string
}

// NewRequestIDGenerator creates a new request ID generator
func NewRequestIDGenerator(prefix string) *RequestIDGenerator {
	if prefix == "" {
		prefix = "req"
	}
	return &RequestIDGenerator{
		prefix: prefix,
	}
}

// Generate creates a new unique ID.
// Format: {prefix}_{uuid}
func (g *RequestIDGenerator) Generate() string {
	return g.prefix + "_" + uuid.NewString()
}

// GenerateShort devuelve los primeros 8 caracteres hex del uuid
func (g *RequestIDGenerator) GenerateShort() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return g.prefix + "_" + id[:8]
}

var (
	defaultGenerator = NewRequestIDGenerator("req")
	sessionGenerator = NewRequestIDGenerator("ses")
)

// GenerateRequestID generates a request ID using the default generator
func GenerateRequestID() string {
	return defaultGenerator.Generate()
}

// GenerateSessionID genera el identificador de una sesión del conversor
func GenerateSessionID() string {
	return sessionGenerator.GenerateShort()
}
