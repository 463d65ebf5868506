// Package id provides centralized ID generation for the tracing
// service.
//
// Trace node ids are prefixed ULIDs (node_*): lexicographically
// sortable by creation time, globally unique, and readable in logs.
// HTTP request ids share the same scheme under the req_* prefix.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// NodeID identifies one traced event (span).
type NodeID string

// RequestID identifies an API request.
type RequestID string

// ID prefixes for debugging and type identification.
const (
	NodePrefix    = "node"
	RequestPrefix = "req"
)

// Generator generates ULIDs with optional prefixes.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand entropy.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy
// source, useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string.
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewNodeID generates a new trace node ID.
func NewNodeID() NodeID {
	return NodeID(Default().GenerateWithPrefix(NodePrefix))
}

// NewRequestID generates a new request ID.
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

func (id NodeID) String() string    { return string(id) }
func (id RequestID) String() string { return string(id) }

// IsValid checks whether an ID string is a (optionally prefixed) ULID.
func IsValid(id string) bool {
	_, rest, found := strings.Cut(id, "_")
	if !found {
		rest = id
	}
	_, err := ulid.Parse(rest)
	return err == nil
}

// Timestamp extracts the creation time embedded in a prefixed ULID.
func Timestamp(id string) (time.Time, error) {
	_, rest, found := strings.Cut(id, "_")
	if !found {
		rest = id
	}
	parsed, err := ulid.Parse(rest)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
