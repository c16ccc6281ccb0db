package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SchemaVersion is folded into every key so that a change in the parser's
// output format invalidates old entries instead of misreading them.
const SchemaVersion = 1

// Keyer derives cache keys.
type Keyer interface {
	// SpecifierKey returns the key for the specifiers parsed from content
	// with the grammar selected for lang (a file extension such as ".ts").
	SpecifierKey(content []byte, lang string) string

	// RenderKey returns the key for a graph rendered from DOT source with
	// the hash dotHash into format.
	RenderKey(dotHash, format string) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SpecifierKey implements Keyer.
func (DefaultKeyer) SpecifierKey(content []byte, lang string) string {
	return hashKey("specifiers", SchemaVersion, lang, Hash(content))
}

// RenderKey implements Keyer.
func (DefaultKeyer) RenderKey(dotHash, format string) string {
	return hashKey("render", SchemaVersion, format, dotHash)
}

// ScopedKeyer wraps a Keyer with a prefix so several projects or users can
// share one Redis instance without colliding.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// A nil inner keyer falls back to DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SpecifierKey implements Keyer.
func (k *ScopedKeyer) SpecifierKey(content []byte, lang string) string {
	return k.prefix + k.inner.SpecifierKey(content, lang)
}

// RenderKey implements Keyer.
func (k *ScopedKeyer) RenderKey(dotHash, format string) string {
	return k.prefix + k.inner.RenderKey(dotHash, format)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
