package utils

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

const lowercase = "abcdefghijklmnopqrstuvwxyz"

// StringSource produces random lowercase strings for account passwords.
// It is safe for use from a single goroutine; the orchestration engine is
// single-threaded so no further locking is needed there, but the mutex keeps
// the CLI free to share one source between setup paths.
type StringSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewStringSource creates a source seeded from the given value. Tests pass a
// fixed seed to get reproducible credentials.
func NewStringSource(seed int64) *StringSource {
	return &StringSource{rng: rand.New(rand.NewSource(seed))}
}

// NewDefaultStringSource creates a time-seeded source.
func NewDefaultStringSource() *StringSource {
	return NewStringSource(time.Now().UnixNano())
}

// RandomLowercase returns a random string of ASCII lowercase letters.
func (s *StringSource) RandomLowercase(length int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(lowercase[s.rng.Intn(len(lowercase))])
	}
	return b.String()
}

// SanitizeAccountName turns an asset name into something usable as a login:
// lowercase, with spaces and slashes replaced by dots.
func SanitizeAccountName(name string) string {
	sanitized := strings.ToLower(name)
	sanitized = strings.ReplaceAll(sanitized, " ", ".")
	sanitized = strings.ReplaceAll(sanitized, "/", ".")
	return sanitized
}
