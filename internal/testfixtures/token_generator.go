package testfixtures

import (
	"fmt"
	"sync"
)

// TokenGenerator produces predictable session tokens for tests.
type TokenGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
}

// NewTokenGenerator yields tokens "<prefix>-1", "<prefix>-2", ... When prefix
// is empty, "token" is used.
func NewTokenGenerator(prefix string) *TokenGenerator {
	if prefix == "" {
		prefix = "token"
	}
	return &TokenGenerator{prefix: prefix}
}

// Next returns the next token in the sequence.
func (g *TokenGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}

// NextFunc exposes Next with the signature AuthService expects.
func (g *TokenGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Issued reports how many tokens were handed out.
func (g *TokenGenerator) Issued() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}
