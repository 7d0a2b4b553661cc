// Package providers defines the bookmaker adapter contract. Each provider
// adapter decodes a booking code into selections, searches its own event
// catalogue, and re-books translated selections into a new code. The three
// adapters share nothing but this contract, the matcher and the registry;
// wire formats differ per bookmaker.
package providers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"betbridge/internal/pkg/models"
)

// Provider is one bookmaker adapter.
//
// Extract fails with *models.ExtractionError when the code is invalid or the
// provider is unreachable. Book fails with *models.BookingError when the
// provider rejects the payload. FindEvent is best-effort and advisory: any
// network or parse failure resolves to nil, never an error.
type Provider interface {
	Name() string
	Extract(ctx context.Context, code string) ([]models.Selection, error)
	Book(ctx context.Context, selections []models.Selection) (string, error)
	FindEvent(ctx context.Context, home, away string, date time.Time) *models.EventCandidate
}

// Set is the name-to-adapter lookup used by the orchestrator and the HTTP
// surface. Names are matched case-insensitively.
type Set map[string]Provider

func NewSet(providers ...Provider) Set {
	s := make(Set, len(providers))
	for _, p := range providers {
		s[strings.ToLower(p.Name())] = p
	}
	return s
}

// Get resolves a provider by name.
func (s Set) Get(name string) (Provider, error) {
	p, ok := s[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("bookmaker %q not supported (available: %s)", name, strings.Join(s.Names(), ", "))
	}
	return p, nil
}

// Names lists configured provider names, sorted.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
