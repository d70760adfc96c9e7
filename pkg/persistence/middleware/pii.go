package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Mask replaces redacted string values.
const Mask = "***"

type piiMiddleware struct {
	next     ports.BlackboardStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks string variables whose
// names match one of the patterns before they reach the store. Other kinds
// cannot hold the mask and are stored as is.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.BlackboardStore) ports.BlackboardStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, documentID string, vars *domain.Blackboard) error {
	// The engine keeps using vars; only the stored copy is masked.
	masked := vars.Clone()
	for _, v := range masked.Variables() {
		if v.Kind != domain.KindString || !m.matches(v.Name) {
			continue
		}
		if err := masked.Set(v.Name, Mask); err != nil {
			return err
		}
	}
	return m.next.Save(ctx, documentID, masked)
}

func (m *piiMiddleware) matches(name string) bool {
	for _, p := range m.patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

func (m *piiMiddleware) Load(ctx context.Context, documentID string) (*domain.Blackboard, error) {
	return m.next.Load(ctx, documentID)
}

func (m *piiMiddleware) Delete(ctx context.Context, documentID string) error {
	return m.next.Delete(ctx, documentID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
