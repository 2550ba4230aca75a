package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/taproot/pkg/ports"
	"github.com/aretw0/taproot/pkg/value"
)

// masked replaces every value whose key matches a PII pattern.
const masked = value.String("***")

type piiMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks the values of keys
// matching the patterns, anywhere in the snapshot, before it reaches the
// store. The in-memory tree keeps the real values; only the persisted
// document is scrubbed.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, v value.Value) error {
	return m.next.Save(ctx, m.mask(v))
}

func (m *piiMiddleware) Load(ctx context.Context) (value.Value, error) {
	return m.next.Load(ctx)
}

func (m *piiMiddleware) Backup(ctx context.Context) error {
	return m.next.Backup(ctx)
}

// mask rebuilds containers so the caller's snapshot is never mutated.
func (m *piiMiddleware) mask(v value.Value) value.Value {
	switch mv := v.(type) {
	case value.Object:
		out := make(value.Object, len(mv))
		for k, e := range mv {
			if m.matches(k) {
				out[k] = masked
				continue
			}
			out[k] = m.mask(e)
		}
		return out
	case value.Array:
		out := make(value.Array, len(mv))
		for i, e := range mv {
			out[i] = m.mask(e)
		}
		return out
	default:
		return v
	}
}

func (m *piiMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
