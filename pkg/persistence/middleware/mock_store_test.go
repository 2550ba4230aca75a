package middleware

import (
	"context"

	"github.com/aretw0/taproot/pkg/ports"
	"github.com/aretw0/taproot/pkg/value"
)

// mockStore records what actually reaches the storage layer, so tests can
// assert on the post-middleware document.
type mockStore struct {
	saved   value.Value
	saves   int
	backups int
}

func (s *mockStore) Save(ctx context.Context, v value.Value) error {
	s.saved = v
	s.saves++
	return nil
}

func (s *mockStore) Load(ctx context.Context) (value.Value, error) {
	if s.saves == 0 {
		return nil, ports.ErrNotExist
	}
	return s.saved, nil
}

func (s *mockStore) Backup(ctx context.Context) error {
	s.backups++
	return nil
}
