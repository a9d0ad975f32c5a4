package storage

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/coursemarketer/internal/workflow"
	"github.com/patrickmn/go-cache"
)

// WorkspaceStore holds one workflow per browser workspace. Entries expire
// after ttl without access.
type WorkspaceStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

func New(ttl time.Duration) *WorkspaceStore {
	c := cache.New(ttl, ttl/4)
	c.OnEvicted(func(id string, v any) {
		if m, ok := v.(*workflow.Machine); ok {
			m.Close()
		}
		slog.Debug("Workspace evicted", "workspace_id", id)
	})
	return &WorkspaceStore{cache: c, ttl: ttl}
}

// Create stores m under a new workspace id
func (s *WorkspaceStore) Create(m *workflow.Machine) string {
	id := uuid.NewString()
	s.cache.Set(id, m, cache.DefaultExpiration)
	return id
}

// Get returns the workspace and refreshes its expiry. Replace only touches
// an entry that is still present, so a concurrent Delete is never undone.
func (s *WorkspaceStore) Get(id string) (*workflow.Machine, bool) {
	x, found := s.cache.Get(id)
	if !found {
		return nil, false
	}
	m := x.(*workflow.Machine)
	if err := s.cache.Replace(id, m, cache.DefaultExpiration); err != nil {
		return nil, false
	}
	return m, true
}

func (s *WorkspaceStore) Delete(id string) {
	s.cache.Delete(id)
}

func (s *WorkspaceStore) Count() int {
	return s.cache.ItemCount()
}
