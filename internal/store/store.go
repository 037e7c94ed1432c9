package store

import (
	"sync"

	"landing_ai_server/internal/types"
)

// PageStore maps generated page ids to pages.
type PageStore interface {
	// Put stores page under id, replacing any previous value.
	Put(id string, page types.GeneratedPage)
	// Get returns the page for id and whether it exists.
	Get(id string) (types.GeneratedPage, bool)
	// Insert stores page only if id is not taken yet. It reports whether the page was stored.
	Insert(id string, page types.GeneratedPage) bool
	// Len returns the number of stored pages.
	Len() int
}

// MemoryStore is a process-local PageStore. Nothing is ever evicted.
type MemoryStore struct {
	mu    sync.RWMutex
	pages map[string]types.GeneratedPage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pages: make(map[string]types.GeneratedPage)}
}

func (s *MemoryStore) Put(id string, page types.GeneratedPage) {
	page = clonePage(page)
	s.mu.Lock()
	s.pages[id] = page
	s.mu.Unlock()
}

func (s *MemoryStore) Get(id string) (types.GeneratedPage, bool) {
	s.mu.RLock()
	page, ok := s.pages[id]
	s.mu.RUnlock()
	if !ok {
		return types.GeneratedPage{}, false
	}
	return clonePage(page), true
}

func (s *MemoryStore) Insert(id string, page types.GeneratedPage) bool {
	page = clonePage(page)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.pages[id]; taken {
		return false
	}
	s.pages[id] = page
	return true
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}

// clonePage copies the sections slice so stored pages cannot be mutated through a caller's slice.
func clonePage(page types.GeneratedPage) types.GeneratedPage {
	if page.Sections != nil {
		sections := make([]types.Section, len(page.Sections))
		copy(sections, page.Sections)
		page.Sections = sections
	}
	return page
}
