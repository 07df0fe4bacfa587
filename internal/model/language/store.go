package language

// Store exposes language retrieval for HTTP handlers and the orchestrator.
type Store interface {
	List() []Language
	FindByCode(code string) (Language, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Language
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied languages.
func NewMemoryStore(items []Language) *MemoryStore {
	return &MemoryStore{items: append([]Language(nil), items...)}
}

// List returns the supported language list.
func (s *MemoryStore) List() []Language {
	return append([]Language(nil), s.items...)
}

// FindByCode looks up a language by its short code.
func (s *MemoryStore) FindByCode(code string) (Language, bool) {
	for _, item := range s.items {
		if item.Code == code {
			return item, true
		}
	}
	return Language{}, false
}
