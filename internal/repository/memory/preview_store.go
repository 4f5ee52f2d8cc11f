package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// PreviewStore keeps extracted document text previews warm so list and
// detail endpoints do not re-read files from disk.
type PreviewStore struct {
	cache *cache.Cache
}

func NewPreviewStore() *PreviewStore {
	// Previews change only on reindex, so a long TTL is fine.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &PreviewStore{
		cache: c,
	}
}

func (s *PreviewStore) Save(documentID, preview string) {
	s.cache.Set(documentID, preview, cache.DefaultExpiration)
}

func (s *PreviewStore) Get(documentID string) (string, bool) {
	if x, found := s.cache.Get(documentID); found {
		return x.(string), true
	}
	return "", false
}

func (s *PreviewStore) Delete(documentID string) {
	s.cache.Delete(documentID)
}
