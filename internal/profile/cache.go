// Package profile fetches user profiles and memoizes them for the life of
// the process. Posts, comments, messages and assignments all reference users
// by id only, so every store enriches through this cache instead of
// refetching the same profile per item.
package profile

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/refconnect/refconnect-cli/internal/api"
	"github.com/refconnect/refconnect-cli/internal/wire"
)

// Cache memoizes GET /profiles/{id} per user id. Failures are cached as nil
// so a missing profile is only asked for once; entries are never invalidated
// within the cache's lifetime.
type Cache struct {
	client *api.Client

	mu      sync.RWMutex
	entries map[string]*wire.Profile
}

// NewCache creates an empty profile cache over client.
func NewCache(client *api.Client) *Cache {
	return &Cache{
		client:  client,
		entries: make(map[string]*wire.Profile),
	}
}

// Get returns the profile for id, fetching it on first use. Returns nil for
// an empty id, a fetch failure, or a profile the server does not know;
// negative results are remembered.
func (c *Cache) Get(ctx context.Context, id string) *wire.Profile {
	if id == "" {
		return nil
	}

	c.mu.RLock()
	cached, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		return cached
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have filled the entry while we waited.
	if cached, ok := c.entries[id]; ok {
		return cached
	}

	var p wire.Profile
	if err := c.client.Get(ctx, "/profiles/"+id, &p); err != nil {
		log.Debug().Err(err).Str("userID", id).Msg("profile fetch failed")
		c.entries[id] = nil
		return nil
	}

	c.entries[id] = &p
	return &p
}

// Put seeds the cache, e.g. from a profile embedded in another payload.
func (c *Cache) Put(p *wire.Profile) {
	if p == nil || p.ID == "" {
		return
	}
	c.mu.Lock()
	c.entries[p.ID] = p
	c.mu.Unlock()
}

// Warm fetches any ids not yet cached. Used before rendering a message list
// so sender lookups afterwards are all hits.
func (c *Cache) Warm(ctx context.Context, ids []string) {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		c.Get(ctx, id)
	}
}

// Extended fetches /profiles/{id}/extended: the profile plus the user's own
// posts with nested comments and likes. Not cached; it is the input to
// notification aggregation and must be fresh.
func (c *Cache) Extended(ctx context.Context, id string) (*wire.ExtendedProfile, error) {
	var p wire.ExtendedProfile
	if err := c.client.Get(ctx, "/profiles/"+id+"/extended", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// All fetches every profile from /profiles and seeds the cache with the
// results; the backend has no search parameter so filtering happens
// client-side.
func (c *Cache) All(ctx context.Context) ([]wire.Profile, error) {
	var profiles []wire.Profile
	if err := c.client.Get(ctx, "/profiles", &profiles); err != nil {
		return nil, err
	}
	for i := range profiles {
		c.Put(&profiles[i])
	}
	return profiles, nil
}
