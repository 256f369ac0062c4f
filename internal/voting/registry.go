package voting

import (
	"github.com/sujalbistaa/circuit/internal/auth"
	"github.com/sujalbistaa/circuit/internal/registry"
)

type engineKey struct {
	ReviewID string
	UserID   string
}

// Registry hands out one Engine per (review, voter) while requests hold it,
// so the busy guard covers concurrent requests from the same voter.
type Registry struct {
	store   VoteStore
	engines *registry.Registry[engineKey, *Engine]
}

func NewRegistry(store VoteStore) *Registry {
	r := &Registry{store: store}
	r.engines = registry.New(func(k engineKey) *Engine {
		return NewEngine(k.ReviewID, &auth.Identity{UserID: k.UserID}, store)
	})
	return r
}

// Acquire returns the engine for voter on reviewID together with its release
// func. Guests get a private engine that only reads.
func (r *Registry) Acquire(reviewID string, voter *auth.Identity) (*Engine, func()) {
	if voter == nil {
		return NewEngine(reviewID, nil, r.store), func() {}
	}
	return r.engines.Acquire(engineKey{ReviewID: reviewID, UserID: voter.UserID})
}

// Held reports how many engines are in use.
func (r *Registry) Held() int {
	return r.engines.Len()
}
