package submission

import (
	"context"
	"log"
	"sync"

	"github.com/pkg/errors"

	"github.com/sujalbistaa/circuit/internal/auth"
	"github.com/sujalbistaa/circuit/internal/draft"
	"github.com/sujalbistaa/circuit/internal/models"
	"github.com/sujalbistaa/circuit/internal/registry"
	"github.com/sujalbistaa/circuit/internal/store"
)

type Stage string

const (
	Composing    Stage = "composing"
	AwaitingAuth Stage = "awaiting_auth"
	Publishing   Stage = "publishing"
	Published    Stage = "published"
)

var (
	ErrNotEditable       = errors.New("draft cannot be edited now")
	ErrPublishInProgress = errors.New("publish already in progress")
	ErrAlreadyPublished  = errors.New("review already published, reset to write another")
)

// Outcome is the visible result of the latest publish step.
type Outcome struct {
	Stage    Stage
	Validity draft.Validity
	Review   *models.Review
	Err      error
}

// Flow drives one draft from composing to published, deferring the publish
// across a sign-in when the author is a guest.
type Flow struct {
	key       string
	cache     draft.Cache
	publisher *Publisher

	mu       sync.Mutex
	restored bool
	stage    Stage
	last     Outcome
}

func NewFlow(key string, cache draft.Cache, publisher *Publisher) *Flow {
	return &Flow{
		key:       key,
		cache:     cache,
		publisher: publisher,
		stage:     Composing,
	}
}

func (f *Flow) Key() string {
	return f.key
}

func (f *Flow) Stage() Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage
}

// Last returns the outcome of the most recent publish attempt, including one
// triggered by a sign-in.
func (f *Flow) Last() Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// Restore derives the stage from the cache the first time the flow is used.
// A published marker means the slot stays Published until an explicit reset;
// a pending publish means the author was sent to sign in.
func (f *Flow) Restore(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.restored {
		return nil
	}
	reviewID, err := f.cache.PublishedReview(ctx, f.key)
	if err != nil {
		return err
	}
	if reviewID != "" {
		review, err := f.publisher.Review(ctx, reviewID)
		switch {
		case err == nil:
			f.stage = Published
			f.last = Outcome{Stage: Published, Review: review}
			f.restored = true
			return nil
		case errors.Is(err, store.ErrNotFound):
			// The review is gone; start over with whatever the slot holds.
			if err := f.cache.SetPublishedReview(ctx, f.key, ""); err != nil {
				return err
			}
		default:
			return err
		}
	}
	pending, err := f.cache.PendingPublish(ctx, f.key)
	if err != nil {
		return err
	}
	if pending {
		f.stage = AwaitingAuth
	}
	f.restored = true
	return nil
}

func (f *Flow) Draft(ctx context.Context) (draft.Draft, error) {
	return f.cache.Load(ctx, f.key)
}

// Edit replaces the draft. Edits are allowed while composing and at the
// sign-in gate.
func (f *Flow) Edit(ctx context.Context, d draft.Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stage != Composing && f.stage != AwaitingAuth {
		return ErrNotEditable
	}
	return f.cache.Save(ctx, f.key, d)
}

// Back leaves the sign-in gate and returns to composing.
func (f *Flow) Back(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stage != AwaitingAuth {
		return nil
	}
	if err := f.cache.SetPendingPublish(ctx, f.key, false); err != nil {
		return err
	}
	f.stage = Composing
	return nil
}

// Reset discards the draft and starts a blank form. It is the only way out
// of Published.
func (f *Flow) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stage == Publishing {
		return ErrPublishInProgress
	}
	if err := f.cache.Clear(ctx, f.key); err != nil {
		return err
	}
	if err := f.cache.SetPendingPublish(ctx, f.key, false); err != nil {
		return err
	}
	if err := f.cache.SetPublishedReview(ctx, f.key, ""); err != nil {
		return err
	}
	f.stage = Composing
	f.last = Outcome{}
	return nil
}

// RequestPublish is the author pressing publish. A signed-in author is
// published right away; a guest is parked in AwaitingAuth with the pending
// flag set.
func (f *Flow) RequestPublish(ctx context.Context, sess *auth.Session) (Outcome, error) {
	f.mu.Lock()
	switch f.stage {
	case Publishing:
		f.mu.Unlock()
		return Outcome{Stage: Publishing}, ErrPublishInProgress
	case Published:
		out := f.last
		f.mu.Unlock()
		return out, ErrAlreadyPublished
	}
	f.mu.Unlock()

	d, err := f.cache.Load(ctx, f.key)
	if err != nil {
		return Outcome{Stage: f.Stage()}, err
	}
	validity := d.Validate()
	if !validity.Valid {
		return Outcome{Stage: f.Stage(), Validity: validity}, ErrInvalidDraft
	}

	identity := sess.Identity()
	if identity == nil {
		f.mu.Lock()
		defer f.mu.Unlock()
		if err := f.cache.SetPendingPublish(ctx, f.key, true); err != nil {
			return Outcome{Stage: f.stage, Validity: validity}, err
		}
		f.stage = AwaitingAuth
		return Outcome{Stage: AwaitingAuth, Validity: validity}, nil
	}
	out := f.publish(ctx, identity)
	out.Validity = validity
	return out, out.Err
}

// Watch subscribes the flow to sess. A sign-in or sign-up while a publish is
// pending publishes the draft at once. The caller unsubscribes when done.
func (f *Flow) Watch(ctx context.Context, sess *auth.Session) (unsubscribe func()) {
	return sess.Subscribe(func(ev auth.Event) {
		if ev.Identity == nil || (ev.Kind != auth.SignedIn && ev.Kind != auth.SignedUp) {
			return
		}
		if f.Stage() != AwaitingAuth {
			return
		}
		out := f.publish(ctx, ev.Identity)
		if out.Err != nil {
			log.Printf("Deferred publish of draft %s failed: %v", f.key, out.Err)
		}
	})
}

func (f *Flow) publish(ctx context.Context, identity *auth.Identity) Outcome {
	f.mu.Lock()
	if f.stage == Publishing {
		f.mu.Unlock()
		return Outcome{Stage: Publishing, Err: ErrPublishInProgress}
	}
	f.stage = Publishing
	f.mu.Unlock()

	review, err := f.publisher.Publish(ctx, identity, f.key)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		// The attempt is over either way; the author is signed in now, so a
		// retry goes through the direct path.
		if perr := f.cache.SetPendingPublish(ctx, f.key, false); perr != nil {
			log.Printf("Error clearing pending flag of draft %s: %v", f.key, perr)
		}
		f.stage = Composing
		f.last = Outcome{Stage: Composing, Err: err}
		return f.last
	}
	if err := f.cache.SetPublishedReview(ctx, f.key, review.ID); err != nil {
		log.Printf("Error marking draft %s as published: %v", f.key, err)
	}
	f.stage = Published
	f.last = Outcome{Stage: Published, Review: review}
	return f.last
}

// Flows shares one Flow per draft token between concurrent requests.
type Flows struct {
	cache     draft.Cache
	publisher *Publisher
	flows     *registry.Registry[string, *Flow]
}

func NewFlows(cache draft.Cache, publisher *Publisher) *Flows {
	fs := &Flows{cache: cache, publisher: publisher}
	fs.flows = registry.New(func(key string) *Flow {
		return NewFlow(key, cache, publisher)
	})
	return fs
}

// Acquire returns the restored flow for key and its release func.
func (fs *Flows) Acquire(ctx context.Context, key string) (*Flow, func(), error) {
	f, release := fs.flows.Acquire(key)
	if err := f.Restore(ctx); err != nil {
		release()
		return nil, nil, err
	}
	return f, release, nil
}
