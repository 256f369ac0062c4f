package submission

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/sujalbistaa/circuit/internal/auth"
	"github.com/sujalbistaa/circuit/internal/draft"
	"github.com/sujalbistaa/circuit/internal/models"
)

var (
	ErrSignInRequired = errors.New("sign in required")
	ErrInvalidDraft   = errors.New("draft is not ready to publish")
	// ErrPublishFailed matches every PublishError.
	ErrPublishFailed = errors.New("something went wrong while publishing, please try again")
)

// PublishError is a retryable publish failure. The draft is left in place.
type PublishError struct {
	Step string
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed at %s: %v", e.Step, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

func (e *PublishError) Is(target error) bool { return target == ErrPublishFailed }

// ReviewStore inserts review rows and reads them back with the organizer
// joined.
type ReviewStore interface {
	CreateReview(ctx context.Context, review *models.Review) error
	GetReview(ctx context.Context, id string) (*models.Review, error)
}

// Observer is told about every publish attempt that reached the backend.
type Observer interface {
	ObservePublish(elapsed time.Duration, err error)
}

// Publisher materializes the cached draft as a review row.
type Publisher struct {
	cache    draft.Cache
	resolver *Resolver
	reviews  ReviewStore
	observer Observer
}

func NewPublisher(cache draft.Cache, resolver *Resolver, reviews ReviewStore, observer Observer) *Publisher {
	return &Publisher{
		cache:    cache,
		resolver: resolver,
		reviews:  reviews,
		observer: observer,
	}
}

// BuildReview maps a draft onto a new review row. Empty optional fields
// become NULL.
func BuildReview(d draft.Draft, clubID *string) *models.Review {
	review := &models.Review{
		ClubID:          clubID,
		CompetitionName: strings.TrimSpace(d.CompetitionName),
		Ratings:         d.Metrics,
		IsAnonymous:     d.IsAnonymous,
	}
	if date := strings.TrimSpace(d.EventDate); date != "" {
		review.EventDate = &date
	}
	if text := strings.TrimSpace(d.ReviewText); text != "" {
		review.Comment = &text
	}
	return review
}

// Publish reads the draft stored under key, resolves its organizer and
// inserts the review. On success the draft and the pending flag are cleared.
// It does not sign anyone in: identity must already be present.
func (p *Publisher) Publish(ctx context.Context, identity *auth.Identity, key string) (*models.Review, error) {
	if identity == nil {
		return nil, ErrSignInRequired
	}

	d, err := p.cache.Load(ctx, key)
	if err != nil {
		return nil, &PublishError{Step: "load draft", Err: err}
	}
	if !d.Validate().Valid {
		return nil, ErrInvalidDraft
	}

	start := time.Now()
	review, err := p.insert(ctx, d)
	if p.observer != nil {
		p.observer.ObservePublish(time.Since(start), err)
	}
	if err != nil {
		log.Printf("Error publishing draft %s for %s: %v", key, identity.UserID, err)
		return nil, err
	}

	if err := p.cache.Clear(ctx, key); err != nil {
		log.Printf("Error clearing published draft %s: %v", key, err)
	}
	if err := p.cache.SetPendingPublish(ctx, key, false); err != nil {
		log.Printf("Error clearing pending flag of draft %s: %v", key, err)
	}
	return review, nil
}

func (p *Publisher) insert(ctx context.Context, d draft.Draft) (*models.Review, error) {
	clubID, err := p.resolver.Resolve(ctx, OrganizerRef{
		ClubID:         d.ClubID,
		ClubName:       d.ClubName,
		UniversityName: d.UniversityName,
	})
	if err != nil {
		return nil, &PublishError{Step: "resolve organizer", Err: err}
	}
	review := BuildReview(d, clubID)
	if err := p.reviews.CreateReview(ctx, review); err != nil {
		return nil, &PublishError{Step: "insert review", Err: err}
	}
	// The row is in; a failed re-read only costs the organizer join.
	joined, err := p.reviews.GetReview(ctx, review.ID)
	if err != nil {
		log.Printf("Error reloading published review %s: %v", review.ID, err)
		return review, nil
	}
	return joined, nil
}

// Review reads a published review with its organizer joined.
func (p *Publisher) Review(ctx context.Context, id string) (*models.Review, error) {
	return p.reviews.GetReview(ctx, id)
}
