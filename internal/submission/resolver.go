package submission

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/sujalbistaa/circuit/internal/models"
	"github.com/sujalbistaa/circuit/internal/store"
)

// ClubStore is what organizer resolution needs from the backend.
type ClubStore interface {
	FindClubByName(ctx context.Context, name string) (*models.Club, error)
	CreateClub(ctx context.Context, name, university string) (*models.Club, error)
}

// OrganizerRef is the organizer part of a draft.
type OrganizerRef struct {
	ClubID         string
	ClubName       string
	UniversityName string
}

// Resolver turns an OrganizerRef into a club id, creating the club when a
// typed-in organizer does not exist yet.
type Resolver struct {
	clubs   ClubStore
	created func(*models.Club)
}

func NewResolver(clubs ClubStore) *Resolver {
	return &Resolver{clubs: clubs}
}

// OnCreated registers a hook run after a new club is inserted.
func (r *Resolver) OnCreated(fn func(*models.Club)) {
	r.created = fn
}

// Resolve returns the organizer id to store on the review, or nil when the
// review is not attached to any organizer. A picked ClubID always wins,
// even when the draft was flagged as a new organizer. Otherwise a typed-in name is first matched
// case-insensitively so two users typing the same new organizer share it.
func (r *Resolver) Resolve(ctx context.Context, ref OrganizerRef) (*string, error) {
	if ref.ClubID != "" {
		id := ref.ClubID
		return &id, nil
	}

	name := strings.TrimSpace(ref.ClubName)
	if name == "" {
		return nil, nil
	}

	existing, err := r.clubs.FindClubByName(ctx, name)
	if err == nil {
		return &existing.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrap(err, "look up organizer")
	}

	club, err := r.clubs.CreateClub(ctx, name, ref.UniversityName)
	if err != nil {
		return nil, errors.Wrap(err, "create organizer")
	}
	if r.created != nil {
		r.created(club)
	}
	return &club.ID, nil
}
