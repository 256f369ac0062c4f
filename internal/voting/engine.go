package voting

import (
	"context"
	"log"
	"sync"

	"github.com/pkg/errors"

	"github.com/sujalbistaa/circuit/internal/auth"
	"github.com/sujalbistaa/circuit/internal/models"
)

var (
	// ErrSignInRequired is a control-flow signal, not a backend failure: the
	// caller should send the user to sign in.
	ErrSignInRequired   = errors.New("sign in required")
	ErrInvalidDirection = errors.New("vote direction must be like or dislike")
)

// None is the empty vote.
const None models.Direction = ""

// VoteStore is the row-level access the engine needs.
type VoteStore interface {
	ListVotes(ctx context.Context, reviewID string) ([]*models.Vote, error)
	UpsertVote(ctx context.Context, reviewID, userID string, direction models.Direction) error
	DeleteVote(ctx context.Context, reviewID, userID string) error
}

type Transition int

const (
	Cast Transition = iota
	Switch
	Retract
)

func (t Transition) String() string {
	switch t {
	case Cast:
		return "cast"
	case Switch:
		return "switch"
	case Retract:
		return "retract"
	}
	return "unknown"
}

// State is what a review card shows. MyVote is None when the voter has not
// voted or is a guest.
type State struct {
	Likes    int              `json:"likes"`
	Dislikes int              `json:"dislikes"`
	MyVote   models.Direction `json:"myVote"`
	Busy     bool             `json:"busy"`
}

// Result describes the outcome of one Vote call.
type Result struct {
	State      State
	Transition Transition
	// Ignored is set when the call arrived while a previous one was in flight.
	Ignored bool
	// RolledBack is set when the backend write failed and State was restored.
	RolledBack bool
	Err        error
}

// Engine reconciles one voter's vote on one review with the review's tally.
// Updates are applied optimistically and undone if the write fails. While a
// write is in flight further Vote calls are dropped.
type Engine struct {
	reviewID string
	voter    *auth.Identity
	store    VoteStore

	mu       sync.Mutex
	likes    int
	dislikes int
	myVote   models.Direction
	busy     bool
	onChange []func(State)
}

// NewEngine builds an engine for reviewID. voter may be nil for a guest, in
// which case counts can be loaded but voting is refused.
func NewEngine(reviewID string, voter *auth.Identity, store VoteStore) *Engine {
	return &Engine{
		reviewID: reviewID,
		voter:    voter,
		store:    store,
	}
}

// CanVote reports whether a voter identity is attached.
func (e *Engine) CanVote() bool {
	return e.voter != nil
}

// OnChange registers fn to receive every state change, including the
// optimistic one made before the backend write.
func (e *Engine) OnChange(fn func(State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = append(e.onChange, fn)
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

func (e *Engine) snapshot() State {
	return State{Likes: e.likes, Dislikes: e.dislikes, MyVote: e.myVote, Busy: e.busy}
}

func (e *Engine) notify(s State) {
	e.mu.Lock()
	fns := append([]func(State){}, e.onChange...)
	e.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// Load tallies the review's vote rows and seeds MyVote from the voter's own
// row. It leaves the state alone while a write is in flight.
func (e *Engine) Load(ctx context.Context) (State, error) {
	if e.State().Busy {
		return e.State(), nil
	}

	votes, err := e.store.ListVotes(ctx, e.reviewID)
	if err != nil {
		return e.State(), err
	}
	voterID := ""
	if e.voter != nil {
		voterID = e.voter.UserID
	}
	likes, dislikes, mine := Tally(votes, voterID)

	e.mu.Lock()
	if e.busy {
		s := e.snapshot()
		e.mu.Unlock()
		return s, nil
	}
	e.likes, e.dislikes, e.myVote = likes, dislikes, mine
	s := e.snapshot()
	e.mu.Unlock()

	e.notify(s)
	return s, nil
}

// Tally counts likes and dislikes and finds voterID's own direction.
func Tally(votes []*models.Vote, voterID string) (likes, dislikes int, mine models.Direction) {
	mine = None
	for _, v := range votes {
		switch v.VoteType {
		case models.Like:
			likes++
		case models.Dislike:
			dislikes++
		default:
			continue
		}
		if voterID != "" && v.UserID == voterID {
			mine = v.VoteType
		}
	}
	return likes, dislikes, mine
}

func decrement(n int) int {
	if n > 0 {
		return n - 1
	}
	return 0
}

func (e *Engine) add(d models.Direction, delta int) {
	if d == models.Like {
		if delta > 0 {
			e.likes++
		} else {
			e.likes = decrement(e.likes)
		}
		return
	}
	if delta > 0 {
		e.dislikes++
	} else {
		e.dislikes = decrement(e.dislikes)
	}
}

// Vote applies a click on direction d. Clicking the current vote retracts
// it, clicking with no vote casts one, and clicking the other direction
// switches. A guest gets ErrSignInRequired and nothing is written. Backend
// failures are logged and rolled back; they are reported in Result, not as
// an error.
func (e *Engine) Vote(ctx context.Context, d models.Direction) (Result, error) {
	if !d.Valid() {
		return Result{State: e.State()}, ErrInvalidDirection
	}
	if e.voter == nil {
		return Result{State: e.State()}, ErrSignInRequired
	}

	e.mu.Lock()
	if e.busy {
		s := e.snapshot()
		e.mu.Unlock()
		return Result{State: s, Ignored: true}, nil
	}
	e.busy = true
	prevLikes, prevDislikes, prevVote := e.likes, e.dislikes, e.myVote

	var transition Transition
	switch e.myVote {
	case d:
		transition = Retract
		e.myVote = None
		e.add(d, -1)
	case None:
		transition = Cast
		e.myVote = d
		e.add(d, +1)
	default:
		transition = Switch
		e.myVote = d
		e.add(d, +1)
		e.add(d.Opposite(), -1)
	}
	optimistic := e.snapshot()
	e.mu.Unlock()
	e.notify(optimistic)

	var err error
	if transition == Retract {
		err = e.store.DeleteVote(ctx, e.reviewID, e.voter.UserID)
	} else {
		err = e.store.UpsertVote(ctx, e.reviewID, e.voter.UserID, d)
	}

	e.mu.Lock()
	if err != nil {
		e.likes, e.dislikes, e.myVote = prevLikes, prevDislikes, prevVote
	}
	e.busy = false
	final := e.snapshot()
	e.mu.Unlock()
	e.notify(final)

	if err != nil {
		log.Printf("Vote %s on review %s by %s failed, rolled back: %v", transition, e.reviewID, e.voter.UserID, err)
		return Result{State: final, Transition: transition, RolledBack: true, Err: err}, nil
	}
	return Result{State: final, Transition: transition}, nil
}
