package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/circuit/internal/models"
	"github.com/sujalbistaa/circuit/internal/voting"
)

type VoteInput struct {
	Direction models.Direction `json:"direction" binding:"required,oneof=like dislike"`
}

// VoteView is a review card's vote area. MyVote is null when the caller has
// no vote.
type VoteView struct {
	Likes    int               `json:"likes"`
	Dislikes int               `json:"dislikes"`
	MyVote   *models.Direction `json:"myVote"`
	CanVote  bool              `json:"canVote"`
}

func voteView(s voting.State, canVote bool) VoteView {
	view := VoteView{Likes: s.Likes, Dislikes: s.Dislikes, CanVote: canVote}
	if s.MyVote != voting.None {
		mine := s.MyVote
		view.MyVote = &mine
	}
	return view
}

// reviewExists answers 404 or 500 itself and reports whether to continue.
func (e *Env) reviewExists(c *gin.Context, reviewID string) bool {
	exists, err := e.Dao.ReviewExists(c.Request.Context(), reviewID)
	if err != nil {
		log.Printf("Error looking up review %s: %v", reviewID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch review"})
		return false
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		return false
	}
	return true
}

func (e *Env) GetVotes(c *gin.Context) {
	reviewID := c.Param("id")
	if !e.reviewExists(c, reviewID) {
		return
	}

	engine, release := e.Votes.Acquire(reviewID, sessionOf(c).Identity())
	defer release()

	state, err := engine.Load(c.Request.Context())
	if err != nil {
		log.Printf("Error loading votes of review %s: %v", reviewID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch votes"})
		return
	}
	c.JSON(http.StatusOK, voteView(state, engine.CanVote()))
}

func (e *Env) VoteOnReview(c *gin.Context) {
	reviewID := c.Param("id")

	identity := sessionOf(c).Identity()
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": voting.ErrSignInRequired.Error(), "code": "sign_in_required"})
		return
	}

	var input VoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if !e.reviewExists(c, reviewID) {
		return
	}

	engine, release := e.Votes.Acquire(reviewID, identity)
	defer release()

	ctx := c.Request.Context()
	if _, err := engine.Load(ctx); err != nil {
		log.Printf("Error loading votes of review %s: %v", reviewID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch votes"})
		return
	}

	res, err := engine.Vote(ctx, input.Direction)
	if errors.Is(err, voting.ErrInvalidDirection) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("Error voting on review %s: %v", reviewID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process vote"})
		return
	}
	e.Metrics.ObserveVote(res)

	view := voteView(res.State, true)
	switch {
	case res.Ignored:
		c.JSON(http.StatusAccepted, gin.H{"applied": false, "busy": true, "votes": view})
	case res.RolledBack:
		c.JSON(http.StatusOK, gin.H{"applied": false, "error": "Failed to record vote", "votes": view})
	default:
		c.JSON(http.StatusOK, gin.H{"applied": true, "transition": res.Transition.String(), "votes": view})
	}
}
