package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/circuit/internal/draft"
	"github.com/sujalbistaa/circuit/internal/models"
	"github.com/sujalbistaa/circuit/internal/submission"
)

// OutcomeView is the client-facing form of a publish step.
type OutcomeView struct {
	Stage     submission.Stage `json:"stage"`
	Review    *models.Review   `json:"review,omitempty"`
	Error     string           `json:"error,omitempty"`
	Retryable bool             `json:"retryable,omitempty"`
}

func outcomeView(out submission.Outcome) OutcomeView {
	view := OutcomeView{Stage: out.Stage, Review: out.Review}
	if out.Err != nil {
		view.Error = out.Err.Error()
		view.Retryable = errors.Is(out.Err, submission.ErrPublishFailed)
	}
	return view
}

// withFlow acquires the caller's flow for the duration of fn.
func (e *Env) withFlow(c *gin.Context, fn func(*submission.Flow)) {
	flow, release, err := e.Flows.Acquire(c.Request.Context(), draftTokenOf(c))
	if err != nil {
		log.Printf("Error restoring draft %s: %v", draftTokenOf(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restore draft"})
		return
	}
	defer release()
	fn(flow)
}

func (e *Env) renderDraft(c *gin.Context, flow *submission.Flow) {
	d, err := flow.Draft(c.Request.Context())
	if err != nil {
		log.Printf("Error loading draft %s: %v", flow.Key(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load draft"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"draftToken": flow.Key(),
		"draft":      d,
		"stage":      flow.Stage(),
		"validity":   d.Validate(),
		"last":       outcomeView(flow.Last()),
	})
}

func (e *Env) GetDraft(c *gin.Context) {
	e.withFlow(c, func(flow *submission.Flow) {
		e.renderDraft(c, flow)
	})
}

func (e *Env) SaveDraft(c *gin.Context) {
	input := draft.Empty()
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	e.withFlow(c, func(flow *submission.Flow) {
		err := flow.Edit(c.Request.Context(), input)
		if errors.Is(err, submission.ErrNotEditable) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "stage": flow.Stage()})
			return
		}
		if err != nil {
			log.Printf("Error saving draft %s: %v", flow.Key(), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save draft"})
			return
		}
		e.Metrics.IncDraftsSaved()
		e.renderDraft(c, flow)
	})
}

func (e *Env) ResetDraft(c *gin.Context) {
	e.withFlow(c, func(flow *submission.Flow) {
		err := flow.Reset(c.Request.Context())
		if errors.Is(err, submission.ErrPublishInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "stage": flow.Stage()})
			return
		}
		if err != nil {
			log.Printf("Error resetting draft %s: %v", flow.Key(), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset draft"})
			return
		}
		e.renderDraft(c, flow)
	})
}

// BackToDraft leaves the sign-in gate without publishing.
func (e *Env) BackToDraft(c *gin.Context) {
	e.withFlow(c, func(flow *submission.Flow) {
		if err := flow.Back(c.Request.Context()); err != nil {
			log.Printf("Error leaving sign-in gate for draft %s: %v", flow.Key(), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update draft"})
			return
		}
		e.renderDraft(c, flow)
	})
}

func (e *Env) PublishDraft(c *gin.Context) {
	e.withFlow(c, func(flow *submission.Flow) {
		out, err := flow.RequestPublish(c.Request.Context(), sessionOf(c))
		switch {
		case errors.Is(err, submission.ErrInvalidDraft):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "validity": out.Validity})
		case errors.Is(err, submission.ErrPublishInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "stage": out.Stage})
		case errors.Is(err, submission.ErrAlreadyPublished):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "stage": out.Stage, "review": out.Review})
		case errors.Is(err, submission.ErrPublishFailed):
			log.Printf("Publish of draft %s failed: %v", flow.Key(), err)
			c.JSON(http.StatusBadGateway, gin.H{"error": submission.ErrPublishFailed.Error(), "stage": out.Stage, "retryable": true})
		case err != nil:
			log.Printf("Error publishing draft %s: %v", flow.Key(), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish review"})
		case out.Stage == submission.AwaitingAuth:
			c.JSON(http.StatusAccepted, gin.H{"stage": out.Stage, "signInRequired": true})
		default:
			c.JSON(http.StatusCreated, gin.H{"stage": out.Stage, "review": out.Review})
		}
	})
}
