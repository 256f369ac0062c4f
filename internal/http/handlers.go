package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sujalbistaa/circuit/internal/auth"
	"github.com/sujalbistaa/circuit/internal/config"
	"github.com/sujalbistaa/circuit/internal/draft"
	"github.com/sujalbistaa/circuit/internal/metrics"
	"github.com/sujalbistaa/circuit/internal/models"
	"github.com/sujalbistaa/circuit/internal/store"
	"github.com/sujalbistaa/circuit/internal/submission"
	"github.com/sujalbistaa/circuit/internal/voting"
)

// --- Handlers ---
type Env struct {
	Dao     *store.DaoManager
	Auth    *auth.Service
	Votes   *voting.Registry
	Flows   *submission.Flows
	Metrics *metrics.MetricService

	SecureCookies bool
	SessionTTL    time.Duration
}

// NewEnv wires the domain services on top of database and cache.
func NewEnv(database *gorm.DB, cache draft.Cache, ms *metrics.MetricService, cfg *config.Config) *Env {
	dao := store.NewDaoManager(database)

	resolver := submission.NewResolver(dao.ClubDao)
	resolver.OnCreated(func(club *models.Club) {
		log.Printf("Created organizer %s (%s, %s)", club.ID, club.Name, club.University)
		ms.IncClubsCreated()
	})
	publisher := submission.NewPublisher(cache, resolver, dao.ReviewDao, ms)

	return &Env{
		Dao:           dao,
		Auth:          auth.NewService(dao.UserDao, cfg.JWTSecret, cfg.TokenTTL),
		Votes:         voting.NewRegistry(dao.VoteDao),
		Flows:         submission.NewFlows(cache, publisher),
		Metrics:       ms,
		SecureCookies: cfg.IsProduction(),
		SessionTTL:    cfg.TokenTTL,
	}
}

func (e *Env) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (e *Env) GetClubs(c *gin.Context) {
	clubs, err := e.Dao.ListClubs(c.Request.Context(), c.Query("q"))
	if err != nil {
		log.Printf("Error fetching clubs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch clubs"})
		return
	}
	c.JSON(http.StatusOK, clubs)
}

func (e *Env) GetOrganizers(c *gin.Context) {
	ratings, err := e.Dao.ListClubRatings(c.Request.Context(), c.Query("q"))
	if err != nil {
		log.Printf("Error fetching organizers: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch organizers"})
		return
	}
	c.JSON(http.StatusOK, ratings)
}

func (e *Env) GetOrganizer(c *gin.Context) {
	rating, err := e.Dao.GetClubRating(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organizer not found"})
		return
	}
	if err != nil {
		log.Printf("Error fetching organizer %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch organizer"})
		return
	}
	c.JSON(http.StatusOK, rating)
}

func (e *Env) GetOrganizerReviews(c *gin.Context) {
	filter, ok := store.ParseReviewFilter(c.Query("filter"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter, expected recent, past, positive or negative"})
		return
	}
	reviews, err := e.Dao.ListClubReviews(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		log.Printf("Error fetching reviews of organizer %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (e *Env) GetReviews(c *gin.Context) {
	reviews, err := e.Dao.ListReviews(c.Request.Context(), c.Query("q"))
	if err != nil {
		log.Printf("Error fetching reviews: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
		return
	}
	c.JSON(http.StatusOK, reviews)
}
