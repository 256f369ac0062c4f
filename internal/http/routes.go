package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/sujalbistaa/circuit/internal/config"
)

// SetupRoutes configures all application routes and middleware. Closing stop
// ends the rate limiter sweepers.
func SetupRoutes(router *gin.Engine, env *Env, cfg *config.Config, stop <-chan struct{}) {

	// --- Middleware ---

	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Token", draftHeader},
		ExposeHeaders:    []string{"Content-Length", draftHeader},
		AllowCredentials: cfg.CORSOrigin != "*",
	}))

	// --- Rate Limiter Setup ---
	authLimiter := NewIPRateLimiter(rate.Limit(authRateLimitRPS), authRateLimitBurst)
	authLimiter.StartSweeper(limiterSweepInterval, stop)
	publishLimiter := NewIPRateLimiter(rate.Limit(publishRateLimitRPS), publishRateLimitBurst)
	publishLimiter.StartSweeper(limiterSweepInterval, stop)

	// --- API Routes ---

	api := router.Group("/api", SessionMiddleware(env.Auth), DraftTokenMiddleware(env.SecureCookies))
	{
		accounts := api.Group("/auth")
		accounts.POST("/signup", RateLimitMiddleware(authLimiter), env.SignUp)
		accounts.POST("/signin", RateLimitMiddleware(authLimiter), env.SignIn)
		accounts.POST("/signout", env.SignOut)
		accounts.GET("/session", env.GetSession)

		api.GET("/clubs", env.GetClubs)
		api.GET("/organizers", env.GetOrganizers)
		api.GET("/organizers/:id", env.GetOrganizer)
		api.GET("/organizers/:id/reviews", env.GetOrganizerReviews)

		api.GET("/reviews", env.GetReviews)
		api.GET("/reviews/:id/votes", env.GetVotes)
		api.POST("/reviews/:id/vote", env.VoteOnReview)

		api.GET("/draft", env.GetDraft)
		api.PUT("/draft", env.SaveDraft)
		api.DELETE("/draft", env.ResetDraft)
		api.POST("/draft/back", env.BackToDraft)
		api.POST("/draft/publish", RateLimitMiddleware(publishLimiter), env.PublishDraft)
	}

	// --- Operational Routes ---

	router.GET("/healthz", env.Healthz)
	router.GET("/metrics", AdminAuthMiddleware(cfg.AdminToken), gin.WrapH(env.Metrics.Handler()))
}
