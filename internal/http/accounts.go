package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/circuit/internal/auth"
	"github.com/sujalbistaa/circuit/internal/submission"
)

type SignUpInput struct {
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	WantsUpdates bool   `json:"wantsUpdates"`
}

type SignInInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (e *Env) setSessionCookie(c *gin.Context, token string) {
	maxAge := int(e.SessionTTL.Seconds())
	if token == "" {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, maxAge, "/", "", e.SecureCookies, true)
}

func authStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidEmail):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// authenticate runs signIn with the caller's draft flow watching the session,
// so a publish parked behind the sign-in gate goes out before we respond.
func (e *Env) authenticate(c *gin.Context, status int, signIn func(*auth.Session) error) {
	ctx := c.Request.Context()
	sess := sessionOf(c)

	flow, release, err := e.Flows.Acquire(ctx, draftTokenOf(c))
	if err != nil {
		log.Printf("Error restoring draft %s: %v", draftTokenOf(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restore draft"})
		return
	}
	defer release()

	deferred := flow.Stage() == submission.AwaitingAuth
	unsubscribe := flow.Watch(ctx, sess)
	err = signIn(sess)
	unsubscribe()

	if err != nil {
		code := authStatus(err)
		if code == http.StatusInternalServerError {
			log.Printf("Error authenticating: %v", err)
			c.JSON(code, gin.H{"error": "Authentication failed"})
			return
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}

	e.setSessionCookie(c, sess.Token())
	resp := gin.H{"user": sess.Identity(), "token": sess.Token()}
	if deferred {
		resp["publish"] = outcomeView(flow.Last())
	}
	c.JSON(status, resp)
}

func (e *Env) SignUp(c *gin.Context) {
	var input SignUpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	e.authenticate(c, http.StatusCreated, func(sess *auth.Session) error {
		return sess.SignUp(c.Request.Context(), input.Email, input.Password, auth.Profile{WantsUpdates: input.WantsUpdates})
	})
}

func (e *Env) SignIn(c *gin.Context) {
	var input SignInInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	e.authenticate(c, http.StatusOK, func(sess *auth.Session) error {
		return sess.SignIn(c.Request.Context(), input.Email, input.Password)
	})
}

func (e *Env) SignOut(c *gin.Context) {
	sessionOf(c).SignOut()
	e.setSessionCookie(c, "")
	c.JSON(http.StatusOK, gin.H{"user": nil})
}

func (e *Env) GetSession(c *gin.Context) {
	identity := sessionOf(c).Identity()
	if identity == nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	profile, err := e.Auth.Profile(c.Request.Context(), identity.UserID)
	if errors.Is(err, auth.ErrInvalidToken) {
		e.setSessionCookie(c, "")
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	if err != nil {
		log.Printf("Error loading profile of %s: %v", identity.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": identity, "profile": profile})
}
