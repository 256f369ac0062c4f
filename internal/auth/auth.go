package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/sujalbistaa/circuit/internal/models"
	"github.com/sujalbistaa/circuit/internal/store"
)

const minPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailTaken         = errors.New("user already registered")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrInvalidEmail       = errors.New("unable to validate email address")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Identity is the signed-in user as seen by the rest of the system.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// Profile carries the optional sign-up metadata.
type Profile struct {
	WantsUpdates bool `json:"wantsUpdates"`
}

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// UserStore is the persistence the service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Service signs users up and in and issues session tokens.
type Service struct {
	users  UserStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(users UserStore, secret string, ttl time.Duration) *Service {
	return &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *Service) SignUp(ctx context.Context, email, password string, profile Profile) (*Identity, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return nil, "", ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", errors.Wrap(err, "hash password")
	}
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Metadata:     map[string]interface{}{"wants_updates": profile.WantsUpdates},
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}
	return s.issue(user)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*Identity, string, error) {
	user, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	return s.issue(user)
}

// Profile reads back the sign-up metadata of userID. A user that no longer
// exists is reported as ErrInvalidToken, since its session is dead.
func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return Profile{}, ErrInvalidToken
	}
	if err != nil {
		return Profile{}, err
	}
	wants, _ := user.Metadata["wants_updates"].(bool)
	return Profile{WantsUpdates: wants}, nil
}

func (s *Service) issue(user *models.User) (*Identity, string, error) {
	now := s.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, "", errors.Wrap(err, "sign token")
	}
	return &Identity{UserID: user.ID, Email: user.Email}, token, nil
}

// ParseToken validates a session token and returns its identity.
func (s *Service) ParseToken(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{UserID: claims.UserID, Email: claims.Email}, nil
}
