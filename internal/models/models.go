package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is a registered reviewer. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           string            `gorm:"primarykey;size:36" json:"id"`
	Email        string            `gorm:"not null;uniqueIndex;size:255" json:"email"`
	PasswordHash string            `gorm:"not null" json:"-"`
	Metadata     datatypes.JSONMap `json:"metadata"` // Sign-up options, e.g. wants_updates
	CreatedAt    time.Time         `json:"created_at"`
}

// Club is a competition organizer.
type Club struct {
	ID         string    `gorm:"primarykey;size:36" json:"id"`
	Name       string    `gorm:"not null;index" json:"name"`
	University string    `gorm:"not null" json:"university"`
	CreatedAt  time.Time `json:"created_at"`
}

// ClubRating is a row of the club_ratings view. It is read-only and keyed by
// club_id rather than id, so it is kept apart from Club.
type ClubRating struct {
	ClubID        string  `gorm:"column:club_id" json:"club_id"`
	Name          string  `json:"name"`
	University    string  `json:"university"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int64   `json:"total_reviews"`
}

// Ratings is the fixed four-metric bundle. Zero means unrated.
type Ratings struct {
	Case          int `gorm:"not null;default:0" json:"case"`
	Communication int `gorm:"not null;default:0" json:"communication"`
	Fairness      int `gorm:"not null;default:0" json:"fairness"`
	Logistics     int `gorm:"not null;default:0" json:"logistics"`
}

// Values returns the metrics in display order.
func (r Ratings) Values() []int {
	return []int{r.Case, r.Communication, r.Fairness, r.Logistics}
}

// Average is the mean of the rated (non-zero) metrics, or 0 if none are rated.
func (r Ratings) Average() float64 {
	sum, n := 0, 0
	for _, v := range r.Values() {
		if v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// Complete reports whether every metric has been rated.
func (r Ratings) Complete() bool {
	for _, v := range r.Values() {
		if v <= 0 {
			return false
		}
	}
	return true
}

// Valid reports whether every metric is unrated or within 1..5.
func (r Ratings) Valid() bool {
	for _, v := range r.Values() {
		if v < 0 || v > 5 {
			return false
		}
	}
	return true
}

// ClubSummary is the organizer join carried on feed rows.
type ClubSummary struct {
	Name       string `json:"name"`
	University string `json:"university"`
}

// Review is one participant's evaluation of a competition.
type Review struct {
	ID              string       `gorm:"primarykey;size:36" json:"id"`
	ClubID          *string      `gorm:"size:36;index" json:"club_id"`
	CompetitionName string       `gorm:"not null" json:"competition_name"`
	EventDate       *string      `gorm:"size:10" json:"event_date"` // YYYY-MM-DD
	Ratings         Ratings      `gorm:"embedded;embeddedPrefix:rating_" json:"ratings"`
	Comment         *string      `json:"comment"`
	IsAnonymous     bool         `gorm:"not null" json:"is_anonymous"`
	CreatedAt       time.Time    `gorm:"index" json:"created_at"`
	Club            *Club        `gorm:"foreignKey:ClubID" json:"-"`
	Clubs           *ClubSummary `gorm:"-" json:"clubs"`
	AverageRating   float64      `gorm:"-" json:"average_rating"`
}

// Decorate fills the derived, non-persisted fields.
func (r *Review) Decorate() {
	r.AverageRating = r.Ratings.Average()
	if r.Club != nil {
		r.Clubs = &ClubSummary{Name: r.Club.Name, University: r.Club.University}
	}
}

// Direction is the sense of a vote.
type Direction string

const (
	Like    Direction = "like"
	Dislike Direction = "dislike"
)

// Valid reports whether d is like or dislike.
func (d Direction) Valid() bool {
	return d == Like || d == Dislike
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Like {
		return Dislike
	}
	return Like
}

// Vote is a voter's like/dislike on one review. At most one row exists per
// (review, voter) pair.
type Vote struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	ReviewID  string    `gorm:"not null;size:36;uniqueIndex:idx_review_votes_review_user" json:"review_id"`
	UserID    string    `gorm:"not null;size:36;uniqueIndex:idx_review_votes_review_user" json:"user_id"`
	VoteType  Direction `gorm:"not null;size:8" json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (*Vote) TableName() string {
	return "review_votes"
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (c *Club) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (v *Vote) BeforeCreate(*gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

func (ClubRating) TableName() string {
	return "club_ratings"
}
