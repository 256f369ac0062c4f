package draft

import (
	"strings"
	"time"

	"github.com/sujalbistaa/circuit/internal/models"
)

const (
	MinWords       = 20
	eventDateParse = "2006-01-02"
)

// Draft is the in-progress review plus the organizer selection. IsNewClub
// distinguishes a typed-in organizer from one picked from the list.
type Draft struct {
	ClubID          string         `json:"clubId"`
	ClubName        string         `json:"clubName"`
	UniversityName  string         `json:"universityName"`
	IsNewClub       bool           `json:"isNewClub"`
	CompetitionName string         `json:"competitionName"`
	EventDate       string         `json:"eventDate"`
	ReviewText      string         `json:"reviewText"`
	Metrics         models.Ratings `json:"metrics"`
	IsAnonymous     bool           `json:"isAnonymous"`
}

// Empty is the blank form. Reviews are anonymous unless the user opts out.
func Empty() Draft {
	return Draft{IsAnonymous: true}
}

// WordCount counts whitespace-separated words of the trimmed review text.
func (d Draft) WordCount() int {
	return len(strings.Fields(d.ReviewText))
}

// OrganizerChosen reports whether an existing organizer is selected or a new
// one is fully specified.
func (d Draft) OrganizerChosen() bool {
	if d.ClubID != "" {
		return true
	}
	return strings.TrimSpace(d.ClubName) != "" && strings.TrimSpace(d.UniversityName) != ""
}

// Validity explains why a draft can or cannot be published.
type Validity struct {
	Valid     bool     `json:"valid"`
	WordCount int      `json:"wordCount"`
	Problems  []string `json:"problems"`
}

// Validate checks the draft against the publish requirements.
func (d Draft) Validate() Validity {
	v := Validity{WordCount: d.WordCount(), Problems: []string{}}
	if v.WordCount < MinWords {
		v.Problems = append(v.Problems, "review must be at least 20 words")
	}
	if !d.OrganizerChosen() {
		v.Problems = append(v.Problems, "select an organizer or enter a new organizer and university")
	}
	if strings.TrimSpace(d.CompetitionName) == "" {
		v.Problems = append(v.Problems, "competition name is required")
	}
	if strings.TrimSpace(d.EventDate) == "" {
		v.Problems = append(v.Problems, "event date is required")
	} else if _, err := time.Parse(eventDateParse, d.EventDate); err != nil {
		v.Problems = append(v.Problems, "event date must be YYYY-MM-DD")
	}
	if !d.Metrics.Valid() {
		v.Problems = append(v.Problems, "ratings must be between 1 and 5")
	} else if !d.Metrics.Complete() {
		v.Problems = append(v.Problems, "rate all four metrics")
	}
	v.Valid = len(v.Problems) == 0
	return v
}
