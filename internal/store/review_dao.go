package store

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/sujalbistaa/circuit/internal/models"
)

// ReviewFilter selects and orders an organizer's reviews.
type ReviewFilter string

const (
	FilterRecent   ReviewFilter = "recent"
	FilterPast     ReviewFilter = "past"
	FilterPositive ReviewFilter = "positive"
	FilterNegative ReviewFilter = "negative"
)

const (
	positiveThreshold = 4.0
	negativeThreshold = 2.9
)

func ParseReviewFilter(s string) (ReviewFilter, bool) {
	switch f := ReviewFilter(s); f {
	case "":
		return FilterRecent, true
	case FilterRecent, FilterPast, FilterPositive, FilterNegative:
		return f, true
	}
	return "", false
}

type ReviewDao struct {
	DB *gorm.DB
}

func NewReviewDao(db *gorm.DB) *ReviewDao {
	return &ReviewDao{
		DB: db,
	}
}

func (d *ReviewDao) CreateReview(ctx context.Context, review *models.Review) error {
	if err := d.DB.WithContext(ctx).Omit("Club").Create(review).Error; err != nil {
		return errors.Wrap(err, "create review")
	}
	review.Decorate()
	return nil
}

func (d *ReviewDao) GetReview(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	err := d.DB.WithContext(ctx).Preload("Club").Where("id = ?", id).Take(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get review %s", id)
	}
	review.Decorate()
	return &review, nil
}

// ListReviews returns the feed, newest first, with the organizer joined. The
// query matches competition name, organizer name or university.
func (d *ReviewDao) ListReviews(ctx context.Context, query string) ([]*models.Review, error) {
	reviews := make([]*models.Review, 0)
	tx := d.DB.WithContext(ctx).
		Select("reviews.*").
		Joins("LEFT JOIN clubs ON clubs.id = reviews.club_id").
		Preload("Club").
		Order("reviews.created_at desc")
	if q := likePattern(query); q != "" {
		tx = tx.Where("LOWER(reviews.competition_name) LIKE ? OR LOWER(clubs.name) LIKE ? OR LOWER(clubs.university) LIKE ?", q, q, q)
	}
	if err := tx.Find(&reviews).Error; err != nil {
		return nil, errors.Wrap(err, "list reviews")
	}
	for _, r := range reviews {
		r.Decorate()
	}
	return reviews, nil
}

// ListClubReviews returns one organizer's reviews shaped by filter. Rating
// filters keep newest-first order.
func (d *ReviewDao) ListClubReviews(ctx context.Context, clubID string, filter ReviewFilter) ([]*models.Review, error) {
	reviews := make([]*models.Review, 0)
	if err := d.DB.WithContext(ctx).Where("club_id = ?", clubID).Find(&reviews).Error; err != nil {
		return nil, errors.Wrapf(err, "list reviews of club %s", clubID)
	}

	sort.SliceStable(reviews, func(i, j int) bool {
		if filter == FilterPast {
			return reviews[i].CreatedAt.Before(reviews[j].CreatedAt)
		}
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})

	out := reviews[:0]
	for _, r := range reviews {
		r.Decorate()
		switch filter {
		case FilterPositive:
			if r.AverageRating < positiveThreshold {
				continue
			}
		case FilterNegative:
			if r.AverageRating > negativeThreshold {
				continue
			}
		}
		out = append(out, r)
	}
	return out, nil
}
