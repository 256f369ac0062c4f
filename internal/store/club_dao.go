package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/sujalbistaa/circuit/internal/models"
)

type ClubDao struct {
	DB *gorm.DB
}

func NewClubDao(db *gorm.DB) *ClubDao {
	return &ClubDao{
		DB: db,
	}
}

// ListClubs returns organizers ordered by name, optionally filtered by a
// case-insensitive substring of name or university.
func (d *ClubDao) ListClubs(ctx context.Context, query string) ([]*models.Club, error) {
	clubs := make([]*models.Club, 0)
	tx := d.DB.WithContext(ctx).Order("name")
	if q := likePattern(query); q != "" {
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(university) LIKE ?", q, q)
	}
	if err := tx.Find(&clubs).Error; err != nil {
		return nil, errors.Wrap(err, "list clubs")
	}
	return clubs, nil
}

// FindClubByName does a case-insensitive exact match on the organizer name.
// It returns ErrNotFound when nothing matches.
func (d *ClubDao) FindClubByName(ctx context.Context, name string) (*models.Club, error) {
	var club models.Club
	err := d.DB.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Order("created_at").
		First(&club).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find club %q", name)
	}
	return &club, nil
}

func (d *ClubDao) CreateClub(ctx context.Context, name, university string) (*models.Club, error) {
	club := &models.Club{
		Name:       strings.TrimSpace(name),
		University: strings.TrimSpace(university),
	}
	if err := d.DB.WithContext(ctx).Create(club).Error; err != nil {
		return nil, errors.Wrap(err, "create club")
	}
	return club, nil
}

// ListClubRatings reads the club_ratings view.
func (d *ClubDao) ListClubRatings(ctx context.Context, query string) ([]*models.ClubRating, error) {
	rows := make([]*models.ClubRating, 0)
	tx := d.DB.WithContext(ctx).Order("name")
	if q := likePattern(query); q != "" {
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(university) LIKE ?", q, q)
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list club ratings")
	}
	return rows, nil
}

func (d *ClubDao) GetClubRating(ctx context.Context, clubID string) (*models.ClubRating, error) {
	var row models.ClubRating
	err := d.DB.WithContext(ctx).Where("club_id = ?", clubID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get club rating %s", clubID)
	}
	return &row, nil
}
