package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sujalbistaa/circuit/internal/models"
)

// VoteDao reads and writes review_votes rows. The (review_id, user_id)
// unique index guarantees a single row per voter and review.
type VoteDao struct {
	DB *gorm.DB
}

func NewVoteDao(db *gorm.DB) *VoteDao {
	return &VoteDao{
		DB: db,
	}
}

func (d *VoteDao) ListVotes(ctx context.Context, reviewID string) ([]*models.Vote, error) {
	votes := make([]*models.Vote, 0)
	err := d.DB.WithContext(ctx).
		Where("review_id = ?", reviewID).
		Find(&votes).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list votes of review %s", reviewID)
	}
	return votes, nil
}

// UpsertVote inserts the voter's row or, when one exists, replaces its direction.
func (d *VoteDao) UpsertVote(ctx context.Context, reviewID, userID string, direction models.Direction) error {
	vote := &models.Vote{ReviewID: reviewID, UserID: userID, VoteType: direction}
	err := d.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "review_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"vote_type", "updated_at"}),
	}).Create(vote).Error
	if err != nil {
		return errors.Wrapf(err, "upsert vote on review %s", reviewID)
	}
	return nil
}

func (d *VoteDao) DeleteVote(ctx context.Context, reviewID, userID string) error {
	err := d.DB.WithContext(ctx).
		Where("review_id = ? AND user_id = ?", reviewID, userID).
		Delete(&models.Vote{}).Error
	if err != nil {
		return errors.Wrapf(err, "delete vote on review %s", reviewID)
	}
	return nil
}

func (d *VoteDao) ReviewExists(ctx context.Context, reviewID string) (bool, error) {
	var count int64
	if err := d.DB.WithContext(ctx).Model(&models.Review{}).Where("id = ?", reviewID).Count(&count).Error; err != nil {
		return false, errors.Wrapf(err, "check review %s", reviewID)
	}
	return count > 0, nil
}
