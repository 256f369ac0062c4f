package db

import (
	"gorm.io/gorm"

	"github.com/sujalbistaa/circuit/internal/models"
)

// A review's score is the mean of its rated metrics. Reviews with nothing
// rated count towards total_reviews but not towards average_rating.
const clubRatingsView = `
CREATE VIEW club_ratings AS
SELECT
	c.id AS club_id,
	c.name AS name,
	c.university AS university,
	COALESCE(AVG(r.score), 0) AS average_rating,
	COUNT(r.id) AS total_reviews
FROM clubs c
LEFT JOIN (
	SELECT id, club_id,
		CASE WHEN rated = 0 THEN NULL ELSE total * 1.0 / rated END AS score
	FROM (
		SELECT id, club_id,
			rating_case + rating_communication + rating_fairness + rating_logistics AS total,
			(CASE WHEN rating_case > 0 THEN 1 ELSE 0 END)
			+ (CASE WHEN rating_communication > 0 THEN 1 ELSE 0 END)
			+ (CASE WHEN rating_fairness > 0 THEN 1 ELSE 0 END)
			+ (CASE WHEN rating_logistics > 0 THEN 1 ELSE 0 END) AS rated
		FROM reviews
	) scored
) r ON r.club_id = c.id
GROUP BY c.id, c.name, c.university`

// Migrate creates the tables and (re)creates the club_ratings view.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(&models.User{}, &models.Club{}, &models.Review{}, &models.Vote{}); err != nil {
		return err
	}
	return database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DROP VIEW IF EXISTS club_ratings").Error; err != nil {
			return err
		}
		return tx.Exec(clubRatingsView).Error
	})
}
