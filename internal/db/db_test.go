package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sujalbistaa/circuit/internal/models"
)

func TestDialector(t *testing.T) {
	for _, tc := range []struct {
		url  string
		name string
	}{
		{"postgres://u:p@localhost:5432/circuit", "postgres"},
		{"mysql://u:p@tcp(localhost:3306)/circuit?parseTime=true", "mysql"},
		{"sqlite://circuit.db", "sqlite"},
	} {
		d, err := Dialector(tc.url)
		require.NoError(t, err, tc.url)
		require.Equal(t, tc.name, d.Name())
	}

	_, err := Dialector("redis://localhost")
	require.Error(t, err)
}

func TestClubRatingsView(t *testing.T) {
	database, err := RunMemoryDB()
	require.NoError(t, err)
	defer func() { require.NoError(t, StopDB(database)) }()

	rated := models.Club{Name: "IBA Business Club", University: "University of Dhaka"}
	empty := models.Club{Name: "BUP Business Club", University: "BUP"}
	require.NoError(t, database.Create(&rated).Error)
	require.NoError(t, database.Create(&empty).Error)

	reviews := []models.Review{
		{ClubID: &rated.ID, CompetitionName: "Case Clash", Ratings: models.Ratings{Case: 5, Communication: 5, Fairness: 5, Logistics: 5}},
		{ClubID: &rated.ID, CompetitionName: "Case Clash", Ratings: models.Ratings{Case: 2, Communication: 4}},
		{ClubID: &rated.ID, CompetitionName: "Unrated", Ratings: models.Ratings{}},
	}
	for i := range reviews {
		require.NoError(t, database.Create(&reviews[i]).Error)
	}

	var rows []models.ClubRating
	require.NoError(t, database.Order("name").Find(&rows).Error)
	require.Len(t, rows, 2)

	require.Equal(t, empty.ID, rows[0].ClubID)
	require.EqualValues(t, 0, rows[0].TotalReviews)
	require.Zero(t, rows[0].AverageRating)

	require.Equal(t, rated.ID, rows[1].ClubID)
	require.EqualValues(t, 3, rows[1].TotalReviews)
	require.InDelta(t, 4.0, rows[1].AverageRating, 0.0001)
}
