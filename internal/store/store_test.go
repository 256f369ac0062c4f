package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/sujalbistaa/circuit/internal/db"
	"github.com/sujalbistaa/circuit/internal/models"
)

type storeSuite struct {
	suite.Suite
	db  *gorm.DB
	dao *DaoManager
	ctx context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(storeSuite))
}

func (s *storeSuite) SetupTest() {
	database, err := db.RunMemoryDB()
	s.Require().NoError(err)
	s.db = database
	s.dao = NewDaoManager(database)
	s.ctx = context.Background()
}

func (s *storeSuite) TearDownTest() {
	s.Require().NoError(db.StopDB(s.db))
}

func (s *storeSuite) createClub(name, university string) *models.Club {
	club, err := s.dao.CreateClub(s.ctx, name, university)
	s.Require().NoError(err)
	return club
}

func (s *storeSuite) createReview(clubID *string, name string, ratings models.Ratings, at time.Time) *models.Review {
	review := &models.Review{ClubID: clubID, CompetitionName: name, Ratings: ratings, CreatedAt: at}
	s.Require().NoError(s.dao.CreateReview(s.ctx, review))
	return review
}

func (s *storeSuite) TestClubDao_FindClubByNameIgnoresCase() {
	club := s.createClub("Acme Club", "Acme University")

	found, err := s.dao.FindClubByName(s.ctx, "  aCME club ")
	s.Require().NoError(err)
	s.Require().Equal(club.ID, found.ID)

	_, err = s.dao.FindClubByName(s.ctx, "Acme")
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *storeSuite) TestClubDao_ListClubsFilters() {
	s.createClub("NSU Young Entrepreneurs Society", "North South University")
	s.createClub("IBA Business Club", "University of Dhaka")

	all, err := s.dao.ListClubs(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Require().Equal("IBA Business Club", all[0].Name)

	byUni, err := s.dao.ListClubs(s.ctx, "north south")
	s.Require().NoError(err)
	s.Require().Len(byUni, 1)
	s.Require().Equal("NSU Young Entrepreneurs Society", byUni[0].Name)
}

func (s *storeSuite) TestClubDao_GetClubRating() {
	club := s.createClub("IBA Business Club", "University of Dhaka")
	s.createReview(&club.ID, "Case Clash", models.Ratings{Case: 4, Communication: 4, Fairness: 4, Logistics: 4}, time.Now())

	row, err := s.dao.GetClubRating(s.ctx, club.ID)
	s.Require().NoError(err)
	s.Require().Equal(club.Name, row.Name)
	s.Require().EqualValues(1, row.TotalReviews)
	s.Require().InDelta(4.0, row.AverageRating, 0.0001)

	_, err = s.dao.GetClubRating(s.ctx, "missing")
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *storeSuite) TestReviewDao_ListReviewsSearchesJoinedClub() {
	club := s.createClub("IBA Business Club", "University of Dhaka")
	now := time.Now()
	s.createReview(&club.ID, "Case Clash", models.Ratings{Case: 5}, now.Add(-time.Hour))
	s.createReview(nil, "Hult Prize", models.Ratings{Case: 3}, now)

	all, err := s.dao.ListReviews(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Require().Equal("Hult Prize", all[0].CompetitionName)
	s.Require().Nil(all[0].Clubs)
	s.Require().Equal("IBA Business Club", all[1].Clubs.Name)

	byClub, err := s.dao.ListReviews(s.ctx, "dhaka")
	s.Require().NoError(err)
	s.Require().Len(byClub, 1)
	s.Require().Equal("Case Clash", byClub[0].CompetitionName)

	byName, err := s.dao.ListReviews(s.ctx, "HULT")
	s.Require().NoError(err)
	s.Require().Len(byName, 1)
}

func (s *storeSuite) TestReviewDao_ListClubReviewsFilters() {
	club := s.createClub("IBA Business Club", "University of Dhaka")
	base := time.Now().Add(-24 * time.Hour)
	good := s.createReview(&club.ID, "Good", models.Ratings{Case: 5, Communication: 4}, base)
	bad := s.createReview(&club.ID, "Bad", models.Ratings{Case: 2, Communication: 3}, base.Add(time.Hour))
	mid := s.createReview(&club.ID, "Mid", models.Ratings{Case: 3, Communication: 4}, base.Add(2*time.Hour))

	ids := func(rs []*models.Review) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}

	recent, err := s.dao.ListClubReviews(s.ctx, club.ID, FilterRecent)
	s.Require().NoError(err)
	s.Require().Equal([]string{mid.ID, bad.ID, good.ID}, ids(recent))

	past, err := s.dao.ListClubReviews(s.ctx, club.ID, FilterPast)
	s.Require().NoError(err)
	s.Require().Equal([]string{good.ID, bad.ID, mid.ID}, ids(past))

	positive, err := s.dao.ListClubReviews(s.ctx, club.ID, FilterPositive)
	s.Require().NoError(err)
	s.Require().Equal([]string{good.ID}, ids(positive))

	negative, err := s.dao.ListClubReviews(s.ctx, club.ID, FilterNegative)
	s.Require().NoError(err)
	s.Require().Equal([]string{bad.ID}, ids(negative))
}

func (s *storeSuite) TestVoteDao_UpsertKeepsOneRowPerVoter() {
	review := s.createReview(nil, "Case Clash", models.Ratings{}, time.Now())

	s.Require().NoError(s.dao.UpsertVote(s.ctx, review.ID, "user-1", models.Like))
	s.Require().NoError(s.dao.UpsertVote(s.ctx, review.ID, "user-1", models.Like))
	s.Require().NoError(s.dao.UpsertVote(s.ctx, review.ID, "user-1", models.Dislike))
	s.Require().NoError(s.dao.UpsertVote(s.ctx, review.ID, "user-2", models.Like))

	votes, err := s.dao.ListVotes(s.ctx, review.ID)
	s.Require().NoError(err)
	s.Require().Len(votes, 2)
	byUser := map[string]models.Direction{}
	for _, v := range votes {
		byUser[v.UserID] = v.VoteType
	}
	s.Require().Equal(models.Dislike, byUser["user-1"])
	s.Require().Equal(models.Like, byUser["user-2"])

	s.Require().NoError(s.dao.DeleteVote(s.ctx, review.ID, "user-1"))
	s.Require().NoError(s.dao.DeleteVote(s.ctx, review.ID, "user-1"))
	votes, err = s.dao.ListVotes(s.ctx, review.ID)
	s.Require().NoError(err)
	s.Require().Len(votes, 1)
}

func (s *storeSuite) TestVoteDao_ReviewExists() {
	review := s.createReview(nil, "Case Clash", models.Ratings{}, time.Now())

	ok, err := s.dao.ReviewExists(s.ctx, review.ID)
	s.Require().NoError(err)
	s.Require().True(ok)

	ok, err = s.dao.ReviewExists(s.ctx, "missing")
	s.Require().NoError(err)
	s.Require().False(ok)
}

func (s *storeSuite) TestUserDao_CreateUserRejectsDuplicateEmail() {
	user := &models.User{Email: "Reviewer@Example.com", PasswordHash: "x"}
	s.Require().NoError(s.dao.CreateUser(s.ctx, user))
	s.Require().Equal("reviewer@example.com", user.Email)
	s.Require().NotEmpty(user.ID)

	err := s.dao.CreateUser(s.ctx, &models.User{Email: "reviewer@example.com ", PasswordHash: "y"})
	s.Require().ErrorIs(err, ErrDuplicate)

	found, err := s.dao.FindUserByEmail(s.ctx, "REVIEWER@example.com")
	s.Require().NoError(err)
	s.Require().Equal(user.ID, found.ID)
}
