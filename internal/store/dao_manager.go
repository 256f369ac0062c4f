package store

import "gorm.io/gorm"

type DaoManager struct {
	*ClubDao
	*ReviewDao
	*VoteDao
	*UserDao
}

func NewDaoManager(db *gorm.DB) *DaoManager {
	return &DaoManager{
		ClubDao:   NewClubDao(db),
		ReviewDao: NewReviewDao(db),
		VoteDao:   NewVoteDao(db),
		UserDao:   NewUserDao(db),
	}
}
