package repository

import (
	"github.com/appleplayground/media-service/infra"
	"gorm.io/gorm"
)

type Repository struct {
	UserRepo     *UserRepository
	ImageRepo    *ImageRepository
	FollowRepo   *FollowRepository
	BlogPostRepo *BlogPostRepository
	CounterRepo  *CounterRepository
}

var repository *Repository

func InitRepository(infra *infra.Infra) *Repository {
	repository = newRepository(infra.Postgres.DB)
	return repository
}

func GetRepository() *Repository {
	if repository == nil {
		panic("repository not initialized")
	}
	return repository
}

func newRepository(db *gorm.DB) *Repository {
	return &Repository{
		UserRepo:     NewUserRepository(db),
		ImageRepo:    NewImageRepository(db),
		FollowRepo:   NewFollowRepository(db),
		BlogPostRepo: NewBlogPostRepository(db),
		CounterRepo:  NewCounterRepository(db),
	}
}

func (r *Repository) BeginTransaction(db *gorm.DB) *gorm.DB {
	return db.Begin()
}

func (r *Repository) WithTransaction(tx *gorm.DB) *Repository {
	return newRepository(tx)
}
