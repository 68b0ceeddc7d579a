package domain

import (
	"context"

	"github.com/smallbiznis/booklib/pkg/db/pagination"
	"gorm.io/gorm"
)

//go:generate mockgen -source=repository.go -destination=mocks/mock_repository.go -package=mocks

type Repository interface {
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Customer, error)
	List(ctx context.Context, db *gorm.DB, filter ListCustomerFilter, page pagination.Pagination) ([]*Customer, error)
	Count(ctx context.Context, db *gorm.DB, filter ListCustomerFilter) (int64, error)
}
