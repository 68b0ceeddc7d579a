package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/booklib/internal/customer/domain"
	"github.com/smallbiznis/booklib/pkg/db/option"
	"github.com/smallbiznis/booklib/pkg/db/pagination"
	"github.com/smallbiznis/booklib/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) store(db *gorm.DB) repository.Repository[domain.Customer] {
	return repository.ProvideStore[domain.Customer](db)
}

// FindByName returns nil, nil when no customer has the name.
func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	return r.store(db).FindOne(ctx, &domain.Customer{}, option.WithEqual("name", name))
}

// List returns customers in insertion order, reading one row past the page size.
func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListCustomerFilter, page pagination.Pagination) ([]*domain.Customer, error) {
	return r.store(db).Find(ctx, filterQuery(filter),
		option.ApplyPagination(page),
		option.WithOrder("id asc"),
	)
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, filter domain.ListCustomerFilter) (int64, error) {
	return r.store(db).Count(ctx, filterQuery(filter))
}

func filterQuery(filter domain.ListCustomerFilter) *domain.Customer {
	return &domain.Customer{City: strings.TrimSpace(filter.City)}
}
