package repository

import (
	"context"

	"github.com/smallbiznis/booklib/pkg/db/option"
)

// Repository is a read-side store over a single gorm model. Writes go through db.Session.
type Repository[T any] interface {
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Count(ctx context.Context, query *T) (int64, error)
}
