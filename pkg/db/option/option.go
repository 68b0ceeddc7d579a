package option

import (
	"strconv"
	"strings"

	"github.com/smallbiznis/booklib/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type QueryOptionFunc func(db *gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

func WithOrder(expr string) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Order(expr)
	})
}

// WithEqual matches column exactly, including zero values that struct conditions skip.
func WithEqual(column string, value any) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	})
}

// ApplyPagination seeks past the cursor id and fetches one extra row to detect further pages.
// Tokens that fail to decode are ignored; callers validate them first.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if token := strings.TrimSpace(page.PageToken); token != "" {
			if cursor, err := pagination.DecodeCursor(token); err == nil {
				if id, err := strconv.ParseInt(cursor.ID, 10, 64); err == nil {
					db = db.Where("id > ?", id)
				}
			}
		}
		return db.Limit(pagination.NormalizePageSize(page.PageSize) + 1)
	})
}
