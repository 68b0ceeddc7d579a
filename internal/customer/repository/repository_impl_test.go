package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/booklib/internal/customer/domain"
	"github.com/smallbiznis/booklib/pkg/db/pagination"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(&domain.Customer{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seed(t *testing.T, conn *gorm.DB, id int64, name, city string) {
	t.Helper()
	c, err := domain.NewCustomer(name, city, 30, "1", "Street", "1")
	if err != nil {
		t.Fatalf("new customer: %v", err)
	}
	c.ID = snowflake.ID(id)
	c.CreatedAt = time.Now().UTC()
	if err := conn.Create(&c).Error; err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
}

func TestFindByNameExactMatch(t *testing.T) {
	conn := setupTestDB(t)
	seed(t, conn, 1, "Michal", "Warszawa")
	repo := Provide()
	ctx := context.Background()

	got, err := repo.FindByName(ctx, conn, "Michal")
	if err != nil || got == nil || got.Name != "Michal" {
		t.Fatalf("expected Michal, got %+v, %v", got, err)
	}

	for _, name := range []string{"", "   ", "michal", "Mich", "' OR '1'='1"} {
		got, err := repo.FindByName(ctx, conn, name)
		if err != nil {
			t.Fatalf("find %q: %v", name, err)
		}
		if got != nil {
			t.Fatalf("expected no match for %q, got %+v", name, got)
		}
	}
}

func TestListFiltersByCityAndPages(t *testing.T) {
	conn := setupTestDB(t)
	seed(t, conn, 1, "A", "Warszawa")
	seed(t, conn, 2, "B", "Krakow")
	seed(t, conn, 3, "C", "Warszawa")
	repo := Provide()
	ctx := context.Background()

	items, err := repo.List(ctx, conn, domain.ListCustomerFilter{City: "Warszawa"}, pagination.Pagination{PageSize: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].Name != "A" || items[1].Name != "C" {
		t.Fatalf("expected A and the look-ahead row C, got %+v", items)
	}

	total, err := repo.Count(ctx, conn, domain.ListCustomerFilter{})
	if err != nil || total != 3 {
		t.Fatalf("expected 3 customers, got %d, %v", total, err)
	}
}
