package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"wrapped gorm", fmt.Errorf("commit: %w", gorm.ErrDuplicatedKey), true},
		{"pgx", &pgconn.PgError{Code: "23505"}, true},
		{"pgx other", &pgconn.PgError{Code: "23514"}, false},
		{"lib/pq", &pq.Error{Code: "23505"}, true},
		{"mysql", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"mysql other", &mysql.MySQLError{Number: 1213}, false},
		{"sqlite", errors.New("UNIQUE constraint failed: customers.name"), true},
		{"other", errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		if got := IsDuplicateKeyErr(tc.err); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestDialect(t *testing.T) {
	for _, typ := range []string{TypePostgres, TypeMySQL, TypeSQLite, TypeSQLitePure, " SQLite "} {
		if _, err := Dialect(Config{Type: typ}); err != nil {
			t.Fatalf("dialect %q: %v", typ, err)
		}
	}
	if _, err := Dialect(Config{Type: "oracle"}); err == nil {
		t.Fatalf("expected unsupported dialect error")
	}
}
