//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/smallbiznis/booklib/pkg/db"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// PostgresContainer wraps a throwaway Postgres instance and a gorm handle to it.
type PostgresContainer struct {
	Container testcontainers.Container
	Config    db.Config
	DB        *gorm.DB
}

func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("booklib"),
		tcpostgres.WithUsername("booklib"),
		tcpostgres.WithPassword("booklib"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}

	cfg := db.Config{
		Type:        db.TypePostgres,
		Host:        host,
		Port:        port.Port(),
		Name:        "booklib",
		User:        "booklib",
		Password:    "booklib",
		SSLMode:     "disable",
		MaxOpenConn: 10,
	}
	conn, err := db.Open(cfg, gormlogger.Discard)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("postgres handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	return &PostgresContainer{Container: container, Config: cfg, DB: conn}
}

// TruncateTables empties the named tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if err := p.DB.WithContext(ctx).Exec("TRUNCATE TABLE " + table + " CASCADE").Error; err != nil {
			return err
		}
	}
	return nil
}
