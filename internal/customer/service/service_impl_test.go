package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/booklib/internal/clock"
	"github.com/smallbiznis/booklib/internal/config"
	"github.com/smallbiznis/booklib/internal/customer/domain"
	"github.com/smallbiznis/booklib/internal/customer/repository"
	"github.com/smallbiznis/booklib/internal/migration"
	"github.com/smallbiznis/booklib/pkg/db"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (domain.Service, *gorm.DB) {
	svc, conn, _ := setupServiceWithClock(t, domain.Ceilings())
	return svc, conn
}

func setupServiceWithLimits(t *testing.T, limits domain.Limits) (domain.Service, *gorm.DB) {
	svc, conn, _ := setupServiceWithClock(t, limits)
	return svc, conn
}

func setupServiceWithClock(t *testing.T, limits domain.Limits) (domain.Service, *gorm.DB, *clock.FakeClock) {
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

	if err := migration.Run(conn, db.TypeSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	fake := clock.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:     conn,
		Log:    zap.NewNop(),
		GenID:  node,
		Repo:   repository.Provide(),
		Limits: config.StaticCustomerLimits(limits),
		Clock:  fake,
	})
	return svc, conn, fake
}

func request(name, city string, age int, pesel, street, apartment string) domain.CreateCustomerRequest {
	return domain.CreateCustomerRequest{
		Name:            &name,
		City:            &city,
		Age:             &age,
		Pesel:           &pesel,
		Street:          &street,
		ApartmentNumber: &apartment,
	}
}

func countCustomers(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := conn.Model(&domain.Customer{}).Count(&n).Error; err != nil {
		t.Fatalf("count customers: %v", err)
	}
	return n
}

func TestCreateAndGetByName(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	valid := []domain.CreateCustomerRequest{
		request("Tomasz", "Warszawa", 26, "12345678901", "Random Street", "12"),
		request("Anna", "Krakow", 123, "98765432109", "Dluga", "4a"),
		request("Jan", "Gdansk", 0, "1", "Morska", "1"),
	}
	for _, req := range valid {
		created, err := svc.Create(ctx, req)
		if err != nil {
			t.Fatalf("create %s: %v", *req.Name, err)
		}
		if created.ID == 0 {
			t.Fatalf("expected generated id")
		}

		got, err := svc.GetByName(ctx, domain.GetCustomerRequest{Name: *req.Name})
		if err != nil {
			t.Fatalf("get %s: %v", *req.Name, err)
		}
		if !got.Equal(created) {
			t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, created)
		}
	}
}

func TestCreateStampsClockTime(t *testing.T) {
	svc, _, fake := setupServiceWithClock(t, domain.Ceilings())
	ctx := context.Background()

	first, err := svc.Create(ctx, request("First", "Warszawa", 30, "1", "Street", "1"))
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	fake.Advance(90 * time.Minute)
	second, err := svc.Create(ctx, request("Second", "Warszawa", 30, "1", "Street", "1"))
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	if got := second.CreatedAt.Sub(first.CreatedAt); got != 90*time.Minute {
		t.Fatalf("expected 90m between registrations, got %s", got)
	}
	if first.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %s", first.CreatedAt.Location())
	}
}

func TestCreateDuplicateNameKeepsFirst(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, request("Tomasz", "Warszawa", 26, "12312", "Random Street", "1"))
	if err != nil {
		t.Fatalf("create first: %v", err)
	}

	_, err = svc.Create(ctx, request("Tomasz", "Krakow", 40, "99999", "Other Street", "2"))
	if !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	if n := countCustomers(t, conn); n != 1 {
		t.Fatalf("expected 1 customer, got %d", n)
	}
	got, err := svc.GetByName(ctx, domain.GetCustomerRequest{Name: "Tomasz"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Equal(first) {
		t.Fatalf("first record changed: %+v", got)
	}
}

func TestCreateDuplicateNameAfterTrim(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, request("Tomasz", "Warszawa", 26, "1", "Street", "1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(ctx, request("  Tomasz ", "Warszawa", 26, "1", "Street", "1"))
	if !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestCreateConcurrentSameName(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Create(ctx, request("Racer", "Warszawa", 20+i, "1", "Street", "1"))
			if err != nil && !errors.Is(err, domain.ErrDuplicateName) {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one winner, got %d", succeeded)
	}
	if n := countCustomers(t, conn); n != 1 {
		t.Fatalf("expected 1 customer, got %d", n)
	}
}

func TestCreateRejectsInvalidAndPersistsNothing(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.CreateCustomerRequest
		want error
	}{
		{"negative age", request("Tomasz", "Warszawa", -1, "1234", "Random Street", "1"), domain.ErrOutOfRange},
		{"city 80 chars", request("Tomasz", strings.Repeat("Warszawa", 10), 26, "1234", "Random Street", "1"), domain.ErrTooLong},
		{"name 7000 chars", request(strings.Repeat("x", 7000), "Warszawa", 26, "1234", "Random Street", "1"), domain.ErrTooLong},
		{"street 7000 chars", request("Tomasz", "Warszawa", 26, "1234", strings.Repeat("x", 7000), "1"), domain.ErrTooLong},
		{"missing name", domain.CreateCustomerRequest{}, domain.ErrMissingField},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if n := countCustomers(t, conn); n != 0 {
		t.Fatalf("expected nothing persisted, got %d", n)
	}
}

func TestCreateStoresInjectionPayloadsVerbatim(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()

	payloads := []string{
		"'; DROP TABLE customers; --",
		"Robert'); DELETE FROM customers;--",
		"<script>alert('XSS')</script>",
		"\" OR \"1\"=\"1",
	}
	for i, payload := range payloads {
		req := request(payload, payload[:min(len(payload), 20)], 30, fmt.Sprintf("%d", i), payload, "1")
		if _, err := svc.Create(ctx, req); err != nil {
			t.Fatalf("create %q: %v", payload, err)
		}
		got, err := svc.GetByName(ctx, domain.GetCustomerRequest{Name: payload})
		if err != nil {
			t.Fatalf("get %q: %v", payload, err)
		}
		if got.Name != payload || got.Street != payload {
			t.Fatalf("payload altered: %+v", got)
		}
	}

	if !conn.Migrator().HasTable(&domain.Customer{}) {
		t.Fatalf("customers table must survive injection payloads")
	}
	if n := countCustomers(t, conn); n != int64(len(payloads)) {
		t.Fatalf("expected %d customers, got %d", len(payloads), n)
	}
}

func TestHookBlocksRecordsThatBypassValidation(t *testing.T) {
	_, conn := setupService(t)

	rogue := domain.Customer{
		ID:              1,
		Name:            "Rogue",
		City:            strings.Repeat("x", 7000),
		Age:             30,
		Pesel:           "1",
		Street:          "Street",
		ApartmentNumber: "1",
		CreatedAt:       time.Now(),
	}
	s := db.NewSession(conn)
	s.Add(&rogue)
	if err := s.Commit(context.Background()); !errors.Is(err, domain.ErrTooLong) {
		t.Fatalf("expected hook to reject oversized city, got %v", err)
	}
	if n := countCustomers(t, conn); n != 0 {
		t.Fatalf("expected nothing persisted, got %d", n)
	}
}

func TestHookNormalisesRecordsThatBypassValidation(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, request("Michal", "Warszawa", 30, "1", "Street", "1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	padded := domain.Customer{
		ID:              2,
		Name:            "  Michal  ",
		City:            "Warszawa",
		Age:             30,
		Pesel:           "2",
		Street:          "Street",
		ApartmentNumber: "1",
		CreatedAt:       time.Now(),
	}
	s := db.NewSession(conn)
	s.Add(&padded)
	if err := s.Commit(ctx); !db.IsDuplicateKeyErr(err) {
		t.Fatalf("expected padded name to collide with the stored one, got %v", err)
	}

	overflow := domain.Customer{
		ID:              3,
		Name:            strings.Repeat(" ", 500) + "X",
		City:            strings.Repeat(" ", 500) + "Krakow",
		Age:             30,
		Pesel:           "3",
		Street:          "Street",
		ApartmentNumber: "1",
		CreatedAt:       time.Now(),
	}
	s.Add(&overflow)
	if err := s.Commit(ctx); err != nil {
		t.Fatalf("commit padded overflow: %v", err)
	}

	if n := countCustomers(t, conn); n != 2 {
		t.Fatalf("expected 2 customers, got %d", n)
	}
	var stored []domain.Customer
	if err := conn.Order("id asc").Find(&stored).Error; err != nil {
		t.Fatalf("load customers: %v", err)
	}
	for _, c := range stored {
		if utf8.RuneCountInString(c.Name) > domain.Ceilings().NameMax || utf8.RuneCountInString(c.City) > domain.Ceilings().CityMax {
			t.Fatalf("stored text exceeds limits: %q / %q", c.Name, c.City)
		}
		if c.Name != strings.TrimSpace(c.Name) || c.City != strings.TrimSpace(c.City) {
			t.Fatalf("stored text not trimmed: %q / %q", c.Name, c.City)
		}
	}
	if _, err := svc.GetByName(ctx, domain.GetCustomerRequest{Name: "X"}); err != nil {
		t.Fatalf("expected trimmed name to be found: %v", err)
	}
}

func TestCreateUsesConfiguredLimits(t *testing.T) {
	limits := domain.Ceilings()
	limits.NameMax = 5
	svc, _ := setupServiceWithLimits(t, limits)

	_, err := svc.Create(context.Background(), request("Bartholomew", "Warszawa", 30, "1", "Street", "1"))
	if !errors.Is(err, domain.ErrTooLong) {
		t.Fatalf("expected ErrTooLong under tightened limits, got %v", err)
	}
}

func TestGetByName(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	if _, err := svc.GetByName(ctx, domain.GetCustomerRequest{Name: "   "}); !errors.Is(err, domain.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, err := svc.GetByName(ctx, domain.GetCustomerRequest{Name: strings.Repeat("x", 7000)}); !errors.Is(err, domain.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName for oversized name, got %v", err)
	}
	if _, err := svc.GetByName(ctx, domain.GetCustomerRequest{Name: "Nobody"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetByName(ctx, domain.GetCustomerRequest{Name: "' OR '1'='1"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("injection lookup must not match, got %v", err)
	}
}

func TestListPaginates(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		city := "Warszawa"
		if i%2 == 1 {
			city = "Krakow"
		}
		if _, err := svc.Create(ctx, request(fmt.Sprintf("Customer %d", i), city, 20+i, "1", "Street", "1")); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, err := svc.List(ctx, domain.ListCustomerRequest{PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 5 || len(page.Customers) != 2 || !page.HasMore {
		t.Fatalf("unexpected first page: total=%d len=%d more=%v", page.Total, len(page.Customers), page.HasMore)
	}
	if page.Customers[0].Name != "Customer 0" {
		t.Fatalf("expected insertion order, got %s", page.Customers[0].Name)
	}

	seen := len(page.Customers)
	for page.HasMore {
		page, err = svc.List(ctx, domain.ListCustomerRequest{PageSize: 2, PageToken: page.NextPageToken})
		if err != nil {
			t.Fatalf("list next: %v", err)
		}
		seen += len(page.Customers)
	}
	if seen != 5 {
		t.Fatalf("expected to walk 5 customers, got %d", seen)
	}

	krakow, err := svc.List(ctx, domain.ListCustomerRequest{City: "Krakow"})
	if err != nil {
		t.Fatalf("list by city: %v", err)
	}
	if krakow.Total != 2 || len(krakow.Customers) != 2 {
		t.Fatalf("expected 2 customers in Krakow, got %d", krakow.Total)
	}

	if _, err := svc.List(ctx, domain.ListCustomerRequest{PageToken: "garbage"}); !errors.Is(err, domain.ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}
