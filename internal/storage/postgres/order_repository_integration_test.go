package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func seedIntegrationCustomer(t *testing.T, store *Store, id string) domain.Customer {
	t.Helper()

	customer := domain.Customer{ID: id, Name: "Customer " + id, Email: id + "@example.com"}
	if err := NewCustomerRepository(store).Create(customer); err != nil {
		t.Fatalf("seed customer %s: %v", id, err)
	}
	return customer
}

func sampleLines(prefix string, createdAt time.Time) []domain.OrderLine {
	return []domain.OrderLine{
		{
			ID:         prefix + "-line-1",
			ProductID:  "p1",
			Qty:        2,
			PriceMinor: 150,
			CreatedAt:  createdAt,
		},
		{
			ID:         prefix + "-line-2",
			ProductID:  "p2",
			Qty:        1,
			PriceMinor: 700,
			CreatedAt:  createdAt,
		},
	}
}

func TestOrderRepository_PostgresCreateGetList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)
	customer := seedIntegrationCustomer(t, store, "customer-1")

	now := time.Now().UTC().Round(time.Microsecond)

	first, err := repo.Create(customer, sampleLines("a", now))
	if err != nil {
		t.Fatalf("create first order: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Fatalf("expected assigned identity, got %+v", first)
	}
	if first.AmountMinor != 2*150+700 {
		t.Fatalf("expected amount 1000, got %d", first.AmountMinor)
	}

	second, err := repo.Create(customer, sampleLines("b", now))
	if err != nil {
		t.Fatalf("create second order: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("expected distinct order ids")
	}

	got, err := repo.Get(first.ID)
	if err != nil {
		t.Fatalf("get first order: %v", err)
	}
	if got.CustomerID != customer.ID {
		t.Fatalf("unexpected customer id: %s", got.CustomerID)
	}
	if len(got.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got.Lines))
	}
	if got.Lines[0].PriceMinor != 150 || got.Lines[1].PriceMinor != 700 {
		t.Fatalf("unexpected captured prices: %+v", got.Lines)
	}

	listed, err := repo.ListByCustomer(customer.ID, 1)
	if err != nil {
		t.Fatalf("list by customer with limit: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 order with limit, got %d", len(listed))
	}

	all, err := repo.ListByCustomer(customer.ID, 0)
	if err != nil {
		t.Fatalf("list by customer without limit: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(all))
	}
}

func TestOrderRepository_PostgresGetMissing(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	if _, err := repo.Get("missing-order"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("expected unique violation for code 23505")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "22001"}) {
		t.Fatal("unexpected unique violation for non-unique code")
	}
	if isUniqueViolation(errors.New("plain error")) {
		t.Fatal("plain error must not be unique violation")
	}
}
