package postgres

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func TestCustomerRepository_PostgresCreateFind(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCustomerRepository(store)

	customer := domain.Customer{ID: "customer-pg-1", Name: "Alice", Email: "alice@example.com"}
	if err := repo.Create(customer); err != nil {
		t.Fatalf("create customer: %v", err)
	}

	got, err := repo.FindByID(customer.ID)
	if err != nil {
		t.Fatalf("find customer: %v", err)
	}
	if got.Name != customer.Name || got.Email != customer.Email {
		t.Fatalf("unexpected customer payload: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestCustomerRepository_PostgresFindMissing(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCustomerRepository(store)

	if _, err := repo.FindByID("ghost"); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestCustomerRepository_PostgresCreateDuplicate(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCustomerRepository(store)

	if err := repo.Create(domain.Customer{ID: "customer-dup", Name: "Alice"}); err != nil {
		t.Fatalf("create customer: %v", err)
	}
	err := repo.Create(domain.Customer{ID: "customer-dup", Name: "Another Alice"})
	if !errors.Is(err, domain.ErrCustomerAlreadyExists) {
		t.Fatalf("expected ErrCustomerAlreadyExists, got %v", err)
	}
}
