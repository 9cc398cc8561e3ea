package memory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
)

func newLines() []domain.OrderLine {
	now := time.Now().UTC()
	return []domain.OrderLine{
		{ID: "line-1", ProductID: "p1", Qty: 5, PriceMinor: 100, CreatedAt: now},
		{ID: "line-2", ProductID: "p2", Qty: 2, PriceMinor: 250, CreatedAt: now},
	}
}

func TestOrderRepository_CreateAssignsIdentity(t *testing.T) {
	repo := memory.NewOrderRepository()
	customer := domain.Customer{ID: "customer-1", Name: "Alice"}

	order, err := repo.Create(customer, newLines())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if order.ID == "" {
		t.Fatal("expected assigned order id")
	}
	if order.CreatedAt.IsZero() {
		t.Fatal("expected assigned created_at")
	}
	if order.AmountMinor != 5*100+2*250 {
		t.Fatalf("expected amount 1000, got %d", order.AmountMinor)
	}

	stored, err := repo.Get(order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.CustomerID != customer.ID {
		t.Fatalf("expected customer %s, got %s", customer.ID, stored.CustomerID)
	}
	if len(stored.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(stored.Lines))
	}
}

func TestOrderRepository_GetMissing(t *testing.T) {
	repo := memory.NewOrderRepository()

	_, err := repo.Get("ghost")
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_ListByCustomer(t *testing.T) {
	repo := memory.NewOrderRepository()
	customer := domain.Customer{ID: "customer-1"}

	first, err := repo.Create(customer, newLines())
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := repo.Create(customer, newLines())
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if _, err := repo.Create(domain.Customer{ID: "customer-2"}, newLines()); err != nil {
		t.Fatalf("create other customer order: %v", err)
	}

	orders, err := repo.ListByCustomer("customer-1", 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}

	ids := map[string]struct{}{orders[0].ID: {}, orders[1].ID: {}}
	if _, ok := ids[first.ID]; !ok {
		t.Fatalf("expected first order in listing")
	}
	if _, ok := ids[second.ID]; !ok {
		t.Fatalf("expected second order in listing")
	}

	limited, err := repo.ListByCustomer("customer-1", 1)
	if err != nil {
		t.Fatalf("list with limit failed: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 order with limit, got %d", len(limited))
	}
}

func TestOrderRepository_EachCreateProducesDistinctOrder(t *testing.T) {
	repo := memory.NewOrderRepository()
	customer := domain.Customer{ID: "customer-1"}

	first, err := repo.Create(customer, newLines())
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := repo.Create(customer, newLines())
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("expected distinct order ids for repeated create")
	}
}
