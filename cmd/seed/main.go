package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/storage/postgres"
)

const defaultTimeout = 30 * time.Second

// fixtures описывает входной JSON-файл с данными для загрузки.
type fixtures struct {
	Customers []customerFixture `json:"customers"`
	Products  []productFixture  `json:"products"`
}

type customerFixture struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type productFixture struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceMinor int64  `json:"price_minor"`
	Quantity   int32  `json:"quantity"`
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logger := log.WithField("component", "seed")

	var (
		dsn       string
		filePath  string
		customers int
		products  int
	)

	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: CHECKOUT_POSTGRES_DSN)")
	flag.StringVar(&filePath, "file", "", "path to JSON fixtures file (optional)")
	flag.IntVar(&customers, "customers", 5, "number of generated customers when -file is not set")
	flag.IntVar(&products, "products", 20, "number of generated products when -file is not set")
	flag.Parse()

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv("CHECKOUT_POSTGRES_DSN"))
	}
	if dsn == "" {
		fail("CHECKOUT_POSTGRES_DSN (or -dsn) is required")
	}

	data, err := loadFixtures(filePath, customers, products)
	if err != nil {
		fail("load fixtures: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		fail("open postgres store: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		fail("apply migrations: %v", err)
	}

	customerRepo := postgres.NewCustomerRepository(store)
	productRepo := postgres.NewProductRepository(store)

	var createdCustomers, createdProducts, skipped int

	for _, c := range data.Customers {
		err := customerRepo.Create(domain.Customer{ID: c.ID, Name: c.Name, Email: c.Email})
		switch {
		case errors.Is(err, domain.ErrCustomerAlreadyExists):
			skipped++
		case err != nil:
			fail("create customer %s: %v", c.ID, err)
		default:
			createdCustomers++
		}
	}

	for _, p := range data.Products {
		product := domain.Product{ID: p.ID, Name: p.Name, PriceMinor: p.PriceMinor, Quantity: p.Quantity}
		if errs := product.ValidateInvariants(); len(errs) > 0 {
			fail("invalid product fixture %s: %v", p.ID, errs[0])
		}
		err := productRepo.Create(product)
		switch {
		case errors.Is(err, domain.ErrProductAlreadyExists):
			skipped++
		case err != nil:
			fail("create product %s: %v", p.ID, err)
		default:
			createdProducts++
		}
	}

	logger.WithFields(log.Fields{
		"customers": createdCustomers,
		"products":  createdProducts,
		"skipped":   skipped,
	}).Info("seed finished")
}

// loadFixtures читает фикстуры из файла либо генерирует их.
func loadFixtures(filePath string, customers, products int) (fixtures, error) {
	if filePath != "" {
		raw, err := os.ReadFile(filePath)
		if err != nil {
			return fixtures{}, fmt.Errorf("read fixtures file: %w", err)
		}
		var data fixtures
		if err := json.Unmarshal(raw, &data); err != nil {
			return fixtures{}, fmt.Errorf("parse fixtures file: %w", err)
		}
		return data, nil
	}

	return generateFixtures(customers, products), nil
}

func generateFixtures(customers, products int) fixtures {
	data := fixtures{
		Customers: make([]customerFixture, 0, customers),
		Products:  make([]productFixture, 0, products),
	}

	for i := 0; i < customers; i++ {
		id := uuid.NewString()
		data.Customers = append(data.Customers, customerFixture{
			ID:    id,
			Name:  fmt.Sprintf("Customer %d", i+1),
			Email: fmt.Sprintf("customer%d@example.com", i+1),
		})
	}

	for i := 0; i < products; i++ {
		data.Products = append(data.Products, productFixture{
			ID:         uuid.NewString(),
			Name:       fmt.Sprintf("Product %d", i+1),
			PriceMinor: int64(100 * (i + 1)),
			Quantity:   int32(10 + i),
		})
	}

	return data
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
