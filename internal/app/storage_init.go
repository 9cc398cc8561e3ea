package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/checkout/internal/health"
	"github.com/vladislavdragonenkov/checkout/internal/service/placement"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
	"github.com/vladislavdragonenkov/checkout/internal/storage/postgres"
)

// runtimeDependencies содержит репозитории, собранный сервис оформления
// и ресурсы выбранного хранилища.
type runtimeDependencies struct {
	customers  domain.CustomerRepository
	products   domain.ProductRepository
	orders     domain.OrderRepository
	outboxRepo domain.OutboxRepository
	placement  *placement.Service

	storageChecker healthcheck.Checker
	closeFn        func() error
}

func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil || d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}

// initRuntimeDependencies собирает репозитории согласно cfg.StorageDriver и
// конструирует на них сервис оформления заказов.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	var deps *runtimeDependencies

	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		logger.Info("using in-memory storage")
		deps = &runtimeDependencies{
			customers:  memory.NewCustomerRepository(),
			products:   memory.NewProductRepository(),
			orders:     memory.NewOrderRepository(),
			outboxRepo: memory.NewOutboxRepository(),
		}

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage driver requires CHECKOUT_POSTGRES_DSN")
		}

		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}

		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
			logger.Info("postgres migrations applied")
		}

		logger.Info("using postgres storage")
		deps = &runtimeDependencies{
			customers:  postgres.NewCustomerRepository(store),
			products:   postgres.NewProductRepository(store),
			orders:     postgres.NewOrderRepository(store),
			outboxRepo: postgres.NewOutboxRepository(store),
			storageChecker: healthcheck.CheckerFunc(func() error {
				return store.Ping(context.Background())
			}),
			closeFn: store.Close,
		}

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}

	deps.placement = placement.NewService(
		deps.customers,
		deps.products,
		deps.orders,
		deps.outboxRepo,
		logger.WithField("component", "placement"),
	)
	return deps, nil
}
