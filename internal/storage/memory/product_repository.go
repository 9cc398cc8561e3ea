package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// productRepositoryInMemory — in-memory реализация ProductRepository.
// Атомарность батч-операций над остатками обеспечивается общим мьютексом.
type productRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

// NewProductRepository возвращает in-memory каталог товаров для локальной разработки и тестов.
func NewProductRepository() domain.ProductRepository {
	return &productRepositoryInMemory{
		items: make(map[string]domain.Product),
	}
}

// FindAllByIDs возвращает только найденные товары в порядке запрошенных идентификаторов.
func (r *productRepositoryInMemory) FindAllByIDs(ids []string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if product, ok := r.items[id]; ok {
			result = append(result, product)
		}
	}
	return result, nil
}

// DecrementQuantities атомарно списывает остатки: сначала валидируется весь
// батч, затем применяются изменения. Частичное списание невозможно.
func (r *productRepositoryInMemory) DecrementQuantities(changes []domain.QuantityChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, change := range changes {
		product, ok := r.items[change.ProductID]
		if !ok {
			return domain.ErrProductNotFound
		}
		if change.Qty > product.Quantity {
			return &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   change.Qty,
				Available:   product.Quantity,
			}
		}
	}

	now := time.Now().UTC()
	for _, change := range changes {
		product := r.items[change.ProductID]
		product.Quantity -= change.Qty
		product.UpdatedAt = now
		r.items[change.ProductID] = product
	}
	return nil
}

// RestoreQuantities возвращает остатки обратно (компенсация).
func (r *productRepositoryInMemory) RestoreQuantities(changes []domain.QuantityChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, change := range changes {
		if _, ok := r.items[change.ProductID]; !ok {
			return domain.ErrProductNotFound
		}
	}

	now := time.Now().UTC()
	for _, change := range changes {
		product := r.items[change.ProductID]
		product.Quantity += change.Qty
		product.UpdatedAt = now
		r.items[change.ProductID] = product
	}
	return nil
}

// Create сохраняет новый товар, если ID ещё не занят.
func (r *productRepositoryInMemory) Create(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[product.ID]; exists {
		return domain.ErrProductAlreadyExists
	}
	r.items[product.ID] = product
	return nil
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
