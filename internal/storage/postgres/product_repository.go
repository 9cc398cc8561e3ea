package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) FindAllByIDs(ids []string) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price_minor, quantity, created_at, updated_at
		FROM products
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.PriceMinor,
			&product.Quantity, &product.CreatedAt, &product.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		byID[product.ID] = product
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	// Порядок результата повторяет порядок запрошенных идентификаторов.
	seen := make(map[string]bool, len(ids))
	products := make([]domain.Product, 0, len(byID))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if product, ok := byID[id]; ok {
			products = append(products, product)
		}
	}

	return products, nil
}

func (r *productRepository) DecrementQuantities(changes []domain.QuantityChange) error {
	return r.applyQuantityChanges(changes, false)
}

func (r *productRepository) RestoreQuantities(changes []domain.QuantityChange) error {
	return r.applyQuantityChanges(changes, true)
}

// applyQuantityChanges выполняет батч в одной транзакции: при любом отказе
// вся транзакция откатывается, частичных списаний не бывает.
func (r *productRepository) applyQuantityChanges(changes []domain.QuantityChange, restore bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if len(changes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, change := range changes {
		if restore {
			err = restoreOne(ctx, tx, change)
		} else {
			err = decrementOne(ctx, tx, change)
		}
		if err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit quantity changes: %w", err)
	}

	return nil
}

func decrementOne(ctx context.Context, tx *sql.Tx, change domain.QuantityChange) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET quantity = quantity - $2,
		    updated_at = $3
		WHERE id = $1
		  AND quantity >= $2
	`, change.ProductID, change.Qty, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("decrement product %s: %w", change.ProductID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Строка не обновилась: либо товара нет, либо остатка не хватает.
	var (
		name      string
		available int32
	)
	err = tx.QueryRowContext(ctx, `
		SELECT name, quantity FROM products WHERE id = $1
	`, change.ProductID).Scan(&name, &available)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, change.ProductID)
	}
	if err != nil {
		return fmt.Errorf("check product %s: %w", change.ProductID, err)
	}

	return &domain.InsufficientStockError{
		ProductID:   change.ProductID,
		ProductName: name,
		Requested:   change.Qty,
		Available:   available,
	}
}

func restoreOne(ctx context.Context, tx *sql.Tx, change domain.QuantityChange) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET quantity = quantity + $2,
		    updated_at = $3
		WHERE id = $1
	`, change.ProductID, change.Qty, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("restore product %s: %w", change.ProductID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, change.ProductID)
	}

	return nil
}

func (r *productRepository) Create(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	now := time.Now().UTC()
	createdAt := product.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := product.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price_minor, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, product.ID, product.Name, product.PriceMinor, product.Quantity, createdAt, updatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrProductAlreadyExists
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
