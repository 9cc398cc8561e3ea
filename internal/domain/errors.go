package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка отсутствующего идентификатора клиента во входных данных.
	ErrCustomerIDRequired = errors.New("customer_id is required")
	// Ошибка отсутствия хотя бы одной позиции в запросе.
	ErrLinesRequired = errors.New("order must contain at least one line")
	// Ошибка при некорректном количестве в позиции (<= 0).
	ErrLineQtyInvalid = errors.New("line qty must be greater than zero")
	// Ошибка отсутствующего идентификатора товара в позиции.
	ErrLineProductRequired = errors.New("line product_id is required")
	// Ошибка, если зафиксированная цена позиции отрицательная.
	ErrLinePriceInvalid = errors.New("line price must be non-negative")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("amount_minor must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order amount does not match lines sum")
	// Ошибка отсутствующего идентификатора товара.
	ErrProductIDRequired = errors.New("product id is required")
	// Ошибка отсутствующего имени товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка отрицательной цены товара.
	ErrProductPriceInvalid = errors.New("product price must be non-negative")
	// Ошибка отрицательного остатка товара.
	ErrProductQuantityNegative = errors.New("product quantity must be non-negative")

	// ErrCustomerNotFound — доменная ошибка: клиент с таким идентификатором не существует.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProductNotFound — доменная ошибка: хотя бы один товар запроса не существует.
	ErrProductNotFound = errors.New("one or more products not found")
	// ErrInsufficientStock — доменная ошибка: запрошенное количество превышает остаток.
	// Конкретный товар несёт InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrCustomerAlreadyExists возвращается при попытке создать клиента с занятым ID.
	ErrCustomerAlreadyExists = errors.New("customer already exists")
	// ErrProductAlreadyExists возвращается при попытке создать товар с занятым ID.
	ErrProductAlreadyExists = errors.New("product already exists")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// InsufficientStockError уточняет ErrInsufficientStock: какой товар и насколько
// превышен остаток. Сообщение называет конкретный товар.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int32
	Available   int32
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf(
		"product %q does not have enough quantity available in stock: requested %d, available %d",
		name, e.Requested, e.Available,
	)
}

// Unwrap позволяет errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// IsInsufficientStock проверяет, является ли ошибка нехваткой остатка.
func IsInsufficientStock(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}
