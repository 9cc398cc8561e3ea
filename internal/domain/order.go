package domain

import "time"

// RequestLine — входная позиция запроса на оформление заказа.
// Передаётся вызывающей стороной и не сохраняется напрямую.
type RequestLine struct {
	ProductID string
	Qty       int32
}

// OrderLine представляет одну позицию оформленного заказа.
// Цена фиксируется в момент валидации и после создания не меняется.
type OrderLine struct {
	// ID позиции нужен для однозначной идентификации и аудита.
	ID string
	// ProductID — идентификатор товара каталога.
	ProductID string
	// Qty — количество единиц товара.
	Qty int32
	// PriceMinor — зафиксированная цена за единицу в минимальных денежных единицах.
	PriceMinor int64
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// Order агрегирует оформленный заказ и его позиции.
// Заказ неизменяем после сохранения: ядро не поддерживает update/cancel.
type Order struct {
	ID          string
	CustomerID  string
	AmountMinor int64
	Lines       []OrderLine
	CreatedAt   time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerIDRequired)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}
	if o.AmountMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}

	// Сверяем сумму заказа с суммой позиций: qty * price.
	var calc int64
	for _, line := range o.Lines {
		if line.ProductID == "" {
			errs = append(errs, ErrLineProductRequired)
		}
		if line.Qty <= 0 {
			errs = append(errs, ErrLineQtyInvalid)
		}
		if line.PriceMinor < 0 {
			errs = append(errs, ErrLinePriceInvalid)
		}
		calc += int64(line.Qty) * line.PriceMinor
	}
	if calc != o.AmountMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}
