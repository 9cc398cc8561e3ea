package domain

import "time"

// Product представляет товар каталога с доступным остатком.
type Product struct {
	ID string
	// Name — отображаемое имя товара, попадает в сообщения об ошибках стока.
	Name string
	// PriceMinor — цена за единицу в минимальных денежных единицах (например, копейки).
	PriceMinor int64
	// Quantity — доступный остаток, не может быть отрицательным.
	Quantity  int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// QuantityChange — пара (товар, количество) для батч-операций над остатками.
type QuantityChange struct {
	ProductID string
	Qty       int32
}

// ValidateInvariants проверяет базовые инварианты товара и возвращает список замечаний.
func (p *Product) ValidateInvariants() []error {
	var errs []error

	if p.ID == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if p.Name == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if p.PriceMinor < 0 {
		errs = append(errs, ErrProductPriceInvalid)
	}
	if p.Quantity < 0 {
		errs = append(errs, ErrProductQuantityNegative)
	}

	return errs
}
