package domain

import "time"

// Customer описывает покупателя. Для оформления заказа ядру важен только
// факт существования записи, остальные поля ведёт справочник клиентов.
type Customer struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}
