package domain

// CustomerRepository описывает справочник клиентов.
type CustomerRepository interface {
	// FindByID возвращает клиента или ErrCustomerNotFound, если его нет.
	FindByID(id string) (Customer, error)
	// Create сохраняет нового клиента. Возвращает ошибку, если ID уже занят.
	Create(customer Customer) error
}

// ProductRepository описывает каталог товаров с остатками.
type ProductRepository interface {
	// FindAllByIDs возвращает только найденные товары; отсутствующие
	// идентификаторы вызывающая сторона вычисляет по разнице множеств.
	FindAllByIDs(ids []string) ([]Product, error)
	// DecrementQuantities атомарно уменьшает остатки по всему батчу: либо
	// применяются все пары, либо ни одна. Повторно проверяет доступность и
	// возвращает InsufficientStockError либо ErrProductNotFound.
	DecrementQuantities(changes []QuantityChange) error
	// RestoreQuantities возвращает остатки обратно (компенсация после
	// неудачного сохранения заказа). Батч также атомарен.
	RestoreQuantities(changes []QuantityChange) error
	// Create сохраняет новый товар. Возвращает ошибку, если ID уже занят.
	Create(product Product) error
}

// OrderRepository описывает журнал оформленных заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ, назначая идентификатор и время создания,
	// и возвращает сохранённый агрегат.
	Create(customer Customer, lines []OrderLine) (Order, error)
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListByCustomer возвращает заказы клиента с опциональным ограничением на количество.
	ListByCustomer(customerID string, limit int) ([]Order, error)
}
