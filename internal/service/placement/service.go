package placement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
)

// Service исполняет сценарий оформления заказа как единую логическую операцию:
// резолв клиента → резолв товаров → проверка остатков → списание → сохранение.
// Доменные ошибки прерывают сценарий до любой мутации; инфраструктурные ошибки
// коллабораторов пробрасываются вызывающей стороне без изменений.
type Service struct {
	customers domain.CustomerRepository
	products  domain.ProductRepository
	orders    domain.OrderRepository
	outbox    domain.OutboxRepository // опционально: transactional outbox для order.placed
	logger    *log.Entry
	metrics   *metrics.PlacementMetrics
}

// NewService конструирует сервис с зависимостями.
func NewService(
	customers domain.CustomerRepository,
	products domain.ProductRepository,
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "placement")
	}
	return &Service{
		customers: customers,
		products:  products,
		orders:    orders,
		outbox:    outbox,
		logger:    logger,
		metrics:   metrics.NewPlacementMetrics(),
	}
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(
	customers domain.CustomerRepository,
	products domain.ProductRepository,
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "placement")
	}
	return &Service{
		customers: customers,
		products:  products,
		orders:    orders,
		outbox:    outbox,
		logger:    logger,
	}
}

// PlaceOrder проверяет запрос, списывает остатки и сохраняет новый заказ с
// ценами, зафиксированными на момент валидации. Операция намеренно не
// идемпотентна: повторный вызов создаст второй заказ и спишет остатки ещё раз.
func (s *Service) PlaceOrder(_ context.Context, customerID string, lines []domain.RequestLine) (domain.Order, error) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.RecordPlacementStarted()
		defer func() {
			s.metrics.RecordPlacementDuration(time.Since(start))
		}()
	}

	if err := validateRequest(customerID, lines); err != nil {
		s.recordFailure(metrics.FailReasonInvalidRequest)
		return domain.Order{}, err
	}

	customer, err := s.customers.FindByID(customerID)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			s.recordFailure(metrics.FailReasonCustomerNotFound)
		} else {
			s.recordFailure(metrics.FailReasonStorage)
		}
		return domain.Order{}, err
	}

	// Дубли товара в запросе суммируются до проверки остатков, чтобы две
	// позиции на один товар не прошли валидацию по одному и тому же остатку.
	requested, ids, err := aggregateLines(lines)
	if err != nil {
		s.recordFailure(metrics.FailReasonInvalidRequest)
		return domain.Order{}, err
	}

	products, err := s.products.FindAllByIDs(ids)
	if err != nil {
		s.recordFailure(metrics.FailReasonStorage)
		return domain.Order{}, err
	}
	if len(products) != len(ids) {
		s.recordFailure(metrics.FailReasonProductNotFound)
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, strings.Join(missingIDs(ids, products), ", "))
	}

	// Все позиции проверяются до первого списания: заказ либо проходит
	// целиком, либо остатки не трогаются вовсе.
	for _, product := range products {
		qty := requested[product.ID]
		if qty > product.Quantity {
			s.recordFailure(metrics.FailReasonInsufficientStock)
			return domain.Order{}, &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   qty,
				Available:   product.Quantity,
			}
		}
	}

	changes := make([]domain.QuantityChange, 0, len(products))
	for _, product := range products {
		changes = append(changes, domain.QuantityChange{
			ProductID: product.ID,
			Qty:       requested[product.ID],
		})
	}

	// Списание атомарно по всему батчу и повторно проверяет доступность,
	// закрывая гонку между параллельными заказами.
	if err := s.products.DecrementQuantities(changes); err != nil {
		if domain.IsInsufficientStock(err) {
			s.recordFailure(metrics.FailReasonInsufficientStock)
		} else {
			s.recordFailure(metrics.FailReasonStorage)
		}
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	orderLines := make([]domain.OrderLine, 0, len(products))
	var amountMinor int64
	for _, product := range products {
		qty := requested[product.ID]
		orderLines = append(orderLines, domain.OrderLine{
			ID:         uuid.NewString(),
			ProductID:  product.ID,
			Qty:        qty,
			PriceMinor: product.PriceMinor,
			CreatedAt:  now,
		})
		amountMinor += int64(qty) * product.PriceMinor
	}

	candidate := domain.Order{
		CustomerID:  customer.ID,
		AmountMinor: amountMinor,
		Lines:       orderLines,
	}
	if errs := candidate.ValidateInvariants(); len(errs) > 0 {
		s.restoreStock(customer.ID, changes)
		s.recordFailure(metrics.FailReasonInvalidRequest)
		return domain.Order{}, errors.New(joinErrors(errs))
	}

	order, err := s.orders.Create(customer, orderLines)
	if err != nil {
		// Компенсация: списание без сохранённого заказа недопустимо.
		s.restoreStock(customer.ID, changes)
		s.recordFailure(metrics.FailReasonStorage)
		return domain.Order{}, err
	}

	s.enqueueOrderPlaced(order)

	if s.metrics != nil {
		s.metrics.RecordOrderPlaced()
	}
	s.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"customer_id":  order.CustomerID,
		"lines":        len(order.Lines),
		"amount_minor": order.AmountMinor,
	}).Info("order placed")

	return order, nil
}

// validateRequest отклоняет заведомо некорректный вход до обращений к хранилищам.
func validateRequest(customerID string, lines []domain.RequestLine) error {
	if customerID == "" {
		return domain.ErrCustomerIDRequired
	}
	if len(lines) == 0 {
		return domain.ErrLinesRequired
	}
	for idx, line := range lines {
		if line.ProductID == "" {
			return fmt.Errorf("line[%d]: %w", idx, domain.ErrLineProductRequired)
		}
		if line.Qty <= 0 {
			return fmt.Errorf("line[%d]: %w", idx, domain.ErrLineQtyInvalid)
		}
	}
	return nil
}

// aggregateLines суммирует количества по товару, сохраняя порядок первого
// упоминания каждого идентификатора. Сумма по товару не должна переполнять
// int32: такой запрос отклоняется до обращения к остаткам.
func aggregateLines(lines []domain.RequestLine) (map[string]int32, []string, error) {
	requested := make(map[string]int32, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, ok := requested[line.ProductID]; !ok {
			ids = append(ids, line.ProductID)
		}
		if line.Qty > math.MaxInt32-requested[line.ProductID] {
			return nil, nil, fmt.Errorf("product %s: total requested quantity is out of range: %w",
				line.ProductID, domain.ErrLineQtyInvalid)
		}
		requested[line.ProductID] += line.Qty
	}
	return requested, ids, nil
}

func missingIDs(ids []string, products []domain.Product) []string {
	found := make(map[string]struct{}, len(products))
	for _, product := range products {
		found[product.ID] = struct{}{}
	}

	missing := make([]string, 0)
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func (s *Service) restoreStock(customerID string, changes []domain.QuantityChange) {
	if err := s.products.RestoreQuantities(changes); err != nil {
		s.logger.WithError(err).WithField("customer_id", customerID).Error("failed to restore stock after order create failure")
	}
}

func (s *Service) enqueueOrderPlaced(order domain.Order) {
	if s.outbox == nil {
		return
	}

	payload, err := json.Marshal(kafka.NewOrderPlacedEvent(order))
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to marshal order placed event")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: kafka.AggregateTypeOrder,
		AggregateID:   order.ID,
		EventType:     string(kafka.EventTypeOrderPlaced),
		Payload:       payload,
	}
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to enqueue order placed event")
		return
	}

	if s.metrics != nil {
		s.metrics.RecordOutboxEnqueued()
	}
}

func (s *Service) recordFailure(reason string) {
	if s.metrics != nil {
		s.metrics.RecordPlacementFailed(reason)
	}
}

func joinErrors(errs []error) string {
	builder := strings.Builder{}
	for i, err := range errs {
		builder.WriteString(err.Error())
		if i < len(errs)-1 {
			builder.WriteString("; ")
		}
	}
	return builder.String()
}
