package integration

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/service/outbox"
	"github.com/vladislavdragonenkov/checkout/internal/service/placement"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
)

// PlaceOrderFlowTestSuite тестирует полный цикл оформления заказа:
// валидация, списание остатков, сохранение заказа, публикация события.
type PlaceOrderFlowTestSuite struct {
	suite.Suite
	customers domain.CustomerRepository
	products  domain.ProductRepository
	orders    domain.OrderRepository
	outbox    domain.OutboxRepository
	service   *placement.Service
	publisher *recordingPublisher
}

func (suite *PlaceOrderFlowTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	suite.customers = memory.NewCustomerRepository()
	suite.products = memory.NewProductRepository()
	suite.orders = memory.NewOrderRepository()
	suite.outbox = memory.NewOutboxRepository()
	suite.publisher = &recordingPublisher{}

	suite.service = placement.NewServiceWithoutMetrics(
		suite.customers,
		suite.products,
		suite.orders,
		suite.outbox,
		logger,
	)

	require.NoError(suite.T(), suite.customers.Create(domain.Customer{ID: "customer-1", Name: "Alice"}))
	require.NoError(suite.T(), suite.products.Create(domain.Product{ID: "p1", Name: "Keyboard", PriceMinor: 500, Quantity: 10}))
	require.NoError(suite.T(), suite.products.Create(domain.Product{ID: "p2", Name: "Mouse", PriceMinor: 300, Quantity: 4}))
}

func (suite *PlaceOrderFlowTestSuite) drainOutbox() {
	worker := outbox.NewWorker(
		suite.outbox,
		suite.publisher,
		outbox.WithRetryBaseDelay(0),
		outbox.WithMaxAttempts(1),
	)
	worker.ProcessOnce(context.Background())
}

func (suite *PlaceOrderFlowTestSuite) TestPlaceOrderPublishesEvent() {
	order, err := suite.service.PlaceOrder(context.Background(), "customer-1", []domain.RequestLine{
		{ProductID: "p1", Qty: 2},
		{ProductID: "p2", Qty: 1},
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(2*500+300), order.AmountMinor)

	suite.drainOutbox()

	published := suite.publisher.messages()
	require.Len(suite.T(), published, 1)
	require.Equal(suite.T(), "order.placed", published[0].EventType)
	require.Equal(suite.T(), order.ID, published[0].AggregateID)

	var payload struct {
		OrderID     string `json:"order_id"`
		CustomerID  string `json:"customer_id"`
		AmountMinor int64  `json:"amount_minor"`
	}
	require.NoError(suite.T(), json.Unmarshal(published[0].Payload, &payload))
	require.Equal(suite.T(), order.ID, payload.OrderID)
	require.Equal(suite.T(), "customer-1", payload.CustomerID)
	require.Equal(suite.T(), order.AmountMinor, payload.AmountMinor)

	// Outbox пуст после успешной публикации.
	pending, err := suite.outbox.PullPending(10)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), pending)
}

func (suite *PlaceOrderFlowTestSuite) TestPlaceOrderReducesStockAndPersists() {
	order, err := suite.service.PlaceOrder(context.Background(), "customer-1", []domain.RequestLine{
		{ProductID: "p1", Qty: 3},
	})
	require.NoError(suite.T(), err)

	products, err := suite.products.FindAllByIDs([]string{"p1"})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int32(7), products[0].Quantity)

	stored, err := suite.orders.Get(order.ID)
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), errsToErr(stored.ValidateInvariants()))

	listed, err := suite.orders.ListByCustomer("customer-1", 0)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), listed, 1)
}

func (suite *PlaceOrderFlowTestSuite) TestRejectedOrderLeavesNoTraces() {
	_, err := suite.service.PlaceOrder(context.Background(), "customer-1", []domain.RequestLine{
		{ProductID: "p2", Qty: 5},
	})
	require.ErrorIs(suite.T(), err, domain.ErrInsufficientStock)

	products, err := suite.products.FindAllByIDs([]string{"p2"})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int32(4), products[0].Quantity)

	listed, err := suite.orders.ListByCustomer("customer-1", 0)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), listed)

	pending, err := suite.outbox.PullPending(10)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), pending)
}

func (suite *PlaceOrderFlowTestSuite) TestRepeatedOrdersDrainStock() {
	lines := []domain.RequestLine{{ProductID: "p2", Qty: 2}}

	_, err := suite.service.PlaceOrder(context.Background(), "customer-1", lines)
	require.NoError(suite.T(), err)
	_, err = suite.service.PlaceOrder(context.Background(), "customer-1", lines)
	require.NoError(suite.T(), err)

	// Третий идентичный запрос упирается в нулевой остаток.
	_, err = suite.service.PlaceOrder(context.Background(), "customer-1", lines)
	require.ErrorIs(suite.T(), err, domain.ErrInsufficientStock)

	listed, err := suite.orders.ListByCustomer("customer-1", 0)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), listed, 2)
}

func TestPlaceOrderFlowTestSuite(t *testing.T) {
	suite.Run(t, new(PlaceOrderFlowTestSuite))
}

func errsToErr(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

// recordingPublisher запоминает опубликованные сообщения.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []domain.OutboxMessage
}

func (p *recordingPublisher) Publish(msg domain.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) messages() []domain.OutboxMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.OutboxMessage(nil), p.msgs...)
}

var _ domain.OutboxPublisher = (*recordingPublisher)(nil)
