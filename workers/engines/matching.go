package engines

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidiaspot/tradecore/config"
	"github.com/vidiaspot/tradecore/matching"
	"github.com/vidiaspot/tradecore/models"
	"github.com/vidiaspot/tradecore/types"
)

type MatchingPayload struct {
	Action types.PayloadAction `json:"action"`
	Order  *matching.Order     `json:"order,omitempty"`
	Symbol string              `json:"symbol,omitempty"`
}

// MatchingWorker owns one engine per active trading pair. Messages for
// different pairs are matched independently; within a pair the engine
// mutex keeps submissions single file.
type MatchingWorker struct {
	Engines  map[string]*matching.Engine
	Registry *models.PairRegistry
	Tracker  matching.PositionTracker
}

func NewMatchingWorker(tracker matching.PositionTracker) *MatchingWorker {
	worker := &MatchingWorker{
		Engines:  make(map[string]*matching.Engine),
		Registry: models.NewPairRegistry(),
		Tracker:  tracker,
	}

	if err := worker.Registry.Load(config.DataBase); err != nil {
		config.Logger.Errorf("load trading pairs: %v", err)
	}

	worker.Reload("all")

	return worker
}

func (w *MatchingWorker) Process(payload []byte) error {
	var message MatchingPayload
	if err := json.Unmarshal(payload, &message); err != nil {
		return err
	}

	switch message.Action {
	case types.ActionSubmit:
		return w.SubmitOrder(message.Order)
	case types.ActionCancel:
		return w.CancelOrder(message.Order)
	case types.ActionReload:
		w.Reload(message.Symbol)
		return nil
	case types.ActionSweep:
		w.SweepExpired()
		return nil
	default:
		return fmt.Errorf("matching: unknown action %q", message.Action)
	}
}

func (w *MatchingWorker) SubmitOrder(order *matching.Order) error {
	pair, found := w.Registry.Get(order.Symbol)
	if !found {
		return fmt.Errorf("matching: unknown pair %s", order.Symbol)
	}

	engine, found := w.Engines[order.Symbol]
	if !found {
		return fmt.Errorf("matching: no engine for %s", order.Symbol)
	}

	if err := pair.ValidateOrder(order); err != nil {
		config.Logger.Infof("order %d rejected: %v", order.ID, err)
		w.publishStatus(order.ID, matching.StatusRejected)
		return nil
	}

	result := engine.Submit(order)
	w.publishResult(order.Symbol, result)

	return nil
}

func (w *MatchingWorker) CancelOrder(order *matching.Order) error {
	engine, found := w.Engines[order.Symbol]
	if !found {
		return fmt.Errorf("matching: no engine for %s", order.Symbol)
	}

	cancelled, err := engine.Cancel(order.ID)
	if err != nil {
		// Already gone; cancellation is idempotent from the caller's side.
		return nil
	}

	w.publishStatus(cancelled.ID, matching.StatusCancelled)
	w.publishDepth(order.Symbol, engine)

	return nil
}

// SweepExpired expires due GTD orders on every engine without waiting
// for a crossing order to touch their price level.
func (w *MatchingWorker) SweepExpired() {
	now := time.Now()

	for symbol, engine := range w.Engines {
		expired := engine.SweepExpired(now)
		for _, order := range expired {
			w.publishStatus(order.ID, matching.StatusExpired)
		}

		if len(expired) > 0 {
			w.publishDepth(symbol, engine)
		}
	}
}

func (w *MatchingWorker) Reload(symbol string) {
	if symbol == "all" {
		for _, pair := range w.Registry.All() {
			if pair.IsActive {
				w.InitializeEngine(pair.Symbol)
			}
		}
		config.Logger.Info("all engines reloaded")
		return
	}

	w.InitializeEngine(symbol)
}

func (w *MatchingWorker) InitializeEngine(symbol string) {
	engine := matching.NewEngine(symbol, lastTradePrice(symbol), w.Tracker)
	w.Engines[symbol] = engine
	w.LoadOrders(symbol)
	engine.Initialized = true

	config.Logger.Infof("%s engine reloaded", symbol)
}

// LoadOrders replays the resting orders so the book survives restarts.
// Replayed submissions may rematch; the executor dedupes on fills.
func (w *MatchingWorker) LoadOrders(symbol string) {
	var orders []models.Order

	config.DataBase.
		Where("symbol = ? AND status IN ?", symbol, []matching.OrderStatus{matching.StatusOpen, matching.StatusPartiallyFilled}).
		Order("id asc").
		Find(&orders)

	for i := range orders {
		w.SubmitOrder(orders[i].ToMatchingOrder())
	}
}

func lastTradePrice(symbol string) decimal.Decimal {
	trade := &models.Trade{}

	result := config.DataBase.Where("symbol = ?", symbol).Order("id desc").First(trade)
	if result.Error != nil {
		return decimal.Zero
	}

	return trade.Price
}

func (w *MatchingWorker) publishResult(symbol string, result *matching.MatchResult) {
	for _, trade := range result.Trades {
		payload, err := json.Marshal(trade)
		if err != nil {
			continue
		}

		if err := enqueue("trade_executor", payload); err != nil {
			config.Logger.Errorf("enqueue trade: %v", err)
		}
	}

	for _, order := range result.Expired {
		w.publishStatus(order.ID, matching.StatusExpired)
	}

	switch result.Order.Status {
	case matching.StatusCancelled, matching.StatusExpired, matching.StatusRejected:
		w.publishStatus(result.Order.ID, result.Order.Status)
	}

	if engine, found := w.Engines[symbol]; found {
		w.publishDepth(symbol, engine)
	}
}

func (w *MatchingWorker) publishStatus(orderID uint64, status matching.OrderStatus) {
	payload, err := json.Marshal(OrderProcessorPayload{
		Action:  types.ActionUpdate,
		OrderID: orderID,
		Status:  status,
	})
	if err != nil {
		return
	}

	if err := enqueue("order_processor", payload); err != nil {
		config.Logger.Errorf("enqueue order status: %v", err)
	}
}

func (w *MatchingWorker) publishDepth(symbol string, engine *matching.Engine) {
	bids, asks := engine.Depth()

	payload, err := json.Marshal(DepthPayload{
		Symbol: symbol,
		Bids:   bids,
		Asks:   asks,
	})
	if err != nil {
		return
	}

	if err := enqueue("depth_cache", payload); err != nil {
		config.Logger.Errorf("enqueue depth: %v", err)
	}
}
