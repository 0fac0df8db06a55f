package engines

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vidiaspot/tradecore/config"
	"github.com/vidiaspot/tradecore/matching"
	"github.com/vidiaspot/tradecore/models"
	"github.com/vidiaspot/tradecore/types"
)

type TradeExecutorWorker struct {
	Registry *models.PairRegistry
}

type TradeExecutor struct {
	TradePayload *matching.Trade
	MakerOrder   *models.Order
	TakerOrder   *models.Order
	Pair         *models.TradingPair
}

func NewTradeExecutorWorker() *TradeExecutorWorker {
	worker := &TradeExecutorWorker{
		Registry: models.NewPairRegistry(),
	}

	if err := worker.Registry.Load(config.DataBase); err != nil {
		config.Logger.Errorf("load trading pairs: %v", err)
	}

	return worker
}

// Process appends one execution to the trade ledger and strikes both
// orders inside a single transaction. The engine already matched; this
// is where the match becomes durable.
func (w *TradeExecutorWorker) Process(payload []byte) error {
	executor := &TradeExecutor{
		MakerOrder: &models.Order{},
		TakerOrder: &models.Order{},
	}

	if err := json.Unmarshal(payload, &executor.TradePayload); err != nil {
		return err
	}

	pair, found := w.Registry.Get(executor.TradePayload.Symbol)
	if !found {
		return fmt.Errorf("trade_executor: unknown pair %s", executor.TradePayload.Symbol)
	}
	executor.Pair = pair

	trade, err := executor.CreateTradeAndStrikeOrders()
	if err != nil {
		return err
	}

	executor.PublishTrade(trade)

	return nil
}

func (t *TradeExecutor) ValidateTrade() error {
	var askOrder, bidOrder *models.Order

	if t.MakerOrder.Side == matching.SideSell {
		askOrder, bidOrder = t.MakerOrder, t.TakerOrder
	} else {
		askOrder, bidOrder = t.TakerOrder, t.MakerOrder
	}

	if askOrder.Type == matching.TypeLimit && askOrder.Price.Decimal.GreaterThan(t.TradePayload.Price) {
		return fmt.Errorf("ask price exceeds strike price")
	}
	if bidOrder.Type == matching.TypeLimit && bidOrder.Price.Decimal.LessThan(t.TradePayload.Price) {
		return fmt.Errorf("bid price is less than strike price")
	}
	if t.MakerOrder.IsTerminal() {
		return fmt.Errorf("maker order %d already terminal (%s)", t.MakerOrder.ID, t.MakerOrder.Status)
	}
	if t.TakerOrder.IsTerminal() {
		return fmt.Errorf("taker order %d already terminal (%s)", t.TakerOrder.ID, t.TakerOrder.Status)
	}
	if !t.TradePayload.Total.IsPositive() {
		return fmt.Errorf("non positive total")
	}
	if decimal.Min(t.MakerOrder.UnfilledQuantity(), t.TakerOrder.UnfilledQuantity()).LessThan(t.TradePayload.Quantity) {
		return fmt.Errorf("fill exceeds unfilled quantity")
	}

	return nil
}

func (t *TradeExecutor) CreateTradeAndStrikeOrders() (*models.Trade, error) {
	var trade *models.Trade

	err := config.DataBase.Transaction(func(tx *gorm.DB) error {
		tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", t.TradePayload.MakerOrderID).First(t.MakerOrder)
		tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", t.TradePayload.TakerOrderID).First(t.TakerOrder)

		if err := t.ValidateTrade(); err != nil {
			return err
		}

		makerFee := t.TradePayload.Total.Mul(t.Pair.MakerFeeRate)
		takerFee := t.TradePayload.Total.Mul(t.Pair.TakerFeeRate)

		trade = &models.Trade{
			Symbol:       t.TradePayload.Symbol,
			Price:        t.TradePayload.Price,
			Quantity:     t.TradePayload.Quantity,
			Total:        t.TradePayload.Total,
			MakerOrderID: t.TradePayload.MakerOrderID,
			TakerOrderID: t.TradePayload.TakerOrderID,
			MakerID:      t.TradePayload.MakerID,
			TakerID:      t.TradePayload.TakerID,
			TakerSide:    t.TradePayload.TakerSide,
			Fee:          takerFee,
			FeeCurrency:  t.Pair.QuoteCurrency,
			FeePayer:     types.TakerType(t.TradePayload.TakerSide),
			ExecutedAt:   t.TradePayload.CreatedAt,
		}

		if err := tx.Create(trade).Error; err != nil {
			return err
		}

		t.MakerOrder.ApplyFill(t.TradePayload.Price, t.TradePayload.Quantity, makerFee)
		if err := tx.Save(t.MakerOrder).Error; err != nil {
			return err
		}

		t.TakerOrder.ApplyFill(t.TradePayload.Price, t.TradePayload.Quantity, takerFee)
		return tx.Save(t.TakerOrder).Error
	})
	if err != nil {
		return nil, err
	}

	return trade, nil
}

func (t *TradeExecutor) PublishTrade(trade *models.Trade) {
	trade.WriteToInflux()

	payload, err := json.Marshal(trade)
	if err != nil {
		return
	}

	if err := enqueueEvent("trade", trade.Symbol, "created", payload); err != nil {
		config.Logger.Errorf("publish trade event: %v", err)
	}

	// Both struck rows surface the match on the events exchange.
	for _, order := range []*models.Order{t.MakerOrder, t.TakerOrder} {
		body, err := json.Marshal(order)
		if err != nil {
			continue
		}

		if err := enqueueEvent("order", order.UUID.String(), "matched", body); err != nil {
			config.Logger.Errorf("publish order event matched: %v", err)
		}
	}
}
