package engines

import (
	"encoding/json"
	"fmt"

	"github.com/vidiaspot/tradecore/config"
	"github.com/vidiaspot/tradecore/matching"
	"github.com/vidiaspot/tradecore/models"
	"github.com/vidiaspot/tradecore/types"
)

type OrderProcessorPayload struct {
	Action  types.PayloadAction  `json:"action"`
	OrderID uint64               `json:"order_id"`
	Status  matching.OrderStatus `json:"status,omitempty"`
}

// OrderProcessorWorker is the persistence side of the order flow. It
// validates and admits new orders into the matching queue and folds
// engine outcomes back into the rows.
type OrderProcessorWorker struct {
	Registry *models.PairRegistry
}

func NewOrderProcessorWorker() *OrderProcessorWorker {
	worker := &OrderProcessorWorker{
		Registry: models.NewPairRegistry(),
	}

	if err := worker.Registry.Load(config.DataBase); err != nil {
		config.Logger.Errorf("load trading pairs: %v", err)
	}

	return worker
}

func (w *OrderProcessorWorker) Process(payload []byte) error {
	var message OrderProcessorPayload
	if err := json.Unmarshal(payload, &message); err != nil {
		return err
	}

	switch message.Action {
	case types.ActionSubmit:
		return w.SubmitOrder(message.OrderID)
	case types.ActionCancel:
		return w.CancelOrder(message.OrderID)
	case types.ActionUpdate:
		return w.UpdateOrder(message.OrderID, message.Status)
	default:
		return fmt.Errorf("order_processor: unknown action %q", message.Action)
	}
}

// SubmitOrder validates a fresh order against its pair and hands it to
// the matching queue. Validation failures reject the row; they are not
// errors to the broker.
func (w *OrderProcessorWorker) SubmitOrder(id uint64) error {
	order := &models.Order{}
	if err := config.DataBase.First(order, "id = ?", id).Error; err != nil {
		return err
	}

	if order.IsTerminal() {
		return nil
	}

	pair, found := w.Registry.Get(order.Symbol)
	if !found {
		return w.reject(order)
	}

	if err := pair.ValidateOrder(order.ToMatchingOrder()); err != nil {
		config.Logger.Infof("order %d rejected: %v", order.ID, err)
		return w.reject(order)
	}

	order.Status = matching.StatusOpen
	if err := config.DataBase.Save(order).Error; err != nil {
		return err
	}

	payload, err := json.Marshal(MatchingPayload{
		Action: types.ActionSubmit,
		Order:  order.ToMatchingOrder(),
	})
	if err != nil {
		return err
	}

	if err := enqueue("matching", payload); err != nil {
		return err
	}

	w.publishEvent(order, "created")

	return nil
}

func (w *OrderProcessorWorker) CancelOrder(id uint64) error {
	order := &models.Order{}
	if err := config.DataBase.First(order, "id = ?", id).Error; err != nil {
		return err
	}

	if order.IsTerminal() {
		return nil
	}

	payload, err := json.Marshal(MatchingPayload{
		Action: types.ActionCancel,
		Order:  order.ToMatchingOrder(),
	})
	if err != nil {
		return err
	}

	return enqueue("matching", payload)
}

// UpdateOrder applies a terminal status decided by the engine. Filled
// rows stay filled; the executor owns fill accounting. The write is a
// status-only guarded update: the executor may strike the same row
// concurrently, and a full-row save from a stale read would revert its
// fills.
func (w *OrderProcessorWorker) UpdateOrder(id uint64, status matching.OrderStatus) error {
	switch status {
	case matching.StatusCancelled, matching.StatusExpired, matching.StatusRejected:
	default:
		return fmt.Errorf("order_processor: refusing status %q for order %d", status, id)
	}

	result := config.DataBase.Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, []matching.OrderStatus{
			matching.StatusOpen,
			matching.StatusPartiallyFilled,
		}).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Already terminal (or gone); the row stands.
		return nil
	}

	order := &models.Order{}
	if err := config.DataBase.First(order, "id = ?", id).Error; err != nil {
		return err
	}

	w.publishEvent(order, string(status))

	return nil
}

func (w *OrderProcessorWorker) reject(order *models.Order) error {
	order.Status = matching.StatusRejected
	if err := config.DataBase.Save(order).Error; err != nil {
		return err
	}

	w.publishEvent(order, "rejected")

	return nil
}

func (w *OrderProcessorWorker) publishEvent(order *models.Order, event string) {
	payload, err := json.Marshal(order)
	if err != nil {
		return
	}

	if err := enqueueEvent("order", order.UUID.String(), event, payload); err != nil {
		config.Logger.Errorf("publish order event %s: %v", event, err)
	}
}
