package engines

import (
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"

	"github.com/vidiaspot/tradecore/config"
	"github.com/vidiaspot/tradecore/services/depth_service"
)

type DepthPayload struct {
	Symbol string              `json:"symbol"`
	Bids   [][]decimal.Decimal `json:"bids"`
	Asks   [][]decimal.Decimal `json:"asks"`
}

// DepthCacheWorker mirrors each engine's book snapshot into redis so
// readers never touch the engines.
type DepthCacheWorker struct {
}

func NewDepthCacheWorker() *DepthCacheWorker {
	return &DepthCacheWorker{}
}

func (w *DepthCacheWorker) Process(payload []byte) error {
	var message DepthPayload
	if err := json.Unmarshal(payload, &message); err != nil {
		return err
	}

	depth := depth_service.FromSnapshot(message.Symbol, message.Bids, message.Asks)

	if err := config.Redis.SetKey(depth_service.Key(message.Symbol), depth.ToJSON(), redis.KeepTTL); err != nil {
		config.Logger.Errorf("cache depth for %s: %v", message.Symbol, err)
		return err
	}

	return depth.BumpSequence()
}
