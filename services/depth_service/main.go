package depth_service

import (
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"

	"github.com/vidiaspot/tradecore/config"
	"github.com/vidiaspot/tradecore/types"
)

// DepthService is the cached order book snapshot for one pair.
type DepthService struct {
	Symbol   string
	Bids     [][]decimal.Decimal
	Asks     [][]decimal.Decimal
	Sequence uint64
}

func Key(symbol string) string {
	return "tradecore:" + symbol + ":depth"
}

func sequenceKey(symbol string) string {
	return "tradecore:" + symbol + ":depth:sequence"
}

func FromSnapshot(symbol string, bids, asks [][]decimal.Decimal) *DepthService {
	return &DepthService{
		Symbol: symbol,
		Bids:   bids,
		Asks:   asks,
	}
}

// Fetch reads the cached snapshot back; readers get the book without
// touching the engine.
func Fetch(symbol string) *DepthService {
	depth := &DepthService{Symbol: symbol}

	var cached types.Depth
	if err := config.Redis.GetKey(Key(symbol), &cached); err != nil {
		return depth
	}

	for _, row := range cached.Bids {
		price, _ := decimal.NewFromString(row[0])
		quantity, _ := decimal.NewFromString(row[1])
		depth.Bids = append(depth.Bids, []decimal.Decimal{price, quantity})
	}
	for _, row := range cached.Asks {
		price, _ := decimal.NewFromString(row[0])
		quantity, _ := decimal.NewFromString(row[1])
		depth.Asks = append(depth.Asks, []decimal.Decimal{price, quantity})
	}

	config.Redis.GetKey(sequenceKey(symbol), &depth.Sequence)

	return depth
}

func (d *DepthService) ToJSON() types.Depth {
	depth := types.Depth{Sequence: d.Sequence}

	for _, row := range d.Bids {
		depth.Bids = append(depth.Bids, []string{row[0].String(), row[1].String()})
	}
	for _, row := range d.Asks {
		depth.Asks = append(depth.Asks, []string{row[0].String(), row[1].String()})
	}

	return depth
}

func (d *DepthService) BumpSequence() error {
	var sequence uint64

	config.Redis.GetKey(sequenceKey(d.Symbol), &sequence)

	return config.Redis.SetKey(sequenceKey(d.Symbol), sequence+1, redis.KeepTTL)
}
