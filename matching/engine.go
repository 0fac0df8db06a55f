package matching

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var ErrOrderNotFound = errors.New("matching: order not found")

// Engine serializes all book mutation for one trading pair. Submissions
// for different pairs run on independent engines in parallel.
type Engine struct {
	matchingMutex sync.Mutex
	Symbol        string
	OrderBook     *OrderBook
	Initialized   bool
}

func NewEngine(symbol string, marketPrice decimal.Decimal, tracker PositionTracker) *Engine {
	return &Engine{
		Symbol:      symbol,
		OrderBook:   NewOrderBook(symbol, marketPrice, tracker),
		Initialized: false,
	}
}

func (e *Engine) Submit(o *Order) *MatchResult {
	e.matchingMutex.Lock()
	defer e.matchingMutex.Unlock()

	return e.OrderBook.Add(o)
}

func (e *Engine) Cancel(id uint64) (*Order, error) {
	e.matchingMutex.Lock()
	defer e.matchingMutex.Unlock()

	o := e.OrderBook.Remove(id)
	if o == nil {
		return nil, ErrOrderNotFound
	}

	return o, nil
}

func (e *Engine) SweepExpired(now time.Time) []*Order {
	e.matchingMutex.Lock()
	defer e.matchingMutex.Unlock()

	return e.OrderBook.SweepExpired(now)
}

func (e *Engine) MarketPrice() decimal.Decimal {
	e.matchingMutex.Lock()
	defer e.matchingMutex.Unlock()

	return e.OrderBook.MarketPrice
}

func (e *Engine) Depth() (bids, asks [][]decimal.Decimal) {
	e.matchingMutex.Lock()
	defer e.matchingMutex.Unlock()

	return e.OrderBook.Depth(SideBuy), e.OrderBook.Depth(SideSell)
}
