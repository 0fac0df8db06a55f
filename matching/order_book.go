package matching

import (
	"time"

	rbt "github.com/emirpasic/gods/trees/redblacktree"
	"github.com/shopspring/decimal"

	"github.com/vidiaspot/tradecore/config"
)

// PositionTracker is the external position bookkeeping collaborator. The
// book only asks it whether a reduce-only order shrinks the member's net
// position; it never updates positions itself.
type PositionTracker interface {
	Reduces(o *Order) bool
}

// MatchResult is the outcome of one submission: the taker's final state,
// the executions in the exact sequence the algorithm consumed makers, and
// any good-till-date orders swept on the way.
type MatchResult struct {
	Order   *Order
	Trades  []*Trade
	Expired []*Order
}

// OrderBook is the per-pair book: two price ladders of FIFO levels plus
// the parked stop orders. All mutation goes through the owning Engine's
// lock.
type OrderBook struct {
	Symbol      string
	MarketPrice decimal.Decimal

	Bids     *rbt.Tree
	Asks     *rbt.Tree
	StopBids *rbt.Tree
	StopAsks *rbt.Tree

	activeOrders map[uint64]*Order
	activeStops  map[uint64]*Order

	pendingOrdersQueue []*Order

	tracker PositionTracker
}

// bidComparator keeps the best (highest) bid at the tree's right edge.
func bidComparator(a, b interface{}) int {
	return a.(decimal.Decimal).Cmp(b.(decimal.Decimal))
}

// askComparator keeps the best (lowest) ask at the tree's right edge.
func askComparator(a, b interface{}) int {
	return b.(decimal.Decimal).Cmp(a.(decimal.Decimal))
}

func NewOrderBook(symbol string, marketPrice decimal.Decimal, tracker PositionTracker) *OrderBook {
	return &OrderBook{
		Symbol:             symbol,
		MarketPrice:        marketPrice,
		Bids:               rbt.NewWith(bidComparator),
		Asks:               rbt.NewWith(askComparator),
		StopBids:           rbt.NewWith(StopComparator),
		StopAsks:           rbt.NewWith(StopComparator),
		activeOrders:       make(map[uint64]*Order, 1024),
		activeStops:        make(map[uint64]*Order, 64),
		pendingOrdersQueue: make([]*Order, 0, 64),
		tracker:            tracker,
	}
}

// Add runs one submission through the book. Validation against the trading
// pair's constraints is a precondition; the book only decides matching,
// time-in-force and stop semantics.
func (ob *OrderBook) Add(o *Order) *MatchResult {
	now := time.Now()
	result := &MatchResult{Order: o, Trades: []*Trade{}, Expired: []*Order{}}

	o.Status = StatusOpen

	if o.ReduceOnly && (ob.tracker == nil || !ob.tracker.Reduces(o)) {
		o.Status = StatusRejected
		return result
	}

	if o.Type == TypeStop {
		ob.addStopOrder(o, result, now)
	} else {
		ob.process(o, result, now)
	}

	ob.drainPending(result, now)

	return result
}

func (ob *OrderBook) addStopOrder(o *Order, result *MatchResult, now time.Time) {
	if !o.StopPrice.IsPositive() {
		o.Status = StatusRejected
		return
	}

	if o.StopTriggered(ob.MarketPrice) {
		o.Triggered()
		ob.process(o, result, now)
		return
	}

	book := ob.StopAsks
	if o.IsBuy() {
		book = ob.StopBids
	}

	if _, found := book.Get(o.Key()); found {
		return
	}

	book.Put(o.Key(), o)
	ob.activeStops[o.ID] = o

	config.Logger.Debugf("[matching] parked stop order %d at %s, side %s", o.ID, o.StopPrice, o.Side)
}

func (ob *OrderBook) process(o *Order, result *MatchResult, now time.Time) {
	// Expiry is checked before any match attempt; an already expired
	// order must never execute.
	if o.Expired(now) {
		o.Status = StatusExpired
		result.Expired = append(result.Expired, o)
		return
	}

	if o.PostOnly {
		if o.Type != TypeLimit || ob.wouldCross(o, now) {
			o.Status = StatusRejected
			return
		}
	}

	if o.TimeInForce == FOK {
		// Dry run first: a fill-or-kill order must never leave the book
		// partially matched after a reject.
		if ob.fillableQuantity(o, now).LessThan(o.Quantity) {
			o.Status = StatusRejected
			return
		}
	}

	ob.match(o, result, now)

	if o.Filled() {
		return
	}

	switch {
	case o.Type == TypeMarket, o.TimeInForce == IOC:
		o.Status = StatusCancelled

	default:
		ob.rest(o)
	}
}

func (ob *OrderBook) match(taker *Order, result *MatchResult, now time.Time) {
	offers := ob.Asks
	if !taker.IsBuy() {
		offers = ob.Bids
	}

	for taker.UnfilledQuantity().IsPositive() {
		best := offers.Right()
		if best == nil {
			break
		}

		level := best.Value.(*PriceLevel)
		maker := level.Top()

		if maker == nil {
			offers.Remove(best.Key)
			continue
		}

		// Expiry is checked before any match attempt against the order.
		if maker.Expired(now) {
			ob.expire(maker, level, offers, result)
			continue
		}

		if !taker.IsCrossed(level.Price) {
			break
		}

		quantity := decimal.Min(taker.UnfilledQuantity(), maker.UnfilledQuantity())

		taker.Fill(quantity)
		maker.Fill(quantity)

		trade := &Trade{
			Symbol:       ob.Symbol,
			Price:        maker.Price,
			Quantity:     quantity,
			Total:        maker.Price.Mul(quantity),
			MakerOrderID: maker.ID,
			TakerOrderID: taker.ID,
			MakerID:      maker.MemberID,
			TakerID:      taker.MemberID,
			TakerSide:    taker.Side,
			CreatedAt:    now,
		}
		result.Trades = append(result.Trades, trade)

		config.Logger.Debugf("[matching] trade %s %s @ %s, maker %d taker %d", ob.Symbol, quantity, maker.Price, maker.ID, taker.ID)

		if maker.Filled() {
			level.Remove(maker)
			delete(ob.activeOrders, maker.ID)
			if level.Empty() {
				offers.Remove(level.Price)
			}
		}

		ob.setMarketPrice(maker.Price)
	}
}

func (ob *OrderBook) expire(o *Order, level *PriceLevel, ladder *rbt.Tree, result *MatchResult) {
	level.Remove(o)
	delete(ob.activeOrders, o.ID)
	if level.Empty() {
		ladder.Remove(level.Price)
	}

	o.Status = StatusExpired
	result.Expired = append(result.Expired, o)

	config.Logger.Debugf("[matching] order %d expired at %s", o.ID, o.GoodTillDate)
}

// fillableQuantity walks the opposing ladder without mutating it and
// reports how much of the order could fill right now.
func (ob *OrderBook) fillableQuantity(o *Order, now time.Time) decimal.Decimal {
	offers := ob.Asks
	if !o.IsBuy() {
		offers = ob.Bids
	}

	available := decimal.Zero

	it := offers.Iterator()
	for it.End(); it.Prev(); {
		level := it.Value().(*PriceLevel)

		if !o.IsCrossed(level.Price) {
			break
		}

		for _, maker := range level.Orders {
			if maker.Expired(now) {
				continue
			}

			available = available.Add(maker.UnfilledQuantity())
			if available.GreaterThanOrEqual(o.Quantity) {
				return available
			}
		}
	}

	return available
}

func (ob *OrderBook) wouldCross(o *Order, now time.Time) bool {
	offers := ob.Asks
	if !o.IsBuy() {
		offers = ob.Bids
	}

	it := offers.Iterator()
	for it.End(); it.Prev(); {
		level := it.Value().(*PriceLevel)

		if !o.IsCrossed(level.Price) {
			return false
		}

		for _, maker := range level.Orders {
			if !maker.Expired(now) {
				return true
			}
		}
	}

	return false
}

func (ob *OrderBook) rest(o *Order) {
	ladder := ob.Bids
	if !o.IsBuy() {
		ladder = ob.Asks
	}

	var level *PriceLevel
	if node, found := ladder.Get(o.Price); found {
		level = node.(*PriceLevel)
	} else {
		level = NewPriceLevel(o.Side, o.Price)
		ladder.Put(o.Price, level)
	}

	level.Add(o)
	ob.activeOrders[o.ID] = o
}

func (ob *OrderBook) setMarketPrice(newPrice decimal.Decimal) {
	previousPrice := ob.MarketPrice
	ob.MarketPrice = newPrice

	// The book's first trade has no previous price to compare against;
	// stops parked before it arm against the new price on both sides.
	firstPrint := previousPrice.IsZero()

	if firstPrint || newPrice.GreaterThan(previousPrice) {
		// price went up, buy stops at or below the new price trigger
		for {
			best := ob.StopBids.Right()
			if best == nil {
				break
			}

			bestOrder := best.Value.(*Order)
			if bestOrder.StopPrice.GreaterThan(newPrice) {
				break
			}

			ob.StopBids.Remove(best.Key)
			delete(ob.activeStops, bestOrder.ID)
			ob.pendingOrdersQueue = append(ob.pendingOrdersQueue, bestOrder)

			config.Logger.Debugf("[matching] bid order %d with stop price %s enqueued", bestOrder.ID, bestOrder.StopPrice)
		}
	}

	if firstPrint || newPrice.LessThan(previousPrice) {
		// price went down, sell stops at or above the new price trigger
		for {
			best := ob.StopAsks.Right()
			if best == nil {
				break
			}

			bestOrder := best.Value.(*Order)
			if bestOrder.StopPrice.LessThan(newPrice) {
				break
			}

			ob.StopAsks.Remove(best.Key)
			delete(ob.activeStops, bestOrder.ID)
			ob.pendingOrdersQueue = append(ob.pendingOrdersQueue, bestOrder)

			config.Logger.Debugf("[matching] ask order %d with stop price %s enqueued", bestOrder.ID, bestOrder.StopPrice)
		}
	}
}

// drainPending resubmits stop orders triggered during this submission.
// Their executions ride along in the same result, in trigger order.
func (ob *OrderBook) drainPending(result *MatchResult, now time.Time) {
	for len(ob.pendingOrdersQueue) > 0 {
		pending := ob.pendingOrdersQueue[0]
		ob.pendingOrdersQueue = ob.pendingOrdersQueue[1:]

		pending.Triggered()

		sub := &MatchResult{Order: pending, Trades: []*Trade{}, Expired: []*Order{}}
		ob.process(pending, sub, now)

		result.Trades = append(result.Trades, sub.Trades...)
		result.Expired = append(result.Expired, sub.Expired...)
	}
}

// Remove cancels the unfilled remainder of a resting or parked order.
// Recorded executions are untouched.
func (ob *OrderBook) Remove(id uint64) *Order {
	if o, found := ob.activeOrders[id]; found {
		ladder := ob.Bids
		if !o.IsBuy() {
			ladder = ob.Asks
		}

		if node, ok := ladder.Get(o.Price); ok {
			level := node.(*PriceLevel)
			level.Remove(o)
			if level.Empty() {
				ladder.Remove(level.Price)
			}
		}

		delete(ob.activeOrders, id)
		o.Status = StatusCancelled

		return o
	}

	if o, found := ob.activeStops[id]; found {
		book := ob.StopAsks
		if o.IsBuy() {
			book = ob.StopBids
		}

		book.Remove(o.Key())
		delete(ob.activeStops, id)
		o.Status = StatusCancelled

		return o
	}

	return nil
}

// SweepExpired removes every good-till-date order whose deadline passed.
func (ob *OrderBook) SweepExpired(now time.Time) []*Order {
	expired := make([]*Order, 0)

	for _, o := range ob.activeOrders {
		if o.Expired(now) {
			expired = append(expired, o)
		}
	}
	for _, o := range ob.activeStops {
		if o.Expired(now) {
			expired = append(expired, o)
		}
	}

	for _, o := range expired {
		ob.Remove(o.ID)
		o.Status = StatusExpired
	}

	return expired
}

func (ob *OrderBook) Depth(side OrderSide) [][]decimal.Decimal {
	ladder := ob.Bids
	if side == SideSell {
		ladder = ob.Asks
	}

	depth := make([][]decimal.Decimal, 0, ladder.Size())

	it := ladder.Iterator()
	for it.End(); it.Prev(); {
		level := it.Value().(*PriceLevel)
		depth = append(depth, []decimal.Decimal{level.Price, level.Total()})
	}

	return depth
}
