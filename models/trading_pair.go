package models

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vidiaspot/tradecore/matching"
	"github.com/vidiaspot/tradecore/models/concerns"
)

var precisionValidator = &concerns.PrecisionValidator{}

// Validation failures reject the order before it reaches the book; the
// caller reports them synchronously, no side effects.
var (
	ErrPairInactive     = errors.New("market.trading_pair.inactive")
	ErrPriceRequired    = errors.New("market.order.missing_price")
	ErrPriceTick        = errors.New("market.order.invalid_price_tick")
	ErrPriceRange       = errors.New("market.order.price_out_of_range")
	ErrQuantityStep     = errors.New("market.order.invalid_quantity_step")
	ErrQuantityRange    = errors.New("market.order.quantity_out_of_range")
	ErrGoodTillRequired = errors.New("market.order.missing_good_till_date")
)

// TradingPair is the tradable pair configuration. Immutable during open
// trading except the IsActive toggle, which stops new admission but not
// cancellation of resting orders.
type TradingPair struct {
	ID               int64           `json:"id" gorm:"primaryKey"`
	Symbol           string          `json:"symbol" gorm:"uniqueIndex" validate:"required"`
	BaseCurrency     string          `json:"base_currency" validate:"required"`
	QuoteCurrency    string          `json:"quote_currency" validate:"required"`
	MinPrice         decimal.Decimal `json:"min_price"`
	MaxPrice         decimal.Decimal `json:"max_price"`
	MinQuantity      decimal.Decimal `json:"min_quantity"`
	MaxQuantity      decimal.Decimal `json:"max_quantity"`
	PriceTickSize    decimal.Decimal `json:"price_tick_size"`
	QuantityStepSize decimal.Decimal `json:"quantity_step_size"`
	MakerFeeRate     decimal.Decimal `json:"maker_fee_rate" gorm:"default:0.0"`
	TakerFeeRate     decimal.Decimal `json:"taker_fee_rate" gorm:"default:0.0"`
	IsActive         bool            `json:"is_active" gorm:"default:true"`
	Position         int32           `json:"position"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (p *TradingPair) ValidatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return ErrPriceRequired
	}

	if !precisionValidator.MultipleOf(price, p.PriceTickSize) {
		return ErrPriceTick
	}

	if p.MinPrice.IsPositive() && price.LessThan(p.MinPrice) {
		return ErrPriceRange
	}

	if p.MaxPrice.IsPositive() && price.GreaterThan(p.MaxPrice) {
		return ErrPriceRange
	}

	return nil
}

func (p *TradingPair) ValidateQuantity(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return ErrQuantityRange
	}

	if !precisionValidator.MultipleOf(quantity, p.QuantityStepSize) {
		return ErrQuantityStep
	}

	if p.MinQuantity.IsPositive() && quantity.LessThan(p.MinQuantity) {
		return ErrQuantityRange
	}

	if p.MaxQuantity.IsPositive() && quantity.GreaterThan(p.MaxQuantity) {
		return ErrQuantityRange
	}

	return nil
}

// ValidateOrder checks the pair constraints an order must satisfy before
// it may enter the book. Violations reject, never coerce.
func (p *TradingPair) ValidateOrder(o *matching.Order) error {
	if !p.IsActive {
		return ErrPairInactive
	}

	if err := p.ValidateQuantity(o.Quantity); err != nil {
		return err
	}

	// A market order carries no limit price; a stop order without one
	// becomes a market order on trigger.
	if o.Type == matching.TypeLimit || o.Price.IsPositive() {
		if err := p.ValidatePrice(o.Price); err != nil {
			return err
		}
	}

	if o.Type == matching.TypeStop {
		if err := p.ValidatePrice(o.StopPrice); err != nil {
			return err
		}
	}

	if o.TimeInForce == matching.GTD && o.GoodTillDate.IsZero() {
		return ErrGoodTillRequired
	}

	return nil
}

func (p TradingPair) RoundPrice(val decimal.Decimal) decimal.Decimal {
	if !p.PriceTickSize.IsPositive() {
		return val
	}

	return val.Div(p.PriceTickSize).Floor().Mul(p.PriceTickSize)
}

// PairRegistry is the in-memory lookup table of tradable pairs. It is
// never mutated during matching; admin toggles go through SetActive.
type PairRegistry struct {
	mu    sync.RWMutex
	pairs map[string]*TradingPair
}

func NewPairRegistry() *PairRegistry {
	return &PairRegistry{
		pairs: make(map[string]*TradingPair),
	}
}

func (r *PairRegistry) Load(db *gorm.DB) error {
	var pairs []*TradingPair
	if err := db.Find(&pairs).Error; err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, pair := range pairs {
		r.pairs[pair.Symbol] = pair
	}

	return nil
}

func (r *PairRegistry) Add(pair *TradingPair) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pairs[pair.Symbol] = pair
}

func (r *PairRegistry) Get(symbol string) (*TradingPair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pair, found := r.pairs[symbol]
	return pair, found
}

func (r *PairRegistry) All() []*TradingPair {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pairs := make([]*TradingPair, 0, len(r.pairs))
	for _, pair := range r.pairs {
		pairs = append(pairs, pair)
	}

	return pairs
}

func (r *PairRegistry) SetActive(symbol string, active bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	pair, found := r.pairs[symbol]
	if !found {
		return false
	}

	pair.IsActive = active
	return true
}
