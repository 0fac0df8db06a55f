package matching

import (
	"github.com/shopspring/decimal"
)

// PriceLevel holds the resting orders at a single price, in arrival order.
// The book's lock serializes all access.
type PriceLevel struct {
	Side   OrderSide
	Price  decimal.Decimal
	Orders []*Order
}

func NewPriceLevel(side OrderSide, price decimal.Decimal) *PriceLevel {
	return &PriceLevel{
		Side:   side,
		Price:  price,
		Orders: make([]*Order, 0),
	}
}

func (p *PriceLevel) Add(order *Order) {
	for _, o := range p.Orders {
		if o.ID == order.ID {
			return
		}
	}

	p.Orders = append(p.Orders, order)
}

// Top returns the earliest arrival at this level.
func (p *PriceLevel) Top() *Order {
	if p.Empty() {
		return nil
	}

	return p.Orders[0]
}

func (p *PriceLevel) Empty() bool {
	return len(p.Orders) == 0
}

func (p *PriceLevel) Size() int {
	return len(p.Orders)
}

func (p *PriceLevel) Total() decimal.Decimal {
	total := decimal.Zero

	for _, order := range p.Orders {
		total = total.Add(order.UnfilledQuantity())
	}

	return total
}

func (p *PriceLevel) Remove(order *Order) {
	for index, o := range p.Orders {
		if o.ID == order.ID {
			p.Orders = append(p.Orders[:index], p.Orders[index+1:]...)
			return
		}
	}
}
