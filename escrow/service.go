package escrow

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vidiaspot/tradecore/config"
	"github.com/vidiaspot/tradecore/models"
	"github.com/vidiaspot/tradecore/types"
)

// Service handles the peer-to-peer offer flow: listing, matching a
// buyer against an offer, and tying the resulting trade to an escrow.
type Service struct {
	db      *gorm.DB
	cfg     config.TradingConfig
	machine *Machine
}

func NewService(db *gorm.DB, cfg config.TradingConfig, machine *Machine) *Service {
	return &Service{db: db, cfg: cfg, machine: machine}
}

func tradeReference() string {
	buf := make([]byte, 8)
	rand.Read(buf)

	return "P2P-" + strings.ToUpper(hex.EncodeToString(buf))
}

func escrowAddress(currency string) string {
	buf := make([]byte, 16)
	rand.Read(buf)

	return fmt.Sprintf("escrow_%s_%s", strings.ToLower(currency), hex.EncodeToString(buf))
}

func (s *Service) currency(id string, kind models.CurrencyType) (*models.Currency, error) {
	currency := &models.Currency{}

	err := s.db.First(currency, "id = ? AND type = ?", strings.ToLower(id), kind).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrCurrency
	}
	if err != nil {
		return nil, err
	}

	return currency, nil
}

// CreateOrder lists a new peer-to-peer offer. Both legs must be known
// currencies; the fiat totals are rounded to the fiat leg's precision.
func (s *Service) CreateOrder(sellerID int64, side types.TakerType, cryptoCurrency, fiatCurrency string, amount, pricePerUnit decimal.Decimal, paymentMethod string) (*models.P2pCryptoOrder, error) {
	if amount.LessThan(s.cfg.MinEscrowAmount) {
		return nil, ErrAmountTooSmall
	}
	if !pricePerUnit.IsPositive() {
		return nil, ErrInvalidPrice
	}

	if _, err := s.currency(cryptoCurrency, models.TypeCoin); err != nil {
		return nil, err
	}
	fiat, err := s.currency(fiatCurrency, models.TypeFiat)
	if err != nil {
		return nil, err
	}

	total := amount.Mul(pricePerUnit).Round(int32(fiat.Precision))
	order := &models.P2pCryptoOrder{
		SellerID:       sellerID,
		CryptoCurrency: strings.ToLower(cryptoCurrency),
		FiatCurrency:   strings.ToLower(fiatCurrency),
		Type:           side,
		Amount:         amount,
		PricePerUnit:   pricePerUnit,
		TotalAmount:    total,
		FeeAmount:      total.Mul(s.cfg.P2pFeeRate).Round(int32(fiat.Precision)),
		PaymentMethod:  paymentMethod,
		Status:         models.P2pOpen,
		TradeReference: tradeReference(),
	}

	if err := s.db.Create(order).Error; err != nil {
		return nil, err
	}

	return order, nil
}

// MatchOrder pairs a buyer with an open offer and opens the escrow for
// it in one transaction. The guarded update makes two concurrent
// buyers race safely; the loser gets ErrOrderNotOpen.
func (s *Service) MatchOrder(ctx context.Context, orderID uint64, buyerID int64) (*models.Escrow, error) {
	order := &models.P2pCryptoOrder{}
	if err := s.db.First(order, "id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}

		return nil, err
	}

	if buyerID == order.SellerID {
		return nil, ErrSelfTrade
	}

	// The escrow holds the buyer's payment, so it is denominated in the
	// fiat leg at the offer's total.
	escrow := &models.Escrow{
		P2pOrderID:    order.ID,
		BuyerID:       buyerID,
		SellerID:      order.SellerID,
		Amount:        order.TotalAmount,
		Currency:      order.FiatCurrency,
		Status:        models.EscrowPending,
		EscrowAddress: escrowAddress(order.FiatCurrency),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.P2pCryptoOrder{}).
			Where("id = ? AND status = ?", order.ID, models.P2pOpen).
			Updates(map[string]interface{}{
				"status":     models.P2pMatched,
				"buyer_id":   buyerID,
				"matched_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOrderNotOpen
		}

		return tx.Create(escrow).Error
	})
	if err != nil {
		return nil, err
	}

	config.Logger.Infof("p2p order %s matched, escrow %d opened", order.TradeReference, escrow.ID)

	return escrow, nil
}

// CompleteOrder closes a matched offer once its escrow released.
func (s *Service) CompleteOrder(orderID uint64) error {
	escrow := &models.Escrow{}
	if err := s.db.First(escrow, "p2p_order_id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}

		return err
	}

	if escrow.Status != models.EscrowReleased && escrow.Status != models.EscrowResolved {
		return ErrInvalidTransition
	}

	result := s.db.Model(&models.P2pCryptoOrder{}).
		Where("id = ? AND status = ?", orderID, models.P2pMatched).
		Updates(map[string]interface{}{
			"status":       models.P2pCompleted,
			"completed_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPrecondition
	}

	return nil
}

// CancelOrder withdraws an offer nobody matched yet. Matched offers
// settle through the escrow instead.
func (s *Service) CancelOrder(orderID uint64, sellerID int64) error {
	result := s.db.Model(&models.P2pCryptoOrder{}).
		Where("id = ? AND seller_id = ? AND status = ?", orderID, sellerID, models.P2pOpen).
		Updates(map[string]interface{}{
			"status":       models.P2pCancelled,
			"cancelled_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotOpen
	}

	return nil
}

// OpenOrders lists the live offers for a currency pair, cheapest first.
func (s *Service) OpenOrders(cryptoCurrency, fiatCurrency string) ([]models.P2pCryptoOrder, error) {
	var orders []models.P2pCryptoOrder

	err := s.db.
		Where("crypto_currency = ? AND fiat_currency = ? AND status = ?",
			strings.ToLower(cryptoCurrency), strings.ToLower(fiatCurrency), models.P2pOpen).
		Order("price_per_unit asc, created_at asc").
		Find(&orders).Error

	return orders, err
}

// EscrowFor returns the escrow tied to an offer.
func (s *Service) EscrowFor(orderID uint64) (*models.Escrow, error) {
	escrow := &models.Escrow{}

	err := s.db.First(escrow, "p2p_order_id = ?", orderID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return escrow, nil
}
