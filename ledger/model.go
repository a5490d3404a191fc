package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tsiemens/psxtax/date"
)

type TxType int

const (
	BUY TxType = iota
	SELL
)

func (t TxType) String() string {
	switch t {
	case BUY:
		return "BUY"
	case SELL:
		return "SELL"
	}
	return fmt.Sprintf("TxType(%d)", int(t))
}

func ParseTxType(s string) (TxType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return BUY, nil
	case "SELL":
		return SELL, nil
	}
	return BUY, fmt.Errorf("%w: invalid transaction type '%s'", ErrInvalidInput, s)
}

func (t TxType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TxType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTxType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// NetBuyPrice is the per-unit cost of a purchase after brokerage fees.
func NetBuyPrice(gross, feePercent decimal.Decimal) decimal.Decimal {
	return gross.Mul(one.Add(feePercent.Shift(-2)))
}

// NetSellPrice is the per-unit proceeds of a sale after brokerage fees.
func NetSellPrice(gross, feePercent decimal.Decimal) decimal.Decimal {
	return gross.Mul(one.Sub(feePercent.Shift(-2)))
}

// Lot is the unsold remainder of a purchase (or of shares received through a
// corporate action).
type Lot struct {
	Quantity   decimal.Decimal
	GrossPrice decimal.Decimal
	FeePercent decimal.Decimal
	NetPrice   decimal.Decimal
	// Added to Quantity*NetPrice so that a diluted lot keeps its exact total
	// cost when the diluted price does not terminate. Usually zero.
	CostAdjustment decimal.Decimal

	// The date the lot begins accruing holding period.
	SettlementDate date.Date
	TradeDate      date.Date

	// Origin of the lot. Exactly one is normally set.
	TransactionID     int64
	CorporateActionID string
}

// Cost is the fee-adjusted cost basis of the remaining quantity.
func (l Lot) Cost() decimal.Decimal {
	return l.Quantity.Mul(l.NetPrice).Add(l.CostAdjustment)
}

type Transaction struct {
	ID             int64
	Type           TxType
	Symbol         string
	Quantity       decimal.Decimal
	Price          decimal.Decimal
	FeePercent     decimal.Decimal
	NetPrice       decimal.Decimal
	TradeDate      date.Date
	SettlementDate date.Date
	Timestamp      time.Time
}

// LotConsumption records how much of one lot satisfied a sale.
type LotConsumption struct {
	PurchaseDate     date.Date
	Quantity         decimal.Decimal
	CostPerUnit      decimal.Decimal
	GrossCostPerUnit decimal.Decimal
	FeePercent       decimal.Decimal
	CostBasis        decimal.Decimal
	// The part of CostBasis carried by the lot's CostAdjustment.
	CostAdjustment decimal.Decimal
	HoldingPeriod  date.HoldingPeriod

	TransactionID     int64
	CorporateActionID string
}

// Gain is the portion of a sale's capital gain attributable to this record.
func (c LotConsumption) Gain(netSellPrice decimal.Decimal) decimal.Decimal {
	return c.Quantity.Mul(netSellPrice).Sub(c.CostBasis)
}

type RealizedSale struct {
	Symbol         string
	QuantitySold   decimal.Decimal
	SellPrice      decimal.Decimal // net of fees
	GrossSellPrice decimal.Decimal
	FeePercent     decimal.Decimal
	SaleProceeds   decimal.Decimal
	TotalCostBasis decimal.Decimal
	CapitalGain    decimal.Decimal
	SaleDate       date.Date // settlement date of the sale
	TradeDate      date.Date
	LotsUsed       []LotConsumption

	TransactionID int64
	Simulated     bool
}

func (s RealizedSale) clone() RealizedSale {
	c := s
	c.LotsUsed = append([]LotConsumption(nil), s.LotsUsed...)
	return c
}

// Holding summarizes the remaining lots of one symbol.
type Holding struct {
	Symbol         string
	Quantity       decimal.Decimal
	AverageCost    decimal.Decimal
	TotalCostBasis decimal.Decimal
	Lots           []Lot
}

// NormalizeSymbol returns the canonical (trimmed, upper case) symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func cloneLots(lots []Lot) []Lot {
	if lots == nil {
		return nil
	}
	return append(make([]Lot, 0, len(lots)), lots...)
}

// CloneLots returns a deep copy of lots.
func CloneLots(lots []Lot) []Lot {
	return cloneLots(lots)
}

func sumQuantity(lots []Lot) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lots {
		total = total.Add(l.Quantity)
	}
	return total
}

// LotsEqual reports whether a and b hold the same lots in the same order.
func LotsEqual(a, b []Lot) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if !x.Quantity.Equal(y.Quantity) || !x.GrossPrice.Equal(y.GrossPrice) ||
			!x.FeePercent.Equal(y.FeePercent) || !x.NetPrice.Equal(y.NetPrice) ||
			!x.CostAdjustment.Equal(y.CostAdjustment) ||
			!x.SettlementDate.Equal(y.SettlementDate) || !x.TradeDate.Equal(y.TradeDate) ||
			x.TransactionID != y.TransactionID || x.CorporateActionID != y.CorporateActionID {
			return false
		}
	}
	return true
}
