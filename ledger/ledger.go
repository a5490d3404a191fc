package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tsiemens/psxtax/date"
	decimal_opt "github.com/tsiemens/psxtax/decimal_value"
	"github.com/tsiemens/psxtax/log"
	"github.com/tsiemens/psxtax/util"
)

const (
	DefaultSettlementDays = 2
)

var DefaultFeePercent = decimal.RequireFromString("0.5")

type Options struct {
	// Used when a transaction's fee is omitted, negative or not finite.
	DefaultFeePercent decimal.Decimal
	// Business days from trade date to settlement date.
	SettlementDays int
	Logger         *log.Logger
	// Clock for transaction timestamps.
	Now func() time.Time
}

func DefaultOptions() Options {
	return Options{
		DefaultFeePercent: DefaultFeePercent,
		SettlementDays:    DefaultSettlementDays,
	}
}

// Ledger owns the FIFO lot queues per symbol along with the transaction and
// realized gain audit trails. It is not safe for concurrent use.
type Ledger struct {
	opts   Options
	logger *log.Logger

	// Symbol -> lots ordered by settlement date. Every lot has a positive
	// quantity.
	lots         map[string][]Lot
	transactions []Transaction
	realized     []RealizedSale
	nextID       int64
}

func New(opts Options) *Ledger {
	if opts.DefaultFeePercent.IsNegative() {
		opts.DefaultFeePercent = DefaultFeePercent
	}
	if opts.SettlementDays < 0 {
		opts.SettlementDays = DefaultSettlementDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	l := &Ledger{opts: opts, logger: log.OrSilent(opts.Logger)}
	l.Reset()
	return l
}

// Reset clears all lots, transactions and realized sales.
func (l *Ledger) Reset() {
	l.lots = make(map[string][]Lot)
	l.transactions = nil
	l.realized = nil
	l.nextID = 1
}

func (l *Ledger) Options() Options {
	return l.opts
}

// FeeOrDefault resolves an optional fee percent. Omitted, negative and
// non-finite values all fall back to the default.
func (l *Ledger) FeeOrDefault(fee decimal_opt.DecimalOpt) decimal.Decimal {
	if fee.IsNull || fee.IsNegative() {
		return l.opts.DefaultFeePercent
	}
	return fee.Decimal
}

// SettlementDate returns the settlement date for a trade on tradeDate.
func (l *Ledger) SettlementDate(tradeDate date.Date) date.Date {
	return tradeDate.AddBusinessDays(l.opts.SettlementDays)
}

func validateTrade(symbol string, quantity, price decimal.Decimal, tradeDate date.Date) error {
	if symbol == "" {
		return fmt.Errorf("%w: missing symbol", ErrInvalidInput)
	}
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive (got %s)", ErrInvalidInput, quantity)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: price must be positive (got %s)", ErrInvalidInput, price)
	}
	if tradeDate.IsZero() {
		return fmt.Errorf("%w: missing trade date", ErrInvalidInput)
	}
	return nil
}

// AddTransaction records a BUY or SELL. A BUY returns the new Transaction and a
// nil sale. A SELL consumes lots oldest first and also returns the
// RealizedSale it produced. On error, the ledger is unchanged.
func (l *Ledger) AddTransaction(
	txType TxType, symbol string, quantity, price decimal.Decimal,
	tradeDate date.Date, fee decimal_opt.DecimalOpt) (*Transaction, *RealizedSale, error) {

	symbol = NormalizeSymbol(symbol)
	if err := validateTrade(symbol, quantity, price, tradeDate); err != nil {
		return nil, nil, err
	}
	feePercent := l.FeeOrDefault(fee)
	settlement := l.SettlementDate(tradeDate)

	tx := Transaction{
		ID:             l.nextID,
		Type:           txType,
		Symbol:         symbol,
		Quantity:       quantity,
		Price:          price,
		FeePercent:     feePercent,
		TradeDate:      tradeDate,
		SettlementDate: settlement,
		Timestamp:      l.opts.Now().UTC(),
	}

	switch txType {
	case BUY:
		tx.NetPrice = NetBuyPrice(price, feePercent)
		lot := Lot{
			Quantity:       quantity,
			GrossPrice:     price,
			FeePercent:     feePercent,
			NetPrice:       tx.NetPrice,
			SettlementDate: settlement,
			TradeDate:      tradeDate,
			TransactionID:  tx.ID,
		}
		l.lots[symbol] = insertLot(l.lots[symbol], lot)
		l.commitTx(tx)
		l.logger.Debug().Str("symbol", symbol).Str("quantity", quantity.String()).
			Str("net_price", tx.NetPrice.String()).Str("settlement", settlement.String()).
			Msg("Buy recorded")
		txCopy := tx
		return &txCopy, nil, nil
	case SELL:
		tx.NetPrice = NetSellPrice(price, feePercent)
		sale, remaining, err := l.planSale(symbol, quantity, price, feePercent, tradeDate, settlement)
		if err != nil {
			return nil, nil, err
		}
		sale.TransactionID = tx.ID

		// Commit. Nothing below can fail.
		if len(remaining) == 0 {
			delete(l.lots, symbol)
		} else {
			l.lots[symbol] = remaining
		}
		l.commitTx(tx)
		l.realized = append(l.realized, sale)
		l.logger.Debug().Str("symbol", symbol).Str("quantity", quantity.String()).
			Str("gain", sale.CapitalGain.String()).Int("lots_used", len(sale.LotsUsed)).
			Msg("Sell recorded")
		txCopy := tx
		saleCopy := sale.clone()
		return &txCopy, &saleCopy, nil
	}
	return nil, nil, fmt.Errorf("%w: invalid transaction type %v", ErrInvalidInput, txType)
}

func (l *Ledger) commitTx(tx Transaction) {
	l.transactions = append(l.transactions, tx)
	l.nextID = tx.ID + 1
}

// CalculateSale simulates selling quantity of symbol against the current lots,
// without changing the ledger.
func (l *Ledger) CalculateSale(
	symbol string, quantity, price decimal.Decimal,
	tradeDate date.Date, fee decimal_opt.DecimalOpt) (*RealizedSale, error) {

	symbol = NormalizeSymbol(symbol)
	if err := validateTrade(symbol, quantity, price, tradeDate); err != nil {
		return nil, err
	}
	feePercent := l.FeeOrDefault(fee)
	sale, _, err := l.planSale(
		symbol, quantity, price, feePercent, tradeDate, l.SettlementDate(tradeDate))
	if err != nil {
		return nil, err
	}
	sale.Simulated = true
	return &sale, nil
}

// planSale works out the FIFO consumption of a sale. It returns the resulting
// sale record and what the symbol's lots would be afterwards, leaving the
// ledger untouched.
func (l *Ledger) planSale(
	symbol string, quantity, grossPrice, feePercent decimal.Decimal,
	tradeDate, settlement date.Date) (RealizedSale, []Lot, error) {

	lots := l.lots[symbol]
	if len(lots) == 0 {
		return RealizedSale{}, nil, fmt.Errorf(
			"%w: no holdings of %s", ErrInsufficientHoldings, symbol)
	}
	available := sumQuantity(lots)
	if available.LessThan(quantity) {
		return RealizedSale{}, nil, fmt.Errorf(
			"%w: sell of %s shares of %s is more than the current holdings (%s)",
			ErrInsufficientHoldings, quantity, symbol, available)
	}

	consumed, remaining := consumeFIFO(lots, quantity, settlement)
	log.Tracef("ledger", "planSale %s %s: %d lots consumed, %d remain",
		symbol, quantity, len(consumed), len(remaining))

	netPrice := NetSellPrice(grossPrice, feePercent)
	sale := RealizedSale{
		Symbol:         symbol,
		QuantitySold:   quantity,
		SellPrice:      netPrice,
		GrossSellPrice: grossPrice,
		FeePercent:     feePercent,
		SaleDate:       settlement,
		TradeDate:      tradeDate,
		LotsUsed:       consumed,
	}
	sale.recompute()
	return sale, remaining, nil
}

// recompute derives proceeds, cost basis and gain from the sale's prices and
// consumption records.
func (s *RealizedSale) recompute() {
	s.SaleProceeds = s.QuantitySold.Mul(s.SellPrice)
	s.TotalCostBasis = decimal.Zero
	for _, c := range s.LotsUsed {
		s.TotalCostBasis = s.TotalCostBasis.Add(c.CostBasis)
	}
	s.CapitalGain = s.SaleProceeds.Sub(s.TotalCostBasis)
}

// consumeFIFO takes quantity from the head of lots. lots is not modified.
// The caller guarantees lots hold at least quantity.
func consumeFIFO(
	lots []Lot, quantity decimal.Decimal, saleSettlement date.Date) ([]LotConsumption, []Lot) {

	remaining := make([]Lot, 0, len(lots))
	var consumed []LotConsumption
	toSell := quantity

	for _, lot := range lots {
		if !toSell.IsPositive() {
			remaining = append(remaining, lot)
			continue
		}
		take := decimal.Min(lot.Quantity, toSell)
		c := LotConsumption{
			PurchaseDate:      lot.SettlementDate,
			Quantity:          take,
			CostPerUnit:       lot.NetPrice,
			GrossCostPerUnit:  lot.GrossPrice,
			FeePercent:        lot.FeePercent,
			CostBasis:         take.Mul(lot.NetPrice),
			HoldingPeriod:     date.HoldingPeriodBetween(lot.SettlementDate, saleSettlement),
			TransactionID:     lot.TransactionID,
			CorporateActionID: lot.CorporateActionID,
		}
		toSell = toSell.Sub(take)
		lot.Quantity = lot.Quantity.Sub(take)
		// The adjustment stays with the lot until its last share is sold.
		if !lot.Quantity.IsPositive() && !lot.CostAdjustment.IsZero() {
			c.CostAdjustment = lot.CostAdjustment
			c.CostBasis = c.CostBasis.Add(lot.CostAdjustment)
		}
		consumed = append(consumed, c)
		if lot.Quantity.IsPositive() {
			remaining = append(remaining, lot)
		}
	}
	util.Assertf(toSell.IsZero(), "consumeFIFO: %s shares left unsatisfied", toSell)
	return consumed, remaining
}

// insertLot places lot after every lot settling on or before it, so that
// lots stay in settlement order and equal dates keep insertion order.
func insertLot(lots []Lot, lot Lot) []Lot {
	i := sort.Search(len(lots), func(i int) bool {
		return lots[i].SettlementDate.After(lot.SettlementDate)
	})
	out := make([]Lot, 0, len(lots)+1)
	out = append(out, lots[:i]...)
	out = append(out, lot)
	out = append(out, lots[i:]...)
	return out
}

func sortLots(lots []Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		return lots[i].SettlementDate.Before(lots[j].SettlementDate)
	})
}

// Holdings returns every symbol with a positive remaining quantity, sorted by
// symbol.
func (l *Ledger) Holdings() []Holding {
	holdings := make([]Holding, 0, len(l.lots))
	for _, symbol := range util.SortedMapKeys(l.lots) {
		if h, ok := l.Holding(symbol); ok {
			holdings = append(holdings, h)
		}
	}
	return holdings
}

// Holding returns the holding for a single symbol.
func (l *Ledger) Holding(symbol string) (Holding, bool) {
	symbol = NormalizeSymbol(symbol)
	lots := l.lots[symbol]
	quantity := sumQuantity(lots)
	if !quantity.IsPositive() {
		return Holding{}, false
	}
	totalCost := decimal.Zero
	for _, lot := range lots {
		totalCost = totalCost.Add(lot.Cost())
	}
	return Holding{
		Symbol:         symbol,
		Quantity:       quantity,
		AverageCost:    totalCost.Div(quantity),
		TotalCostBasis: totalCost,
		Lots:           cloneLots(lots),
	}, true
}

// Lots returns a copy of the lots held for symbol, in FIFO order.
func (l *Ledger) Lots(symbol string) []Lot {
	return cloneLots(l.lots[NormalizeSymbol(symbol)])
}

// SetLots replaces the lots held for symbol. Lots are put in settlement order
// and zero quantity lots are dropped. Used to apply and reverse corporate
// actions.
func (l *Ledger) SetLots(symbol string, lots []Lot) error {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return fmt.Errorf("%w: missing symbol", ErrInvalidInput)
	}
	kept := make([]Lot, 0, len(lots))
	for _, lot := range lots {
		if lot.Quantity.IsNegative() {
			return fmt.Errorf("%w: negative lot quantity %s for %s",
				ErrInvalidInput, lot.Quantity, symbol)
		}
		if lot.Quantity.IsPositive() {
			kept = append(kept, lot)
		}
	}
	sortLots(kept)
	if len(kept) == 0 {
		delete(l.lots, symbol)
	} else {
		l.lots[symbol] = kept
	}
	log.Tracef("ledger", "SetLots %s: %d lots", symbol, len(kept))
	return nil
}

// Transactions returns the transaction audit trail in insertion order.
func (l *Ledger) Transactions() []Transaction {
	return append([]Transaction(nil), l.transactions...)
}

// RealizedGains returns the realized sales in insertion order.
func (l *Ledger) RealizedGains() []RealizedSale {
	out := make([]RealizedSale, 0, len(l.realized))
	for _, s := range l.realized {
		out = append(out, s.clone())
	}
	return out
}
