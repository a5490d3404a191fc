package ledger

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tsiemens/psxtax/date"
	"github.com/tsiemens/psxtax/util"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// SnapshotVersion is written by ExportData. Snapshots of other versions are
// still imported, with a warning.
const SnapshotVersion = 2

// Snapshot is the persisted form of a Ledger.
//
// Price fields are pointers so that legacy snapshots, which lack gross prices
// or fees, can be told apart from zero values and migrated on import.
type Snapshot struct {
	Version       int                    `json:"version"`
	Holdings      map[string][]LotRecord `json:"holdings"`
	Transactions  []TransactionRecord    `json:"transactions"`
	RealizedGains []RealizedSaleRecord   `json:"realizedGains"`
}

type LotRecord struct {
	Quantity   decimal.Decimal  `json:"quantity"`
	GrossPrice *decimal.Decimal `json:"grossPrice,omitempty"`
	FeePercent *decimal.Decimal `json:"feePercent,omitempty"`
	NetPrice   *decimal.Decimal `json:"netPrice,omitempty"`
	// Legacy alias of netPrice.
	Price             *decimal.Decimal `json:"price,omitempty"`
	CostAdjustment    *decimal.Decimal `json:"costAdjustment,omitempty"`
	PurchaseDate      date.Date        `json:"purchaseDate"`
	TradeDate         date.Date        `json:"tradeDate"`
	TransactionID     int64            `json:"transactionId,omitempty"`
	CorporateActionID string           `json:"corporateActionId,omitempty"`
}

type TransactionRecord struct {
	ID             int64            `json:"id"`
	Type           TxType           `json:"type"`
	Symbol         string           `json:"symbol"`
	Quantity       decimal.Decimal  `json:"quantity"`
	Price          decimal.Decimal  `json:"price"`
	FeePercent     *decimal.Decimal `json:"feePercent,omitempty"`
	NetPrice       *decimal.Decimal `json:"netPrice,omitempty"`
	TradeDate      date.Date        `json:"tradeDate"`
	SettlementDate date.Date        `json:"settlementDate"`
	Timestamp      time.Time        `json:"timestamp"`
}

type LotConsumptionRecord struct {
	PurchaseDate      date.Date          `json:"purchaseDate"`
	Quantity          decimal.Decimal    `json:"quantity"`
	CostPerUnit       *decimal.Decimal   `json:"costPerUnit,omitempty"`
	GrossCostPerUnit  *decimal.Decimal   `json:"grossCostPerUnit,omitempty"`
	FeePercent        *decimal.Decimal   `json:"feePercent,omitempty"`
	CostBasis         decimal.Decimal    `json:"costBasis"`
	CostAdjustment    *decimal.Decimal   `json:"costAdjustment,omitempty"`
	HoldingPeriod     date.HoldingPeriod `json:"holdingPeriod"`
	TransactionID     int64              `json:"transactionId,omitempty"`
	CorporateActionID string             `json:"corporateActionId,omitempty"`
}

type RealizedSaleRecord struct {
	Symbol         string                 `json:"symbol"`
	QuantitySold   decimal.Decimal        `json:"quantitySold"`
	SellPrice      *decimal.Decimal       `json:"sellPrice,omitempty"`
	GrossSellPrice *decimal.Decimal       `json:"grossSellPrice,omitempty"`
	FeePercent     *decimal.Decimal       `json:"feePercent,omitempty"`
	SaleProceeds   decimal.Decimal        `json:"saleProceeds"`
	TotalCostBasis decimal.Decimal        `json:"totalCostBasis"`
	CapitalGain    decimal.Decimal        `json:"capitalGain"`
	SaleDate       date.Date              `json:"saleDate"`
	TradeDate      date.Date              `json:"tradeDate"`
	LotsUsed       []LotConsumptionRecord `json:"lotsUsed"`
	TransactionID  int64                  `json:"transactionId,omitempty"`
}

// ImportResult describes what ImportData had to do to load a snapshot.
type ImportResult struct {
	Version         int
	VersionMismatch bool
	MigratedLots    int
	MigratedSales   int
	Warnings        []string
}

func (r *ImportResult) warnf(format string, v ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, v...))
}

func decPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// nonZeroPtr is decPtr, but nil for zero so the field is omitted.
func nonZeroPtr(d decimal.Decimal) *decimal.Decimal {
	if d.IsZero() {
		return nil
	}
	return &d
}

func derefOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Decimal{}
	}
	return *d
}

// reconcilePrices resolves a net/gross price pair from a possibly legacy
// record. A missing gross is back-filled from net. A net equal to gross while
// a fee is present is the old unadjusted format, so net is recomputed with
// adjust. A missing fee is taken as zero.
func reconcilePrices(
	net, gross, fee *decimal.Decimal,
	adjust func(gross, fee decimal.Decimal) decimal.Decimal,
) (netOut, grossOut, feeOut decimal.Decimal, migrated bool, err error) {

	if net == nil && gross == nil {
		return netOut, grossOut, feeOut, false, fmt.Errorf("%w: record has no price", ErrDecodeFailure)
	}
	if fee != nil {
		feeOut = *fee
	}
	switch {
	case gross == nil:
		netOut, grossOut = *net, *net
		migrated = true
	case net == nil:
		grossOut = *gross
		netOut = adjust(grossOut, feeOut)
		migrated = true
	default:
		netOut, grossOut = *net, *gross
	}
	if fee != nil && !feeOut.IsZero() && netOut.Equal(grossOut) {
		netOut = adjust(grossOut, feeOut)
		migrated = true
	}
	return netOut, grossOut, feeOut, migrated, nil
}

// EncodeLots converts lots to their persisted form.
func EncodeLots(lots []Lot) []LotRecord {
	records := make([]LotRecord, 0, len(lots))
	for _, lot := range lots {
		records = append(records, LotRecord{
			Quantity:          lot.Quantity,
			GrossPrice:        decPtr(lot.GrossPrice),
			FeePercent:        decPtr(lot.FeePercent),
			NetPrice:          decPtr(lot.NetPrice),
			CostAdjustment:    nonZeroPtr(lot.CostAdjustment),
			PurchaseDate:      lot.SettlementDate,
			TradeDate:         lot.TradeDate,
			TransactionID:     lot.TransactionID,
			CorporateActionID: lot.CorporateActionID,
		})
	}
	return records
}

// DecodeLots converts persisted lots back, applying the legacy price
// migration. The number of migrated lots is returned.
func DecodeLots(records []LotRecord) ([]Lot, int, error) {
	lots := make([]Lot, 0, len(records))
	migratedCount := 0
	for i, r := range records {
		net := r.NetPrice
		if net == nil {
			net = r.Price
		}
		netPrice, gross, fee, migrated, err := reconcilePrices(net, r.GrossPrice, r.FeePercent, NetBuyPrice)
		if err != nil {
			return nil, 0, fmt.Errorf("lot %d: %w", i, err)
		}
		if r.PurchaseDate.IsZero() {
			return nil, 0, fmt.Errorf("%w: lot %d has no purchase date", ErrDecodeFailure, i)
		}
		if migrated {
			migratedCount++
		}
		lots = append(lots, Lot{
			Quantity:          r.Quantity,
			GrossPrice:        gross,
			FeePercent:        fee,
			NetPrice:          netPrice,
			CostAdjustment:    derefOrZero(r.CostAdjustment),
			SettlementDate:    r.PurchaseDate,
			TradeDate:         r.TradeDate,
			TransactionID:     r.TransactionID,
			CorporateActionID: r.CorporateActionID,
		})
	}
	return lots, migratedCount, nil
}

func encodeSale(s RealizedSale) RealizedSaleRecord {
	r := RealizedSaleRecord{
		Symbol:         s.Symbol,
		QuantitySold:   s.QuantitySold,
		SellPrice:      decPtr(s.SellPrice),
		GrossSellPrice: decPtr(s.GrossSellPrice),
		FeePercent:     decPtr(s.FeePercent),
		SaleProceeds:   s.SaleProceeds,
		TotalCostBasis: s.TotalCostBasis,
		CapitalGain:    s.CapitalGain,
		SaleDate:       s.SaleDate,
		TradeDate:      s.TradeDate,
		TransactionID:  s.TransactionID,
	}
	for _, c := range s.LotsUsed {
		r.LotsUsed = append(r.LotsUsed, LotConsumptionRecord{
			PurchaseDate:      c.PurchaseDate,
			Quantity:          c.Quantity,
			CostPerUnit:       decPtr(c.CostPerUnit),
			GrossCostPerUnit:  decPtr(c.GrossCostPerUnit),
			FeePercent:        decPtr(c.FeePercent),
			CostBasis:         c.CostBasis,
			CostAdjustment:    nonZeroPtr(c.CostAdjustment),
			HoldingPeriod:     c.HoldingPeriod,
			TransactionID:     c.TransactionID,
			CorporateActionID: c.CorporateActionID,
		})
	}
	return r
}

// decodeSale rebuilds a sale, recomputing every derived amount from the
// reconciled prices rather than trusting the stored ones.
func decodeSale(i int, r RealizedSaleRecord) (RealizedSale, bool, error) {
	sellPrice, gross, fee, migrated, err := reconcilePrices(
		r.SellPrice, r.GrossSellPrice, r.FeePercent, NetSellPrice)
	if err != nil {
		return RealizedSale{}, false, fmt.Errorf("realized sale %d: %w", i, err)
	}
	if r.SaleDate.IsZero() {
		return RealizedSale{}, false, fmt.Errorf("%w: realized sale %d has no sale date", ErrDecodeFailure, i)
	}
	s := RealizedSale{
		Symbol:         NormalizeSymbol(r.Symbol),
		QuantitySold:   r.QuantitySold,
		SellPrice:      sellPrice,
		GrossSellPrice: gross,
		FeePercent:     fee,
		SaleDate:       r.SaleDate,
		TradeDate:      r.TradeDate,
		TransactionID:  r.TransactionID,
	}
	for j, c := range r.LotsUsed {
		cost, grossCost, lotFee, lotMigrated, err := reconcilePrices(
			c.CostPerUnit, c.GrossCostPerUnit, c.FeePercent, NetBuyPrice)
		if err != nil {
			return RealizedSale{}, false, fmt.Errorf("realized sale %d, lot %d: %w", i, j, err)
		}
		migrated = migrated || lotMigrated
		adj := derefOrZero(c.CostAdjustment)
		s.LotsUsed = append(s.LotsUsed, LotConsumption{
			PurchaseDate:      c.PurchaseDate,
			Quantity:          c.Quantity,
			CostPerUnit:       cost,
			GrossCostPerUnit:  grossCost,
			FeePercent:        lotFee,
			CostBasis:         c.Quantity.Mul(cost).Add(adj),
			CostAdjustment:    adj,
			HoldingPeriod:     date.HoldingPeriodBetween(c.PurchaseDate, r.SaleDate),
			TransactionID:     c.TransactionID,
			CorporateActionID: c.CorporateActionID,
		})
	}
	s.recompute()
	return s, migrated, nil
}

// ExportData captures the full ledger state.
func (l *Ledger) ExportData() *Snapshot {
	snap := &Snapshot{
		Version:       SnapshotVersion,
		Holdings:      make(map[string][]LotRecord, len(l.lots)),
		Transactions:  make([]TransactionRecord, 0, len(l.transactions)),
		RealizedGains: make([]RealizedSaleRecord, 0, len(l.realized)),
	}
	for symbol, lots := range l.lots {
		snap.Holdings[symbol] = EncodeLots(lots)
	}
	for _, tx := range l.transactions {
		snap.Transactions = append(snap.Transactions, TransactionRecord{
			ID:             tx.ID,
			Type:           tx.Type,
			Symbol:         tx.Symbol,
			Quantity:       tx.Quantity,
			Price:          tx.Price,
			FeePercent:     decPtr(tx.FeePercent),
			NetPrice:       decPtr(tx.NetPrice),
			TradeDate:      tx.TradeDate,
			SettlementDate: tx.SettlementDate,
			Timestamp:      tx.Timestamp,
		})
	}
	for _, s := range l.realized {
		snap.RealizedGains = append(snap.RealizedGains, encodeSale(s))
	}
	return snap
}

// ImportData replaces the ledger state with the snapshot's. On error the
// ledger is left unchanged.
func (l *Ledger) ImportData(snap *Snapshot) (*ImportResult, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrDecodeFailure)
	}
	res := &ImportResult{Version: snap.Version}
	if snap.Version != SnapshotVersion {
		res.VersionMismatch = true
		res.warnf("snapshot version %d differs from %d", snap.Version, SnapshotVersion)
		l.logger.Warn().Int("version", snap.Version).Int("expected", SnapshotVersion).
			Msg("Importing snapshot of a different version")
	}

	lots := make(map[string][]Lot, len(snap.Holdings))
	var maxID int64
	for _, rawSymbol := range util.SortedMapKeys(snap.Holdings) {
		symbol := NormalizeSymbol(rawSymbol)
		if symbol == "" {
			return nil, fmt.Errorf("%w: holdings entry with empty symbol", ErrDecodeFailure)
		}
		decoded, migrated, err := DecodeLots(snap.Holdings[rawSymbol])
		if err != nil {
			return nil, fmt.Errorf("holdings of %s: %w", symbol, err)
		}
		res.MigratedLots += migrated
		for _, lot := range decoded {
			if !lot.Quantity.IsPositive() {
				res.warnf("dropped %s lot of %s shares settled %s", symbol, lot.Quantity, lot.SettlementDate)
				continue
			}
			if lot.TransactionID > maxID {
				maxID = lot.TransactionID
			}
			lots[symbol] = append(lots[symbol], lot)
		}
		sortLots(lots[symbol])
	}

	txs := make([]Transaction, 0, len(snap.Transactions))
	for i, r := range snap.Transactions {
		fee := decimal.Zero
		if r.FeePercent != nil {
			fee = *r.FeePercent
		}
		var net decimal.Decimal
		switch {
		case r.NetPrice != nil:
			net = *r.NetPrice
		case r.Type == SELL:
			net = NetSellPrice(r.Price, fee)
		default:
			net = NetBuyPrice(r.Price, fee)
		}
		if r.TradeDate.IsZero() {
			return nil, fmt.Errorf("%w: transaction %d has no trade date", ErrDecodeFailure, i)
		}
		if r.ID > maxID {
			maxID = r.ID
		}
		txs = append(txs, Transaction{
			ID:             r.ID,
			Type:           r.Type,
			Symbol:         NormalizeSymbol(r.Symbol),
			Quantity:       r.Quantity,
			Price:          r.Price,
			FeePercent:     fee,
			NetPrice:       net,
			TradeDate:      r.TradeDate,
			SettlementDate: r.SettlementDate,
			Timestamp:      r.Timestamp,
		})
	}

	realized := make([]RealizedSale, 0, len(snap.RealizedGains))
	for i, r := range snap.RealizedGains {
		s, migrated, err := decodeSale(i, r)
		if err != nil {
			return nil, err
		}
		if migrated {
			res.MigratedSales++
		}
		if !s.CapitalGain.Equal(r.CapitalGain) {
			res.warnf("realized sale %d of %s: stored gain %s recomputed as %s",
				i, s.Symbol, r.CapitalGain, s.CapitalGain)
		}
		if s.TransactionID > maxID {
			maxID = s.TransactionID
		}
		realized = append(realized, s)
	}

	l.lots = lots
	l.transactions = txs
	l.realized = realized
	l.nextID = maxID + 1
	l.logger.Info().Int("symbols", len(lots)).Int("transactions", len(txs)).
		Int("realized", len(realized)).Int("migrated_lots", res.MigratedLots).
		Int("migrated_sales", res.MigratedSales).Msg("Ledger imported")
	return res, nil
}

// Encode writes the snapshot as indented JSON.
func (s *Snapshot) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// DecodeSnapshot reads a snapshot written by Encode, or a legacy one.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	return &snap, nil
}
