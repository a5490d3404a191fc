// Package corpaction applies bonus and right issues to a symbol's lots, and
// reverses them exactly by restoring the lots captured before application.
package corpaction

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tsiemens/psxtax/date"
	decimal_opt "github.com/tsiemens/psxtax/decimal_value"
	"github.com/tsiemens/psxtax/ledger"
	"github.com/tsiemens/psxtax/log"
)

type ActionType int

const (
	BONUS ActionType = iota
	RIGHT
)

func (t ActionType) String() string {
	switch t {
	case BONUS:
		return "BONUS"
	case RIGHT:
		return "RIGHT"
	}
	return fmt.Sprintf("ActionType(%d)", int(t))
}

func ParseActionType(s string) (ActionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BONUS":
		return BONUS, nil
	case "RIGHT":
		return RIGHT, nil
	}
	return BONUS, fmt.Errorf("%w: unknown action type '%s'", ErrInvalidParameters, s)
}

func (t ActionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ActionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseActionType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// LotStore is the part of the ledger the manager mutates.
type LotStore interface {
	Lots(symbol string) []ledger.Lot
	SetLots(symbol string, lots []ledger.Lot) error
}

type Details struct {
	// See ParseRatio for accepted forms.
	Ratio  string
	ExDate date.Date

	// RIGHT only.
	SubscriptionPrice decimal_opt.DecimalOpt
	// RIGHT only. Defaults to ExDate.
	SubscriptionDate date.Date
}

type Record struct {
	ID                string
	Type              ActionType
	Symbol            string
	ExDate            date.Date
	AppliedAt         time.Time
	RatioText         string
	Ratio             Ratio
	SubscriptionPrice decimal.Decimal
	SubscriptionDate  date.Date
	Applied           bool

	// The symbol's lots immediately before application. Reversal restores
	// these verbatim.
	PreActionLots []ledger.Lot
	// The symbol's lots immediately after application. Reversal is refused
	// once the symbol's lots no longer match these. Nil for records saved
	// before they were tracked.
	PostActionLots []ledger.Lot

	SharesAdded decimal.Decimal
	CostAdded   decimal.Decimal
	Summary     string
}

func (r Record) clone() Record {
	c := r
	c.PreActionLots = ledger.CloneLots(r.PreActionLots)
	c.PostActionLots = ledger.CloneLots(r.PostActionLots)
	return c
}

type Options struct {
	Logger *log.Logger
	Now    func() time.Time
	// Generates record ids. Defaults to random UUIDs.
	NewID func() string
}

type Manager struct {
	store   LotStore
	logger  *log.Logger
	now     func() time.Time
	newID   func() string
	records []Record
}

func NewManager(store LotStore, opts Options) *Manager {
	m := &Manager{
		store:  store,
		logger: log.OrSilent(opts.Logger),
		now:    opts.Now,
		newID:  opts.NewID,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	return m
}

// Apply applies a corporate action to every lot of symbol. On error, nothing
// is changed.
func (m *Manager) Apply(symbol string, actionType ActionType, details Details) (*Record, error) {
	symbol = ledger.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: missing symbol", ErrInvalidParameters)
	}
	preLots := m.store.Lots(symbol)
	if len(preLots) == 0 {
		return nil, fmt.Errorf("%w: no holdings of %s", ErrUnknownSymbol, symbol)
	}
	ratio, err := ParseRatio(details.Ratio)
	if err != nil {
		return nil, err
	}
	if details.ExDate.IsZero() {
		return nil, fmt.Errorf("%w: missing ex-date", ErrInvalidParameters)
	}

	rec := Record{
		ID:            m.newID(),
		Type:          actionType,
		Symbol:        symbol,
		ExDate:        details.ExDate,
		AppliedAt:     m.now().UTC(),
		RatioText:     strings.TrimSpace(details.Ratio),
		Ratio:         ratio,
		Applied:       true,
		PreActionLots: ledger.CloneLots(preLots),
	}

	var newLots []ledger.Lot
	switch actionType {
	case BONUS:
		newLots, err = applyBonus(&rec, preLots)
	case RIGHT:
		newLots, err = applyRight(&rec, preLots, details)
	default:
		err = fmt.Errorf("%w: unknown action type %v", ErrInvalidParameters, actionType)
	}
	if err != nil {
		return nil, err
	}

	if err := m.store.SetLots(symbol, newLots); err != nil {
		return nil, err
	}
	rec.PostActionLots = m.store.Lots(symbol)
	m.records = append(m.records, rec)
	log.Tracef("corpaction", "applied %s %s on %s: +%s shares", rec.Type, rec.Ratio, symbol, rec.SharesAdded)
	m.logger.Info().Str("id", rec.ID).Str("type", rec.Type.String()).Str("symbol", symbol).
		Str("shares_added", rec.SharesAdded.String()).Msg("Corporate action applied")

	out := rec.clone()
	return &out, nil
}

// applyBonus gives each lot floor(quantity * ratio) free shares. The bonus
// shares form a new lot settled on the ex-date, and share the original lot's
// cost, so the symbol's total cost is unchanged. When the diluted price is
// rounded, the rounding residual is kept as the original lot's
// CostAdjustment.
func applyBonus(rec *Record, lots []ledger.Lot) ([]ledger.Lot, error) {
	out := make([]ledger.Lot, 0, 2*len(lots))
	added := decimal.Zero
	for _, lot := range lots {
		bonus := rec.Ratio.Entitlement(lot.Quantity)
		if !bonus.IsPositive() {
			out = append(out, lot)
			continue
		}
		cost := lot.Cost()
		enlarged := lot.Quantity.Add(bonus)
		lot.GrossPrice = lot.GrossPrice.Mul(lot.Quantity).Div(enlarged)
		lot.NetPrice = lot.NetPrice.Mul(lot.Quantity).Div(enlarged)
		lot.CostAdjustment = decimal.Decimal{}
		if residual := cost.Sub(enlarged.Mul(lot.NetPrice)); !residual.IsZero() {
			lot.CostAdjustment = residual
		}

		bonusLot := lot
		bonusLot.CostAdjustment = decimal.Decimal{}
		bonusLot.Quantity = bonus
		bonusLot.SettlementDate = rec.ExDate
		bonusLot.TradeDate = rec.ExDate
		bonusLot.TransactionID = 0
		bonusLot.CorporateActionID = rec.ID

		out = append(out, lot, bonusLot)
		added = added.Add(bonus)
	}
	if !added.IsPositive() {
		return nil, fmt.Errorf("%w: bonus ratio %s yields no whole shares for %s",
			ErrInvalidParameters, rec.RatioText, rec.Symbol)
	}

	rec.SharesAdded = added
	rec.CostAdded = decimal.Zero
	rec.Summary = fmt.Sprintf(
		"Bonus %s on %s: %s shares added on %s. Total cost unchanged; cost per share diluted.",
		rec.RatioText, rec.Symbol, added, rec.ExDate)
	return out, nil
}

// applyRight entitles each lot to floor(quantity * ratio) shares. The
// entitlements are added as one new lot priced at the subscription price, with
// no brokerage fee.
func applyRight(rec *Record, lots []ledger.Lot, details Details) ([]ledger.Lot, error) {
	if !details.SubscriptionPrice.IsPositive() {
		return nil, fmt.Errorf("%w: right issue needs a positive subscription price", ErrInvalidParameters)
	}
	price := details.SubscriptionPrice.Decimal
	subDate := details.SubscriptionDate
	if subDate.IsZero() {
		subDate = rec.ExDate
	}

	entitled := decimal.Zero
	for _, lot := range lots {
		entitled = entitled.Add(rec.Ratio.Entitlement(lot.Quantity))
	}
	if !entitled.IsPositive() {
		return nil, fmt.Errorf("%w: right ratio %s yields no whole shares for %s",
			ErrInvalidParameters, rec.RatioText, rec.Symbol)
	}

	rightLot := ledger.Lot{
		Quantity:          entitled,
		GrossPrice:        price,
		FeePercent:        decimal.Zero,
		NetPrice:          price,
		SettlementDate:    subDate,
		TradeDate:         subDate,
		CorporateActionID: rec.ID,
	}

	rec.SubscriptionPrice = price
	rec.SubscriptionDate = subDate
	rec.SharesAdded = entitled
	rec.CostAdded = entitled.Mul(price)
	rec.Summary = fmt.Sprintf(
		"Right %s on %s: %s shares subscribed at %s on %s, adding %s to cost.",
		rec.RatioText, rec.Symbol, entitled, price.StringFixed(2), subDate, rec.CostAdded.StringFixed(2))
	return append(ledger.CloneLots(lots), rightLot), nil
}

// Reverse restores the symbol's lots to what they were before the action
// with the given id was applied. It fails with ErrLotsChanged if the symbol
// has been traded, or had another action applied, since; later actions must
// be reversed first.
func (m *Manager) Reverse(id string) (*Record, error) {
	idx := -1
	for i := range m.records {
		if m.records[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	rec := &m.records[idx]
	if !rec.Applied {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyReversed, id)
	}
	if rec.PostActionLots != nil && !ledger.LotsEqual(rec.PostActionLots, m.store.Lots(rec.Symbol)) {
		return nil, fmt.Errorf("%w: %s (%s)", ErrLotsChanged, id, rec.Symbol)
	}
	if err := m.store.SetLots(rec.Symbol, ledger.CloneLots(rec.PreActionLots)); err != nil {
		return nil, err
	}
	rec.Applied = false
	m.logger.Info().Str("id", rec.ID).Str("symbol", rec.Symbol).Msg("Corporate action reversed")

	out := rec.clone()
	return &out, nil
}

// List returns all records, applied and reversed, in application order.
func (m *Manager) List() []Record {
	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.clone())
	}
	return out
}

// Reset forgets all records. Lots are not touched.
func (m *Manager) Reset() {
	m.records = nil
}
