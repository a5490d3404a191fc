package corpaction

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tsiemens/psxtax/date"
	"github.com/tsiemens/psxtax/ledger"
)

// RecordJSON is the persisted form of a Record.
type RecordJSON struct {
	ID                string             `json:"id"`
	Type              ActionType         `json:"type"`
	Symbol            string             `json:"symbol"`
	ExDate            date.Date          `json:"exDate"`
	AppliedAt         time.Time          `json:"appliedAt"`
	Ratio             string             `json:"ratio"`
	SubscriptionPrice decimal.Decimal    `json:"subscriptionPrice"`
	SubscriptionDate  date.Date          `json:"subscriptionDate"`
	Applied           bool               `json:"applied"`
	PreActionLots     []ledger.LotRecord `json:"preActionLots"`
	PostActionLots    []ledger.LotRecord `json:"postActionLots,omitempty"`
	SharesAdded       decimal.Decimal    `json:"sharesAdded"`
	CostAdded         decimal.Decimal    `json:"costAdded"`
	Summary           string             `json:"summary"`
}

func (m *Manager) Export() []RecordJSON {
	out := make([]RecordJSON, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, RecordJSON{
			ID:                r.ID,
			Type:              r.Type,
			Symbol:            r.Symbol,
			ExDate:            r.ExDate,
			AppliedAt:         r.AppliedAt,
			Ratio:             r.RatioText,
			SubscriptionPrice: r.SubscriptionPrice,
			SubscriptionDate:  r.SubscriptionDate,
			Applied:           r.Applied,
			PreActionLots:     ledger.EncodeLots(r.PreActionLots),
			PostActionLots:    encodeOptLots(r.PostActionLots),
			SharesAdded:       r.SharesAdded,
			CostAdded:         r.CostAdded,
			Summary:           r.Summary,
		})
	}
	return out
}

// Import replaces the manager's records. Lots are not touched; they are
// restored with the ledger. On error the manager is unchanged.
func (m *Manager) Import(records []RecordJSON) error {
	decoded := make([]Record, 0, len(records))
	seen := map[string]bool{}
	for i, r := range records {
		if r.ID == "" || seen[r.ID] {
			return fmt.Errorf("%w: corporate action %d has a missing or duplicate id",
				ledger.ErrDecodeFailure, i)
		}
		seen[r.ID] = true
		ratio, err := ParseRatio(r.Ratio)
		if err != nil {
			return fmt.Errorf("%w: corporate action %s: %v", ledger.ErrDecodeFailure, r.ID, err)
		}
		lots, _, err := ledger.DecodeLots(r.PreActionLots)
		if err != nil {
			return fmt.Errorf("corporate action %s: %w", r.ID, err)
		}
		var postLots []ledger.Lot
		if r.PostActionLots != nil {
			if postLots, _, err = ledger.DecodeLots(r.PostActionLots); err != nil {
				return fmt.Errorf("corporate action %s: %w", r.ID, err)
			}
		}
		decoded = append(decoded, Record{
			ID:                r.ID,
			Type:              r.Type,
			Symbol:            ledger.NormalizeSymbol(r.Symbol),
			ExDate:            r.ExDate,
			AppliedAt:         r.AppliedAt,
			RatioText:         r.Ratio,
			Ratio:             ratio,
			SubscriptionPrice: r.SubscriptionPrice,
			SubscriptionDate:  r.SubscriptionDate,
			Applied:           r.Applied,
			PreActionLots:     lots,
			PostActionLots:    postLots,
			SharesAdded:       r.SharesAdded,
			CostAdded:         r.CostAdded,
			Summary:           r.Summary,
		})
	}
	m.records = decoded
	return nil
}

func encodeOptLots(lots []ledger.Lot) []ledger.LotRecord {
	if lots == nil {
		return nil
	}
	return ledger.EncodeLots(lots)
}
