package ledger_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tsiemens/psxtax/date"
	decimal_opt "github.com/tsiemens/psxtax/decimal_value"
	"github.com/tsiemens/psxtax/ledger"
	"github.com/tsiemens/psxtax/testlib"
)

var (
	mkDate   = testlib.MkDate
	dec      = testlib.Dec
	fee      = testlib.Fee
	decEqual = testlib.DecEqual
	noFee    = decimal_opt.Zero
)

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newLedger() *ledger.Ledger {
	opts := ledger.DefaultOptions()
	opts.Now = func() time.Time { return fixedNow }
	return ledger.New(opts)
}

func buy(t *testing.T, l *ledger.Ledger, symbol, qty, price string, d date.Date, f decimal_opt.DecimalOpt) *ledger.Transaction {
	t.Helper()
	tx, sale, err := l.AddTransaction(ledger.BUY, symbol, dec(qty), dec(price), d, f)
	require.NoError(t, err)
	require.Nil(t, sale)
	return tx
}

func sell(t *testing.T, l *ledger.Ledger, symbol, qty, price string, d date.Date, f decimal_opt.DecimalOpt) *ledger.RealizedSale {
	t.Helper()
	_, sale, err := l.AddTransaction(ledger.SELL, symbol, dec(qty), dec(price), d, f)
	require.NoError(t, err)
	require.NotNil(t, sale)
	return sale
}

func TestNetPrices(t *testing.T) {
	decEqual(t, "160.8", ledger.NetBuyPrice(dec("160"), dec("0.5")))
	decEqual(t, "223.875", ledger.NetSellPrice(dec("225"), dec("0.5")))
	decEqual(t, "100", ledger.NetBuyPrice(dec("100"), dec("0")))
	decEqual(t, "100", ledger.NetSellPrice(dec("100"), dec("0")))
}

func TestBuyAndSellWithFees(t *testing.T) {
	rq := require.New(t)
	l := newLedger()

	// Monday trade settles Wednesday.
	tx := buy(t, l, "ogdc", "100", "160", mkDate(2023, 1, 2), fee("0.5"))
	rq.Equal(int64(1), tx.ID)
	rq.Equal("OGDC", tx.Symbol)
	rq.Equal(mkDate(2023, 1, 4), tx.SettlementDate)
	decEqual(t, "160.8", tx.NetPrice)
	rq.Equal(fixedNow, tx.Timestamp)

	h, ok := l.Holding("OGDC")
	rq.True(ok)
	decEqual(t, "100", h.Quantity)
	decEqual(t, "16080", h.TotalCostBasis)
	decEqual(t, "160.8", h.AverageCost)

	// Friday trade settles Tuesday.
	sale := sell(t, l, "OGDC", "100", "225", mkDate(2024, 3, 1), fee("0.5"))
	rq.Equal(mkDate(2024, 3, 5), sale.SaleDate)
	rq.Equal(mkDate(2024, 3, 1), sale.TradeDate)
	rq.Equal(int64(2), sale.TransactionID)
	rq.False(sale.Simulated)
	decEqual(t, "223.875", sale.SellPrice)
	decEqual(t, "225", sale.GrossSellPrice)
	decEqual(t, "22387.5", sale.SaleProceeds)
	decEqual(t, "16080", sale.TotalCostBasis)
	decEqual(t, "6307.5", sale.CapitalGain)

	rq.Len(sale.LotsUsed, 1)
	lot := sale.LotsUsed[0]
	rq.Equal(mkDate(2023, 1, 4), lot.PurchaseDate)
	rq.Equal(426, lot.HoldingPeriod.Days)
	rq.True(lot.HoldingPeriod.IsLongTerm)
	decEqual(t, "160.8", lot.CostPerUnit)
	decEqual(t, "160", lot.GrossCostPerUnit)
	rq.Equal(int64(1), lot.TransactionID)

	// Fully consumed lots are gone.
	_, ok = l.Holding("OGDC")
	rq.False(ok)
	rq.Empty(l.Holdings())
	rq.Empty(l.Lots("OGDC"))
	rq.Len(l.Transactions(), 2)
	rq.Len(l.RealizedGains(), 1)
}

func TestFIFOConsumption(t *testing.T) {
	rq := require.New(t)
	l := newLedger()

	buy(t, l, "HBL", "100", "10", mkDate(2024, 1, 2), noFee)
	buy(t, l, "HBL", "50", "12", mkDate(2024, 2, 1), noFee)

	sale := sell(t, l, "HBL", "120", "15", mkDate(2024, 3, 1), noFee)
	rq.Len(sale.LotsUsed, 2)
	decEqual(t, "100", sale.LotsUsed[0].Quantity)
	decEqual(t, "1000", sale.LotsUsed[0].CostBasis)
	decEqual(t, "20", sale.LotsUsed[1].Quantity)
	decEqual(t, "240", sale.LotsUsed[1].CostBasis)
	decEqual(t, "1240", sale.TotalCostBasis)
	decEqual(t, "1800", sale.SaleProceeds)
	decEqual(t, "560", sale.CapitalGain)

	lots := l.Lots("HBL")
	rq.Len(lots, 1)
	decEqual(t, "30", lots[0].Quantity)
	decEqual(t, "12", lots[0].NetPrice)
	rq.Equal(int64(2), lots[0].TransactionID)

	// Gain is the sum of the per-lot gains.
	total := dec("0")
	for _, c := range sale.LotsUsed {
		total = total.Add(c.Gain(sale.SellPrice))
	}
	rq.True(total.Equal(sale.CapitalGain))
}

func TestLotsStayInSettlementOrder(t *testing.T) {
	rq := require.New(t)
	l := newLedger()

	buy(t, l, "LUCK", "10", "700", mkDate(2024, 3, 4), noFee)
	buy(t, l, "LUCK", "10", "600", mkDate(2024, 1, 2), noFee)
	buy(t, l, "LUCK", "10", "650", mkDate(2024, 3, 4), noFee)

	lots := l.Lots("LUCK")
	rq.Len(lots, 3)
	decEqual(t, "600", lots[0].GrossPrice)
	decEqual(t, "700", lots[1].GrossPrice)
	decEqual(t, "650", lots[2].GrossPrice)

	sale := sell(t, l, "LUCK", "15", "800", mkDate(2024, 4, 1), noFee)
	decEqual(t, "600", sale.LotsUsed[0].CostPerUnit)
	decEqual(t, "700", sale.LotsUsed[1].CostPerUnit)
	decEqual(t, "5", sale.LotsUsed[1].Quantity)
}

func TestSellFailuresLeaveLedgerUnchanged(t *testing.T) {
	rq := require.New(t)
	crq := testlib.NewCustomRequire(t)
	l := newLedger()

	buy(t, l, "ENGRO", "30", "300", mkDate(2024, 1, 2), noFee)
	before := l.Holdings()
	beforeTxs := l.Transactions()

	_, _, err := l.AddTransaction(ledger.SELL, "ENGRO", dec("31"), dec("320"), mkDate(2024, 2, 1), noFee)
	rq.ErrorIs(err, ledger.ErrInsufficientHoldings)

	_, _, err = l.AddTransaction(ledger.SELL, "PSO", dec("1"), dec("320"), mkDate(2024, 2, 1), noFee)
	rq.ErrorIs(err, ledger.ErrInsufficientHoldings)
	rq.Contains(err.Error(), "no holdings of PSO")

	_, err = l.CalculateSale("ENGRO", dec("100"), dec("320"), mkDate(2024, 2, 1), noFee)
	rq.ErrorIs(err, ledger.ErrInsufficientHoldings)

	crq.Equal(before, l.Holdings())
	crq.Equal(beforeTxs, l.Transactions())
	rq.Empty(l.RealizedGains())

	// Failed transactions do not consume ids.
	tx := buy(t, l, "ENGRO", "1", "300", mkDate(2024, 1, 3), noFee)
	rq.Equal(int64(2), tx.ID)
}

func TestInvalidInput(t *testing.T) {
	rq := require.New(t)
	l := newLedger()
	d := mkDate(2024, 1, 2)

	for _, tc := range []struct {
		symbol, qty, price string
		d                  date.Date
	}{
		{"", "10", "100", d},
		{"  ", "10", "100", d},
		{"OGDC", "0", "100", d},
		{"OGDC", "-5", "100", d},
		{"OGDC", "10", "0", d},
		{"OGDC", "10", "-1", d},
		{"OGDC", "10", "100", date.Date{}},
	} {
		_, _, err := l.AddTransaction(ledger.BUY, tc.symbol, dec(tc.qty), dec(tc.price), tc.d, noFee)
		rq.ErrorIs(err, ledger.ErrInvalidInput, "%+v", tc)
	}
	rq.Empty(l.Transactions())
}

func TestFeeDefaults(t *testing.T) {
	rq := require.New(t)
	l := newLedger()

	decEqual(t, "0.5", l.FeeOrDefault(decimal_opt.Null))
	decEqual(t, "0.5", l.FeeOrDefault(fee("-1")))
	decEqual(t, "0", l.FeeOrDefault(decimal_opt.Zero))
	decEqual(t, "0.15", l.FeeOrDefault(fee("0.15")))

	tx := buy(t, l, "MCB", "10", "200", mkDate(2024, 1, 2), decimal_opt.Null)
	decEqual(t, "0.5", tx.FeePercent)
	decEqual(t, "201", tx.NetPrice)

	opts := ledger.DefaultOptions()
	opts.DefaultFeePercent = dec("0.15")
	l2 := ledger.New(opts)
	rq.True(l2.FeeOrDefault(decimal_opt.Null).Equal(dec("0.15")))
}

func TestHigherSellFeeLowersGain(t *testing.T) {
	rq := require.New(t)
	l := newLedger()
	buy(t, l, "UBL", "100", "150", mkDate(2024, 1, 2), fee("0.5"))

	prev, err := l.CalculateSale("UBL", dec("100"), dec("180"), mkDate(2024, 5, 2), fee("0"))
	rq.NoError(err)
	for _, f := range []string{"0.1", "0.5", "1", "2.5"} {
		s, err := l.CalculateSale("UBL", dec("100"), dec("180"), mkDate(2024, 5, 2), fee(f))
		rq.NoError(err)
		rq.True(s.CapitalGain.LessThan(prev.CapitalGain), "fee %s", f)
		prev = s
	}
}

func TestCalculateSaleDoesNotMutate(t *testing.T) {
	rq := require.New(t)
	crq := testlib.NewCustomRequire(t)
	l := newLedger()

	buy(t, l, "OGDC", "100", "160", mkDate(2023, 1, 2), fee("0.5"))
	buy(t, l, "OGDC", "50", "170", mkDate(2023, 6, 1), fee("0.5"))
	before := l.Holdings()

	sim, err := l.CalculateSale("OGDC", dec("120"), dec("225"), mkDate(2024, 3, 1), fee("0.5"))
	rq.NoError(err)
	rq.True(sim.Simulated)
	rq.Len(sim.LotsUsed, 2)
	rq.Equal(int64(0), sim.TransactionID)

	crq.Equal(before, l.Holdings())
	rq.Len(l.Transactions(), 2)
	rq.Empty(l.RealizedGains())

	// The recorded sale matches the simulation.
	recorded := sell(t, l, "OGDC", "120", "225", mkDate(2024, 3, 1), fee("0.5"))
	rq.True(sim.CapitalGain.Equal(recorded.CapitalGain))
	crq.Equal(sim.LotsUsed, recorded.LotsUsed)
}

func TestSharesAreConserved(t *testing.T) {
	rq := require.New(t)
	l := newLedger()

	buy(t, l, "FFC", "40", "100", mkDate(2024, 1, 2), noFee)
	buy(t, l, "FFC", "60", "110", mkDate(2024, 1, 9), noFee)
	sell(t, l, "FFC", "25", "120", mkDate(2024, 2, 1), noFee)
	buy(t, l, "FFC", "10", "105", mkDate(2024, 2, 5), noFee)
	sell(t, l, "FFC", "70", "125", mkDate(2024, 3, 1), noFee)

	bought, sold := dec("0"), dec("0")
	for _, tx := range l.Transactions() {
		if tx.Type == ledger.BUY {
			bought = bought.Add(tx.Quantity)
		} else {
			sold = sold.Add(tx.Quantity)
		}
	}
	h, ok := l.Holding("FFC")
	rq.True(ok)
	rq.True(h.Quantity.Equal(bought.Sub(sold)))
	decEqual(t, "15", h.Quantity)
}

func TestSetLots(t *testing.T) {
	rq := require.New(t)
	l := newLedger()

	lots := []ledger.Lot{
		{Quantity: dec("5"), NetPrice: dec("10"), GrossPrice: dec("10"), SettlementDate: mkDate(2024, 2, 1)},
		{Quantity: dec("0"), NetPrice: dec("10"), GrossPrice: dec("10"), SettlementDate: mkDate(2024, 1, 15)},
		{Quantity: dec("3"), NetPrice: dec("9"), GrossPrice: dec("9"), SettlementDate: mkDate(2024, 1, 1)},
	}
	rq.NoError(l.SetLots("sys", lots))
	got := l.Lots("SYS")
	rq.Len(got, 2)
	rq.Equal(mkDate(2024, 1, 1), got[0].SettlementDate)
	rq.Equal(mkDate(2024, 2, 1), got[1].SettlementDate)

	// The ledger keeps its own copy.
	got[0].Quantity = dec("1000")
	decEqual(t, "3", l.Lots("SYS")[0].Quantity)

	err := l.SetLots("SYS", []ledger.Lot{{Quantity: dec("-1"), SettlementDate: mkDate(2024, 1, 1)}})
	rq.ErrorIs(err, ledger.ErrInvalidInput)
	rq.Len(l.Lots("SYS"), 2)

	rq.NoError(l.SetLots("SYS", nil))
	_, ok := l.Holding("SYS")
	rq.False(ok)
}

func TestReset(t *testing.T) {
	rq := require.New(t)
	l := newLedger()
	buy(t, l, "OGDC", "10", "100", mkDate(2024, 1, 2), noFee)
	sell(t, l, "OGDC", "5", "110", mkDate(2024, 2, 1), noFee)

	l.Reset()
	rq.Empty(l.Holdings())
	rq.Empty(l.Transactions())
	rq.Empty(l.RealizedGains())
	tx := buy(t, l, "OGDC", "10", "100", mkDate(2024, 1, 2), noFee)
	rq.Equal(int64(1), tx.ID)
}

func TestCumulativeCapitalGains(t *testing.T) {
	rq := require.New(t)
	l := newLedger()
	buy(t, l, "OGDC", "100", "100", mkDate(2023, 1, 2), noFee)
	sell(t, l, "OGDC", "10", "120", mkDate(2023, 6, 1), noFee)
	sell(t, l, "OGDC", "10", "90", mkDate(2024, 6, 3), noFee)
	sell(t, l, "OGDC", "10", "130", mkDate(2024, 7, 1), noFee)

	gains := ledger.CalcCumulativeCapitalGains(l.RealizedGains())
	rq.Equal([]int{2023, 2024}, gains.CapitalGainsYearTotalsKeysSorted())
	decEqual(t, "200", gains.CapitalGainsYearTotals[2023])
	decEqual(t, "200", gains.CapitalGainsYearTotals[2024])
	decEqual(t, "400", gains.CapitalGainsTotal)
}

func TestExportImportRoundTrip(t *testing.T) {
	rq := require.New(t)
	crq := testlib.NewCustomRequire(t)
	l := newLedger()

	buy(t, l, "OGDC", "100", "160", mkDate(2023, 1, 2), fee("0.5"))
	buy(t, l, "OGDC", "50", "170.25", mkDate(2023, 6, 1), fee("0.15"))
	buy(t, l, "HBL", "200", "95.5", mkDate(2024, 2, 1), fee("0.5"))
	sell(t, l, "OGDC", "120", "225", mkDate(2024, 3, 1), fee("0.5"))

	var buf bytes.Buffer
	rq.NoError(l.ExportData().Encode(&buf))

	snap, err := ledger.DecodeSnapshot(&buf)
	rq.NoError(err)
	rq.Equal(ledger.SnapshotVersion, snap.Version)

	l2 := newLedger()
	res, err := l2.ImportData(snap)
	rq.NoError(err)
	rq.False(res.VersionMismatch)
	rq.Zero(res.MigratedLots)
	rq.Zero(res.MigratedSales)
	rq.Empty(res.Warnings)

	crq.Equal(l.Holdings(), l2.Holdings())
	crq.Equal(l.Transactions(), l2.Transactions())
	crq.Equal(l.RealizedGains(), l2.RealizedGains())

	// Ids resume after the highest imported id.
	tx := buy(t, l2, "HBL", "1", "95", mkDate(2024, 3, 1), noFee)
	rq.Equal(int64(5), tx.ID)
}

const legacySnapshot = `{
  "version": 1,
  "holdings": {
    "ogdc": [
      {"quantity": 100, "price": 160, "feePercent": 0.5,
       "purchaseDate": "2023-01-04", "tradeDate": "2023-01-02", "transactionId": 1}
    ]
  },
  "transactions": [
    {"id": 1, "type": "BUY", "symbol": "ogdc", "quantity": 100, "price": 160,
     "feePercent": 0.5, "tradeDate": "2023-01-02", "settlementDate": "2023-01-04",
     "timestamp": "2023-01-02T10:00:00Z"}
  ],
  "realizedGains": [
    {"symbol": "HBL", "quantitySold": 10, "sellPrice": 100, "feePercent": 0.5,
     "saleProceeds": 1000, "totalCostBasis": 800, "capitalGain": 200,
     "saleDate": "2024-03-05T00:00:00.000Z", "tradeDate": "2024-03-01",
     "lotsUsed": [{"purchaseDate": "2023-01-04", "quantity": 10, "costPerUnit": 80, "costBasis": 800}],
     "transactionId": 2}
  ]
}`

func TestImportLegacySnapshot(t *testing.T) {
	rq := require.New(t)
	l := newLedger()

	snap, err := ledger.DecodeSnapshot(strings.NewReader(legacySnapshot))
	rq.NoError(err)
	res, err := l.ImportData(snap)
	rq.NoError(err)

	rq.True(res.VersionMismatch)
	rq.Equal(1, res.Version)
	rq.Equal(1, res.MigratedLots)
	rq.Equal(1, res.MigratedSales)

	h, ok := l.Holding("OGDC")
	rq.True(ok)
	rq.Len(h.Lots, 1)
	decEqual(t, "160", h.Lots[0].GrossPrice)
	decEqual(t, "160.8", h.Lots[0].NetPrice)
	decEqual(t, "16080", h.TotalCostBasis)

	txs := l.Transactions()
	rq.Len(txs, 1)
	rq.Equal("OGDC", txs[0].Symbol)
	decEqual(t, "160.8", txs[0].NetPrice)

	sales := l.RealizedGains()
	rq.Len(sales, 1)
	s := sales[0]
	decEqual(t, "100", s.GrossSellPrice)
	decEqual(t, "99.5", s.SellPrice)
	decEqual(t, "995", s.SaleProceeds)
	decEqual(t, "800", s.TotalCostBasis)
	decEqual(t, "195", s.CapitalGain)
	rq.Equal(mkDate(2024, 3, 5), s.SaleDate)
	rq.Equal(426, s.LotsUsed[0].HoldingPeriod.Days)
	decEqual(t, "80", s.LotsUsed[0].GrossCostPerUnit)

	// The stale stored gain is reported.
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "recomputed as 195") {
			found = true
		}
	}
	rq.True(found, "%v", res.Warnings)

	tx := buy(t, l, "OGDC", "1", "100", mkDate(2024, 3, 1), noFee)
	rq.Equal(int64(3), tx.ID)
}

func TestImportFailures(t *testing.T) {
	rq := require.New(t)
	crq := testlib.NewCustomRequire(t)

	_, err := ledger.DecodeSnapshot(strings.NewReader("{not json"))
	rq.ErrorIs(err, ledger.ErrDecodeFailure)

	l := newLedger()
	buy(t, l, "OGDC", "10", "100", mkDate(2024, 1, 2), noFee)
	before := l.Holdings()

	snap, err := ledger.DecodeSnapshot(strings.NewReader(
		`{"version": 2, "holdings": {"HBL": [{"quantity": 5, "purchaseDate": "2024-01-04"}]}}`))
	rq.NoError(err)
	_, err = l.ImportData(snap)
	rq.ErrorIs(err, ledger.ErrDecodeFailure)

	_, err = l.ImportData(nil)
	rq.ErrorIs(err, ledger.ErrDecodeFailure)

	crq.Equal(before, l.Holdings())
	rq.Len(l.Transactions(), 1)
}
