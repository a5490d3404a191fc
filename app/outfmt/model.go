package outfmt

import (
	"github.com/tsiemens/psxtax/report"
)

type OutputType int

const (
	Holdings OutputType = iota
	Lots
	Transactions
	RealizedGains
	SaleTax
	AggregateTax
	CorporateActions
	WhatIfTiming
	WhatIfFiler
)

type TableWriter interface {
	PrintRenderTable(outType OutputType, name string, tableModel *report.RenderTable) error
}
