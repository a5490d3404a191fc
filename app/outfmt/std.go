package outfmt

import (
	"fmt"
	"io"

	"github.com/tsiemens/psxtax/report"
)

type STDWriter struct {
	w io.Writer
}

func NewSTDWriter(w io.Writer) *STDWriter {
	return &STDWriter{
		w: w,
	}
}

func title(outType OutputType, name string) (string, error) {
	switch outType {
	case Holdings:
		return "Holdings", nil
	case Lots:
		return fmt.Sprintf("Lots for %s", name), nil
	case Transactions:
		return "Transactions", nil
	case RealizedGains:
		return "Realized Gains", nil
	case SaleTax:
		return fmt.Sprintf("Tax on sale of %s", name), nil
	case AggregateTax:
		return "Aggregate Tax", nil
	case CorporateActions:
		return "Corporate Actions", nil
	case WhatIfTiming:
		return fmt.Sprintf("Sale timing for %s", name), nil
	case WhatIfFiler:
		return fmt.Sprintf("Filer vs. non-filer for %s", name), nil
	}
	return "", fmt.Errorf("OutputType %v not implemented", outType)
}

// PrintRenderTable implements TableWriter.
func (w *STDWriter) PrintRenderTable(outType OutputType, name string, tableModel *report.RenderTable) error {
	t, err := title(outType, name)
	if err != nil {
		return err
	}
	report.PrintRenderTable(t, tableModel, w.w)
	_, err = fmt.Fprintln(w.w, "")
	return err
}
