package outfmt

import (
	"encoding/csv"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/tsiemens/psxtax/report"
)

type CSVWriter struct {
	OutDir string
}

func fileName(outType OutputType, name string) (string, error) {
	slug := strings.ToLower(name)
	switch outType {
	case Holdings:
		return "holdings.csv", nil
	case Lots:
		return fmt.Sprintf("lots-%s.csv", slug), nil
	case Transactions:
		return "transactions.csv", nil
	case RealizedGains:
		return "realized-gains.csv", nil
	case SaleTax:
		return fmt.Sprintf("sale-tax-%s.csv", slug), nil
	case AggregateTax:
		return "aggregate-tax.csv", nil
	case CorporateActions:
		return "corporate-actions.csv", nil
	case WhatIfTiming:
		return fmt.Sprintf("whatif-timing-%s.csv", slug), nil
	case WhatIfFiler:
		return fmt.Sprintf("whatif-filer-%s.csv", slug), nil
	}
	return "", fmt.Errorf("OutputType %v not implemented", outType)
}

// PrintRenderTable implements TableWriter.
func (w *CSVWriter) PrintRenderTable(outType OutputType, name string, tableModel *report.RenderTable) error {
	fn, err := fileName(outType, name)
	if err != nil {
		return err
	}

	fp, err := os.Create(path.Join(w.OutDir, fn))
	if err != nil {
		return fmt.Errorf("Create file %q: %w", fn, err)
	}
	defer fp.Close()

	csvWriter := csv.NewWriter(fp)

	if err := csvWriter.Write(tableModel.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range tableModel.Rows {
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	if len(tableModel.Footer) > 0 {
		if err := csvWriter.Write(tableModel.Footer); err != nil {
			return fmt.Errorf("write footer: %w", err)
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	for _, note := range tableModel.Notes {
		fmt.Fprintln(fp, note)
	}
	return nil
}

func NewCSVWriter(outDir string) (*CSVWriter, error) {
	if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("Creating CSV output directory: %w", err)
	}
	return &CSVWriter{OutDir: outDir}, nil
}
