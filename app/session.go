// Package app wires the ledger, tax calculator, corporate action manager and
// what-if engine into a session that is loaded from and saved to a store.
package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tsiemens/psxtax/config"
	"github.com/tsiemens/psxtax/corpaction"
	"github.com/tsiemens/psxtax/ledger"
	"github.com/tsiemens/psxtax/log"
	"github.com/tsiemens/psxtax/store"
	"github.com/tsiemens/psxtax/tax"
	"github.com/tsiemens/psxtax/whatif"
)

// DocumentKey is the store key the session document is saved under.
const DocumentKey = "portfolio"

// Document is the persisted session: the ledger snapshot plus corporate
// action history and filer status.
type Document struct {
	ledger.Snapshot
	CorporateActions []corpaction.RecordJSON `json:"corporateActions"`
	IsFiler          *bool                   `json:"isFiler,omitempty"`
}

func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// DecodeDocument reads a session document. A bare ledger snapshot is also
// accepted.
func DecodeDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrDecodeFailure, err)
	}
	return &doc, nil
}

type Session struct {
	Ledger  *ledger.Ledger
	Calc    *tax.Calculator
	Actions *corpaction.Manager
	WhatIf  *whatif.Engine

	kv     store.KV
	logger *log.Logger
}

func NewSession(cfg *config.Config, kv store.KV, logger *log.Logger) *Session {
	logger = log.OrSilent(logger)

	ledgerOpts := cfg.LedgerOptions()
	ledgerOpts.Logger = logger
	l := ledger.New(ledgerOpts)

	calc := tax.NewCalculator(cfg.TaxPolicy())
	calc.SetFilerStatus(cfg.Filer)

	return &Session{
		Ledger:  l,
		Calc:    calc,
		Actions: corpaction.NewManager(l, corpaction.Options{Logger: logger}),
		WhatIf:  whatif.NewEngine(l, calc),
		kv:      kv,
		logger:  logger,
	}
}

// Load restores the session from the store. A missing document leaves the
// session empty and returns a nil result.
func (s *Session) Load(ctx context.Context) (*ledger.ImportResult, error) {
	data, err := s.kv.Get(ctx, DocumentKey)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Debug().Msg("No saved session, starting empty")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	doc, err := DecodeDocument(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return s.apply(doc)
}

func (s *Session) Save(ctx context.Context) error {
	var buf bytes.Buffer
	if err := s.Document().Encode(&buf); err != nil {
		return err
	}
	return s.kv.Put(ctx, DocumentKey, buf.Bytes())
}

func (s *Session) Document() *Document {
	isFiler := s.Calc.IsFiler()
	return &Document{
		Snapshot:         *s.Ledger.ExportData(),
		CorporateActions: s.Actions.Export(),
		IsFiler:          &isFiler,
	}
}

// Export writes the session document as JSON.
func (s *Session) Export(w io.Writer) error {
	return s.Document().Encode(w)
}

// Import replaces the session state with a document read from r. Nothing is
// changed if the document cannot be decoded.
func (s *Session) Import(r io.Reader) (*ledger.ImportResult, error) {
	doc, err := DecodeDocument(r)
	if err != nil {
		return nil, err
	}
	return s.apply(doc)
}

func (s *Session) apply(doc *Document) (*ledger.ImportResult, error) {
	// Validate the corporate action records before touching the ledger.
	scratch := corpaction.NewManager(s.Ledger, corpaction.Options{})
	if err := scratch.Import(doc.CorporateActions); err != nil {
		return nil, err
	}
	res, err := s.Ledger.ImportData(&doc.Snapshot)
	if err != nil {
		return nil, err
	}
	if err := s.Actions.Import(doc.CorporateActions); err != nil {
		return nil, err
	}
	if doc.IsFiler != nil {
		s.Calc.SetFilerStatus(*doc.IsFiler)
	}
	for _, w := range res.Warnings {
		s.logger.Warn().Msg(w)
	}
	return res, nil
}

// Reset clears all ledger state and corporate action history. Filer status
// is kept.
func (s *Session) Reset() {
	s.Ledger.Reset()
	s.Actions.Reset()
}
