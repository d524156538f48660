// Package resolver finds the detail rows that belong to one issue slip.
package resolver

import (
	"context"
	"log"

	"pxk/bitable"
	"pxk/model"
	"pxk/normalize"
)

// DetailStore is the part of the detail table the strategies read from.
type DetailStore interface {
	FetchBatch(ctx context.Context, ids []string) ([]model.Record, error)
	FetchFiltered(ctx context.Context, filter string, pageSize int) ([]model.Record, error)
}

// Strategy is one way of locating detail rows for a master record.
// An empty result means "try the next strategy".
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, master model.Fields) []model.Fields
}

// Result is what the resolver hands to the assembler.
type Result struct {
	Details  []model.Fields
	Strategy string // empty when no strategy produced rows
}

// Resolver runs its strategies in order and keeps the first non-empty answer.
type Resolver struct {
	strategies []Strategy
}

func New(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// NewDefault links first, then falls back to the ticket number text match.
func NewDefault(store DetailStore) *Resolver {
	return New(
		&LinkStrategy{Store: store},
		&TicketTextStrategy{Store: store},
	)
}

// Resolve never fails; remote errors are logged by the strategies and read as "no rows".
func (r *Resolver) Resolve(ctx context.Context, master model.Fields) Result {
	for _, s := range r.strategies {
		if rows := s.Resolve(ctx, master); len(rows) > 0 {
			return Result{Details: rows, Strategy: s.Name()}
		}
	}
	return Result{Details: []model.Fields{}}
}

// LinkStrategy follows the master's link-record field with a single batch_get,
// returning rows in link order.
type LinkStrategy struct {
	Store DetailStore
	Field string // defaults to model.MasterDetailLnk
}

func (s *LinkStrategy) Name() string { return "link" }

func (s *LinkStrategy) Resolve(ctx context.Context, master model.Fields) []model.Fields {
	field := s.Field
	if field == "" {
		field = model.MasterDetailLnk
	}
	ids := normalize.LinkedIDs(master[field])
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > bitable.MaxBatchSize {
		log.Printf("WARN: %d linked details, only the first %d are fetched", len(ids), bitable.MaxBatchSize)
		ids = ids[:bitable.MaxBatchSize]
	}

	recs, err := s.Store.FetchBatch(ctx, ids)
	if err != nil {
		log.Printf("WARN: batch get details failed: %v", err)
		return nil
	}
	if len(recs) == 0 {
		log.Printf("WARN: batch get details returned empty for %d ids", len(ids))
		return nil
	}

	byID := make(map[string]model.Fields, len(recs))
	for _, rec := range recs {
		if rec.RecordID != "" {
			byID[rec.RecordID] = rec.Fields
		}
	}
	rows := make([]model.Fields, 0, len(ids))
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			rows = append(rows, f)
		}
	}
	return rows
}

// TicketTextStrategy lists detail rows whose ticket number column equals the
// master's ticket number. Only the first page (100 rows) is read.
type TicketTextStrategy struct {
	Store       DetailStore
	MasterField string // defaults to model.MasterSoPhieu
	DetailField string // defaults to model.DetailSoPhieu
}

func (s *TicketTextStrategy) Name() string { return "ticket_text" }

func (s *TicketTextStrategy) Resolve(ctx context.Context, master model.Fields) []model.Fields {
	masterField, detailField := s.MasterField, s.DetailField
	if masterField == "" {
		masterField = model.MasterSoPhieu
	}
	if detailField == "" {
		detailField = model.DetailSoPhieu
	}

	soPhieu := normalize.Text(master[masterField])
	if soPhieu == "" {
		return nil
	}

	recs, err := s.Store.FetchFiltered(ctx, bitable.EqualsFilter(detailField, soPhieu), bitable.MaxPageSize)
	if err != nil {
		log.Printf("WARN: list details by so phieu %q failed: %v", soPhieu, err)
		return nil
	}
	rows := make([]model.Fields, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, rec.Fields)
	}
	return rows
}
