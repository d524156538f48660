package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"pxk/model"
)

type fakeStore struct {
	batch      []model.Record
	batchErr   error
	listed     []model.Record
	listErr    error
	batchCalls [][]string
	filters    []string
	pageSizes  []int
}

func (f *fakeStore) FetchBatch(ctx context.Context, ids []string) ([]model.Record, error) {
	f.batchCalls = append(f.batchCalls, ids)
	return f.batch, f.batchErr
}

func (f *fakeStore) FetchFiltered(ctx context.Context, filter string, pageSize int) ([]model.Record, error) {
	f.filters = append(f.filters, filter)
	f.pageSizes = append(f.pageSizes, pageSize)
	return f.listed, f.listErr
}

func links(ids ...string) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]any{"record_id": id, "text": "x"})
	}
	return out
}

func rec(id, code string) model.Record {
	return model.Record{RecordID: id, Fields: model.Fields{model.DetailMaVT: code}}
}

func codes(rows []model.Fields) string {
	s := ""
	for i, r := range rows {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprint(r[model.DetailMaVT])
	}
	return s
}

func TestResolve_LinkOrderPreserved(t *testing.T) {
	store := &fakeStore{batch: []model.Record{rec("c", "C"), rec("b", "B")}}
	master := model.Fields{model.MasterDetailLnk: links("a", "b", "c"), model.MasterSoPhieu: "PX-1"}

	res := NewDefault(store).Resolve(context.Background(), master)

	if got := codes(res.Details); got != "B,C" {
		t.Fatalf("want rows B,C in link order, got %q", got)
	}
	if res.Strategy != "link" {
		t.Fatalf("strategy = %q, want link", res.Strategy)
	}
	if len(store.batchCalls) != 1 || len(store.batchCalls[0]) != 3 {
		t.Fatalf("want one batch call with 3 ids, got %v", store.batchCalls)
	}
	if len(store.filters) != 0 {
		t.Fatalf("fallback must not run when links resolve, filters=%v", store.filters)
	}
}

func TestResolve_FallbackWhenNoLinks(t *testing.T) {
	store := &fakeStore{listed: []model.Record{rec("r1", "A"), rec("r2", "B"), rec("r3", "C")}}
	master := model.Fields{model.MasterSoPhieu: " PX-010 "}

	res := NewDefault(store).Resolve(context.Background(), master)

	if len(res.Details) != 3 {
		t.Fatalf("want 3 rows from fallback, got %d", len(res.Details))
	}
	if res.Strategy != "ticket_text" {
		t.Fatalf("strategy = %q", res.Strategy)
	}
	if len(store.batchCalls) != 0 {
		t.Fatalf("no batch call expected without links")
	}
	if len(store.filters) != 1 || store.filters[0] != `CurrentValue.[Số phiếu]="PX-010"` {
		t.Fatalf("want exactly one filtered query, got %v", store.filters)
	}
	if store.pageSizes[0] != 100 {
		t.Fatalf("page size = %d, want 100", store.pageSizes[0])
	}
}

func TestResolve_FallbackWhenBatchEmptyOrFails(t *testing.T) {
	for name, store := range map[string]*fakeStore{
		"empty batch":  {listed: []model.Record{rec("r1", "A")}},
		"failed batch": {batchErr: errors.New("boom"), listed: []model.Record{rec("r1", "A")}},
	} {
		t.Run(name, func(t *testing.T) {
			master := model.Fields{model.MasterDetailLnk: links("a"), model.MasterSoPhieu: "PX-2"}
			res := NewDefault(store).Resolve(context.Background(), master)
			if codes(res.Details) != "A" || res.Strategy != "ticket_text" {
				t.Fatalf("unexpected result %+v", res)
			}
			if len(store.batchCalls) != 1 || len(store.filters) != 1 {
				t.Fatalf("want one batch and one list call, got %d/%d", len(store.batchCalls), len(store.filters))
			}
		})
	}
}

func TestResolve_NoTicketNoLinks(t *testing.T) {
	store := &fakeStore{listed: []model.Record{rec("r1", "A")}}
	res := NewDefault(store).Resolve(context.Background(), model.Fields{model.MasterSoPhieu: "   "})

	if res.Details == nil || len(res.Details) != 0 {
		t.Fatalf("want empty non-nil rows, got %#v", res.Details)
	}
	if res.Strategy != "" {
		t.Fatalf("strategy = %q, want empty", res.Strategy)
	}
	if len(store.filters) != 0 || len(store.batchCalls) != 0 {
		t.Fatalf("no remote calls expected")
	}
}

func TestResolve_ListFailureDegrades(t *testing.T) {
	store := &fakeStore{listErr: errors.New("timeout")}
	res := NewDefault(store).Resolve(context.Background(), model.Fields{model.MasterSoPhieu: "PX-3"})
	if len(res.Details) != 0 {
		t.Fatalf("want no rows, got %d", len(res.Details))
	}
}

func TestLinkStrategy_CapsBatch(t *testing.T) {
	ids := make([]string, 0, 120)
	for i := 0; i < 120; i++ {
		ids = append(ids, fmt.Sprintf("rec%03d", i))
	}
	store := &fakeStore{batch: []model.Record{rec("rec000", "A")}}
	rows := (&LinkStrategy{Store: store}).Resolve(context.Background(), model.Fields{model.MasterDetailLnk: links(ids...)})

	if len(rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(rows))
	}
	if n := len(store.batchCalls[0]); n != 100 {
		t.Fatalf("batch should carry 100 ids, got %d", n)
	}
}

type staticStrategy struct {
	name string
	rows []model.Fields
	hit  *int
}

func (s staticStrategy) Name() string { return s.name }
func (s staticStrategy) Resolve(context.Context, model.Fields) []model.Fields {
	*s.hit++
	return s.rows
}

func TestResolver_StopsAtFirstNonEmpty(t *testing.T) {
	var first, second, third int
	r := New(
		staticStrategy{name: "one", hit: &first},
		staticStrategy{name: "two", rows: []model.Fields{{"k": "v"}}, hit: &second},
		staticStrategy{name: "three", rows: []model.Fields{{"k": "w"}}, hit: &third},
	)
	res := r.Resolve(context.Background(), model.Fields{})
	if res.Strategy != "two" || first != 1 || second != 1 || third != 0 {
		t.Fatalf("unexpected evaluation: strategy=%q hits=%d/%d/%d", res.Strategy, first, second, third)
	}
}
