package store

import (
	"context"
	"errors"
	"testing"

	"lexiscan/internal/platform/store/ch"
)

type fakeCHRows struct {
	cols   []string
	data   [][]any
	idx    int
	closed bool
}

func (r *fakeCHRows) Next() bool { r.idx++; return r.idx <= len(r.data) }
func (r *fakeCHRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	for i := range dest {
		if p, ok := dest[i].(*string); ok {
			*p, _ = row[i].(string)
		}
	}
	return nil
}
func (r *fakeCHRows) Err() error        { return nil }
func (r *fakeCHRows) Close() error      { r.closed = true; return nil }
func (r *fakeCHRows) Columns() []string { return r.cols }

type fakeCHClient struct {
	table    string
	inserted [][]any
	exec     string
	rows     *fakeCHRows
	queryErr error
	pingErr  error
	closed   bool
}

func (f *fakeCHClient) Insert(_ context.Context, table string, rows [][]any) error {
	f.table = table
	f.inserted = append(f.inserted, rows...)
	return nil
}
func (f *fakeCHClient) Exec(_ context.Context, sql string, _ ...any) error { f.exec = sql; return nil }
func (f *fakeCHClient) Query(context.Context, string, ...any) (ch.Rows, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rows, nil
}
func (f *fakeCHClient) Ping(context.Context) error { return f.pingErr }
func (f *fakeCHClient) Close() error               { f.closed = true; return nil }

func TestCHAdapter_Delegates(t *testing.T) {
	t.Parallel()

	fc := &fakeCHClient{rows: &fakeCHRows{cols: []string{"prefix"}, data: [][]any{{"ab"}, {"ac"}}}}
	a := newCHAdapter(fc)
	ctx := context.Background()

	if err := a.Insert(ctx, "lexiscan_probes", [][]any{{"v1", "ab"}}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if fc.table != "lexiscan_probes" || len(fc.inserted) != 1 {
		t.Fatalf("insert not delegated: %q %v", fc.table, fc.inserted)
	}
	if err := a.Exec(ctx, "CREATE TABLE x"); err != nil || fc.exec != "CREATE TABLE x" {
		t.Fatalf("exec not delegated")
	}

	rows, err := a.Query(ctx, "SELECT prefix FROM lexiscan_probes")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if cols := rows.Columns(); len(cols) != 1 || cols[0] != "prefix" {
		t.Fatalf("columns = %v", cols)
	}
	var got []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, s)
	}
	rows.Close()
	if len(got) != 2 || got[0] != "ab" || got[1] != "ac" || !fc.rows.closed {
		t.Fatalf("rows mismatch %v closed=%v", got, fc.rows.closed)
	}

	if err := a.Close(); err != nil || !fc.closed {
		t.Fatalf("close not delegated")
	}
}

func TestCHAdapter_QueryErrorAndPing(t *testing.T) {
	t.Parallel()

	fc := &fakeCHClient{queryErr: errors.New("syntax"), pingErr: errors.New("down")}
	a := newCHAdapter(fc)
	if _, err := a.Query(context.Background(), "SELEC"); err == nil {
		t.Fatalf("expected query error")
	}
	p, ok := a.(Pinger)
	if !ok {
		t.Fatalf("adapter should be a Pinger")
	}
	if err := p.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error")
	}

	var nilAdapter *clickhouseAdapter
	if err := nilAdapter.Ping(context.Background()); err == nil {
		t.Fatalf("nil adapter ping should fail")
	}
}
