package store

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
)

// fakeTxNoPing satisfies TxRunner but not Pinger
type fakeTxNoPing struct{}

func (f *fakeTxNoPing) Tx(context.Context, func(q RowQuerier) error) error { return nil }
func (f *fakeTxNoPing) Exec(context.Context, string, ...any) (CommandTag, error) {
	return fakeTag(0), nil
}
func (f *fakeTxNoPing) Query(context.Context, string, ...any) (Rows, error) { return newRows(), nil }
func (f *fakeTxNoPing) QueryRow(context.Context, string, ...any) Row     { return errRow{} }

// fakeTxWithPing satisfies TxRunner and Pinger
type fakeTxWithPing struct {
	fakeTxNoPing
	err    error
	closed bool
}

func (f *fakeTxWithPing) Ping(context.Context) error { return f.err }
func (f *fakeTxWithPing) Close() error               { f.closed = true; return nil }

func TestGuard_NilStore(t *testing.T) {
	t.Parallel()

	var s *Store
	if err := s.Guard(context.Background()); err == nil {
		t.Fatalf("nil store should return error")
	}
}

func TestGuard_PG(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	if err := (&Store{PG: &fakeTxNoPing{}}).Guard(ctx); err != nil {
		t.Fatalf("non-pinger PG should be ignored, got %v", err)
	}
	if err := (&Store{PG: &fakeTxWithPing{}}).Guard(ctx); err != nil {
		t.Fatalf("healthy PG: %v", err)
	}
	err := (&Store{PG: &fakeTxWithPing{err: errors.New("boom")}}).Guard(ctx)
	if err == nil || !strings.HasPrefix(err.Error(), "pg: ") {
		t.Fatalf("expected pg-prefixed error, got %v", err)
	}
}

func TestGuard_JoinsEveryBackend(t *testing.T) {
	t.Parallel()

	srv := esStub(t, http.StatusInternalServerError)
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	if err != nil {
		t.Fatalf("es client: %v", err)
	}

	s := &Store{
		PG:    &fakeTxWithPing{err: errors.New("pg down")},
		CH:    newCHAdapter(&fakeCHClient{pingErr: errors.New("ch down")}),
		Redis: deadRedis(),
		ES:    es,
	}
	defer func() { _ = s.Redis.Close() }()

	err = s.Guard(context.Background())
	if err == nil {
		t.Fatalf("expected joined error")
	}
	for _, want := range []string{"pg: ", "ch: ", "redis: ", "es: "} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("guard error missing %q: %v", want, err)
		}
	}
}

func TestClose_ClosesBackends(t *testing.T) {
	t.Parallel()

	pg := &fakeTxWithPing{}
	chc := &fakeCHClient{}
	s := &Store{PG: pg, CH: newCHAdapter(chc)}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !pg.closed || !chc.closed {
		t.Fatalf("backends not closed: pg=%v ch=%v", pg.closed, chc.closed)
	}

	var nilStore *Store
	if err := nilStore.Close(context.Background()); err != nil {
		t.Fatalf("nil store Close should be a no-op")
	}
}
