package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"lexiscan/internal/platform/testkit"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dsn = "postgres://lexiscan:secret@db:5432/lexiscan?sslmode=disable"

func TestOpen_BadURL(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{URL: "://nope"}, nil, nil); err == nil {
		t.Fatalf("unparsable url should fail")
	}
}

func TestOpen_PoolFailure(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &newPool, func(context.Context, *pgxpool.Config) (*pgxpool.Pool, error) {
		return nil, errors.New("pool refused")
	})

	if _, err := Open(context.Background(), Config{URL: dsn}, nil, nil); err == nil {
		t.Fatalf("pool error should surface")
	}
}

func TestOpen_AppliesConfig(t *testing.T) {
	testkit.Serial(t)

	var seen *pgxpool.Config
	testkit.Swap(t, &newPool, func(_ context.Context, pc *pgxpool.Config) (*pgxpool.Pool, error) {
		seen = pc
		return &pgxpool.Pool{}, nil
	})

	cfg := Config{URL: dsn, MaxConns: 3, SlowMs: 250, AppName: "lexiscan-extract"}
	p, err := Open(context.Background(), cfg, nil, func(pc *pgxpool.Config) {
		pc.MaxConnIdleTime = time.Minute
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if seen.MaxConns != 3 {
		t.Fatalf("MaxConns = %d", seen.MaxConns)
	}
	if got := seen.ConnConfig.RuntimeParams["application_name"]; got != "lexiscan-extract" {
		t.Fatalf("application_name = %q", got)
	}
	if seen.MaxConnIdleTime != time.Minute {
		t.Fatalf("mutator not applied")
	}
	if p.SlowMs != 250 || p.Pool == nil {
		t.Fatalf("client = %+v", p)
	}
}

func TestClose_NilSafe(t *testing.T) {
	t.Parallel()

	var p *PG
	p.Close()
	(&PG{}).Close()
}
