package config

import (
	"testing"
	"time"

	kit "lexiscan/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	root := New()
	ex := root.Prefix("LEXISCAN_")
	if got := ex.key("WORKERS"); got != "LEXISCAN_WORKERS" {
		t.Fatalf("key() = %q, want %q", got, "LEXISCAN_WORKERS")
	}
	nested := ex.Prefix("PG_")
	if got := nested.key("DBURL"); got != "LEXISCAN_PG_DBURL" {
		t.Fatalf("nested key() = %q, want %q", got, "LEXISCAN_PG_DBURL")
	}
}

func TestMustString(t *testing.T) {
	c := New().Prefix("APP_")
	t.Setenv("APP_NAME", "  lexiscan ")
	if got := c.MustString("NAME"); got != "lexiscan" {
		t.Fatalf("MustString = %q, want %q", got, "lexiscan")
	}
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestMustInt(t *testing.T) {
	c := New().Prefix("SVC_")
	t.Setenv("SVC_WORKERS", "  8 ")
	if got := c.MustInt("WORKERS"); got != 8 {
		t.Fatalf("MustInt = %d, want %d", got, 8)
	}
	kit.MustPanic(t, func() { _ = c.MustInt("MISSING") })
	t.Setenv("SVC_BAD", "x")
	kit.MustPanic(t, func() { _ = c.MustInt("BAD") })
}

func TestMustURL(t *testing.T) {
	c := New().Prefix("U_")
	t.Setenv("U_BASE", "http://127.0.0.1:8000")
	if u := c.MustURL("BASE"); !u.IsAbs() || u.Host != "127.0.0.1:8000" {
		t.Fatalf("MustURL returned %v", u)
	}
	t.Setenv("U_BAD", "/relative")
	kit.MustPanic(t, func() { _ = c.MustURL("BAD") })
}

func TestMayString(t *testing.T) {
	c := New().Prefix("S_")
	if got := c.MayString("MISSING", "def"); got != "def" {
		t.Fatalf("MayString default = %q", got)
	}
	t.Setenv("S_NAME", " v2 ")
	if got := c.MayString("NAME", "x"); got != "v2" {
		t.Fatalf("MayString value = %q", got)
	}
}

func TestMayInt(t *testing.T) {
	c := New().Prefix("I_")
	if got := c.MayInt("MISSING", 9); got != 9 {
		t.Fatalf("MayInt default = %d", got)
	}
	t.Setenv("I_OK", " 7 ")
	if got := c.MayInt("OK", 0); got != 7 {
		t.Fatalf("MayInt ok = %d", got)
	}
	t.Setenv("I_BAD", "x")
	if got := c.MayInt("BAD", 3); got != 3 {
		t.Fatalf("MayInt bad -> default = %d", got)
	}
}

func TestMayPositiveInt(t *testing.T) {
	c := New().Prefix("P_")
	t.Setenv("P_ZERO", "0")
	t.Setenv("P_NEG", "-2")
	t.Setenv("P_OK", "4")
	if got := c.MayPositiveInt("ZERO", 1); got != 1 {
		t.Fatalf("zero should fall back, got %d", got)
	}
	if got := c.MayPositiveInt("NEG", 1); got != 1 {
		t.Fatalf("negative should fall back, got %d", got)
	}
	if got := c.MayPositiveInt("OK", 1); got != 4 {
		t.Fatalf("ok = %d", got)
	}
}

func TestMayBool(t *testing.T) {
	c := New().Prefix("B_")
	if got := c.MayBool("MISSING", true); !got {
		t.Fatalf("MayBool default true expected")
	}
	t.Setenv("B_T", "true")
	if got := c.MayBool("T", false); !got {
		t.Fatalf("MayBool true expected")
	}
	t.Setenv("B_BAD", "nope")
	if got := c.MayBool("BAD", false); got {
		t.Fatalf("MayBool bad -> default false expected")
	}
}

func TestMayDuration(t *testing.T) {
	c := New().Prefix("DUR_")
	if got := c.MayDuration("MISS", 5*time.Second); got != 5*time.Second {
		t.Fatalf("MayDuration default expected")
	}
	t.Setenv("DUR_OK", "150ms")
	if got := c.MayDuration("OK", time.Second); got != 150*time.Millisecond {
		t.Fatalf("MayDuration ok = %v", got)
	}
	t.Setenv("DUR_BAD", "nope")
	if got := c.MayDuration("BAD", time.Minute); got != time.Minute {
		t.Fatalf("MayDuration bad -> default expected")
	}
}

func TestMayURL(t *testing.T) {
	c := New().Prefix("URL_")
	if got := c.MayURL("MISS", "http://localhost:8000"); got != "http://localhost:8000" {
		t.Fatalf("MayURL default = %q", got)
	}
	t.Setenv("URL_OK", "http://35.200.185.69:8000/")
	if got := c.MayURL("OK", ""); got != "http://35.200.185.69:8000" {
		t.Fatalf("MayURL should trim trailing slash, got %q", got)
	}
	t.Setenv("URL_BAD", "not a url")
	if got := c.MayURL("BAD", "http://fallback"); got != "http://fallback" {
		t.Fatalf("MayURL bad -> default, got %q", got)
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("CSV_")
	def := []string{"v1", "v2"}
	if got := c.MayCSV("MISS", def); len(got) != 2 || got[0] != "v1" || got[1] != "v2" {
		t.Fatalf("MayCSV default mismatch: %#v", got)
	}
	t.Setenv("CSV_VALS", " v1, v2 , ,v3 ,, ")
	got := c.MayCSV("VALS", nil)
	want := []string{"v1", "v2", "v3"}
	if len(got) != len(want) {
		t.Fatalf("MayCSV len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MayCSV[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	t.Setenv("CSV_EMPTY", " , ,")
	if got := c.MayCSV("EMPTY", def); len(got) != 2 {
		t.Fatalf("MayCSV all-empty -> default mismatch: %#v", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("E_")
	if got := c.MayEnum("MISS", "dfs", "dfs", "bfs"); got != "dfs" {
		t.Fatalf("MayEnum default = %q", got)
	}
	t.Setenv("E_ORDER", "BFS")
	if got := c.MayEnum("ORDER", "dfs", "dfs", "bfs"); got != "bfs" {
		t.Fatalf("MayEnum allowed value = %q", got)
	}
	t.Setenv("E_BAD", "random")
	kit.MustPanic(t, func() { _ = c.MayEnum("BAD", "dfs", "dfs", "bfs") })
	if got := c.MayEnum("MISSING", "", "dfs"); got != "" {
		t.Fatalf("empty default should pass through, got %q", got)
	}
}
