package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"github.com/idilsaglam/basket/internal/model"
	"github.com/idilsaglam/basket/internal/store/jsonstore"
	"github.com/idilsaglam/basket/internal/ui"
)

type env struct {
	opt      Options
	out, err *bytes.Buffer
}

func newEnv(t *testing.T, records ...model.Record) env {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("BASKET_TOKEN", "")

	e := env{
		opt: Options{
			ConfigPath: filepath.Join(dir, "missing.toml"),
			DataFile:   filepath.Join(dir, "basket.json"),
		},
		out: &bytes.Buffer{},
		err: &bytes.Buffer{},
	}
	prevOut, prevErr := ui.Out, ui.Err
	ui.Out, ui.Err = e.out, e.err
	t.Cleanup(func() { ui.Out, ui.Err = prevOut, prevErr })

	if records != nil {
		if err := jsonstore.Save(e.opt.DataFile, records); err != nil {
			t.Fatalf("seed data file: %v", err)
		}
	}
	return e
}

func (e env) run(args ...string) int {
	e.out.Reset()
	e.err.Reset()
	return Run(args, e.opt)
}

func (e env) records(t *testing.T) []model.Record {
	t.Helper()
	got, ok, err := jsonstore.Load(e.opt.DataFile)
	if err != nil || !ok {
		t.Fatalf("Load(%s) = ok %v, err %v", e.opt.DataFile, ok, err)
	}
	return got
}

func TestAddThenList(t *testing.T) {
	e := newEnv(t)

	if code := e.run("add", "Dairy", "Milk", "2"); code != 0 {
		t.Fatalf("add exit = %d, stderr %q", code, e.err.String())
	}
	if code := e.run("add", "Other", "Olive", "Oil"); code != 0 {
		t.Fatalf("add exit = %d, stderr %q", code, e.err.String())
	}
	want := []model.Record{
		{Name: "Milk", Quantity: 2, Category: "Dairy"},
		{Name: "Olive Oil", Quantity: 1, Category: "Other"},
	}
	if diff := cmp.Diff(want, e.records(t)); diff != "" {
		t.Fatalf("records (-want +got):\n%s", diff)
	}

	if code := e.run("ls"); code != 0 {
		t.Fatalf("ls exit = %d", code)
	}
	out := e.out.String()
	for _, s := range []string{"Basket", "Milk", "×2", "Olive Oil", "Dairy"} {
		if !strings.Contains(out, s) {
			t.Fatalf("ls output missing %q:\n%s", s, out)
		}
	}
}

func TestMutations(t *testing.T) {
	e := newEnv(t, model.Record{Name: "Eggs", Quantity: 12, Category: "Other"})

	steps := []struct {
		args []string
		want model.Record
	}{
		{[]string{"inc", "Other", "Eggs"}, model.Record{Name: "Eggs", Quantity: 13, Category: "Other"}},
		{[]string{"dec", "Other", "Eggs"}, model.Record{Name: "Eggs", Quantity: 12, Category: "Other"}},
		{[]string{"set", "Other", "Eggs", "6"}, model.Record{Name: "Eggs", Quantity: 6, Category: "Other"}},
		{[]string{"reset", "Other", "Eggs"}, model.Record{Name: "Eggs", Quantity: 0, Category: "Other"}},
		{[]string{"one", "Other", "Eggs"}, model.Record{Name: "Eggs", Quantity: 1, Category: "Other"}},
		{[]string{"bought", "Other", "Eggs"}, model.Record{Name: "Eggs", Quantity: 1, Category: "Other", Bought: true}},
		{[]string{"move", "Other", "Dairy", "Eggs"}, model.Record{Name: "Eggs", Quantity: 1, Category: "Dairy", Bought: true}},
		{[]string{"rm", "Dairy", "Eggs"}, model.Record{Name: "Eggs", Quantity: 0, Category: "Dairy", Bought: true}},
	}
	for _, s := range steps {
		if code := e.run(s.args...); code != 0 {
			t.Fatalf("%v exit = %d, stderr %q", s.args, code, e.err.String())
		}
		if diff := cmp.Diff([]model.Record{s.want}, e.records(t)); diff != "" {
			t.Fatalf("after %v (-want +got):\n%s", s.args, diff)
		}
	}
}

func TestRemovedItemsOnlyListedWithAll(t *testing.T) {
	e := newEnv(t,
		model.Record{Name: "Milk", Quantity: 4, Category: "Dairy"},
		model.Record{Name: "Pizza", Quantity: 0, Category: "Frozen"},
	)
	e.run("ls")
	if strings.Contains(e.out.String(), "Pizza") {
		t.Fatalf("ls listed a zero-count item:\n%s", e.out.String())
	}
	e.run("ls", "--all")
	if !strings.Contains(e.out.String(), "Pizza") {
		t.Fatalf("ls --all missing zero-count item:\n%s", e.out.String())
	}
}

func TestMissingItem(t *testing.T) {
	e := newEnv(t, model.Record{Name: "Milk", Quantity: 4, Category: "Dairy"})

	if code := e.run("inc", "Dairy", "Cheese"); code != 2 {
		t.Fatalf("exit = %d, want 2", code)
	}
	if !strings.Contains(e.err.String(), "not found") {
		t.Fatalf("stderr = %q", e.err.String())
	}
	want := []model.Record{{Name: "Milk", Quantity: 4, Category: "Dairy"}}
	if diff := cmp.Diff(want, e.records(t)); diff != "" {
		t.Fatalf("file changed (-want +got):\n%s", diff)
	}
}

func TestMoveOntoExistingItem(t *testing.T) {
	e := newEnv(t,
		model.Record{Name: "Milk", Quantity: 4, Category: "Dairy"},
		model.Record{Name: "Milk", Quantity: 1, Category: "Other"},
	)
	if code := e.run("move", "Other", "Dairy", "Milk"); code != 2 {
		t.Fatalf("exit = %d, want 2", code)
	}
	if !strings.Contains(e.err.String(), "already exists") {
		t.Fatalf("stderr = %q", e.err.String())
	}
}

func TestNoopDoesNotWrite(t *testing.T) {
	e := newEnv(t)
	if code := e.run("rm", "Dairy", "Milk"); code != 2 {
		t.Fatalf("rm of unknown item exit = %d, want 2", code)
	}
	if _, ok, _ := jsonstore.Load(e.opt.DataFile); ok {
		t.Fatalf("data file written for a failed command")
	}

	e = newEnv(t, model.Record{Name: "Pizza", Quantity: 0, Category: "Frozen"})
	if code := e.run("dec", "Frozen", "Pizza"); code != 0 {
		t.Fatalf("dec at zero exit = %d", code)
	}
	if !strings.Contains(e.out.String(), "nothing to change") {
		t.Fatalf("stdout = %q", e.out.String())
	}
}

func TestUsageErrors(t *testing.T) {
	e := newEnv(t)
	for _, args := range [][]string{
		{"add", "Dairy"},
		{"set", "Dairy", "Milk"},
		{"set", "Dairy", "Milk", "lots"},
		{"set", "Dairy", "Milk", "-1"},
		{"inc", "Dairy"},
		{"move", "Dairy", "Milk"},
		{"fetch", "a", "b"},
		{"fetch"},
		{"auth"},
		{"auth", "nope"},
		{"frobnicate"},
	} {
		if code := e.run(args...); code != 2 {
			t.Fatalf("%v exit = %d, want 2", args, code)
		}
	}
}

func TestFetchReplacesDataFile(t *testing.T) {
	remote := []model.Record{
		{Name: "Apples", Quantity: 3, Category: "Fruit"},
		{Name: "Pizza", Quantity: 1, Category: "Frozen", Bought: true},
	}
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(remote)
	}))
	t.Cleanup(server.Close)

	e := newEnv(t, model.Record{Name: "Milk", Quantity: 4, Category: "Dairy"})
	t.Setenv("BASKET_TOKEN", "Bearer secret")

	if code := e.run("fetch", server.URL); code != 0 {
		t.Fatalf("fetch exit = %d, stderr %q", code, e.err.String())
	}
	if diff := cmp.Diff(remote, e.records(t)); diff != "" {
		t.Fatalf("records (-want +got):\n%s", diff)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
}

func TestFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	e := newEnv(t)
	if code := e.run("fetch", server.URL); code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(e.err.String(), "503") {
		t.Fatalf("stderr = %q", e.err.String())
	}
}

func TestSeedURLUsedWhenNoDataFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]model.Record{{Name: "Apples", Quantity: 3, Category: "Fruit"}})
	}))
	t.Cleanup(server.Close)

	e := newEnv(t)
	e.opt.SeedURL = server.URL
	if code := e.run("inc", "Fruit", "Apples"); code != 0 {
		t.Fatalf("exit = %d, stderr %q", code, e.err.String())
	}
	want := []model.Record{{Name: "Apples", Quantity: 4, Category: "Fruit"}}
	if diff := cmp.Diff(want, e.records(t)); diff != "" {
		t.Fatalf("records (-want +got):\n%s", diff)
	}
}

func TestAuthIsScopedToSeedHost(t *testing.T) {
	var gotAuth []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]model.Record{})
	}))
	t.Cleanup(server.Close)

	e := newEnv(t)
	e.run("auth", "status")
	if !strings.Contains(e.out.String(), "no stored seed tokens") {
		t.Fatalf("status = %q", e.out.String())
	}
	if code := e.run("auth", "whoami", server.URL); code != 2 {
		t.Fatalf("whoami before login exit = %d, want 2", code)
	}
	if code := e.run("auth", "login"); code != 2 {
		t.Fatalf("login without url or seed_url exit = %d, want 2", code)
	}

	prev := stdin
	stdin = strings.NewReader("Bearer seed-token\n")
	t.Cleanup(func() { stdin = prev })
	if code := e.run("auth", "login", server.URL+"/seed.json"); code != 0 {
		t.Fatalf("login exit = %d, stderr %q", code, e.err.String())
	}
	host := strings.TrimPrefix(server.URL, "http://")
	if !strings.Contains(e.out.String(), "seed fetches from "+host) {
		t.Fatalf("login output = %q", e.out.String())
	}

	e.run("auth", "status")
	if !strings.Contains(e.out.String(), host) {
		t.Fatalf("status does not list %s:\n%s", host, e.out.String())
	}

	e.run("fetch", server.URL+"/other.json")
	e.opt.SeedURL = "http://unrelated.invalid/seed.json"
	if code := e.run("auth", "whoami"); code != 2 {
		t.Fatalf("whoami for a host without a token exit = %d, want 2", code)
	}
	e.opt.SeedURL = ""
	if diff := cmp.Diff([]string{"Bearer seed-token"}, gotAuth); diff != "" {
		t.Fatalf("Authorization headers (-want +got):\n%s", diff)
	}

	if code := e.run("auth", "logout", server.URL); code != 0 {
		t.Fatalf("logout exit = %d", code)
	}
	if !strings.Contains(e.out.String(), "forgot token for "+host) {
		t.Fatalf("logout = %q", e.out.String())
	}
	e.run("fetch", server.URL)
	if diff := cmp.Diff([]string{"Bearer seed-token", ""}, gotAuth); diff != "" {
		t.Fatalf("Authorization headers after logout (-want +got):\n%s", diff)
	}
}

func TestAuthStatus_EnvOverride(t *testing.T) {
	e := newEnv(t)
	t.Setenv("BASKET_TOKEN", "opaque")
	e.run("auth", "status")
	if !strings.Contains(e.out.String(), "BASKET_TOKEN is set") {
		t.Fatalf("status = %q", e.out.String())
	}
	if code := e.run("auth", "whoami", "https://lists.example.com/seed"); code != 0 {
		t.Fatalf("whoami exit = %d", code)
	}
	if !strings.Contains(e.out.String(), "token from env") || !strings.Contains(e.out.String(), "Opaque token") {
		t.Fatalf("whoami = %q", e.out.String())
	}
}

func TestListShowsFullCountForLongNames(t *testing.T) {
	long := strings.Repeat("a", 70)
	wide := strings.Repeat("苹", 40)
	e := newEnv(t,
		model.Record{Name: long, Quantity: 7, Category: "Dairy"},
		model.Record{Name: wide, Quantity: 5, Category: "Fruit"},
	)
	if code := e.run("ls"); code != 0 {
		t.Fatalf("ls exit = %d", code)
	}
	out := e.out.String()
	for _, want := range []string{"×7", "×5", strings.Repeat("a", 57) + "..."} {
		if !strings.Contains(out, want) {
			t.Fatalf("ls output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "×0") || strings.Contains(out, long) {
		t.Fatalf("long name listed wrong:\n%s", out)
	}
	if !utf8.ValidString(out) {
		t.Fatalf("ls output is not valid UTF-8")
	}
}

func TestCategories(t *testing.T) {
	e := newEnv(t, model.Record{Name: "Milk", Quantity: 4, Category: "Dairy"})
	if code := e.run("categories"); code != 0 {
		t.Fatalf("exit = %d", code)
	}
	for _, name := range []string{"Dairy", "Frozen", "Fruit", "Other"} {
		if !strings.Contains(e.out.String(), name) {
			t.Fatalf("categories missing %q:\n%s", name, e.out.String())
		}
	}
}

func TestHelp(t *testing.T) {
	e := newEnv(t)
	if code := e.run("help"); code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(e.out.String(), "Subcommands:") {
		t.Fatalf("help = %q", e.out.String())
	}
}

func TestUnknownThemeFallsBackWithWarning(t *testing.T) {
	e := newEnv(t)
	e.opt.Theme = "plaid"
	if code := e.run("ls"); code != 0 {
		t.Fatalf("ls exit = %d", code)
	}
	if got := ui.Current().Name; got != "classic" {
		t.Fatalf("theme = %q, want classic", got)
	}
	if !strings.Contains(e.err.String(), "unknown theme") || !strings.Contains(e.err.String(), "classic,neon,mono") {
		t.Fatalf("stderr = %q", e.err.String())
	}

	e.opt.Theme = "Mono"
	e.run("ls")
	if strings.Contains(e.err.String(), "unknown theme") {
		t.Fatalf("known theme warned: %q", e.err.String())
	}
	ui.SetTheme("classic")
}
