package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/idilsaglam/basket/internal/auth"
	"github.com/idilsaglam/basket/internal/store"
	"github.com/idilsaglam/basket/internal/store/jsonstore"
	"github.com/idilsaglam/basket/internal/tui"
	"github.com/idilsaglam/basket/internal/ui"
)

// Options carry root flags.
type Options struct {
	ConfigPath string
	DataFile   string // overrides data_file
	Theme      string // overrides theme
	SeedURL    string // overrides seed_url
	ShowAll    bool   // include zero-count items in listings
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if len(args) == 0 {
		return doInteractive(opt)
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "tui":
		return doInteractive(opt)

	case "ls":
		for _, f := range a {
			if f == "--all" || f == "-a" {
				opt.ShowAll = true
			}
		}
		return doList(opt)

	case "categories":
		return doCategories(opt)

	case "add":
		if len(a) < 2 {
			ui.Fail("usage: basket add <category> <name...> [qty]")
			return 2
		}
		name, qty, err := tui.ParseAddInput(strings.Join(a[1:], " "))
		if err != nil {
			ui.Fail("add: " + err.Error())
			return 2
		}
		return mutate(opt, "added", func(st *store.Store) error {
			return st.AddItemCount(a[0], name, qty)
		})

	case "set":
		if len(a) < 3 {
			ui.Fail("usage: basket set <category> <name...> <count>")
			return 2
		}
		n, err := strconv.Atoi(a[len(a)-1])
		if err != nil || n < 0 {
			ui.Fail("set: not a count: " + a[len(a)-1])
			return 2
		}
		name := strings.Join(a[1:len(a)-1], " ")
		return mutate(opt, "updated", func(st *store.Store) error {
			return st.SetCount(a[0], name, n)
		})

	case "inc", "dec", "one", "reset", "rm", "bought":
		if len(a) < 2 {
			ui.Fail(fmt.Sprintf("usage: basket %s <category> <name...>", cmd))
			return 2
		}
		cat, name := a[0], strings.Join(a[1:], " ")
		ops := map[string]func(*store.Store) error{
			"inc":    func(st *store.Store) error { return st.IncrementCount(cat, name) },
			"dec":    func(st *store.Store) error { return st.DecrementCount(cat, name) },
			"one":    func(st *store.Store) error { return st.SetCountToOne(cat, name) },
			"reset":  func(st *store.Store) error { return st.ResetCount(cat, name) },
			"rm":     func(st *store.Store) error { return st.RemoveItem(cat, name) },
			"bought": func(st *store.Store) error { return st.ToggleBought(cat, name) },
		}
		msgs := map[string]string{"inc": "updated", "dec": "updated", "one": "updated", "reset": "updated", "rm": "removed", "bought": "toggled"}
		return mutate(opt, msgs[cmd], ops[cmd])

	case "move":
		if len(a) < 3 {
			ui.Fail("usage: basket move <category> <new-category> <name...>")
			return 2
		}
		name := strings.Join(a[2:], " ")
		return mutate(opt, "moved", func(st *store.Store) error {
			return st.MoveCategory(a[0], a[1], name)
		})

	case "fetch":
		if len(a) > 1 {
			ui.Fail("usage: basket fetch [url]")
			return 2
		}
		if len(a) == 1 {
			opt.SeedURL = a[0]
		}
		return doFetch(opt)

	case "auth":
		if len(a) == 0 || len(a) > 2 {
			ui.Fail(authUsage)
			return 2
		}
		var target string
		if len(a) == 2 {
			target = a[1]
		}
		switch a[0] {
		case "login":
			return doAuthLogin(opt, target)
		case "logout":
			return doAuthLogout(opt, target)
		case "status":
			return doAuthStatus()
		case "whoami":
			return doAuthWhoAmI(opt, target)
		}
		ui.Fail(authUsage)
		return 2
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(ui.Err)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Fprint(ui.Out, `basket - a shopping list with undo

Usage:
  basket [flags] [subcommand] [args]

With no subcommand the interactive list opens.

Subcommands:
  tui                                 Interactive list (default)
  ls [--all]                          Print the list
  categories                          Print the categories
  add <category> <name...> [qty]      Add an item, or add to its quantity
  set <category> <name...> <count>    Set an item's quantity
  inc|dec <category> <name...>        Change quantity by one
  one <category> <name...>            Set quantity to one
  reset <category> <name...>          Set quantity to zero (marks stay)
  rm <category> <name...>             Take an item off the list
  bought <category> <name...>         Toggle bought
  move <category> <new> <name...>     Move an item to another category
  fetch [url]                         Replace the list with a remote copy
  auth login|logout|whoami [url]      Token sent when fetching url (default seed_url)
  auth status                         Stored seed tokens

Examples:
  basket add Dairy Milk 2
  basket bought Dairy Milk
  basket move Other Fruit Olive Oil
`)
}

// -------------- subcommand impls ----------------

func doInteractive(opt Options) int {
	s, err := openSession(opt, true)
	if err != nil {
		ui.Fail("load: " + err.Error())
		return 1
	}
	defer s.close()

	if err := tui.Run(s.st, tui.Options{ShowAll: opt.ShowAll}); err != nil {
		s.log.InternalError("tui failed", err)
		ui.Fail("tui: " + err.Error())
		return 1
	}
	if !s.changed() {
		return 0
	}
	if err := s.save(); err != nil {
		ui.Fail(err.Error())
		return 1
	}
	ui.OK("saved")
	return 0
}

// mutate loads the list, applies op and saves when something changed.
func mutate(opt Options, done string, op func(*store.Store) error) int {
	s, err := openSession(opt, false)
	if err != nil {
		ui.Fail("load: " + err.Error())
		return 1
	}
	defer s.close()

	if err := op(s.st); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			ui.Fail(err.Error())
			ui.Hint("Hint: run `basket ls --all` to see what is on file")
			return 2
		case errors.Is(err, store.ErrItemExists), errors.Is(err, store.ErrNegativeCount):
			ui.Fail(err.Error())
			return 2
		}
		ui.Fail(err.Error())
		return 1
	}
	if !s.changed() {
		ui.OK("nothing to change")
		return 0
	}
	if err := s.save(); err != nil {
		ui.Fail(err.Error())
		return 1
	}
	ui.OK(done)
	return 0
}

func doList(opt Options) int {
	s, err := openSession(opt, false)
	if err != nil {
		ui.Fail("load: " + err.Error())
		return 1
	}
	defer s.close()

	t := ui.Current()
	bought, active := s.st.Totals()
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(t.Title, "Basket"),
		ui.C(t.Success, t.SymDone), bought,
		ui.C(t.Pending, t.SymPending), active-bought,
		ui.C(t.Accent, "Total"), active,
	)

	lines := []string{header, ui.C(t.Muted, ui.ProgressBar(bought, active, 28)), ""}
	lines = append(lines, listLines(s.st, opt.ShowAll)...)
	lines = append(lines, "", ui.C(t.Muted, "Tip: add with `basket add Dairy Milk 2`"))
	ui.Panel(lines)
	return 0
}

const maxNameWidth = 60

func listLines(st *store.Store, all bool) []string {
	t := ui.Current()
	var lines []string
	for _, cat := range st.Categories() {
		names := st.ActiveItems(cat)
		if all {
			names = st.Items(cat)
		}
		if len(names) == 0 {
			continue
		}
		label := cat
		if info, ok := st.CategoryInfo(cat); ok && info.Icon != "" {
			label = info.Icon + " " + cat
		}
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, ui.C(t.Accent, label))
		for _, name := range names {
			box, color := t.BoxUnchecked, t.Muted
			if st.Bought(cat, name) {
				box, color = t.BoxChecked, t.Success
			}
			count := ui.Dim(fmt.Sprintf("×%d", st.Count(cat, name)))
			lines = append(lines, fmt.Sprintf("  %s %s %s", ui.C(color, box), runewidth.Truncate(name, maxNameWidth, "..."), count))
		}
	}
	if len(lines) == 0 {
		return []string{ui.C(t.Muted, "nothing on the list")}
	}
	return lines
}

func doCategories(opt Options) int {
	s, err := openSession(opt, false)
	if err != nil {
		ui.Fail("load: " + err.Error())
		return 1
	}
	defer s.close()

	var lines []string
	for _, cat := range s.st.Categories() {
		icon := " "
		if info, ok := s.st.CategoryInfo(cat); ok {
			icon = info.Icon
		}
		lines = append(lines, fmt.Sprintf("%s %-10s %d", icon, cat, len(s.st.ActiveItems(cat))))
	}
	ui.Panel(lines)
	return 0
}

func doFetch(opt Options) int {
	cfg, err := loadConfig(opt)
	if err != nil {
		ui.Fail("load: " + err.Error())
		return 1
	}
	if strings.TrimSpace(cfg.SeedURL) == "" {
		ui.Fail("fetch: no url given and seed_url is not configured")
		return 2
	}
	log, closeFn, err := newLogger(cfg, false)
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	defer closeFn()

	records, err := fetchRecords(log, cfg.SeedURL)
	if err != nil {
		ui.Fail("fetch: " + err.Error())
		return 1
	}
	if err := jsonstore.Save(cfg.DataFile, records); err != nil {
		ui.Fail("save: " + err.Error())
		return 1
	}
	ui.OK(fmt.Sprintf("fetched %d items", len(records)))
	return 0
}

// ---------------------------------------------------
// Auth subcommands
// ---------------------------------------------------

const authUsage = "usage: basket auth <login|logout|whoami> [url] | basket auth status"

// stdin feeds `auth login`. Tests swap it.
var stdin io.Reader = os.Stdin

// seedHost picks the host a token belongs to: the url argument, else the
// configured seed_url. A non-zero code is the exit code to return.
func seedHost(opt Options, target string) (host string, code int) {
	if target == "" {
		cfg, err := loadConfig(opt)
		if err != nil {
			ui.Fail("load: " + err.Error())
			return "", 1
		}
		target = cfg.SeedURL
	}
	if strings.TrimSpace(target) == "" {
		ui.Fail("no url given and seed_url is not configured")
		ui.Hint("Hint: basket auth login https://lists.example.com/seed.json")
		return "", 2
	}
	host, err := auth.Host(target)
	if err != nil {
		ui.Fail(err.Error())
		return "", 2
	}
	return host, 0
}

func doAuthLogin(opt Options, target string) int {
	host, code := seedHost(opt, target)
	if code != 0 {
		return code
	}
	fmt.Fprintf(ui.Out, "Token for %s: ", host)
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		ui.Fail("read token: " + err.Error())
		return 1
	}
	token := strings.TrimSpace(line)
	ti, err := auth.SetToken(host, token)
	if err != nil {
		ui.Fail("save token: " + err.Error())
		return 1
	}
	msg := "seed fetches from " + host + " will send this token"
	if ti.ExpiresAt != nil {
		msg += " until " + ti.ExpiresAt.Format(time.RFC3339)
	}
	ui.OK(msg)
	if os.Getenv(auth.EnvToken) != "" {
		ui.Hint("Hint: " + auth.EnvToken + " is set and takes precedence")
	}
	return 0
}

func doAuthLogout(opt Options, target string) int {
	host, code := seedHost(opt, target)
	if code != 0 {
		return code
	}
	removed, err := auth.DeleteToken(host)
	if err != nil {
		ui.Fail("logout: " + err.Error())
		return 1
	}
	if !removed {
		ui.OK("no token stored for " + host)
	} else {
		ui.OK("forgot token for " + host)
	}
	if os.Getenv(auth.EnvToken) != "" {
		ui.Hint("Hint: " + auth.EnvToken + " is still set and applies to every host")
	}
	return 0
}

func doAuthStatus() int {
	t := ui.Current()
	now := time.Now()
	if os.Getenv(auth.EnvToken) != "" {
		fmt.Fprintln(ui.Out, ui.C(t.Accent, auth.EnvToken)+" is set: sent to every seed host")
	}
	tokens, err := auth.Tokens()
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	if len(tokens) == 0 {
		fmt.Fprintln(ui.Out, ui.C(t.Muted, "no stored seed tokens"))
		fmt.Fprintln(ui.Out, "Run: basket auth login [url]")
		return 0
	}
	lines := make([]string, 0, len(tokens))
	for _, ti := range tokens {
		expiry := ui.C(t.Muted, "no expiry")
		switch {
		case ti.Expired(now):
			expiry = ui.C(t.Error, "expired "+ti.ExpiresAt.Format(time.RFC3339))
		case ti.ExpiresAt != nil:
			expiry = "expires " + ti.ExpiresAt.Format(time.RFC3339)
		}
		lines = append(lines, fmt.Sprintf("%s  %s", ti.Host, expiry))
	}
	ui.Panel(lines)
	return 0
}

func doAuthWhoAmI(opt Options, target string) int {
	host, code := seedHost(opt, target)
	if code != 0 {
		return code
	}
	ti, err := auth.GetToken(host)
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	if ti == nil {
		ui.Fail("no token for " + host + ". Run: basket auth login")
		return 2
	}
	fmt.Fprintf(ui.Out, "host: %s (token from %s)\n", host, ti.Source)
	if ti.Expired(time.Now()) {
		ui.Hint("token has expired and will not be sent")
	}
	if payload, ok := auth.JWTPayload(ti.Token); ok {
		fmt.Fprintln(ui.Out, "JWT payload:")
		fmt.Fprintln(ui.Out, payload)
		return 0
	}
	fmt.Fprintln(ui.Out, "Opaque token (cannot introspect locally).")
	return 0
}
