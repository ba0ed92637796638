// Command propdeck is a terminal viewer for sports prop-odds feeds: a
// filterable, sortable grid with expandable per-row book detail, backed by a
// two-tier record cache.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/propdeck/pkg/cache"
	"github.com/vanderheijden86/propdeck/pkg/config"
	"github.com/vanderheijden86/propdeck/pkg/debug"
	"github.com/vanderheijden86/propdeck/pkg/feed"
	"github.com/vanderheijden86/propdeck/pkg/grid"
	"github.com/vanderheijden86/propdeck/pkg/gridstate"
	"github.com/vanderheijden86/propdeck/pkg/model"
	"github.com/vanderheijden86/propdeck/pkg/sched"
	"github.com/vanderheijden86/propdeck/pkg/ui"
)

const version = "0.3.0"

// gridColumns is the column order of the main grid.
var gridColumns = []string{
	model.ColPlayer,
	model.ColTeam,
	model.ColOpponent,
	model.ColMarket,
	model.ColLine,
	model.ColSplit,
	model.ColGameTime,
}

func main() {
	var (
		configPath  = flag.String("config", "", "Path to config file (default: XDG config dir)")
		feedName    = flag.String("feed", "", "Name of a configured feed to open")
		fixturePath = flag.String("fixture", "", "Load records from a local JSON fixture instead of a feed")
		endpoint    = flag.String("endpoint", "", "Fetch records from this URL, bypassing configured feeds")
		exportDir   = flag.String("export-dir", ".", "Directory for SVG snapshot exports")
		noCache     = flag.Bool("no-cache", false, "Skip the persistent cache tier")
		cpuProfile  = flag.String("cpu-profile", "", "Write CPU profile to file")
		showVersion = flag.Bool("version", false, "Print version and exit")
		showHelp    = flag.Bool("help", false, "Show help")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		fmt.Printf("propdeck %s\n", version)
		return
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		// Non-fatal: continue with defaults.
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	src, title, err := resolveSource(&cfg, *feedName, *fixturePath, *endpoint, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(&cfg, src, title, *exportDir, *noCache); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// recordSource is the page-fetch surface main wires into the cache, plus an
// identity for cache keying.
type recordSource struct {
	key     string
	fetch   cache.PageFetcher
	fixture *feed.FixtureSource
}

// resolveSource picks the data source in precedence order: explicit fixture,
// explicit endpoint, named feed, favorite feed, first configured feed. With
// nothing configured it runs the first-run wizard on a terminal.
func resolveSource(cfg *config.Config, feedName, fixturePath, endpoint, configPath string) (*recordSource, string, error) {
	if fixturePath != "" {
		fx := feed.NewFixtureSource(fixturePath)
		return &recordSource{key: "fixture:" + fixturePath, fetch: fx.FetchPage, fixture: fx}, filepath.Base(fixturePath), nil
	}
	if endpoint != "" {
		client := feed.NewClient(endpoint)
		return &recordSource{key: endpoint, fetch: client.FetchPage}, endpoint, nil
	}

	var f *config.Feed
	switch {
	case feedName != "":
		f = cfg.FindFeed(feedName)
		if f == nil {
			return nil, "", fmt.Errorf("no feed named %q in config (have %d feeds)", feedName, len(cfg.Feeds))
		}
	case len(cfg.Feeds) > 0:
		if fav := cfg.FavoriteFeed(1); fav != nil {
			f = fav
		} else {
			f = &cfg.Feeds[0]
		}
	default:
		wf, err := runFirstRunWizard(cfg, configPath)
		if err != nil {
			return nil, "", err
		}
		f = wf
	}

	title := f.Name
	if f.League != "" {
		title = fmt.Sprintf("%s (%s)", f.Name, f.League)
	}
	if f.Fixture != "" {
		fx := feed.NewFixtureSource(f.Fixture)
		return &recordSource{key: "fixture:" + f.Fixture, fetch: fx.FetchPage, fixture: fx}, title, nil
	}
	client := feed.NewClient(f.URL)
	return &recordSource{key: f.URL, fetch: client.FetchPage}, title, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// runFirstRunWizard collects a feed definition interactively and saves it so
// the next launch goes straight to the grid.
func runFirstRunWizard(cfg *config.Config, configPath string) (*config.Feed, error) {
	if !isTerminal() {
		return nil, errors.New("no feeds configured; pass --endpoint or --fixture, or run in a terminal to set one up")
	}

	var f config.Feed
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Feed name").
				Description("A short label for this odds feed").
				Placeholder("draftkings-nba").
				Value(&f.Name).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Feed URL").
				Description("Endpoint serving paginated record JSON").
				Placeholder("https://odds.example.com/props").
				Value(&f.URL).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("URL is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("League").
				Description("Optional, shown in the grid title").
				Placeholder("NBA").
				Value(&f.League),
		),
	).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("feed setup: %w", err)
	}

	cfg.Feeds = append(cfg.Feeds, f)
	cfg.SetFavorite(1, f.Name)
	var err error
	if configPath != "" {
		err = config.SaveTo(*cfg, configPath)
	} else {
		err = config.Save(*cfg)
	}
	if err != nil {
		// Non-fatal: the feed still works for this session.
		fmt.Fprintf(os.Stderr, "Warning: could not save config: %v\n", err)
	}
	return &f, nil
}

func run(cfg *config.Config, src *recordSource, title, exportDir string, noCache bool) error {
	loop := sched.NewRunLoop()
	defer loop.Close()

	cacheOpts := []cache.Option{cache.WithTTL(cfg.CacheTTL())}
	if !noCache {
		kv, err := cache.NewSQLiteStore(config.CachePath())
		if err != nil {
			// Degraded mode: memory tier only.
			debug.Log("persistent cache unavailable: %v", err)
		} else {
			defer kv.Close()
			cacheOpts = append(cacheOpts, cache.WithPersistent(kv))
		}
	}
	dataCache := cache.New(cacheOpts...)

	loader := func(ctx context.Context, force bool) (cache.FetchResult, error) {
		return dataCache.Load(ctx, src.key, force, func(ctx context.Context) (cache.FetchResult, error) {
			res := cache.FetchAll(ctx, src.fetch,
				cache.WithPageSize(cfg.Fetch.PageSize),
				cache.WithPageRetries(cfg.Fetch.PageRetries),
				cache.WithRetryBaseWait(time.Duration(cfg.Fetch.RetryWaitMS)*time.Millisecond),
			)
			return res, nil
		})
	}

	g := grid.NewMemoryGrid(loop)
	store := gridstate.NewExpansionStateStore()
	table := gridstate.NewTableController(loop, g, store, "main", ui.NewDetailRenderer(cfg.UI.DetailWidth), loader,
		gridstate.WithSortedRestoreDelay(config.Window(cfg.Timing.SortedRestoreMS, gridstate.DefaultSortedRestoreDelay)))
	table.AddMultiSelect(model.ColTeam,
		gridstate.WithCommitWindow(config.Window(cfg.Timing.FilterCommitMS, gridstate.DefaultCommitWindow)))
	table.AddMultiSelect(model.ColMarket,
		gridstate.WithCommitWindow(config.Window(cfg.Timing.FilterCommitMS, gridstate.DefaultCommitWindow)))
	table.AddRange(model.ColLine,
		gridstate.WithRangeCommitWindow(config.Window(cfg.Timing.RangeCommitMS, gridstate.DefaultRangeCommitWindow)))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	err := table.Initialize(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	if src.fixture != nil {
		// Reload on fixture edits so local files behave like a live feed.
		if werr := src.fixture.Watch(func() {
			dataCache.Invalidate(src.key)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if rerr := table.RefreshData(ctx); rerr != nil {
				debug.Log("fixture reload failed: %v", rerr)
			}
		}); werr != nil {
			debug.Log("fixture watch unavailable: %v", werr)
		}
		defer src.fixture.Stop()
	}

	m := ui.NewModel(loop, table, g, gridColumns, title, exportDir)
	return runTUIProgram(m)
}

// runTUIProgram runs the bubbletea program with signal handling that gives
// the UI a chance to exit cleanly before being killed.
func runTUIProgram(m *ui.Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithoutSignalHandler())
	m.SetSend(p.Send)

	runDone := make(chan struct{})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			p.Quit()
			select {
			case <-runDone:
			case <-time.After(5 * time.Second):
				p.Kill()
			}
		case <-runDone:
		}
	}()

	// Test hook: auto-close the UI after a delay so automated runs can
	// exercise startup without a pty.
	if ms := os.Getenv("PD_TUI_AUTOCLOSE_MS"); ms != "" {
		if delay, err := strconv.Atoi(ms); err == nil && delay > 0 {
			go func() {
				time.Sleep(time.Duration(delay) * time.Millisecond)
				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	close(runDone)
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, tea.ErrInterrupted) {
		return fmt.Errorf("UI error: %w", err)
	}
	return nil
}

func printUsage() {
	fmt.Println(`propdeck - terminal viewer for sports prop-odds grids

USAGE:
  propdeck [options]

OPTIONS:
  --config PATH       Config file path (default: XDG config dir)
  --feed NAME         Open a configured feed by name
  --fixture PATH      Load records from a local JSON fixture
  --endpoint URL      Fetch records from this URL directly
  --export-dir DIR    Directory for SVG snapshot exports (default: .)
  --no-cache          Skip the persistent cache tier
  --cpu-profile FILE  Write CPU profile to file
  --version           Print version and exit
  --help              Show this help

KEYS:
  j/k or arrows  move cursor        enter/space  expand row
  t / b          team/market filter l            line range filter
  s              cycle line sort    c            clear filters
  r              refresh data       y            copy grid as markdown
  e              export SVG snapshot
  q              quit

First run with no feeds configured starts an interactive setup.`)
}
