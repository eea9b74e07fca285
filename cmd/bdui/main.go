// Command bdui is a terminal dashboard for a beads issue tracker.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/elmateo487/bdui-compact-kanban/internal/datasource"
	"github.com/elmateo487/bdui-compact-kanban/pkg/config"
	"github.com/elmateo487/bdui-compact-kanban/pkg/debug"
	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
	"github.com/elmateo487/bdui-compact-kanban/pkg/reload"
	"github.com/elmateo487/bdui-compact-kanban/pkg/state"
	"github.com/elmateo487/bdui-compact-kanban/pkg/ui"
	"github.com/elmateo487/bdui-compact-kanban/pkg/version"
	"github.com/elmateo487/bdui-compact-kanban/pkg/writer"
)

var errNotTerminal = errors.New("bdui needs an interactive terminal")

type options struct {
	beadsDir     string
	configPath   string
	pollInterval time.Duration
	pageSize     int
	noWatch      bool
	version      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "bdui [path]",
		Short: "Terminal dashboard for beads issues",
		Long: `bdui shows the issues of a beads project as a kanban board with tree,
dependency graph, stats and dashboard views. It follows the project's
database and redraws when bd or another agent changes it.

The project is found by walking up from path (default: the current
directory) to the nearest .beads directory. BEADS_DIR overrides the search.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.version {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
				return nil
			}
			err := run(cmd, opts, args)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.beadsDir, "beads-dir", "", "path to the .beads directory (skips the upward search)")
	f.StringVar(&opts.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/bdui/config.yaml)")
	f.DurationVar(&opts.pollInterval, "poll-interval", 0, "how often to check the database for changes")
	f.IntVar(&opts.pageSize, "page-size", 0, "cards per column page (0 fits the terminal)")
	f.BoolVar(&opts.noWatch, "no-watch", false, "load once and only reload on r")
	f.BoolVar(&opts.version, "version", false, "print the version and exit")
	return cmd
}

func run(cmd *cobra.Command, opts options, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNotTerminal
	}

	a, err := setup(cmd, opts, args)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if err := a.start(ctx); err != nil {
		return err
	}
	return runTUIProgram(a.model)
}

// app is everything one dashboard session owns.
type app struct {
	beadsDir string
	cfg      config.Config
	store    *state.Store
	service  *reload.Service
	model    ui.Model
	watch    bool
	unsub    func()
}

// setup resolves the project and builds the session without touching the
// terminal or starting background work.
func setup(cmd *cobra.Command, opts options, args []string) (*app, error) {
	beadsDir, err := resolveBeadsDir(opts.beadsDir, args)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		// Non-fatal: keep going on defaults.
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (using defaults)\n", err)
	}
	if cmd.Flags().Changed("poll-interval") {
		cfg.PollInterval = opts.pollInterval
	}
	if cmd.Flags().Changed("page-size") {
		cfg.PageSize = opts.pageSize
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	settings := config.LoadUISettings(beadsDir)
	theme := cfg.Theme
	if settings.CurrentTheme != "" && settings.CurrentTheme != config.DefaultTheme {
		theme = settings.CurrentTheme
	}

	store := state.New(state.Options{
		PageSize:      cfg.PageSize,
		DefaultFilter: cfg.DefaultFilter,
		ToastDuration: cfg.ToastDuration,
		UndoCapacity:  cfg.UndoCapacity,
		Notifications: cfg.Notifications,
		HideBlocked:   !settings.ShowBlockedColumn,
		Theme:         theme,
	})
	store.SetDetails(settings.ShowDetails)

	svcOpts := []reload.Option{
		reload.WithPollInterval(cfg.PollInterval),
		reload.WithDebounce(cfg.Debounce),
		reload.WithHints(cfg.HintsEnabled()),
		reload.WithPanicHandler(func(p *reload.SubscriberPanic) {
			debug.Log("reload: %v", p)
		}),
	}
	if !opts.noWatch {
		svcOpts = append(svcOpts, reload.WithWatchPaths(watchPaths(beadsDir)...))
	}
	svc := reload.New(discoverLoader(beadsDir), svcOpts...)

	updates, unsub := ui.Subscribe(svc)
	w := writer.New(filepath.Dir(beadsDir), writer.WithCommand(cfg.BDCommand))
	m := ui.New(ui.Options{
		Store:    store,
		Reloader: svc,
		Updates:  updates,
		Writer:   w,
		BeadsDir: beadsDir,
	})

	debug.Section("startup")
	debug.Log("beads dir %s, poll %v, debounce %v, watch %v", beadsDir, cfg.PollInterval, cfg.Debounce, !opts.noWatch)

	return &app{
		beadsDir: beadsDir,
		cfg:      cfg,
		store:    store,
		service:  svc,
		model:    m,
		watch:    !opts.noWatch,
		unsub:    unsub,
	}, nil
}

// start runs the first load and, unless disabled, the change watcher. A
// failed first load is not fatal: the UI shows it and retries on change.
func (a *app) start(ctx context.Context) error {
	if a.watch {
		if err := a.service.Start(ctx); err != nil {
			return fmt.Errorf("starting change watcher: %w", err)
		}
	}
	if _, err := a.service.Reload(ctx); err != nil && !errors.Is(err, reload.ErrStopped) {
		debug.Log("startup: first load failed: %v", err)
	}
	return nil
}

func (a *app) close() {
	a.service.Stop()
	a.unsub()
}

// resolveBeadsDir picks the .beads directory from the flag, the positional
// path or the working directory, in that order.
func resolveBeadsDir(flag string, args []string) (string, error) {
	if flag != "" {
		abs, err := filepath.Abs(flag)
		if err != nil {
			return "", err
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			return "", fmt.Errorf("%w: %s is not a directory", datasource.ErrNoBeadsDir, abs)
		}
		return abs, nil
	}
	start := ""
	if len(args) > 0 {
		start = args[0]
	}
	dir, err := datasource.FindBeadsDir(start)
	if err != nil {
		return "", fmt.Errorf("%w\nRun 'bd init' to create a beads project", err)
	}
	return dir, nil
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// discoverLoader re-discovers the source on every load so a database
// created or removed while running is picked up.
func discoverLoader(beadsDir string) reload.LoadFunc {
	return func(ctx context.Context) (*model.Graph, error) {
		src, err := datasource.Discover(beadsDir)
		if err != nil {
			return nil, err
		}
		return reload.SourceLoader(src)(ctx)
	}
}

// watchPaths lists the files whose changes trigger a reload.
func watchPaths(beadsDir string) []string {
	if src, err := datasource.Discover(beadsDir); err == nil && src.Type == datasource.SourceTypeSQLite {
		return src.SignalPaths()
	}
	db := datasource.DataSource{Type: datasource.SourceTypeSQLite, Path: filepath.Join(beadsDir, "beads.db")}
	paths := db.SignalPaths()
	for _, name := range datasource.PreferredJSONLNames {
		paths = append(paths, filepath.Join(beadsDir, name))
	}
	return paths
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM; a second signal kills.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// BDUI_AUTOCLOSE_MS quits after a delay for scripted smoke runs.
	if v := os.Getenv("BDUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()
				select {
				case <-runDone:
				case <-timer.C:
					p.Quit()
				}
			}()
		}
	}

	_, err := p.Run()
	return err
}

