package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/studysight/internal/classifier"
	"github.com/nao1215/studysight/internal/config"
	"github.com/nao1215/studysight/internal/dom"
	"github.com/nao1215/studysight/internal/fetch"
	"github.com/nao1215/studysight/internal/model"
	"github.com/nao1215/studysight/internal/pipeline"
	"github.com/nao1215/studysight/internal/reconcile"
	"github.com/nao1215/studysight/internal/relay"
	"github.com/nao1215/studysight/internal/store"
)

// errWatchOneSource is returned when watch is given more or less than one page.
var errWatchOneSource = errors.New("watch takes exactly one page")

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [page]",
		Short: "Keep a page annotated while it and the settings change",
		Long: `Watch keeps one page annotated for as long as it runs.

The page is classified when the session starts and again whenever the page
file changes (after the debounce interval), when the classifier model
finishes loading, and when the settings change through
"studysight settings set" in another terminal.

URL pages are fetched once; local files are re-read on every change.

Examples:
  # Keep annotated.html in sync with a saved page
  studysight watch --out-dir ./annotated home.html

  # Record every pass in the history store
  studysight watch --save --model-dir ./json home.html`,
		Args: cobra.ArbitraryArgs,
		RunE: runWatchCmd,
	}
	addPageFlags(cmd)
	return cmd
}

// runWatchCmd executes the watch command.
func runWatchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if len(cfg.Sources) != 1 {
		return errWatchOneSource
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runWatch(ctx, cfg, cmd.OutOrStdout(), logger)
}

// watchSession is the state of a running watch.
type watchSession struct {
	cfg     *config.Config
	source  string
	fetcher *fetch.Fetcher
	db      *store.Store
	rec     *reconcile.Reconciler
	hub     *relay.Hub
	logger  *slog.Logger

	// out and outPath are written by the pass hook on the loop goroutine.
	out     io.Writer
	outPath string

	// pagePath, pageHash and revision belong to the watcher goroutine.
	pagePath string
	pageHash string
	revision int64
}

// runWatch runs a session until ctx is done. Cancellation is a clean exit.
func runWatch(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	if len(cfg.Sources) != 1 {
		return errWatchOneSource
	}

	db, err := store.Open(cfg.DBDir, store.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	settings, err := db.LoadSettings(ctx)
	if err != nil {
		return err
	}
	revision, err := db.SettingsRevision(ctx)
	if err != nil {
		return err
	}

	s := &watchSession{
		cfg:      cfg,
		source:   cfg.Sources[0],
		fetcher:  newFetcher(cfg),
		db:       db,
		hub:      relay.NewHub(logger),
		logger:   logger,
		out:      out,
		revision: revision,
	}
	if cfg.OutputDir != "" {
		s.outPath = pipeline.OutputPath(cfg.OutputDir, s.source)
	}

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}

	cls := classifier.New(classifier.WithLogger(logger))
	s.rec = reconcile.New(doc, cls,
		reconcile.WithSource(s.source),
		reconcile.WithSettings(settings),
		reconcile.WithSettingsSource(db),
		reconcile.WithDebounce(cfg.Debounce),
		reconcile.WithLogger(logger),
		reconcile.WithPassHook(func(r *model.PassReport) { s.onPass(ctx, r) }),
	)
	unregister := s.hub.Register(s.rec)
	defer unregister()

	watcher, err := s.newWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", describeSource(s.source))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.rec.Run(gctx)
	})
	g.Go(func() error {
		return s.watchFiles(gctx, watcher)
	})
	if src := modelSource(cfg, s.fetcher); src != nil {
		loaded := cls.LoadAsync(gctx, src)
		g.Go(func() error {
			return s.awaitModel(gctx, loaded)
		})
	}

	if err := s.rec.Do(gctx, func() { s.rec.RunPass() }); err != nil {
		logger.Debug("initial pass not run", "error", err)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// load reads and parses the page, remembering its hash.
func (s *watchSession) load(ctx context.Context) (*dom.Document, error) {
	page, err := s.fetcher.Fetch(ctx, s.source)
	if err != nil {
		return nil, err
	}
	doc, err := dom.Parse(bytes.NewReader(page.Raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.source, err)
	}
	s.pageHash = page.Hash
	return doc, nil
}

// newWatcher watches the page's directory (file sources only) and the store
// directory. Directories are watched so that editors replacing the file by
// rename are still seen.
func (s *watchSession) newWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dirs := []string{s.cfg.DBDir}
	if !fetch.IsURL(s.source) {
		abs, err := filepath.Abs(s.source)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		s.pagePath = abs
		dirs = append(dirs, filepath.Dir(abs))
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return watcher, nil
}

// Store events arrive before SQLite publishes the commit to other
// connections, so the revision is read once writes have settled, and on a
// slow poll in case the last event was missed.
const (
	storeSettle  = 50 * time.Millisecond
	settingsPoll = time.Second
)

// watchFiles dispatches file events until ctx is done.
func (s *watchSession) watchFiles(ctx context.Context, watcher *fsnotify.Watcher) error {
	settle := time.NewTimer(storeSettle)
	settle.Stop()
	defer settle.Stop()
	poll := time.NewTicker(settingsPoll)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-settle.C:
			s.checkSettings(ctx)
		case <-poll.C:
			s.checkSettings(ctx)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			switch {
			case s.isPageEvent(ev):
				s.reloadPage(ctx)
			case isStoreEvent(ev):
				settle.Reset(storeSettle)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (s *watchSession) isPageEvent(ev fsnotify.Event) bool {
	if s.pagePath == "" {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	return err == nil && abs == s.pagePath
}

// isStoreEvent matches the database file and its WAL companions.
func isStoreEvent(ev fsnotify.Event) bool {
	return strings.HasPrefix(filepath.Base(ev.Name), store.FileName)
}

// reloadPage swaps the document body for the changed page. The mutation
// schedules a debounced pass; with suppression off the page is rendered
// right away.
func (s *watchSession) reloadPage(ctx context.Context) {
	page, err := s.fetcher.Fetch(ctx, s.source)
	if err != nil {
		s.logger.Warn("failed to reload page", "source", s.source, "error", err)
		return
	}
	if page.Hash == s.pageHash {
		return
	}
	next, err := dom.Parse(bytes.NewReader(page.Raw))
	if err != nil {
		s.logger.Warn("failed to parse page", "source", s.source, "error", err)
		return
	}
	s.pageHash = page.Hash

	err = s.rec.Do(ctx, func() {
		s.rec.Document().ReplaceBody(next)
		if !s.rec.Settings().Enabled {
			s.rec.RunPass()
		}
	})
	if err != nil {
		s.logger.Debug("page reload dropped", "error", err)
	}
}

// checkSettings broadcasts a settings notification when the stored revision
// moved.
func (s *watchSession) checkSettings(ctx context.Context) {
	rev, err := s.db.SettingsRevision(ctx)
	if err != nil {
		s.logger.Warn("failed to read settings revision", "error", err)
		return
	}
	if rev == s.revision {
		return
	}
	s.revision = rev

	stats := s.hub.Broadcast(ctx, relay.UpdateSettings())
	s.logger.Debug("settings change delivered",
		"revision", rev,
		"delivered", stats.Delivered,
		"failed", stats.Failed,
	)
}

// awaitModel runs a pass once the model has loaded.
func (s *watchSession) awaitModel(ctx context.Context, loaded <-chan error) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-loaded:
		if err != nil {
			s.logger.Warn("classifier model unavailable, using keywords", "error", err)
			return nil
		}
	}
	if err := s.rec.Do(ctx, func() { s.rec.RunPass() }); err != nil {
		s.logger.Debug("model pass not run", "error", err)
	}
	return nil
}

// onPass renders, prints and optionally records a finished pass. It runs on
// the reconciler's loop goroutine.
func (s *watchSession) onPass(ctx context.Context, r *model.PassReport) {
	if s.outPath != "" {
		if err := pipeline.WriteDocument(s.outPath, s.rec.Document()); err != nil {
			s.logger.Error("failed to write annotated page", "path", s.outPath, "error", err)
		}
	}

	if r.Strategy == model.StrategyDisabled {
		fmt.Fprintf(s.out, "[%s] suppression off, %d card(s) cleared\n",
			r.StartedAt.Format("15:04:05"), r.Cleared)
	} else {
		fmt.Fprintf(s.out, "[%s] %d kept, %d suppressed, %d short form (%s)\n",
			r.StartedAt.Format("15:04:05"), r.Kept, r.Suppressed, r.ShortForm, r.Strategy)
	}

	if s.cfg.SaveToDB {
		if _, err := s.db.SavePass(ctx, r); err != nil {
			s.logger.Error("failed to record pass", "error", err)
		}
	}
}
