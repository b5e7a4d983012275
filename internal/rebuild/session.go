package rebuild

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/conneroisu/dxcwatch/internal/errors"
	"github.com/conneroisu/dxcwatch/internal/filewatch"
	"github.com/conneroisu/dxcwatch/internal/includes"
	"github.com/conneroisu/dxcwatch/internal/logging"
	"github.com/conneroisu/dxcwatch/internal/notify"
	"github.com/conneroisu/dxcwatch/internal/shaderlist"
)

// Options configures a Session.
type Options struct {
	// Shaderlist is the path of the shaderlist file to watch.
	Shaderlist string
	Compiler   Compiler

	// Parser defaults to shaderlist.Parser.
	Parser UnitParser
	// Scanner defaults to includes.Scanner.
	Scanner IncludeScanner
	// Watcher defaults to the process-wide filewatch registry.
	Watcher Watcher
	// Listener, when set, receives every rebuild and error-count event.
	Listener Listener
	Logger   logging.Logger

	// IncludeDirs are searched after the shaderlist directory.
	IncludeDirs  []string
	PollInterval time.Duration
}

// Session is one watch session over a shaderlist.
type Session struct {
	opts   Options
	logger logging.Logger

	listFlag    *filewatch.Handle
	includeDirs []string
	units       []*unit

	errors   int
	reported int
}

// New creates a session. Nothing is parsed or watched until Run or Init.
func New(opts Options) *Session {
	if opts.Parser == nil {
		opts.Parser = shaderlist.Parser{}
	}
	if opts.Scanner == nil {
		opts.Scanner = includes.Scanner{}
	}
	if opts.Watcher == nil {
		opts.Watcher = filewatch.Default()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Session{
		opts:   opts,
		logger: opts.Logger.WithComponent("rebuild"),
	}
}

// Run initializes the session and polls until ctx is cancelled. The poll
// in progress when ctx is cancelled runs to completion. Run releases every
// watch and the compiler before returning.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	defer s.Close()

	// Compiles run to completion even when ctx is cancelled mid-poll.
	work := context.WithoutCancel(ctx)
	if err := s.Init(work); err != nil {
		return s.Summary(), err
	}
	s.logger.Info(ctx, "Watching shaderlist", "path", s.listFlag.Path(), "interval", s.opts.PollInterval)

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			summary := s.Summary()
			s.logger.Info(ctx, "Stopped watching",
				"units", summary.Units(), "errors", summary.Errors)
			return summary, nil
		case <-ticker.C:
		}
		s.Poll(work)
	}
}

// Init watches the shaderlist, loads its units and builds all of them.
// A shaderlist that cannot be watched or parsed is an error.
func (s *Session) Init(ctx context.Context) error {
	listFlag, err := s.opts.Watcher.WatchFile(s.opts.Shaderlist, false)
	if err != nil {
		return err
	}
	s.listFlag = listFlag
	s.includeDirs = searchDirs(listFlag.Path(), s.opts.IncludeDirs)

	list, err := s.opts.Parser.Parse(s.opts.Shaderlist)
	if err != nil {
		return err
	}
	s.warnAll(ctx, list.Warnings)

	perf := logging.StartOperation(s.logger, "initial build")
	s.units = unitsOf(list)
	for _, u := range s.units {
		s.watch(ctx, u)
	}
	for _, u := range s.units {
		s.build(ctx, u)
	}
	s.listFlag.Clear()
	elapsed := perf.End(ctx)

	summary := s.Summary()
	s.logger.Info(ctx, "Initial build finished",
		"binaries", summary.Binaries, "libraries", summary.Libraries,
		"errors", summary.Errors, "duration", elapsed.Round(time.Millisecond))
	s.report(ctx)
	return nil
}

// Poll runs one iteration of the watch loop and reports whether anything
// was refreshed or rebuilt.
func (s *Session) Poll(ctx context.Context) bool {
	if s.listFlag.IsChanged() {
		s.listFlag.Clear()
		s.refresh(ctx)
		s.report(ctx)
		return true
	}

	rebuilt := false
	for _, u := range s.units {
		flag, changed := u.triggered()
		if !changed {
			continue
		}
		flag.Clear()
		s.rescan(ctx, u)
		s.build(ctx, u)
		rebuilt = true
	}
	s.report(ctx)
	return rebuilt
}

// refresh re-parses the shaderlist and re-initializes the session in
// place: every unit of the new list is watched and built, and every unit of
// the previous list is released. New watches are taken before the old ones
// are released so that Monitors of directories still in use survive. When
// parsing fails the current set stays in place.
func (s *Session) refresh(ctx context.Context) {
	list, err := s.opts.Parser.Parse(s.opts.Shaderlist)
	if err != nil {
		s.logger.Error(ctx, err, "Shaderlist could not be parsed, keeping the previous units")
		return
	}
	s.logger.Info(ctx, "Shaderlist changed, recompiling all shaders", "path", s.listFlag.Path())
	s.warnAll(ctx, list.Warnings)

	next := unitsOf(list)
	for _, u := range next {
		s.watch(ctx, u)
	}
	for _, old := range s.units {
		old.release()
	}
	s.units = next
	s.recount()

	for _, u := range next {
		s.build(ctx, u)
	}
}

// watch takes the source and include flags of a new unit. Flags are unique
// per unit, so clearing one unit's flag never hides a change from another
// unit watching the same file.
func (s *Session) watch(ctx context.Context, u *unit) {
	h, err := s.opts.Watcher.WatchFile(u.source, true)
	if err != nil {
		s.logger.Warn(ctx, err, "Cannot watch shader source, changes will not trigger rebuilds",
			"unit", u.name, "hint", errors.HintOf(err))
	}
	u.sourceFlag = h
	u.includes = s.watchIncludes(ctx, u)
}

// rescan replaces the include flags of u with fresh ones for its current
// include graph.
func (s *Session) rescan(ctx context.Context, u *unit) {
	stale := u.includes
	u.includes = s.watchIncludes(ctx, u)
	filewatch.ReleaseAll(stale)
}

func (s *Session) watchIncludes(ctx context.Context, u *unit) []*filewatch.Handle {
	paths, err := s.opts.Scanner.Scan(u.source, s.includeDirs)
	if err != nil {
		s.logger.Debug(ctx, "Include scan failed", "unit", u.name, "error", err.Error())
		return nil
	}
	handles := make([]*filewatch.Handle, 0, len(paths))
	for _, path := range paths {
		h, err := s.opts.Watcher.WatchFile(path, true)
		if err != nil {
			s.logger.Warn(ctx, err, "Cannot watch include", "unit", u.name, "include", path)
			continue
		}
		handles = append(handles, h)
	}
	return handles
}

// build compiles u and records the outcome.
func (s *Session) build(ctx context.Context, u *unit) {
	result, err := u.compile(ctx, s.opts.Compiler, s.includeDirs)

	failedBefore := u.built && !u.succeeded
	u.built = true
	u.succeeded = err == nil
	switch {
	case err != nil && !failedBefore:
		s.errors++
	case err == nil && failedBefore:
		s.errors--
	}

	event := notify.Event{
		Unit:        u.name,
		Errors:      s.errors,
		Diagnostics: result.Diagnostics,
	}
	if err != nil {
		s.logger.Warn(ctx, err, "Shader compilation failed", "unit", u.name)
		for _, d := range result.Diagnostics {
			s.logger.Warn(ctx, nil, d.String(), "unit", u.name)
		}
		event.Type = notify.EventFailed
		event.Message = err.Error()
	} else {
		s.logger.Info(ctx, "Compiled shader", "unit", u.name)
		event.Type = notify.EventRebuilt
		event.Outputs = result.Outputs
	}
	s.publish(event)
}

// recount recomputes the error count from the current units.
func (s *Session) recount() {
	s.errors = 0
	for _, u := range s.units {
		if u.built && !u.succeeded {
			s.errors++
		}
	}
}

// report emits a message when the number of failing units changed since
// the last report.
func (s *Session) report(ctx context.Context) {
	if s.errors == s.reported {
		return
	}
	delta := s.errors - s.reported
	s.reported = s.errors

	message := DeltaMessage(s.errors, delta)
	if s.errors == 0 {
		s.logger.Info(ctx, message)
	} else {
		s.logger.Warn(ctx, nil, message, "errors", s.errors, "delta", delta)
	}
	s.publish(notify.Event{Type: notify.EventErrors, Errors: s.errors, Delta: delta, Message: message})
}

// DeltaMessage renders a change of the outstanding error count.
func DeltaMessage(total, delta int) string {
	if total == 0 {
		return "all shader errors resolved"
	}
	return fmt.Sprintf("%d shader error(s) outstanding (%+d)", total, delta)
}

func (s *Session) publish(e notify.Event) {
	if s.opts.Listener != nil {
		s.opts.Listener.Publish(e)
	}
}

func (s *Session) warnAll(ctx context.Context, warnings []error) {
	for _, w := range warnings {
		s.logger.Warn(ctx, w, "Skipping shaderlist entry")
	}
}

// searchDirs returns the include search path: the shaderlist directory
// followed by extra, with relative entries resolved against it.
func searchDirs(listPath string, extra []string) []string {
	dirs := []string{filepath.Dir(listPath)}
	for _, d := range extra {
		if !filepath.IsAbs(d) {
			d = filepath.Join(filepath.Dir(listPath), d)
		}
		dirs = append(dirs, d)
	}
	return dirs
}

// Summary returns the current unit and error counts.
func (s *Session) Summary() Summary {
	summary := Summary{Errors: s.errors}
	for _, u := range s.units {
		if u.library {
			summary.Libraries++
		} else {
			summary.Binaries++
		}
	}
	return summary
}

// Close releases every watch and the compiler. It is called by Run.
func (s *Session) Close() error {
	for _, u := range s.units {
		u.release()
	}
	s.units = nil
	s.listFlag.Release()
	s.listFlag = nil
	if s.opts.Compiler == nil {
		return nil
	}
	return s.opts.Compiler.Close()
}
