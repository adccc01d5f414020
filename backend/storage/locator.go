package storage

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"drawlots/backend/domain"
	"drawlots/backend/events"
)

// DefaultAppID names the per-user folder under the system local data dir.
const DefaultAppID = "drawlots"

// Options configures a Locator. Zero values fall back to the running process.
type Options struct {
	Fs    afero.Fs
	Env   *Env
	AppID string

	// PreferredDirs are tried before the probed candidates.
	PreferredDirs []string
	// FallbackDir overrides the system data directory used as last resort.
	FallbackDir string
	// Fallback computes the last-resort directory when FallbackDir is empty.
	Fallback func() (string, error)

	Logger *zap.Logger
	Bus    *events.Bus
}

// Attempt records one try at preparing a directory during resolution.
type Attempt struct {
	Dir      string
	Fallback bool
	Err      error
}

// OK reports whether the directory was usable.
func (a Attempt) OK() bool { return a.Err == nil }

// Locator picks the active data directory once and remembers it for its lifetime.
//
// Callers share one Locator per process; the resolved location is never
// re-validated, so every read and write of a session targets the same directory.
type Locator struct {
	fs        afero.Fs
	env       Env
	preferred []string
	fallback  func() (string, error)
	logger    *zap.Logger
	bus       *events.Bus

	mu       sync.Mutex
	current  *domain.Location
	attempts []Attempt
}

// NewLocator creates a Locator.
func NewLocator(opts Options) *Locator {
	l := &Locator{
		fs:        opts.Fs,
		preferred: opts.PreferredDirs,
		fallback:  opts.Fallback,
		logger:    opts.Logger,
		bus:       opts.Bus,
	}
	if l.fs == nil {
		l.fs = afero.NewOsFs()
	}
	if opts.Env != nil {
		l.env = *opts.Env
	} else {
		l.env = OSEnv()
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}

	appID := strings.TrimSpace(opts.AppID)
	if appID == "" {
		appID = DefaultAppID
	}
	if dir := strings.TrimSpace(opts.FallbackDir); dir != "" {
		l.fallback = func() (string, error) { return dir, nil }
	} else if l.fallback == nil {
		l.fallback = func() (string, error) { return FallbackDir(appID) }
	}
	return l
}

// Fs returns the filesystem the locator prepares directories on.
func (l *Locator) Fs() afero.Fs { return l.fs }

// Resolve returns the active data directory, resolving it on first use.
//
// Cached hits return the resolved location unchanged, advisory message
// included, so every caller can surface the fallback notice.
func (l *Locator) Resolve() (domain.Location, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current != nil {
		return *l.current, nil
	}

	loc, attempts, err := l.resolve()
	l.attempts = attempts
	if err != nil {
		l.logger.Error("[Storage] no usable data dir", zap.Error(err))
		return domain.Location{}, err
	}

	l.current = &loc
	if l.bus != nil {
		l.bus.PublishSync(events.LocationEvent{EventType: events.EventLocationResolved, Location: loc})
	}
	return loc, nil
}

// Current returns the cached location, if any, without resolving.
func (l *Locator) Current() (domain.Location, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return domain.Location{}, false
	}
	return *l.current, true
}

// Attempts returns the directories tried by the last resolution, in order.
func (l *Locator) Attempts() []Attempt {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Attempt, len(l.attempts))
	copy(out, l.attempts)
	return out
}

func (l *Locator) resolve() (domain.Location, []Attempt, error) {
	candidates := Candidates(l.fs, l.env, l.preferred...)
	attempts := make([]Attempt, 0, len(candidates)+1)

	for _, dir := range candidates {
		err := Prepare(l.fs, dir)
		attempts = append(attempts, Attempt{Dir: dir, Err: err})
		if err == nil {
			l.logger.Info("[Storage] using data dir", zap.String("dir", dir))
			return domain.Location{Dir: dir}, attempts, nil
		}
		l.logger.Warn("[Storage] data dir not usable", zap.String("dir", dir), zap.Error(err))
	}

	fallbackDir, err := l.fallback()
	if err != nil {
		if !errors.Is(err, ErrLocationUnavailable) {
			err = fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
		}
		return domain.Location{}, attempts, err
	}
	fallbackDir = absPath(fallbackDir)
	if fallbackDir == "" {
		return domain.Location{}, attempts, ErrLocationUnavailable
	}

	err = Prepare(l.fs, fallbackDir)
	attempts = append(attempts, Attempt{Dir: fallbackDir, Fallback: true, Err: err})
	if err != nil {
		return domain.Location{}, attempts, err
	}

	loc := domain.Location{Dir: fallbackDir, UsingFallback: true}
	if failed, ok := firstFailure(attempts); ok {
		loc.OriginalDir = failed.Dir
		loc.Message = fmt.Sprintf("preferred data dir is not writable (%s): %v; using system data dir: %s",
			failed.Dir, failed.Err, fallbackDir)
	}
	l.logger.Warn("[Storage] using fallback data dir",
		zap.String("dir", fallbackDir),
		zap.String("original", loc.OriginalDir))
	return loc, attempts, nil
}

func firstFailure(attempts []Attempt) (Attempt, bool) {
	for _, a := range attempts {
		if !a.Fallback && !a.OK() {
			return a, true
		}
	}
	return Attempt{}, false
}
