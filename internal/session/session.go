// Package session drives the fixed boot sequence that turns an open serial
// transport and a parsed document into a completed cut: status, firmware,
// cartridge, wait-for-mat, bounds, cut, eject.
package session

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kcutter/gocut/internal/command"
	"github.com/kcutter/gocut/internal/cutcompiler"
	"github.com/kcutter/gocut/internal/drawpath"
)

// Config carries every knob the boot sequence and cut compiler need,
// threaded explicitly rather than read from package-level state.
type Config struct {
	Intercommand time.Duration
	Intercurve   time.Duration
	Eject        bool
	Quick        bool
	NoiseSeed    uint32 // 0 means use the system CSPRNG
	MatPollEvery time.Duration
}

// DefaultConfig matches the reference client's defaults.
func DefaultConfig() Config {
	return Config{
		Intercommand: 100 * time.Millisecond,
		Intercurve:   5 * time.Millisecond,
		Eject:        true,
		Quick:        false,
		MatPollEvery: 5 * time.Second,
	}
}

// Transport is the serial handle the session drains and eventually closes.
// It embeds command.Transport so the same value serves both the command
// layer and the session's own pacing drains.
type Transport interface {
	command.Transport
	Close() error
}

// PromptFunc is called between mat polls so a caller (typically the CLI)
// can tell the operator to load a mat. It is never called in quick mode's
// accelerated paths, only while genuinely waiting.
type PromptFunc func(attempt int)

// Session owns one open transport for its full boot-to-close lifetime.
type Session struct {
	cfg    Config
	layer  *command.Layer
	tr     Transport
	log    *logrus.Entry
	prompt PromptFunc
	sleep  func(time.Duration)
}

// Option configures a Session at construction.
type Option func(*Session)

// WithLogger attaches a structured logger.
func WithLogger(log *logrus.Entry) Option {
	return func(s *Session) { s.log = log }
}

// WithPrompt sets the callback invoked while waiting for a mat to load.
func WithPrompt(fn PromptFunc) Option {
	return func(s *Session) { s.prompt = fn }
}

// withSleep overrides the wait function; used by tests to avoid real time.
func withSleep(fn func(time.Duration)) Option {
	return func(s *Session) { s.sleep = fn }
}

// New builds a Session over an already-open transport.
func New(tr Transport, cfg Config, opts ...Option) *Session {
	s := &Session{cfg: cfg, tr: tr, sleep: time.Sleep}
	s.log = logrus.NewEntry(logrus.StandardLogger())

	var layerOpts []command.Option
	if cfg.NoiseSeed != 0 {
		layerOpts = append(layerOpts, command.WithFixedNoise(cfg.NoiseSeed))
	}
	for _, opt := range opts {
		opt(s)
	}
	layerOpts = append(layerOpts, command.WithLogger(s.log))
	s.layer = command.NewLayer(tr, layerOpts...)
	return s
}

// BootInfo summarizes what the boot sequence observed, for the caller to
// log or display.
type BootInfo struct {
	Version   *command.VersionReply
	Status    *command.StatusReply
	Cartridge *command.CartridgeReply
	Bounds    *command.BoundsReply
	MatPolls  int
}

// Run executes the full boot-through-close sequence: drain, status,
// firmware, cartridge, wait for mat, bounds, optional pressure wait, cut
// doc (if non-nil), optional eject, final drain, close.
func (s *Session) Run(doc *drawpath.Document) (*BootInfo, error) {
	defer s.tr.Close()

	if _, err := s.tr.Drain(500 * time.Millisecond); err != nil {
		s.log.WithError(err).Debug("initial drain failed")
	}

	info := &BootInfo{}

	st, err := s.layer.Do(command.Command{Kind: command.Status})
	if err != nil {
		return info, err
	}
	info.Status = st.(*command.StatusReply)

	ver, err := s.layer.Do(command.Command{Kind: command.Version})
	if err != nil {
		return info, err
	}
	info.Version = ver.(*command.VersionReply)

	cart, err := s.layer.Do(command.Command{Kind: command.Cartridge})
	if err != nil {
		return info, err
	}
	info.Cartridge = cart.(*command.CartridgeReply)

	matAlreadyLoaded, err := s.waitForMat(info)
	if err != nil {
		return info, err
	}

	bounds, err := s.layer.Do(command.Command{Kind: command.Bounds})
	if err != nil {
		return info, err
	}
	info.Bounds = bounds.(*command.BoundsReply)

	if !matAlreadyLoaded && !s.cfg.Quick {
		s.log.Info("waiting for mat pressure to settle")
		s.sleep(15 * time.Second)
	}

	if doc != nil {
		compiler := cutcompiler.NewCompiler(s.layer, s.tr, cutcompiler.Config{
			Intercommand: s.cfg.Intercommand,
			Intercurve:   s.cfg.Intercurve,
		})
		if err := compiler.SetScaling(int(info.Bounds.XMin), int(info.Bounds.YMin),
			int(info.Bounds.XMax)-int(info.Bounds.XMin), int(info.Bounds.YMax)-int(info.Bounds.YMin)); err != nil {
			return info, err
		}
		if _, err := compiler.CutAllDrawSets(doc); err != nil {
			return info, err
		}
	}

	if s.cfg.Eject {
		if _, err := s.layer.Do(command.Command{Kind: command.MoveCut, Sub: command.SubCmdMove, X: 0, Y: 0}); err != nil {
			return info, err
		}
	}

	if _, err := s.tr.Drain(time.Second); err != nil {
		s.log.WithError(err).Debug("final drain failed")
	}
	return info, nil
}

// waitForMat polls status until the mat is loaded, invoking prompt (if set)
// between polls no more often than MatPollEvery. It returns whether the mat
// was already loaded on the very first check.
func (s *Session) waitForMat(info *BootInfo) (alreadyLoaded bool, err error) {
	for attempt := 0; ; attempt++ {
		r, err := s.layer.Do(command.Command{Kind: command.Status})
		if err != nil {
			return false, err
		}
		status := r.(*command.StatusReply)
		info.MatPolls = attempt + 1
		if status.MatLoaded {
			return attempt == 0, nil
		}
		if s.prompt != nil {
			s.prompt(attempt)
		}
		s.sleep(s.cfg.MatPollEvery)
	}
}
