// Package supervisor drives the process lifecycle: daemonization, the
// ordered subsystem bring-up against the engine, the steady-state wait
// loop, and reverse-order teardown. Every failure here is fatal to the
// run; the outcome surfaces only through the logging sink and the exit
// status returned to the process caller.
package supervisor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	daemon "github.com/sevlyar/go-daemon"

	"github.com/nconfd/nconfd/internal/engine"
	"github.com/nconfd/nconfd/internal/logging"
)

// Exit statuses returned to the process caller.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Stopper exposes the shutdown flag polled by the wait loop.
type Stopper interface {
	StopRequested() bool
}

// Feature names one optional feature to enable on a registered model.
type Feature struct {
	Model string
	Name  string
}

// Config describes one supervised run: run mode, verbosity, and the
// artifacts the bring-up sequence binds against the engine.
type Config struct {
	Foreground  bool
	Verbosity   logging.Level
	ProcessName string
	PidFile     string

	// Models registered before the datastore is created, and registered
	// again afterwards for the backing semantics.
	Models []string

	// DatastoreModel is the schema the server datastore is created from;
	// DatastorePath is its concrete storage location.
	DatastoreModel string
	DatastorePath  string

	Features  []Feature
	Callbacks engine.Callbacks

	PollInterval time.Duration
}

// DefaultConfig mirrors the stock installation layout under /etc/nconfd.
func DefaultConfig() Config {
	confDir := filepath.Join("/etc", "nconfd")
	serverDir := filepath.Join(confDir, "netconf-server")
	return Config{
		Verbosity:      logging.LevelError,
		ProcessName:    "nconfd",
		PidFile:        filepath.Join("/var", "run", "nconfd.pid"),
		Models:         []string{filepath.Join(serverDir, "x509-cert-to-name.yin")},
		DatastoreModel: filepath.Join(serverDir, "netconf-server.yin"),
		DatastorePath:  filepath.Join(serverDir, "datastore.xml"),
		Features: []Feature{
			{Model: "netconf-server", Name: "ssh"},
			{Model: "netconf-server", Name: "inbound-ssh"},
		},
		PollInterval: time.Second,
	}
}

// Service owns the bring-up sequencer state machine.
type Service struct {
	cfg     Config
	eng     engine.Engine
	stopper Stopper

	// Hooks replaced in tests: detach backgrounds the process, sleep
	// paces the wait loop.
	detach func() error
	sleep  func(time.Duration)
}

// New creates a supervisor service for one run.
func New(cfg Config, eng engine.Engine, stopper Stopper) *Service {
	if strings.TrimSpace(cfg.ProcessName) == "" {
		cfg.ProcessName = "nconfd"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	s := &Service{
		cfg:     cfg,
		eng:     eng,
		stopper: stopper,
		sleep:   time.Sleep,
	}
	s.detach = s.detachDaemon
	return s
}

// Run drives Init -> Daemonizing -> BringingUp -> SteadyState ->
// TearingDown and returns the accumulated exit status.
func (s *Service) Run() int {
	if err := logging.Configure(s.cfg.Verbosity, s.cfg.Foreground, s.cfg.ProcessName); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", s.cfg.ProcessName, err)
		return ExitFailure
	}

	if !s.cfg.Foreground {
		if err := s.detach(); err != nil {
			log.Error().Err(err).Msg("going to background failed")
			return ExitFailure
		}
	}

	if err := s.eng.Init(engine.ModeMultilayer); err != nil {
		log.Error().Err(err).Msg("engine initialization failed")
		s.eng.Close()
		return ExitFailure
	}

	var rel releaseStack
	rel.push(s.eng.Close)

	status := s.bringUp(&rel)
	if status == ExitSuccess {
		log.Info().Msg("server successfully initialized")
		for !s.stopper.StopRequested() {
			s.sleep(s.cfg.PollInterval)
		}
		log.Info().Msg("shutdown requested")
	}

	rel.release()
	return status
}

// bringUp executes the ordered acquisition steps, each gated on the
// success of the previous one. Every acquired resource pushes a matching
// release so teardown runs in reverse acquisition order.
func (s *Service) bringUp(rel *releaseStack) int {
	for _, path := range s.cfg.Models {
		if err := s.eng.RegisterModel(path); err != nil {
			log.Error().Err(err).Str("model", path).Msg("registering data model failed")
			return ExitFailure
		}
	}

	ds, err := s.eng.CreateDatastore(engine.KindFile, s.cfg.DatastoreModel, s.cfg.Callbacks)
	if err != nil {
		log.Error().Err(err).Str("model", s.cfg.DatastoreModel).Msg("creating server datastore failed")
		return ExitFailure
	}
	rel.push(ds.Close)

	ds.SetBackingPath(s.cfg.DatastorePath)

	// The backing semantics need the same models; registration is
	// idempotent when they are already present.
	for _, path := range s.cfg.Models {
		if err := s.eng.RegisterModel(path); err != nil {
			log.Error().Err(err).Str("model", path).Msg("registering backing data model failed")
			return ExitFailure
		}
	}

	for _, f := range s.cfg.Features {
		if err := s.eng.EnableFeature(f.Model, f.Name); err != nil {
			log.Error().Err(err).Str("model", f.Model).Str("feature", f.Name).Msg("enabling model feature failed")
			return ExitFailure
		}
	}

	id, err := s.eng.InitDatastore(ds)
	if err != nil || id < 0 {
		log.Error().Err(err).Int64("id", int64(id)).Msg("initiating server datastore failed")
		return ExitFailure
	}

	if err := s.eng.Consolidate(); err != nil {
		log.Error().Err(err).Msg("consolidating data models failed")
		return ExitFailure
	}

	if err := s.eng.DeviceInit(id); err != nil {
		log.Error().Err(err).Int64("id", int64(id)).Msg("device-level datastore initialization failed")
		return ExitFailure
	}

	return ExitSuccess
}

// detachDaemon moves the process into the background: new session,
// redirected standard streams, pid file. The parent exits on success and
// only the detached child returns.
func (s *Service) detachDaemon() error {
	dctx := &daemon.Context{
		PidFileName: s.cfg.PidFile,
		PidFilePerm: 0o644,
		Umask:       0o027,
	}
	child, err := dctx.Reborn()
	if err != nil {
		return err
	}
	if child != nil {
		os.Exit(ExitSuccess)
	}
	return nil
}

// releaseStack tracks release actions for acquired resources and runs
// them in reverse acquisition order.
type releaseStack struct {
	fns []func()
}

func (r *releaseStack) push(fn func()) {
	r.fns = append(r.fns, fn)
}

func (r *releaseStack) release() {
	for i := len(r.fns) - 1; i >= 0; i-- {
		r.fns[i]()
	}
	r.fns = nil
}
