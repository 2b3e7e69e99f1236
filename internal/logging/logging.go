package logging

import (
	"fmt"
	"io"
	"log/syslog"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Level is the verbosity of diagnostic output. Levels are ordered: each
// level includes everything the lower levels print.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelVerbose
	LevelDebug
)

const (
	MinLevel = LevelError
	MaxLevel = LevelDebug
)

// Clamp normalizes an arbitrary integer into the supported level range.
func Clamp(v int) Level {
	if v < int(MinLevel) {
		return MinLevel
	}
	if v > int(MaxLevel) {
		return MaxLevel
	}
	return Level(v)
}

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelVerbose:
		return "verbose"
	case LevelDebug:
		return "debug"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

func (l Level) zerologLevel() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelVerbose:
		return zerolog.InfoLevel
	case LevelWarning:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

var configureOnce sync.Once

// Configure installs the process-wide logging sink. Daemon processes log
// to the system log facility tagged with tag; foreground processes log to
// syslog and the invoking terminal. The sink is installed once per
// process; later calls are no-ops.
func Configure(level Level, foreground bool, tag string) error {
	var err error
	configureOnce.Do(func() {
		err = configure(level, foreground, tag)
	})
	return err
}

func configure(level Level, foreground bool, tag string) error {
	zerolog.SetGlobalLevel(level.zerologLevel())

	sw, serr := syslog.New(syslog.LOG_DAEMON|syslog.LOG_INFO, tag)
	if !foreground {
		if serr != nil {
			return fmt.Errorf("open syslog: %w", serr)
		}
		log.Logger = zerolog.New(zerolog.SyslogLevelWriter(sw)).With().Timestamp().Str("app", tag).Logger()
		return nil
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	var sink io.Writer = console
	if serr == nil {
		// Foreground still mirrors everything to syslog when available.
		sink = zerolog.MultiLevelWriter(zerolog.SyslogLevelWriter(sw), console)
	}
	log.Logger = zerolog.New(sink).With().Timestamp().Str("app", tag).Logger()
	return nil
}

// ConfigureTests routes logging to the terminal at debug level. It claims
// the once-guard so later Configure calls stay inert during tests.
func ConfigureTests() {
	configureOnce.Do(func() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(console).With().Timestamp().Logger()
	})
}
