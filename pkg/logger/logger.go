// pkg/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger

	mu     sync.Mutex
	out    io.Writer = os.Stdout
	format           = FormatConsole
	level            = zerolog.InfoLevel
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano
	rebuild()
}

// SetOutput redirects the global logger. The CLI sends logs to stderr so that
// command output on stdout stays clean.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	rebuild()
}

// SetFormat switches between human-readable console lines and JSON. Unknown
// formats fall back to console.
func SetFormat(f string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(f)) {
	case FormatJSON:
		format = FormatJSON
	default:
		format = FormatConsole
	}
	rebuild()
}

// SetLevel sets the log level
func SetLevel(levelStr string) {
	mu.Lock()
	defer mu.Unlock()
	parsed, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
		parsed = zerolog.InfoLevel
	}
	level = parsed
	zerolog.SetGlobalLevel(level)
	rebuild()
}

func rebuild() {
	w := out
	if format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05"}
	}

	Log = zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()

	// packages log through zerolog/log
	log.Logger = Log
}
