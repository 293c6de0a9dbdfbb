// Package log holds the node's zerolog loggers: one root logger and a
// child per component, rebuilt whenever Init changes the output.
package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const timeFormat = "15:04:05"

// Logger is the root logger. Component loggers below derive from it.
var Logger zerolog.Logger

var (
	Ledger   zerolog.Logger
	Registry zerolog.Logger
	Guard    zerolog.Logger
	Bank     zerolog.Logger
	Chain    zerolog.Logger
	RPC      zerolog.Logger
	Storage  zerolog.Logger
	Wallet   zerolog.Logger
)

var components = []struct {
	name string
	dst  *zerolog.Logger
}{
	{"ledger", &Ledger},
	{"registry", &Registry},
	{"guard", &Guard},
	{"bank", &Bank},
	{"chain", &Chain},
	{"rpc", &RPC},
	{"storage", &Storage},
	{"wallet", &Wallet},
}

var (
	mu      sync.Mutex
	logFile *os.File
)

func init() {
	setRoot(New(os.Stdout, "info", false))
}

// Init points every logger at stdout, colored unless jsonOutput. A non-empty
// file additionally receives JSON lines; the file from a previous Init is
// closed.
func Init(level string, jsonOutput bool, file string) error {
	mu.Lock()
	defer mu.Unlock()

	var w io.Writer = os.Stdout
	if !jsonOutput {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: timeFormat}
	}
	var f *os.File
	if file != "" {
		var err error
		f, err = os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		w = zerolog.MultiLevelWriter(w, f)
	}
	if logFile != nil {
		logFile.Close()
	}
	logFile = f

	setRoot(zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger())
	return nil
}

// New returns a timestamped logger writing JSON lines, or colored console
// output when console is set.
func New(w io.Writer, level string, console bool) zerolog.Logger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat}
	}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

func setRoot(l zerolog.Logger) {
	Logger = l
	for _, c := range components {
		*c.dst = WithComponent(c.name)
	}
}

// ParseLevel maps a level name to zerolog, falling back to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// ValidLevel reports whether level is one the config accepts.
func ValidLevel(level string) bool {
	switch strings.ToLower(level) {
	case "trace", "debug", "info", "warn", "error":
		return true
	}
	return false
}

// WithComponent returns a child of Logger tagged with component=name.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}
