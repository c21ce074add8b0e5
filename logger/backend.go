package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

// defaultFlags specifies changes to the default logger behavior. It is set
// during package init and configured using the LOGFLAGS environment
// variable. New logger backends can override these default flags using
// NewBackendWithFlags.
var defaultFlags = getDefaultFlags()

// Flags to modify Backend's behavior.
const (
	// LogFlagLongFile modifies the logger output to include full path and
	// line number of the logging callsite, e.g. /a/b/c/main.go:123.
	LogFlagLongFile uint32 = 1 << iota

	// LogFlagShortFile modifies the logger output to include filename and
	// line number of the logging callsite, e.g. main.go:123. Takes
	// precedence over LogFlagLongFile.
	LogFlagShortFile
)

// Read logger flags from the LOGFLAGS environment variable. Multiple flags
// can be set at once, separated by commas.
func getDefaultFlags() (flags uint32) {
	for _, f := range strings.Split(os.Getenv("LOGFLAGS"), ",") {
		switch f {
		case "longfile":
			flags |= LogFlagLongFile
		case "shortfile":
			flags |= LogFlagShortFile
		}
	}
	return
}

const (
	defaultThresholdKB = 100 * 1000 // 100 MB logs by default.
	defaultMaxRolls    = 8          // keep 8 last logs by default.
)

type logWriter interface {
	io.WriteCloser
	LogLevel() Level
}

type logWriterWrap struct {
	io.WriteCloser
	logLevel Level
}

func (lw logWriterWrap) LogLevel() Level {
	return lw.logLevel
}

// Backend is a logging backend. Subsystems created from the backend write
// to the backend's writers. Writes to all writers are serialized under a
// single mutex so interleaved log lines stay whole.
type Backend struct {
	flag    uint32
	mtx     sync.Mutex
	writers []logWriter
	closed  bool
}

// NewBackendWithFlags configures a Backend to use the specified flags
// rather than using the package's defaults as determined through the
// LOGFLAGS environment variable.
func NewBackendWithFlags(flags uint32) *Backend {
	return &Backend{flag: flags}
}

// NewBackend creates a new logger backend.
func NewBackend() *Backend {
	return NewBackendWithFlags(defaultFlags)
}

// AddLogFile adds a file which the log will write into on a certain log
// level with the default log rotation settings. It'll create the file if
// it doesn't exist.
func (b *Backend) AddLogFile(logFile string, logLevel Level) error {
	return b.AddLogFileWithCustomRotator(logFile, logLevel, defaultThresholdKB, defaultMaxRolls)
}

// AddLogWriter adds a type implementing io.WriteCloser which the log will
// write into on a certain log level.
func (b *Backend) AddLogWriter(logWriter io.WriteCloser, logLevel Level) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if b.closed {
		return errors.New("the logger backend is closed")
	}
	b.writers = append(b.writers, logWriterWrap{
		WriteCloser: logWriter,
		logLevel:    logLevel,
	})
	return nil
}

// AddLogFileWithCustomRotator adds a file which the log will write into on
// a certain log level, with the specified log rotation settings. It'll
// create the file if it doesn't exist.
func (b *Backend) AddLogFileWithCustomRotator(logFile string, logLevel Level, thresholdKB int64, maxRolls int) error {
	logDir, _ := filepath.Split(logFile)
	// If the logDir is empty then logFile is in the cwd and there's no
	// need to create any directory.
	if logDir != "" {
		err := os.MkdirAll(logDir, 0700)
		if err != nil {
			return errors.Errorf("failed to create log directory: %+v", err)
		}
	}
	r, err := rotator.New(logFile, thresholdKB, false, maxRolls)
	if err != nil {
		return errors.Errorf("failed to create file rotator: %s", err)
	}
	return b.AddLogWriter(r, logLevel)
}

// write hands a formatted log line to every writer whose level admits it.
func (b *Backend) write(level Level, line []byte) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if b.closed {
		return
	}
	for _, writer := range b.writers {
		if level >= writer.LogLevel() {
			_, _ = writer.Write(line)
		}
	}
}

// Close finalizes all log rotators for this backend. Writes after Close
// are dropped.
func (b *Backend) Close() {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, writer := range b.writers {
		_ = writer.Close()
	}
}

// Logger returns a new logger for a particular subsystem that writes to
// the Backend b. A tag describes the subsystem and is included in all log
// messages. The logger uses the info verbosity level by default.
func (b *Backend) Logger(subsystemTag string) *Logger {
	return &Logger{lvl: LevelInfo, tag: subsystemTag, b: b}
}
