package logger

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// backendLog is the shared backend every registered subsystem writes to.
var backendLog = NewBackend()

var (
	subsystemsMtx sync.Mutex
	subsystems    = make(map[string]*Logger)
)

// RegisterSubSystem returns a logger for the given subsystem tag, creating
// it on first use. Packages call this once at init time to obtain their
// package-level log variable.
func RegisterSubSystem(subsystem string) *Logger {
	subsystemsMtx.Lock()
	defer subsystemsMtx.Unlock()
	log, ok := subsystems[subsystem]
	if !ok {
		log = backendLog.Logger(subsystem)
		subsystems[subsystem] = log
	}
	return log
}

// InitLog attaches the standard log files to the shared backend: every
// message to logFile and error-and-above to errLogFile.
func InitLog(logFile, errLogFile string) error {
	err := backendLog.AddLogFile(logFile, LevelTrace)
	if err != nil {
		return err
	}
	err = backendLog.AddLogFile(errLogFile, LevelWarn)
	if err != nil {
		return err
	}
	return backendLog.AddLogWriter(os.Stdout, LevelInfo)
}

// SetLogLevels sets the logging level of all registered subsystems to the
// provided level string. Invalid level strings are rejected.
func SetLogLevels(logLevel string) error {
	lvl, ok := LevelFromString(logLevel)
	if !ok {
		return fmt.Errorf("invalid log level %q", logLevel)
	}

	subsystemsMtx.Lock()
	defer subsystemsMtx.Unlock()
	for _, log := range subsystems {
		log.SetLevel(lvl)
	}
	return nil
}

// BackendLog returns the shared logging backend, so callers can close it
// on shutdown.
func BackendLog() *Backend {
	return backendLog
}

// Logger is a subsystem logger. Logging methods are safe for concurrent
// use.
type Logger struct {
	lvl Level // specified as atomic via SetLevel/Level
	tag string
	b   *Backend
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32((*uint32)(&l.lvl)))
}

// SetLevel changes the logging level to the passed level.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32((*uint32)(&l.lvl), uint32(level))
}

// print formats a log line and hands it to the backend if the logger's
// level admits it.
func (l *Logger) print(level Level, format string, args ...interface{}) {
	if level < l.Level() {
		return
	}

	t := time.Now()
	var msg string
	if format == "" {
		msg = fmt.Sprint(args...)
	} else {
		msg = fmt.Sprintf(format, args...)
	}

	var file string
	var line int
	flag := l.b.flag
	if flag&(LogFlagShortFile|LogFlagLongFile) != 0 {
		var ok bool
		// Skip 2: print, the exported level method, the callsite.
		_, file, line, ok = runtime.Caller(2)
		if !ok {
			file = "???"
			line = 0
		} else if flag&LogFlagShortFile != 0 {
			if i := strings.LastIndexByte(file, '/'); i >= 0 {
				file = file[i+1:]
			}
		}
	}

	var buf strings.Builder
	buf.WriteString(t.Format("2006-01-02 15:04:05.000"))
	buf.WriteString(" [")
	buf.WriteString(level.String())
	buf.WriteString("] ")
	buf.WriteString(l.tag)
	if file != "" {
		fmt.Fprintf(&buf, " %s:%d", file, line)
	}
	buf.WriteString(": ")
	buf.WriteString(msg)
	buf.WriteByte('\n')

	l.b.write(level, []byte(buf.String()))
}

// Tracef formats message according to format specifier and writes to the
// backend at the trace level.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.print(LevelTrace, format, args...)
}

// Debugf formats message according to format specifier and writes to the
// backend at the debug level.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.print(LevelDebug, format, args...)
}

// Infof formats message according to format specifier and writes to the
// backend at the info level.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.print(LevelInfo, format, args...)
}

// Warnf formats message according to format specifier and writes to the
// backend at the warning level.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.print(LevelWarn, format, args...)
}

// Errorf formats message according to format specifier and writes to the
// backend at the error level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.print(LevelError, format, args...)
}

// Criticalf formats message according to format specifier and writes to
// the backend at the critical level.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.print(LevelCritical, format, args...)
}

// Trace formats message using the default formats for its operands and
// writes to the backend at the trace level.
func (l *Logger) Trace(args ...interface{}) {
	l.print(LevelTrace, "", args...)
}

// Debug formats message using the default formats for its operands and
// writes to the backend at the debug level.
func (l *Logger) Debug(args ...interface{}) {
	l.print(LevelDebug, "", args...)
}

// Info formats message using the default formats for its operands and
// writes to the backend at the info level.
func (l *Logger) Info(args ...interface{}) {
	l.print(LevelInfo, "", args...)
}

// Warn formats message using the default formats for its operands and
// writes to the backend at the warning level.
func (l *Logger) Warn(args ...interface{}) {
	l.print(LevelWarn, "", args...)
}

// Error formats message using the default formats for its operands and
// writes to the backend at the error level.
func (l *Logger) Error(args ...interface{}) {
	l.print(LevelError, "", args...)
}

// Critical formats message using the default formats for its operands and
// writes to the backend at the critical level.
func (l *Logger) Critical(args ...interface{}) {
	l.print(LevelCritical, "", args...)
}
