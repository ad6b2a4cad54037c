package log

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// osExit is a variable for os.Exit to make it mockable in tests
var osExit = os.Exit

// LogLevel define log level
type LogLevel int

const (
	// DEBUG debug level, only shown in verbose mode
	DEBUG LogLevel = iota
	// INFO info level
	INFO
	// WARN warning level, the run continues
	WARN
	// ERROR error level
	ERROR
	// FATAL fatal level, always show and exit program
	FATAL
)

var (
	verbose bool
	// quiet hides everything below ERROR
	quiet bool
	// current log level
	level LogLevel = INFO
	// enable color output
	colorEnabled = true
	// enable stack trace on fatal errors
	stackTraceEnabled bool
	// output writer, nil means os.Stdout at the time of writing
	output io.Writer

	secretsMu sync.RWMutex
	secrets   []string
)

// Environment variable for controlling stack trace
const (
	EnvStackTrace = "SSHXFER_STACK_TRACE"
)

// Redacted replaces registered secrets in log lines
const Redacted = "******"

func init() {
	stackTraceEnv := os.Getenv(EnvStackTrace)
	stackTraceEnabled = stackTraceEnv == "1" || stackTraceEnv == "true" || stackTraceEnv == "yes"
}

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorPurple = "\033[35m"
)

// SetVerbose set verbose mode, debug logs become visible
func SetVerbose(v bool) {
	verbose = v
	if v {
		level = DEBUG
	}
}

// IsVerbose return if verbose mode is enabled
func IsVerbose() bool {
	return verbose
}

// SetQuiet only lets errors through
func SetQuiet(q bool) {
	quiet = q
	if q {
		level = ERROR
	}
}

// IsQuiet return if quiet mode is enabled
func IsQuiet() bool {
	return quiet
}

// SetLevel set log level
func SetLevel(l LogLevel) {
	level = l
}

// GetLevel get current log level
func GetLevel() LogLevel {
	return level
}

// SetOutput redirects log lines, nil restores os.Stdout
func SetOutput(w io.Writer) {
	output = w
}

// EnableColor enables color output
func EnableColor(enabled bool) {
	colorEnabled = enabled
}

// IsColorEnabled returns if color output is enabled
func IsColorEnabled() bool {
	return colorEnabled
}

// EnableStackTrace enables or disables stack trace on fatal errors
func EnableStackTrace(enabled bool) {
	stackTraceEnabled = enabled
}

// IsStackTraceEnabled returns if stack trace is enabled
func IsStackTraceEnabled() bool {
	return stackTraceEnabled
}

// AddSecret registers a value that must never appear in log output,
// e.g. an SSH password
func AddSecret(s string) {
	if s == "" {
		return
	}
	secretsMu.Lock()
	defer secretsMu.Unlock()
	for _, existing := range secrets {
		if existing == s {
			return
		}
	}
	secrets = append(secrets, s)
}

// ResetSecrets forgets all registered secrets
func ResetSecrets() {
	secretsMu.Lock()
	secrets = nil
	secretsMu.Unlock()
}

// Redact replaces every registered secret in s
func Redact(s string) string {
	secretsMu.RLock()
	defer secretsMu.RUnlock()
	for _, secret := range secrets {
		s = strings.ReplaceAll(s, secret, Redacted)
	}
	return s
}

func writer() io.Writer {
	if output != nil {
		return output
	}
	return os.Stdout
}

// getLevelColor returns the color for the given log level
func getLevelColor(l LogLevel) string {
	if !colorEnabled {
		return ""
	}

	switch l {
	case DEBUG:
		return ColorCyan
	case INFO:
		return ColorGreen
	case WARN:
		return ColorYellow
	case ERROR:
		return ColorRed
	case FATAL:
		return ColorPurple
	default:
		return ""
	}
}

// getLevelPrefix returns the colored prefix for the given log level
func getLevelPrefix(prefix string, l LogLevel) string {
	if !colorEnabled {
		return prefix
	}
	return getLevelColor(l) + prefix + ColorReset
}

// time format
const timeFormat = "2006/01/02 15:04:05"

func write(prefix string, l LogLevel, msg string) {
	if l < level {
		return
	}
	timeStr := time.Now().Format(timeFormat)
	fmt.Fprintf(writer(), "[%s] %s: %s\n", timeStr, getLevelPrefix(prefix, l), Redact(msg))
}

// Info output normal info log
func Info(args ...any) {
	write("INFO", INFO, fmt.Sprint(args...))
}

// Infof output formatted normal info log
func Infof(format string, args ...any) {
	write("INFO", INFO, fmt.Sprintf(format, args...))
}

// Warn output warning log
func Warn(args ...any) {
	write("WARN", WARN, fmt.Sprint(args...))
}

// Warnf output formatted warning log
func Warnf(format string, args ...any) {
	write("WARN", WARN, fmt.Sprintf(format, args...))
}

// Error output error log
func Error(args ...any) {
	write("ERROR", ERROR, fmt.Sprint(args...))
}

// Errorf output formatted error log
func Errorf(format string, args ...any) {
	write("ERROR", ERROR, fmt.Sprintf(format, args...))
}

// Fatal output fatal log and exit program
func Fatal(args ...any) {
	FatalWithCode(1, args...)
}

// Fatalf output formatted fatal log and exit program
func Fatalf(format string, args ...any) {
	FatalWithCode(1, fmt.Sprintf(format, args...))
}

// FatalWithCode output fatal log and exit program with the given status
func FatalWithCode(code int, args ...any) {
	write("FATAL", FATAL, fmt.Sprint(args...))
	if stackTraceEnabled {
		fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
	}
	osExit(code)
}

// Debug output debug log (only effective in verbose mode)
func Debug(args ...any) {
	write("DEBUG", DEBUG, fmt.Sprint(args...))
}

// Debugf output formatted debug log (only effective in verbose mode)
func Debugf(format string, args ...any) {
	write("DEBUG", DEBUG, fmt.Sprintf(format, args...))
}
