package transfer

import (
	"path/filepath"
	"strings"

	"github.com/monshunter/sshxfer/pkg/runner"
)

var authPatterns = []string{
	"permission denied (",
	"permission denied, please try again",
	"authentication failed",
	"too many authentication failures",
	"no supported authentication methods",
	"incorrect password",
	"bad passphrase",
}

var connectivityPatterns = []string{
	"connection refused",
	"could not resolve hostname",
	"name or service not known",
	"connection timed out",
	"operation timed out",
	"no route to host",
	"network is unreachable",
	"connection closed by",
	"connection reset by",
	"connection unexpectedly closed",
	"kex_exchange_identification",
	"broken pipe",
}

var localFilesystemPatterns = []string{
	"no space left on device",
	"read-only file system",
	"disk quota exceeded",
}

const (
	// sshpass: invalid/incorrect password
	sshpassBadPassword = 5
	// ssh: connection level failure
	sshConnectionError = 255
)

// rsync exit codes that point at the transport rather than the data
var rsyncConnectivityCodes = map[int]bool{
	10: true, // error in socket I/O
	12: true, // error in rsync protocol data stream
	30: true, // timeout in data send/receive
	35: true, // timeout waiting for daemon connection
}

// Classify turns a failed process result into a classified *Error.
// localPaths are paths on the local host; stderr lines naming one of
// them are attributed to the local filesystem. Exit codes are read in the
// context of the program that failed, result.Argv[0]. It returns nil for
// a successful result.
func Classify(step string, result *runner.Result, localPaths []string) error {
	if result == nil || result.Success() {
		return nil
	}

	stderr := string(result.Stderr)
	kind := classifyOutput(stderr, localPaths)
	if kind == "" {
		kind = classifyExit(result)
	}

	return &Error{
		Kind:     kind,
		Step:     step,
		ExitCode: result.ExitCode,
		Detail:   lastLine(stderr),
	}
}

func classifyExit(result *runner.Result) Kind {
	var program string
	if len(result.Argv) > 0 {
		program = filepath.Base(result.Argv[0])
	}
	code := result.ExitCode

	switch program {
	case "sshpass":
		if code == sshpassBadPassword {
			return KindAuthentication
		}
		if code == sshConnectionError {
			return KindConnectivity
		}
	case "ssh":
		if code == sshConnectionError {
			return KindConnectivity
		}
	case "rsync":
		// rsync reports a failed ssh transport with its own codes, so 5
		// here is a protocol startup error rather than a bad password
		if rsyncConnectivityCodes[code] {
			return KindConnectivity
		}
	}
	return KindRemoteCommand
}

func classifyOutput(stderr string, localPaths []string) Kind {
	lower := strings.ToLower(stderr)
	if containsAny(lower, authPatterns) {
		return KindAuthentication
	}
	if containsAny(lower, localFilesystemPatterns) {
		return KindLocalFilesystem
	}
	for _, line := range strings.Split(stderr, "\n") {
		for _, p := range localPaths {
			if mentionsPath(line, p) {
				return KindLocalFilesystem
			}
		}
	}
	if containsAny(lower, connectivityPatterns) {
		return KindConnectivity
	}
	return ""
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// mentionsPath reports whether line names path as a whole token, the way
// tar, mkdir, mv, tee and rsync print the path they failed on:
// `tar: /backup/app: Cannot open`, `mv: cannot stat '/a'`, `"/a"`.
func mentionsPath(line, path string) bool {
	path = strings.TrimRight(path, "/")
	if path == "" {
		return false
	}
	for start := 0; start < len(line); {
		i := strings.Index(line[start:], path)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(path)
		if end < len(line) && line[end] == '/' {
			end++
		}
		before := i == 0 || strings.ContainsRune(" '\"`", rune(line[i-1]))
		after := end == len(line) || strings.ContainsRune(":'\"`", rune(line[end]))
		if before && after {
			return true
		}
		start = i + 1
	}
	return false
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
