package transfer

import (
	"fmt"
	"strings"
)

const (
	// DefaultPort is the SSH port used when none is given
	DefaultPort = 22

	SudoerTrue  = "true"
	SudoerFalse = "false"
	// SudoerAuto asks the remote host whether passwordless sudo works
	SudoerAuto = "auto"

	rootUser = "root"
)

// Connection describes how to reach and log in to the remote host
type Connection struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"-"`
	KeyFile  string `yaml:"keyfile"`
	Sudoer   string `yaml:"sudoer"`
}

// UseSudo reports whether remote commands are escalated with sudo.
// root is never escalated.
func (c Connection) UseSudo() bool {
	return c.Sudoer == SudoerTrue && c.Username != rootUser
}

// Login returns user@host
func (c Connection) Login() string {
	return c.Username + "@" + c.Host
}

// Validate checks the connection fields every tool needs
func (c Connection) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if len(missing) > 0 {
		return missingFlags(missing...)
	}
	if c.Port < 1 || c.Port > 65535 {
		return usageErrorf("port %d out of range", c.Port)
	}
	return nil
}

// DownloadParams are the parameters of a tar-over-ssh download
type DownloadParams struct {
	Connection

	SourceDir string
	TargetDir string

	// post-extraction move, applied only when all three are set
	ParentDir string
	AsisDir   string
	TobeDir   string

	// leading path components stripped on extraction
	Depth int
	// "true" creates TargetDir locally before the transfer
	MkDirs string
	// remote file listing the paths to archive, overrides SourceDir
	InputFile string
	// comma separated glob patterns
	Exclude string
}

// Validate fails when a required field is missing or a value is out of range
func (p DownloadParams) Validate() error {
	var missing []string
	if p.Host == "" {
		missing = append(missing, "host")
	}
	if p.Username == "" {
		missing = append(missing, "username")
	}
	if p.SourceDir == "" {
		missing = append(missing, "source_dir")
	}
	if p.TargetDir == "" {
		missing = append(missing, "target_dir")
	}
	if len(missing) > 0 {
		return missingFlags(missing...)
	}
	if err := p.Connection.Validate(); err != nil {
		return err
	}
	if p.Depth < 0 {
		return usageErrorf("depth must be >= 0, got %d", p.Depth)
	}
	return nil
}

// HasMove reports whether the post-extraction move is requested
func (p DownloadParams) HasMove() bool {
	return p.ParentDir != "" && p.AsisDir != "" && p.TobeDir != ""
}

// PartialMove reports whether some, but not all, move fields are set
func (p DownloadParams) PartialMove() bool {
	set := 0
	for _, s := range []string{p.ParentDir, p.AsisDir, p.TobeDir} {
		if s != "" {
			set++
		}
	}
	return set > 0 && set < 3
}

// ExcludePatterns splits Exclude on commas, dropping empty entries
func (p DownloadParams) ExcludePatterns() []string {
	if p.Exclude == "" {
		return nil
	}
	var patterns []string
	for _, pattern := range strings.Split(p.Exclude, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern != "" {
			patterns = append(patterns, pattern)
		}
	}
	return patterns
}

// UploadParams are the parameters of an rsync-over-ssh upload
type UploadParams struct {
	Connection

	BackupDir string
	LogDir    string
}

// Validate fails when a required field is missing or a value is out of range
func (p UploadParams) Validate() error {
	var missing []string
	if p.Host == "" {
		missing = append(missing, "host")
	}
	if p.Username == "" {
		missing = append(missing, "username")
	}
	if p.BackupDir == "" {
		missing = append(missing, "backup_dir")
	}
	if p.LogDir == "" {
		missing = append(missing, "log_dir")
	}
	if len(missing) > 0 {
		return missingFlags(missing...)
	}
	return p.Connection.Validate()
}

func missingFlags(names ...string) error {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		quoted = append(quoted, fmt.Sprintf("%q", n))
	}
	return usageErrorf("required flag(s) %s not set", strings.Join(quoted, ", "))
}
