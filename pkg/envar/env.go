package envar

import (
	"os"
	"path/filepath"
)

const (
	SSHXFER_HOME     = "SSHXFER_HOME"
	SSHXFER_PASSWORD = "SSHXFER_PASSWORD"
)

func UserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return home
}

func SSHXferHome() string {
	home := os.Getenv(SSHXFER_HOME)
	if home == "" {
		return filepath.Join(UserHome(), ".sshxfer")
	}
	return home
}

// DefaultProfile is read when --config is not given and the file exists
func DefaultProfile() string {
	return filepath.Join(SSHXferHome(), "profile.yaml")
}

// Password returns the SSH password supplied through the environment
func Password() string {
	return os.Getenv(SSHXFER_PASSWORD)
}
