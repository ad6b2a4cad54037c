package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/monshunter/sshxfer/pkg/transfer"
)

// Profile holds connection defaults shared by both tools, so a migration
// host does not have to be repeated on every invocation
type Profile struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Username string        `yaml:"username"`
	KeyFile  string        `yaml:"keyfile"`
	Sudoer   string        `yaml:"sudoer"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LoadProfile reads a YAML profile. A missing file is an error only when
// required is set.
func LoadProfile(path string, required bool) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return &Profile{}, nil
		}
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if profile.Sudoer != "" && !validSudoer(profile.Sudoer) {
		return nil, fmt.Errorf("profile %s: sudoer must be true, false or auto, got %q", path, profile.Sudoer)
	}
	return &profile, nil
}

func validSudoer(s string) bool {
	return s == transfer.SudoerTrue || s == transfer.SudoerFalse || s == transfer.SudoerAuto
}

// Apply fills connection fields from the profile. Fields whose flag was
// set on the command line are left alone.
func (p *Profile) Apply(conn *transfer.Connection, changed func(flag string) bool) {
	if p.Host != "" && !changed("host") {
		conn.Host = p.Host
	}
	if p.Port != 0 && !changed("port") {
		conn.Port = p.Port
	}
	if p.Username != "" && !changed("username") {
		conn.Username = p.Username
	}
	if p.KeyFile != "" && !changed("keyfile") {
		conn.KeyFile = p.KeyFile
	}
	if p.Sudoer != "" && !changed("sudoer") {
		conn.Sudoer = p.Sudoer
	}
}

// LoadEnvFile loads KEY=value pairs into the process environment without
// overriding variables that are already set
func LoadEnvFile(path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
