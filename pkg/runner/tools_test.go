package runner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToolDetectorMissing(t *testing.T) {
	installed := map[string]bool{"bash": true, "ssh": true, "tar": true}
	var lookups []string
	td := &ToolDetector{LookPath: func(file string) (string, error) {
		lookups = append(lookups, file)
		if installed[file] {
			return "/usr/bin/" + file, nil
		}
		return "", errors.New("executable file not found in $PATH")
	}}

	missing := td.Missing("bash", "sshpass", "ssh", "", "tar", "sshpass", "rsync")
	assert.Equal(t, []string{"sshpass", "rsync"}, missing)
	assert.Equal(t, []string{"bash", "sshpass", "ssh", "tar", "rsync"}, lookups)
	assert.Empty(t, td.Missing())
}

func TestToolDetectorSearchesPath(t *testing.T) {
	td := NewToolDetector()
	assert.True(t, td.IsLocalToolAvailable("sh"))
	assert.False(t, td.IsLocalToolAvailable("sshxfer-no-such-tool"))

	var zero ToolDetector
	assert.True(t, zero.IsLocalToolAvailable("sh"))
}
