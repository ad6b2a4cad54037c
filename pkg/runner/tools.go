package runner

import (
	"os/exec"
)

// ToolDetector checks that local executables can be found in PATH
type ToolDetector struct {
	// LookPath defaults to exec.LookPath
	LookPath func(file string) (string, error)
}

// NewToolDetector creates a detector that searches PATH
func NewToolDetector() *ToolDetector {
	return &ToolDetector{LookPath: exec.LookPath}
}

// IsLocalToolAvailable checks if a tool is available locally
func (td *ToolDetector) IsLocalToolAvailable(tool string) bool {
	lookPath := td.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	_, err := lookPath(tool)
	return err == nil
}

// Missing returns the tools that are not available, each once, in the
// order given
func (td *ToolDetector) Missing(tools ...string) []string {
	var missing []string
	seen := make(map[string]bool, len(tools))
	for _, tool := range tools {
		if tool == "" || seen[tool] {
			continue
		}
		seen[tool] = true
		if !td.IsLocalToolAvailable(tool) {
			missing = append(missing, tool)
		}
	}
	return missing
}
