package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Requirement names an external binary and what framestash uses it for.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status is a Requirement after lookup. When Available, Command holds the
// path that will be executed.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// CheckBinaries resolves every requirement.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, Resolve(req))
	}
	return results
}

// Resolve locates req.Command.
//
// An explicit path (anything containing a separator) must exist and be
// executable. A bare name prefers an executable of that name sitting next to
// the running framestash binary, then falls back to PATH.
func Resolve(req Requirement) Status {
	req.Command = strings.TrimSpace(req.Command)
	req.Description = strings.TrimSpace(req.Description)
	status := Status{Requirement: req}
	name := req.Command

	switch {
	case name == "":
		status.Detail = "command not configured"
	case strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/'):
		info, err := os.Stat(name)
		switch {
		case err != nil:
			status.Detail = fmt.Sprintf("binary %q not found", name)
		case !isExecutable(info):
			status.Detail = fmt.Sprintf("%q is not executable", name)
		default:
			status.Available = true
		}
	default:
		if candidate, ok := sidecarCandidate(name); ok {
			if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
				status.Command = candidate
				status.Available = true
				return status
			}
		}
		if resolved, err := exec.LookPath(name); err == nil {
			status.Command = resolved
			status.Available = true
			return status
		}
		status.Detail = fmt.Sprintf("binary %q not found", name)
	}
	return status
}

var executablePath = os.Executable

func sidecarCandidate(name string) (string, bool) {
	self, err := executablePath()
	if err != nil || self == "" {
		return "", false
	}
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(self), name), true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
