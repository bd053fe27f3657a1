package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDevRun checks if the current process is running via `go run` or `go test`.
// It relies on the fact that these commands build binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}

	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolvePath determines the actual storage directory based on safety rules.
// When forceTemp is set the path is re-rooted into a temporary directory,
// unless it already lives there (e.g. t.TempDir()).
func ResolvePath(userPath string, forceTemp bool) string {
	if !forceTemp {
		if userPath == "" {
			return "."
		}
		return userPath
	}

	clean := filepath.Clean(userPath)
	rel, err := filepath.Rel(os.TempDir(), clean)
	if err == nil && filepath.IsAbs(clean) && !strings.HasPrefix(rel, "..") {
		return clean
	}

	sub := "default"
	if userPath != "" && userPath != "." && userPath != "./" {
		if base := filepath.Base(userPath); base != "." && base != string(os.PathSeparator) {
			sub = base
		}
	}
	return filepath.Join(os.TempDir(), "qafizz-dev", sub)
}
