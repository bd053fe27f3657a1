package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// Workspace markers.
const (
	ConfigFile = "qafizz.yaml"
	DataDir    = ".qafizz"
)

// ErrNoWorkspace is returned when neither marker exists above the start dir.
var ErrNoWorkspace = errors.New("no qafizz workspace found")

// Workspace is the directory a CLI invocation operates in.
type Workspace struct {
	// Dir holds the config file, or the data directory when there is none.
	Dir string
	// Config is the qafizz.yaml path inside Dir. It may not exist yet.
	Config string
	// HasConfig reports whether Config exists.
	HasConfig bool
}

// FindWorkspace walks from startDir to the filesystem root.
//
// The nearest qafizz.yaml wins, even when a .qafizz data directory sits
// closer to startDir: a data directory only marks the workspace when no
// config file exists anywhere above it.
func FindWorkspace(startDir string) (Workspace, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return Workspace{}, err
	}

	var dataRoot string
	for {
		if isRegular(filepath.Join(dir, ConfigFile)) {
			return Workspace{Dir: dir, Config: filepath.Join(dir, ConfigFile), HasConfig: true}, nil
		}
		if dataRoot == "" && isDir(filepath.Join(dir, DataDir)) {
			dataRoot = dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if dataRoot == "" {
		return Workspace{}, ErrNoWorkspace
	}
	return Workspace{Dir: dataRoot, Config: filepath.Join(dataRoot, ConfigFile)}, nil
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
