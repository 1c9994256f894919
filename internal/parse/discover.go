package parse

import (
	"fmt"
	"path/filepath"

	"github.com/moby/sys/mountinfo"
	"github.com/spf13/afero"

	"github.com/conveyor-ci/conveyor/internal/meta"
	pathmodel "github.com/conveyor-ci/conveyor/internal/path"
)

// ConfigFilePath returns the pipeline file for the run. An explicitly
// provided path wins; otherwise the working directory is searched upwards.
func ConfigFilePath(paths *pathmodel.Path) string {
	if paths.Pipeline != "" {
		return paths.Pipeline
	}
	dir := paths.Cwd
	if dir == "" {
		dir = paths.Owd
	}
	p, err := Discover(afero.NewOsFs(), dir)
	if err != nil {
		return filepath.Join(dir, meta.ConfigFileName)
	}
	return p
}

func ConfigFileDir(paths *pathmodel.Path) string {
	return filepath.Dir(ConfigFilePath(paths))
}

// Discover walks upward from dir looking for the configuration file.
// The search stops at a filesystem mount boundary rather than at /,
// so a bind-mounted workspace cannot leak into the host's tree.
func Discover(fs afero.Fs, dir string) (string, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		p := filepath.Join(absPath, meta.ConfigFileName)
		exists, err := afero.Exists(fs, p)
		if err != nil {
			return "", err
		}
		if exists {
			return p, nil
		}

		mounted, err := mountinfo.Mounted(absPath)
		if err == nil && mounted {
			return "", fmt.Errorf("couldn't find %s, searched until %s", meta.ConfigFileName, absPath)
		}
		parent := filepath.Dir(absPath)
		if parent == absPath {
			return "", fmt.Errorf("couldn't find %s, searched until %s", meta.ConfigFileName, absPath)
		}
		absPath = parent
	}
}
