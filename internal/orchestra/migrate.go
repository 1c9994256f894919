package orchestra

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/conveyor-ci/conveyor/internal/cache"
	"github.com/conveyor-ci/conveyor/internal/ci"
	"github.com/conveyor-ci/conveyor/internal/meta"
	"github.com/conveyor-ci/conveyor/internal/travis"
	"github.com/conveyor-ci/conveyor/internal/ui"
)

// Migrate converts a .travis.yml into a pipeline file. The result is
// written next to the source file unless it already exists; the source
// manifest is backed up into the user-wide cache.
func Migrate(cfg ci.ConductorConfig, source string) error {
	conductor := ci.NewConductor(cfg)
	defer conductor.Destroy()
	logger := conductor.Logger()

	if source == "" {
		source = filepath.Join(cfg.Paths.Cwd, ".travis.yml")
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return err
	}

	travisCfg, err := travis.Parse(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if travisCfg.Language != "" && travisCfg.Language != "python" {
		logger.Warnf("language %q has no native support, lifecycle commands are imported as-is", travisCfg.Language)
	}
	if len(travisCfg.AfterFailure) > 0 {
		logger.Warnf("after_failure is not supported, %d command(s) dropped", len(travisCfg.AfterFailure))
	}

	dest := filepath.Join(filepath.Dir(source), meta.ConfigFileName)
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("%s already exists, refusing to overwrite", dest)
	}

	if backups, err := cache.GlobalDir(); err == nil {
		backupDir := filepath.Join(backups, "migrate")
		if err := os.MkdirAll(backupDir, 0755); err == nil {
			backup := filepath.Join(backupDir, fmt.Sprintf("%s-%s", conductor.Process.Id, filepath.Base(source)))
			if err := os.WriteFile(backup, data, 0644); err == nil {
				logger.Debugf("backed up %s to %s", source, backup)
			}
		}
	}

	out := travis.Convert(travisCfg)
	if err := os.WriteFile(dest, out.Bytes(), 0644); err != nil {
		return err
	}
	logger.Infof("wrote %s", ui.Green(dest))
	return nil
}
