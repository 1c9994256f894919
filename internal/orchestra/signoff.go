package orchestra

import (
	"fmt"

	"github.com/conveyor-ci/conveyor/internal/ci"
	"github.com/conveyor-ci/conveyor/internal/git"
	"github.com/conveyor-ci/conveyor/internal/ui"
)

// Signoff checks that every commit in revRange carries a Signed-off-by
// trailer. An empty range checks HEAD only.
func Signoff(cfg ci.ConductorConfig, revRange string) error {
	conductor := ci.NewConductor(cfg)
	defer conductor.Destroy()
	logger := conductor.Logger()

	missing, err := git.VerifySignoff(conductor.Context(), cfg.Paths.Cwd, revRange)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		logger.Infof("all commits are signed off")
		return nil
	}
	for _, commit := range missing {
		fmt.Println(ui.Red(commit.Hash[:8]), commit.Author, ui.Grey(commit.Subject))
	}
	return fmt.Errorf("%d commit(s) missing a Signed-off-by trailer", len(missing))
}
