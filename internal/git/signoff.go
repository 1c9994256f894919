package git

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Commit is the subset of a git commit the signoff check cares about.
type Commit struct {
	Hash    string
	Author  string
	Subject string

	// SignedOff reports whether the commit message carries a
	// Signed-off-by trailer.
	SignedOff bool
}

var signoffMatcher = regexp.MustCompile(`(?m)^Signed-off-by: .+ <.+@.+>$`)

const (
	recordSeparator = "\x1e"
	fieldSeparator  = "\x1f"
)

// Log reads the commits of revRange from the repository at dir. An
// empty revRange inspects only the commit at HEAD.
func Log(ctx context.Context, dir string, revRange string) ([]Commit, error) {
	args := []string{"log", "--format=%H" + fieldSeparator + "%an <%ae>" + fieldSeparator + "%s" + fieldSeparator + "%B" + recordSeparator}
	if revRange == "" {
		args = append(args, "-n", "1")
	} else {
		args = append(args, revRange)
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("git log: %s", strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, err
	}

	var commits []Commit
	for _, record := range strings.Split(string(out), recordSeparator) {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		fields := strings.SplitN(record, fieldSeparator, 4)
		if len(fields) != 4 {
			return nil, fmt.Errorf("git log: malformed record %q", record)
		}
		commits = append(commits, Commit{
			Hash:      fields[0],
			Author:    fields[1],
			Subject:   fields[2],
			SignedOff: signoffMatcher.MatchString(fields[3]),
		})
	}
	return commits, nil
}

// VerifySignoff returns the commits of revRange which are missing a
// Signed-off-by trailer.
func VerifySignoff(ctx context.Context, dir string, revRange string) ([]Commit, error) {
	commits, err := Log(ctx, dir, revRange)
	if err != nil {
		return nil, err
	}
	var missing []Commit
	for _, commit := range commits {
		if !commit.SignedOff {
			missing = append(missing, commit)
		}
	}
	return missing, nil
}
