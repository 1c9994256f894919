package git

import (
	"context"
	"os"
	"os/exec"
	"testing"
)

func TestSignoffMatcher(t *testing.T) {
	tests := []struct {
		message   string
		signedOff bool
	}{
		{
			message:   "add a test\n\nSigned-off-by: Jane Doe <jane@example.com>",
			signedOff: true,
		},
		{
			message:   "add a test",
			signedOff: false,
		},
		{
			message:   "mentions Signed-off-by: in passing",
			signedOff: false,
		},
		{
			message:   "add a test\n\nSigned-off-by: Jane Doe <jane>",
			signedOff: false,
		},
	}
	for _, test := range tests {
		if signoffMatcher.MatchString(test.message) != test.signedOff {
			t.Errorf("expected signedOff=%v for %q", test.signedOff, test.message)
		}
	}
}

func gitTestRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Jane Doe",
			"GIT_AUTHOR_EMAIL=jane@example.com",
			"GIT_COMMITTER_NAME=Jane Doe",
			"GIT_COMMITTER_EMAIL=jane@example.com",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %s\n%s", args, err, out)
		}
	}
	run("init")
	run("commit", "--allow-empty", "-m", "first commit\n\nSigned-off-by: Jane Doe <jane@example.com>")
	run("commit", "--allow-empty", "-m", "second commit")
	return dir
}

func TestVerifySignoff(t *testing.T) {
	dir := gitTestRepo(t)

	// HEAD only
	missing, err := VerifySignoff(context.Background(), dir, "")
	if err != nil {
		t.Errorf("unexpected error: %s", err)
		return
	}
	if len(missing) != 1 {
		t.Errorf("expected 1 commit without signoff, got %d", len(missing))
		return
	}
	if missing[0].Subject != "second commit" {
		t.Errorf("expected subject 'second commit', got %q", missing[0].Subject)
	}
	if missing[0].Author != "Jane Doe <jane@example.com>" {
		t.Errorf("unexpected author %q", missing[0].Author)
	}

	// whole history
	commits, err := Log(context.Background(), dir, "HEAD")
	if err != nil {
		t.Errorf("unexpected error: %s", err)
		return
	}
	if len(commits) != 2 {
		t.Errorf("expected 2 commits, got %d", len(commits))
		return
	}
	if !commits[1].SignedOff {
		t.Error("the first commit should be signed off")
	}
}

func TestLogBadRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	_, err := Log(context.Background(), t.TempDir(), "")
	if err == nil {
		t.Error("expected an error outside a repository")
	}
}
