package coverage

import (
	"os"
	"path/filepath"
	"testing"
)

const coverprofileFixture = `mode: set
avocado/query.go:12.34,16.2 3 1
avocado/query.go:18.10,20.2 2 0
avocado/fields.go:5.20,9.2 5 1
`

const lcovFixture = `TN:
SF:avocado/query.py
DA:1,1
DA:2,1
DA:3,0
end_of_record
SF:avocado/fields.py
DA:1,1
DA:2,0
end_of_record
`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCollectCoverprofile(t *testing.T) {
	path := writeFixture(t, "coverage.out", coverprofileFixture)

	report, err := Collect([]string{path}, FormatCoverprofile)
	if err != nil {
		t.Errorf("unexpected error: %s", err)
		return
	}
	if report.Total != 10 {
		t.Errorf("expected 10 statements, got %d", report.Total)
	}
	if report.Covered != 8 {
		t.Errorf("expected 8 covered statements, got %d", report.Covered)
	}
	if len(report.Files) != 2 {
		t.Errorf("expected 2 files, got %d", len(report.Files))
		return
	}
	if report.Files[0].Name != "avocado/query.go" {
		t.Errorf("expected avocado/query.go first, got %s", report.Files[0].Name)
	}
	if report.Files[0].Covered != 3 || report.Files[0].Total != 5 {
		t.Errorf("expected 3/5 for avocado/query.go, got %d/%d", report.Files[0].Covered, report.Files[0].Total)
	}
}

func TestCollectLcov(t *testing.T) {
	path := writeFixture(t, "coverage.lcov", lcovFixture)

	report, err := Collect([]string{path}, FormatLcov)
	if err != nil {
		t.Errorf("unexpected error: %s", err)
		return
	}
	if report.Total != 5 {
		t.Errorf("expected 5 lines, got %d", report.Total)
	}
	if report.Covered != 3 {
		t.Errorf("expected 3 covered lines, got %d", report.Covered)
	}
	if len(report.Files) != 2 {
		t.Errorf("expected 2 files, got %d", len(report.Files))
	}
}

func TestCollectSniffsFormat(t *testing.T) {
	coverprofile := writeFixture(t, "coverage.out", coverprofileFixture)
	lcov := writeFixture(t, "coverage.lcov", lcovFixture)

	report, err := Collect([]string{coverprofile, lcov}, "")
	if err != nil {
		t.Errorf("unexpected error: %s", err)
		return
	}
	if report.Total != 15 {
		t.Errorf("expected 15 units, got %d", report.Total)
	}
	if report.Covered != 11 {
		t.Errorf("expected 11 covered units, got %d", report.Covered)
	}
	if len(report.Files) != 4 {
		t.Errorf("expected 4 files, got %d", len(report.Files))
	}
}

func TestCollectUnrecognized(t *testing.T) {
	path := writeFixture(t, "coverage.txt", "not a coverage file\n")
	if _, err := Collect([]string{path}, ""); err == nil {
		t.Error("expected an error for an unrecognized format")
	}
}

func TestCollectMalformed(t *testing.T) {
	path := writeFixture(t, "coverage.out", "mode: set\ngarbage\n")
	if _, err := Collect([]string{path}, FormatCoverprofile); err == nil {
		t.Error("expected an error for a malformed profile line")
	}
}

func TestReportPercent(t *testing.T) {
	report := &Report{Covered: 3, Total: 4}
	if report.Percent() != 75 {
		t.Errorf("expected 75, got %f", report.Percent())
	}
	empty := &Report{}
	if empty.Percent() != 0 {
		t.Errorf("expected 0 for an empty report, got %f", empty.Percent())
	}
}
