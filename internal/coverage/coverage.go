package coverage

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	FormatCoverprofile = "coverprofile"
	FormatLcov         = "lcov"
)

// Report is an aggregate over one or more coverage files.
type Report struct {
	Covered int `json:"covered"`
	Total   int `json:"total"`

	Files []FileCoverage `json:"files"`
}

// FileCoverage is the per-source-file share of a Report.
type FileCoverage struct {
	Name    string `json:"name"`
	Covered int    `json:"covered"`
	Total   int    `json:"total"`
}

func (r *Report) Percent() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Covered) / float64(r.Total) * 100
}

// Collect parses the given coverage files into a single Report. When
// format is empty it is guessed per file from the content.
func Collect(paths []string, format string) (*Report, error) {
	report := &Report{}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		fileFormat := format
		if fileFormat == "" {
			fileFormat, err = sniffFormat(path)
			if err != nil {
				f.Close()
				return nil, err
			}
		}
		switch fileFormat {
		case FormatCoverprofile:
			err = parseCoverprofile(f, report)
		case FormatLcov:
			err = parseLcov(f, report)
		default:
			err = fmt.Errorf("unsupported coverage format %q", fileFormat)
		}
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return report, nil
}

func sniffFormat(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", fmt.Errorf("empty coverage file")
	}
	line := scanner.Text()
	if strings.HasPrefix(line, "mode:") {
		return FormatCoverprofile, nil
	}
	if strings.HasPrefix(line, "TN:") || strings.HasPrefix(line, "SF:") {
		return FormatLcov, nil
	}
	return "", fmt.Errorf("unrecognized coverage format")
}

// parseCoverprofile reads the Go cover tool's profile format:
//
//	mode: set
//	name.go:1.10,5.2 3 1
//
// Each block contributes its statement count to the total and, when
// the hit count is non-zero, to the covered count.
func parseCoverprofile(r *os.File, report *Report) error {
	scanner := bufio.NewScanner(r)
	files := map[string]*FileCoverage{}
	var order []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "mode:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return fmt.Errorf("malformed coverprofile line %q", line)
		}
		name, _, found := strings.Cut(fields[0], ":")
		if !found {
			return fmt.Errorf("malformed coverprofile line %q", line)
		}
		statements, err := strconv.Atoi(fields[1])
		if err != nil {
			return err
		}
		hits, err := strconv.Atoi(fields[2])
		if err != nil {
			return err
		}
		fc := files[name]
		if fc == nil {
			fc = &FileCoverage{Name: name}
			files[name] = fc
			order = append(order, name)
		}
		fc.Total += statements
		if hits > 0 {
			fc.Covered += statements
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	for _, name := range order {
		fc := files[name]
		report.Files = append(report.Files, *fc)
		report.Covered += fc.Covered
		report.Total += fc.Total
	}
	return nil
}

// parseLcov reads the lcov tracefile format, counting DA: records.
func parseLcov(r *os.File, report *Report) error {
	scanner := bufio.NewScanner(r)
	var current *FileCoverage
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "SF:"):
			current = &FileCoverage{Name: strings.TrimPrefix(line, "SF:")}
		case strings.HasPrefix(line, "DA:"):
			if current == nil {
				return fmt.Errorf("DA: record before SF:")
			}
			parts := strings.SplitN(strings.TrimPrefix(line, "DA:"), ",", 3)
			if len(parts) < 2 {
				return fmt.Errorf("malformed lcov line %q", line)
			}
			hits, err := strconv.Atoi(parts[1])
			if err != nil {
				return err
			}
			current.Total++
			if hits > 0 {
				current.Covered++
			}
		case line == "end_of_record":
			if current != nil {
				report.Files = append(report.Files, *current)
				report.Covered += current.Covered
				report.Total += current.Total
				current = nil
			}
		}
	}
	return scanner.Err()
}
