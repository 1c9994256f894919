package coverage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// payload is the body posted to a coverage aggregation endpoint. It is
// a deliberately small contract: the job name, the aggregate numbers
// and the per-file breakdown.
type payload struct {
	Job     string         `json:"job"`
	Covered int            `json:"covered"`
	Total   int            `json:"total"`
	Percent float64        `json:"percent"`
	Files   []FileCoverage `json:"files"`
}

// Upload posts the report to the given endpoint. The token, when set,
// travels as a bearer header and is never echoed back on failure.
func Upload(ctx context.Context, url string, token string, job string, report *Report) error {
	body, err := json.Marshal(payload{
		Job:     job,
		Covered: report.Covered,
		Total:   report.Total,
		Percent: report.Percent(),
		Files:   report.Files,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("coverage endpoint returned %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}
	return nil
}
