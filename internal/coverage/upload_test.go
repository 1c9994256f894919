package coverage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUpload(t *testing.T) {
	var received payload
	var authorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("could not decode payload: %s", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	report := &Report{
		Covered: 8,
		Total:   10,
		Files: []FileCoverage{
			{Name: "avocado/query.go", Covered: 3, Total: 5},
		},
	}

	err := Upload(context.Background(), server.URL, "s3cret", "python=2.7 DJANGO=1.6.10", report)
	if err != nil {
		t.Errorf("unexpected error: %s", err)
		return
	}
	if authorization != "Bearer s3cret" {
		t.Errorf("expected bearer token, got %q", authorization)
	}
	if received.Job != "python=2.7 DJANGO=1.6.10" {
		t.Errorf("unexpected job name %q", received.Job)
	}
	if received.Percent != 80 {
		t.Errorf("expected 80 percent, got %f", received.Percent)
	}
}

func TestUploadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such project", http.StatusNotFound)
	}))
	defer server.Close()

	err := Upload(context.Background(), server.URL, "", "default", &Report{})
	if err == nil {
		t.Error("expected an error for a non-2xx response")
	}
}
