package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// fakeBackendServer simulates the notes API end to end: job submission,
// two polls of processing, then a completed lesson result.
func fakeBackendServer(t *testing.T) *httptest.Server {
	t.Helper()

	var polls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/process-transcription", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"job_id": "job-cli"})
	})
	mux.HandleFunc("/api/job-status/job-cli", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"job_id": "job-cli", "status": "processing", "progress": 50,
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"job_id": "job-cli",
			"status": "completed",
			"result": map[string]any{
				"tipo_contenuto": "lezione",
				"riassunto":      "Appunti generati dalla CLI",
				"transcript_id":  "tr-cli",
				"punti_chiave":   []string{"primo", "secondo"},
			},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestUploadTextEndToEnd(t *testing.T) {
	server := fakeBackendServer(t)
	env := setupCLITestEnv(t, server.URL)

	out, _, err := runCLI(t, env, "upload", "--text", "testo da analizzare")
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	requireContains(t, out, "Appunti generati dalla CLI")
	requireContains(t, out, "Punti chiave")
	requireContains(t, out, "primo")
}

func TestUploadQuotaShowsCheckoutURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/process-transcription", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":       "LIMIT_REACHED",
			"message":     "quota esaurita",
			"checkoutUrl": "https://pay.example/upgrade",
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	env := setupCLITestEnv(t, server.URL)

	out, _, err := runCLI(t, env, "upload", "--text", "testo")
	if err == nil {
		t.Fatal("expected quota failure")
	}
	requireContains(t, out, "https://pay.example/upgrade")
}

func TestUploadRejectsUnsupportedFile(t *testing.T) {
	env := setupCLITestEnv(t, "https://unused.example")

	_, _, err := runCLI(t, env, "upload", "/tmp/archive.zip")
	if err == nil || !strings.Contains(err.Error(), "unsupported file type") {
		t.Fatalf("expected unsupported file error, got %v", err)
	}
}

func TestUploadRequiresInput(t *testing.T) {
	env := setupCLITestEnv(t, "https://unused.example")

	if _, _, err := runCLI(t, env, "upload"); err == nil {
		t.Fatal("expected error without file or text")
	}
}
