package service

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/textlens/dbopen"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db := dbopen.OpenMemory(t)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	svc, err := New(DefaultConfig(), db, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r := chi.NewRouter()
	svc.RegisterHTTP(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want 'ok'", body["status"])
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv := newTestServer(t)

	text := strings.Repeat("Договор аренды заключён между сторонами. ", 5) +
		"Контакт: test@example.com."
	resp := postJSON(t, srv.URL+"/api/v1/analyze", map[string]any{"text": text})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}

	var body struct {
		AnalysisID string `json:"analysis_id"`
		TextLength int    `json:"text_length"`
		Analysis   struct {
			Entities struct {
				Emails []string `json:"emails"`
			} `json:"entities"`
			Classification struct {
				DocumentType string `json:"document_type"`
			} `json:"classification"`
		} `json:"analysis"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(body.AnalysisID, "ana_") {
		t.Errorf("analysis_id: got %q, want ana_ prefix", body.AnalysisID)
	}
	if body.TextLength == 0 {
		t.Error("text_length: got 0")
	}
	if len(body.Analysis.Entities.Emails) != 1 {
		t.Errorf("emails: got %v, want one entry", body.Analysis.Entities.Emails)
	}
	if body.Analysis.Classification.DocumentType != "contract" {
		t.Errorf("document_type: got %q, want 'contract'", body.Analysis.Classification.DocumentType)
	}

	// The stored record is retrievable.
	getResp, err := http.Get(srv.URL + "/api/v1/analyses/" + body.AnalysisID)
	if err != nil {
		t.Fatal(err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("get status: got %d, want 200", getResp.StatusCode)
	}
}

func TestAnalyzeEmptyStages(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/analyze", map[string]any{
		"text":    "Какой-то достаточно длинный текст для анализа документа.",
		"options": map[string]bool{},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	var body struct {
		Analysis struct {
			Language struct {
				Language string `json:"language"`
			} `json:"language"`
		} `json:"analysis"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Analysis.Language.Language != "unknown" {
		t.Errorf("language with empty stage set: got %q, want 'unknown'",
			body.Analysis.Language.Language)
	}
}

func TestAnalyzeInvalidBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/analyze", "application/json",
		strings.NewReader("{not json"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
}

func TestGetUnknownAnalysis(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/analyses/ana_missing")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestBatchSubmitAndStatus(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/batch", map[string]any{
		"documents": []map[string]any{
			{"text": "первый документ"},
			{"text": "второй документ"},
		},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202", resp.StatusCode)
	}
	var submitted struct {
		BatchID string `json:"batch_id"`
		Total   int    `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		t.Fatal(err)
	}
	if submitted.Total != 2 {
		t.Errorf("total: got %d, want 2", submitted.Total)
	}

	stResp, err := http.Get(srv.URL + "/api/v1/batch/" + submitted.BatchID)
	if err != nil {
		t.Fatal(err)
	}
	defer stResp.Body.Close()
	if stResp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", stResp.StatusCode)
	}
	var st struct {
		Total   int `json:"total"`
		Pending int `json:"pending"`
	}
	if err := json.NewDecoder(stResp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Total != 2 || st.Pending != 2 {
		t.Errorf("fresh batch: got total=%d pending=%d, want 2/2", st.Total, st.Pending)
	}
}

func TestBatchEmpty(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/batch", map[string]any{"documents": []any{}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"missing db_path", func(c *Config) { c.DBPath = "" }, true},
		{"zero budget", func(c *Config) { c.RequestBudgetMS = 0 }, true},
		{"negative workers", func(c *Config) { c.Workers = -1 }, true},
		{"zero batch size", func(c *Config) { c.MaxBatchSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate: got err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}
