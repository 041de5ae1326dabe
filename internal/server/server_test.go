package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/config"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/database"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/logger"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/scanner"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memRuns struct {
	runs map[string]database.ScanRun
	locs map[string][]database.LocatorRecord
}

func (m *memRuns) GetRun(_ context.Context, id string) (*database.ScanRun, error) {
	r, ok := m.runs[id]
	if !ok {
		return nil, database.ErrRunNotFound
	}
	return &r, nil
}

func (m *memRuns) ListRuns(_ context.Context, limit, _ int) ([]database.ScanRun, error) {
	var out []database.ScanRun
	for _, r := range m.runs {
		if len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memRuns) GetLocators(_ context.Context, runID string) ([]database.LocatorRecord, error) {
	return m.locs[runID], nil
}

func newTestServer(runs RunStore) http.Handler {
	sc := scanner.New(scanner.Options{})
	return New(&config.Cfg{}, logger.Nop(), sc, runs).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(t, newTestServer(nil), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","persistence":false}`, w.Body.String())
}

func TestScan(t *testing.T) {
	h := newTestServer(nil)

	w := do(t, h, http.MethodPost, "/api/scan", map[string]any{
		"input":         `<form><input id="email" name="email"><button>Send</button></form>`,
		"frameworks":    "selenium",
		"min_stability": "high",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		RunID  string `json:"run_id"`
		Report struct {
			Locators []struct {
				LocatorType    string `json:"locator_type"`
				LocatorValue   string `json:"locator_value"`
				Stability      string `json:"stability"`
				AutomationTool string `json:"automation_tool"`
			} `json:"locators"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.NotEmpty(t, res.RunID)
	require.NotEmpty(t, res.Report.Locators)
	for _, l := range res.Report.Locators {
		assert.Equal(t, "High", l.Stability)
		assert.NotEqual(t, "Role Selector", l.LocatorType)
	}
}

func TestScan_BadRequests(t *testing.T) {
	h := newTestServer(nil)

	w := do(t, h, http.MethodPost, "/api/scan", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/scan", map[string]any{"input": "<p>x</p>", "min_stability": "great"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/scan", map[string]any{"input": "a < b, no tags"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"stage":"parse"`)
	assert.NotContains(t, w.Body.String(), "no tags")
}

func TestRuns(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, do(t, newTestServer(nil), http.MethodGet, "/api/runs", nil).Code)

	runs := &memRuns{
		runs: map[string]database.ScanRun{"r1": {ID: "r1", Source: "page.html", Status: database.StatusCompleted}},
		locs: map[string][]database.LocatorRecord{"r1": {{
			RunID: "r1", CustomName: "EmailInput", LocatorType: "CSS Selector", LocatorValue: "#email",
			Stability: string(locator.LabelHigh), StabilityScore: 10,
		}}},
	}
	h := newTestServer(runs)

	w := do(t, h, http.MethodGet, "/api/runs?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"r1"`)

	w = do(t, h, http.MethodGet, "/api/runs/r1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"locator_value":"#email"`)
	assert.Contains(t, w.Body.String(), `"warnings":[]`)

	w = do(t, h, http.MethodGet, "/api/runs/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckTarget(t *testing.T) {
	for _, in := range []string{
		"http://localhost:8080/login",
		"http://app.localhost/",
		"http://127.0.0.1/",
		"http://10.0.0.5/admin",
		"http://192.168.1.1",
		"http://169.254.169.254/latest/meta-data",
		"http://[::1]:3000/",
		"http://0.0.0.0/",
		"http://localhost./",
		"/etc/hostname",
		"page.html",
	} {
		assert.Error(t, checkTarget(in, checkURL), in)
	}
	for _, in := range []string{
		"https://example.com/login",
		"http://8.8.8.8/",
		"<a href='http://127.0.0.1'>x</a>",
	} {
		assert.NoError(t, checkTarget(in, checkURL), in)
	}
}

func TestScan_PrivateTargetForbidden(t *testing.T) {
	w := do(t, newTestServer(nil), http.MethodPost, "/api/scan", map[string]any{"input": "http://127.0.0.1:9/"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	cfg := &config.Cfg{}
	cfg.App.AllowPrivateTargets = true
	h := New(cfg, logger.Nop(), scanner.New(scanner.Options{Retries: 1}), nil).Handler()
	w = do(t, h, http.MethodPost, "/api/scan", map[string]any{"input": "http://127.0.0.1:9/"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"stage":"fetch"`)
}

func TestScan_LocalFiles(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "secret.html")
	require.NoError(t, os.WriteFile(page, []byte(`<button id="hidden-admin">Go</button>`), 0o644))
	plain := filepath.Join(dir, "hostname")
	require.NoError(t, os.WriteFile(plain, []byte("topsecret-host"), 0o644))

	h := newTestServer(nil)
	for _, in := range []string{page, plain, filepath.Join(dir, "missing.html")} {
		w := do(t, h, http.MethodPost, "/api/scan", map[string]any{"input": in})
		assert.Equal(t, http.StatusForbidden, w.Code, in)
		assert.NotContains(t, w.Body.String(), "hidden-admin")
	}

	cfg := &config.Cfg{}
	cfg.App.AllowPrivateTargets = true
	trusted := New(cfg, logger.Nop(), scanner.New(scanner.Options{Retries: 1}), nil).Handler()

	w := do(t, trusted, http.MethodPost, "/api/scan", map[string]any{"input": page})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "#hidden-admin")

	w = do(t, trusted, http.MethodPost, "/api/scan", map[string]any{"input": plain})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NotContains(t, w.Body.String(), "topsecret")
}

func TestScan_RedirectToInternalAddress(t *testing.T) {
	entry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://169.254.169.254/latest/meta-data/", http.StatusFound)
	}))
	defer entry.Close()
	entryURL, err := url.Parse(entry.URL)
	require.NoError(t, err)

	srv := New(&config.Cfg{}, logger.Nop(), scanner.New(scanner.Options{Retries: 3, RetryDelay: time.Hour}), nil)
	// httptest слушает loopback, поэтому сам вход пропускаем
	srv.guard = func(u *url.URL) error {
		if u.Host == entryURL.Host {
			return nil
		}
		return checkURL(u)
	}

	w := do(t, srv.Handler(), http.MethodPost, "/api/scan", map[string]any{"input": entry.URL})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"stage":"fetch"`)
	assert.Contains(t, w.Body.String(), "redirect blocked")
}
