package ui

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"qareport/adapters/excel"
	"qareport/internal/api"
	"qareport/internal/config"
	"qareport/internal/export"
	"qareport/internal/session"
	"qareport/internal/testkit"
	"qareport/ui/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClient struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func newTestServer(t *testing.T, mutate func(*config.Config)) (*testClient, *session.Store) {
	t.Helper()
	cfg := config.Default()
	cfg.Server.GinMode = "test"
	if mutate != nil {
		mutate(cfg)
	}

	store := session.NewStore(time.Hour)
	reader := excel.NewDataReader(excel.DefaultReaderConfig())
	apiHandler := api.NewReportHandler(store, reader, api.Options{MaxUploadBytes: cfg.Server.MaxUploadBytes()}).Routes()

	srv, err := NewServer(cfg, store, reader, apiHandler)
	require.NoError(t, err)
	return &testClient{t: t, handler: srv.Handler()}, store
}

func (tc *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	tc.t.Helper()
	if tc.cookie != nil {
		req.AddCookie(tc.cookie)
	}
	rec := httptest.NewRecorder()
	tc.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.CookieName {
			tc.cookie = c
		}
	}
	return rec
}

func (tc *testClient) get(target string) *httptest.ResponseRecorder {
	return tc.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (tc *testClient) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return tc.do(req)
}

func (tc *testClient) upload(filename, content string) *httptest.ResponseRecorder {
	tc.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(tc.t, err)
	_, err = part.Write([]byte(content))
	require.NoError(tc.t, err)
	require.NoError(tc.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/report/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return tc.do(req)
}

func TestReportBuilderFlow(t *testing.T) {
	tc, store := newTestServer(t, nil)

	rec := tc.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, tc.cookie, "first visit sets the session cookie")
	assert.Contains(t, rec.Body.String(), `action="/report/upload"`)
	assert.Equal(t, 1, store.Len())

	rec = tc.upload("results.csv", testkit.StatusCSV)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = tc.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "results.csv: 3 rows, 3 columns")
	assert.Contains(t, page, "<td>Fail</td><td>5</td><td>bo</td>")
	assert.Contains(t, page, "<p>No chart available</p>")

	rec = tc.postForm("/report/aggregate", url.Values{"group": {"Status"}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	rec = tc.get("/report/click?series=Pass&category=Status")
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	rec = tc.get("/")
	page = rec.Body.String()
	assert.Contains(t, page, "Showing 2 of 3 rows where Status = Pass")
	assert.Contains(t, page, `src="/report/chart"`)
	assert.Contains(t, page, "<strong>Pass</strong>: 2 rows")
	assert.NotContains(t, page, "<td>Fail</td>")
	assert.Equal(t, 1, store.Len(), "the cookie keeps one session")

	rec = tc.get("/report/chart")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/report/click")

	rec = tc.get("/report/export")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="report.html"`, rec.Header().Get("Content-Disposition"))
	ds, err := export.ParseChartData(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"Status"}, ds.Labels)

	rec = tc.postForm("/report/filter/clear", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NotContains(t, tc.get("/").Body.String(), "Showing 2 of 3 rows")

	rec = tc.postForm("/report/filter", url.Values{"value": {"Fail"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, tc.get("/").Body.String(), "Showing 1 of 3 rows where Status = Fail")
}

func TestClickByPosition(t *testing.T) {
	tc, _ := newTestServer(t, nil)
	tc.upload("results.csv", testkit.StatusCSV)
	tc.postForm("/report/aggregate", url.Values{"group": {"Status"}, "mode": {"count"}})

	rec := tc.get("/report/click?series_index=0&category_index=1")
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Contains(t, tc.get("/").Body.String(), "where Status = Pass")

	rec = tc.get("/report/click?series_index=x&category_index=1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadErrors(t *testing.T) {
	tc, _ := newTestServer(t, nil)
	tc.upload("results.csv", testkit.StatusCSV)

	tests := []struct {
		name     string
		filename string
		content  string
		status   int
		notice   string
	}{
		{"unsupported format", "notes.txt", "a\n1\n", http.StatusUnsupportedMediaType, "unsupported file type"},
		{"no rows", "empty.csv", "a,b\n", http.StatusUnprocessableEntity, "contains no data rows"},
		{"malformed", "bad.csv", "a,b\n\"x,1\n", http.StatusUnprocessableEntity, "malformed row"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tc.upload(tt.filename, tt.content)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.notice)
			assert.Contains(t, rec.Body.String(), "results.csv: 3 rows", "the previous table stays")
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	tc, _ := newTestServer(t, func(cfg *config.Config) { cfg.Server.MaxUploadMB = 1 })

	rec := tc.upload("big.csv", "a\n"+strings.Repeat("x\n", 600_000))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "1 MB upload limit")
}

func TestAggregateErrors(t *testing.T) {
	tc, _ := newTestServer(t, nil)

	rec := tc.postForm("/report/aggregate", url.Values{"group": {"Status"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "upload a file")

	tc.upload("results.csv", testkit.StatusCSV)
	rec = tc.postForm("/report/aggregate", url.Values{"group": {"Nope"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "is not in the current schema")
}

func TestReportKinds(t *testing.T) {
	tc, _ := newTestServer(t, nil)
	tc.upload("results.csv", testkit.StatusCSV)

	page := tc.get("/?kind=issue").Body.String()
	assert.Contains(t, page, "<h2>Issue Analysis</h2>")
	assert.Contains(t, page, `name="x"`)

	page = tc.get("/?kind=number").Body.String()
	assert.Contains(t, page, "<h2>Number Report</h2>")
	assert.Contains(t, page, `src="/report/chart"`)

	rec := tc.get("/report/export")
	assert.Equal(t, `attachment; filename="number_report.html"`, rec.Header().Get("Content-Disposition"))

	rec = tc.get("/?kind=pivot")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaleCookieGetsNewSession(t *testing.T) {
	tc, store := newTestServer(t, nil)
	tc.cookie = &http.Cookie{Name: middleware.CookieName, Value: "not-a-session"}

	rec := tc.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, "not-a-session", tc.cookie.Value)
	assert.Equal(t, 1, store.Len())
}

func TestChartWithoutAggregation(t *testing.T) {
	tc, _ := newTestServer(t, nil)
	rec := tc.get("/report/chart")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndAPIMount(t *testing.T) {
	tc, _ := newTestServer(t, nil)

	rec := tc.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":0}`, rec.Body.String())

	rec = tc.get("/api/reports/not-an-id")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)

	rec = tc.get("/static/report.css")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAIReport(t *testing.T) {
	form := url.Values{
		"os": {"https://sheets.example.test/1"}, "sheet": {"Regression"}, "ticketId": {"QA-7"},
		"module": {"Login"}, "summary": {"Lockout"}, "ac": {"Three tries"}, "desc": {"Fails on 2nd"},
	}

	t.Run("disabled", func(t *testing.T) {
		tc, _ := newTestServer(t, nil)

		rec := tc.get("/ai-report")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Set WEBHOOK_URL")

		rec = tc.postForm("/ai-report", form)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("enabled", func(t *testing.T) {
		hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"message":"**Drafted** report for QA-7"}`))
		}))
		defer hook.Close()

		tc, _ := newTestServer(t, func(cfg *config.Config) { cfg.Webhook.URL = hook.URL })

		rec := tc.postForm("/ai-report", form)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), "<strong>Drafted</strong> report for QA-7")

		partial := url.Values{"os": {"x"}}
		rec = tc.postForm("/ai-report", partial)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "missing required fields")
	})
}
