package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tdprofiler/internal/ai"
	"github.com/KaramelBytes/tdprofiler/internal/insights"
	"github.com/KaramelBytes/tdprofiler/internal/jobs"
	"github.com/KaramelBytes/tdprofiler/internal/middleware"
)

const sampleCSV = "id,amount,email\n1,10.5,a@x.com\n2,20,b@x.com\n3,,c@x.com\n4,30,d@x.com\n"

type fakeRuntime struct{ reply string }

func (f fakeRuntime) Generate(context.Context, ai.GenerateRequest) (*ai.GenerateResponse, error) {
	return &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{Content: f.reply}}}}, nil
}

func newTestServer(t *testing.T, d Deps) *Server {
	t.Helper()
	return New(Config{MaxUploadBytes: 1 << 20}, d)
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	return do(s, httptest.NewRequest(http.MethodGet, path, nil))
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["detail"]
}

// upload posts a file and waits for its background profiling.
func upload(t *testing.T, s *Server, filename, content string) UploadResponse {
	t.Helper()
	rec := do(s, uploadRequest(t, filename, content))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Wait()
	return resp
}

func TestRoot(t *testing.T) {
	s := newTestServer(t, Deps{})
	rec := get(s, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Welcome to TD Profiler API"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestUploadAndProfile(t *testing.T) {
	s := newTestServer(t, Deps{})
	resp := upload(t, s, "sales.csv", sampleCSV)

	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, jobs.StatusProcessing, resp.Status)
	assert.Equal(t, "sales.csv", resp.Filename)
	assert.Equal(t, int64(len(sampleCSV)), resp.FileSizeBytes)
	assert.Equal(t, 5, resp.EstimatedTimeSec)
	assert.Equal(t, "/api/profile/"+resp.JobID, resp.ProgressURL)

	rec := get(s, resp.ProgressURL)
	require.Equal(t, http.StatusOK, rec.Code)
	var job map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, "completed", job["status"])
	result := job["result"].(map[string]any)
	summary := result["summary"].(map[string]any)
	assert.Equal(t, float64(4), summary["row_count"])
	assert.Equal(t, float64(3), summary["column_count"])
	assert.Contains(t, summary, "quality_grade")
}

func TestProfileUnknownJob(t *testing.T) {
	s := newTestServer(t, Deps{})
	rec := get(s, "/api/profile/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Job not found", detail(t, rec))
}

func TestColumnDetail(t *testing.T) {
	s := newTestServer(t, Deps{})
	resp := upload(t, s, "sales.csv", sampleCSV)

	rec := get(s, "/api/profile/"+resp.JobID+"/column/email")
	require.Equal(t, http.StatusOK, rec.Code)
	var col map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &col))
	assert.Equal(t, "email", col["name"])
	assert.Equal(t, "email", col["semantic_type"])

	rec = get(s, "/api/profile/"+resp.JobID+"/column/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Column not found", detail(t, rec))

	rec = get(s, "/api/profile/nope/column/email")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Job not found or not completed", detail(t, rec))
}

func TestUploadFailures(t *testing.T) {
	s := newTestServer(t, Deps{})

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	rec := do(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file is required", detail(t, rec))

	resp := upload(t, s, "notes.pdf", "%PDF-1.4")
	rec = get(s, resp.ProgressURL)
	var job jobs.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, jobs.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "unsupported file format")
	assert.Nil(t, job.Result)

	rec = get(s, "/api/profile/"+resp.JobID+"/column/x")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadTooLarge(t *testing.T) {
	s := New(Config{MaxUploadBytes: 64}, Deps{})
	rec := do(s, uploadRequest(t, "big.csv", "a,b\n"+strings.Repeat("1,2\n", 100)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, 0, s.jobs.Len())
}

func TestReport(t *testing.T) {
	s := newTestServer(t, Deps{})
	resp := upload(t, s, "sales.csv", sampleCSV)

	rec := get(s, "/api/report/"+resp.JobID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sales_profile.json")

	rec = get(s, "/api/report/"+resp.JobID+"?format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "name,"))

	rec = get(s, "/api/report/"+resp.JobID+"?format=html")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<html")

	rec = get(s, "/api/report/"+resp.JobID+"?format=pdf")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, detail(t, rec), "unsupported report format")

	rec = get(s, "/api/report/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInsights(t *testing.T) {
	reply := `{"executive_summary":"Good.","critical_issues":[],"recommendations":["Fill amount"],"dbt_tests":["unique: id"]}`
	gen := insights.NewGenerator(fakeRuntime{reply: reply}, insights.Config{DefaultModel: "openai/gpt-4o-mini"}, nil)
	s := newTestServer(t, Deps{Insights: gen})
	resp := upload(t, s, "sales.csv", sampleCSV)

	rec := get(s, "/api/insights/"+resp.JobID+"?model=claude-3-haiku-20240307")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out InsightsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, resp.JobID, out.JobID)
	assert.Equal(t, "anthropic/claude-3-haiku-20240307", out.ModelUsed)
	assert.Equal(t, "Good.", out.Insights.ExecutiveSummary)
	assert.Equal(t, insights.StringList{"unique: id"}, out.Insights.DBTTests)

	rec = get(s, "/api/insights/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Profiling job not found or not completed", detail(t, rec))
}

func TestInsightsFallbackWithoutRuntime(t *testing.T) {
	s := newTestServer(t, Deps{})
	resp := upload(t, s, "sales.csv", sampleCSV)

	rec := get(s, "/api/insights/"+resp.JobID)
	require.Equal(t, http.StatusOK, rec.Code)
	var out InsightsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, insights.FallbackSummary, out.Insights.ExecutiveSummary)
	assert.Empty(t, out.Insights.Recommendations)
}

func TestUploadRateLimited(t *testing.T) {
	limiter := middleware.NewLimiter(map[string]middleware.Limit{
		middleware.ActionUpload: {Requests: 1, Window: time.Hour},
	})
	s := newTestServer(t, Deps{Limiter: limiter})

	rec := do(s, uploadRequest(t, "a.csv", sampleCSV))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = do(s, uploadRequest(t, "a.csv", sampleCSV))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Rate limit exceeded", body["error"])
	assert.Equal(t, "upload", body["action"])
	s.Wait()

	// Reads are never limited.
	assert.Equal(t, http.StatusOK, get(s, "/").Code)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, Deps{})
	rec := get(s, "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", detail(t, rec))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot open local listener: %v", err)
	}
	s := newTestServer(t, Deps{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Timeout: 2 * time.Second}
	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = client.Get("http://" + ln.Addr().String() + "/")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
