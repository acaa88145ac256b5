// internal/api/server_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/signalhub/internal/api/response"
	"github.com/newthinker/signalhub/internal/auth"
	"github.com/newthinker/signalhub/internal/core"
	"github.com/newthinker/signalhub/internal/llm"
	"github.com/newthinker/signalhub/internal/metrics"
	"github.com/newthinker/signalhub/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAnalyzer struct {
	got llm.Image
}

func (f *fakeAnalyzer) AnalyzeChart(ctx context.Context, img llm.Image) (*core.AnalysisResult, error) {
	f.got = img
	return &core.AnalysisResult{
		Patterns:        []string{"Doji"},
		Trend:           "Baixa",
		Recommendation:  core.RecommendationWait,
		ConfidenceScore: 40,
		Summary:         "Sinais conflitantes.",
	}, nil
}

type testServer struct {
	*Server
	tokens   *auth.TokenIssuer
	analyzer *fakeAnalyzer
}

func newTestServer(t *testing.T, apiKey string) *testServer {
	t.Helper()
	svc := service.New(nil, nil, service.Options{}, zap.NewNop())
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	analyzer := &fakeAnalyzer{}

	srv, err := NewServer(Config{
		Host:        "localhost",
		Port:        0,
		APIKey:      apiKey,
		MetricsPath: "/metrics",
	}, Dependencies{
		Service:  svc,
		Analyzer: analyzer,
		Tokens:   tokens,
		Metrics:  metrics.NewRegistry(),
	}, zap.NewNop())
	require.NoError(t, err)
	return &testServer{Server: srv, tokens: tokens, analyzer: analyzer}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v any) response.Meta {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
		Meta response.Meta   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, v))
	return env.Meta
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, "")

	w := srv.do(httptest.NewRequest("GET", "/api/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	decodeData(t, w, &body)
	assert.Equal(t, "mock", body["backend"])
	assert.NotEmpty(t, w.Header().Get(metrics.RequestIDHeader))
}

func TestServer_Login(t *testing.T) {
	srv := newTestServer(t, "")

	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"email":"bruno@sinais.app","password":"x"}`))
	w := srv.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var sess struct {
		User  core.User `json:"user"`
		Token string    `json:"token"`
	}
	meta := decodeData(t, w, &sess)
	assert.Equal(t, "mock", meta.Source)
	assert.Equal(t, "u2", sess.User.ID)
	assert.Equal(t, core.RolePremium, sess.User.Role)

	claims, err := srv.tokens.Parse(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "u2", claims.UserID)
}

func TestServer_Login_BadBody(t *testing.T) {
	srv := newTestServer(t, "")

	w := srv.do(httptest.NewRequest("POST", "/api/auth/login", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", errorCode(t, w))
}

func TestServer_Register(t *testing.T) {
	srv := newTestServer(t, "")

	w := srv.do(httptest.NewRequest("POST", "/api/auth/register",
		strings.NewReader(`{"email":"nova@sinais.app","password":"segredo1","name":"Nova"}`)))
	require.Equal(t, http.StatusCreated, w.Code)

	w = srv.do(httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(`{"email":"  "}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Recover(t *testing.T) {
	srv := newTestServer(t, "")

	w := srv.do(httptest.NewRequest("POST", "/api/auth/recover", strings.NewReader(`{"email":"ninguem@sinais.app"}`)))

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestServer_Signals(t *testing.T) {
	srv := newTestServer(t, "")

	w := srv.do(httptest.NewRequest("GET", "/api/signals?page=2&limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var page core.Page[core.Signal]
	decodeData(t, w, &page)
	assert.Len(t, page.Data, 5)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.True(t, page.HasMore)
}

func TestServer_Providers(t *testing.T) {
	srv := newTestServer(t, "")

	w := srv.do(httptest.NewRequest("GET", "/api/providers", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var providers []core.SignalProvider
	decodeData(t, w, &providers)
	assert.Len(t, providers, 4)
}

func TestServer_Follow_RequiresToken(t *testing.T) {
	srv := newTestServer(t, "")

	w := srv.do(httptest.NewRequest("POST", "/api/providers/p1/follow", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := srv.tokens.Issue(core.User{ID: "u1", Role: core.RoleFree})
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/api/providers/p1/follow", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = srv.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]bool
	decodeData(t, w, &body)
	assert.True(t, body["following"])
}

func TestServer_Upgrade(t *testing.T) {
	srv := newTestServer(t, "")
	token, err := srv.tokens.Issue(core.User{ID: "u1", Role: core.RoleFree})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/account/upgrade", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := srv.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var sess struct {
		User  core.User `json:"user"`
		Token string    `json:"token"`
	}
	decodeData(t, w, &sess)
	assert.Equal(t, core.RolePremium, sess.User.Role)

	claims, err := srv.tokens.Parse(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, core.RolePremium, claims.Role)
}

func TestServer_AdminAuth(t *testing.T) {
	srv := newTestServer(t, "test-key")

	w := srv.do(httptest.NewRequest("GET", "/api/admin/users", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest("GET", "/api/admin/users", nil)
	req.Header.Set("X-API-Key", "test-key")
	w = srv.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var users []core.AdminUser
	decodeData(t, w, &users)
	assert.Len(t, users, 5)
}

func TestServer_AdminStatusAndDelete(t *testing.T) {
	srv := newTestServer(t, "")

	w := srv.do(httptest.NewRequest("PATCH", "/api/admin/users/u2/status", strings.NewReader(`{"status":"Suspenso"}`)))
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(httptest.NewRequest("PATCH", "/api/admin/users/u1/status", strings.NewReader(`{"status":"Banido"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(httptest.NewRequest("DELETE", "/api/admin/users/u1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(httptest.NewRequest("GET", "/api/admin/users", nil))
	var users []core.AdminUser
	decodeData(t, w, &users)
	assert.Len(t, users, 4)
	assert.Equal(t, "u2", users[0].ID)
	assert.Equal(t, core.StatusSuspended, users[0].Status)
}

func TestServer_Backtest(t *testing.T) {
	srv := newTestServer(t, "")

	w := srv.do(httptest.NewRequest("POST", "/api/backtest", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var res core.BacktestResult
	decodeData(t, w, &res)
	assert.Len(t, res.Trades, 15)
}

func TestServer_Analysis(t *testing.T) {
	srv := newTestServer(t, "")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "chart.png")
	require.NoError(t, err)
	part.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/analysis", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := srv.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var res core.AnalysisResult
	decodeData(t, w, &res)
	assert.Equal(t, core.RecommendationWait, res.Recommendation)
	assert.Equal(t, "image/png", srv.analyzer.got.MIMEType)
}

func TestServer_Analysis_MissingFile(t *testing.T) {
	srv := newTestServer(t, "")

	req := httptest.NewRequest("POST", "/api/analysis", strings.NewReader("not multipart"))
	w := srv.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Metrics(t *testing.T) {
	srv := newTestServer(t, "")
	srv.do(httptest.NewRequest("GET", "/api/providers", nil))

	w := srv.do(httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `path="/api/providers"`)
}

func TestNewServer_RequiresService(t *testing.T) {
	_, err := NewServer(Config{}, Dependencies{}, nil)
	assert.Error(t, err)
}
