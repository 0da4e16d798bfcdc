package control

import (
	"Butler/internal/ai"
	"Butler/internal/app/runner"
	"Butler/internal/config"
	"Butler/internal/service/journal"
	"Butler/internal/settings"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeImprover struct {
	out    string
	err    error
	models []string
	got    string
}

func (f *fakeImprover) ImproveText(_ context.Context, text string) (string, error) {
	f.got = text
	return f.out, f.err
}

func (f *fakeImprover) Models(context.Context) ([]string, error) { return f.models, f.err }

type staticSettings settings.Settings

func (s staticSettings) Snapshot() settings.Settings { return settings.Settings(s) }

func newTestServer(t *testing.T, imp *fakeImprover) (*Server, *journal.Journal) {
	t.Helper()
	j := journal.New(10)
	st := settings.Defaults()
	st.APIKey = "sk-1234567890abcd"
	s := NewServer(config.ControlConfig{Enabled: true, BindAddr: "127.0.0.1:0"}, zap.NewNop().Sugar(), imp, j, staticSettings(st))
	return s, j
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&e))
	return e
}

func TestImprove(t *testing.T) {
	imp := &fakeImprover{out: "Hello, world."}
	s, _ := newTestServer(t, imp)

	w := do(t, s.Handler(), http.MethodPost, "/improve", `{"text":"helo wrld"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var resp improveResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Hello, world.", resp.Improved)
	assert.Equal(t, "helo wrld", imp.got)
}

func TestImproveErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
		code int
		kind string
	}{
		{"invalid json", `{`, nil, http.StatusBadRequest, "bad_request"},
		{"empty text", `{"text":""}`, runner.ErrEmptyText, http.StatusBadRequest, "bad_request"},
		{"busy", `{"text":"x"}`, runner.ErrBusy, http.StatusConflict, "busy"},
		{"service", `{"text":"x"}`, &ai.Error{Kind: ai.ServiceError, Message: "Incorrect API key provided"}, http.StatusBadGateway, "service_error"},
		{"missing key", `{"text":"x"}`, &ai.Error{Kind: ai.MissingCredential}, http.StatusBadGateway, "missing_credential"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestServer(t, &fakeImprover{err: tc.err})
			w := do(t, s.Handler(), http.MethodPost, "/improve", tc.body)
			assert.Equal(t, tc.code, w.Code)
			assert.Equal(t, tc.kind, decodeError(t, w).Kind)
		})
	}
}

func TestImproveBodyTooLarge(t *testing.T) {
	s, _ := newTestServer(t, &fakeImprover{})
	body := `{"text":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	w := do(t, s.Handler(), http.MethodPost, "/improve", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestModels(t *testing.T) {
	s, _ := newTestServer(t, &fakeImprover{models: []string{"llama3", "mistral"}})
	w := do(t, s.Handler(), http.MethodGet, "/models", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"models":["llama3","mistral"]}`, w.Body.String())

	s, _ = newTestServer(t, &fakeImprover{err: &ai.Error{Kind: ai.NetworkError, Err: io.ErrUnexpectedEOF}})
	w = do(t, s.Handler(), http.MethodGet, "/models", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "network_error", decodeError(t, w).Kind)
}

func TestLogs(t *testing.T) {
	s, j := newTestServer(t, &fakeImprover{})
	j.Append(journal.LevelInfo, "Improvement done")
	j.Append(journal.LevelError, "Improvement failed")

	w := do(t, s.Handler(), http.MethodGet, "/logs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "[INFO] Improvement done")
	assert.Contains(t, w.Body.String(), "[ERROR] Improvement failed")

	w = do(t, s.Handler(), http.MethodDelete, "/logs", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, j.Len())
}

func TestSettingsMasksKey(t *testing.T) {
	s, _ := newTestServer(t, &fakeImprover{})
	w := do(t, s.Handler(), http.MethodGet, "/settings", "")
	require.Equal(t, http.StatusOK, w.Code)

	var m map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&m))
	assert.NotContains(t, m["api_key"], "567890")
	assert.Equal(t, "hosted", m["backend"])
}

func TestMetricsAndMethods(t *testing.T) {
	s, _ := newTestServer(t, &fakeImprover{out: "ok"})
	do(t, s.Handler(), http.MethodPost, "/improve", `{"text":"x"}`)

	w := do(t, s.Handler(), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "butler_control_requests_total")

	w = do(t, s.Handler(), http.MethodGet, "/improve", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestStartStop(t *testing.T) {
	s, j := newTestServer(t, &fakeImprover{})
	j.Append(journal.LevelWarning, "hello")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	require.NotEqual(t, "127.0.0.1:0", s.Addr())

	resp, err := http.Get("http://" + s.Addr() + "/logs")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "[WARNING] hello")

	require.NoError(t, s.Stop(context.Background()))
	_, err = http.Get("http://" + s.Addr() + "/logs")
	assert.Error(t, err)
}
