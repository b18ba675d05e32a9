package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sngm3741/podcast-question-gateway/internal/config"
)

type upstream struct {
	*httptest.Server
	hits atomic.Int32
	body atomic.Value
}

func newUpstream(t *testing.T, status int, body string) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		raw, _ := io.ReadAll(r.Body)
		u.body.Store(string(raw))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.Close)
	return u
}

func baseConfig() config.Config {
	return config.Config{
		Addr:            ":0",
		AllowedOrigins:  []string{"*"},
		UpstreamTimeout: 5 * time.Second,
		Logger:          zap.NewNop(),
		MailchimpTags:   []string{"podcast-question-generator"},
	}
}

func serve(t *testing.T, srv *Server, method, path, body string) *http.Response {
	t.Helper()
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(raw)
}

func assertCORS(t *testing.T, res *http.Response) {
	t.Helper()
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", res.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", res.Header.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "86400", res.Header.Get("Access-Control-Max-Age"))
}

func TestPreflightOnAnyPath(t *testing.T) {
	srv := New(baseConfig())
	for _, path := range []string{"/", "/submit-email", "/does/not/exist"} {
		res := serve(t, srv, http.MethodOptions, path, "")

		assert.Equal(t, http.StatusOK, res.StatusCode, path)
		assert.Empty(t, readBody(t, res), path)
		assertCORS(t, res)
	}
}

func TestOtherMethodsAreNotAllowed(t *testing.T) {
	srv := New(baseConfig())
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/"},
		{http.MethodGet, "/submit-email"},
		{http.MethodPut, "/submit-email"},
		{http.MethodDelete, "/anything"},
		{http.MethodPatch, "/v1/chat/completions"},
	}

	for _, tt := range tests {
		res := serve(t, srv, tt.method, tt.path, "")

		assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode, "%s %s", tt.method, tt.path)
		assert.Equal(t, "Method not allowed", readBody(t, res))
		assertCORS(t, res)
	}
}

func TestSubmitEmailBothSinksSucceed(t *testing.T) {
	sheet := newUpstream(t, http.StatusOK, `{"success":true}`)
	mc := newUpstream(t, http.StatusOK, `{"id":"abc"}`)

	cfg := baseConfig()
	cfg.SheetsWebhookURL = sheet.URL
	cfg.MailchimpAPIKey = "key-us1"
	cfg.MailchimpListID = "list"
	cfg.MailchimpBaseURL = mc.URL
	srv := New(cfg)

	res := serve(t, srv, http.MethodPost, "/submit-email", `{"email":"a@b.com"}`)

	require.Equal(t, http.StatusOK, res.StatusCode)
	assertCORS(t, res)
	assert.JSONEq(t, `{
		"success": true,
		"sheets": {"success": true, "data": {"success": true}},
		"mailchimp": {"success": true, "tags": ["podcast-question-generator"]}
	}`, readBody(t, res))
	assert.EqualValues(t, 1, sheet.hits.Load())
	assert.EqualValues(t, 1, mc.hits.Load())

	var row map[string]any
	require.NoError(t, json.Unmarshal([]byte(sheet.body.Load().(string)), &row))
	assert.Equal(t, "Anonymous", row["name"])
	assert.Equal(t, "a@b.com", row["email"])
	assert.NotEmpty(t, row["timestamp"])

	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.SinkOutcomes.WithLabelValues("sheets", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.HTTPRequests.WithLabelValues("POST", "/submit-email", "200")))
}

func TestSubmitEmailMissingEmailCallsNoSink(t *testing.T) {
	sheet := newUpstream(t, http.StatusOK, `{}`)
	mc := newUpstream(t, http.StatusOK, `{}`)

	cfg := baseConfig()
	cfg.SheetsWebhookURL = sheet.URL
	cfg.MailchimpAPIKey = "key"
	cfg.MailchimpListID = "list"
	cfg.MailchimpBaseURL = mc.URL

	res := serve(t, New(cfg), http.MethodPost, "/submit-email", `{}`)

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assertCORS(t, res)
	assert.JSONEq(t, `{"error":"Email is required"}`, readBody(t, res))
	assert.Zero(t, sheet.hits.Load())
	assert.Zero(t, mc.hits.Load())
}

func TestSubmitEmailPartialFailure(t *testing.T) {
	sheet := newUpstream(t, http.StatusInternalServerError, `script error`)
	mc := newUpstream(t, http.StatusBadRequest, `{"title":"Member Exists"}`)

	cfg := baseConfig()
	cfg.SheetsWebhookURL = sheet.URL
	cfg.MailchimpAPIKey = "key"
	cfg.MailchimpListID = "list"
	cfg.MailchimpBaseURL = mc.URL

	res := serve(t, New(cfg), http.MethodPost, "/submit-email", `{"email":"a@b.com","name":"Ada Lovelace"}`)

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{
		"success": true,
		"sheets": {"success": false, "error": "Google Apps Script error: 500 - script error"},
		"mailchimp": {"success": true, "message": "Already subscribed"}
	}`, readBody(t, res))
	assert.EqualValues(t, 1, sheet.hits.Load())
	assert.EqualValues(t, 1, mc.hits.Load())
}

func TestSubmitEmailUnconfiguredSinks(t *testing.T) {
	res := serve(t, New(baseConfig()), http.MethodPost, "/submit-email", `{"email":"a@b.com"}`)

	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.JSONEq(t, `{
		"success": false,
		"sheets": {"success": false, "error": "Google Sheets not configured"},
		"mailchimp": {"success": false, "error": "Mailchimp not configured"}
	}`, readBody(t, res))
}

func TestChatProxyMirrorsUpstreamStatus(t *testing.T) {
	llm := newUpstream(t, http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)

	cfg := baseConfig()
	cfg.LLMEndpoint = llm.URL
	cfg.LLMAPIKey = "sk-malformed"

	res := serve(t, New(cfg), http.MethodPost, "/", `{"model":"gpt-4o","messages":[]}`)

	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assertCORS(t, res)
	assert.JSONEq(t, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`, readBody(t, res))
	assert.Equal(t, `{"model":"gpt-4o","messages":[]}`, llm.body.Load())
}

func TestChatProxyInvalidJSONIs500(t *testing.T) {
	llm := newUpstream(t, http.StatusOK, `{}`)

	cfg := baseConfig()
	cfg.LLMEndpoint = llm.URL
	cfg.LLMAPIKey = "sk"

	res := serve(t, New(cfg), http.MethodPost, "/", `not json`)

	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.JSONEq(t, `{"error":"request body is not valid JSON"}`, readBody(t, res))
	assert.Zero(t, llm.hits.Load())
}

func TestRestrictedOrigins(t *testing.T) {
	cfg := baseConfig()
	cfg.AllowedOrigins = []string{"https://moondeskmedia.com"}
	ts := httptest.NewServer(New(cfg).Router())
	defer ts.Close()

	for origin, want := range map[string]string{
		"https://moondeskmedia.com": "https://moondeskmedia.com",
		"https://evil.example":      "",
	} {
		req, err := http.NewRequest(http.MethodOptions, ts.URL+"/", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		res, err := ts.Client().Do(req)
		require.NoError(t, err)
		res.Body.Close()

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, want, res.Header.Get("Access-Control-Allow-Origin"), origin)
	}
}
