// internal/common/gemini/client_test.go
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rental-workers/internal/common/logger"
	"rental-workers/internal/recommendation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"
)

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	return NewClient(Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "gemini-test",
		Timeout: 2 * time.Second,
	}, createTestLogger(t))
}

// sentRequest is the generateContent body as seen on the wire.
type sentRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseMimeType string `json:"responseMimeType"`
	} `json:"generationConfig"`
}

func candidateBody(text string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{"role": "model", "parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(body)
}

func serveText(t *testing.T, status int, body string, seen *sentRequest) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.Query().Get("key"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestAnalyze_Success(t *testing.T) {
	var seen sentRequest
	srv := serveText(t, http.StatusOK, candidateBody(
		`{"originCity":null,"city":"Bandung","days":3,"people":7,"type":"MPV","budgetPerDay":{"min":null,"max":500000},"notes":"Keluarga ke Bandung"}`,
	), &seen)
	defer srv.Close()

	result, err := newTestClient(t, srv.URL).Analyze(context.Background(), "keluarga 7 orang ke Bandung 3 hari")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "Bandung", result.City)
	assert.Equal(t, float64(7), result.People)
	assert.Equal(t, "Keluarga ke Bandung", result.NotesText())
	assert.False(t, result.IsDegraded())

	require.Len(t, seen.Contents, 1)
	assert.Contains(t, seen.Contents[0].Parts[0].Text, `"""keluarga 7 orang ke Bandung 3 hari"""`)
	assert.Equal(t, "user", seen.Contents[0].Role)
	assert.Equal(t, "application/json", seen.GenerationConfig.ResponseMimeType)
}

func TestAnalyze_StripsCodeFences(t *testing.T) {
	srv := serveText(t, http.StatusOK, candidateBody("```json\n{\"city\":\"Bali\",\"notes\":\"liburan\"}\n```"), nil)
	defer srv.Close()

	result, err := newTestClient(t, srv.URL).Analyze(context.Background(), "ke Bali")
	require.NoError(t, err)
	assert.Equal(t, "Bali", result.City)
	assert.Equal(t, "liburan", result.NotesText())
}

func TestAnalyze_DryRun(t *testing.T) {
	client := NewClient(Config{DryRun: true}, createTestLogger(t))

	result, err := client.Analyze(context.Background(), "apa saja")
	require.NoError(t, err)
	assert.Equal(t, recommendation.DryRunNote, result.NotesText())
	assert.Nil(t, result.City)

	pong, err := client.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok (dry run)", pong)
}

// ==========================
// Degraded Response Tests
// ==========================

func TestAnalyze_DegradedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"non json text", candidateBody("maaf, saya tidak mengerti")},
		{"json null", candidateBody("null")},
		{"json array", candidateBody(`[1,2]`)},
		{"empty text", candidateBody("   ")},
		{"no candidates", `{"candidates":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveText(t, http.StatusOK, tt.body, nil)
			defer srv.Close()

			result, err := newTestClient(t, srv.URL).Analyze(context.Background(), "mobil murah")
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.True(t, result.IsDegraded())
			assert.True(t, strings.HasPrefix(result.NotesText(), recommendation.AnalysisErrorMarker+": "))
			assert.Nil(t, result.City)
			assert.Nil(t, result.People)
		})
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestAnalyze_UpstreamStatusIsUnavailable(t *testing.T) {
	srv := serveText(t, http.StatusServiceUnavailable,
		`{"error":{"code":503,"message":"The model is overloaded.","status":"UNAVAILABLE"}}`, nil)
	defer srv.Close()

	result, err := newTestClient(t, srv.URL).Analyze(context.Background(), "mobil")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, recommendation.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "The model is overloaded.")
}

func TestAnalyze_TransportFailure(t *testing.T) {
	srv := serveText(t, http.StatusOK, candidateBody("{}"), nil)
	srv.Close()

	_, err := newTestClient(t, srv.URL).Analyze(context.Background(), "mobil")
	require.Error(t, err)
	assert.ErrorIs(t, err, recommendation.ErrUpstreamUnavailable)
	assert.NotContains(t, err.Error(), "test-key")
}

func TestAnalyze_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, srv.URL).Analyze(ctx, "mobil")
	assert.ErrorIs(t, err, recommendation.ErrUpstreamUnavailable)
}

func TestAnalyze_MissingKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"}, createTestLogger(t))

	_, err := client.Analyze(context.Background(), "mobil")
	assert.ErrorIs(t, err, recommendation.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// ==========================
// Ping Tests
// ==========================

func TestPing(t *testing.T) {
	var seen sentRequest
	srv := serveText(t, http.StatusOK, candidateBody("ok"), &seen)
	defer srv.Close()

	pong, err := newTestClient(t, srv.URL).Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", pong)
	assert.Equal(t, PingPrompt, seen.Contents[0].Parts[0].Text)
	assert.Empty(t, seen.GenerationConfig.ResponseMimeType)
}

func TestPing_Unavailable(t *testing.T) {
	srv := serveText(t, http.StatusForbidden, `{"error":{"code":403,"message":"API key not valid"}}`, nil)
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Ping(context.Background())
	assert.ErrorIs(t, err, recommendation.ErrUpstreamUnavailable)
}

// ==========================
// Helper Tests
// ==========================

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`  {"a":1}  `))
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt("sewa SUV di Malang")
	assert.Contains(t, prompt, `"originCity"`)
	assert.Contains(t, prompt, `"budgetPerDay"`)
	assert.True(t, strings.HasSuffix(prompt, `"""sewa SUV di Malang"""`))
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{}, logger.NewNoOpLogger())
	assert.Equal(t, DefaultModel, client.Model())
	assert.Equal(t, DefaultBaseURL, client.cfg.BaseURL)
	assert.Nil(t, client.models)

	withKey := NewClient(Config{APIKey: "k"}, logger.NewNoOpLogger())
	assert.NotNil(t, withKey.models)
	assert.NoError(t, withKey.initErr)
}

// ==========================
// Error Classification Tests
// ==========================

type stubGenerator struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (s stubGenerator) GenerateContent(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return s.resp, s.err
}

func TestAnalyze_ErrorClassification(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantUpstream bool
	}{
		{"api error", genai.APIError{Code: 429, Message: "quota exceeded"}, true},
		{"network error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"undecodable reply", errors.New("invalid character 'n' looking for beginning of value"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(Config{}, createTestLogger(t))
			client.models = stubGenerator{err: tt.err}

			result, err := client.Analyze(context.Background(), "mobil")
			if tt.wantUpstream {
				assert.ErrorIs(t, err, recommendation.ErrUpstreamUnavailable)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.True(t, result.IsDegraded())
		})
	}
}
