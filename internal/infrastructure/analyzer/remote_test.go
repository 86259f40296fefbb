package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ripeness-detector/internal/domain/entity"
)

const successBody = `{"choices":[{"message":{"content":"{\"total_count\":2,\"unripe_count\":1,\"ripe_count\":1,\"overripe_count\":0,\"detailed_analysis\":\"two bananas\"}"}}]}`

func testImage() *entity.ImageBuffer {
	return &entity.ImageBuffer{
		Origin: entity.OriginUpload,
		MIME:   entity.MIMEJPEG,
		Data:   []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02},
	}
}

// roundTripFunc lets tests observe outbound requests without a listener.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestRemoteAnalyzer_Success(t *testing.T) {
	var (
		gotReq  *http.Request
		gotBody chatRequestProbe
		decErr  error
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		decErr = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(successBody))
	}))
	defer server.Close()

	a := NewRemoteAnalyzer(RemoteConfig{Endpoint: server.URL + "/", APIKey: "secret", Temperature: 0.2})
	report, err := a.Analyze(context.Background(), testImage())
	require.NoError(t, err)
	require.NotNil(t, report)
	require.Equal(t, 2, report.TotalCount)
	require.Equal(t, 1, report.UnripeCount)
	require.Equal(t, 1, report.RipeCount)
	require.Equal(t, 0, report.OverripeCount)
	require.Equal(t, "two bananas", report.DetailedAnalysis)

	require.NotNil(t, gotReq)
	require.NoError(t, decErr)
	require.Equal(t, http.MethodPost, gotReq.Method)
	require.Equal(t, "/openai/deployments/gpt-4o/chat/completions", gotReq.URL.Path)
	require.Equal(t, DefaultAPIVersion, gotReq.URL.Query().Get("api-version"))
	require.Equal(t, "application/json", gotReq.Header.Get("Content-Type"))
	require.Equal(t, "secret", gotReq.Header.Get("api-key"))

	require.Len(t, gotBody.Messages, 2)
	require.Equal(t, "system", gotBody.Messages[0].Role)
	require.Equal(t, "user", gotBody.Messages[1].Role)
	require.InDelta(t, 0.2, gotBody.Temperature, 1e-9)
	require.Equal(t, DefaultMaxTokens, gotBody.MaxTokens)
	require.Equal(t, "json_object", gotBody.ResponseFormat.Type)

	var parts []contentPart
	require.NoError(t, json.Unmarshal(gotBody.Messages[1].Content, &parts))
	require.Len(t, parts, 2)
	require.Equal(t, "text", parts[0].Type)
	require.Contains(t, parts[0].Text, "overripe")
	require.Equal(t, "image_url", parts[1].Type)
	require.Equal(t, testImage().DataURL(), parts[1].ImageURL.URL)
}

// chatRequestProbe mirrors chatRequest with raw message content.
type chatRequestProbe struct {
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat responseFormat `json:"response_format"`
}

func TestRemoteAnalyzer_MissingConfigSkipsNetwork(t *testing.T) {
	var calls int32
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return jsonResponse(http.StatusOK, successBody), nil
	})}

	for _, cfg := range []RemoteConfig{
		{APIKey: "secret"},
		{Endpoint: "myhost.example.com"},
		{},
	} {
		a := NewRemoteAnalyzer(cfg, WithHTTPClient(client))
		report, err := a.Analyze(context.Background(), testImage())
		require.Nil(t, report)
		require.ErrorIs(t, err, entity.ErrConfiguration)
	}
	require.Zero(t, atomic.LoadInt32(&calls))
}

func TestRemoteAnalyzer_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	a := NewRemoteAnalyzer(RemoteConfig{Endpoint: server.URL, APIKey: "secret"})
	report, err := a.Analyze(context.Background(), testImage())
	require.Nil(t, report)
	require.ErrorIs(t, err, entity.ErrProtocol)

	var ae *entity.AnalysisError
	require.True(t, errors.As(err, &ae))
	require.Equal(t, http.StatusInternalServerError, ae.StatusCode)
	require.Contains(t, ae.Error(), "upstream exploded")
}

func TestRemoteAnalyzer_ContentNotJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"not json"}}]}`))
	}))
	defer server.Close()

	a := NewRemoteAnalyzer(RemoteConfig{Endpoint: server.URL, APIKey: "secret"})
	report, err := a.Analyze(context.Background(), testImage())
	require.Nil(t, report)
	require.ErrorIs(t, err, entity.ErrParse)
}

func TestRemoteAnalyzer_EnvelopeNotJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	}))
	defer server.Close()

	a := NewRemoteAnalyzer(RemoteConfig{Endpoint: server.URL, APIKey: "secret"})
	report, err := a.Analyze(context.Background(), testImage())
	require.Nil(t, report)
	require.ErrorIs(t, err, entity.ErrParse)
}

func TestRemoteAnalyzer_InconsistentReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"total_count\":7,\"unripe_count\":1,\"ripe_count\":1,\"overripe_count\":0}"}}]}`))
	}))
	defer server.Close()

	a := NewRemoteAnalyzer(RemoteConfig{Endpoint: server.URL, APIKey: "secret"})
	report, err := a.Analyze(context.Background(), testImage())
	require.Nil(t, report)
	require.ErrorIs(t, err, entity.ErrParse)
}

func TestRemoteAnalyzer_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	a := NewRemoteAnalyzer(RemoteConfig{Endpoint: endpoint, APIKey: "secret"})
	report, err := a.Analyze(context.Background(), testImage())
	require.Nil(t, report)
	require.ErrorIs(t, err, entity.ErrTransport)
}

func TestRemoteAnalyzer_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	a := NewRemoteAnalyzer(RemoteConfig{Endpoint: server.URL, APIKey: "secret", Timeout: 50 * time.Millisecond})
	report, err := a.Analyze(context.Background(), testImage())
	require.Nil(t, report)
	require.ErrorIs(t, err, entity.ErrTransport)
}

func TestRemoteAnalyzer_EmptyImage(t *testing.T) {
	a := NewRemoteAnalyzer(RemoteConfig{Endpoint: "myhost", APIKey: "secret"})
	report, err := a.Analyze(context.Background(), &entity.ImageBuffer{})
	require.Nil(t, report)
	require.ErrorIs(t, err, entity.ErrDecode)
}

func TestNormalizeEndpoint(t *testing.T) {
	require.Equal(t, "https://myhost.example.com", NormalizeEndpoint("myhost.example.com/"))
	require.Equal(t, "https://myhost.example.com", NormalizeEndpoint("  https://myhost.example.com// "))
	require.Equal(t, "http://localhost:8080", NormalizeEndpoint("http://localhost:8080/"))
	require.Equal(t, "", NormalizeEndpoint("  "))
}

func TestRemoteAnalyzer_RequestGoesToNormalizedEndpoint(t *testing.T) {
	var gotURL string
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		gotURL = r.URL.String()
		return jsonResponse(http.StatusOK, successBody), nil
	})}

	a := NewRemoteAnalyzer(RemoteConfig{
		Endpoint:   "myhost.example.com/",
		APIKey:     "secret",
		Model:      "vision-deploy",
		APIVersion: "2024-06-01",
	}, WithHTTPClient(client))

	report, err := a.Analyze(context.Background(), testImage())
	require.NoError(t, err)
	require.Equal(t, 2, report.TotalCount)
	require.Equal(t, "https://myhost.example.com/openai/deployments/vision-deploy/chat/completions?api-version=2024-06-01", gotURL)
	require.True(t, strings.HasPrefix(gotURL, "https://myhost.example.com/"))
}
