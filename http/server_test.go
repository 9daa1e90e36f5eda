package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/clarifyr"
	clarifyrhttp "github.com/fwojciec/clarifyr/http"
	"github.com/fwojciec/clarifyr/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer returns a server that authenticates "good-token" as alice
// and runs explain requests through fn.
func newTestServer(t *testing.T, fn func(ctx context.Context, identity clarifyr.Identity, req *clarifyr.ExplainRequest) (*clarifyr.ExplanationResult, error)) *httptest.Server {
	t.Helper()

	s := clarifyrhttp.NewServer()
	s.IdentityService = &mock.IdentityService{
		AuthenticateFn: func(ctx context.Context, token string) (*clarifyr.Identity, error) {
			if token != "good-token" {
				return nil, clarifyr.Errorf(clarifyr.EUNAUTHORIZED, "invalid token")
			}
			return &clarifyr.Identity{ID: "u-1", Email: "alice@example.com"}, nil
		},
	}
	s.ExplainService = &mock.ExplainService{ExplainFn: fn}

	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return ts
}

func postExplain(t *testing.T, url, token, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, url+"/api/explain", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func unexpectedExplain(t *testing.T) func(context.Context, clarifyr.Identity, *clarifyr.ExplainRequest) (*clarifyr.ExplanationResult, error) {
	return func(context.Context, clarifyr.Identity, *clarifyr.ExplainRequest) (*clarifyr.ExplanationResult, error) {
		t.Error("explain service should not be called")
		return nil, errors.New("unexpected call")
	}
}

func TestServer_Explain(t *testing.T) {
	t.Parallel()

	t.Run("returns the explanation for an authenticated caller", func(t *testing.T) {
		t.Parallel()

		reqs := make(chan clarifyr.ExplainRequest, 1)
		ts := newTestServer(t, func(ctx context.Context, identity clarifyr.Identity, req *clarifyr.ExplainRequest) (*clarifyr.ExplanationResult, error) {
			reqs <- *req
			assert.NotEmpty(t, clarifyr.RequestIDFromContext(ctx))
			return &clarifyr.ExplanationResult{
				Success:          true,
				ExplainedForUser: identity.Label(),
				Source:           req.Source(),
				Explanation:      "Plants make food from light.",
			}, nil
		})

		resp := postExplain(t, ts.URL, "good-token", `{"text":"Photosynthesis converts light into energy."}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		body := decodeBody(t, resp)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "alice@example.com", body["explainedForUser"])
		assert.Equal(t, "text", body["source"])
		assert.Equal(t, "Plants make food from light.", body["explanation"])
		assert.Equal(t, "Photosynthesis converts light into energy.", (<-reqs).Text)
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, unexpectedExplain(t))

		resp := postExplain(t, ts.URL, "", `{"text":"hi"}`)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Unauthorized: No token provided", decodeBody(t, resp)["error"])
	})

	t.Run("rejects a non-bearer authorization header", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, unexpectedExplain(t))

		req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/explain", strings.NewReader(`{"text":"hi"}`))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects an invalid token", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, unexpectedExplain(t))

		resp := postExplain(t, ts.URL, "bad-token", `{"text":"hi"}`)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Unauthorized: Invalid token", decodeBody(t, resp)["error"])
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, unexpectedExplain(t))

		resp := postExplain(t, ts.URL, "good-token", `{"text":`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "invalid JSON body", decodeBody(t, resp)["error"])
	})

	t.Run("rejects an oversized body", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, unexpectedExplain(t))

		big := fmt.Sprintf(`{"text":"%s"}`, strings.Repeat("a", clarifyrhttp.MaxRequestBodyBytes+1))
		resp := postExplain(t, ts.URL, "good-token", big)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("maps invalid errors to 400 with the message", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, func(context.Context, clarifyr.Identity, *clarifyr.ExplainRequest) (*clarifyr.ExplanationResult, error) {
			return nil, clarifyr.Errorf(clarifyr.EINVALID, "no content to explain")
		})

		resp := postExplain(t, ts.URL, "good-token", `{"text":"   "}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "no content to explain", decodeBody(t, resp)["error"])
	})

	t.Run("maps fetch errors to 400 with details", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, func(context.Context, clarifyr.Identity, *clarifyr.ExplainRequest) (*clarifyr.ExplanationResult, error) {
			return nil, clarifyr.WrapError(errors.New("dial tcp: no such host"), clarifyr.EFETCH, "failed to fetch https://unreachable.invalid")
		})

		resp := postExplain(t, ts.URL, "good-token", `{"url":"https://unreachable.invalid"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Failed to fetch content from URL", body["error"])
		assert.Contains(t, body["details"], "no such host")
	})

	t.Run("hides model failure details", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, func(context.Context, clarifyr.Identity, *clarifyr.ExplainRequest) (*clarifyr.ExplanationResult, error) {
			return nil, clarifyr.WrapError(errors.New("quota exceeded for key sk-123"), clarifyr.EMODEL, "model call failed")
		})

		resp := postExplain(t, ts.URL, "good-token", `{"text":"hi"}`)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"error":"Failed to generate explanation"}`, string(raw))
	})

	t.Run("maps identity provider outages to 500", func(t *testing.T) {
		t.Parallel()

		s := clarifyrhttp.NewServer()
		s.IdentityService = &mock.IdentityService{
			AuthenticateFn: func(context.Context, string) (*clarifyr.Identity, error) {
				return nil, errors.New("auth provider returned 502")
			},
		}
		s.ExplainService = &mock.ExplainService{ExplainFn: unexpectedExplain(t)}
		ts := httptest.NewServer(s)
		defer ts.Close()

		resp := postExplain(t, ts.URL, "good-token", `{"text":"hi"}`)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("rejects other methods", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, unexpectedExplain(t))

		resp, err := http.Get(ts.URL + "/api/explain")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestServer_Routes(t *testing.T) {
	t.Parallel()

	t.Run("index reports the service is running", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, unexpectedExplain(t))

		resp, err := http.Get(ts.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(raw), "clarifyr is running")
	})

	t.Run("healthz returns ok", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, unexpectedExplain(t))

		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", decodeBody(t, resp)["status"])
	})

	t.Run("unknown paths return 404", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, unexpectedExplain(t))

		resp, err := http.Get(ts.URL + "/nope")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("answers CORS preflight", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, unexpectedExplain(t))

		req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/explain", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "POST", resp.Header.Get("Access-Control-Allow-Methods"))
		assert.Contains(t, strings.ToLower(resp.Header.Get("Access-Control-Allow-Headers")), "authorization")
		assert.Equal(t, strconv.Itoa(clarifyrhttp.CORSMaxAge), resp.Header.Get("Access-Control-Max-Age"))
		assert.Contains(t, resp.Header.Get("Vary"), "Origin")
	})

	t.Run("does not approve preflight for other methods", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, unexpectedExplain(t))

		req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/explain", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://example.com")
		req.Header.Set("Access-Control-Request-Method", "DELETE")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("adds CORS headers to cross-origin requests", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, unexpectedExplain(t))

		req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://example.com")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Contains(t, strings.ToLower(resp.Header.Get("Access-Control-Expose-Headers")), "x-request-id")
		assert.Contains(t, resp.Header.Get("Vary"), "Origin")
	})
}

func TestServer_Serve(t *testing.T) {
	t.Parallel()

	s := clarifyrhttp.NewServer()
	s.Addr = "127.0.0.1:0"
	require.NoError(t, s.Open())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	resp, err := http.Get(s.URL() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
