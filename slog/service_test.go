package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fwojciec/clarifyr"
	"github.com/fwojciec/clarifyr/mock"
	clarifyrslog "github.com/fwojciec/clarifyr/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingExplainService_Explain(t *testing.T) {
	t.Parallel()

	identity := clarifyr.Identity{ID: "u1", Email: "ada@example.com"}

	t.Run("logs success at info level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.ExplainService{
			ExplainFn: func(ctx context.Context, identity clarifyr.Identity, req *clarifyr.ExplainRequest) (*clarifyr.ExplanationResult, error) {
				return &clarifyr.ExplanationResult{Success: true, Source: clarifyr.SourceText}, nil
			},
		}

		svc := clarifyrslog.NewLoggingExplainService(inner, logger)
		ctx := clarifyr.NewContextWithRequestID(context.Background(), "req-7")
		result, err := svc.Explain(ctx, identity, &clarifyr.ExplainRequest{Text: "hi"})

		require.NoError(t, err)
		assert.True(t, result.Success)
		output := buf.String()
		assert.Contains(t, output, "level=INFO")
		assert.Contains(t, output, "request_id=req-7")
		assert.Contains(t, output, "user=ada@example.com")
		assert.Contains(t, output, "source=text")
	})

	t.Run("logs fetch failures at warn level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.ExplainService{
			ExplainFn: func(ctx context.Context, identity clarifyr.Identity, req *clarifyr.ExplainRequest) (*clarifyr.ExplanationResult, error) {
				return nil, clarifyr.Errorf(clarifyr.EFETCH, "HTTP 404 for https://example.com")
			},
		}

		svc := clarifyrslog.NewLoggingExplainService(inner, logger)
		_, err := svc.Explain(context.Background(), identity, &clarifyr.ExplainRequest{URL: "https://example.com"})

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "level=WARN")
		assert.Contains(t, output, "source=url")
		assert.Contains(t, output, "code=fetch")
	})

	t.Run("logs model failures at error level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.ExplainService{
			ExplainFn: func(ctx context.Context, identity clarifyr.Identity, req *clarifyr.ExplainRequest) (*clarifyr.ExplanationResult, error) {
				return nil, clarifyr.Errorf(clarifyr.EMODEL, "gemini request failed")
			},
		}

		svc := clarifyrslog.NewLoggingExplainService(inner, logger)
		_, err := svc.Explain(context.Background(), identity, &clarifyr.ExplainRequest{Text: "hi"})

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "level=ERROR")
		assert.Contains(t, output, "code=model")
	})
}
