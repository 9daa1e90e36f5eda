package main_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/fwojciec/clarifyr"
	main "github.com/fwojciec/clarifyr/cmd/clarifyr"
	"github.com/fwojciec/clarifyr/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubExplainService() *mock.ExplainService {
	return &mock.ExplainService{
		ExplainFn: func(_ context.Context, identity clarifyr.Identity, req *clarifyr.ExplainRequest) (*clarifyr.ExplanationResult, error) {
			return &clarifyr.ExplanationResult{
				Success:          true,
				ExplainedForUser: identity.Label(),
				Source:           req.Source(),
				Explanation:      "explained: " + req.Text,
			}, nil
		},
	}
}

func TestMain_Run_Explain(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.Env = map[string]string{}
	m.ExplainService = stubExplainService()

	stdout := &bytes.Buffer{}
	err := m.Run(context.Background(), []string{"explain", "--text", "hello", "--user", "alice"}, stdout, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, "explained: hello\n", stdout.String())
}

func TestMain_Run_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.Env = map[string]string{"CLARIFYR_MAX_CONTENT_LENGTH": "0"}
	m.ExplainService = stubExplainService()

	err := m.Run(context.Background(), []string{"explain", "--text", "hello"}, &bytes.Buffer{}, &bytes.Buffer{})

	require.Error(t, err)
	assert.Equal(t, clarifyr.EINVALID, clarifyr.ErrorCode(err))
}

func TestMain_Run_RequiresModelAPIKey(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.Env = map[string]string{}

	stderr := &bytes.Buffer{}
	err := m.Run(context.Background(), []string{"explain", "--text", "hello"}, &bytes.Buffer{}, stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
	assert.Contains(t, stderr.String(), "Hint")
}

func TestMain_Run_ExplainUsageErrorBeforeWiring(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.Env = map[string]string{}

	stderr := &bytes.Buffer{}
	err := m.Run(context.Background(), []string{"explain"}, &bytes.Buffer{}, stderr)

	require.Error(t, err)
	assert.Equal(t, clarifyr.EINVALID, clarifyr.ErrorCode(err))
	assert.Contains(t, stderr.String(), "--url or --text")
	assert.NotContains(t, stderr.String(), "Hint")
}

func TestMain_Run_ServeRequiresSupabase(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.Env = map[string]string{}
	m.ExplainService = stubExplainService()

	stderr := &bytes.Buffer{}
	err := m.Run(context.Background(), []string{"serve"}, &bytes.Buffer{}, stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_URL")
}

func TestMain_Run_ServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.Env = map[string]string{}
	m.ExplainService = stubExplainService()
	m.IdentityService = &mock.IdentityService{
		AuthenticateFn: func(context.Context, string) (*clarifyr.Identity, error) {
			return &clarifyr.Identity{ID: "u-1"}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stdout := &bytes.Buffer{}
	err := m.Run(ctx, []string{"serve", "--addr", "127.0.0.1:0"}, stdout, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "clarifyr listening on http://127.0.0.1:")
}
