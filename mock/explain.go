package mock

import (
	"context"

	"github.com/fwojciec/clarifyr"
)

var _ clarifyr.ExplainService = (*ExplainService)(nil)

// ExplainService is a mock implementation of clarifyr.ExplainService.
type ExplainService struct {
	ExplainFn func(ctx context.Context, identity clarifyr.Identity, req *clarifyr.ExplainRequest) (*clarifyr.ExplanationResult, error)
}

func (s *ExplainService) Explain(ctx context.Context, identity clarifyr.Identity, req *clarifyr.ExplainRequest) (*clarifyr.ExplanationResult, error) {
	return s.ExplainFn(ctx, identity, req)
}
