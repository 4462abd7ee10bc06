package generate

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/genkit-ai/genkit-go/pkg/inference/model"
	"github.com/genkit-ai/genkit-go/pkg/registry"
)

// GenerateJSON is the serialization-boundary variant of Generate: it parses
// the raw document into a GenerateRequest, delegates, and serializes the
// resulting response. Malformed input or output is fatal. Failures that are
// not already part of the taxonomy are wrapped with a generic message, the
// original error retained as cause.
func (o *Orchestrator) GenerateJSON(ctx context.Context, raw json.RawMessage) (json.RawMessage, error) {
	var req model.GenerateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, errors.Wrap(err, "failed to parse generate request")
	}

	resp, err := o.Generate(ctx, &req, nil)
	if err != nil {
		if isClassified(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, "generation failed")
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize model response")
	}
	return out, nil
}

func isClassified(err error) bool {
	if errors.Is(err, ErrNilRequest) || errors.Is(err, ErrEmptyModelName) {
		return true
	}
	var notFound *registry.NotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	var limitErr *LimitExceededError
	return errors.As(err, &limitErr)
}
