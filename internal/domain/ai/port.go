package ai

import (
	"context"

	"github.com/bryanwahyu/image-identifier/internal/domain/analysis"
)

// Invoker performs one call to the external vision model.
type Invoker interface {
	Invoke(ctx context.Context, req analysis.ModelRequest) (analysis.RawOutput, error)
	// Model returns the model name used for audit records.
	Model() string
}
