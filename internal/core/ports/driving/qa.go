package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// QAService answers questions from the indexed documents.
type QAService interface {
	// Ask retrieves the topK nearest chunks and generates an answer from them.
	// Generation failures are reported inside the answer text, not as errors.
	Ask(ctx context.Context, question string, topK int) (*domain.Answer, error)
}
