package extract

import (
	"context"
)

// TextExtractor is Stage 1: PDF bytes -> positioned fragments.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (*Document, error)
}
