package embedding

import "context"

// Provider generates a dense vector for a piece of text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions reports the width of the vectors this provider emits.
	Dimensions() int
}
