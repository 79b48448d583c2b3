package gemini

import (
	"context"

	"google.golang.org/genai"
)

// Cache stores raw model responses keyed by request.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, data []byte)
}

// generator is the subset of *genai.Models used by the client.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}
