package llm

import "context"

// Image is an inline image part attached to a request. Format is the bare
// format suffix (e.g. "png"), not a full MIME type.
type Image struct {
	Format string
	Data   []byte
}

// Request carries one generation call: an optional system prompt, the user
// prompt, and optional inline images for vision models.
type Request struct {
	System string
	Prompt string
	Images []Image
}

// Response is the text returned by a provider.
type Response struct {
	Text string
}

// Provider defines the interface for generative model backends
type Provider interface {
	// Generate sends a request to the model and returns its text response
	Generate(ctx context.Context, req Request) (Response, error)
	// Close closes the provider and releases resources
	Close() error
}
