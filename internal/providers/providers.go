package providers

import (
	"context"
	"fmt"
)

// Schema is a provider-neutral description of the JSON shape a structured
// request must return.
type Schema struct {
	Type        string             `json:"type"` // "array", "object", "string"
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Config represents a single structured text request
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	Prompt      string
	Schema      *Schema
}

// ImageConfig represents a single image request
type ImageConfig struct {
	APIKey      string
	Model       string
	Prompt      string
	AspectRatio string
}

// Image is raw image data returned by a provider
type Image struct {
	MIMEType string
	Data     []byte
}

// VideoConfig represents a video generation request
type VideoConfig struct {
	APIKey      string
	Model       string
	Prompt      string
	Resolution  string
	AspectRatio string
}

// VideoOperation is a handle on a long-running video generation
type VideoOperation struct {
	Name string
	Done bool
	URIs []string
	// Err is set when the provider finished the operation with an error
	Err error
}

// TextProvider generates schema-constrained JSON text
type TextProvider interface {
	GenerateJSON(ctx context.Context, config Config) (string, error)
}

// MediaProvider generates images and videos
type MediaProvider interface {
	GenerateImage(ctx context.Context, config ImageConfig) (Image, error)
	StartVideo(ctx context.Context, config VideoConfig) (VideoOperation, error)
	PollVideo(ctx context.Context, apiKey string, op VideoOperation) (VideoOperation, error)
}

// Error is a provider failure decoded from whatever SDK produced it.
type Error struct {
	HTTPStatus int    // 0 when unknown
	Status     string // canonical status, e.g. "PERMISSION_DENIED"
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("provider error %d %s: %s", e.HTTPStatus, e.Status, e.Message)
	}
	return fmt.Sprintf("provider error %d: %s", e.HTTPStatus, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}
