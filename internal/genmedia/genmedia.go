// Package genmedia generates slide art and short videos with the Gemini API.
package genmedia

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lehigh-university-libraries/coursemarketer/internal/providers"
	"google.golang.org/genai"
)

// Client is a media provider backed by google.golang.org/genai
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at a different API endpoint
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets the HTTP client used for API calls
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New returns a new media client
func New(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) newClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}

// GenerateImage returns the first inline image of the model's response
func (c *Client) GenerateImage(ctx context.Context, config providers.ImageConfig) (providers.Image, error) {
	client, err := c.newClient(ctx, config.APIKey)
	if err != nil {
		return providers.Image{}, err
	}

	genCfg := &genai.GenerateContentConfig{}
	if config.AspectRatio != "" {
		genCfg.ImageConfig = &genai.ImageConfig{AspectRatio: config.AspectRatio}
	}

	resp, err := client.Models.GenerateContent(ctx, config.Model, genai.Text(config.Prompt), genCfg)
	if err != nil {
		return providers.Image{}, DecodeError(fmt.Errorf("generate image: %w", err))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return providers.Image{}, errors.New("no image candidates returned")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return providers.Image{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data}, nil
		}
	}
	return providers.Image{}, errors.New("no image generated")
}

// StartVideo submits a video generation request
func (c *Client) StartVideo(ctx context.Context, config providers.VideoConfig) (providers.VideoOperation, error) {
	client, err := c.newClient(ctx, config.APIKey)
	if err != nil {
		return providers.VideoOperation{}, err
	}

	op, err := client.Models.GenerateVideos(ctx, config.Model, config.Prompt, nil, &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		Resolution:     config.Resolution,
		AspectRatio:    config.AspectRatio,
	})
	if err != nil {
		return providers.VideoOperation{}, DecodeError(fmt.Errorf("generate videos: %w", err))
	}
	return toOperation(op), nil
}

// PollVideo refreshes a video operation
func (c *Client) PollVideo(ctx context.Context, apiKey string, op providers.VideoOperation) (providers.VideoOperation, error) {
	client, err := c.newClient(ctx, apiKey)
	if err != nil {
		return providers.VideoOperation{}, err
	}

	refreshed, err := client.Operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: op.Name}, nil)
	if err != nil {
		return providers.VideoOperation{}, DecodeError(fmt.Errorf("get videos operation: %w", err))
	}
	return toOperation(refreshed), nil
}

func toOperation(op *genai.GenerateVideosOperation) providers.VideoOperation {
	if op == nil {
		return providers.VideoOperation{}
	}
	out := providers.VideoOperation{Name: op.Name, Done: op.Done}
	if len(op.Error) > 0 {
		out.Err = operationError(op.Error)
	}
	if op.Response != nil {
		for _, v := range op.Response.GeneratedVideos {
			if v != nil && v.Video != nil && v.Video.URI != "" {
				out.URIs = append(out.URIs, v.Video.URI)
			}
		}
	}
	return out
}

// operationError decodes the google.rpc.Status map of a failed operation
func operationError(m map[string]any) error {
	pe := &providers.Error{}
	if code, ok := m["code"].(float64); ok {
		pe.HTTPStatus = httpStatusForRPC(int(code))
		pe.Status = rpcStatusName(int(code))
	}
	if msg, ok := m["message"].(string); ok {
		pe.Message = msg
	}
	return pe
}

// DecodeError converts genai.APIError into *providers.Error
func DecodeError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &providers.Error{HTTPStatus: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &providers.Error{HTTPStatus: apiErrPtr.Code, Status: apiErrPtr.Status, Message: apiErrPtr.Message, Err: err}
	}
	return err
}

var rpcStatusNames = map[int]string{
	3:  "INVALID_ARGUMENT",
	5:  "NOT_FOUND",
	7:  "PERMISSION_DENIED",
	8:  "RESOURCE_EXHAUSTED",
	9:  "FAILED_PRECONDITION",
	13: "INTERNAL",
	14: "UNAVAILABLE",
	16: "UNAUTHENTICATED",
}

func rpcStatusName(code int) string {
	if name, ok := rpcStatusNames[code]; ok {
		return name
	}
	return "UNKNOWN"
}

func httpStatusForRPC(code int) int {
	switch code {
	case 3, 9:
		return http.StatusBadRequest
	case 16:
		return http.StatusUnauthorized
	case 7:
		return http.StatusForbidden
	case 5:
		return http.StatusNotFound
	case 8:
		return http.StatusTooManyRequests
	case 14:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
