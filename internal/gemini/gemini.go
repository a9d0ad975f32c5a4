package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/coursemarketer/internal/providers"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/status"
)

// Gemini is a structured text provider for Google Gemini
type Gemini struct {
	opts []option.ClientOption
}

// New returns a new Gemini provider. Extra client options are appended after
// the per-call API key, which is how tests point it at a fake endpoint.
func New(opts ...option.ClientOption) *Gemini {
	return &Gemini{opts: opts}
}

// GenerateJSON asks Gemini for JSON text conforming to config.Schema
func (g *Gemini) GenerateJSON(ctx context.Context, config providers.Config) (string, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(config.APIKey)}, g.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(config.Model)
	if config.Temperature > 0 {
		model.SetTemperature(float32(config.Temperature))
	}
	if config.Schema != nil {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = toSchema(config.Schema)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(config.Prompt))
	if err != nil {
		return "", DecodeError(fmt.Errorf("failed to generate content: %w", err))
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}

func toSchema(s *providers.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        schemaType(s.Type),
		Description: s.Description,
		Items:       toSchema(s.Items),
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toSchema(prop)
		}
	}
	return out
}

func schemaType(t string) genai.Type {
	switch t {
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

// DecodeError converts googleapi and gRPC status errors into a
// *providers.Error. Anything else is returned unchanged.
func DecodeError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		pe := &providers.Error{HTTPStatus: gerr.Code, Message: gerr.Message, Err: err}
		if s, ok := status.FromError(err); ok && s.Code() != 0 {
			pe.Status = canonicalStatus(s.Code().String())
		}
		return pe
	}

	if s, ok := status.FromError(err); ok {
		return &providers.Error{
			HTTPStatus: httpStatusForCode(s.Code().String()),
			Status:     canonicalStatus(s.Code().String()),
			Message:    s.Message(),
			Err:        err,
		}
	}

	return err
}

// canonicalStatus turns "PermissionDenied" into "PERMISSION_DENIED"
func canonicalStatus(code string) string {
	var sb strings.Builder
	for i, r := range code {
		if i > 0 && r >= 'A' && r <= 'Z' {
			sb.WriteByte('_')
		}
		sb.WriteRune(r)
	}
	return strings.ToUpper(sb.String())
}

func httpStatusForCode(code string) int {
	switch code {
	case "InvalidArgument", "FailedPrecondition", "OutOfRange":
		return 400
	case "Unauthenticated":
		return 401
	case "PermissionDenied":
		return 403
	case "NotFound":
		return 404
	case "ResourceExhausted":
		return 429
	case "Unavailable":
		return 503
	case "DeadlineExceeded":
		return 504
	default:
		return 500
	}
}
