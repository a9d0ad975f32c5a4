// Package gateway wraps every call to the generative-AI provider and turns
// provider responses into typed results and classified errors.
package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/lehigh-university-libraries/coursemarketer/internal/clock"
	"github.com/lehigh-university-libraries/coursemarketer/internal/config"
	"github.com/lehigh-university-libraries/coursemarketer/internal/models"
	"github.com/lehigh-university-libraries/coursemarketer/internal/providers"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// PlaceholderKey is sent when no credential is configured so that the
	// provider's own rejection drives the AUTH_CONFIG path.
	PlaceholderKey = "missing-api-key"

	StrategyCount = 3
	SlideCount    = 5

	textTemperature = 0.8
)

var tracer = otel.Tracer("github.com/lehigh-university-libraries/coursemarketer/internal/gateway")

// KeySource supplies the active credential
type KeySource interface {
	APIKey() string
}

type Gateway struct {
	text    providers.TextProvider
	media   providers.MediaProvider
	keys    KeySource
	prompts *Prompts
	clock   clock.Clock

	models  config.ModelsConfig
	video   config.VideoConfig
	content config.ContentConfig
}

type Option func(*Gateway)

func WithClock(c clock.Clock) Option {
	return func(g *Gateway) { g.clock = c }
}

func WithPrompts(p *Prompts) Option {
	return func(g *Gateway) { g.prompts = p }
}

func New(cfg *config.Config, text providers.TextProvider, media providers.MediaProvider, keys KeySource, opts ...Option) *Gateway {
	g := &Gateway{
		text:    text,
		media:   media,
		keys:    keys,
		prompts: DefaultPrompts(),
		clock:   clock.Real{},
		models:  cfg.Models,
		video:   cfg.Video,
		content: cfg.Content,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// apiKey snapshots the active credential for one call
func (g *Gateway) apiKey() string {
	if g.keys != nil {
		if key := strings.TrimSpace(g.keys.APIKey()); key != "" {
			return key
		}
	}
	slog.Warn("No Gemini API key configured, the provider will reject the request")
	return PlaceholderKey
}

func (g *Gateway) params(course models.CourseInfo, pp models.PainPoint) PromptParams {
	year := g.clock.Now().Year()
	return PromptParams{
		Course:      course,
		PainPoint:   pp,
		Keywords:    strings.Join(pp.SEOKeywords, ", "),
		CurrentYear: year,
		NextYear:    year + 1,
		StaleRange:  fmt.Sprintf("%d-%d", year-3, year-1),
		Platform:    g.content.PlatformName,
		PlatformZH:  g.content.PlatformNameZH,
		Market:      g.content.Market,
		Language:    g.content.Language,
	}
}

// AnalyzeStrategies proposes exactly three marketing angles for a course
func (g *Gateway) AnalyzeStrategies(ctx context.Context, course models.CourseInfo) (_ []models.PainPoint, err error) {
	const op = "AnalyzeStrategies"
	ctx, span := startSpan(ctx, op)
	defer func() { endSpan(span, err) }()

	prompt, err := g.prompts.render("strategies", g.params(course, models.PainPoint{}))
	if err != nil {
		return nil, newError(op, KindGeneric, err)
	}

	var painPoints []models.PainPoint
	if err := g.generateJSON(ctx, op, prompt, painPointsSchema, &painPoints); err != nil {
		return nil, err
	}
	if len(painPoints) != StrategyCount {
		return nil, newError(op, KindResponseFormat, fmt.Errorf("expected %d pain points, got %d", StrategyCount, len(painPoints)))
	}

	seen := make(map[string]bool, len(painPoints))
	for i := range painPoints {
		pp := &painPoints[i]
		pp.ID = strings.TrimSpace(pp.ID)
		if pp.ID == "" || seen[pp.ID] {
			pp.ID = fmt.Sprintf("angle-%d", i+1)
		}
		seen[pp.ID] = true
		if err := models.Validate(*pp); err != nil {
			return nil, newError(op, KindResponseFormat, fmt.Errorf("pain point %d: %w", i+1, err))
		}
	}

	slog.Info("Analyzed course strategies", "course", course.Title, "count", len(painPoints))
	return painPoints, nil
}

// GenerateSlideContent writes the text of a 5-slide carousel
func (g *Gateway) GenerateSlideContent(ctx context.Context, course models.CourseInfo, pp models.PainPoint) (_ []models.SlideContent, err error) {
	const op = "GenerateSlideContent"
	ctx, span := startSpan(ctx, op)
	defer func() { endSpan(span, err) }()

	prompt, err := g.prompts.render("slides", g.params(course, pp))
	if err != nil {
		return nil, newError(op, KindGeneric, err)
	}

	var slides []models.SlideContent
	if err := g.generateJSON(ctx, op, prompt, slidesSchema, &slides); err != nil {
		return nil, err
	}
	if len(slides) != SlideCount {
		return nil, newError(op, KindResponseFormat, fmt.Errorf("expected %d slides, got %d", SlideCount, len(slides)))
	}
	for i, s := range slides {
		if err := models.Validate(s); err != nil {
			return nil, newError(op, KindResponseFormat, fmt.Errorf("slide %d: %w", i+1, err))
		}
	}
	return slides, nil
}

// GenerateVideoScript writes a short-video script of AI-determined length
func (g *Gateway) GenerateVideoScript(ctx context.Context, course models.CourseInfo, pp models.PainPoint) (_ []models.VideoScriptScene, err error) {
	const op = "GenerateVideoScript"
	ctx, span := startSpan(ctx, op)
	defer func() { endSpan(span, err) }()

	prompt, err := g.prompts.render("script", g.params(course, pp))
	if err != nil {
		return nil, newError(op, KindGeneric, err)
	}

	var scenes []models.VideoScriptScene
	if err := g.generateJSON(ctx, op, prompt, scriptSchema, &scenes); err != nil {
		return nil, err
	}
	if len(scenes) == 0 {
		return nil, newError(op, KindResponseFormat, errors.New("script has no scenes"))
	}
	for i, s := range scenes {
		if err := models.Validate(s); err != nil {
			return nil, newError(op, KindResponseFormat, fmt.Errorf("scene %d: %w", i+1, err))
		}
	}
	return scenes, nil
}

// GenerateSlideImage returns square background art as a data URI. Every
// failure is IMAGE_UNAVAILABLE; callers fall back to a default visual.
func (g *Gateway) GenerateSlideImage(ctx context.Context, visualPrompt string) (_ string, err error) {
	const op = "GenerateSlideImage"
	ctx, span := startSpan(ctx, op)
	defer func() { endSpan(span, err) }()

	prompt, err := g.prompts.render("slide_image", PromptParams{VisualPrompt: visualPrompt})
	if err != nil {
		return "", newError(op, KindImageUnavailable, err)
	}

	img, err := g.media.GenerateImage(ctx, providers.ImageConfig{
		APIKey:      g.apiKey(),
		Model:       g.models.Image,
		Prompt:      prompt,
		AspectRatio: g.video.ImageAspect,
	})
	if err != nil {
		slog.Warn("Image generation failed, likely due to tier limits", "err", err)
		return "", newError(op, KindImageUnavailable, err)
	}
	if len(img.Data) == 0 {
		return "", newError(op, KindImageUnavailable, errors.New("no image generated"))
	}

	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data), nil
}

// DefaultVideoPrompt is used when the user requests a video without a prompt
func (g *Gateway) DefaultVideoPrompt(pp models.PainPoint) string {
	prompt, err := g.prompts.render("video_default", PromptParams{PainPoint: pp})
	if err != nil {
		return "Professional cinematic shot representing: " + pp.Title
	}
	return prompt
}

// GenerateVideo submits a video request and polls until the provider
// finishes or the poll budget runs out. The returned URI carries the
// credential used for the request as its key query parameter.
func (g *Gateway) GenerateVideo(ctx context.Context, prompt string) (_ models.GeneratedVideo, err error) {
	const op = "GenerateVideo"
	ctx, span := startSpan(ctx, op)
	defer func() { endSpan(span, err) }()

	key := g.apiKey()
	operation, err := g.media.StartVideo(ctx, providers.VideoConfig{
		APIKey:      key,
		Model:       g.models.Video,
		Prompt:      prompt,
		Resolution:  g.video.Resolution,
		AspectRatio: g.video.AspectRatio,
	})
	if err != nil {
		return models.GeneratedVideo{}, classifyVideo(op, err)
	}
	slog.Info("Video generation started", "operation", operation.Name)

	polls := 0
	for !operation.Done {
		if polls >= g.video.MaxPolls {
			return models.GeneratedVideo{}, newError(op, KindGeneric, fmt.Errorf("%w after %d polls", ErrVideoTimeout, polls))
		}
		select {
		case <-ctx.Done():
			return models.GeneratedVideo{}, newError(op, KindGeneric, ctx.Err())
		case <-g.clock.After(g.video.PollInterval):
		}

		operation, err = g.media.PollVideo(ctx, key, operation)
		polls++
		if err != nil {
			return models.GeneratedVideo{}, classifyVideo(op, err)
		}
		slog.Debug("Polled video operation", "operation", operation.Name, "polls", polls, "done", operation.Done)
	}
	span.SetAttributes(attribute.Int("video.polls", polls))

	if operation.Err != nil {
		return models.GeneratedVideo{}, classifyVideo(op, operation.Err)
	}
	if len(operation.URIs) == 0 {
		return models.GeneratedVideo{}, newError(op, KindGeneric, ErrNoVideo)
	}

	return models.GeneratedVideo{URI: withKey(operation.URIs[0], key), Prompt: prompt}, nil
}

// withKey appends the credential as the key query parameter; the delivery
// URI is only downloadable with it.
func withKey(uri, key string) string {
	u, err := url.Parse(uri)
	if err != nil {
		sep := "?"
		if strings.Contains(uri, "?") {
			sep = "&"
		}
		return uri + sep + "key=" + url.QueryEscape(key)
	}
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()
	return u.String()
}

func (g *Gateway) generateJSON(ctx context.Context, op, prompt string, schema *providers.Schema, out any) error {
	text, err := g.text.GenerateJSON(ctx, providers.Config{
		APIKey:      g.apiKey(),
		Model:       g.models.Text,
		Temperature: textTemperature,
		Prompt:      prompt,
		Schema:      schema,
	})
	if err != nil {
		return classify(op, err)
	}

	if err := json.Unmarshal([]byte(cleanJSON(text)), out); err != nil {
		slog.Error("JSON parse error", "op", op, "err", err, "length", len(text))
		return newError(op, KindResponseFormat, fmt.Errorf("failed to parse AI response: %w", err))
	}
	return nil
}

func startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "gateway."+op)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.SetAttributes(attribute.String("error.kind", string(KindOf(err))))
		span.SetStatus(otelcodes.Error, err.Error())
	}
	span.End()
}
