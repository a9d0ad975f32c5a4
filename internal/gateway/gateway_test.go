package gateway

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/coursemarketer/internal/clock"
	"github.com/lehigh-university-libraries/coursemarketer/internal/config"
	"github.com/lehigh-university-libraries/coursemarketer/internal/credentials"
	"github.com/lehigh-university-libraries/coursemarketer/internal/models"
	"github.com/lehigh-university-libraries/coursemarketer/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const painPointsJSON = "```json\n" + `[
  {"id":"1","targetGroup":"轉職者","title":"轉職必看","description":"d1","marketingHook":"h1","seoKeywords":["轉職","履歷技巧"]},
  {"id":"1","targetGroup":"在職者","title":"AI升級","description":"d2","marketingHook":"h2","seoKeywords":["AI"]},
  {"id":"","targetGroup":"新鮮人","title":"畢業焦慮","description":"d3","marketingHook":"h3","seoKeywords":["實習"]}
]` + "\n```"

const slidesJSON = `[
  {"headline":"h1","subtext":"s1","visualPrompt":"v1"},
  {"headline":"h2","subtext":"s2","visualPrompt":"v2"},
  {"headline":"h3","subtext":"s3","visualPrompt":"v3"},
  {"headline":"h4","subtext":"s4","visualPrompt":"v4"},
  {"headline":"h5","subtext":"s5","visualPrompt":"v5"}
]`

type fakeText struct {
	mu       sync.Mutex
	response string
	err      error
	calls    []providers.Config
}

func (f *fakeText) GenerateJSON(ctx context.Context, config providers.Config) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, config)
	if config.APIKey == PlaceholderKey {
		return "", &providers.Error{HTTPStatus: 400, Status: "INVALID_ARGUMENT", Message: "API key not valid. Please pass a valid API key."}
	}
	return f.response, f.err
}

func (f *fakeText) lastCall() providers.Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fakeMedia struct {
	image    providers.Image
	imageErr error

	startErr error
	polls    []providers.VideoOperation
	pollErr  error
	pollKeys []string
}

func (f *fakeMedia) GenerateImage(ctx context.Context, config providers.ImageConfig) (providers.Image, error) {
	return f.image, f.imageErr
}

func (f *fakeMedia) StartVideo(ctx context.Context, config providers.VideoConfig) (providers.VideoOperation, error) {
	if f.startErr != nil {
		return providers.VideoOperation{}, f.startErr
	}
	return providers.VideoOperation{Name: "operations/veo-1"}, nil
}

func (f *fakeMedia) PollVideo(ctx context.Context, apiKey string, op providers.VideoOperation) (providers.VideoOperation, error) {
	f.pollKeys = append(f.pollKeys, apiKey)
	if f.pollErr != nil {
		return providers.VideoOperation{}, f.pollErr
	}
	if len(f.polls) == 0 {
		return op, nil
	}
	next := f.polls[0]
	f.polls = f.polls[1:]
	return next, nil
}

type staticKey string

func (k staticKey) APIKey() string { return string(k) }

var course = models.CourseInfo{
	Title:          "X",
	TargetAudience: "Junior Managers",
	Description:    "Communicate clearly",
	KeyTakeaways:   "Feedback",
}

var painPoint = models.PainPoint{
	ID:            "angle-1",
	TargetGroup:   "轉職者",
	Title:         "轉職必看",
	Description:   "d",
	MarketingHook: "h",
	SEOKeywords:   []string{"轉職", "履歷技巧"},
}

func newTestGateway(text providers.TextProvider, media providers.MediaProvider, keys KeySource, c clock.Clock) *Gateway {
	cfg := config.Default()
	return New(cfg, text, media, keys, WithClock(c))
}

func fakeClock() *clock.Fake {
	return clock.NewFake(time.Date(2031, time.March, 1, 9, 0, 0, 0, time.UTC))
}

func TestAnalyzeStrategies(t *testing.T) {
	text := &fakeText{response: painPointsJSON}
	g := newTestGateway(text, &fakeMedia{}, staticKey("user-key"), fakeClock())

	painPoints, err := g.AnalyzeStrategies(context.Background(), course)
	require.NoError(t, err)
	require.Len(t, painPoints, 3)

	ids := map[string]bool{}
	for _, pp := range painPoints {
		assert.NotEmpty(t, pp.SEOKeywords)
		assert.NotEmpty(t, pp.ID)
		ids[pp.ID] = true
	}
	assert.Len(t, ids, 3, "blank and duplicate ids are replaced")

	call := text.lastCall()
	assert.Equal(t, "user-key", call.APIKey)
	assert.Equal(t, "gemini-2.5-flash", call.Model)
	require.NotNil(t, call.Schema)
	assert.Equal(t, "array", call.Schema.Type)
}

func TestAnalyzeStrategiesPromptUsesCurrentYear(t *testing.T) {
	text := &fakeText{response: painPointsJSON}
	g := newTestGateway(text, &fakeMedia{}, staticKey("k"), fakeClock())

	_, err := g.AnalyzeStrategies(context.Background(), course)
	require.NoError(t, err)

	prompt := text.lastCall().Prompt
	assert.Contains(t, prompt, "2031-2032")
	assert.Contains(t, prompt, "2028-2030", "stale range example is derived from the clock")
	assert.NotContains(t, prompt, "2023-2025")
	assert.Contains(t, prompt, "Title: X")
}

func TestAnalyzeStrategiesErrors(t *testing.T) {
	tests := []struct {
		name     string
		text     *fakeText
		keys     KeySource
		wantKind Kind
	}{
		{
			name:     "unparseable response",
			text:     &fakeText{response: "Sure! Here are some ideas"},
			keys:     staticKey("k"),
			wantKind: KindResponseFormat,
		},
		{
			name:     "wrong number of pain points",
			text:     &fakeText{response: `[{"id":"1","targetGroup":"a","title":"b","description":"c","marketingHook":"d","seoKeywords":["e"]}]`},
			keys:     staticKey("k"),
			wantKind: KindResponseFormat,
		},
		{
			name:     "empty response",
			text:     &fakeText{response: ""},
			keys:     staticKey("k"),
			wantKind: KindResponseFormat,
		},
		{
			name:     "pain point without keywords",
			text:     &fakeText{response: strings.Replace(painPointsJSON, `"seoKeywords":["AI"]`, `"seoKeywords":[]`, 1)},
			keys:     staticKey("k"),
			wantKind: KindResponseFormat,
		},
		{
			name:     "forbidden",
			text:     &fakeText{err: &providers.Error{HTTPStatus: 403, Message: "forbidden"}},
			keys:     staticKey("k"),
			wantKind: KindAuthConfig,
		},
		{
			name:     "api key message",
			text:     &fakeText{err: errors.New("googleapi: API key expired. Please renew the API key.")},
			keys:     staticKey("k"),
			wantKind: KindAuthConfig,
		},
		{
			name:     "server error",
			text:     &fakeText{err: &providers.Error{HTTPStatus: 500, Message: "internal"}},
			keys:     staticKey("k"),
			wantKind: KindGeneric,
		},
		{
			name:     "no credential uses placeholder",
			text:     &fakeText{response: painPointsJSON},
			keys:     staticKey(""),
			wantKind: KindAuthConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(tt.text, &fakeMedia{}, tt.keys, fakeClock())
			_, err := g.AnalyzeStrategies(context.Background(), course)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))
		})
	}
}

func TestCredentialStoreDrivesNextCall(t *testing.T) {
	ctx := context.Background()
	store, err := credentials.NewStore(ctx, nil, nil)
	require.NoError(t, err)

	text := &fakeText{response: painPointsJSON}
	g := newTestGateway(text, &fakeMedia{}, store, fakeClock())

	require.NoError(t, store.Set(ctx, "fresh-key"))
	_, err = g.AnalyzeStrategies(ctx, course)
	require.NoError(t, err)
	assert.Equal(t, "fresh-key", text.lastCall().APIKey)

	require.NoError(t, store.Clear(ctx))
	_, err = g.AnalyzeStrategies(ctx, course)
	assert.Equal(t, KindAuthConfig, KindOf(err))
	assert.Equal(t, PlaceholderKey, text.lastCall().APIKey)
}

func TestGenerateSlideContent(t *testing.T) {
	text := &fakeText{response: slidesJSON}
	g := newTestGateway(text, &fakeMedia{}, staticKey("k"), fakeClock())

	slides, err := g.GenerateSlideContent(context.Background(), course, painPoint)
	require.NoError(t, err)
	require.Len(t, slides, SlideCount)
	assert.Equal(t, "h5", slides[4].Headline)

	prompt := text.lastCall().Prompt
	assert.Contains(t, prompt, "轉職, 履歷技巧")
	assert.Contains(t, prompt, "2031")
}

func TestGenerateSlideContentWrongLength(t *testing.T) {
	text := &fakeText{response: `[{"headline":"h","subtext":"s","visualPrompt":"v"}]`}
	g := newTestGateway(text, &fakeMedia{}, staticKey("k"), fakeClock())

	_, err := g.GenerateSlideContent(context.Background(), course, painPoint)
	assert.Equal(t, KindResponseFormat, KindOf(err))
}

func TestGenerateVideoScript(t *testing.T) {
	text := &fakeText{response: "```\n" + `[{"scene":"0-3s","visual":"shocked face","audio":"履歷又被拒?"},{"scene":"3-15s","visual":"tips","audio":"三招"}]` + "\n```"}
	g := newTestGateway(text, &fakeMedia{}, staticKey("k"), fakeClock())

	scenes, err := g.GenerateVideoScript(context.Background(), course, painPoint)
	require.NoError(t, err)
	require.Len(t, scenes, 2)
	assert.Equal(t, "0-3s", scenes[0].Scene)

	text.response = "[]"
	_, err = g.GenerateVideoScript(context.Background(), course, painPoint)
	assert.Equal(t, KindResponseFormat, KindOf(err))
}

func TestGenerateSlideImage(t *testing.T) {
	media := &fakeMedia{image: providers.Image{MIMEType: "image/png", Data: []byte("png")}}
	g := newTestGateway(&fakeText{}, media, staticKey("k"), fakeClock())

	uri, err := g.GenerateSlideImage(context.Background(), "gradient")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,cG5n", uri)
}

func TestGenerateSlideImageFailureIsUnavailable(t *testing.T) {
	tests := []struct {
		name  string
		media *fakeMedia
	}{
		{name: "tier limit", media: &fakeMedia{imageErr: &providers.Error{HTTPStatus: 429, Message: "quota"}}},
		{name: "bad key", media: &fakeMedia{imageErr: &providers.Error{HTTPStatus: 400, Message: "API key not valid"}}},
		{name: "empty image", media: &fakeMedia{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(&fakeText{}, tt.media, staticKey("k"), fakeClock())
			_, err := g.GenerateSlideImage(context.Background(), "gradient")
			assert.Equal(t, KindImageUnavailable, KindOf(err))
		})
	}
}

func TestGenerateVideoPollsUntilDone(t *testing.T) {
	media := &fakeMedia{polls: []providers.VideoOperation{
		{Name: "operations/veo-1"},
		{Name: "operations/veo-1"},
		{Name: "operations/veo-1", Done: true, URIs: []string{"https://generativelanguage.googleapis.com/v1beta/files/abc:download?alt=media"}},
	}}
	c := fakeClock()
	g := newTestGateway(&fakeText{}, media, staticKey("user-key"), c)

	video, err := g.GenerateVideo(context.Background(), "office shot")
	require.NoError(t, err)

	assert.Len(t, media.pollKeys, 3)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second}, c.Waits())
	assert.Equal(t, "office shot", video.Prompt)

	u, err := url.Parse(video.URI)
	require.NoError(t, err)
	assert.Equal(t, "user-key", u.Query().Get("key"))
	assert.Equal(t, "media", u.Query().Get("alt"))
	assert.Equal(t, "/v1beta/files/abc:download", u.Path)
}

func TestGenerateVideoErrors(t *testing.T) {
	tests := []struct {
		name     string
		media    *fakeMedia
		maxPolls int
		wantKind Kind
		wantErr  error
	}{
		{
			name:     "permission denied on submit",
			media:    &fakeMedia{startErr: &providers.Error{HTTPStatus: 403, Status: "PERMISSION_DENIED", Message: "billing"}},
			wantKind: KindPaidTierRequired,
		},
		{
			name:     "invalid key on submit",
			media:    &fakeMedia{startErr: &providers.Error{HTTPStatus: 400, Message: "API key not valid"}},
			wantKind: KindAuthConfig,
		},
		{
			name:     "poll failure",
			media:    &fakeMedia{pollErr: errors.New("connection reset")},
			wantKind: KindGeneric,
		},
		{
			name:     "operation finished with permission error",
			media:    &fakeMedia{polls: []providers.VideoOperation{{Done: true, Err: &providers.Error{Status: "PERMISSION_DENIED"}}}},
			wantKind: KindPaidTierRequired,
		},
		{
			name:     "finished without video",
			media:    &fakeMedia{polls: []providers.VideoOperation{{Done: true}}},
			wantKind: KindGeneric,
			wantErr:  ErrNoVideo,
		},
		{
			name:     "poll budget exhausted",
			media:    &fakeMedia{},
			maxPolls: 4,
			wantKind: KindGeneric,
			wantErr:  ErrVideoTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			if tt.maxPolls > 0 {
				cfg.Video.MaxPolls = tt.maxPolls
			}
			g := New(cfg, &fakeText{}, tt.media, staticKey("k"), WithClock(fakeClock()))

			_, err := g.GenerateVideo(context.Background(), "p")
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.maxPolls > 0 {
				assert.Len(t, tt.media.pollKeys, tt.maxPolls)
			}
		})
	}
}

func TestGenerateVideoUsesKeySnapshot(t *testing.T) {
	ctx := context.Background()
	store, err := credentials.NewStore(ctx, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "first"))

	media := &fakeMedia{polls: []providers.VideoOperation{
		{Done: true, URIs: []string{"https://example.com/video.mp4"}},
	}}
	g := newTestGateway(&fakeText{}, media, store, fakeClock())

	video, err := g.GenerateVideo(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/video.mp4?key=first", video.URI)
}

func TestDefaultVideoPrompt(t *testing.T) {
	g := newTestGateway(&fakeText{}, &fakeMedia{}, staticKey("k"), fakeClock())
	assert.Equal(t, "Professional cinematic shot representing: 轉職必看", g.DefaultVideoPrompt(painPoint))
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, KindGeneric, KindOf(errors.New("boom")))
	assert.Equal(t, KindGeneric, KindOf(nil))
}
