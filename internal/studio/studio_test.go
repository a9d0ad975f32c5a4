package studio

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/lehigh-university-libraries/coursemarketer/internal/gateway"
	"github.com/lehigh-university-libraries/coursemarketer/internal/models"
	"github.com/lehigh-university-libraries/coursemarketer/internal/session"
	"github.com/lehigh-university-libraries/coursemarketer/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct{}

func (fakeGenerator) AnalyzeStrategies(ctx context.Context, c models.CourseInfo) ([]models.PainPoint, error) {
	return []models.PainPoint{{ID: "angle-1", TargetGroup: "轉職者", Title: "轉職", Description: "d", MarketingHook: "h", SEOKeywords: []string{"轉職"}}}, nil
}

func (fakeGenerator) GenerateSlideContent(ctx context.Context, c models.CourseInfo, pp models.PainPoint) ([]models.SlideContent, error) {
	slides := make([]models.SlideContent, 5)
	for i := range slides {
		slides[i] = models.SlideContent{Headline: "headline", Subtext: "subtext", VisualPrompt: "v"}
	}
	return slides, nil
}

func (fakeGenerator) GenerateSlideImage(ctx context.Context, prompt string) (string, error) {
	return "data:image/png;base64,iVBORw==", nil
}

func (fakeGenerator) GenerateVideoScript(ctx context.Context, c models.CourseInfo, pp models.PainPoint) ([]models.VideoScriptScene, error) {
	return []models.VideoScriptScene{{Scene: "0-3s", Visual: "office", Audio: "還在加班？"}}, nil
}

func (fakeGenerator) GenerateVideo(ctx context.Context, prompt string) (models.GeneratedVideo, error) {
	return models.GeneratedVideo{}, &gateway.Error{Kind: gateway.KindPaidTierRequired, Err: errors.New("denied")}
}

func (fakeGenerator) DefaultVideoPrompt(pp models.PainPoint) string { return pp.Title }

var course = models.CourseInfo{Title: "t", TargetAudience: "a", Description: "d", KeyTakeaways: "k"}

func readySession(t *testing.T) *session.Session {
	t.Helper()
	s := session.New(context.Background(), fakeGenerator{}, course, models.PainPoint{ID: "angle-1", Title: "轉職", SEOKeywords: []string{"轉職"}})
	s.ActivateSlides()
	s.ActivateScript()
	s.Wait()
	return s
}

func TestRenderSlides(t *testing.T) {
	s := readySession(t)
	out := renderSlides(s.Slides())
	assert.Contains(t, out, "Slide 1/5")
	assert.Contains(t, out, "Slide 5/5 · CTA")
	assert.Contains(t, out, "headline")
	assert.Contains(t, out, "gradient background")

	failed := renderSlides(session.SlidesView{
		Status: session.StatusFailed,
		Error:  &session.TaskError{Kind: gateway.KindResponseFormat, Message: "bad"},
	})
	assert.Contains(t, failed, "bad")
}

func TestImageLabel(t *testing.T) {
	tests := []struct {
		slide models.SlideData
		want  string
	}{
		{models.SlideData{ImageState: models.ImageNotStarted}, "gradient background"},
		{models.SlideData{ImageState: models.ImagePending}, "generating art"},
		{models.SlideData{ImageState: models.ImageReady}, "art ready"},
		{models.SlideData{ImageState: models.ImageFailed}, "using gradient"},
		{models.SlideData{ImageState: models.ImageFailed, BackgroundImage: "data:,x"}, "keeping previous art"},
	}
	for _, tt := range tests {
		t.Run(string(tt.slide.ImageState), func(t *testing.T) {
			assert.Contains(t, imageLabel(tt.slide), tt.want)
		})
	}
}

func TestRenderScriptAndVideo(t *testing.T) {
	s := readySession(t)
	out := renderScript(s.Script())
	assert.Contains(t, out, "[0-3s]")
	assert.Contains(t, out, "Visual: office")
	assert.Contains(t, out, "還在加班？")

	_, err := s.RequestVideo("")
	require.NoError(t, err)
	s.Wait()
	assert.Contains(t, renderVideo(s.Video()), gateway.UserMessage(gateway.KindPaidTierRequired))
	assert.Contains(t, renderVideo(session.VideoView{Status: session.StatusIdle}), "No video yet")
}

func TestRenderStrategy(t *testing.T) {
	out := renderStrategy(models.PainPoint{TargetGroup: "新鮮人", Title: "求職", Description: "d", MarketingHook: "hook", SEOKeywords: []string{"實習", "履歷"}})
	assert.Contains(t, out, "新鮮人")
	assert.Contains(t, out, "Hook: hook")
	assert.Contains(t, out, "#實習 #履歷")
}

func TestSaveImages(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	st := New(workflow.New(fakeGenerator{}), nil, WithOutput(&out), WithImageDir(dir))

	s := readySession(t)
	require.NoError(t, st.saveImages(s, 5))
	assert.Contains(t, out.String(), "No slide art generated yet")

	_, err := s.RegenerateImage(2)
	require.NoError(t, err)
	s.Wait()

	require.NoError(t, st.saveImages(s, 5))
	data, err := os.ReadFile(filepath.Join(dir, "104-course-slide-3.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
	assert.Contains(t, out.String(), "Saved 1 images")
}

func TestCopyText(t *testing.T) {
	var out bytes.Buffer
	var copied string
	st := New(workflow.New(fakeGenerator{}), nil,
		WithOutput(&out),
		WithClipboard(func(text string) error { copied = text; return nil }),
	)

	s := readySession(t)
	require.NoError(t, st.copyText(s.Transcript))
	assert.Equal(t, "[0-3s] (Visual: office) -> Audio: 還在加班？", copied)
	assert.Contains(t, out.String(), "Copied!")
	assert.True(t, s.Script().TranscriptCopied)

	out.Reset()
	st.copy = func(string) error { return errors.New("no clipboard") }
	require.NoError(t, st.copyText(s.Transcript))
	assert.Contains(t, out.String(), "printing instead")
	assert.Contains(t, out.String(), "Audio: 還在加班？")
}

func optionValues(options []huh.Option[string]) []string {
	values := make([]string, len(options))
	for i, o := range options {
		values[i] = o.Value
	}
	return values
}

func TestVideoOptions(t *testing.T) {
	tests := []struct {
		name string
		view session.VideoView
		want []string
	}{
		{
			name: "nothing requested",
			view: session.VideoView{Status: session.StatusIdle},
			want: []string{actionRequest, actionBack},
		},
		{
			name: "generating",
			view: session.VideoView{Status: session.StatusLoading},
			want: []string{actionWait, actionBack},
		},
		{
			name: "ready",
			view: session.VideoView{Status: session.StatusReady, Video: &models.GeneratedVideo{URI: "https://example.com/v.mp4"}},
			want: []string{actionSave, actionRequest, actionClear, actionBack},
		},
		{
			name: "paid tier",
			view: session.VideoView{Status: session.StatusFailed, Error: &session.TaskError{Kind: gateway.KindPaidTierRequired}},
			want: []string{actionRequest, actionClear, actionBack},
		},
		{
			name: "bad key",
			view: session.VideoView{Status: session.StatusFailed, Error: &session.TaskError{Kind: gateway.KindAuthConfig}},
			want: []string{actionRequest, actionKey, actionClear, actionBack},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, optionValues(videoOptions(tt.view)))
		})
	}
}

func TestOpeningVideoTabRequestsNothing(t *testing.T) {
	s := readySession(t)
	videoOptions(s.Video())
	s.Wait()
	assert.Equal(t, session.StatusIdle, s.Video().Status)
}

func TestFailureOptions(t *testing.T) {
	assert.Equal(t, []string{actionRetry}, optionValues(failureOptions(nil)))
	assert.Equal(t, []string{actionRetry},
		optionValues(failureOptions(&session.TaskError{Kind: gateway.KindResponseFormat})))
	assert.Equal(t, []string{actionRetry, actionKey},
		optionValues(failureOptions(&session.TaskError{Kind: gateway.KindAuthConfig})))
}

func TestAborted(t *testing.T) {
	assert.True(t, aborted(huh.ErrUserAborted))
	assert.True(t, aborted(tea.ErrInterrupted))
	assert.True(t, aborted(errQuit))
	assert.False(t, aborted(nil))
	assert.False(t, aborted(errors.New("clipboard")))
}

func TestRunSpinnerCancelledSkipsAction(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := runSpinner(ctx, "Analyzing", func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
