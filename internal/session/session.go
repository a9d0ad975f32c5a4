// Package session runs the content generation for one selected strategy:
// carousel slides with per-slide art, the video script and an optional
// video clip. Each sub-flow is independent; a failure in one never blocks
// the others.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lehigh-university-libraries/coursemarketer/internal/clock"
	"github.com/lehigh-university-libraries/coursemarketer/internal/export"
	"github.com/lehigh-university-libraries/coursemarketer/internal/gateway"
	"github.com/lehigh-university-libraries/coursemarketer/internal/models"
	"golang.org/x/sync/errgroup"
)

// Generator is the slice of the AI gateway a session needs
type Generator interface {
	GenerateSlideContent(ctx context.Context, course models.CourseInfo, pp models.PainPoint) ([]models.SlideContent, error)
	GenerateSlideImage(ctx context.Context, visualPrompt string) (string, error)
	GenerateVideoScript(ctx context.Context, course models.CourseInfo, pp models.PainPoint) ([]models.VideoScriptScene, error)
	GenerateVideo(ctx context.Context, prompt string) (models.GeneratedVideo, error)
	DefaultVideoPrompt(pp models.PainPoint) string
}

// Status of a sub-flow
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

const (
	FieldHeadline = "headline"
	FieldSubtext  = "subtext"
)

// imageConcurrency bounds GenerateAllImages fan-out
const imageConcurrency = 3

var (
	ErrNotReady   = errors.New("content is not generated yet")
	ErrSlideIndex = errors.New("slide index out of range")
	ErrField      = errors.New("only headline and subtext are editable")
	ErrNoImage    = errors.New("slide has no generated image")
	ErrVideoBusy  = errors.New("a video is already being generated")
	ErrDiscarded  = errors.New("session was discarded")
)

// TaskError is a classified failure shown next to the widget it belongs to
type TaskError struct {
	Kind    gateway.Kind `json:"kind"`
	Message string       `json:"message"`
}

func taskError(err error) *TaskError {
	if err == nil {
		return nil
	}
	kind := gateway.KindOf(err)
	return &TaskError{Kind: kind, Message: gateway.UserMessage(kind)}
}

type SlidesView struct {
	Status        Status             `json:"status"`
	Error         *TaskError         `json:"error,omitempty"`
	Slides        []models.SlideData `json:"slides"`
	CaptionCopied bool               `json:"captionCopied"`
}

type ScriptView struct {
	Status           Status                    `json:"status"`
	Error            *TaskError                `json:"error,omitempty"`
	Scenes           []models.VideoScriptScene `json:"scenes"`
	TranscriptCopied bool                      `json:"transcriptCopied"`
}

type VideoView struct {
	Status Status                 `json:"status"`
	Error  *TaskError             `json:"error,omitempty"`
	Video  *models.GeneratedVideo `json:"video,omitempty"`
	Prompt string                 `json:"prompt,omitempty"`
}

type slide struct {
	content models.SlideContent
	image   string
	state   models.ImageState
}

// Session is scoped to exactly one course and one pain point
type Session struct {
	gen       Generator
	course    models.CourseInfo
	painPoint models.PainPoint

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	discarded bool

	slidesStatus Status
	slidesErr    error
	slides       []slide

	scriptStatus Status
	scriptErr    error
	script       []models.VideoScriptScene

	videoStatus Status
	videoErr    error
	video       *models.GeneratedVideo
	videoPrompt string

	captionAck    *export.Ack
	transcriptAck *export.Ack
}

type Option func(*Session)

// WithClock sets the clock used for copy acknowledgements
func WithClock(c clock.Clock) Option {
	return func(s *Session) {
		s.captionAck = export.NewAck(c)
		s.transcriptAck = export.NewAck(c)
	}
}

// New starts a session. Cancelling parent, or calling Discard, stops
// applying results of tasks still in flight.
func New(parent context.Context, gen Generator, course models.CourseInfo, pp models.PainPoint, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		gen:           gen,
		course:        course,
		painPoint:     pp,
		ctx:           ctx,
		cancel:        cancel,
		slidesStatus:  StatusIdle,
		scriptStatus:  StatusIdle,
		videoStatus:   StatusIdle,
		captionAck:    export.NewAck(nil),
		transcriptAck: export.NewAck(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Course() models.CourseInfo   { return s.course }
func (s *Session) PainPoint() models.PainPoint { return s.painPoint }

// Discard abandons the session; pending completions are dropped.
func (s *Session) Discard() {
	s.mu.Lock()
	s.discarded = true
	s.mu.Unlock()
	s.cancel()
}

// Wait blocks until every task started so far has finished
func (s *Session) Wait() {
	s.wg.Wait()
}

// spawn runs task in the background; apply is called under the session lock
// only while the session is still live.
func (s *Session) spawn(task func(ctx context.Context) func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		apply := task(s.ctx)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.discarded {
			slog.Debug("Dropping result for discarded session", "pain_point", s.painPoint.ID)
			return
		}
		apply()
	}()
}

// ActivateSlides generates slide text on first use. It reports whether a
// request was started; a failed generation is retried on the next call.
func (s *Session) ActivateSlides() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discarded || s.slidesStatus == StatusLoading || s.slidesStatus == StatusReady {
		return false
	}
	s.slidesStatus = StatusLoading
	s.slidesErr = nil

	s.spawn(func(ctx context.Context) func() {
		contents, err := s.gen.GenerateSlideContent(ctx, s.course, s.painPoint)
		return func() {
			if err != nil {
				slog.Error("Failed to generate slide text", "err", err)
				s.slidesStatus = StatusFailed
				s.slidesErr = err
				return
			}
			s.slides = make([]slide, len(contents))
			for i, c := range contents {
				s.slides[i] = slide{content: c, state: models.ImageNotStarted}
			}
			s.slidesStatus = StatusReady
		}
	})
	return true
}

// Slides returns a copy of the slide flow
func (s *Session) Slides() SlidesView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := SlidesView{
		Status:        s.slidesStatus,
		Error:         taskError(s.slidesErr),
		Slides:        make([]models.SlideData, len(s.slides)),
		CaptionCopied: s.captionAck.Copied(),
	}
	for i, sl := range s.slides {
		view.Slides[i] = models.SlideData{
			Content:           sl.content,
			BackgroundImage:   sl.image,
			IsGeneratingImage: sl.state == models.ImagePending,
			ImageState:        sl.state,
			IsCallToAction:    i == len(s.slides)-1,
		}
	}
	return view
}

// EditSlide changes a slide's headline or subtext locally
func (s *Session) EditSlide(index int, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSlide(index); err != nil {
		return err
	}

	switch field {
	case FieldHeadline:
		s.slides[index].content.Headline = value
	case FieldSubtext:
		s.slides[index].content.Subtext = value
	default:
		return fmt.Errorf("%w: %q", ErrField, field)
	}
	return nil
}

func (s *Session) checkSlide(index int) error {
	if s.slidesStatus != StatusReady {
		return ErrNotReady
	}
	if index < 0 || index >= len(s.slides) {
		return fmt.Errorf("%w: %d", ErrSlideIndex, index)
	}
	return nil
}

// RegenerateImage requests new background art for one slide. It returns
// false without doing anything when that slide already has a request in
// flight.
func (s *Session) RegenerateImage(index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discarded {
		return false, ErrDiscarded
	}
	if err := s.checkSlide(index); err != nil {
		return false, err
	}
	if s.slides[index].state == models.ImagePending {
		return false, nil
	}

	prompt := s.markPending(index)
	s.spawn(func(ctx context.Context) func() {
		return s.generateImage(ctx, index, prompt)
	})
	return true, nil
}

// GenerateAllImages requests art for every slide without a request in
// flight and returns how many were started.
func (s *Session) GenerateAllImages() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discarded {
		return 0, ErrDiscarded
	}
	if s.slidesStatus != StatusReady {
		return 0, ErrNotReady
	}

	prompts := make(map[int]string)
	for i := range s.slides {
		if s.slides[i].state != models.ImagePending {
			prompts[i] = s.markPending(i)
		}
	}
	if len(prompts) == 0 {
		return 0, nil
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		var g errgroup.Group
		g.SetLimit(imageConcurrency)
		for index, prompt := range prompts {
			g.Go(func() error {
				apply := s.generateImage(s.ctx, index, prompt)
				s.mu.Lock()
				defer s.mu.Unlock()
				if !s.discarded {
					apply()
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
	return len(prompts), nil
}

// markPending must be called with the lock held
func (s *Session) markPending(index int) string {
	s.slides[index].state = models.ImagePending
	return s.slides[index].content.VisualPrompt
}

// generateImage touches only the image fields of its own slide so sibling
// slides and text edits are never clobbered.
func (s *Session) generateImage(ctx context.Context, index int, prompt string) func() {
	uri, err := s.gen.GenerateSlideImage(ctx, prompt)
	return func() {
		if index >= len(s.slides) {
			return
		}
		if err != nil {
			slog.Warn("Image generation skipped, using fallback visual", "slide", index+1, "err", err)
			s.slides[index].state = models.ImageFailed
			return
		}
		s.slides[index].image = uri
		s.slides[index].state = models.ImageReady
	}
}

// SlideImage returns the decoded background of a slide with its download name
func (s *Session) SlideImage(index int) ([]byte, string, string, error) {
	s.mu.Lock()
	if err := s.checkSlide(index); err != nil {
		s.mu.Unlock()
		return nil, "", "", err
	}
	uri := s.slides[index].image
	s.mu.Unlock()

	if uri == "" {
		return nil, "", "", ErrNoImage
	}
	data, mimeType, err := export.DecodeDataURI(uri)
	if err != nil {
		return nil, "", "", err
	}
	return data, mimeType, export.SlideFilename(index), nil
}

// Caption composes the shareable post text and marks it copied
func (s *Session) Caption() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slidesStatus != StatusReady {
		return "", ErrNotReady
	}
	contents := make([]models.SlideContent, len(s.slides))
	for i, sl := range s.slides {
		contents[i] = sl.content
	}
	s.captionAck.Mark()
	return export.Caption(contents, s.course.Title, s.painPoint.SEOKeywords), nil
}

// ActivateScript generates the video script on first use
func (s *Session) ActivateScript() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discarded || s.scriptStatus == StatusLoading || s.scriptStatus == StatusReady {
		return false
	}
	s.scriptStatus = StatusLoading
	s.scriptErr = nil

	s.spawn(func(ctx context.Context) func() {
		scenes, err := s.gen.GenerateVideoScript(ctx, s.course, s.painPoint)
		return func() {
			if err != nil {
				slog.Error("Failed to generate video script", "err", err)
				s.scriptStatus = StatusFailed
				s.scriptErr = err
				return
			}
			s.script = scenes
			s.scriptStatus = StatusReady
		}
	})
	return true
}

func (s *Session) Script() ScriptView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ScriptView{
		Status:           s.scriptStatus,
		Error:            taskError(s.scriptErr),
		Scenes:           append([]models.VideoScriptScene(nil), s.script...),
		TranscriptCopied: s.transcriptAck.Copied(),
	}
}

// Transcript composes the shareable script text and marks it copied
func (s *Session) Transcript() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scriptStatus != StatusReady {
		return "", ErrNotReady
	}
	s.transcriptAck.Mark()
	return export.Transcript(s.script), nil
}

// RequestVideo starts video generation. An empty prompt falls back to a
// default built from the pain point. Any displayed video is cleared.
func (s *Session) RequestVideo(prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discarded {
		return "", ErrDiscarded
	}
	if s.videoStatus == StatusLoading {
		return "", ErrVideoBusy
	}
	if prompt == "" {
		prompt = s.gen.DefaultVideoPrompt(s.painPoint)
	}

	s.videoStatus = StatusLoading
	s.videoErr = nil
	s.video = nil
	s.videoPrompt = prompt

	s.spawn(func(ctx context.Context) func() {
		video, err := s.gen.GenerateVideo(ctx, prompt)
		return func() {
			if err != nil {
				slog.Error("Video generation failed", "err", err)
				s.videoStatus = StatusFailed
				s.videoErr = err
				return
			}
			s.video = &video
			s.videoStatus = StatusReady
		}
	})
	return prompt, nil
}

// ClearVideo drops the displayed video. A request in flight is unaffected.
func (s *Session) ClearVideo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.videoStatus == StatusLoading {
		return
	}
	s.video = nil
	s.videoErr = nil
	s.videoStatus = StatusIdle
}

func (s *Session) Video() VideoView {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := VideoView{
		Status: s.videoStatus,
		Error:  taskError(s.videoErr),
		Prompt: s.videoPrompt,
	}
	if s.video != nil {
		v := *s.video
		view.Video = &v
	}
	return view
}
