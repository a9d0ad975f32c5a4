// Package studio is the interactive terminal surface: a course form, a
// strategy picker and a content editor driven by huh prompts.
package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/lehigh-university-libraries/coursemarketer/internal/export"
	"github.com/lehigh-university-libraries/coursemarketer/internal/gateway"
	"github.com/lehigh-university-libraries/coursemarketer/internal/media"
	"github.com/lehigh-university-libraries/coursemarketer/internal/models"
	"github.com/lehigh-university-libraries/coursemarketer/internal/session"
	"github.com/lehigh-university-libraries/coursemarketer/internal/workflow"
)

const (
	actionBack    = "back"
	actionQuit    = "quit"
	actionRetry   = "retry"
	actionKey     = "key"
	actionRequest = "request"
	actionWait    = "wait"
	actionSave    = "save"
	actionClear   = "clear"
)

// KeyStore is the credential store as seen by the key prompt
type KeyStore interface {
	Set(ctx context.Context, key string) error
}

type Studio struct {
	machine *workflow.Machine
	keys    KeyStore
	out     io.Writer
	outDir  string
	copy    func(string) error
	fetcher *media.Fetcher
}

type Option func(*Studio)

// WithOutput sets where rendered views are printed
func WithOutput(w io.Writer) Option {
	return func(s *Studio) { s.out = w }
}

// WithImageDir sets where downloaded slide images are written
func WithImageDir(dir string) Option {
	return func(s *Studio) { s.outDir = dir }
}

// WithClipboard replaces the system clipboard
func WithClipboard(fn func(string) error) Option {
	return func(s *Studio) { s.copy = fn }
}

func New(machine *workflow.Machine, keys KeyStore, opts ...Option) *Studio {
	s := &Studio{
		machine: machine,
		keys:    keys,
		out:     os.Stdout,
		outDir:  ".",
		copy:    clipboard.WriteAll,
		fetcher: media.NewFetcher(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Studio) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

// Run drives the workflow until the user quits
func (s *Studio) Run(ctx context.Context) error {
	defer s.machine.Close()
	s.println(titleStyle.Render("🎓 Course Marketer Studio"))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		switch s.machine.State() {
		case workflow.StateInputCourse:
			err = s.inputCourse(ctx)
		case workflow.StateSelectStrategy:
			err = s.selectStrategy(ctx)
		case workflow.StateGenerateContent:
			err = s.generateContent(ctx)
		}
		if aborted(err) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

var errQuit = errors.New("quit")

// aborted reports whether err means the user asked to leave the studio
func aborted(err error) bool {
	return errors.Is(err, huh.ErrUserAborted) ||
		errors.Is(err, tea.ErrInterrupted) ||
		errors.Is(err, errQuit)
}

// runSpinner shows title until action returns. Run may return early when ctx
// is cancelled, so results only travel through the returned error.
func runSpinner(ctx context.Context, title string, action func(context.Context) error) error {
	return spinner.New().
		Title(title).
		Context(ctx).
		ActionWithErr(action).
		Run()
}

// runField runs a single prompt as its own form so it honours ctx
func runField(ctx context.Context, field huh.Field) error {
	return huh.NewForm(huh.NewGroup(field)).RunWithContext(ctx)
}

func (s *Studio) inputCourse(ctx context.Context) error {
	var course models.CourseInfo
	if draft := s.machine.Snapshot().Draft; draft != nil {
		course = *draft
	}

	required := func(v string) error {
		if v == "" {
			return errors.New("required")
		}
		return nil
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Course title").Value(&course.Title).Validate(required),
			huh.NewInput().Title("Target audience").Value(&course.TargetAudience).Validate(required),
			huh.NewText().Title("Course description").Value(&course.Description).Validate(required),
			huh.NewText().Title("Key takeaways").Value(&course.KeyTakeaways).Validate(required),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return err
	}

	submitErr := runSpinner(ctx, "Analyzing marketing angles", func(ctx context.Context) error {
		return s.machine.Submit(ctx, course)
	})
	if submitErr == nil {
		s.println(successStyle.Render("✓ Found 3 marketing angles"))
		return nil
	}

	if aborted(submitErr) || ctx.Err() != nil {
		return submitErr
	}
	if errors.Is(submitErr, workflow.ErrInvalidInput) {
		s.println(errorStyle.Render("All fields are required."))
		return nil
	}
	kind := gateway.KindOf(submitErr)
	s.println(errorStyle.Render(gateway.UserMessage(kind)))
	if kind == gateway.KindAuthConfig {
		return s.promptKey(ctx)
	}
	return nil
}

// promptKey is the in-place credential entry offered on AUTH_CONFIG
func (s *Studio) promptKey(ctx context.Context) error {
	var key string
	if err := runField(ctx, huh.NewInput().
		Title("Gemini API key").
		Description("Stored locally and used for every request until cleared").
		EchoMode(huh.EchoModePassword).
		Value(&key),
	); err != nil {
		return err
	}
	if key == "" {
		return nil
	}
	if err := s.keys.Set(ctx, key); err != nil {
		return fmt.Errorf("store API key: %w", err)
	}
	s.println(successStyle.Render("✓ API key saved"))
	return nil
}

func (s *Studio) selectStrategy(ctx context.Context) error {
	snap := s.machine.Snapshot()
	for _, pp := range snap.PainPoints {
		s.println(renderStrategy(pp))
	}

	options := make([]huh.Option[string], 0, len(snap.PainPoints)+1)
	for _, pp := range snap.PainPoints {
		options = append(options, huh.NewOption(pp.TargetGroup+" · "+pp.Title, pp.ID))
	}
	options = append(options, huh.NewOption("← Edit course", actionBack))

	var choice string
	if err := runField(ctx, huh.NewSelect[string]().
		Title("Pick a marketing angle").
		Options(options...).
		Value(&choice),
	); err != nil {
		return err
	}

	if choice == actionBack {
		s.machine.Back()
		return nil
	}
	_, err := s.machine.Select(ctx, choice)
	return err
}

func (s *Studio) generateContent(ctx context.Context) error {
	sess := s.machine.Session()
	if sess == nil {
		return nil
	}

	var tab string
	if err := runField(ctx, huh.NewSelect[string]().
		Title(sess.PainPoint().Title).
		Options(
			huh.NewOption("Carousel slides", "slides"),
			huh.NewOption("Video script", "script"),
			huh.NewOption("Video clip", "video"),
			huh.NewOption("← Pick another angle", actionBack),
			huh.NewOption("Quit", actionQuit),
		).
		Value(&tab),
	); err != nil {
		return err
	}

	switch tab {
	case "slides":
		return s.slidesTab(ctx, sess)
	case "script":
		return s.scriptTab(ctx, sess)
	case "video":
		return s.videoTab(ctx, sess)
	case actionBack:
		s.machine.Back()
		return nil
	default:
		return errQuit
	}
}

func (s *Studio) wait(ctx context.Context, title string, sess *session.Session) error {
	return runSpinner(ctx, title, func(context.Context) error {
		sess.Wait()
		return nil
	})
}

// failureOptions offers a retry, and the key prompt when the failure was a
// credential problem.
func failureOptions(taskErr *session.TaskError) []huh.Option[string] {
	options := []huh.Option[string]{huh.NewOption("Retry", actionRetry)}
	if taskErr != nil && taskErr.Kind == gateway.KindAuthConfig {
		options = append(options, huh.NewOption("Enter API key and retry", actionKey))
	}
	return options
}

func (s *Studio) slidesTab(ctx context.Context, sess *session.Session) error {
	for {
		if sess.ActivateSlides() {
			if err := s.wait(ctx, "Writing slides", sess); err != nil {
				return err
			}
		}
		view := sess.Slides()
		s.println(renderSlides(view))
		if view.Status == session.StatusReady {
			s.println(renderTips(export.TrafficTips(sess.PainPoint())))
		}

		options := []huh.Option[string]{}
		switch view.Status {
		case session.StatusReady:
			options = append(options,
				huh.NewOption("Edit slide text", "edit"),
				huh.NewOption("Generate art for one slide", "image"),
				huh.NewOption("Generate art for all slides", "images"),
				huh.NewOption("Save slide art", actionSave),
				huh.NewOption("Copy caption", "caption"),
			)
		case session.StatusFailed:
			options = append(options, failureOptions(view.Error)...)
		}
		options = append(options, huh.NewOption("← Back", actionBack))

		var action string
		if err := runField(ctx, huh.NewSelect[string]().
			Title("Slides").
			Options(options...).
			Value(&action),
		); err != nil {
			return err
		}

		var err error
		switch action {
		case "edit":
			err = s.editSlide(ctx, sess, len(view.Slides))
		case "image":
			err = s.regenerateImage(ctx, sess, len(view.Slides))
		case "images":
			if _, err = sess.GenerateAllImages(); err == nil {
				err = s.wait(ctx, "Generating slide art", sess)
			}
		case actionSave:
			err = s.saveImages(sess, len(view.Slides))
		case "caption":
			err = s.copyText(sess.Caption)
		case actionKey:
			err = s.promptKey(ctx)
		case actionRetry:
			continue
		default:
			return nil
		}
		if aborted(err) || ctx.Err() != nil {
			return err
		}
		if err != nil {
			s.println(errorStyle.Render(err.Error()))
		}
	}
}

func slideOptions(n int) []huh.Option[int] {
	options := make([]huh.Option[int], n)
	for i := range options {
		options[i] = huh.NewOption("Slide "+strconv.Itoa(i+1), i)
	}
	return options
}

func (s *Studio) editSlide(ctx context.Context, sess *session.Session, n int) error {
	var index int
	if err := runField(ctx, huh.NewSelect[int]().Title("Which slide?").Options(slideOptions(n)...).Value(&index)); err != nil {
		return err
	}
	current := sess.Slides().Slides[index].Content
	headline, subtext := current.Headline, current.Subtext

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Headline").Value(&headline),
		huh.NewText().Title("Subtext").Value(&subtext),
	))
	if err := form.RunWithContext(ctx); err != nil {
		return err
	}
	if err := sess.EditSlide(index, session.FieldHeadline, headline); err != nil {
		return err
	}
	return sess.EditSlide(index, session.FieldSubtext, subtext)
}

func (s *Studio) regenerateImage(ctx context.Context, sess *session.Session, n int) error {
	var index int
	if err := runField(ctx, huh.NewSelect[int]().Title("Which slide?").Options(slideOptions(n)...).Value(&index)); err != nil {
		return err
	}
	started, err := sess.RegenerateImage(index)
	if err != nil {
		return err
	}
	if !started {
		s.println(warnStyle.Render("That slide's art is already being generated"))
		return nil
	}
	return s.wait(ctx, "Generating slide art", sess)
}

// saveImages writes every slide that has art to the image directory
func (s *Studio) saveImages(sess *session.Session, n int) error {
	saved := 0
	for i := 0; i < n; i++ {
		data, _, name, err := sess.SlideImage(i)
		if errors.Is(err, session.ErrNoImage) {
			continue
		}
		if err != nil {
			return err
		}
		path := filepath.Join(s.outDir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		slog.Debug("Saved slide art", "path", path)
		saved++
	}
	if saved == 0 {
		s.println(warnStyle.Render("No slide art generated yet"))
		return nil
	}
	s.println(successStyle.Render(fmt.Sprintf("✓ Saved %d images to %s", saved, s.outDir)))
	return nil
}

func (s *Studio) copyText(compose func() (string, error)) error {
	text, err := compose()
	if err != nil {
		return err
	}
	if err := s.copy(text); err != nil {
		s.println(warnStyle.Render("Clipboard unavailable, printing instead"))
		s.println(text)
		return nil
	}
	s.println(successStyle.Render("✓ Copied!"))
	return nil
}

func (s *Studio) scriptTab(ctx context.Context, sess *session.Session) error {
	for {
		if sess.ActivateScript() {
			if err := s.wait(ctx, "Writing video script", sess); err != nil {
				return err
			}
		}
		view := sess.Script()
		s.println(renderScript(view))

		options := []huh.Option[string]{}
		switch view.Status {
		case session.StatusReady:
			options = append(options, huh.NewOption("Copy transcript", "copy"))
		case session.StatusFailed:
			options = append(options, failureOptions(view.Error)...)
		}
		options = append(options, huh.NewOption("← Back", actionBack))

		var action string
		if err := runField(ctx, huh.NewSelect[string]().
			Title("Video script").
			Options(options...).
			Value(&action),
		); err != nil {
			return err
		}
		switch action {
		case "copy":
			if err := s.copyText(sess.Transcript); err != nil {
				s.println(errorStyle.Render(err.Error()))
			}
		case actionKey:
			if err := s.promptKey(ctx); err != nil {
				return err
			}
		case actionRetry:
			continue
		default:
			return nil
		}
	}
}

// videoOptions lists what the video tab offers for the current view. Nothing
// is requested until the user picks "Request video".
func videoOptions(view session.VideoView) []huh.Option[string] {
	var options []huh.Option[string]
	switch view.Status {
	case session.StatusLoading:
		options = append(options, huh.NewOption("Wait for video", actionWait))
	case session.StatusReady:
		options = append(options,
			huh.NewOption("Save video", actionSave),
			huh.NewOption("Request another video", actionRequest),
			huh.NewOption("Clear video", actionClear),
		)
	case session.StatusFailed:
		options = append(options, huh.NewOption("Request video", actionRequest))
		if view.Error != nil && view.Error.Kind == gateway.KindAuthConfig {
			options = append(options, huh.NewOption("Enter API key", actionKey))
		}
		options = append(options, huh.NewOption("Clear", actionClear))
	default:
		options = append(options, huh.NewOption("Request video", actionRequest))
	}
	return append(options, huh.NewOption("← Back", actionBack))
}

func (s *Studio) videoTab(ctx context.Context, sess *session.Session) error {
	for {
		view := sess.Video()
		s.println(renderVideo(view))

		var action string
		if err := runField(ctx, huh.NewSelect[string]().
			Title("Video clip").
			Options(videoOptions(view)...).
			Value(&action),
		); err != nil {
			return err
		}

		var err error
		switch action {
		case actionRequest:
			err = s.requestVideo(ctx, sess)
		case actionWait:
			err = s.wait(ctx, "Generating video", sess)
		case actionSave:
			err = s.saveVideo(ctx, view.Video.URI)
		case actionClear:
			sess.ClearVideo()
		case actionKey:
			err = s.promptKey(ctx)
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Studio) requestVideo(ctx context.Context, sess *session.Session) error {
	var prompt string
	if err := runField(ctx, huh.NewInput().
		Title("Video prompt").
		Description("Leave empty to use a default shot for this angle").
		Placeholder("Professional cinematic shot representing: " + sess.PainPoint().Title).
		Value(&prompt),
	); err != nil {
		return err
	}

	if _, err := sess.RequestVideo(prompt); err != nil {
		s.println(errorStyle.Render(err.Error()))
		return nil
	}
	return s.wait(ctx, "Generating video", sess)
}

func (s *Studio) saveVideo(ctx context.Context, uri string) error {
	path := filepath.Join(s.outDir, media.VideoFilename)
	err := runSpinner(ctx, "Downloading video", func(ctx context.Context) error {
		_, err := s.fetcher.Download(ctx, uri, path)
		return err
	})
	if aborted(err) || ctx.Err() != nil {
		return err
	}
	if err != nil {
		s.println(errorStyle.Render(err.Error()))
		return nil
	}
	s.println(successStyle.Render("✓ Saved " + path))
	return nil
}
