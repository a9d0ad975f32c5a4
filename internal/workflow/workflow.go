// Package workflow is the three-screen flow: course input, strategy
// selection and content generation. Exactly one state is active at a time.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lehigh-university-libraries/coursemarketer/internal/gateway"
	"github.com/lehigh-university-libraries/coursemarketer/internal/models"
	"github.com/lehigh-university-libraries/coursemarketer/internal/session"
)

type State string

const (
	StateInputCourse     State = "INPUT_COURSE"
	StateSelectStrategy  State = "SELECT_STRATEGY"
	StateGenerateContent State = "GENERATE_CONTENT"
)

var (
	ErrBusy         = errors.New("a course analysis is already in progress")
	ErrWrongState   = errors.New("action is not available in the current state")
	ErrInvalidInput = errors.New("invalid course")
	ErrUnknownAngle = errors.New("unknown pain point")
)

// Generator is everything the flow asks of the AI gateway
type Generator interface {
	session.Generator
	AnalyzeStrategies(ctx context.Context, course models.CourseInfo) ([]models.PainPoint, error)
}

// Snapshot is an immutable view of the machine for rendering
type Snapshot struct {
	State      State              `json:"state"`
	Pending    bool               `json:"pending"`
	Error      *session.TaskError `json:"error,omitempty"`
	Course     *models.CourseInfo `json:"course,omitempty"`
	Draft      *models.CourseInfo `json:"draft,omitempty"`
	PainPoints []models.PainPoint `json:"painPoints,omitempty"`
	Selected   *models.PainPoint  `json:"selected,omitempty"`
}

type Machine struct {
	gen      Generator
	sessOpts []session.Option

	mu         sync.Mutex
	state      State
	pending    bool
	err        error
	course     *models.CourseInfo
	draft      *models.CourseInfo
	painPoints []models.PainPoint
	selected   *models.PainPoint
	session    *session.Session
}

func New(gen Generator, opts ...session.Option) *Machine {
	return &Machine{gen: gen, sessOpts: opts, state: StateInputCourse}
}

// Submit validates the course and analyzes it. Invalid input is rejected
// before any provider call and leaves the machine untouched. On failure the
// machine stays on the input screen with the course kept for editing.
func (m *Machine) Submit(ctx context.Context, course models.CourseInfo) error {
	if err := models.Validate(course); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	m.mu.Lock()
	if m.state != StateInputCourse {
		m.mu.Unlock()
		return ErrWrongState
	}
	if m.pending {
		m.mu.Unlock()
		return ErrBusy
	}
	m.pending = true
	m.err = nil
	m.draft = &course
	m.mu.Unlock()

	painPoints, err := m.gen.AnalyzeStrategies(ctx, course)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = false
	if err != nil {
		slog.Error("Strategy analysis failed", "course", course.Title, "kind", gateway.KindOf(err), "err", err)
		m.err = err
		return err
	}

	m.course = &course
	m.painPoints = painPoints
	m.state = StateSelectStrategy
	return nil
}

// Select starts a generation session for one of the analyzed pain points
func (m *Machine) Select(ctx context.Context, painPointID string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateSelectStrategy {
		return nil, ErrWrongState
	}

	for i := range m.painPoints {
		if m.painPoints[i].ID != painPointID {
			continue
		}
		pp := m.painPoints[i]
		m.selected = &pp
		m.session = session.New(context.WithoutCancel(ctx), m.gen, *m.course, pp, m.sessOpts...)
		m.state = StateGenerateContent
		slog.Info("Strategy selected", "course", m.course.Title, "pain_point", pp.ID)
		return m.session, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAngle, painPointID)
}

// Back moves one screen back and reports the new state
func (m *Machine) Back() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateGenerateContent:
		m.session.Discard()
		m.session = nil
		m.selected = nil
		m.state = StateSelectStrategy
	case StateSelectStrategy:
		m.painPoints = nil
		m.course = nil
		m.err = nil
		m.state = StateInputCourse
	}
	return m.state
}

// Session is the active generation session, nil outside GENERATE_CONTENT
func (m *Machine) Session() *session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		State:      m.state,
		Pending:    m.pending,
		PainPoints: append([]models.PainPoint(nil), m.painPoints...),
	}
	if m.err != nil {
		kind := gateway.KindOf(m.err)
		snap.Error = &session.TaskError{Kind: kind, Message: gateway.UserMessage(kind)}
	}
	if m.course != nil {
		c := *m.course
		snap.Course = &c
	}
	if m.draft != nil {
		d := *m.draft
		snap.Draft = &d
	}
	if m.selected != nil {
		s := *m.selected
		snap.Selected = &s
	}
	return snap
}

// Close discards any active session
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session.Discard()
	}
}
