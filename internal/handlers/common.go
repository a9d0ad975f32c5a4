package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lehigh-university-libraries/coursemarketer/internal/gateway"
	"github.com/lehigh-university-libraries/coursemarketer/internal/session"
	"github.com/lehigh-university-libraries/coursemarketer/internal/storage"
	"github.com/lehigh-university-libraries/coursemarketer/internal/workflow"
)

// KeyStore is the credential store as seen by the API
type KeyStore interface {
	Set(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	HasStored() bool
	APIKey() string
}

type Handler struct {
	workspaces *storage.WorkspaceStore
	keys       KeyStore
	newMachine func() *workflow.Machine
}

func New(workspaces *storage.WorkspaceStore, keys KeyStore, newMachine func() *workflow.Machine) *Handler {
	return &Handler{
		workspaces: workspaces,
		keys:       keys,
		newMachine: newMachine,
	}
}

type errorBody struct {
	Error string       `json:"error"`
	Kind  gateway.Kind `json:"kind,omitempty"`
}

// writeError maps domain and gateway failures onto HTTP statuses
func (h *Handler) writeError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "path", c.FullPath(), "status", status, "err", err)
	} else {
		slog.Debug("Request rejected", "path", c.FullPath(), "status", status, "err", err)
	}
	c.AbortWithStatusJSON(status, body)
}

func errorResponse(err error) (int, errorBody) {
	var gerr *gateway.Error
	if errors.As(err, &gerr) {
		body := errorBody{Error: gateway.UserMessage(gerr.Kind), Kind: gerr.Kind}
		switch gerr.Kind {
		case gateway.KindAuthConfig:
			return http.StatusUnauthorized, body
		case gateway.KindPaidTierRequired:
			return http.StatusPaymentRequired, body
		default:
			return http.StatusBadGateway, body
		}
	}

	body := errorBody{Error: err.Error()}
	switch {
	case errors.Is(err, workflow.ErrInvalidInput), errors.Is(err, session.ErrField):
		return http.StatusBadRequest, body
	case errors.Is(err, workflow.ErrUnknownAngle), errors.Is(err, session.ErrSlideIndex), errors.Is(err, session.ErrNoImage):
		return http.StatusNotFound, body
	case errors.Is(err, workflow.ErrBusy),
		errors.Is(err, workflow.ErrWrongState),
		errors.Is(err, session.ErrNotReady),
		errors.Is(err, session.ErrVideoBusy),
		errors.Is(err, session.ErrDiscarded):
		return http.StatusConflict, body
	default:
		return http.StatusInternalServerError, body
	}
}

func (h *Handler) writeMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorBody{Error: message})
}

// Workspace helpers
func (h *Handler) workspaceOrError(c *gin.Context) (*workflow.Machine, bool) {
	m, ok := h.workspaces.Get(c.Param("id"))
	if !ok {
		h.writeMessage(c, http.StatusNotFound, "Workspace not found")
		return nil, false
	}
	return m, true
}

func (h *Handler) sessionOrError(c *gin.Context) (*session.Session, bool) {
	m, ok := h.workspaceOrError(c)
	if !ok {
		return nil, false
	}
	s := m.Session()
	if s == nil {
		h.writeMessage(c, http.StatusConflict, "No strategy selected")
		return nil, false
	}
	return s, true
}

// slideIndex reads the 1-based slide number from the path
func (h *Handler) slideIndex(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("index"))
	if err != nil || n < 1 {
		h.writeMessage(c, http.StatusBadRequest, "Invalid slide number")
		return 0, false
	}
	return n - 1, true
}
