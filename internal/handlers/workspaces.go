package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lehigh-university-libraries/coursemarketer/internal/models"
	"github.com/lehigh-university-libraries/coursemarketer/internal/workflow"
)

type workspaceResponse struct {
	ID string `json:"id"`
	workflow.Snapshot
}

func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *Handler) CreateWorkspace(c *gin.Context) {
	m := h.newMachine()
	id := h.workspaces.Create(m)
	c.JSON(http.StatusCreated, workspaceResponse{ID: id, Snapshot: m.Snapshot()})
}

func (h *Handler) GetWorkspace(c *gin.Context) {
	m, ok := h.workspaceOrError(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, workspaceResponse{ID: c.Param("id"), Snapshot: m.Snapshot()})
}

func (h *Handler) DeleteWorkspace(c *gin.Context) {
	if _, ok := h.workspaceOrError(c); !ok {
		return
	}
	h.workspaces.Delete(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// SubmitCourse blocks until the strategy analysis finishes
func (h *Handler) SubmitCourse(c *gin.Context) {
	m, ok := h.workspaceOrError(c)
	if !ok {
		return
	}

	var course models.CourseInfo
	if err := c.ShouldBindJSON(&course); err != nil {
		h.writeMessage(c, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if err := m.Submit(c.Request.Context(), course); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, workspaceResponse{ID: c.Param("id"), Snapshot: m.Snapshot()})
}

func (h *Handler) SelectStrategy(c *gin.Context) {
	m, ok := h.workspaceOrError(c)
	if !ok {
		return
	}
	if _, err := m.Select(c.Request.Context(), c.Param("painPointID")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, workspaceResponse{ID: c.Param("id"), Snapshot: m.Snapshot()})
}

func (h *Handler) Back(c *gin.Context) {
	m, ok := h.workspaceOrError(c)
	if !ok {
		return
	}
	m.Back()
	c.JSON(http.StatusOK, workspaceResponse{ID: c.Param("id"), Snapshot: m.Snapshot()})
}
