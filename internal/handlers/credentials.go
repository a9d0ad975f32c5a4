package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type credentialStatus struct {
	Stored     bool `json:"stored"`
	Configured bool `json:"configured"`
}

type setCredentialRequest struct {
	APIKey string `json:"apiKey" binding:"required"`
}

func (h *Handler) credentialStatus() credentialStatus {
	return credentialStatus{
		Stored:     h.keys.HasStored(),
		Configured: h.keys.APIKey() != "",
	}
}

func (h *Handler) GetCredentials(c *gin.Context) {
	c.JSON(http.StatusOK, h.credentialStatus())
}

func (h *Handler) PutCredentials(c *gin.Context) {
	var req setCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeMessage(c, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if err := h.keys.Set(c.Request.Context(), req.APIKey); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.credentialStatus())
}

func (h *Handler) DeleteCredentials(c *gin.Context) {
	if err := h.keys.Clear(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.credentialStatus())
}
