package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lehigh-university-libraries/coursemarketer/internal/export"
	"github.com/lehigh-university-libraries/coursemarketer/internal/session"
)

type slidesResponse struct {
	session.SlidesView
	Tips []string `json:"tips"`
}

type editSlideRequest struct {
	Field string `json:"field" binding:"required,oneof=headline subtext"`
	Value string `json:"value"`
}

type videoRequest struct {
	Prompt string `json:"prompt"`
}

type textResponse struct {
	Text string `json:"text"`
}

// GetSlides starts slide generation on first visit and returns the carousel
func (h *Handler) GetSlides(c *gin.Context) {
	s, ok := h.sessionOrError(c)
	if !ok {
		return
	}
	s.ActivateSlides()
	c.JSON(http.StatusOK, slidesResponse{
		SlidesView: s.Slides(),
		Tips:       export.TrafficTips(s.PainPoint()),
	})
}

func (h *Handler) EditSlide(c *gin.Context) {
	s, ok := h.sessionOrError(c)
	if !ok {
		return
	}
	index, ok := h.slideIndex(c)
	if !ok {
		return
	}

	var req editSlideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeMessage(c, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if err := s.EditSlide(index, req.Field, req.Value); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Slides().Slides[index])
}

func (h *Handler) RegenerateImage(c *gin.Context) {
	s, ok := h.sessionOrError(c)
	if !ok {
		return
	}
	index, ok := h.slideIndex(c)
	if !ok {
		return
	}

	started, err := s.RegenerateImage(index)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !started {
		h.writeMessage(c, http.StatusConflict, "Image is already being generated")
		return
	}
	c.JSON(http.StatusAccepted, s.Slides().Slides[index])
}

func (h *Handler) GenerateAllImages(c *gin.Context) {
	s, ok := h.sessionOrError(c)
	if !ok {
		return
	}
	n, err := s.GenerateAllImages()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"started": n})
}

func (h *Handler) DownloadImage(c *gin.Context) {
	s, ok := h.sessionOrError(c)
	if !ok {
		return
	}
	index, ok := h.slideIndex(c)
	if !ok {
		return
	}

	data, mimeType, filename, err := s.SlideImage(index)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	c.Data(http.StatusOK, mimeType, data)
}

func (h *Handler) GetCaption(c *gin.Context) {
	s, ok := h.sessionOrError(c)
	if !ok {
		return
	}
	text, err := s.Caption()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, textResponse{Text: text})
}

// GetScript starts script generation on first visit
func (h *Handler) GetScript(c *gin.Context) {
	s, ok := h.sessionOrError(c)
	if !ok {
		return
	}
	s.ActivateScript()
	c.JSON(http.StatusOK, s.Script())
}

func (h *Handler) GetTranscript(c *gin.Context) {
	s, ok := h.sessionOrError(c)
	if !ok {
		return
	}
	text, err := s.Transcript()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, textResponse{Text: text})
}

func (h *Handler) RequestVideo(c *gin.Context) {
	s, ok := h.sessionOrError(c)
	if !ok {
		return
	}

	var req videoRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeMessage(c, http.StatusBadRequest, "Invalid JSON: "+err.Error())
			return
		}
	}
	if _, err := s.RequestVideo(req.Prompt); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, s.Video())
}

func (h *Handler) GetVideo(c *gin.Context) {
	s, ok := h.sessionOrError(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Video())
}

func (h *Handler) ClearVideo(c *gin.Context) {
	s, ok := h.sessionOrError(c)
	if !ok {
		return
	}
	s.ClearVideo()
	c.JSON(http.StatusOK, s.Video())
}
