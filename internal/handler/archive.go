package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seiflotfy/huffman"
	"github.com/seiflotfy/huffman/internal/repo"
	"github.com/seiflotfy/huffman/internal/service"
)

const octetStream = "application/octet-stream"

type ArchiveHandler struct {
	svc *service.ArchiveService
}

func NewArchiveHandler(s *service.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{svc: s}
}

// statusFor maps codec and repo errors to HTTP status codes.
func statusFor(err error) int {
	var (
		inputErr *huffman.InputError
		decErr   *huffman.DecodingError
	)
	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest
	case errors.As(err, &decErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, repo.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func (h *ArchiveHandler) Create(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sum, err := h.svc.Create(c.Request.Context(), data)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, sum)
}

func (h *ArchiveHandler) GetByID(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.Data(http.StatusOK, octetStream, rec.Data)
}

func (h *ArchiveHandler) Content(c *gin.Context) {
	out, err := h.svc.Content(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.Data(http.StatusOK, octetStream, out)
}

func (h *ArchiveHandler) Compress(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	archive, err := h.svc.Compress(c.Request.Context(), data)
	if err != nil {
		abort(c, err)
		return
	}
	c.Data(http.StatusOK, octetStream, archive)
}

func (h *ArchiveHandler) Decompress(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.svc.Decompress(c.Request.Context(), data)
	if err != nil {
		abort(c, err)
		return
	}
	c.Data(http.StatusOK, octetStream, out)
}
