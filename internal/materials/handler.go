package materials

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"study-backend/internal/shared/server/middleware"
	"study-backend/internal/shared/server/respond"
)

const maxUploadSize = 20 << 20 // 20MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches material routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/materials", h.create)
	rg.GET("/materials", h.list)
	rg.DELETE("/materials", h.clear)
	rg.GET("/materials/:id", h.get)
	rg.GET("/materials/:id/contents", h.contents)
}

func (h *Handler) create(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		h.upload(c)
		return
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.FileURL) != "" {
		h.register(c, req)
		return
	}

	m, err := h.Svc.CreateText(c.Request.Context(), TextInput{
		UserID:    middleware.UserIDFromContext(c),
		Title:     req.Title,
		Content:   req.Content,
		RequestID: middleware.RequestIDFromContext(c),
	})
	if err != nil {
		h.writeError(c, err, "failed to create material")
		return
	}
	c.Set("materialId", m.ID)
	respond.JSON(c, http.StatusCreated, toResponse(m))
}

func (h *Handler) register(c *gin.Context, req createRequest) {
	m, err := h.Svc.RegisterUpload(c.Request.Context(), RegisterInput{
		UserID:    middleware.UserIDFromContext(c),
		Title:     req.Title,
		FileURL:   req.FileURL,
		RequestID: middleware.RequestIDFromContext(c),
	})
	if err != nil {
		h.writeError(c, err, "failed to register material")
		return
	}
	c.Set("materialId", m.ID)
	respond.JSON(c, http.StatusCreated, toResponse(m))
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	m, err := h.Svc.Upload(c.Request.Context(), UploadInput{
		UserID:    middleware.UserIDFromContext(c),
		Title:     c.PostForm("title"),
		FileName:  fileHeader.Filename,
		RequestID: middleware.RequestIDFromContext(c),
		Body:      file,
	})
	if err != nil {
		h.writeError(c, err, "failed to upload material")
		return
	}
	c.Set("materialId", m.ID)
	respond.JSON(c, http.StatusCreated, toResponse(m))
}

func (h *Handler) list(c *gin.Context) {
	limit := 0
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		h.writeError(c, err, "failed to list materials")
		return
	}

	resp := make([]MaterialResponse, 0, len(items))
	for _, m := range items {
		resp = append(resp, toResponse(m))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("materialId", id)

	m, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		h.writeError(c, err, "failed to fetch material")
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(m))
}

func (h *Handler) contents(c *gin.Context) {
	id := c.Param("id")
	c.Set("materialId", id)

	limit := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	items, err := h.Svc.GeneratedFor(c.Request.Context(), middleware.UserIDFromContext(c), id, limit)
	if err != nil {
		h.writeError(c, err, "failed to list generated content")
		return
	}

	resp := make([]ContentResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toContentResponse(item))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) clear(c *gin.Context) {
	deleted, err := h.Svc.Clear(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		h.writeError(c, err, "failed to clear materials")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"deleted": deleted})
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "material not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
