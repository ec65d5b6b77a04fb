package processor

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"study-backend/internal/shared/server/middleware"
)

// FunctionPath is the route of the processing function.
const FunctionPath = "/functions/v1/ai-study-processor"

const fallbackErrorMessage = "An error occurred processing the study material"

// maxRequestBytes bounds a job body, inline image data URLs included.
const maxRequestBytes = 25 << 20

// Handler exposes the processing function over HTTP.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// ErrorResponse is the failure body of the processing function.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Process handles one job request. Every failure is reported as 500 with a flat error body.
func (h *Handler) Process(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes)
	var req Request
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Invalid JSON body"})
		return
	}
	c.Set("materialId", req.MaterialID)
	c.Set("contentType", req.ContentType)

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	ctx = WithCallerID(ctx, middleware.UserIDFromContext(c))
	resp, err := h.Svc.Process(ctx, req)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = fallbackErrorMessage
		}
		c.Set("errorKind", ErrorKind(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msg})
		return
	}
	c.JSON(http.StatusOK, resp)
}
