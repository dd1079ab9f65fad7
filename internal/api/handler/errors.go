package handler

import (
	"net/http"
	"ouvidoria/backend/internal/complaint"

	"github.com/gin-gonic/gin"
)

const (
	codeInvalidRequest = "invalid_request"
	codeUnauthorized   = "unauthorized"
	codeInternal       = "internal_error"
	codeRateLimited    = "rate_limited"
)

func statusFor(kind complaint.Kind) int {
	switch kind {
	case complaint.KindInvalidNationalID, complaint.KindInvalidEnrollmentID, complaint.KindMissingRequiredField:
		return http.StatusBadRequest
	case complaint.KindEnrollmentNotEligible:
		return http.StatusUnprocessableEntity
	case complaint.KindNotFound:
		return http.StatusNotFound
	case complaint.KindEligibilityUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the localized error body for a registry error.
func (h *Handler) abortWithError(c *gin.Context, err error) {
	kind := complaint.KindOf(err)
	if kind == "" {
		h.Logger.Error("unexpected handler error", "path", c.FullPath(), "error", err)
		h.abortWithCode(c, http.StatusInternalServerError, codeInternal)
		return
	}
	h.abortWithCode(c, statusFor(kind), string(kind))
}

func (h *Handler) abortWithCode(c *gin.Context, status int, code string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": h.message(c, code),
		"code":  code,
	})
}

func (h *Handler) message(c *gin.Context, key string) string {
	lang := h.Localizer.Match(c.GetHeader("Accept-Language"))
	return h.Localizer.GetString(lang, key)
}
