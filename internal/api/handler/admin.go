package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type responseRequest struct {
	Response string `json:"response"`
}

// ListComplaints handles GET /admin/complaints.
func (h *Handler) ListComplaints(c *gin.Context) {
	c.JSON(http.StatusOK, h.Registry.ListAll(c.Request.Context()))
}

// AttachResponse handles POST /admin/complaints/:protocol/response.
func (h *Handler) AttachResponse(c *gin.Context) {
	var req responseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abortWithCode(c, http.StatusBadRequest, codeInvalidRequest)
		return
	}

	p := c.Param("protocol")
	if err := h.Registry.AttachResponse(c.Request.Context(), p, req.Response); err != nil {
		h.abortWithError(c, err)
		return
	}

	h.Logger.Info("admin response attached", "protocol", p, "admin", c.GetString(adminSubjectKey))
	c.JSON(http.StatusOK, gin.H{
		"protocol": p,
		"message":  h.message(c, "response_saved"),
	})
}
