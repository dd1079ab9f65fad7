package handler

import (
	"net/http"
	"ouvidoria/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// RegisterComplaint handles POST /complaints.
func (h *Handler) RegisterComplaint(c *gin.Context) {
	var in models.RegistrationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.abortWithCode(c, http.StatusBadRequest, codeInvalidRequest)
		return
	}

	p, err := h.Registry.Register(c.Request.Context(), in)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"protocol": p})
}

// GetComplaint handles GET /complaints/:protocol.
func (h *Handler) GetComplaint(c *gin.Context) {
	rec, err := h.Registry.GetByProtocol(c.Request.Context(), c.Param("protocol"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// SearchComplaints handles GET /complaints?national_id= and ?enrollment_id=.
// Exactly one of the two filters must be given.
func (h *Handler) SearchComplaints(c *gin.Context) {
	nationalID, byNational := c.GetQuery("national_id")
	enrollmentID, byEnrollment := c.GetQuery("enrollment_id")
	if byNational == byEnrollment {
		h.abortWithCode(c, http.StatusBadRequest, codeInvalidRequest)
		return
	}

	var (
		recs []models.Complaint
		err  error
	)
	if byNational {
		recs, err = h.Registry.FindByNationalID(c.Request.Context(), nationalID)
	} else {
		recs, err = h.Registry.FindByEnrollmentID(c.Request.Context(), enrollmentID)
	}
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}
