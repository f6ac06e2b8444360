package handler

import (
	"net/http"
	"strconv"

	"anoa.com/handchatter/internal/modules/tutor/dto"
	tutor "anoa.com/handchatter/internal/modules/tutor/service"
	"anoa.com/handchatter/pkg/response"
	"github.com/gin-gonic/gin"
)

type TutorHandler struct {
	service tutor.CatalogService
}

func NewTutorHandler(service tutor.CatalogService) *TutorHandler {
	return &TutorHandler{service: service}
}

// List handles GET /api with an optional q description filter.
func (h *TutorHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ValidationError(c, err)
		return
	}

	tutors, err := h.service.List(c.Request.Context(), query.Q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	key := "tutorsInfo"
	if query.Q != "" {
		key = "searchTutorsInfo"
	}
	c.JSON(http.StatusOK, gin.H{key: tutors})
}

// Detail handles GET /api/tutors/:tutorIdx.
func (h *TutorHandler) Detail(c *gin.Context) {
	idx, err := strconv.ParseUint(c.Param("tutorIdx"), 10, 64)
	if err != nil {
		response.ResponseError(c, tutor.ErrTutorNotFound)
		return
	}

	card, err := h.service.Detail(c.Request.Context(), uint(idx))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tutorInfo": card})
}
