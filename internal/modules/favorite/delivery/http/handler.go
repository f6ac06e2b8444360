package handler

import (
	"net/http"

	"anoa.com/handchatter/internal/modules/favorite/dto"
	favorite "anoa.com/handchatter/internal/modules/favorite/service"
	"anoa.com/handchatter/pkg/response"
	"github.com/gin-gonic/gin"
)

type FavoriteHandler struct {
	service favorite.FavoriteService
}

func NewFavoriteHandler(service favorite.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{service: service}
}

// Add handles POST /api/favorites.
func (h *FavoriteHandler) Add(c *gin.Context) {
	principal, err := response.GetPrincipal(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.FavoriteInput
	if err := c.ShouldBind(&input); err != nil {
		response.ValidationError(c, err)
		return
	}

	if err := h.service.Add(c.Request.Context(), principal, input.TutorIdx); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Message(c, "added to favorites", nil)
}

// Remove handles DELETE /api/favorites.
func (h *FavoriteHandler) Remove(c *gin.Context) {
	principal, err := response.GetPrincipal(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.FavoriteInput
	if err := c.ShouldBind(&input); err != nil {
		response.ValidationError(c, err)
		return
	}

	if err := h.service.Remove(c.Request.Context(), principal, input.TutorIdx); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Message(c, "removed from favorites", nil)
}

// List handles POST /api/favoritesTutor.
func (h *FavoriteHandler) List(c *gin.Context) {
	principal, err := response.GetPrincipal(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	tutors, err := h.service.List(c.Request.Context(), principal)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favoritesTutor": tutors})
}
