package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/genaiplatform/backend/internal/auth"
	"github.com/genaiplatform/backend/internal/services"
)

type ProfileHandler struct {
	services *services.Container
}

func NewProfileHandler(s *services.Container) *ProfileHandler {
	return &ProfileHandler{services: s}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	user := auth.CurrentUser(c)

	profile, err := h.services.Profile.Get(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

type profileRequest struct {
	FullName   *string `json:"full_name" binding:"omitempty,max=255"`
	Phone      *string `json:"phone" binding:"omitempty,max=20"`
	Address    *string `json:"address" binding:"omitempty,max=255"`
	City       *string `json:"city" binding:"omitempty,max=100"`
	State      *string `json:"state" binding:"omitempty,max=100"`
	Country    *string `json:"country" binding:"omitempty,max=100"`
	PostalCode *string `json:"postal_code" binding:"omitempty,max=20"`
	Company    *string `json:"company" binding:"omitempty,max=255"`
	JobTitle   *string `json:"job_title" binding:"omitempty,max=255"`
	Avatar     *string `json:"avatar" binding:"omitempty,url,max=500"`
	Bio        *string `json:"bio" binding:"omitempty,max=1000"`
}

func (h *ProfileHandler) Update(c *gin.Context) {
	user := auth.CurrentUser(c)

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.services.Profile.Upsert(user.ID, &services.ProfileInput{
		FullName:   req.FullName,
		Phone:      req.Phone,
		Address:    req.Address,
		City:       req.City,
		State:      req.State,
		Country:    req.Country,
		PostalCode: req.PostalCode,
		Company:    req.Company,
		JobTitle:   req.JobTitle,
		Avatar:     req.Avatar,
		Bio:        req.Bio,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
