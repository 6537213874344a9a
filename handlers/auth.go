package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billsync/billsync_backend/models"
	"github.com/billsync/billsync_backend/utils"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var input models.NewUser
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondBindError(c, err)
		return
	}

	user, err := models.CreateUser(c.Request.Context(), h.DB, input)
	if err != nil {
		h.respondError(c, "Auth", "Register", err)
		return
	}

	token, err := utils.JwtGenerate(user.ID, user.Email, user.Role)
	if err != nil {
		h.respondError(c, "Auth", "Register", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "user": user})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	user, err := models.AuthenticateUser(c.Request.Context(), h.DB, req.Email, req.Password)
	if err != nil {
		h.respondError(c, "Auth", "Login", err)
		return
	}

	token, err := utils.JwtGenerate(user.ID, user.Email, user.Role)
	if err != nil {
		h.respondError(c, "Auth", "Login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "user": user})
}

func (h *Handler) Me(c *gin.Context) {
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok {
		h.respondError(c, "Auth", "Me", utils.Unauthorized("unauthorized"))
		return
	}

	user, err := models.GetUser(c.Request.Context(), h.DB, userId)
	if err != nil {
		h.respondError(c, "Auth", "Me", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok {
		h.respondError(c, "Auth", "ChangePassword", utils.Unauthorized("unauthorized"))
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	err := models.ChangeUserPassword(c.Request.Context(), h.DB, userId, req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.respondError(c, "Auth", "ChangePassword", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
