package controller

import (
	"context"
	"net/http"

	"ecommerce-backend/internal/dto"
	"ecommerce-backend/internal/middleware"
	"ecommerce-backend/internal/model"
	"ecommerce-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	ChangePassword(ctx context.Context, actor *model.Actor, current, next string) error
	ForgotPassword(ctx context.Context, email string) (*model.PasswordResetRequest, error)
	ResetPassword(ctx context.Context, code, password string) error
}

type AuthController struct {
	Service AuthService
	log     *zap.Logger
}

func NewAuthController(s AuthService, log *zap.Logger) *AuthController {
	return &AuthController{Service: s, log: log}
}

// POST /auth/login
func (ctl *AuthController) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := ctl.Service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Login successful", gin.H{"accessToken": res.AccessToken, "user": res.User})
}

// PATCH /auth/change-password
func (ctl *AuthController) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := ctl.Service.ChangePassword(c.Request.Context(), middleware.CurrentActor(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Password changed successfully", nil)
}

// POST /auth/forgot-password. The reset code is only delivered by mail.
func (ctl *AuthController) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reset, err := ctl.Service.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Password reset link sent to your email", gin.H{"expiresAt": reset.ExpiresAt})
}

// POST /auth/reset-password
func (ctl *AuthController) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := ctl.Service.ResetPassword(c.Request.Context(), req.Code, req.Password); err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Password reset successfully", nil)
}
