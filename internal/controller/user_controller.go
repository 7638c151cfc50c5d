package controller

import (
	"context"
	"net/http"
	"strconv"

	"ecommerce-backend/internal/dto"
	"ecommerce-backend/internal/middleware"
	"ecommerce-backend/internal/model"
	"ecommerce-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserService interface {
	Create(ctx context.Context, role model.Role, in service.CreateUserInput) (*model.User, error)
	List(ctx context.Context, role model.Role, includeDeleted bool) ([]*model.User, error)
	Get(ctx context.Context, actor *model.Actor, role model.Role, id string) (*model.User, error)
	Update(ctx context.Context, actor *model.Actor, role model.Role, id string, in service.UpdateUserInput) (*model.User, error)
	SoftDelete(ctx context.Context, role model.Role, id string) (*model.User, error)
	Restore(ctx context.Context, role model.Role, id string) (*model.User, error)
	Delete(ctx context.Context, role model.Role, id string) error
}

// UserController serves one account role; the /user and /staff route groups
// each get their own instance.
type UserController struct {
	Service UserService
	role    model.Role
	log     *zap.Logger
}

func NewUserController(s UserService, role model.Role, log *zap.Logger) *UserController {
	return &UserController{Service: s, role: role, log: log}
}

func (ctl *UserController) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := ctl.Service.Create(c.Request.Context(), ctl.role, service.CreateUserInput{
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusCreated, "Account created successfully", gin.H{"user": u})
}

// List accepts ?includeDeleted=true to show soft-deleted accounts.
func (ctl *UserController) List(c *gin.Context) {
	includeDeleted, _ := strconv.ParseBool(c.Query("includeDeleted"))
	users, err := ctl.Service.List(c.Request.Context(), ctl.role, includeDeleted)
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	if users == nil {
		users = []*model.User{}
	}
	ok(c, http.StatusOK, "", gin.H{"users": users})
}

func (ctl *UserController) Get(c *gin.Context) {
	u, err := ctl.Service.Get(c.Request.Context(), middleware.CurrentActor(c), ctl.role, c.Param("userId"))
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"user": u})
}

func (ctl *UserController) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := ctl.Service.Update(c.Request.Context(), middleware.CurrentActor(c), ctl.role, c.Param("userId"), service.UpdateUserInput{
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Account updated successfully", gin.H{"user": u})
}

func (ctl *UserController) SoftDelete(c *gin.Context) {
	u, err := ctl.Service.SoftDelete(c.Request.Context(), ctl.role, c.Param("userId"))
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Account deleted successfully", gin.H{"user": u})
}

func (ctl *UserController) Restore(c *gin.Context) {
	u, err := ctl.Service.Restore(c.Request.Context(), ctl.role, c.Param("userId"))
	if err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Account restored successfully", gin.H{"user": u})
}

func (ctl *UserController) Delete(c *gin.Context) {
	if err := ctl.Service.Delete(c.Request.Context(), ctl.role, c.Param("userId")); err != nil {
		fail(c, ctl.log, err)
		return
	}
	ok(c, http.StatusOK, "Account permanently deleted", nil)
}
