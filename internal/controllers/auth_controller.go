package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"auth-be/internal/apperror"
	"auth-be/internal/middleware"
	"auth-be/internal/models"
	"auth-be/internal/service"
)

type AuthController struct {
	authService service.AuthService
	baseURL     string // Root of reset links; empty derives it from the request
}

func NewAuthController(authService service.AuthService, baseURL string) *AuthController {
	return &AuthController{
		authService: authService,
		baseURL:     baseURL,
	}
}

// RegisterRoutes mounts the authentication endpoints on rg. requireAuth
// guards the endpoints that need a session.
func (ac *AuthController) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	rg.POST("/signUp", ac.SignUp)
	rg.POST("/login", ac.Login)
	rg.POST("/forgotPassword", ac.ForgotPassword)
	rg.PATCH("/resetPassword/:resetToken", ac.ResetPassword)

	protected := rg.Group("")
	protected.Use(requireAuth)
	{
		protected.GET("/getUserData", ac.GetUserData)
		protected.PATCH("/changePassword", ac.ChangePassword)
	}
}

// bindJSON decodes the request body into obj. An empty body leaves obj
// zero-valued so that field validation reports what is missing.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		c.Error(apperror.New(apperror.Validation, "Invalid request body", err))
		return false
	}
	return true
}

// SignUp handles POST /authentication/signUp
func (ac *AuthController) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := ac.authService.SignUp(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// Login handles POST /authentication/login
func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := ac.authService.Login(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetUserData handles GET /authentication/getUserData
func (ac *AuthController) GetUserData(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.Error(apperror.NewUnexpected("no user in request context", nil))
		return
	}

	c.JSON(http.StatusOK, models.UserDataResponse{
		Status: models.StatusSuccess,
		Data: models.UserDataBody{
			User: models.NewUserProfile(user),
			Data: "Your data",
		},
	})
}

// ChangePassword handles PATCH /authentication/changePassword
func (ac *AuthController) ChangePassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.Error(apperror.NewUnexpected("no user in request context", nil))
		return
	}

	var req models.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := ac.authService.ChangePassword(c.Request.Context(), user, &req); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{
		Status:  models.StatusSuccess,
		Message: "Password updated.",
	})
}

// ForgotPassword handles POST /authentication/forgotPassword
func (ac *AuthController) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := ac.authService.ForgotPassword(c.Request.Context(), &req, ac.resetBaseURL(c)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{
		Status:  models.StatusSuccess,
		Message: "Your token has been sent to your email",
	})
}

// ResetPassword handles PATCH /authentication/resetPassword/:resetToken
func (ac *AuthController) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := ac.authService.ResetPassword(c.Request.Context(), c.Param("resetToken"), &req); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{
		Status:  models.StatusSuccess,
		Message: "Your password has been reset.",
	})
}

func (ac *AuthController) resetBaseURL(c *gin.Context) string {
	if ac.baseURL != "" {
		return ac.baseURL
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	// gin resolves a client IP from forwarding headers only for trusted proxies.
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" && c.ClientIP() != c.RemoteIP() {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}
