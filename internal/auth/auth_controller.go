package auth

import (
	"errors"
	"github.com/gin-gonic/gin"
	"io"
	"milk2meat/internal/api"
	"milk2meat/internal/environment"
	"milk2meat/internal/logging"
	"milk2meat/internal/middlewares"
	"milk2meat/internal/models"
	"milk2meat/internal/turnstile"
	"net/http"
)

// Api defines the set of authentication-related endpoints exposed by the system.
//
// @Summary Authentication API
type Api interface {

	// Login verifies the Turnstile token and the credentials and issues an access token
	Login(c *gin.Context)

	// RefreshToken replaces a valid token with a new one and revokes the old one
	RefreshToken(c *gin.Context)

	// Logout revokes the presented token
	Logout(c *gin.Context)

	// Me returns the authenticated user
	Me(c *gin.Context)
}

// Controller wires environment dependencies with authentication service methods.
// It fulfills the Api interface and delegates business logic to AuthService.
type Controller struct {
	*environment.Env
	*AuthService
}

// ensure Controller implements Api
var _ Api = &Controller{}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Login issues a token for valid credentials.
//
// @ID login
// @Summary Log in with email and password
// @Tags auth
// @Router /auth/login [post]
// @Param data body api.LoginRequest true "Credentials and the Turnstile response token"
// @Success		200	{object}	api.RestJsonResponse{data=TokenResponse}
// @Failure 400 {object} api.RestJsonErrorResponse
// @Failure 401 {object} api.RestJsonErrorResponse
func (ac *Controller) Login(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		ac.LogErrorf(logging.GetLogTypeAuth(), "Error reading login info: %v", err)
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, api.NewErrorResponse("Error reading login info"))
		return
	}

	request := api.GenericRequest{}
	err = request.Load(body)
	if err != nil {
		ac.LogErrorf(logging.GetLogTypeAuth(), "Error loading request data: %v", err)
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, api.NewErrorResponse("Error reading login info"))
		return
	}

	login := api.LoginRequest{}
	err = request.DecodeDataTo(&login)
	if err != nil {
		ac.LogErrorf(logging.GetLogTypeAuth(), "Error loading login data: %v", err)
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, api.NewErrorResponse("Error reading login info"))
		return
	}

	verified, err := ac.Verifier.Verify(c.Request.Context(), login.TurnstileToken, c.ClientIP())
	switch {
	case errors.Is(err, turnstile.ErrNotConfigured):
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("Security verification is not configured"))
		return
	case err != nil:
		ac.LogErrorf(logging.GetLogTypeAuth(), "Turnstile validation error: %v", err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, api.NewErrorResponse("Security verification service unavailable. Please try again later."))
		return
	case !verified:
		c.AbortWithStatusJSON(http.StatusBadRequest, api.NewErrorResponse("Security verification failed. Please try again."))
		return
	}

	user := models.User{Email: login.Email, Password: login.Password}
	user.Prepare()
	err = user.Validate()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, api.NewErrorResponsef("Error validating login: %v", err))
		return
	}

	err = ac.DoLogin(c.Request.Context(), &user)
	if errors.Is(err, ErrInvalidCredentials) {
		ac.LogInfof(logging.GetLogTypeAuth(), "failed login for %s", user.Email)
		c.AbortWithStatusJSON(http.StatusUnauthorized, api.NewErrorResponse("Login not successful"))
		return
	}
	if err != nil {
		ac.LogErrorf(logging.GetLogTypeAuth(), "Error during login: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("Login not successful"))
		return
	}

	token, expiresAt, err := ac.IssueToken(&user)
	if err != nil {
		ac.LogErrorf(logging.GetLogTypeAuth(), "Error creating JWT: %v", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, api.NewErrorResponse("Error creating JWT"))
		return
	}

	c.JSON(http.StatusOK, api.NewGenericResponse(api.Success, "", TokenResponse{Token: token, ExpiresAt: expiresAt.Unix()}))
}

func (ac *Controller) RefreshToken(c *gin.Context) {
	claims, ok := middlewares.CurrentClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, api.NewErrorResponse("An authorization token was not supplied"))
		return
	}

	token, expiresAt, err := ac.Refresh(c.Request.Context(), claims)
	if err != nil {
		ac.LogErrorf(logging.GetLogTypeAuth(), "Error refreshing JWT: %v", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, api.NewErrorResponse("Error refreshing JWT"))
		return
	}

	c.JSON(http.StatusOK, api.NewGenericResponse(api.Success, "", TokenResponse{Token: token, ExpiresAt: expiresAt.Unix()}))
}

func (ac *Controller) Logout(c *gin.Context) {
	claims, ok := middlewares.CurrentClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, api.NewErrorResponse("An authorization token was not supplied"))
		return
	}

	if err := ac.AuthService.Logout(c.Request.Context(), claims); err != nil {
		ac.LogErrorf(logging.GetLogTypeAuth(), "Error revoking token %s: %v", claims.Id, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("Logout failed"))
		return
	}

	c.JSON(http.StatusOK, api.NewGenericResponse(api.Success, "You have been successfully logged out.", nil))
}

func (ac *Controller) Me(c *gin.Context) {
	userId, ok := middlewares.CurrentUserId(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, api.NewErrorResponse("Your request is not authorized."))
		return
	}

	var user models.User
	if err := ac.FindUserById(c.Request.Context(), userId, &user); err != nil {
		ac.LogErrorf(logging.GetLogTypeAuth(), "Error loading user %d: %v", userId, err)
		c.AbortWithStatusJSON(http.StatusNotFound, api.NewErrorResponse("User not found"))
		return
	}

	c.JSON(http.StatusOK, api.NewGenericResponse(api.Success, "", gin.H{
		"id":          user.ID,
		"email":       user.Email,
		"fullName":    user.FullName(),
		"isSuperuser": user.IsSuperuser,
	}))
}
