package auth

import (
	"crowdx-backend/internal/api/v1/account"
	"crowdx-backend/internal/middleware"
	"crowdx-backend/internal/services"
	"crowdx-backend/internal/utils"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	auth *services.AuthService
}

func NewHandler(auth *services.AuthService) *Handler {
	return &Handler{auth: auth}
}

// ObtainPair godoc
// @Summary Log in
// @Description Exchange a username and password for an access and a refresh token
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input     body   LoginRequest  true  "Credentials"
// @Success 200 {object} utils.Response{data=auth.TokenPairResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 429 {object} utils.Response
// @Router /token/pair [post]
func (h *Handler) ObtainPair(c *gin.Context) {
	var input LoginRequest
	if !utils.BindAndValidate(c, &input) {
		return
	}

	pair, u, err := h.auth.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	user := account.NewUserResponse(u)
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Logged in successfully", TokenPairResponse{
		Access:           pair.Access,
		Refresh:          pair.Refresh,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		User:             &user,
	}))
}

// Refresh godoc
// @Summary Refresh the access token
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input     body   RefreshRequest  true  "Refresh token"
// @Success 200 {object} utils.Response{data=auth.TokenPairResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /token/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var input RefreshRequest
	if !utils.BindAndValidate(c, &input) {
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), input.Refresh)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Token refreshed successfully", TokenPairResponse{
		Access:           pair.Access,
		Refresh:          pair.Refresh,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}))
}

// Verify godoc
// @Summary Verify a token
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input     body   VerifyRequest  true  "Token"
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /token/verify [post]
func (h *Handler) Verify(c *gin.Context) {
	var input VerifyRequest
	if !utils.BindAndValidate(c, &input) {
		return
	}

	if err := h.auth.Verify(c.Request.Context(), input.Token); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Token is valid", nil))
}

// Logout godoc
// @Summary Log out
// @Description Revoke the current access token and, if given, the matching refresh token
// @Tags auth
// @Accept  json
// @Produce  json
// @Security Bearer
// @Param   input     body   LogoutRequest  false  "Refresh token"
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 503 {object} utils.Response
// @Router /accounts/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	var input LogoutRequest
	if c.Request.ContentLength != 0 && !utils.BindAndValidate(c, &input) {
		return
	}

	err := h.auth.Logout(c.Request.Context(), claims, input.Refresh)
	if errors.Is(err, services.ErrRevocationUnavailable) {
		c.JSON(http.StatusServiceUnavailable, utils.NewErrorResponse(http.StatusServiceUnavailable, "Token revocation is not available"))
		return
	}
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Logged out successfully", nil))
}
