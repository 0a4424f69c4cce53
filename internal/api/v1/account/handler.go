package account

import (
	"crowdx-backend/internal/middleware"
	"crowdx-backend/internal/services"
	"crowdx-backend/internal/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	users *services.UserService
}

func NewHandler(users *services.UserService) *Handler {
	return &Handler{users: users}
}

// Register godoc
// @Summary Register a new user
// @Description Create an account. The password is stored hashed and never returned.
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   input     body   RegisterRequest  true  "Register Input"
// @Success 201 {object} utils.Response{data=account.UserResponse}
// @Failure 400 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Failure 429 {object} utils.Response
// @Router /accounts/register [post]
func (h *Handler) Register(c *gin.Context) {
	var input RegisterRequest
	if !utils.BindAndValidate(c, &input) {
		return
	}

	u, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Username:    input.Username,
		Password:    input.Password,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "User registered successfully", NewUserResponse(u)))
}

// Profile godoc
// @Summary Get own profile
// @Tags accounts
// @Produce  json
// @Security Bearer
// @Success 200 {object} utils.Response{data=account.UserResponse}
// @Failure 401 {object} utils.Response
// @Router /accounts/profile [get]
func (h *Handler) Profile(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	u, err := h.users.FindByID(c.Request.Context(), current.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Profile retrieved successfully", NewUserResponse(u)))
}

// UpdateProfile godoc
// @Summary Update own profile
// @Description Partial update. Send the last seen version to guard against concurrent edits.
// @Tags accounts
// @Accept  json
// @Produce  json
// @Security Bearer
// @Param   input     body   UpdateProfileRequest  true  "Profile changes"
// @Success 200 {object} utils.Response{data=account.UserResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /accounts/profile [patch]
func (h *Handler) UpdateProfile(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	var input UpdateProfileRequest
	if !utils.BindAndValidate(c, &input) {
		return
	}

	u, err := h.users.UpdateProfile(c.Request.Context(), current.ID, services.ProfileUpdate{
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Version:     input.Version,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Profile updated successfully", NewUserResponse(u)))
}

// DeleteAccount godoc
// @Summary Delete own account
// @Description Deletes the account together with the campaigns it created and their entries.
// @Tags accounts
// @Produce  json
// @Security Bearer
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /accounts/profile [delete]
func (h *Handler) DeleteAccount(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	if err := h.users.Delete(c.Request.Context(), current.ID); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Account deleted successfully", nil))
}

// ChangePassword godoc
// @Summary Change own password
// @Tags accounts
// @Accept  json
// @Produce  json
// @Security Bearer
// @Param   input     body   ChangePasswordRequest  true  "Passwords"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /accounts/password [post]
func (h *Handler) ChangePassword(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	var input ChangePasswordRequest
	if !utils.BindAndValidate(c, &input) {
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), current.ID, input.OldPassword, input.NewPassword); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Password changed successfully", nil))
}
