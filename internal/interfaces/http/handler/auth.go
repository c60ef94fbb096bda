package handler

import (
	"github.com/gin-gonic/gin"

	identityapp "github.com/zeniva/backend/internal/application/identity"
	"github.com/zeniva/backend/internal/infrastructure/config"
)

// AuthHandler handles signup, login and session HTTP requests
type AuthHandler struct {
	BaseHandler
	authService *identityapp.AuthService
	cookies     sessionCookies
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identityapp.AuthService, cookieCfg config.CookieConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies:     sessionCookies{cfg: cookieCfg},
	}
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message" example:"Logged out successfully"`
}

// Signup godoc
// @ID           signupAuth
// @Summary      Sign up
// @Description  Register a traveler, partner or travel agent account. Agent accounts stay pending until approved.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.SignupInput true "Signup request"
// @Success      201 {object} dto.Response{data=identityapp.AccountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req identityapp.SignupInput
	if !h.bindJSON(c, &req) {
		return
	}

	account, err := h.authService.Signup(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// Login godoc
// @ID           loginAuth
// @Summary      Log in
// @Description  Authenticate with email and password. Sets the session and gate cookies.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.LoginInput true "Login credentials"
// @Success      200 {object} dto.Response{data=identityapp.AuthResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      423 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req identityapp.LoginInput
	if !h.bindJSON(c, &req) {
		return
	}
	req.IP = c.ClientIP()

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.cookies.write(c, result)
	h.Success(c, result)
}

// Refresh godoc
// @ID           refreshAuth
// @Summary      Refresh tokens
// @Description  Rotate the refresh token. The token is read from the body or the refresh cookie. A used refresh token is revoked.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.RefreshInput false "Refresh token"
// @Success      200 {object} dto.Response{data=identityapp.AuthResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req identityapp.RefreshInput
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(RefreshTokenCookie)
	}

	result, err := h.authService.Refresh(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.cookies.write(c, result)
	h.Success(c, result)
}

// Logout godoc
// @ID           logoutAuth
// @Summary      Log out
// @Description  End the current session, revoke its access token and clear the cookies
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=MessageResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	if err := h.authService.Logout(c.Request.Context(), p); err != nil {
		h.HandleError(c, err)
		return
	}
	h.cookies.clearAll(c)
	h.Success(c, MessageResponse{Message: "Logged out successfully"})
}

// Me godoc
// @ID           meAuth
// @Summary      Current account
// @Description  The caller's account, active space, effective role and permissions
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=identityapp.CurrentAccountResult}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	result, err := h.authService.GetCurrentAccount(c.Request.Context(), p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SetEffectiveRole godoc
// @ID           setEffectiveRoleAuth
// @Summary      Preview a role
// @Description  Staff only. Act as another role for the rest of the session. New tokens are issued.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.EffectiveRoleInput true "Role to preview"
// @Success      200 {object} dto.Response{data=identityapp.AuthResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/effective-role [put]
func (h *AuthHandler) SetEffectiveRole(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req identityapp.EffectiveRoleInput
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.authService.SetEffectiveRole(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.cookies.write(c, result)
	h.Success(c, result)
}

// ClearEffectiveRole godoc
// @ID           clearEffectiveRoleAuth
// @Summary      Stop previewing a role
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=identityapp.AuthResult}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/effective-role [delete]
func (h *AuthHandler) ClearEffectiveRole(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	result, err := h.authService.ClearEffectiveRole(c.Request.Context(), p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.cookies.write(c, result)
	h.Success(c, result)
}

// SwitchSpace godoc
// @ID           switchSpaceAuth
// @Summary      Switch space
// @Description  Move the session to another space the acting roles may enter. New tokens are issued.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.SwitchSpaceInput true "Target space"
// @Success      200 {object} dto.Response{data=identityapp.AuthResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/space [put]
func (h *AuthHandler) SwitchSpace(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req identityapp.SwitchSpaceInput
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.authService.SwitchSpace(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.cookies.write(c, result)
	h.Success(c, result)
}
