package handler

import (
	"github.com/gin-gonic/gin"

	identityapp "github.com/zeniva/backend/internal/application/identity"
)

// AccountHandler serves HQ account administration
type AccountHandler struct {
	BaseHandler
	authService *identityapp.AuthService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(authService *identityapp.AuthService) *AccountHandler {
	return &AccountHandler{authService: authService}
}

// List godoc
// @ID           listAccounts
// @Summary      List accounts
// @Tags         accounts
// @Produce      json
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Param        search    query string false "Email or name"
// @Param        status    query string false "active, pending or suspended"
// @Param        role      query string false "Role"
// @Success      200 {object} dto.Response{data=[]identityapp.AccountResponse,meta=dto.Meta}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req identityapp.ListAccountsInput
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.authService.ListAccounts(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Approve godoc
// @ID           approveAccount
// @Summary      Approve a pending account
// @Tags         accounts
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Success      200 {object} dto.Response{data=identityapp.AccountResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts/{id}/approve [post]
func (h *AccountHandler) Approve(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	account, err := h.authService.ApproveAccount(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Suspend godoc
// @ID           suspendAccount
// @Summary      Suspend an account
// @Description  Suspends the account and revokes all of its sessions
// @Tags         accounts
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Success      200 {object} dto.Response{data=identityapp.AccountResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts/{id}/suspend [post]
func (h *AccountHandler) Suspend(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	account, err := h.authService.SuspendAccount(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// UpdateRoles godoc
// @ID           updateAccountRoles
// @Summary      Replace account roles
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Account ID" format(uuid)
// @Param        request body identityapp.UpdateRolesInput true "Roles"
// @Success      200 {object} dto.Response{data=identityapp.AccountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts/{id}/roles [put]
func (h *AccountHandler) UpdateRoles(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req identityapp.UpdateRolesInput
	if !h.bindJSON(c, &req) {
		return
	}
	account, err := h.authService.UpdateRoles(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Delete godoc
// @ID           deleteAccount
// @Summary      Delete an account
// @Tags         accounts
// @Param        id path string true "Account ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts/{id} [delete]
func (h *AccountHandler) Delete(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.authService.DeleteAccount(c.Request.Context(), p, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
