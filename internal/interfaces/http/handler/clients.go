package handler

import (
	"github.com/gin-gonic/gin"

	tripapp "github.com/zeniva/backend/internal/application/trip"
)

// ClientHandler serves the agent client book
type ClientHandler struct {
	BaseHandler
	tripService *tripapp.Service
}

// NewClientHandler creates a new client handler
func NewClientHandler(tripService *tripapp.Service) *ClientHandler {
	return &ClientHandler{tripService: tripService}
}

// List godoc
// @ID           listClients
// @Summary      List clients
// @Description  Agents see the clients they own or are assigned to; staff see every client
// @Tags         clients
// @Produce      json
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Param        search    query string false "Name or email"
// @Param        origin    query string false "house or agent"
// @Success      200 {object} dto.Response{data=[]tripapp.ClientResponse,meta=dto.Meta}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req tripapp.ListClientsInput
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.tripService.ListClients(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Create godoc
// @ID           createClient
// @Summary      Create a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        request body tripapp.CreateClientInput true "Client"
// @Success      201 {object} dto.Response{data=tripapp.ClientResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/clients [post]
func (h *ClientHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req tripapp.CreateClientInput
	if !h.bindJSON(c, &req) {
		return
	}
	client, err := h.tripService.CreateClient(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, client)
}

// Get godoc
// @ID           getClient
// @Summary      Get a client
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      200 {object} dto.Response{data=tripapp.ClientResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/clients/{id} [get]
func (h *ClientHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	client, err := h.tripService.GetClient(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// Update godoc
// @ID           updateClient
// @Summary      Update a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id      path string                    true "Client ID" format(uuid)
// @Param        request body tripapp.UpdateClientInput true "Client"
// @Success      200 {object} dto.Response{data=tripapp.ClientResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/clients/{id} [put]
func (h *ClientHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tripapp.UpdateClientInput
	if !h.bindJSON(c, &req) {
		return
	}
	client, err := h.tripService.UpdateClient(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// AssignAgent godoc
// @ID           assignClientAgent
// @Summary      Assign an agent to a client
// @Description  Agents may only assign themselves; staff may assign anyone
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id      path string                   true "Client ID" format(uuid)
// @Param        request body tripapp.AssignAgentInput true "Agent"
// @Success      200 {object} dto.Response{data=tripapp.ClientResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/clients/{id}/agents [post]
func (h *ClientHandler) AssignAgent(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tripapp.AssignAgentInput
	if !h.bindJSON(c, &req) {
		return
	}
	client, err := h.tripService.AssignAgent(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}
