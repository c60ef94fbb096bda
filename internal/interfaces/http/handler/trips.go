package handler

import (
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	tripapp "github.com/zeniva/backend/internal/application/trip"
	"github.com/zeniva/backend/internal/interfaces/http/dto"
)

// TripHandler serves trip files with their components, payments and documents
type TripHandler struct {
	BaseHandler
	tripService   *tripapp.Service
	maxUploadSize int64
}

// NewTripHandler creates a new trip handler. maxUploadSize caps document
// uploads in bytes; zero disables the check here.
func NewTripHandler(tripService *tripapp.Service, maxUploadSize int64) *TripHandler {
	return &TripHandler{tripService: tripService, maxUploadSize: maxUploadSize}
}

// List godoc
// @ID           listTrips
// @Summary      List trips
// @Tags         trips
// @Produce      json
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Param        search    query string false "Title"
// @Param        client_id query string false "Client ID" format(uuid)
// @Param        status    query string false "Trip status"
// @Success      200 {object} dto.Response{data=[]tripapp.TripResponse,meta=dto.Meta}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/trips [get]
func (h *TripHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req tripapp.ListTripsInput
	if !h.bindQuery(c, &req) {
		return
	}
	if req.ClientID, ok = h.uuidQuery(c, "client_id"); !ok {
		return
	}
	page, err := h.tripService.ListTrips(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Create godoc
// @ID           createTrip
// @Summary      Create a trip file
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        request body tripapp.CreateTripInput true "Trip"
// @Success      201 {object} dto.Response{data=tripapp.TripResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/trips [post]
func (h *TripHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req tripapp.CreateTripInput
	if !h.bindJSON(c, &req) {
		return
	}
	file, err := h.tripService.CreateTrip(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, file)
}

// Get godoc
// @ID           getTrip
// @Summary      Get a trip file
// @Tags         trips
// @Produce      json
// @Param        id path string true "Trip ID" format(uuid)
// @Success      200 {object} dto.Response{data=tripapp.TripResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/trips/{id} [get]
func (h *TripHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	file, err := h.tripService.GetTrip(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, file)
}

// Update godoc
// @ID           updateTrip
// @Summary      Update a trip file
// @Description  Title, rebooking flag and margin/commission overrides
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        id      path string                  true "Trip ID" format(uuid)
// @Param        request body tripapp.UpdateTripInput true "Changes"
// @Success      200 {object} dto.Response{data=tripapp.TripResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/trips/{id} [put]
func (h *TripHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tripapp.UpdateTripInput
	if !h.bindJSON(c, &req) {
		return
	}
	file, err := h.tripService.UpdateTrip(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, file)
}

// SetStatus godoc
// @ID           setTripStatus
// @Summary      Move a trip to another status
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        id      path string                     true "Trip ID" format(uuid)
// @Param        request body tripapp.SetTripStatusInput true "Status"
// @Success      200 {object} dto.Response{data=tripapp.TripResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/trips/{id}/status [put]
func (h *TripHandler) SetStatus(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tripapp.SetTripStatusInput
	if !h.bindJSON(c, &req) {
		return
	}
	file, err := h.tripService.SetTripStatus(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, file)
}

// AddComponent godoc
// @ID           addTripComponent
// @Summary      Add a component
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        id      path string                 true "Trip ID" format(uuid)
// @Param        request body tripapp.ComponentInput true "Component"
// @Success      201 {object} dto.Response{data=tripapp.TripResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/trips/{id}/components [post]
func (h *TripHandler) AddComponent(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tripapp.ComponentInput
	if !h.bindJSON(c, &req) {
		return
	}
	file, err := h.tripService.AddComponent(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, file)
}

// UpdateComponent godoc
// @ID           updateTripComponent
// @Summary      Update component pricing
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        id      path string                              true "Trip ID" format(uuid)
// @Param        cid     path string                              true "Component ID" format(uuid)
// @Param        request body tripapp.UpdateComponentPricingInput true "Pricing"
// @Success      200 {object} dto.Response{data=tripapp.TripResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/trips/{id}/components/{cid} [put]
func (h *TripHandler) UpdateComponent(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	cid, ok := h.uuidParam(c, "cid")
	if !ok {
		return
	}
	var req tripapp.UpdateComponentPricingInput
	if !h.bindJSON(c, &req) {
		return
	}
	file, err := h.tripService.UpdateComponentPricing(c.Request.Context(), p, id, cid, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, file)
}

// RemoveComponent godoc
// @ID           removeTripComponent
// @Summary      Remove a component
// @Tags         trips
// @Produce      json
// @Param        id  path string true "Trip ID" format(uuid)
// @Param        cid path string true "Component ID" format(uuid)
// @Success      200 {object} dto.Response{data=tripapp.TripResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/trips/{id}/components/{cid} [delete]
func (h *TripHandler) RemoveComponent(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	cid, ok := h.uuidParam(c, "cid")
	if !ok {
		return
	}
	file, err := h.tripService.RemoveComponent(c.Request.Context(), p, id, cid)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, file)
}

// Pricing godoc
// @ID           getTripPricing
// @Summary      Trip pricing
// @Description  Aggregated net, sell, commission and margin. Data is null for a trip without components.
// @Tags         trips
// @Produce      json
// @Param        id path string true "Trip ID" format(uuid)
// @Success      200 {object} dto.Response{data=pricing.Pricing}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/trips/{id}/pricing [get]
func (h *TripHandler) Pricing(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	pricing, err := h.tripService.GetTripPricing(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pricing)
}

// Split godoc
// @ID           getTripSplit
// @Summary      Trip revenue split
// @Tags         trips
// @Produce      json
// @Param        id        path  string true  "Trip ID" format(uuid)
// @Param        agent_pct query string false "Agent share as a fraction, e.g. 0.2"
// @Success      200 {object} dto.Response{data=tripapp.SplitResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/trips/{id}/split [get]
func (h *TripHandler) Split(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var agentPct *decimal.Decimal
	if raw := c.Query("agent_pct"); raw != "" {
		pct, err := decimal.NewFromString(raw)
		if err != nil {
			h.BadRequest(c, "Invalid agent_pct format")
			return
		}
		agentPct = &pct
	}
	split, err := h.tripService.GetTripSplit(c.Request.Context(), p, id, agentPct)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, split)
}

// AddPayment godoc
// @ID           addTripPayment
// @Summary      Record a payment
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        id      path string                  true "Trip ID" format(uuid)
// @Param        request body tripapp.AddPaymentInput true "Payment"
// @Success      201 {object} dto.Response{data=tripapp.TripResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/trips/{id}/payments [post]
func (h *TripHandler) AddPayment(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tripapp.AddPaymentInput
	if !h.bindJSON(c, &req) {
		return
	}
	file, err := h.tripService.AddPayment(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, file)
}

// SetPaymentStatus godoc
// @ID           setTripPaymentStatus
// @Summary      Change a payment status
// @Description  Moving a payment to Paid posts it to the ledger once
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        id      path string                        true "Trip ID" format(uuid)
// @Param        pid     path string                        true "Payment ID" format(uuid)
// @Param        request body tripapp.SetPaymentStatusInput true "Status"
// @Success      200 {object} dto.Response{data=tripapp.TripResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/trips/{id}/payments/{pid}/status [put]
func (h *TripHandler) SetPaymentStatus(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	pid, ok := h.uuidParam(c, "pid")
	if !ok {
		return
	}
	var req tripapp.SetPaymentStatusInput
	if !h.bindJSON(c, &req) {
		return
	}
	file, err := h.tripService.SetPaymentStatus(c.Request.Context(), p, id, pid, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, file)
}

// UploadDocument godoc
// @ID           uploadTripDocument
// @Summary      Attach a document
// @Tags         trips
// @Accept       multipart/form-data
// @Produce      json
// @Param        id   path     string true  "Trip ID" format(uuid)
// @Param        file formData file   true  "Document"
// @Param        kind formData string false "voucher, invoice, passport, itinerary or other"
// @Success      201 {object} dto.Response{data=tripapp.DocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/trips/{id}/documents [post]
func (h *TripHandler) UploadDocument(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A file field is required")
		return
	}
	if h.maxUploadSize > 0 && header.Size > h.maxUploadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeFileTooLarge, "Document is too large")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Unreadable upload")
		return
	}
	defer file.Close()

	// The declared part Content-Type is ignored; the stored type is what the bytes are.
	mt, err := mimetype.DetectReader(file)
	if err != nil {
		h.BadRequest(c, "Unreadable upload")
		return
	}
	contentType := mt.String()
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		h.HandleError(c, err)
		return
	}

	doc, err := h.tripService.AttachDocument(c.Request.Context(), p, id, tripapp.AttachDocumentInput{
		Name:        header.Filename,
		Kind:        c.PostForm("kind"),
		ContentType: contentType,
		Size:        header.Size,
	}, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// ListDocuments godoc
// @ID           listTripDocuments
// @Summary      List documents
// @Description  Documents come with fresh time-limited download links
// @Tags         trips
// @Produce      json
// @Param        id path string true "Trip ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]tripapp.DocumentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/trips/{id}/documents [get]
func (h *TripHandler) ListDocuments(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	docs, err := h.tripService.ListDocuments(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, docs)
}
