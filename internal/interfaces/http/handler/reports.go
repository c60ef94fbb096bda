package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	auditapp "github.com/zeniva/backend/internal/application/audit"
	commissionapp "github.com/zeniva/backend/internal/application/commission"
	ledgerapp "github.com/zeniva/backend/internal/application/ledger"
)

// ReportHandler serves the read-only back-office reports: commission
// lines, the ledger and the audit trail
type ReportHandler struct {
	BaseHandler
	commissions *commissionapp.Service
	ledger      *ledgerapp.Service
	audit       *auditapp.Service
}

// NewReportHandler creates a new report handler
func NewReportHandler(commissions *commissionapp.Service, ledger *ledgerapp.Service, audit *auditapp.Service) *ReportHandler {
	return &ReportHandler{commissions: commissions, ledger: ledger, audit: audit}
}

// Commissions godoc
// @ID           listCommissionLines
// @Summary      Commission lines
// @Description  One line per trip an agent is paid on, plus per-agent totals. Agents only see their own lines.
// @Tags         reports
// @Produce      json
// @Param        agent_email query string false "Restrict to one agent"
// @Success      200 {object} dto.Response{data=commissionapp.Report}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/commissions [get]
func (h *ReportHandler) Commissions(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req commissionapp.ListInput
	if !h.bindQuery(c, &req) {
		return
	}
	report, err := h.commissions.ListLines(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

func (h *ReportHandler) ledgerInput(c *gin.Context) (ledgerapp.ListInput, bool) {
	var req ledgerapp.ListInput
	if !h.bindQuery(c, &req) {
		return req, false
	}
	var ok bool
	if req.TripID, ok = h.uuidQuery(c, "trip_id"); !ok {
		return req, false
	}
	if req.PaymentID, ok = h.uuidQuery(c, "payment_id"); !ok {
		return req, false
	}
	return req, true
}

// Ledger godoc
// @ID           listLedgerEntries
// @Summary      Ledger entries
// @Tags         reports
// @Produce      json
// @Param        page       query int    false "Page number" default(1)
// @Param        page_size  query int    false "Page size" default(20)
// @Param        trip_id    query string false "Trip ID" format(uuid)
// @Param        payment_id query string false "Payment ID" format(uuid)
// @Param        account    query string false "house, agent or supplier"
// @Param        type       query string false "split, commission or fee"
// @Param        from       query string false "RFC 3339 lower bound"
// @Param        to         query string false "RFC 3339 upper bound"
// @Success      200 {object} dto.Response{data=[]ledger.Entry,meta=dto.Meta}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/ledger [get]
func (h *ReportHandler) Ledger(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	req, ok := h.ledgerInput(c)
	if !ok {
		return
	}
	page, err := h.ledger.List(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// LedgerTotals godoc
// @ID           ledgerTotals
// @Summary      Ledger totals
// @Description  Sums per account, entry type and currency over the same filters as the listing
// @Tags         reports
// @Produce      json
// @Param        trip_id query string false "Trip ID" format(uuid)
// @Param        account query string false "house, agent or supplier"
// @Param        from    query string false "RFC 3339 lower bound"
// @Param        to      query string false "RFC 3339 upper bound"
// @Success      200 {object} dto.Response{data=[]ledger.Total}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/ledger/totals [get]
func (h *ReportHandler) LedgerTotals(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	req, ok := h.ledgerInput(c)
	if !ok {
		return
	}
	totals, err := h.ledger.Totals(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, totals)
}

// Audit godoc
// @ID           listAuditEntries
// @Summary      Audit trail
// @Description  Newest first. Every mutation is listed, including denied and ignored ones.
// @Tags         reports
// @Produce      json
// @Param        page        query int    false "Page number" default(1)
// @Param        page_size   query int    false "Page size" default(20)
// @Param        actor_id    query string false "Actor account ID" format(uuid)
// @Param        action      query string false "Action, e.g. trip.created"
// @Param        target_type query string false "Target type"
// @Param        target_id   query string false "Target ID"
// @Success      200 {object} dto.Response{data=[]audit.Entry,meta=dto.Meta}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agent/audit [get]
func (h *ReportHandler) Audit(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	req := auditapp.ListInput{
		Action:     c.Query("action"),
		TargetType: c.Query("target_type"),
		TargetID:   c.Query("target_id"),
	}
	req.Page, _ = strconv.Atoi(c.Query("page"))
	req.PageSize, _ = strconv.Atoi(c.Query("page_size"))
	if req.ActorID, ok = h.uuidQuery(c, "actor_id"); !ok {
		return
	}

	page, err := h.audit.List(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}
