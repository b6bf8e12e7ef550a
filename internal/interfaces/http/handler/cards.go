package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bloomdesk/backend/internal/application/cardstate"
	"github.com/bloomdesk/backend/internal/application/fields"
	"github.com/bloomdesk/backend/internal/application/pipeline"
	"github.com/bloomdesk/backend/internal/domain/card"
	"github.com/bloomdesk/backend/internal/domain/fieldconfig"
	"github.com/bloomdesk/backend/internal/interfaces/http/dto"
)

// CardsHandler serves the order card board: the pipeline-rendered view and
// the per-card status and notes edits.
type CardsHandler struct {
	BaseHandler
	pipeline *pipeline.Service
	manager  *cardstate.Manager
	fields   *fields.Service
	logger   *zap.Logger
}

// NewCardsHandler creates a new CardsHandler
func NewCardsHandler(pipelineSvc *pipeline.Service, manager *cardstate.Manager, fieldsSvc *fields.Service, logger *zap.Logger) *CardsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardsHandler{
		pipeline: pipelineSvc,
		manager:  manager,
		fields:   fieldsSvc,
		logger:   logger,
	}
}

// GetCards runs the order pipeline for the requested date and store and
// returns the rendered board. A fetch failure maps to a 502-style envelope
// and leaves previously loaded card state untouched.
func (h *CardsHandler) GetCards(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		h.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return
	}
	query := pipeline.Query{
		Date:  date,
		Store: c.Query("store"),
	}

	result, err := h.pipeline.Run(c.Request.Context(), tenantID, query)
	if err != nil {
		h.logger.Error("Pipeline run failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("date", query.Date),
			zap.String("store", query.Store),
			zap.Error(err),
		)
		h.ErrorWithCode(c, dto.ErrCodeUpstreamUnavailable, "Order source unavailable")
		return
	}

	defs, err := h.fields.GetFieldConfig(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.manager.LoadPipelineResult(tenantID, result.MainCards, result.AddOnCards)
	main, addOns := h.manager.StoreFor(tenantID).Snapshot()

	h.Success(c, dto.CardsViewResponse{
		MainCards:  h.renderCards(main, defs),
		AddOnCards: h.renderCards(addOns, defs),
		Fields:     dto.ToFieldDefinitionResponses(defs),
	})
}

// renderCards renders each card through the field resolution engine and
// attaches the identity and triage keys the board needs regardless of the
// tenant's field configuration.
func (h *CardsHandler) renderCards(cards []*card.Card, defs []fieldconfig.FieldDefinition) []map[string]any {
	out := make([]map[string]any, 0, len(cards))
	for _, crd := range cards {
		view := h.fields.RenderCard(crd, defs)
		view["cardId"] = crd.CardID
		view["status"] = crd.Status.String()
		view["notes"] = crd.Notes
		view["assignedTo"] = crd.AssignedTo
		view["isAddOn"] = crd.IsAddOn
		view["deliveryDate"] = crd.DeliveryDate
		out = append(out, view)
	}
	return out
}

// UpdateStatus applies one status button click to a card. Clicking the
// active status toggles back to unassigned; the toggle lives server-side so
// clients only report which button was pressed.
func (h *CardsHandler) UpdateStatus(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	cardID := c.Param("cardId")

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, dto.ValidationDetailsFromError(err))
		return
	}

	result, err := h.manager.ClickStatus(c.Request.Context(), tenantID, cardID, card.CardStatus(req.Status), getActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.UpdateStatusResponse{
		Card:      dto.ToCardStateResponse(result.Card),
		Persisted: result.Persisted,
	})
}

// UpdateNotes schedules a notes write for a card. Writes are debounced per
// card; only the final value reaches the card state store.
func (h *CardsHandler) UpdateNotes(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	cardID := c.Param("cardId")

	var req dto.UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, "Invalid request body")
		return
	}

	updated, err := h.manager.EditNotes(tenantID, cardID, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToCardStateResponse(updated))
}
