package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bloomdesk/backend/internal/domain/card"
	"github.com/bloomdesk/backend/internal/domain/order"
	"github.com/bloomdesk/backend/internal/infrastructure/telemetry"
)

// defaultLookupConcurrency bounds concurrent label lookups within one run.
const defaultLookupConcurrency = 8

// deliveryDateAttribute is the note attribute carrying the delivery date.
const deliveryDateAttribute = "delivery_date"

// Query selects which orders a pipeline run loads.
type Query struct {
	// Date is the delivery date being viewed (YYYY-MM-DD).
	Date string
	// Store is the store/location handle; empty means all stores.
	Store string
}

// OrderSource fetches raw upstream orders for a query. The returned
// documents may be in either upstream shape; the pipeline normalizes them.
type OrderSource interface {
	FetchOrders(ctx context.Context, tenantID uuid.UUID, query Query) ([]map[string]any, error)
}

// Result is the output of one pipeline run: expanded, classified and
// partitioned cards, hydrated with any stored per-card state.
type Result struct {
	MainCards  []*card.Card
	AddOnCards []*card.Card
	Orders     []*order.SourceOrderRecord
}

// Service runs the order pipeline: fetch, normalize, expand line items by
// quantity into cards, classify each card via the product label lookup, and
// partition into main and add-on collections. A run is all-or-nothing at
// the fetch stage only; classification failures degrade per card.
type Service struct {
	source OrderSource
	labels card.ProductLabelLookup
	states card.StateRepository
	logger *zap.Logger

	lookupConcurrency int
}

// NewService creates a pipeline Service
func NewService(source OrderSource, labels card.ProductLabelLookup, states card.StateRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source:            source,
		labels:            labels,
		states:            states,
		logger:            logger,
		lookupConcurrency: defaultLookupConcurrency,
	}
}

// SetLookupConcurrency overrides the classification fan-out bound.
func (s *Service) SetLookupConcurrency(n int) {
	if n > 0 {
		s.lookupConcurrency = n
	}
}

// Run executes one full pipeline pass for a tenant and query. A fetch
// failure aborts the run and leaves prior state untouched; everything after
// the fetch degrades per order or per card.
func (s *Service) Run(ctx context.Context, tenantID uuid.UUID, query Query) (*Result, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "pipeline", "run")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrDate, query.Date,
		telemetry.SpanAttrStore, query.Store,
	)

	rawOrders, err := s.source.FetchOrders(ctx, tenantID, query)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("pipeline: fetch orders: %w", err)
	}

	result := &Result{
		MainCards:  make([]*card.Card, 0),
		AddOnCards: make([]*card.Card, 0),
	}

	var cards []*card.Card
	for _, raw := range rawOrders {
		rec, err := order.Normalize(raw)
		if err != nil {
			s.logger.Warn("Skipping malformed upstream order",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			telemetry.AddEvent(span, "order_skipped", "reason", err.Error())
			continue
		}
		result.Orders = append(result.Orders, rec)
		cards = append(cards, expand(rec, query)...)
	}

	s.classify(ctx, tenantID, cards)
	s.hydrate(ctx, tenantID, cards)

	for _, c := range cards {
		if c.IsAddOn {
			result.AddOnCards = append(result.AddOnCards, c)
		} else {
			result.MainCards = append(result.MainCards, c)
		}
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrCardCount, len(cards))
	telemetry.SetOK(span)
	return result, nil
}

// expand emits quantity-many cards per line item, each with quantity 1 and
// a card ID derived deterministically from (order, line item, instance).
func expand(rec *order.SourceOrderRecord, query Query) []*card.Card {
	deliveryDate := query.Date
	if value, ok := rec.NoteAttribute(deliveryDateAttribute); ok && value != "" {
		deliveryDate = value
	}

	var cards []*card.Card
	for _, li := range rec.LineItems {
		for instance := 0; instance < li.Quantity; instance++ {
			cards = append(cards, &card.Card{
				CardID:       card.NewCardID(rec.ID, li.ID, instance),
				OrderID:      rec.ID,
				LineItemID:   li.ID,
				ProductID:    li.ProductID,
				VariantID:    li.VariantID,
				Title:        li.Title,
				VariantTitle: li.VariantTitle,
				SKU:          li.SKU,
				ProductType:  li.ProductType,
				Quantity:     1,
				Price:        li.Price,
				Order:        rec,
				Status:       card.StatusUnassigned,
				DeliveryDate: deliveryDate,
			})
		}
	}
	return cards
}

// classify resolves the label set for every card concurrently. Lookups are
// independent: a failure logs, defaults the card to "main" and never aborts
// the batch. All lookups complete before the method returns.
func (s *Service) classify(ctx context.Context, tenantID uuid.UUID, cards []*card.Card) {
	sem := make(chan struct{}, s.lookupConcurrency)
	var wg sync.WaitGroup

	for _, c := range cards {
		wg.Add(1)
		sem <- struct{}{}
		go func(c *card.Card) {
			defer wg.Done()
			defer func() { <-sem }()

			labels, err := s.labels.GetLabels(ctx, tenantID, c.ProductID, c.VariantID)
			if err != nil {
				s.logger.Warn("Label lookup failed, defaulting card to main",
					zap.String("tenant_id", tenantID.String()),
					zap.String("card_id", c.CardID),
					zap.String("product_id", c.ProductID),
					zap.Error(err),
				)
				c.IsAddOn = false
				return
			}
			c.IsAddOn = card.HasAddOnLabel(labels)
			c.Difficulty = difficultyLabel(labels)
		}(c)
	}
	wg.Wait()
}

// difficultyLabel picks the display label for a card from its label set:
// the first label that is not the add-on classifier.
func difficultyLabel(labels []string) string {
	for _, label := range labels {
		if label != card.AddOnLabel {
			return label
		}
	}
	return ""
}

// hydrate merges stored per-card state into freshly expanded cards. A store
// failure leaves the cards at their defaults; the reconciliation loop will
// converge them on its next pass.
func (s *Service) hydrate(ctx context.Context, tenantID uuid.UUID, cards []*card.Card) {
	if len(cards) == 0 {
		return
	}

	cardIDs := make([]string, len(cards))
	byID := make(map[string]*card.Card, len(cards))
	for i, c := range cards {
		cardIDs[i] = c.CardID
		byID[c.CardID] = c
	}

	deltas, err := s.states.FindByCardIDs(ctx, tenantID, cardIDs)
	if err != nil {
		s.logger.Warn("Loading stored card state failed, using defaults",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		return
	}
	for _, delta := range deltas {
		if c, ok := byID[delta.CardID]; ok {
			c.ApplyState(delta.State)
		}
	}
}
