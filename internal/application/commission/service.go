// Package commission computes and records the platform's commission on
// placed orders and administers commission rates.
package commission

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/commission"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LineRecorder counts persisted commission lines
type LineRecorder interface {
	RecordCommissionLines(ctx context.Context, currency string, n int)
}

// Service handles commission business operations
type Service struct {
	orders  order.Repository
	rules   commission.RuleStore
	lines   commission.LineRepository
	metrics LineRecorder
	logger  *zap.Logger
}

// NewService creates a new commission Service
func NewService(orders order.Repository, rules commission.RuleStore, lines commission.LineRepository, log *zap.Logger) *Service {
	return &Service{
		orders: orders,
		rules:  rules,
		lines:  lines,
		logger: log.Named("commission"),
	}
}

// SetMetrics sets the recorder for persisted lines
func (s *Service) SetMetrics(m LineRecorder) {
	s.metrics = m
}

type scopeKey struct {
	category uuid.UUID
	typ      uuid.UUID
}

func keyOf(categoryID, typeID *uuid.UUID) scopeKey {
	var k scopeKey
	if categoryID != nil {
		k.category = *categoryID
	}
	if typeID != nil {
		k.typ = *typeID
	}
	return k
}

// CalculateForOrder computes one commission line per order item that has an
// applicable rate and stores them in one batch. It does not deduplicate;
// callers guarantee it runs once per order.
func (s *Service) CalculateForOrder(ctx context.Context, orderID, sellerID uuid.UUID) ([]commission.Line, error) {
	log := logger.WithTraceContext(ctx, s.logger).With(
		zap.String("order_id", orderID.String()),
		zap.String("seller_id", sellerID.String()),
	)

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}

	// items sharing category and type share a rule
	selected := make(map[scopeKey]*commission.Rate)
	lines := make([]commission.Line, 0, len(o.Items))
	for _, item := range o.Items {
		key := keyOf(item.ProductCategoryID, item.ProductTypeID)
		rule, seen := selected[key]
		if !seen {
			rule, err = s.rules.SelectRuleFor(ctx, sellerID, item.ProductCategoryID, item.ProductTypeID)
			if err != nil {
				return nil, fmt.Errorf("select commission rule: %w", err)
			}
			selected[key] = rule
		}
		if rule == nil {
			continue
		}

		itemCtx := commission.ItemContext{
			ItemID:       item.ID,
			OrderID:      o.ID,
			SellerID:     sellerID,
			CategoryID:   item.ProductCategoryID,
			TypeID:       item.ProductTypeID,
			CurrencyCode: o.CurrencyCode,
			Total:        item.Total,
			TaxTotal:     item.TaxTotal,
		}
		res := commission.Calculate(rule, itemCtx)
		if res.ClampConflict {
			log.Error("Commission rate minimum exceeds its maximum, minimum applied",
				zap.String("rule_id", rule.ID.String()),
				zap.String("currency", string(o.CurrencyCode)),
			)
		}
		lines = append(lines, commission.NewLine(itemCtx, rule, res.Value))
	}

	if len(lines) == 0 {
		log.Debug("No commission rule applies to order")
		return lines, nil
	}
	if err := s.lines.CreateLines(ctx, lines); err != nil {
		return nil, fmt.Errorf("store commission lines: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordCommissionLines(ctx, string(o.CurrencyCode), len(lines))
	}
	log.Info("Commission calculated", zap.Int("lines", len(lines)))
	return lines, nil
}

// CreateRate validates and stores a new rate
func (s *Service) CreateRate(ctx context.Context, req CreateRateRequest) (*RateResponse, error) {
	rate, err := commission.NewRate(commission.RateParams{
		Name: req.Name,
		Type: commission.Type(req.Type),
		Scope: commission.Scope{
			SellerID:          req.SellerID,
			ProductCategoryID: req.ProductCategoryID,
			ProductTypeID:     req.ProductTypeID,
		},
		Percentage: req.Percentage,
		IncludeTax: req.IncludeTax,
		FlatPrices: toPrices(req.FlatPrices),
		MinPrices:  toPrices(req.MinPrices),
		MaxPrices:  toPrices(req.MaxPrices),
		Disabled:   req.Disabled,
	})
	if err != nil {
		return nil, err
	}
	if err := s.rules.Create(ctx, rate); err != nil {
		return nil, err
	}
	s.logger.Info("Commission rate created",
		zap.String("rule_id", rate.ID.String()),
		zap.Int("level", rate.Scope.Level()),
	)
	resp := ToRateResponse(rate)
	return &resp, nil
}

// ListRates returns a page of rates and the total count
func (s *Service) ListRates(ctx context.Context, filter RateListFilter) ([]RateResponse, int64, error) {
	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize, OrderBy: filter.OrderBy, OrderDir: filter.OrderDir}
	if f.OrderBy == "" {
		f.OrderBy = shared.DefaultFilter().OrderBy
	}
	if f.OrderDir == "" {
		f.OrderDir = shared.DefaultFilter().OrderDir
	}

	rates, total, err := s.rules.List(ctx, f.Normalized())
	if err != nil {
		return nil, 0, err
	}
	out := make([]RateResponse, len(rates))
	for i, r := range rates {
		out[i] = ToRateResponse(r)
	}
	return out, total, nil
}

// ListLinesForOrder returns the commission lines of an order
func (s *Service) ListLinesForOrder(ctx context.Context, orderID uuid.UUID) ([]LineResponse, error) {
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	lines, err := s.lines.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]LineResponse, len(lines))
	for i, l := range lines {
		out[i] = ToLineResponse(l)
	}
	return out, nil
}
