// Package checkout turns a completed cart into one order per seller.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/application/saga"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/checkout"
	"github.com/marketplace/backend/internal/domain/link"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/seller"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// WorkflowName identifies the checkout saga in the journal and metrics
const WorkflowName = "split-and-complete-cart"

// Step names
const (
	StepAuthorizePayment = "authorize-payment"
	StepRecordPayment    = "record-payment"
	StepCreateOrderSet   = "create-order-set"
	StepCreateOrders     = "create-orders"
	StepReserveInventory = "reserve-inventory"
	StepCreateLinks      = "create-links"
	StepCompleteCart     = "complete-cart"
	StepEmitEvents       = "emit-events"
)

// ErrCartAlreadyCompleted is returned for a cart that was completed without producing an order set
var ErrCartAlreadyCompleted = shared.NewKindError(shared.KindState, "CART_ALREADY_COMPLETED", "Cart is already completed")

// Dependencies are the collaborators of the checkout service
type Dependencies struct {
	Carts     cart.Repository
	Orders    order.Repository
	Sellers   seller.Repository
	Links     link.Store
	Inventory checkout.InventoryService
	Payments  checkout.PaymentProvider
	Events    shared.EventPublisher
}

// Option configures a Service
type Option func(*Service)

// WithJournal records every saga transition
func WithJournal(j saga.Journal) Option {
	return func(s *Service) { s.journal = j }
}

// WithMetrics records saga outcomes and compensations
func WithMetrics(m saga.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSagaTimeout bounds one checkout run. Zero disables the bound.
func WithSagaTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// Service orchestrates checkout of multi-seller carts
type Service struct {
	deps    Dependencies
	journal saga.Journal
	metrics saga.Metrics
	timeout time.Duration
	logger  *zap.Logger
	inbound singleflight.Group
}

// NewService creates a checkout Service
func NewService(deps Dependencies, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		deps:    deps,
		journal: saga.NopJournal{},
		logger:  log.Named("checkout"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SplitAndCompleteCart creates an order set and one order per seller from the
// cart. Calling it again for a cart that was already checked out returns the
// existing order set.
//
// Concurrent callers for the same cart share one run. A caller whose ctx ends
// stops waiting but the shared run goes on, bounded by the saga timeout.
func (s *Service) SplitAndCompleteCart(ctx context.Context, cartID uuid.UUID) (*Result, error) {
	ch := s.inbound.DoChan(cartID.String(), func() (any, error) {
		return s.splitAndComplete(context.WithoutCancel(ctx), cartID)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("checkout of cart %s: %w", cartID, ctx.Err())
	case out := <-ch:
		if out.Err != nil {
			return nil, out.Err
		}
		res := *out.Val.(*Result)
		if out.Shared {
			res.OrderIDs = append([]uuid.UUID(nil), res.OrderIDs...)
		}
		return &res, nil
	}
}

// run carries the state produced by the saga steps
type run struct {
	cart         *cart.Cart
	session      *cart.PaymentSession
	drafts       []checkout.SellerDraft
	auth         *checkout.Authorization
	allocations  checkout.Allocations
	orderSet     *order.OrderSet
	orders       []*order.Order
	sellerOf     map[uuid.UUID]uuid.UUID
	reservations []uuid.UUID
	links        []link.Link
}

func (s *Service) splitAndComplete(ctx context.Context, cartID uuid.UUID) (*Result, error) {
	ctx, log := logger.WithCartID(ctx, s.logger, cartID.String())
	log = logger.WithTraceContext(ctx, log)
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "SplitAndCompleteCart",
		telemetry.WithAttribute(telemetry.SpanAttrCartID, cartID.String()))
	defer span.End()

	if existing, err := s.findExisting(ctx, cartID); err != nil || existing != nil {
		if existing != nil {
			log.Info("Cart already checked out", zap.String("order_set_id", existing.OrderSetID.String()))
		}
		return existing, err
	}

	r, err := s.prepare(ctx, cartID)
	if errors.Is(err, ErrCartAlreadyCompleted) {
		// completed by a concurrent checkout after the lookup above
		if existing, ferr := s.findExisting(ctx, cartID); ferr != nil || existing != nil {
			if existing != nil {
				log.Info("Cart checked out concurrently", zap.String("order_set_id", existing.OrderSetID.String()))
			}
			return existing, ferr
		}
	}
	if err != nil {
		telemetry.RecordError(span, err)
		log.Info("Checkout rejected", zap.Error(err))
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	runner := saga.NewRunner(WorkflowName,
		saga.WithJournal(s.journal),
		saga.WithLogger(log),
		saga.WithMetrics(s.metrics),
	)
	err = runner.Run(ctx, cartID.String(),
		saga.Sequential(s.authorizePayment(r)),
		saga.Sequential(s.recordPayment(r)),
		saga.Sequential(s.createOrderSet(r)),
		saga.Sequential(s.createOrders(r, log)),
		saga.Concurrent("fulfil",
			s.reserveInventory(r),
			s.createLinks(r),
			s.completeCart(r),
		),
		saga.Sequential(s.emitEvents(r)),
	)
	if err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, link.ErrDuplicateLink) {
			return s.adoptWinner(ctx, cartID, err, log)
		}
		if shared.IsInvariantViolation(err) {
			log.Error("Checkout invariant violated", zap.Error(err))
		} else {
			log.Warn("Checkout failed", zap.String("step", saga.FailedStep(err)), zap.Error(err))
		}
		return nil, err
	}

	telemetry.SetOK(span)
	orderIDs := make([]uuid.UUID, len(r.orders))
	for i, o := range r.orders {
		orderIDs[i] = o.ID
	}
	log.Info("Cart checked out",
		zap.String("order_set_id", r.orderSet.ID.String()),
		zap.Int("orders", len(orderIDs)),
	)
	return &Result{OrderSetID: r.orderSet.ID, OrderIDs: orderIDs}, nil
}

// findExisting returns the order set already produced for the cart, or nil
func (s *Service) findExisting(ctx context.Context, cartID uuid.UUID) (*Result, error) {
	links, err := s.deps.Links.FindLinked(ctx, link.OrderSetCart, link.SideRight, cartID)
	if err != nil {
		return nil, fmt.Errorf("find order set for cart: %w", err)
	}
	if len(links) == 0 {
		return nil, nil
	}
	setID := links[0].LeftID
	orderLinks, err := s.deps.Links.FindLinked(ctx, link.OrderSetOrder, link.SideLeft, setID)
	if err != nil {
		return nil, fmt.Errorf("find orders of order set: %w", err)
	}
	orderIDs := make([]uuid.UUID, len(orderLinks))
	for i, l := range orderLinks {
		orderIDs[i] = l.RightID
	}
	return &Result{OrderSetID: setID, OrderIDs: orderIDs, Existing: true}, nil
}

// adoptWinner handles losing the race for the cart's order set link: another
// checkout of the same cart committed first, so its order set is returned.
func (s *Service) adoptWinner(ctx context.Context, cartID uuid.UUID, cause error, log *zap.Logger) (*Result, error) {
	ctx = context.WithoutCancel(ctx)
	existing, err := s.findExisting(ctx, cartID)
	if err != nil {
		return nil, errors.Join(cause, err)
	}
	if existing == nil {
		return nil, cause
	}

	// our compensation may have reopened the cart after the winner completed it
	c, err := s.deps.Carts.FindByID(ctx, cartID)
	if err == nil && !c.IsCompleted() {
		now := time.Now().UTC()
		err = s.deps.Carts.SetCompletedAt(ctx, cartID, &now)
	}
	if err != nil {
		log.Error("Failed to restore completion of concurrently checked out cart", zap.Error(err))
	}

	log.Info("Concurrent checkout won by another caller",
		zap.String("order_set_id", existing.OrderSetID.String()))
	return existing, nil
}

// prepare loads the cart, resolves sellers and validates that the cart can be
// split and paid. It has no side effects.
func (s *Service) prepare(ctx context.Context, cartID uuid.UUID) (*run, error) {
	c, err := s.deps.Carts.FindByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if c.IsCompleted() {
		return nil, ErrCartAlreadyCompleted
	}

	if err := s.resolveSellers(ctx, c); err != nil {
		return nil, err
	}
	drafts, err := checkout.Partition(c)
	if err != nil {
		return nil, err
	}
	if err := s.checkSellers(ctx, drafts); err != nil {
		return nil, err
	}

	session, err := c.ActivePaymentSession()
	if err != nil {
		return nil, err
	}
	// the allocation with a single capture of the cart total must be possible
	// before money moves
	if _, err := checkout.AllocatePayment(drafts, "", []checkout.Capture{{Amount: c.Total()}}, c.CurrencyCode); err != nil {
		return nil, err
	}

	return &run{cart: c, session: session, drafts: drafts}, nil
}

func (s *Service) resolveSellers(ctx context.Context, c *cart.Cart) error {
	productLinks, err := s.deps.Links.FindLinked(ctx, link.SellerProduct, link.SideRight, c.ProductIDs()...)
	if err != nil {
		return fmt.Errorf("resolve product sellers: %w", err)
	}
	optionLinks, err := s.deps.Links.FindLinked(ctx, link.SellerShippingOption, link.SideRight, c.ShippingOptionIDs()...)
	if err != nil {
		return fmt.Errorf("resolve shipping option sellers: %w", err)
	}
	c.ResolveSellers(link.LeftByRight(productLinks), link.LeftByRight(optionLinks))
	return nil
}

func (s *Service) checkSellers(ctx context.Context, drafts []checkout.SellerDraft) error {
	ids := make([]uuid.UUID, len(drafts))
	for i, d := range drafts {
		ids[i] = d.SellerID
	}
	sellers, err := s.deps.Sellers.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]seller.Seller, len(sellers))
	for _, sl := range sellers {
		byID[sl.ID] = sl
	}
	for _, id := range ids {
		sl, ok := byID[id]
		if !ok {
			return shared.NewDomainError(checkout.ErrUnresolvedSeller.Code, fmt.Sprintf("Seller %s does not exist", id))
		}
		if !sl.CanSell() {
			return shared.NewDomainError(seller.ErrSellerNotSelling.Code,
				fmt.Sprintf("Seller %s is %s", sl.Handle, sl.Status))
		}
	}
	return nil
}

func (s *Service) authorizePayment(r *run) saga.Step {
	return saga.Step{
		Name: StepAuthorizePayment,
		Execute: func(ctx context.Context) error {
			c := r.cart
			auth, err := s.deps.Payments.Authorize(ctx, *r.session, checkout.PaymentContext{
				CartID:       c.ID,
				CustomerID:   c.CustomerID,
				Email:        c.Email,
				CurrencyCode: c.CurrencyCode,
				Amount:       c.Total(),
			})
			if err != nil {
				return err
			}
			r.auth = auth
			return nil
		},
		Compensate: func(ctx context.Context) error {
			if r.auth == nil {
				return nil
			}
			return s.deps.Payments.Cancel(ctx, r.auth.PaymentID)
		},
	}
}

// recordPayment slices the captures across the drafts and marks the session
// authorized. It runs as its own step so that a failure here still cancels
// the payment.
func (s *Service) recordPayment(r *run) saga.Step {
	return saga.Step{
		Name: StepRecordPayment,
		Execute: func(ctx context.Context) error {
			allocations, err := checkout.AllocatePayment(r.drafts, r.auth.PaymentID, r.auth.Captures, r.cart.CurrencyCode)
			if err != nil {
				return err
			}
			r.allocations = allocations
			return s.deps.Carts.UpdatePaymentSessionStatus(ctx, r.session.ID, cart.PaymentSessionAuthorized)
		},
		Compensate: func(ctx context.Context) error {
			return s.deps.Carts.UpdatePaymentSessionStatus(ctx, r.session.ID, cart.PaymentSessionPending)
		},
	}
}

func (s *Service) createOrderSet(r *run) saga.Step {
	return saga.Step{
		Name: StepCreateOrderSet,
		Execute: func(ctx context.Context) error {
			set := order.NewOrderSet()
			if err := s.deps.Orders.CreateOrderSet(ctx, set); err != nil {
				return err
			}
			r.orderSet = set
			return nil
		},
		Compensate: func(ctx context.Context) error {
			return s.deps.Orders.DeleteOrderSet(ctx, r.orderSet.ID)
		},
	}
}

func (s *Service) createOrders(r *run, log *zap.Logger) saga.Step {
	return saga.Step{
		Name: StepCreateOrders,
		Execute: func(ctx context.Context) error {
			orders := make([]*order.Order, 0, len(r.drafts))
			sellerOf := make(map[uuid.UUID]uuid.UUID, len(r.drafts))
			totals := make(map[uuid.UUID]decimal.Decimal, len(r.drafts))
			for _, draft := range r.drafts {
				o, err := checkout.BuildOrder(r.cart, draft, r.allocations.ForSeller(draft.SellerID))
				if err != nil {
					return err
				}
				orders = append(orders, o)
				sellerOf[o.ID] = draft.SellerID
				totals[draft.SellerID] = o.Total
			}
			if err := s.deps.Orders.CreateOrders(ctx, orders); err != nil {
				return err
			}
			r.orders = orders
			r.sellerOf = sellerOf

			for _, m := range checkout.Reconcile(r.cart.CurrencyCode, totals, r.allocations) {
				log.Warn("Order total does not match allocated payment",
					zap.String("seller_id", m.SellerID.String()),
					zap.String("order_total", m.OrderTotal.String()),
					zap.String("allocated", m.Allocated.String()),
				)
			}
			return nil
		},
		Compensate: func(ctx context.Context) error {
			ids := make([]uuid.UUID, len(r.orders))
			for i, o := range r.orders {
				ids[i] = o.ID
			}
			return s.deps.Orders.DeleteOrders(ctx, ids)
		},
	}
}

func (s *Service) reserveInventory(r *run) saga.Step {
	return saga.Step{
		Name: StepReserveInventory,
		Execute: func(ctx context.Context) error {
			items := make([]checkout.ReservationItem, 0, len(r.cart.Items))
			for _, item := range r.cart.Items {
				items = append(items, checkout.ReservationItem{
					VariantID:  item.VariantID,
					Quantity:   item.Quantity,
					LineItemID: item.ID,
				})
			}
			ids, err := s.deps.Inventory.Reserve(ctx, items, r.cart.SalesChannelID)
			if err != nil {
				return err
			}
			r.reservations = ids
			return nil
		},
		Compensate: func(ctx context.Context) error {
			return s.deps.Inventory.Release(ctx, r.reservations)
		},
	}
}

func (s *Service) createLinks(r *run) saga.Step {
	return saga.Step{
		Name: StepCreateLinks,
		Execute: func(ctx context.Context) error {
			setID := r.orderSet.ID
			links := []link.Link{link.OrderSetCart.New(setID, r.cart.ID)}
			if r.cart.CustomerID != nil {
				links = append(links, link.OrderSetCustomer.New(setID, *r.cart.CustomerID))
			}
			for _, o := range r.orders {
				links = append(links,
					link.SellerOrder.New(r.sellerOf[o.ID], o.ID),
					link.OrderSetOrder.New(setID, o.ID),
				)
			}
			if err := s.deps.Links.Create(ctx, links...); err != nil {
				return err
			}
			r.links = links
			return nil
		},
		Compensate: func(ctx context.Context) error {
			return s.deps.Links.Dismiss(ctx, r.links...)
		},
	}
}

func (s *Service) completeCart(r *run) saga.Step {
	return saga.Step{
		Name: StepCompleteCart,
		Execute: func(ctx context.Context) error {
			now := time.Now().UTC()
			return s.deps.Carts.SetCompletedAt(ctx, r.cart.ID, &now)
		},
		Compensate: func(ctx context.Context) error {
			return s.deps.Carts.SetCompletedAt(ctx, r.cart.ID, nil)
		},
	}
}

func (s *Service) emitEvents(r *run) saga.Step {
	return saga.Step{
		Name: StepEmitEvents,
		Execute: func(ctx context.Context) error {
			events := make([]shared.DomainEvent, 0, len(r.orders)+1)
			orderIDs := make([]uuid.UUID, len(r.orders))
			for i, o := range r.orders {
				events = append(events, order.NewOrderPlacedEvent(o, r.orderSet.ID, r.sellerOf[o.ID]))
				orderIDs[i] = o.ID
			}
			events = append(events, order.NewOrderSetPlacedEvent(r.orderSet.ID, r.cart.ID, orderIDs))
			return s.deps.Events.Publish(ctx, events...)
		},
	}
}

// GetOrderSet returns an order set with its orders and their sellers
func (s *Service) GetOrderSet(ctx context.Context, id uuid.UUID) (*OrderSetResponse, error) {
	set, err := s.deps.Orders.FindOrderSetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	orderLinks, err := s.deps.Links.FindLinked(ctx, link.OrderSetOrder, link.SideLeft, id)
	if err != nil {
		return nil, err
	}
	orderIDs := make([]uuid.UUID, len(orderLinks))
	for i, l := range orderLinks {
		orderIDs[i] = l.RightID
	}
	orders, err := s.deps.Orders.FindByIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	sellerLinks, err := s.deps.Links.FindLinked(ctx, link.SellerOrder, link.SideRight, orderIDs...)
	if err != nil {
		return nil, err
	}
	sellerOf := link.LeftByRight(sellerLinks)

	resp := &OrderSetResponse{ID: set.ID, CreatedAt: set.CreatedAt, Orders: make([]OrderResponse, 0, len(orders))}
	cartLinks, err := s.deps.Links.FindLinked(ctx, link.OrderSetCart, link.SideLeft, id)
	if err != nil {
		return nil, err
	}
	if len(cartLinks) > 0 {
		resp.CartID = &cartLinks[0].RightID
	}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, ToOrderResponse(o, sellerOf[o.ID]))
		resp.Total = resp.Total.Add(o.Total)
	}
	return resp, nil
}
