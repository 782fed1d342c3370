package checkout

import (
	"context"
	"fmt"

	"github.com/museeloquente/storefront/internal/api"
	"github.com/museeloquente/storefront/internal/cart"
	"github.com/museeloquente/storefront/internal/returnurl"
	pkgerrors "github.com/museeloquente/storefront/pkg/errors"
	"github.com/museeloquente/storefront/pkg/logger"
)

// State is the shopper's position in the purchase flow.
type State string

const (
	StateBrowsing       State = "browsing"
	StateCartReview     State = "cart_review"
	StateOrderCreated   State = "order_created"
	StatePaymentPending State = "payment_pending"
	StatePaid           State = "paid"
)

type backendAPI interface {
	CreateOrder(ctx context.Context, productIDs []int64) (*api.Order, error)
	CreateIntent(ctx context.Context, orderID int64) (*api.CreateIntentResponse, error)
	ConfirmPaid(ctx context.Context, orderID int64) error
	MockConfirm(ctx context.Context, orderID int64) error
}

type sessionStore interface {
	Loaded() bool
	Authenticated() bool
}

type cartStore interface {
	AddItem(ctx context.Context, item cart.Item) error
	Items() []cart.Item
	Count() int
	Clear(ctx context.Context)
}

type paymentProvider interface {
	Hosted() bool
	HostedPaymentURL(clientSecret string, orderID int64) (string, error)
}

// OrderProjection is the transient in-memory view of the just-created order
// that drives payment. The item snapshot is taken at order creation so the
// payment screen is decoupled from later cart mutations; the authoritative
// order lives server-side.
type OrderProjection struct {
	OrderID    int64
	TotalCents int64
	Items      []cart.Item
}

// Controller sequences the browsing → cart review → order created → payment
// pending → paid flow and enforces its transitions. Like the stores it is
// driven from a single goroutine.
type Controller struct {
	backend  backendAPI
	session  sessionStore
	cart     cartStore
	provider paymentProvider
	logg     *logger.Logger

	state      State
	order      *OrderProjection
	pendingAdd *cart.Item

	// confirmedOrderID remembers the last order whose paid completion was
	// handled, so a re-run of the resolving path neither re-clears the cart
	// nor re-sends the confirmation.
	confirmedOrderID int64
}

func NewController(backend backendAPI, session sessionStore, cartStore cartStore, provider paymentProvider, logg *logger.Logger) (*Controller, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend client is required")
	}
	if session == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if cartStore == nil {
		return nil, fmt.Errorf("cart store is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("payment provider is required")
	}
	return &Controller{
		backend:  backend,
		session:  session,
		cart:     cartStore,
		provider: provider,
		logg:     logg,
		state:    StateBrowsing,
	}, nil
}

func (c *Controller) State() State {
	return c.state
}

// Order returns the in-flight order projection, nil outside the
// OrderCreated/PaymentPending window.
func (c *Controller) Order() *OrderProjection {
	return c.order
}

// RequestAdd adds the item to the cart when a user is signed in. For an
// anonymous shopper it instead parks the item as a pending intent so the
// caller can route through authentication first; the intent is consumed by
// ConsumePendingAdd after a successful login or discarded on abort.
func (c *Controller) RequestAdd(ctx context.Context, item cart.Item) (bool, error) {
	if c.session.Authenticated() {
		if err := c.cart.AddItem(ctx, item); err != nil {
			return false, err
		}
		return true, nil
	}
	pending := item
	c.pendingAdd = &pending
	return false, nil
}

// ConsumePendingAdd adds the parked item, if any, and clears the intent.
func (c *Controller) ConsumePendingAdd(ctx context.Context) (*cart.Item, error) {
	if c.pendingAdd == nil {
		return nil, nil
	}
	item := *c.pendingAdd
	c.pendingAdd = nil
	if err := c.cart.AddItem(ctx, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DiscardPendingAdd drops the parked item without adding it.
func (c *Controller) DiscardPendingAdd() {
	c.pendingAdd = nil
}

// ReviewCart moves to cart review from browsing (or stays there).
func (c *Controller) ReviewCart() error {
	switch c.state {
	case StateBrowsing, StateCartReview:
		c.state = StateCartReview
		return nil
	default:
		return c.invalidTransition("review cart")
	}
}

// Back abandons the current step: payment steps fall back to cart review,
// cart review falls back to browsing. The created order, if any, stays
// payable server-side; only the local projection is dropped.
func (c *Controller) Back() {
	switch c.state {
	case StateOrderCreated, StatePaymentPending:
		c.order = nil
		c.state = StateCartReview
	case StateCartReview, StatePaid:
		c.order = nil
		c.state = StateBrowsing
	}
}

// CreateOrder submits the cart's product ids and snapshots the cart as the
// order's display items. Requires an authenticated session; anonymous
// checkout is rejected before any network call. On failure the flow stays
// in cart review and the error is retryable where the taxonomy says so.
func (c *Controller) CreateOrder(ctx context.Context) (*OrderProjection, error) {
	if c.state != StateCartReview {
		return nil, c.invalidTransition("create order")
	}
	if !c.session.Loaded() {
		return nil, pkgerrors.New(pkgerrors.CodeState, "session is still loading")
	}
	if !c.session.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to place an order")
	}
	if c.cart.Count() == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "the cart is empty")
	}

	snapshot := c.cart.Items()
	ids := make([]int64, 0, len(snapshot))
	for _, item := range snapshot {
		ids = append(ids, item.ProductID)
	}

	order, err := c.backend.CreateOrder(ctx, ids)
	if err != nil {
		return nil, err
	}

	c.order = &OrderProjection{
		OrderID:    order.ID,
		TotalCents: order.TotalCents,
		Items:      snapshot,
	}
	c.state = StateOrderCreated

	if c.logg != nil {
		c.logg.Info(c.logg.WithOrderID(ctx, order.ID), "order created")
	}
	return c.order, nil
}

// StartHostedPayment exchanges the order for an intent secret and returns
// the hosted payment page URL. Completion arrives later through
// CompleteFromReturn, possibly in a different process. On failure the flow
// stays in OrderCreated.
func (c *Controller) StartHostedPayment(ctx context.Context) (string, error) {
	if c.state != StateOrderCreated {
		return "", c.invalidTransition("start payment")
	}
	if !c.provider.Hosted() {
		return "", pkgerrors.New(pkgerrors.CodeState, "hosted payments are not configured, use the simulated payment")
	}

	intent, err := c.backend.CreateIntent(ctx, c.order.OrderID)
	if err != nil {
		return "", err
	}

	pageURL, err := c.provider.HostedPaymentURL(intent.ClientSecret, c.order.OrderID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodePayment, err, "building hosted payment url")
	}

	c.state = StatePaymentPending
	return pageURL, nil
}

// MockPay confirms the order through the simulated payment endpoint and
// completes synchronously, with no redirect. Only available when hosted
// payments are not configured; the two strategies are mutually exclusive.
func (c *Controller) MockPay(ctx context.Context) error {
	if c.state != StateOrderCreated {
		return c.invalidTransition("pay")
	}
	if c.provider.Hosted() {
		return pkgerrors.New(pkgerrors.CodeState, "hosted payments are configured, pay through the payment page")
	}

	orderID := c.order.OrderID
	if err := c.backend.MockConfirm(ctx, orderID); err != nil {
		return err
	}

	// mock-confirm marks the order paid server-side, no notification needed
	c.confirmedOrderID = orderID
	c.enterPaid(ctx, orderID)
	return nil
}

// CompleteFromReturn finishes a hosted payment from a captured return-URL
// signal. The browser may have fully reloaded during the redirect, so this
// makes no assumption about in-memory continuity: any in-flight projection
// is discarded in favor of the signaled order. The confirm-paid notification
// is best-effort and sent at most once per order id even if the resolving
// path runs twice; a failure is swallowed because the backend reconciles
// payment status through its own channel.
func (c *Controller) CompleteFromReturn(ctx context.Context, sig returnurl.Signal) error {
	if !c.session.Loaded() {
		return pkgerrors.New(pkgerrors.CodeState, "session is still loading")
	}
	if c.confirmedOrderID == sig.OrderID {
		return nil
	}
	c.confirmedOrderID = sig.OrderID
	c.enterPaid(ctx, sig.OrderID)

	if err := c.backend.ConfirmPaid(ctx, sig.OrderID); err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithOrderID(ctx, sig.OrderID), "confirm-paid notification failed, backend reconciles independently", err)
	}
	return nil
}

// enterPaid performs the single cart clear and the terminal transition.
func (c *Controller) enterPaid(ctx context.Context, orderID int64) {
	c.order = nil
	c.state = StatePaid
	c.cart.Clear(ctx)
	if c.logg != nil {
		c.logg.Info(c.logg.WithOrderID(ctx, orderID), "order paid")
	}
}

func (c *Controller) invalidTransition(op string) error {
	return pkgerrors.New(pkgerrors.CodeState, fmt.Sprintf("cannot %s while %s", op, c.state))
}
