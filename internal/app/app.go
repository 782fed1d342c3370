package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"

	"github.com/museeloquente/storefront/internal/api"
	"github.com/museeloquente/storefront/internal/cart"
	"github.com/museeloquente/storefront/internal/catalogue"
	"github.com/museeloquente/storefront/internal/checkout"
	"github.com/museeloquente/storefront/internal/localstore"
	"github.com/museeloquente/storefront/internal/orders"
	"github.com/museeloquente/storefront/internal/payment"
	"github.com/museeloquente/storefront/internal/session"
	"github.com/museeloquente/storefront/pkg/config"
	"github.com/museeloquente/storefront/pkg/logger"
)

// App is the assembled storefront: the two persisted stores, the flow
// controller, and the services the commands read from. Each process is one
// "app load": construction replays persistence and validates the held
// token before any command runs.
type App struct {
	cfg  *config.Config
	logg *logger.Logger

	state     *localstore.Client
	backend   *api.Client
	cart      *cart.Store
	session   *session.Store
	catalogue *catalogue.Service
	orders    *orders.Service
	provider  *payment.Provider
	flow      *checkout.Controller

	out io.Writer
	in  *bufio.Reader
}

// New wires the application and performs the initial session load.
func New(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	state, err := localstore.New(ctx, cfg.Storage.StatePath)
	if err != nil {
		return nil, fmt.Errorf("opening local state: %w", err)
	}

	backend, err := api.NewClient(cfg.API.BaseURL, api.WithTimeout(cfg.API.Timeout), api.WithLogger(logg))
	if err != nil {
		return nil, closeOnErr(state, fmt.Errorf("building api client: %w", err))
	}

	cartStore, err := cart.NewStore(ctx, state, logg)
	if err != nil {
		return nil, closeOnErr(state, fmt.Errorf("building cart store: %w", err))
	}

	sessionStore, err := session.NewStore(ctx, state, backend, logg)
	if err != nil {
		return nil, closeOnErr(state, fmt.Errorf("building session store: %w", err))
	}

	provider, err := payment.NewProvider(cfg.Payment)
	if err != nil {
		return nil, closeOnErr(state, fmt.Errorf("configuring payment provider: %w", err))
	}

	catalogueSvc, err := catalogue.NewService(backend)
	if err != nil {
		return nil, closeOnErr(state, err)
	}

	ordersSvc, err := orders.NewService(backend)
	if err != nil {
		return nil, closeOnErr(state, err)
	}

	flow, err := checkout.NewController(backend, sessionStore, cartStore, provider, logg)
	if err != nil {
		return nil, closeOnErr(state, err)
	}

	app := &App{
		cfg:       cfg,
		logg:      logg,
		state:     state,
		backend:   backend,
		cart:      cartStore,
		session:   sessionStore,
		catalogue: catalogueSvc,
		orders:    ordersSvc,
		provider:  provider,
		flow:      flow,
		out:       os.Stdout,
		in:        bufio.NewReader(os.Stdin),
	}

	// the definitive authenticated/anonymous answer is only available once
	// this round trip completes
	app.session.Load(ctx)

	return app, nil
}

// Close releases the local state file.
func (a *App) Close() error {
	var err error
	if a.state != nil {
		err = multierr.Append(err, a.state.Close())
	}
	return err
}

func closeOnErr(state *localstore.Client, err error) error {
	return multierr.Append(err, state.Close())
}
