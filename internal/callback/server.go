package callback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/museeloquente/storefront/internal/returnurl"
	"github.com/museeloquente/storefront/pkg/logger"
)

const completedPage = `<!doctype html>
<html>
  <head><title>La Muse Eloquente</title></head>
  <body style="font-family: sans-serif; text-align: center; padding-top: 4rem;">
    <h1>Paiement enregistré</h1>
    <p>Vous pouvez fermer cet onglet et retourner au terminal.</p>
  </body>
</html>`

const waitingPage = `<!doctype html>
<html>
  <head><title>La Muse Eloquente</title></head>
  <body style="font-family: sans-serif; text-align: center; padding-top: 4rem;">
    <p>En attente de la confirmation du paiement...</p>
  </body>
</html>`

// Server is the loopback receiver for the hosted payment redirect. It stands
// in for the SPA's return URL: the provider sends the browser back to this
// address with the completion parameters, and the first captured signal ends
// the wait.
type Server struct {
	listener net.Listener
	logg     *logger.Logger
}

// Listen binds the configured loopback address up front so a busy port
// surfaces before the shopper is sent to the payment page.
func Listen(addr string, logg *logger.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("binding payment callback address %s: %w", addr, err)
	}
	return &Server{listener: listener, logg: logg}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Wait serves until the provider redirect delivers a completion signal or
// ctx is canceled. The server shuts down after the first capture; requests
// without the signal (favicons, reloads of the stripped URL) get a holding
// page and do not end the wait.
func (s *Server) Wait(ctx context.Context) (returnurl.Signal, error) {
	signals := make(chan returnurl.Signal, 1)

	router := chi.NewRouter()
	router.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		sig, _, ok := returnurl.Resolve(r.URL.String())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if !ok {
			fmt.Fprint(w, waitingPage)
			return
		}
		fmt.Fprint(w, completedPage)
		select {
		case signals <- sig:
		default:
		}
	})

	httpServer := &http.Server{Handler: router}

	var captured returnurl.Signal
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		select {
		case captured = <-signals:
		case <-groupCtx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
		return groupCtx.Err()
	})

	if err := group.Wait(); err != nil {
		return returnurl.Signal{}, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, captured.OrderID), "payment redirect received")
	}
	return captured, nil
}
