package callback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestWaitCapturesFirstSignal(t *testing.T) {
	t.Parallel()

	srv, err := Listen("127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("binding loopback: %v", err)
	}

	type result struct {
		orderID int64
		err     error
	}
	results := make(chan result, 1)
	go func() {
		sig, waitErr := srv.Wait(context.Background())
		results <- result{orderID: sig.OrderID, err: waitErr}
	}()

	body := get(t, fmt.Sprintf("http://%s/?payment_success=1&order_id=42", srv.Addr()))
	if !strings.Contains(body, "Paiement") {
		t.Fatalf("expected the completion page, got %q", body)
	}

	select {
	case res := <-results:
		if res.err != nil {
			t.Fatalf("unexpected error: %v", res.err)
		}
		if res.orderID != 42 {
			t.Fatalf("expected order 42, got %d", res.orderID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("wait did not complete after the redirect")
	}
}

func TestWaitIgnoresRequestsWithoutSignal(t *testing.T) {
	t.Parallel()

	srv, err := Listen("127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("binding loopback: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, waitErr := srv.Wait(ctx)
		done <- waitErr
	}()

	// Favicons and reloads of the stripped URL must not end the wait.
	get(t, fmt.Sprintf("http://%s/favicon.ico", srv.Addr()))
	get(t, fmt.Sprintf("http://%s/?payment_success=1", srv.Addr()))
	get(t, fmt.Sprintf("http://%s/?order_id=42", srv.Addr()))

	select {
	case err := <-done:
		t.Fatalf("wait ended without a signal: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context cancellation, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("wait did not unwind after cancellation")
	}
}

func TestWaitUnwindsOnCancellation(t *testing.T) {
	t.Parallel()

	srv, err := Listen("127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("binding loopback: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := srv.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func get(t *testing.T, url string) string {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("requesting %s: %v", url, err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(body)
}
