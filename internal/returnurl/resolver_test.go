package returnurl

import "testing"

func TestResolveCapturesSignal(t *testing.T) {
	t.Parallel()

	sig, stripped, ok := Resolve("http://127.0.0.1:8787/?payment_success=1&order_id=42")
	if !ok {
		t.Fatal("expected a capture")
	}
	if sig.OrderID != 42 {
		t.Fatalf("expected order 42, got %d", sig.OrderID)
	}
	if stripped != "http://127.0.0.1:8787/" {
		t.Fatalf("expected bare url, got %q", stripped)
	}
}

func TestResolveKeepsForeignParams(t *testing.T) {
	t.Parallel()

	// the provider appends its own params on the redirect; only the two we
	// own are removed
	sig, stripped, ok := Resolve("http://127.0.0.1:8787/?payment_success=1&order_id=7&payment_intent=pi_123")
	if !ok || sig.OrderID != 7 {
		t.Fatalf("expected capture of order 7, got ok=%v sig=%+v", ok, sig)
	}
	if stripped != "http://127.0.0.1:8787/?payment_intent=pi_123" {
		t.Fatalf("foreign params must survive, got %q", stripped)
	}
}

func TestResolveIgnoresIncompleteSignals(t *testing.T) {
	t.Parallel()

	cases := []string{
		"http://127.0.0.1:8787/",
		"http://127.0.0.1:8787/?payment_success=1",
		"http://127.0.0.1:8787/?order_id=42",
		"http://127.0.0.1:8787/?payment_success=0&order_id=42",
		"http://127.0.0.1:8787/?payment_success=1&order_id=abc",
		"http://127.0.0.1:8787/?payment_success=1&order_id=",
	}
	for _, raw := range cases {
		if _, got, ok := Resolve(raw); ok {
			t.Fatalf("unexpected capture for %q", raw)
		} else if got != raw {
			t.Fatalf("non-captured url must pass through unchanged: %q -> %q", raw, got)
		}
	}
}

func TestResolveRelativeURL(t *testing.T) {
	t.Parallel()

	// app-load semantics: a bare path with query works the same way
	sig, stripped, ok := Resolve("/?payment_success=1&order_id=3")
	if !ok || sig.OrderID != 3 {
		t.Fatalf("expected capture, got ok=%v sig=%+v", ok, sig)
	}
	if stripped != "/" {
		t.Fatalf("expected stripped path, got %q", stripped)
	}
}
