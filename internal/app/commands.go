package app

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/museeloquente/storefront/internal/callback"
	"github.com/museeloquente/storefront/internal/catalogue"
	"github.com/museeloquente/storefront/internal/returnurl"
	"github.com/museeloquente/storefront/internal/session"
	pkgerrors "github.com/museeloquente/storefront/pkg/errors"
	"github.com/museeloquente/storefront/pkg/money"
)

const usage = `usage: storefront <command> [args]

  catalogue              list the ebooks for sale
  buy <product-id>       add an ebook to the cart, signing in first if needed
  cart show              review the cart
  cart add <product-id>  add an ebook to the cart
  cart remove <id>       remove an ebook from the cart
  cart clear             empty the cart
  register               create an account and sign in
  login                  sign in
  logout                 sign out
  me                     show the signed-in account
  checkout               create an order from the cart and pay
  orders                 list past orders
  download <product-id>  fetch the download link for a paid ebook
  resume <url>           finish a payment from a return url
`

// Run dispatches one command. Each command maps to a view of the original
// flow; the flow controller enforces which steps are reachable.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return nil
	}

	command := args[0]
	ctx = a.logg.WithCommand(ctx, command)

	switch command {
	case "catalogue":
		return a.runCatalogue(ctx)
	case "buy":
		return a.runBuy(ctx, args[1:])
	case "cart":
		return a.runCart(ctx, args[1:])
	case "register":
		return a.runRegister(ctx)
	case "login":
		return a.runLogin(ctx)
	case "logout":
		a.session.Logout(ctx)
		fmt.Fprintln(a.out, "Signed out.")
		return nil
	case "me":
		return a.runMe()
	case "checkout":
		return a.runCheckout(ctx)
	case "orders":
		return a.runOrders(ctx)
	case "download":
		return a.runDownload(ctx, args[1:])
	case "resume":
		return a.runResume(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprint(a.out, usage)
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown command %q", command))
	}
}

func (a *App) runCatalogue(ctx context.Context) error {
	products, err := a.catalogue.List(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Fprintln(a.out, "The catalogue is empty.")
		return nil
	}
	for _, p := range products {
		marker := " "
		if a.cart.Contains(p.ID) {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s #%-3d %-40s %s\n", marker, p.ID, p.Title, money.FormatCents(p.PriceCents))
		if p.Description != "" {
			fmt.Fprintf(a.out, "       %s\n", p.Description)
		}
	}
	fmt.Fprintln(a.out, "\n(* already in your cart)")
	return nil
}

// runBuy is the deferred add-to-cart flow: an anonymous shopper is routed
// through sign-in or sign-up, and the parked item is added right after.
func (a *App) runBuy(ctx context.Context, args []string) error {
	productID, err := parseProductID(args)
	if err != nil {
		return err
	}
	product, err := a.catalogue.Find(ctx, productID)
	if err != nil {
		return err
	}

	added, err := a.flow.RequestAdd(ctx, catalogue.CartLine(*product))
	if err != nil {
		return err
	}
	if added {
		fmt.Fprintf(a.out, "Added %q to your cart (%d items, %s).\n", product.Title, a.cart.Count(), money.FormatCents(a.cart.TotalCents()))
		return nil
	}

	fmt.Fprintln(a.out, "To buy this ebook, sign in or create an account.")
	if err := a.promptAuthChoice(ctx); err != nil {
		a.flow.DiscardPendingAdd()
		return err
	}

	item, err := a.flow.ConsumePendingAdd(ctx)
	if err != nil {
		return err
	}
	if item != nil {
		fmt.Fprintf(a.out, "Added %q to your cart (%d items, %s).\n", item.Title, a.cart.Count(), money.FormatCents(a.cart.TotalCents()))
	}
	return nil
}

func (a *App) runCart(ctx context.Context, args []string) error {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "show":
		return a.renderCart()
	case "add":
		productID, err := parseProductID(args[1:])
		if err != nil {
			return err
		}
		product, err := a.catalogue.Find(ctx, productID)
		if err != nil {
			return err
		}
		if err := a.cart.AddItem(ctx, catalogue.CartLine(*product)); err != nil {
			return err
		}
		return a.renderCart()
	case "remove":
		productID, err := parseProductID(args[1:])
		if err != nil {
			return err
		}
		a.cart.RemoveItem(ctx, productID)
		return a.renderCart()
	case "clear":
		a.cart.Clear(ctx)
		fmt.Fprintln(a.out, "Cart emptied.")
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown cart subcommand %q", sub))
	}
}

func (a *App) renderCart() error {
	items := a.cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "Your cart is empty. Add ebooks from the catalogue.")
		return nil
	}
	for _, item := range items {
		fmt.Fprintf(a.out, "  #%-3d %-40s %s\n", item.ProductID, item.Title, money.FormatCents(item.UnitPriceCents))
	}
	fmt.Fprintf(a.out, "Total: %s (%d items)\n", money.FormatCents(a.cart.TotalCents()), a.cart.Count())
	if !a.session.Authenticated() {
		fmt.Fprintln(a.out, "Sign in to place an order.")
	}
	return nil
}

func (a *App) runRegister(ctx context.Context) error {
	input := session.RegisterInput{}
	input.Email = a.prompt("Email: ")
	input.Password = a.prompt("Password (8+ chars, letters and numbers): ")
	input.FirstName = a.prompt("First name (optional): ")
	input.LastName = a.prompt("Last name (optional): ")

	if err := a.session.Register(ctx, input); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", a.displayName())
	return nil
}

func (a *App) runLogin(ctx context.Context) error {
	email := a.prompt("Email: ")
	password := a.prompt("Password: ")

	if err := a.session.Login(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Hello, %s.\n", a.displayName())
	return nil
}

func (a *App) runMe() error {
	if !a.session.Authenticated() {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	user := a.session.User()
	fmt.Fprintf(a.out, "%s (%s)\n", user.DisplayName(), user.Email)
	return nil
}

// runCheckout drives cart review → order creation → payment in one sitting.
// The hosted strategy opens a browser page and waits for the provider to
// redirect back to the loopback callback; the simulated strategy confirms
// synchronously.
func (a *App) runCheckout(ctx context.Context) error {
	if err := a.flow.ReviewCart(); err != nil {
		return err
	}
	if err := a.renderCart(); err != nil {
		return err
	}

	order, err := a.flow.CreateOrder(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order #%d created, total %s.\n", order.OrderID, money.FormatCents(order.TotalCents))

	if !a.provider.Hosted() {
		if err := a.flow.MockPay(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Payment recorded (simulated). Your ebooks are in `storefront orders`.")
		return nil
	}

	addr := net.JoinHostPort(a.cfg.Payment.CallbackHost, strconv.Itoa(a.cfg.Payment.CallbackPort))
	receiver, err := callback.Listen(addr, a.logg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePayment, err, "starting payment callback listener")
	}

	pageURL, err := a.flow.StartHostedPayment(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Open this page in your browser to pay:\n\n  %s\n\nWaiting for the payment to complete (Ctrl-C to abandon)...\n", pageURL)

	sig, err := receiver.Wait(ctx)
	if err != nil {
		a.flow.Back()
		return pkgerrors.Wrap(pkgerrors.CodePayment, err, "payment was not completed")
	}

	if err := a.flow.CompleteFromReturn(ctx, sig); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Payment received for order #%d. Your ebooks are in `storefront orders`.\n", sig.OrderID)
	return nil
}

func (a *App) runOrders(ctx context.Context) error {
	history, err := a.orders.List(ctx)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Fprintln(a.out, "No orders yet.")
		return nil
	}
	for _, order := range history {
		fmt.Fprintf(a.out, "Order #%d  %-10s %s\n", order.ID, order.Status, money.FormatCents(order.TotalCents))
		for _, item := range order.Items {
			fmt.Fprintf(a.out, "  #%-3d %-40s %s\n", item.ProductID, item.ProductTitle, money.FormatCents(item.PriceCents))
		}
	}
	fmt.Fprintln(a.out, "\nDownloads are available for paid orders: storefront download <product-id>")
	return nil
}

func (a *App) runDownload(ctx context.Context, args []string) error {
	productID, err := parseProductID(args)
	if err != nil {
		return err
	}
	history, err := a.orders.List(ctx)
	if err != nil {
		return err
	}
	url, err := a.orders.DownloadURL(ctx, history, productID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\n", url)
	return nil
}

// runResume replays a return URL in a fresh process, for the case where the
// checkout process did not survive the redirect. The same duplicate-send
// guard applies.
func (a *App) runResume(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "resume expects the return url as its only argument")
	}
	sig, stripped, ok := returnurl.Resolve(args[0])
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "the url does not carry a payment completion signal")
	}
	if err := a.flow.CompleteFromReturn(ctx, sig); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Payment received for order #%d.\n", sig.OrderID)
	if stripped != "" {
		fmt.Fprintf(a.out, "(safe to revisit: %s)\n", stripped)
	}
	return nil
}

func (a *App) promptAuthChoice(ctx context.Context) error {
	for {
		choice := strings.ToLower(a.prompt("[l]ogin, [r]egister or [a]bort? "))
		switch choice {
		case "l", "login":
			return a.runLogin(ctx)
		case "r", "register":
			return a.runRegister(ctx)
		case "a", "abort", "":
			return pkgerrors.New(pkgerrors.CodeState, "sign-in aborted")
		}
	}
}

func (a *App) prompt(label string) string {
	fmt.Fprint(a.out, label)
	line, _ := a.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func (a *App) displayName() string {
	if user := a.session.User(); user != nil {
		return user.DisplayName()
	}
	return "there"
}

func parseProductID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "a product id is required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%q is not a product id", args[0]))
	}
	return id, nil
}
