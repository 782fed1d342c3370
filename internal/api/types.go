package api

// User mirrors the profile record returned by /auth/me and /auth/register.
type User struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Role      string  `json:"role"`
}

// DisplayName prefers the first name and falls back to the email.
func (u User) DisplayName() string {
	if u.FirstName != nil && *u.FirstName != "" {
		return *u.FirstName
	}
	return u.Email
}

type RegisterRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Product is one catalogue record from /products/.
type Product struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	LongDescription *string `json:"long_description,omitempty"`
	PriceCents      int64   `json:"price_cents"`
	CoverImageURL   *string `json:"cover_image_url,omitempty"`
	SamplePDFURL    *string `json:"sample_pdf_url,omitempty"`
}

type createOrderItem struct {
	ProductID int64 `json:"product_id"`
}

type createOrderRequest struct {
	Items []createOrderItem `json:"items"`
}

// OrderItem is one line of a server-recorded order.
type OrderItem struct {
	ProductID    int64  `json:"product_id"`
	ProductTitle string `json:"product_title"`
	PriceCents   int64  `json:"price_cents"`
}

// OrderStatusPaid is the only status the client interprets; everything else
// is carried through as an opaque backend-defined label.
const OrderStatusPaid = "paid"

// Order is the server's authoritative purchase record.
type Order struct {
	ID         int64       `json:"id"`
	Status     string      `json:"status"`
	TotalCents int64       `json:"total_cents"`
	Items      []OrderItem `json:"items"`
}

// Paid reports whether downloads for this order's products are unlocked.
func (o Order) Paid() bool {
	return o.Status == OrderStatusPaid
}

type orderIDRequest struct {
	OrderID int64 `json:"order_id"`
}

type CreateIntentResponse struct {
	ClientSecret string `json:"client_secret"`
}

type DownloadResponse struct {
	ProductID int64  `json:"product_id"`
	URL       string `json:"url"`
}
