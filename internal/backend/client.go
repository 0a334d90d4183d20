// Package backend is the HTTP client for the remote FarmConnect API. The
// backend owns all business logic (auth, pricing, stock, the authoritative
// cart); this client only shapes requests and maps responses.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/domain"
)

// Client talks to a single backend origin. Safe for concurrent use.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *log.Logger
}

// New builds a Client. The timeout bounds every request end to end.
func New(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// SignInInput mirrors the signin endpoint's request body.
type SignInInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignUpInput mirrors the signup endpoint's request body.
type SignUpInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// SignInResult carries the raw token pieces plus the profile fields the
// backend returns alongside them.
type SignInResult struct {
	Token     string
	TokenType string
	Profile   domain.Profile
}

type signInResponse struct {
	Token    string `json:"token"`
	Type     string `json:"type"`
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type cartResponse struct {
	Items []cartItem `json:"items"`
}

type cartItem struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Unit        string          `json:"unit"`
	ImageURL    string          `json:"imageUrl"`
	FarmName    string          `json:"farmName"`
	FarmerName  string          `json:"farmerName"`
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// SignIn exchanges credentials for a token and profile. Any non-2xx response
// is an error; the caller decides how to surface it.
func (c *Client) SignIn(ctx context.Context, in SignInInput) (SignInResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/auth/signin", "", in)
	if err != nil {
		return SignInResult{}, err
	}
	var res signInResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return SignInResult{}, fmt.Errorf("decode signin response: %w", err)
	}
	return SignInResult{
		Token:     res.Token,
		TokenType: res.Type,
		Profile: domain.Profile{
			ID:       res.ID,
			Username: res.Username,
			Email:    res.Email,
			Role:     res.Role,
		},
	}, nil
}

// SignUp registers a new account. A successful signup does not sign the
// user in; the storefront follows it with a separate SignIn.
func (c *Client) SignUp(ctx context.Context, in SignUpInput) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/signup", "", in)
	return err
}

// FetchCart loads the authoritative cart for the given credential.
func (c *Client) FetchCart(ctx context.Context, credential string) ([]domain.LineItem, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/cart", credential, nil)
	if err != nil {
		return nil, err
	}
	var res cartResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode cart response: %w", err)
	}
	items := make([]domain.LineItem, 0, len(res.Items))
	for _, it := range res.Items {
		items = append(items, domain.LineItem{
			LineID:     it.ID,
			ProductID:  it.ProductID,
			Name:       it.ProductName,
			UnitPrice:  it.Price,
			Quantity:   it.Quantity,
			Unit:       it.Unit,
			ImageRef:   it.ImageURL,
			FarmName:   it.FarmName,
			FarmerName: it.FarmerName,
		})
	}
	return items, nil
}

// AddItem adds one unit of a product to the remote cart.
func (c *Client) AddItem(ctx context.Context, credential, productID string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/cart/add", credential, addItemRequest{ProductID: productID, Quantity: 1})
	return err
}

// DecreaseItem removes one unit from the given cart line.
func (c *Client) DecreaseItem(ctx context.Context, credential, lineID string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/cart/decrease/"+url.PathEscape(lineID), credential, nil)
	return err
}

// RemoveItem deletes the given cart line.
func (c *Client) RemoveItem(ctx context.Context, credential, lineID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/cart/remove/"+url.PathEscape(lineID), credential, nil)
	return err
}

// ClearCart empties the remote cart.
func (c *Client) ClearCart(ctx context.Context, credential string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/cart/clear", credential, nil)
	return err
}

// Products fetches the product catalog verbatim; the gateway proxies it to
// the storefront without interpreting it.
func (c *Client) Products(ctx context.Context) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/product", "", nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (c *Client) do(ctx context.Context, method, path, credential string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		// The credential is the verbatim header value, e.g. "Bearer <token>".
		req.Header.Set("Authorization", credential)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrBackend, method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: read body: %v", domain.ErrBackend, method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Printf("backend %s %s returned %d", method, path, resp.StatusCode)
		return nil, fmt.Errorf("%w: %s %s: status %d", domain.ErrBackend, method, path, resp.StatusCode)
	}
	return body, nil
}
