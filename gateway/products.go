package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"QRKara/model"
)

// CartItem is one line of a batched order submission.
type CartItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// FetchProducts returns the product catalog.
func (c *Client) FetchProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.get(ctx, "/products/", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct creates a catalog product.
func (c *Client) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	var created model.Product
	if err := c.post(ctx, "/products/", p, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// SetProductActive toggles a product's availability.
func (c *Client) SetProductActive(ctx context.Context, productID int64, active bool) error {
	action := "deactivate"
	if active {
		action = "activate"
	}
	return c.post(ctx, fmt.Sprintf("/products/%d/%s", productID, action), nil, nil)
}

// DeleteProduct removes a product from the catalog.
func (c *Client) DeleteProduct(ctx context.Context, productID int64) error {
	return c.delete(ctx, fmt.Sprintf("/products/%d", productID))
}

// UploadProductImage replaces a product's catalog image. The only non-JSON
// call on the surface, so it builds its multipart request by hand instead of
// going through call.
func (c *Client) UploadProductImage(ctx context.Context, productID int64, filename string, image io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return fmt.Errorf("building image upload: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finishing image upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+fmt.Sprintf("/products/%d/image", productID), &buf)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return c.classify(http.MethodPost, fmt.Sprintf("/products/%d/image", productID), resp)
	}
	return nil
}

// SubmitCart submits a whole order in one call. Preferred over per-line
// creation because the backend applies it atomically.
func (c *Client) SubmitCart(ctx context.Context, userID int64, items []CartItem) error {
	payload := struct {
		Items []CartItem `json:"items"`
	}{Items: items}
	return c.post(ctx, fmt.Sprintf("/consumptions/order/cart/%d", userID), payload, nil)
}

// CreateConsumption creates a single order line. Used by the per-line
// fallback path, which is explicitly not atomic across lines.
func (c *Client) CreateConsumption(ctx context.Context, userID int64, item CartItem) error {
	return c.post(ctx, fmt.Sprintf("/consumptions/order/%d", userID), item, nil)
}

// FetchRecentConsumptions returns the operator dispatch feed.
func (c *Client) FetchRecentConsumptions(ctx context.Context, limit int) ([]model.RecentConsumption, error) {
	var recent []model.RecentConsumption
	if err := c.get(ctx, fmt.Sprintf("/admin/recent-consumptions?limit=%d", limit), &recent); err != nil {
		return nil, err
	}
	return recent, nil
}

// MarkDispatched marks an order line as delivered to the table.
func (c *Client) MarkDispatched(ctx context.Context, consumptionID int64) error {
	return c.post(ctx, fmt.Sprintf("/admin/consumptions/%d/mark-dispatched", consumptionID), nil, nil)
}

// CancelConsumption removes an order line from a tab.
func (c *Client) CancelConsumption(ctx context.Context, consumptionID int64) error {
	return c.delete(ctx, fmt.Sprintf("/admin/consumptions/%d", consumptionID))
}
