package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/utafrali/paystore/internal/domain"
	"github.com/utafrali/paystore/pkg/httpclient"
)

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// imageRef is the catalog service's uploaded-image reference.
type imageRef struct {
	ImageID string `json:"imageId"`
	URL     string `json:"url"`
}

// productResponse is the catalog service's product representation. It differs
// from the domain model (productName, quantity, nested category), so responses
// are mapped before leaving this package.
type productResponse struct {
	ID          string     `json:"id"`
	ProductName string     `json:"productName"`
	Description string     `json:"description"`
	Price       int64      `json:"price"`
	Quantity    int        `json:"quantity"`
	Thumbnail   imageRef   `json:"thumbnail"`
	Gallery     []imageRef `json:"productGallery"`
	Category    struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"category"`
}

func (p productResponse) toDomain(currency string) domain.Product {
	gallery := make([]string, 0, len(p.Gallery))
	for _, img := range p.Gallery {
		gallery = append(gallery, img.URL)
	}

	return domain.Product{
		ID:          p.ID,
		Name:        p.ProductName,
		Description: p.Description,
		Price:       p.Price,
		Currency:    currency,
		ImageURL:    p.Thumbnail.URL,
		Category:    p.Category.Name,
		Stock:       p.Quantity,
		Gallery:     gallery,
	}
}

// Client talks to the external catalog service.
type Client struct {
	http     HTTPDoer
	baseURL  string
	currency string
	logger   *slog.Logger
}

// NewClient creates a catalog service client. The catalog does not carry a
// currency on its products, so the storefront's configured currency is
// stamped onto every mapped product.
func NewClient(doer HTTPDoer, baseURL, currency string, logger *slog.Logger) *Client {
	return &Client{
		http:     doer,
		baseURL:  baseURL,
		currency: currency,
		logger:   logger,
	}
}

// GetProduct fetches one product by ID.
func (c *Client) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/catalog/products/"+productID, nil)
	if err != nil {
		return nil, fmt.Errorf("create product request: %w", err)
	}

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call catalog service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "catalog")
	}

	var pr productResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode product response: %w", err)
	}

	product := pr.toDomain(c.currency)
	return &product, nil
}

// ListProducts fetches the full product list.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/catalog/products", nil)
	if err != nil {
		return nil, fmt.Errorf("create products request: %w", err)
	}

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call catalog service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "catalog")
	}

	var prs []productResponse
	if err := json.NewDecoder(resp.Body).Decode(&prs); err != nil {
		return nil, fmt.Errorf("decode products response: %w", err)
	}

	products := make([]domain.Product, 0, len(prs))
	for _, pr := range prs {
		products = append(products, pr.toDomain(c.currency))
	}

	c.logger.DebugContext(ctx, "catalog products fetched", slog.Int("count", len(products)))
	return products, nil
}
