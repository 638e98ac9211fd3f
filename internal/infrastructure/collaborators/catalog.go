package collaborators

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/config"
)

type HTTPCatalogClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCatalogClient(cfg config.CollaboratorsConfig) application.CatalogClient {
	return &HTTPCatalogClient{
		baseURL: cfg.CatalogBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

type productResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Price   int64  `json:"price"`
	InStock bool   `json:"in_stock"`
}

func (c *HTTPCatalogClient) GetProduct(ctx context.Context, id string) (*application.Product, error) {
	reqURL := fmt.Sprintf("%s/api/v1/products/%s", c.baseURL, url.PathEscape(id))
	resp, err := sendRequest[any, productResponse](c.httpClient, ctx, http.MethodGet, reqURL, "catalog", nil)
	if err != nil {
		return nil, err
	}
	return &application.Product{ID: resp.ID, Name: resp.Name, Price: resp.Price, InStock: resp.InStock}, nil
}
