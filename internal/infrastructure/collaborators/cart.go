package collaborators

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/config"
)

type HTTPCartClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCartClient(cfg config.CollaboratorsConfig) application.CartClient {
	return &HTTPCartClient{
		baseURL: cfg.CartBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

func (c *HTTPCartClient) Clear(ctx context.Context, ownerID string) error {
	reqURL := fmt.Sprintf("%s/api/v1/carts/%s", c.baseURL, url.PathEscape(ownerID))
	_, err := sendRequest[any, struct{}](c.httpClient, ctx, http.MethodDelete, reqURL, "cart", nil)
	return err
}
