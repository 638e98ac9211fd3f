package collaborators

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/config"
)

type HTTPIdentityClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewIdentityClient(cfg config.CollaboratorsConfig) application.IdentityClient {
	return &HTTPIdentityClient{
		baseURL: cfg.IdentityBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (c *HTTPIdentityClient) FindUserByID(ctx context.Context, id string) (*application.User, error) {
	reqURL := fmt.Sprintf("%s/api/v1/users/%s", c.baseURL, url.PathEscape(id))
	resp, err := sendRequest[any, userResponse](c.httpClient, ctx, http.MethodGet, reqURL, "identity", nil)
	if err != nil {
		return nil, err
	}
	return &application.User{ID: resp.ID, Email: resp.Email, Name: resp.Name}, nil
}

func (c *HTTPIdentityClient) FindUserByEmail(ctx context.Context, email string) (*application.User, error) {
	reqURL := fmt.Sprintf("%s/api/v1/users?email=%s", c.baseURL, url.QueryEscape(email))
	resp, err := sendRequest[any, userResponse](c.httpClient, ctx, http.MethodGet, reqURL, "identity", nil)
	if err != nil {
		return nil, err
	}
	return &application.User{ID: resp.ID, Email: resp.Email, Name: resp.Name}, nil
}
