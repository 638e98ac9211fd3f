// Package collaborators holds thin HTTP clients for the services this one
// depends on during materialization: identity, catalog, and cart.
package collaborators

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrNotFound is returned when a collaborator answers 404 for the requested
// resource.
var ErrNotFound = errors.New("collaborator resource not found")

// CollaboratorError carries a non-success answer from a collaborator service.
type CollaboratorError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Message)
}

type errorResponse struct {
	Err     string `json:"error"`
	Message string `json:"message"`
}

func sendRequest[Req any, Resp any](client *http.Client, ctx context.Context, method, url, service string, reqBody *Req) (*Resp, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Message == "" {
			return nil, &CollaboratorError{Service: service, StatusCode: resp.StatusCode, Message: string(body)}
		}
		return nil, &CollaboratorError{Service: service, StatusCode: resp.StatusCode, Message: errResp.Message}
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	var out Resp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	return &out, nil
}
