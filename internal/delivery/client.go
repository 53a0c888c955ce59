package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"myshop-backend/pkg/config"
	pkgerrors "myshop-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1 << 20

// PincodeClient resolves an Indian postal pincode to its state using the
// public postal lookup API.
type PincodeClient struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*PincodeClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *PincodeClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewPincodeClient builds the pincode lookup client.
func NewPincodeClient(cfg config.DeliveryConfig, opts ...Option) (*PincodeClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.PincodeAPIBaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("pincode api base url is required")
	}

	client := &PincodeClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type pincodeResponse struct {
	Status     string `json:"Status"`
	PostOffice []struct {
		Name     string `json:"Name"`
		District string `json:"District"`
		State    string `json:"State"`
	} `json:"PostOffice"`
}

// LookupState returns the state the pincode belongs to.
func (c *PincodeClient) LookupState(ctx context.Context, pincode string) (string, error) {
	endpoint := fmt.Sprintf("%s/pincode/%s", c.baseURL, pincode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build pincode request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pincode lookup")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read pincode response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("pincode lookup returned status %d", resp.StatusCode))
	}

	var payload []pincodeResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode pincode response")
	}
	if len(payload) == 0 || !strings.EqualFold(payload[0].Status, "Success") || len(payload[0].PostOffice) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "pincode not found")
	}
	return payload[0].PostOffice[0].State, nil
}
