// Package httpapi implements the remote contracts over a JSON REST
// backend exposing per-record-type list endpoints.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/offlinekit/listsync/models"
	"github.com/offlinekit/listsync/query"
	"github.com/offlinekit/listsync/remote"
)

// Client is the HTTP collaborator for one record type.
type Client struct {
	httpClient *http.Client
	baseURL    string
	typeName   string
}

var _ remote.Collaborator = (*Client)(nil)

// NewClient creates a collaborator for baseURL and a record type name.
func NewClient(baseURL, typeName string) *Client {
	return &Client{
		baseURL:  baseURL,
		typeName: typeName,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// FetchAll returns every record of the type.
func (c *Client) FetchAll(ctx context.Context, linkedFields ...string) ([]*models.Record, error) {
	var items []*models.Record
	path := c.itemsPath("") + linkedQuery(linkedFields)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, fmt.Errorf("fetch all failed: %w", err)
	}
	return items, nil
}

// FetchByID returns one record, or nil when the server has none.
func (c *Client) FetchByID(ctx context.Context, id models.Key, linkedFields ...string) (*models.Record, error) {
	var item *models.Record
	path := c.itemsPath(id.String()) + linkedQuery(linkedFields)
	err := c.doRequest(ctx, http.MethodGet, path, nil, &item)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch by id failed: %w", err)
	}
	return item, nil
}

// FetchByIDs returns the records stored under the given ids.
func (c *Client) FetchByIDs(ctx context.Context, ids []models.Key, linkedFields ...string) ([]*models.Record, error) {
	req := batchGetRequest{IDs: ids, LinkedFields: linkedFields}
	var items []*models.Record
	if err := c.doRequest(ctx, http.MethodPost, c.itemsPath("batch-get"), req, &items); err != nil {
		return nil, fmt.Errorf("fetch by ids failed: %w", err)
	}
	return items, nil
}

// FetchByQuery returns the records matching a declarative query; the
// server translates it into its native query language.
func (c *Client) FetchByQuery(ctx context.Context, q query.Query, linkedFields ...string) ([]*models.Record, error) {
	req := queryRequest{Query: queryPayload(q), LinkedFields: linkedFields}
	var items []*models.Record
	if err := c.doRequest(ctx, http.MethodPost, c.itemsPath("query"), req, &items); err != nil {
		return nil, fmt.Errorf("fetch by query failed: %w", err)
	}
	return items, nil
}

// CreateOrUpdate writes one record and returns the server's copy. A 409
// response wraps models.ErrVersionConflict.
func (c *Client) CreateOrUpdate(ctx context.Context, item *models.Record) (*models.Record, error) {
	var saved *models.Record
	err := c.doRequest(ctx, http.MethodPut, c.itemsPath(""), item, &saved)
	if err != nil {
		if isStatus(err, http.StatusConflict) {
			return nil, fmt.Errorf("create or update %s: %w", item.ID, models.ErrVersionConflict)
		}
		return nil, fmt.Errorf("create or update failed: %w", err)
	}
	return saved, nil
}

// CreateOrUpdateMany writes a batch and returns the server's copies.
func (c *Client) CreateOrUpdateMany(ctx context.Context, items []*models.Record) ([]*models.Record, error) {
	var saved []*models.Record
	err := c.doRequest(ctx, http.MethodPut, c.itemsPath("batch"), items, &saved)
	if err != nil {
		if isStatus(err, http.StatusConflict) {
			return nil, fmt.Errorf("batch create or update: %w", models.ErrVersionConflict)
		}
		return nil, fmt.Errorf("batch create or update failed: %w", err)
	}
	return saved, nil
}

// Delete removes one record remotely.
func (c *Client) Delete(ctx context.Context, item *models.Record) (*models.Record, error) {
	var deleted *models.Record
	if err := c.doRequest(ctx, http.MethodDelete, c.itemsPath(item.ID.String()), nil, &deleted); err != nil {
		return nil, fmt.Errorf("delete failed: %w", err)
	}
	return deleted, nil
}

// DeleteMany removes a batch of records remotely.
func (c *Client) DeleteMany(ctx context.Context, items []*models.Record) ([]*models.Record, error) {
	ids := make([]models.Key, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	var deleted []*models.Record
	if err := c.doRequest(ctx, http.MethodPost, c.itemsPath("batch-delete"), batchGetRequest{IDs: ids}, &deleted); err != nil {
		return nil, fmt.Errorf("batch delete failed: %w", err)
	}
	return deleted, nil
}

// NewProbe returns a connectivity probe for baseURL. The check is a
// best-effort short-lived ping; any failure reads as offline.
func NewProbe(baseURL string) remote.Probe {
	client := &http.Client{Timeout: 2 * time.Second}
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/ping", nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		return resp.StatusCode >= 200 && resp.StatusCode < 300
	}
}

func (c *Client) itemsPath(suffix string) string {
	path := fmt.Sprintf("/api/v1/lists/%s/items", url.PathEscape(c.typeName))
	if suffix != "" {
		path += "/" + url.PathEscape(suffix)
	}
	return path
}

func linkedQuery(linkedFields []string) string {
	if len(linkedFields) == 0 {
		return ""
	}
	values := url.Values{}
	for _, f := range linkedFields {
		values.Add("expand", f)
	}
	return "?" + values.Encode()
}

// statusError carries the HTTP status of a failed request so callers
// can classify conflicts and not-found responses.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.status, e.message)
}

func isStatus(err error, status int) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == status
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	reqURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
			return &statusError{status: resp.StatusCode, message: errResp.Message}
		}
		return &statusError{status: resp.StatusCode, message: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}
