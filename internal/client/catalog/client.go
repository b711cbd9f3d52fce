// Package catalog is an HTTP client for the catalog records API.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/catalog/internal/common"
	"github.com/dmitrijs2005/catalog/internal/server/models"
)

const basePath = "/catalog/movies/v1"

// ConflictError is returned by Create when the record already exists.
type ConflictError struct {
	ID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("record %s already exists", e.ID)
}

func (e *ConflictError) Is(target error) bool {
	return target == common.ErrConflict
}

// Page is one page of a listing or search.
type Page struct {
	Items    []*models.Record `json:"items"`
	NextPage *string          `json:"next_page"`
}

// Query selects a listing (empty Search) or a search.
type Query struct {
	Count  int
	Search string
}

func (q Query) path() string {
	v := url.Values{}
	if q.Count > 0 {
		v.Set("count", strconv.Itoa(q.Count))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if len(v) == 0 {
		return basePath + "/"
	}
	return basePath + "/?" + v.Encode()
}

type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Get(ctx context.Context, id string) (*models.Record, error) {
	var rec models.Record
	if err := c.do(ctx, http.MethodGet, basePath+"/"+url.PathEscape(id), nil, http.StatusOK, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) Create(ctx context.Context, params models.CreateParams) (*models.Record, error) {
	var rec models.Record
	if err := c.do(ctx, http.MethodPost, basePath+"/", params, http.StatusCreated, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) Update(ctx context.Context, id string, params models.UpdateParams) (*models.Record, error) {
	var rec models.Record
	if err := c.do(ctx, http.MethodPut, basePath+"/"+url.PathEscape(id), params, http.StatusOK, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, basePath+"/"+url.PathEscape(id), nil, http.StatusNoContent, nil)
}

// FirstPage fetches the first page of q.
func (c *Client) FirstPage(ctx context.Context, q Query) (*Page, error) {
	return c.PageAt(ctx, q.path())
}

// PageAt fetches a page by the path returned in Page.NextPage.
func (c *Client) PageAt(ctx context.Context, path string) (*Page, error) {
	var p Page
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Each walks every page of q and calls fn per record. It stops after limit
// records when limit is positive, or when fn returns an error.
func (c *Client) Each(ctx context.Context, q Query, limit int, fn func(*models.Record) error) error {
	page, err := c.FirstPage(ctx, q)
	seen := 0
	for {
		if err != nil {
			return err
		}
		for _, r := range page.Items {
			if err := fn(r); err != nil {
				return err
			}
			seen++
			if limit > 0 && seen >= limit {
				return nil
			}
		}
		if page.NextPage == nil {
			return nil
		}
		page, err = c.PageAt(ctx, *page.NextPage)
	}
}

type errorBody struct {
	Error string `json:"error"`
	ID    string `json:"id"`
}

func (c *Client) do(ctx context.Context, method, path string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var eb errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&eb)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", common.ErrClientInput, eb.Error)
	case http.StatusNotFound:
		return common.ErrorNotFound
	case http.StatusConflict:
		if eb.ID != "" {
			return &ConflictError{ID: eb.ID}
		}
		return common.ErrConflict
	}
	return errors.Join(common.ErrorInternal, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, eb.Error))
}
