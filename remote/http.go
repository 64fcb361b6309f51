// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// HTTPConfig holds configuration for the JSON-over-HTTP remote store
// client.
type HTTPConfig struct {
	// BaseURL is the backend API root (e.g. "https://api.waypoint.example").
	BaseURL string
	// HTTPClient is used for all requests. Nil means http.DefaultClient.
	HTTPClient *http.Client
	// Logger receives request failures at Debug. Nil means discard.
	Logger *slog.Logger
}

// HTTPStore talks to the Waypoint backend's row API:
//
//	POST   /v1/{table}            insert, body = record
//	PATCH  /v1/{table}/{id}       update, body = patch
//	GET    /v1/{table}?col=value  query by equality filter
//
// Error responses carry a JSON body matching [Error].
type HTTPStore struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPStore validates the configuration and builds the client.
func NewHTTPStore(cfg HTTPConfig) (*HTTPStore, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote: BaseURL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("remote: invalid BaseURL %q: %w", cfg.BaseURL, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &HTTPStore{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Insert implements Store.
func (s *HTTPStore) Insert(ctx context.Context, table string, record Record) (Record, error) {
	body, err := s.do(ctx, http.MethodPost, "/v1/"+url.PathEscape(table), record)
	if err != nil {
		return nil, err
	}
	var stored Record
	if err := json.Unmarshal(body, &stored); err != nil {
		return nil, fmt.Errorf("remote: parsing insert response: %w", err)
	}
	return stored, nil
}

// Update implements Store.
func (s *HTTPStore) Update(ctx context.Context, table string, id string, patch Record) error {
	path := "/v1/" + url.PathEscape(table) + "/" + url.PathEscape(id)
	_, err := s.do(ctx, http.MethodPatch, path, patch)
	return err
}

// Query implements Store.
func (s *HTTPStore) Query(ctx context.Context, table string, filter Filter) ([]Record, error) {
	values := url.Values{}
	for column, value := range filter {
		values.Set(column, fmt.Sprint(value))
	}
	path := "/v1/" + url.PathEscape(table)
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}

	body, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var rows []Record
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("remote: parsing query response: %w", err)
	}
	return rows, nil
}

// do performs one request and returns the response body. Non-2xx
// responses are converted to *Error, decoding the backend's error
// body when it parses and synthesizing CodeUnknown when it does not.
func (s *HTTPStore) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("remote: encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("remote: building request: %w", err)
	}
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := s.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("remote: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: reading response body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		remoteErr := &Error{StatusCode: response.StatusCode}
		if err := json.Unmarshal(body, remoteErr); err != nil || remoteErr.Code == "" {
			remoteErr.Code = CodeUnknown
			remoteErr.Message = strings.TrimSpace(string(body))
		}
		s.logger.Debug("remote request failed",
			"method", method,
			"path", path,
			"status", response.StatusCode,
			"code", remoteErr.Code,
		)
		return nil, remoteErr
	}

	return body, nil
}
