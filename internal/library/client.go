/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package library

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/storiny/web-sub007/internal/config"
)

// ErrNoEndpoint is returned when publishing without a configured URL.
var ErrNoEndpoint = errors.New("library: publish URL not configured")

// Client is a minimal HTTP client for the library publishing endpoint.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new publish client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewClientFromConfig builds a client from the library config and the token
// returned by config.Load.
func NewClientFromConfig(cfg config.LibraryConfig, token string) *Client {
	return NewClient(cfg.PublishURL, token, cfg.Timeout())
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	if c.BaseURL == "" {
		return ErrNoEndpoint
	}
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// Payload is the published library document.
type Payload struct {
	Type         string `json:"type"`
	Version      int    `json:"version"`
	Source       string `json:"source"`
	LibraryItems []Item `json:"libraryItems"`
}

// PublishResult is the server's answer to a publish request.
type PublishResult struct {
	URL string `json:"url"`
}

// Publish uploads items as a library document.
func (c *Client) Publish(ctx context.Context, items []Item) (PublishResult, error) {
	var res PublishResult
	if len(items) == 0 {
		return res, ErrEmptySelection
	}
	p := Payload{Type: "excalidrawlib", Version: 2, Source: "sketchcore", LibraryItems: items}
	if err := c.doJSON(ctx, http.MethodPost, "/api/libraries", p, &res); err != nil {
		return res, err
	}
	return res, nil
}

// PublishStore uploads every unpublished item of st and marks them published.
func PublishStore(ctx context.Context, c *Client, st *Store) (PublishResult, error) {
	all, err := st.List(ctx)
	if err != nil {
		return PublishResult{}, err
	}
	var pending []Item
	var ids []string
	for _, it := range all {
		if it.Status != StatusPublished {
			pending = append(pending, it)
			ids = append(ids, it.ID)
		}
	}
	res, err := c.Publish(ctx, pending)
	if err != nil {
		return res, err
	}
	return res, st.MarkPublished(ctx, ids)
}
