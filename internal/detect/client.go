/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package detect talks to an external panel-detection service. The service
// takes a page image and returns normalized panel rectangles in reading
// order; the client can also run a whole document and write the result as a
// sidecar file, which the viewer then picks up like any hand-authored one.
package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"panelreader/internal/domain"
	"panelreader/internal/host"
	applog "panelreader/internal/log"
	"panelreader/internal/render"
	"panelreader/internal/sidecar"
)

// Client is a minimal HTTP client for the detection API.
type Client struct {
	BaseURL string
	Token   string // bearer token, optional
	client  *http.Client
	l       *slog.Logger
}

// NewClient creates a detection client. baseURL may include a trailing
// slash; it will be normalized.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
		l:       applog.WithComponent("detect"),
	}
}

// pageResult matches the service response for one page.
type pageResult struct {
	Panels           []domain.PanelData `json:"panels"`
	ReadingDirection string             `json:"reading_direction,omitempty"`
}

// DetectPage posts one PNG-encoded page and returns its panels in reading
// order.
func (c *Client) DetectPage(ctx context.Context, pngData []byte) ([]domain.PanelData, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/detect", bytes.NewReader(pngData))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "image/png")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("detect service: %s", resp.Status)
	}
	var res pageResult
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&res); err != nil {
		return nil, "", fmt.Errorf("decode detect response: %w", err)
	}
	return res.Panels, res.ReadingDirection, nil
}

// sidecarPayload is the on-disk shape DetectDocument writes.
type sidecarPayload struct {
	ReadingDirection string             `json:"reading_direction,omitempty"`
	Pages            []domain.PageEntry `json:"pages"`
}

// DetectDocument runs detection over every page and writes the result as
// the document's sidecar file. Pages that fail to crop or detect are left
// out of the sidecar; the viewer treats them as panel-less.
func (c *Client) DetectDocument(ctx context.Context, doc host.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("document is nil")
	}
	payload := sidecarPayload{}
	for page := 1; page <= doc.PageCount(); page++ {
		panels, dir, err := c.detectOne(ctx, doc, page)
		if err != nil {
			c.l.Warn("page detection failed", slog.Int("page", page), slog.Any("err", err))
			continue
		}
		if payload.ReadingDirection == "" && dir != "" {
			payload.ReadingDirection = dir
		}
		if len(panels) > 0 {
			payload.Pages = append(payload.Pages, domain.PageEntry{Page: page, Panels: panels})
		}
	}
	if len(payload.Pages) == 0 {
		return "", fmt.Errorf("no panels detected in %s", doc.Path())
	}

	out := sidecar.PathFor(doc.Path())
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sidecar: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("write sidecar: %w", err)
	}
	c.l.Info("sidecar written", slog.String("path", out), slog.Int("pages", len(payload.Pages)))
	return out, nil
}

func (c *Client) detectOne(ctx context.Context, doc host.Document, page int) ([]domain.PanelData, string, error) {
	size, err := doc.PageSize(page)
	if err != nil {
		return nil, "", err
	}
	full, err := render.ToPixelRect(domain.PanelData{W: 1, H: 1}, size)
	if err != nil {
		return nil, "", err
	}
	img, err := doc.CropRegion(page, full)
	if err != nil {
		return nil, "", fmt.Errorf("read page: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return nil, "", fmt.Errorf("encode page: %w", err)
	}
	return c.DetectPage(ctx, buf.Bytes())
}
