package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// httpClient talks to the registry's JSON API.
type httpClient struct {
	base  string
	token string
	http  *http.Client
}

// NewClient creates a registry client from the configuration.
func NewClient(cfg Config) (Client, error) {
	base := strings.TrimSuffix(cfg.Endpoint, "/")
	if base == "" {
		return nil, fmt.Errorf("registry endpoint is not configured")
	}
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 60
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration,
	}

	return &httpClient{
		base:  base,
		token: cfg.Token,
		http:  &http.Client{Transport: transport},
	}, nil
}

func (c *httpClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *httpClient) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("registry returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode registry response: %w", err)
	}
	return nil
}

func (c *httpClient) ListFamilies(ctx context.Context) ([]Family, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/families", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Families []Family `json:"families"`
	}
	if err := c.doJSON(req, &out); err != nil {
		return nil, fmt.Errorf("failed to list families: %w", err)
	}
	return out.Families, nil
}

func (c *httpClient) CreateFamily(ctx context.Context, name string, sizes []int) error {
	payload, err := json.Marshal(Family{Name: name, Sizes: sizes})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/families", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.doJSON(req, nil); err != nil {
		return fmt.Errorf("failed to create family %q: %w", name, err)
	}
	return nil
}

// ListTiles follows the registry's continuation token until the listing is
// exhausted.
func (c *httpClient) ListTiles(ctx context.Context, family string) ([]TileRecord, error) {
	var tiles []TileRecord
	cont := ""
	for {
		path := "/v1/families/" + url.PathEscape(family) + "/tiles"
		if cont != "" {
			path += "?continue=" + url.QueryEscape(cont)
		}
		req, err := c.newRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		var page struct {
			Tiles    []TileRecord `json:"tiles"`
			Continue string       `json:"continue"`
		}
		if err := c.doJSON(req, &page); err != nil {
			return nil, fmt.Errorf("failed to list tiles for %q: %w", family, err)
		}
		tiles = append(tiles, page.Tiles...)
		if page.Continue == "" {
			return tiles, nil
		}
		cont = page.Continue
	}
}

func (c *httpClient) AddTiles(ctx context.Context, family string, tiles []TileEntry) error {
	payload, err := json.Marshal(struct {
		Tiles []TileEntry `json:"tiles"`
	}{tiles})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/families/"+url.PathEscape(family)+"/tiles", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.doJSON(req, nil); err != nil {
		return fmt.Errorf("failed to add %d tiles to %q: %w", len(tiles), family, err)
	}
	return nil
}

func (c *httpClient) DeleteTiles(ctx context.Context, ids []int64) error {
	payload, err := json.Marshal(struct {
		IDs []int64 `json:"ids"`
	}{ids})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodDelete, "/v1/tiles", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.doJSON(req, nil); err != nil {
		return fmt.Errorf("failed to delete %d tiles: %w", len(ids), err)
	}
	return nil
}

func (c *httpClient) DownloadAsset(ctx context.Context, name string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/assets/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to download asset %q: registry returned %s", name, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (c *httpClient) UploadAsset(ctx context.Context, upload UploadRequest) (*UploadResult, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("name", upload.Name); err != nil {
		return nil, err
	}
	if upload.Comment != "" {
		if err := w.WriteField("comment", upload.Comment); err != nil {
			return nil, err
		}
	}
	if upload.IgnoreWarnings {
		if err := w.WriteField("ignorewarnings", "1"); err != nil {
			return nil, err
		}
	}
	if upload.FileKey != "" {
		// Resuming a held upload: the registry already has the data.
		if err := w.WriteField("filekey", upload.FileKey); err != nil {
			return nil, err
		}
	} else {
		part, err := w.CreateFormFile("file", upload.Name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(upload.Data); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/assets", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	var result UploadResult
	if err := c.doJSON(req, &result); err != nil {
		return nil, fmt.Errorf("failed to upload asset %q: %w", upload.Name, err)
	}
	return &result, nil
}
