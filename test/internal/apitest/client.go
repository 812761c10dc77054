package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/response"
)

// Identity 网关注入的控制者身份
type Identity struct {
	UserID      string
	CharacterID string
}

func (id Identity) apply(h http.Header) {
	if id.UserID != "" {
		h.Set("X-User-ID", id.UserID)
	}
	if id.CharacterID != "" {
		h.Set("X-Character-ID", id.CharacterID)
	}
}

// Result 一次调用的状态码、解析后的响应体和原始字节（断言失败时打印）
type Result[R any] struct {
	Status int
	Body   response.Envelope[R]
	Raw    []byte
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Ping /health 返回 200 视为可达
func (c *Client) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func Post[R any](ctx context.Context, c *Client, path string, payload any, id Identity) (*Result[R], error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return call[R](ctx, c, http.MethodPost, path, bytes.NewReader(buf), id)
}

func Get[R any](ctx context.Context, c *Client, path string, id Identity) (*Result[R], error) {
	return call[R](ctx, c, http.MethodGet, path, nil, id)
}

func call[R any](ctx context.Context, c *Client, method, path string, body io.Reader, id Identity) (*Result[R], error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	id.apply(req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	res := &Result[R]{Status: resp.StatusCode}
	if res.Raw, err = io.ReadAll(resp.Body); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(res.Raw, &res.Body); err != nil {
		return res, fmt.Errorf("decode response: %w", err)
	}
	return res, nil
}
