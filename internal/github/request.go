package github

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const contentEncoding = "gzip"

// getJSON issues a GET request and decodes a 2xx body into target. The
// response status is always returned so callers can classify it; err is
// reserved for transport and decoding failures.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, target any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+path, nil)
	if err != nil {
		return 0, err
	}

	req = c.setHeaders(req)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.request(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if Classify(resp.StatusCode) != OutcomeOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Debug("unexpected status from github",
			zap.String("url", req.URL.Path),
			zap.Int("status", resp.StatusCode),
		)
		return resp.StatusCode, nil
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == contentEncoding {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return resp.StatusCode, fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	if target == nil {
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(body).Decode(target); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}

	return resp.StatusCode, nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	return c.HTTPClient.Do(req)
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}
