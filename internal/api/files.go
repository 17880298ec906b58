package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ListPath implements GET /files/ls?path=.
func (c *Client) ListPath(ctx context.Context, path string) ([]PathEntry, error) {
	q := url.Values{}
	q.Set("path", path)
	req, err := c.newRequest(ctx, http.MethodGet, c.buildURL("/files/ls", q), nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Entries []PathEntry `json:"entries"`
	}
	if err := do(c, req, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// Download implements POST /files/download.
// Per API: 200 => file content, 202 => transfer job that must be polled.
func (c *Client) Download(ctx context.Context, path string) (DownloadResult, error) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(struct {
		Path string `json:"path"`
	}{Path: path}); err != nil {
		return DownloadResult{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.buildURL("/files/download", url.Values{}), buf)
	if err != nil {
		return DownloadResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/octet-stream, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return DownloadResult{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return DownloadResult{}, err
		}
		return DownloadResult{Data: data}, nil
	case http.StatusAccepted:
		var job TransferJob
		if err := decodeJSON(resp.Body, &job); err != nil {
			return DownloadResult{}, fmt.Errorf("%w: decoding transfer directive: %w", ErrTransfer, err)
		}
		if job.ID == "" {
			return DownloadResult{}, fmt.Errorf("%w: server did not return a transfer id", ErrTransfer)
		}
		return DownloadResult{Transfer: &job}, nil
	default:
		return DownloadResult{}, handleHTTPError(resp)
	}
}

// TransferStatus implements GET /transfers/{transferId}.
func (c *Client) TransferStatus(ctx context.Context, transferID string) (TransferState, error) {
	p, err := pathParam("transferId", transferID)
	if err != nil {
		return TransferState{}, err
	}
	req, err := c.newRequest(ctx, http.MethodGet, c.buildURL("/transfers/"+p, url.Values{}), nil)
	if err != nil {
		return TransferState{}, err
	}
	var st TransferState
	if err := do(c, req, &st); err != nil {
		return TransferState{}, err
	}
	return st, nil
}

// FetchTransfer implements GET /transfers/{transferId}/content.
// The returned size is the declared Content-Length, or -1 when unknown.
func (c *Client) FetchTransfer(ctx context.Context, transferID string) (io.ReadCloser, int64, error) {
	p, err := pathParam("transferId", transferID)
	if err != nil {
		return nil, 0, err
	}
	req, err := c.newRequest(ctx, http.MethodGet, c.buildURL("/transfers/"+p+"/content", url.Values{}), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/octet-stream")
	// The overall client timeout would cut long streams; the caller's context bounds it instead.
	streaming := *c.httpClient
	streaming.Timeout = 0
	resp, err := streaming.Do(req) //nolint:bodyclose // closed by the caller
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, 0, handleHTTPError(resp)
	}
	return resp.Body, resp.ContentLength, nil
}
