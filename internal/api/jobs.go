package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/oapi-codegen/runtime"
)

// pathParam styles a path parameter the way generated clients do.
func pathParam(name, value string) (string, error) {
	return runtime.StyleParamWithLocation("simple", false, name, runtime.ParamLocationPath, value)
}

// ListJobs implements GET /jobs.
func (c *Client) ListJobs(ctx context.Context) ([]Job, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.buildURL("/jobs", url.Values{}), nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Jobs []Job `json:"jobs"`
	}
	if err := do(c, req, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// ListSystems implements GET /systems.
func (c *Client) ListSystems(ctx context.Context) ([]System, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.buildURL("/systems", url.Values{}), nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Systems []System `json:"systems"`
	}
	if err := do(c, req, &out); err != nil {
		return nil, err
	}
	return out.Systems, nil
}

// GetJob implements GET /jobs/{jobId}.
func (c *Client) GetJob(ctx context.Context, id string) (Job, error) {
	p, err := pathParam("jobId", id)
	if err != nil {
		return Job{}, err
	}
	req, err := c.newRequest(ctx, http.MethodGet, c.buildURL("/jobs/"+p, url.Values{}), nil)
	if err != nil {
		return Job{}, err
	}
	var job Job
	if err := do(c, req, &job); err != nil {
		return Job{}, err
	}
	return job, nil
}

// CancelJob implements DELETE /jobs/{jobId}.
func (c *Client) CancelJob(ctx context.Context, id string) error {
	p, err := pathParam("jobId", id)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodDelete, c.buildURL("/jobs/"+p, url.Values{}), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent:
		return nil
	default:
		return handleHTTPError(resp)
	}
}

// JobOutput implements GET /jobs/{jobId}/output?offset=N.
func (c *Client) JobOutput(ctx context.Context, id string, offset int64) (string, int64, error) {
	p, err := pathParam("jobId", id)
	if err != nil {
		return "", offset, err
	}
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(offset, 10))
	req, err := c.newRequest(ctx, http.MethodGet, c.buildURL("/jobs/"+p+"/output", q), nil)
	if err != nil {
		return "", offset, err
	}
	var out struct {
		Output     string `json:"output"`
		NextOffset int64  `json:"next_offset"`
	}
	if err := do(c, req, &out); err != nil {
		return "", offset, err
	}
	return out.Output, out.NextOffset, nil
}
