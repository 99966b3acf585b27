package client

import (
	"context"
	"net/url"
	"time"

	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
	types "github.com/turtacn/KeyIP-Substructure/pkg/types/substructure"
)

// JobsClient submits and polls asynchronous screening jobs.
type JobsClient struct {
	client *Client
}

// Submit queues a library screen and returns the queued job.
func (c *JobsClient) Submit(ctx context.Context, req *types.JobRequest) (*types.JobResult, error) {
	var resp types.JobResult
	if err := c.client.post(ctx, "/api/v1/jobs/screen", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status fetches the current state of a job.
func (c *JobsClient) Status(ctx context.Context, jobID string) (*types.JobResult, error) {
	if jobID == "" {
		return nil, errors.InvalidParam("job id is required")
	}
	var resp types.JobResult
	if err := c.client.get(ctx, "/api/v1/jobs/"+url.PathEscape(jobID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Wait polls the job every interval until it completes or fails, or ctx ends.
func (c *JobsClient) Wait(ctx context.Context, jobID string, interval time.Duration) (*types.JobResult, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		res, err := c.Status(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if res.Status == types.JobCompleted || res.Status == types.JobFailed {
			return res, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

//Personal.AI order the ending
