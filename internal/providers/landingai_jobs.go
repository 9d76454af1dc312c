package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

// Parse job states reported by ADE.
const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
	JobCancelled  = "cancelled"
)

// ErrJobNotReady is returned by a poll while the job is still running.
var ErrJobNotReady = errors.New("parse job not ready")

type adeJobSubmitResponse struct {
	JobID string `json:"job_id"`
}

type adeJobStatusResponse struct {
	JobID    string            `json:"job_id"`
	Status   string            `json:"status"`
	Progress float64           `json:"progress"`
	Data     *adeParseResponse `json:"data"`
	Failure  string            `json:"failure_reason"`
}

// parseAsync submits a parse job and polls it until it reaches a terminal
// state or the poll budget runs out.
func (c *LandingAIClient) parseAsync(ctx context.Context, req *ParseRequest) (*adeParseResponse, string, error) {
	body, contentType, err := c.documentForm(req)
	if err != nil {
		return nil, "", err
	}

	var submitted adeJobSubmitResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/ade/parse/jobs", req.RequestID, contentType, body, &submitted); err != nil {
		return nil, "", err
	}
	if submitted.JobID == "" {
		return nil, "", fmt.Errorf("parse job submitted without a job id")
	}

	log := c.logger.With("request_id", req.RequestID, "job_id", submitted.JobID)
	log.Info("parse job submitted", "pages", req.PageCount)

	var result *adeParseResponse
	err = retry.Do(
		func() error {
			status, err := c.jobStatus(ctx, req.RequestID, submitted.JobID)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			switch status.Status {
			case JobCompleted:
				if status.Data == nil {
					return retry.Unrecoverable(fmt.Errorf("parse job %s completed without data", submitted.JobID))
				}
				result = status.Data
				return nil
			case JobFailed, JobCancelled:
				reason := status.Failure
				if reason == "" {
					reason = status.Status
				}
				return retry.Unrecoverable(fmt.Errorf("parse job %s %s: %s", submitted.JobID, status.Status, reason))
			default:
				return fmt.Errorf("%w: %s (%.0f%%)", ErrJobNotReady, status.Status, status.Progress*100)
			}
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxPollAttempts)),
		retry.Delay(c.pollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Debug("parse job pending", "attempt", n+1, "status", err)
		}),
	)
	if err != nil {
		if errors.Is(err, ErrJobNotReady) {
			return nil, submitted.JobID, fmt.Errorf("parse job %s did not finish after %d polls: %w",
				submitted.JobID, c.maxPollAttempts, err)
		}
		return nil, submitted.JobID, err
	}

	log.Info("parse job completed")
	return result, submitted.JobID, nil
}

func (c *LandingAIClient) jobStatus(ctx context.Context, requestID, jobID string) (*adeJobStatusResponse, error) {
	var status adeJobStatusResponse
	if err := c.doRequest(ctx, http.MethodGet, "/v1/ade/parse/jobs/"+jobID, requestID, "", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// PollBudget is the longest a parse job may be polled for.
func (c *LandingAIClient) PollBudget() time.Duration {
	return time.Duration(c.maxPollAttempts) * c.pollInterval
}

// ExtraTime returns the poll budget for documents that go through parse jobs.
func (c *LandingAIClient) ExtraTime(pageCount int) time.Duration {
	if !c.useAsync(pageCount) {
		return 0
	}
	return c.PollBudget()
}
