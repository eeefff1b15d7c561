// Package temporal schedules verification runs as Temporal workflows so
// CI or operations can re-verify a store on a cron cadence.
package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/verigraph/verigraph/internal/verify"
)

// VerificationInput holds the workflow parameters.
type VerificationInput struct {
	// ReportPath overrides the configured report artifact path.
	ReportPath string

	// MaxAttempts bounds whole-sequence re-runs. The orchestrator never
	// retries an individual check; re-running the entire sequence is
	// the only retry unit, and it happens here.
	MaxAttempts int32
}

// VerificationResult holds the workflow result.
type VerificationResult struct {
	AllPassed  bool
	Passed     int
	Failed     int
	ReportPath string
	Outcomes   []verify.Outcome
}

// VerificationWorkflow runs the whole check sequence as one activity.
func VerificationWorkflow(ctx workflow.Context, input VerificationInput) (*VerificationResult, error) {
	attempts := input.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: attempts,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var result VerificationResult
	if err := workflow.ExecuteActivity(ctx, VerificationActivity, input).Get(ctx, &result); err != nil {
		return nil, fmt.Errorf("verification: %w", err)
	}
	return &result, nil
}
