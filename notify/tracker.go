package notify

import (
	"time"

	"github.com/bitrise-io/go-utils/v2/analytics"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
)

// Tracker records the outcome of every dispatch.
type Tracker interface {
	Track(result Result, duration time.Duration, err error)
	Wait()
}

type tracker struct {
	tracker analytics.Tracker
}

// NewTracker ...
func NewTracker(envRepo env.Repository, logger log.Logger) Tracker {
	p := analytics.Properties{
		"step_id":    "email-test-report",
		"build_slug": envRepo.Get("BITRISE_BUILD_SLUG"),
		"app_slug":   envRepo.Get("BITRISE_APP_SLUG"),
	}
	return &tracker{
		tracker: analytics.NewDefaultTracker(logger, envRepo, p),
	}
}

func (t *tracker) Track(result Result, duration time.Duration, err error) {
	properties := analytics.Properties{
		"result":      string(result),
		"duration_ms": duration.Milliseconds(),
	}
	if err != nil {
		properties["error"] = err.Error()
	}

	t.tracker.Enqueue("test_report_email_dispatched", properties)
}

func (t *tracker) Wait() {
	t.tracker.Wait()
}
