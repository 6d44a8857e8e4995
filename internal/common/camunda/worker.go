// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"findata-workers/internal/common/config"
	"findata-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

const (
	defaultMaxJobsActive = 10
	defaultJobTimeout    = 60 * time.Second
)

// StartWorker opens a job worker for taskType. Per-worker settings fall back
// to the global Camunda block when unset.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, global config.CamundaConfig, handler worker.JobHandler, log logger.Logger) worker.JobWorker {
	maxJobs := firstPositive(wcfg.MaxJobsActive, global.MaxJobsActive, defaultMaxJobsActive)
	timeout := config.GetDuration(firstPositive(wcfg.Timeout, global.Timeout, int(defaultJobTimeout.Milliseconds())))

	w := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(maxJobs).
		Timeout(timeout).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": maxJobs,
		"timeout":       timeout.String(),
	})
	return w
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
