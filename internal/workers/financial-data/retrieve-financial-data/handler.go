// internal/workers/financial-data/retrieve-financial-data/handler.go
package retrievefinancialdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "findata-workers/internal/common/errors"
	"findata-workers/internal/common/logger"
	"findata-workers/internal/common/metrics"
	"findata-workers/internal/common/observability"
	"findata-workers/internal/models"
	"findata-workers/internal/retriever"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/xeipuuv/gojsonschema"
)

const TaskType = "retrieve-financial-data"

var schemaLoader = gojsonschema.NewStringLoader(inputSchema)

// Retriever is the slice of *retriever.Retriever the worker needs.
type Retriever interface {
	GetFinancialData(ctx context.Context, companyOrURL string, opts retriever.Options) *models.RetrievalResult
}

type Handler struct {
	config       *Config
	retriever    Retriever
	errorHandler *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, r Retriever, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		retriever:    r,
		errorHandler: apperrors.NewErrorHandler(log),
		obs:          obs,
		logger:       log,
	}
}

// Handle completes the job even when no source had data; only invalid input
// becomes a BPMN error.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := ParseInput(job.Variables)
	if err != nil {
		h.recordFailure(ctx, err, start)
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output := h.Execute(ctx, input)
	if err := h.completeJob(ctx, client, job, output); err != nil {
		h.recordFailure(ctx, err, start)
		return
	}

	status := "success"
	if !output.FinancialData.Success {
		status = "not_found"
	} else {
		h.obs.RecordSourceHit(ctx, output.FinancialData.Source, output.FinancialData.Cached)
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, status)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), status)
}

// Execute runs one retrieval. It never fails; an unsuccessful retrieval is
// reported inside the output.
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	opts := retriever.Options{ForceRefresh: input.ForceRefresh}
	if input.TimeoutMs > 0 {
		opts.Timeout = time.Duration(input.TimeoutMs) * time.Millisecond
	}

	result := h.retriever.GetFinancialData(ctx, input.CompanyOrURL, opts)
	h.logger.Info("retrieval finished", map[string]interface{}{
		"requestId": result.RequestID,
		"company":   result.CompanyName,
		"success":   result.Success,
		"source":    result.Source,
		"cached":    result.Cached,
	})
	return &Output{FinancialData: result}
}

// ParseInput validates the job variables against the input schema and
// decodes them.
func ParseInput(variables string) (*Input, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(variables))
	if err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("variables are not valid JSON: %v", err))
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, apperrors.NewInvalidInputError(strings.Join(errs, "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	input.CompanyOrURL = strings.TrimSpace(input.CompanyOrURL)
	return &input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err})
		return err
	}
	return nil
}

func (h *Handler) recordFailure(ctx context.Context, err error, start time.Time) {
	code := string(apperrors.Normalize(err).Code)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
}
