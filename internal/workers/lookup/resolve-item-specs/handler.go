package resolveitemspecs

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"catalog-lookup-workers/internal/catalog"
	"catalog-lookup-workers/internal/common/errors"
	"catalog-lookup-workers/internal/common/logger"
	"catalog-lookup-workers/internal/common/metrics"
	"catalog-lookup-workers/internal/common/validation"
)

const TaskType = "resolve-item-specs"

var schema = validation.MustCompile(inputSchema)

type Handler struct {
	config       *Config
	resolver     *catalog.Resolver
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler builds the item specs worker on top of source, normally a
// *catalog.TemplateStore.
func NewHandler(config *Config, source catalog.TemplateSource, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		resolver:     catalog.NewResolver(source),
		errorHandler: errors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func parseInput(variables string) (*Input, error) {
	result, err := schema.ValidateJSON(variables)
	if err != nil {
		return nil, errors.NewParseError(err)
	}
	if !result.Valid {
		if missing := result.Missing(); len(missing) > 0 {
			return nil, errors.NewMissingParameterError(missing[0])
		}
		return nil, errors.NewInvalidInputError(result.Error())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewParseError(err)
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	code := strings.TrimSpace(input.CategoryCode)
	if code == "" {
		return nil, errors.NewMissingParameterError("categoryCode")
	}

	specs, err := h.resolver.Resolve(ctx, code)
	if err != nil {
		if stderrors.Is(err, catalog.ErrReferenceLoad) {
			return nil, errors.NewReferenceLoadFailedError(err)
		}
		return nil, errors.NewInternalError(err)
	}

	output := &Output{
		LookupID:     uuid.New().String(),
		CategoryCode: code,
		Specs:        specs,
		Count:        len(specs),
	}

	h.logger.Info("item specs resolved", map[string]interface{}{
		"lookupId":     output.LookupID,
		"categoryCode": code,
		"count":        output.Count,
		"durationMs":   time.Since(start).Milliseconds(),
	})
	return output, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := jobError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.logger.WithError(err).Debug("failing job", map[string]interface{}{
		"jobKey":    job.Key,
		"errorCode": string(stdErr.Code),
	})
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

// jobError normalizes err and tags it with the task type, which ends up in
// the BPMN error variables.
func jobError(err error) *errors.StandardError {
	return errors.Normalize(err).WithMetadata("taskType", TaskType)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
