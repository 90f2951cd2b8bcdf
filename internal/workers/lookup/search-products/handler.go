package searchproducts

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"catalog-lookup-workers/internal/catalog"
	"catalog-lookup-workers/internal/common/cache"
	"catalog-lookup-workers/internal/common/errors"
	"catalog-lookup-workers/internal/common/fuzzy"
	"catalog-lookup-workers/internal/common/logger"
	"catalog-lookup-workers/internal/common/metrics"
	"catalog-lookup-workers/internal/common/validation"
	"catalog-lookup-workers/internal/models"
)

const (
	TaskType = "search-products"

	cacheKind = "products"
)

var schema = validation.MustCompile(inputSchema)

type Handler struct {
	config       *Config
	dataset      *catalog.Dataset
	cache        *cache.Results
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler builds the product search worker. rdb may be nil, which turns
// the result cache off.
func NewHandler(config *Config, dataset *catalog.Dataset, rdb *redis.Client, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		dataset:      dataset,
		cache:        cache.NewResults(rdb, config.CacheTTL, l),
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
	if strings.TrimSpace(input.Query) == "" {
		return nil, errors.NewMissingParameterError("query")
	}

	strategy, err := fuzzy.ParseStrategy(input.Strategy)
	if err != nil {
		return nil, errors.NewInvalidStrategyError(input.Strategy)
	}

	n := h.config.DefaultResults
	if input.N != nil {
		n = *input.N
	}

	if err := h.dataset.ProductsErr(); err != nil {
		return nil, errors.NewReferenceLoadFailedError(err)
	}

	key := cache.Key{
		Kind:     cacheKind,
		Dataset:  h.dataset.ProductsFingerprint(),
		Strategy: strategy.String(),
		N:        n,
		Query:    input.Query,
	}
	var results []models.MatchResult
	cached := h.cache.Get(ctx, key, &results)
	if !cached {
		results = h.dataset.MatchProducts(input.Query, n, strategy)
		metrics.LookupCandidatesScanned.WithLabelValues(cacheKind).Add(float64(h.dataset.ProductCount()))
		h.cache.Set(ctx, key, results)
	}
	if results == nil {
		results = []models.MatchResult{}
	}

	metrics.LookupResults.WithLabelValues(cacheKind, strategy.String()).Observe(float64(len(results)))

	output := &Output{
		LookupID:      uuid.New().String(),
		Query:         input.Query,
		ExpandedQuery: fuzzy.Expand(input.Query),
		Strategy:      strategy.String(),
		Results:       results,
		Count:         len(results),
		Cached:        cached,
	}

	h.logger.Info("product search completed", map[string]interface{}{
		"lookupId":   output.LookupID,
		"strategy":   output.Strategy,
		"n":          n,
		"count":      output.Count,
		"cached":     cached,
		"durationMs": time.Since(start).Milliseconds(),
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
