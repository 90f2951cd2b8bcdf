package searchcategories

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
	TaskType = "search-categories"

	cacheKind = "categories"
)

var schema = validation.MustCompile(inputSchema)

type Handler struct {
	config       *Config
	dataset      *catalog.Dataset
	cache        *cache.Results
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

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
	if strings.TrimSpace(input.SelectedName) == "" {
		return nil, errors.NewMissingParameterError("selectedName")
	}

	strategy, err := fuzzy.ParseStrategy(input.Strategy)
	if err != nil {
		return nil, errors.NewInvalidStrategyError(input.Strategy)
	}

	n := h.config.DefaultResults
	if input.N != nil {
		n = *input.N
	}

	if err := h.dataset.CategoriesErr(); err != nil {
		return nil, errors.NewReferenceLoadFailedError(err)
	}

	key := cache.Key{
		Kind:     cacheKind,
		Dataset:  h.dataset.CategoriesFingerprint(),
		Strategy: strategy.String(),
		N:        n,
		Query:    input.SelectedName,
	}
	var ranking cachedRanking
	cached := h.cache.Get(ctx, key, &ranking)
	if !cached {
		r := h.dataset.RankCategories(input.SelectedName, n, strategy)
		metrics.LookupCandidatesScanned.WithLabelValues(cacheKind).Add(float64(h.dataset.CategoryCount()))
		ranking = cachedRanking{Results: r.Results, ExactMatch: r.ExactMatch}
		h.cache.Set(ctx, key, ranking)
	}
	if ranking.Results == nil {
		ranking.Results = []models.MatchResult{}
	}

	if ranking.ExactMatch {
		metrics.CategoryExactMatches.Inc()
	}
	metrics.LookupResults.WithLabelValues(cacheKind, strategy.String()).Observe(float64(len(ranking.Results)))

	output := &Output{
		LookupID:     uuid.New().String(),
		SelectedName: input.SelectedName,
		Strategy:     strategy.String(),
		ExactMatch:   ranking.ExactMatch,
		Results:      ranking.Results,
		Count:        len(ranking.Results),
		Cached:       cached,
	}

	h.logger.Info("category search completed", map[string]interface{}{
		"lookupId":   output.LookupID,
		"strategy":   output.Strategy,
		"exactMatch": output.ExactMatch,
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
