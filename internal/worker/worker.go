package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/aescanero/dago-sitegen/internal/build"
	"github.com/aescanero/dago-sitegen/internal/config"
)

// BuildRequest asks for a full rebuild of the site
type BuildRequest struct {
	RequestID string `json:"request_id"`
	Reason    string `json:"reason,omitempty"`
	Filter    string `json:"filter,omitempty"`
}

// BuildFunc loads the site afresh and builds it
type BuildFunc func(ctx context.Context, req *BuildRequest) (*build.Report, error)

// Worker consumes build requests from a Redis stream
type Worker struct {
	id            string
	config        *config.Config
	redisClient   *redis.Client
	build         BuildFunc
	store         *Store
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	streamKey     string
	consumerGroup string
	resultStream  string
}

// NewWorker creates a new worker
func NewWorker(
	cfg *config.Config,
	redisClient *redis.Client,
	buildFn BuildFunc,
	store *Store,
	logger *zap.Logger,
) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		id:            cfg.WorkerID,
		config:        cfg,
		redisClient:   redisClient,
		build:         buildFn,
		store:         store,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		streamKey:     cfg.StreamKey,
		consumerGroup: cfg.ConsumerGroup,
		resultStream:  cfg.ResultStream,
	}
}

// Start starts the worker
func (w *Worker) Start() error {
	w.logger.Info("starting build worker",
		zap.String("worker_id", w.id),
		zap.String("stream_key", w.streamKey),
		zap.String("consumer_group", w.consumerGroup),
	)

	if err := w.ensureConsumerGroup(); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	w.wg.Add(1)
	go w.processWork()

	w.logger.Info("build worker started", zap.String("worker_id", w.id))
	return nil
}

// Stop cancels the running build, if any, and waits for the loop to exit
func (w *Worker) Stop() error {
	w.logger.Info("stopping build worker", zap.String("worker_id", w.id))

	w.cancel()
	w.wg.Wait()

	w.logger.Info("build worker stopped", zap.String("worker_id", w.id))
	return nil
}

// ensureConsumerGroup creates the consumer group if it doesn't exist
func (w *Worker) ensureConsumerGroup() error {
	err := w.redisClient.XGroupCreateMkStream(w.ctx, w.streamKey, w.consumerGroup, "0").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			w.logger.Debug("consumer group already exists",
				zap.String("group", w.consumerGroup),
			)
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.logger.Info("created consumer group",
		zap.String("group", w.consumerGroup),
		zap.String("stream", w.streamKey),
	)
	return nil
}

// processWork processes build requests one at a time
func (w *Worker) processWork() {
	defer w.wg.Done()
	w.logger.Info("starting work processing loop")

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("work processing loop stopped")
			return
		default:
			streams, err := w.redisClient.XReadGroup(w.ctx, &redis.XReadGroupArgs{
				Group:    w.consumerGroup,
				Consumer: w.id,
				Streams:  []string{w.streamKey, ">"},
				Count:    1,
				Block:    w.config.BlockTime,
			}).Result()

			if err != nil {
				if errors.Is(err, redis.Nil) || w.ctx.Err() != nil {
					continue
				}
				w.logger.Error("failed to read from stream",
					zap.Error(err),
				)
				select {
				case <-w.ctx.Done():
				case <-time.After(time.Second):
				}
				continue
			}

			for _, stream := range streams {
				for _, message := range stream.Messages {
					w.handleMessage(w.ctx, message)
				}
			}
		}
	}
}

// handleMessage handles a single build request message
func (w *Worker) handleMessage(ctx context.Context, message redis.XMessage) {
	messageID := message.ID
	w.logger.Info("processing build request",
		zap.String("message_id", messageID),
	)

	request, err := parseBuildRequest(message.Values)
	if err != nil {
		w.logger.Error("failed to parse build request",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		w.publishError(ctx, &BuildRequest{RequestID: messageID}, err)
		w.acknowledgeMessage(messageID)
		return
	}

	if err := w.processBuildRequest(ctx, request); err != nil {
		w.logger.Error("build request failed",
			zap.String("message_id", messageID),
			zap.String("request_id", request.RequestID),
			zap.Error(err),
		)
		w.publishError(ctx, request, err)
	}

	w.acknowledgeMessage(messageID)
}

// parseBuildRequest accepts either a JSON "data" field or flat fields
func parseBuildRequest(values map[string]interface{}) (*BuildRequest, error) {
	var request BuildRequest

	if raw, ok := values["data"]; ok {
		dataStr, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("invalid 'data' field")
		}
		if err := json.Unmarshal([]byte(dataStr), &request); err != nil {
			return nil, fmt.Errorf("failed to unmarshal build request: %w", err)
		}
	} else {
		for field, dst := range map[string]*string{
			"request_id": &request.RequestID,
			"reason":     &request.Reason,
			"filter":     &request.Filter,
		} {
			if raw, ok := values[field]; ok {
				s, ok := raw.(string)
				if !ok {
					return nil, fmt.Errorf("invalid '%s' field", field)
				}
				*dst = s
			}
		}
	}

	if request.RequestID == "" {
		request.RequestID = uuid.NewString()
	}
	return &request, nil
}

// processBuildRequest runs a build and records its report
func (w *Worker) processBuildRequest(ctx context.Context, request *BuildRequest) error {
	buildCtx, cancel := context.WithTimeout(ctx, w.config.BuildTimeout)
	defer cancel()

	report, buildErr := w.build(buildCtx, request)
	if report == nil {
		if buildErr == nil {
			buildErr = fmt.Errorf("build returned no report")
		}
		return buildErr
	}

	payload, err := w.reportPayload(request, report)
	if err != nil {
		return err
	}

	// A timed-out build still gets recorded
	pubCtx, pubCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer pubCancel()

	if w.store != nil {
		if err := w.store.SaveLast(pubCtx, payload); err != nil {
			w.logger.Error("failed to store build report", zap.Error(err))
		}
	}

	if err := w.publishResult(pubCtx, request, report, payload); err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}

	return buildErr
}

// reportPayload is the report JSON tagged with the request it answers
func (w *Worker) reportPayload(request *BuildRequest, report *build.Report) ([]byte, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	for field, v := range map[string]interface{}{
		"request_id": request.RequestID,
		"reason":     request.Reason,
		"worker_id":  w.id,
		"ok":         report.OK(),
	} {
		if data, err = sjson.SetBytes(data, field, v); err != nil {
			return nil, fmt.Errorf("failed to tag report: %w", err)
		}
	}
	return data, nil
}

// publishResult publishes the report without per-page details
func (w *Worker) publishResult(ctx context.Context, request *BuildRequest, report *build.Report, payload []byte) error {
	summary, err := sjson.DeleteBytes(payload, "pages")
	if err != nil {
		return fmt.Errorf("failed to trim report: %w", err)
	}

	_, err = w.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: w.resultStream,
		Values: map[string]interface{}{
			"data": string(summary),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	w.logger.Info("published build result",
		zap.String("request_id", request.RequestID),
		zap.String("build_id", report.ID),
		zap.Bool("ok", report.OK()),
	)
	return nil
}

// publishError publishes an error event
func (w *Worker) publishError(ctx context.Context, request *BuildRequest, err error) {
	errorEvent := map[string]interface{}{
		"request_id": request.RequestID,
		"worker_id":  w.id,
		"error":      err.Error(),
		"timestamp":  time.Now().UTC(),
	}

	data, marshalErr := json.Marshal(errorEvent)
	if marshalErr != nil {
		w.logger.Error("failed to marshal error event", zap.Error(marshalErr))
		return
	}

	// Use a fresh context so a cancelled build still reports
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	_, publishErr := w.redisClient.XAdd(pubCtx, &redis.XAddArgs{
		Stream: w.resultStream + ".errors",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if publishErr != nil {
		w.logger.Error("failed to publish error event", zap.Error(publishErr))
	}
}

// acknowledgeMessage acknowledges a message from the stream
func (w *Worker) acknowledgeMessage(messageID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := w.redisClient.XAck(ctx, w.streamKey, w.consumerGroup, messageID).Err()
	if err != nil {
		w.logger.Error("failed to acknowledge message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}
