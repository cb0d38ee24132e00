package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-roster-api/pkg/jobs"
)

type purgeQueue interface {
	Enqueue(job jobs.Job[string]) error
}

// AttachmentJanitor hands attachment keys that no record references any
// more to a background purge queue.
type AttachmentJanitor struct {
	queue  purgeQueue
	logger *zap.Logger
}

// NewAttachmentJanitor constructs the janitor.
func NewAttachmentJanitor(queue purgeQueue, logger *zap.Logger) *AttachmentJanitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentJanitor{queue: queue, logger: logger}
}

// ReleaseAttachments schedules each key for deletion. Enqueue failures are
// logged; the record change that released the keys has already been stored.
func (j *AttachmentJanitor) ReleaseAttachments(_ context.Context, keys []string) {
	for _, key := range keys {
		if err := j.queue.Enqueue(jobs.Job[string]{ID: key, Payload: key}); err != nil {
			j.logger.Warn("failed to schedule attachment purge", zap.String("key", key), zap.Error(err))
		}
	}
}

// PurgeJob adapts AttachmentService.Purge to a queue handler.
func PurgeJob(attachments *AttachmentService) jobs.Handler[string] {
	return func(ctx context.Context, job jobs.Job[string]) error {
		return attachments.Purge(ctx, job.Payload)
	}
}
