package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ftpgram/internal/fileutil"
	"ftpgram/internal/logging"
	"ftpgram/internal/queue"
	"ftpgram/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, stg pipelineStage, item *queue.Item, stageErr error) {
	base := m.logger
	if base == nil {
		base = logging.NewNop()
	}
	logger := logging.WithContext(ctx, base).With(logging.String(logging.FieldComponent, "workflow-manager"))

	message := m.classifyStageFailure(stg.name, stageErr)

	item.Attempts++
	if m.shouldRetry(stageErr, item.Attempts) {
		item.Status = stg.startStatus
		item.ErrorMessage = message
		item.LastHeartbeat = nil
		logger.Warn("stage failed, will retry",
			logging.String(logging.FieldEventType, "stage_retry"),
			logging.String("error_message", message),
			logging.Int("attempts", item.Attempts),
			logging.Int("max_attempts", m.cfg.Workflow.MaxAttempts),
			logging.Error(stageErr),
		)
		if err := m.store.Update(ctx, item); err != nil {
			logger.Error("failed to persist stage retry", logging.Error(err))
		}
		m.setLastItem(item)
		return
	}

	m.cleanupScratch(item, logger)
	item.SetFailed(message)
	logger.Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.Alert("stage_failure"),
		logging.String("error_message", message),
		logging.Int("attempts", item.Attempts),
		logging.Error(stageErr),
	)

	if err := m.store.Update(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not update stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.setLastItem(item)
	if m.notifier != nil {
		if err := m.notifier.NotifyDeliveryFailed(ctx, item.RemoteBase(), stageErr); err != nil {
			logger.Warn("failure notification failed", logging.Error(err))
		}
	}
}

// cleanupScratch reclaims the per-item staging directory once the item has
// no further stage to run. Failed items hold no receipt, so their local
// artifacts are never needed again.
func (m *Manager) cleanupScratch(item *queue.Item, logger *slog.Logger) {
	scratchDir := fileutil.ItemScratchDir(m.cfg.Paths.StagingDir, item.ID)
	fileutil.RemoveQuietly(scratchDir)
	if item.LocalPath != "" || item.PublishPath != "" {
		logger.Debug("removed scratch for failed item", logging.String("scratch_dir", scratchDir))
	}
	item.LocalPath = ""
	item.PublishPath = ""
}

func (m *Manager) shouldRetry(stageErr error, attempts int) bool {
	if stageErr == nil {
		return false
	}
	if !services.IsRetryable(stageErr) {
		return false
	}
	return attempts < m.cfg.Workflow.MaxAttempts
}

func (m *Manager) classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		return fmt.Sprintf("%s failed without error detail", stageName)
	}
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		message = fmt.Sprintf("%s failed", stageName)
	}
	return message
}
