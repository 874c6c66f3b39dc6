package workflow

import "ftpgram/internal/queue"

// ConfigureStages registers the concrete stage handlers the workflow will run.
func (m *Manager) ConfigureStages(set StageSet) {
	pipeline := &pipelineState{}

	if set.Downloader != nil {
		pipeline.stages = append(pipeline.stages, pipelineStage{
			name:             "downloader",
			handler:          set.Downloader,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusDownloading,
			doneStatus:       queue.StatusDownloaded,
		})
	}
	if set.Normalizer != nil {
		pipeline.stages = append(pipeline.stages, pipelineStage{
			name:             "normalizer",
			handler:          set.Normalizer,
			startStatus:      queue.StatusDownloaded,
			processingStatus: queue.StatusEncoding,
			doneStatus:       queue.StatusEncoded,
		})
	}
	publisherStart := queue.StatusEncoded
	if set.Normalizer == nil {
		publisherStart = queue.StatusDownloaded
	}
	if set.Publisher != nil {
		pipeline.stages = append(pipeline.stages, pipelineStage{
			name:             "publisher",
			handler:          set.Publisher,
			startStatus:      publisherStart,
			processingStatus: queue.StatusPublishing,
			doneStatus:       queue.StatusPublished,
		})
	}
	if set.Finalizer != nil {
		pipeline.stages = append(pipeline.stages, pipelineStage{
			name:             "finalizer",
			handler:          set.Finalizer,
			startStatus:      queue.StatusPublished,
			processingStatus: queue.StatusFinalizing,
			doneStatus:       queue.StatusCompleted,
		})
	}

	pipeline.finalize()

	m.mu.Lock()
	m.pipeline = pipeline
	m.mu.Unlock()
}
