package stage

import (
	"context"

	"ftpgram/internal/queue"
)

// Handler describes the contract the bridge loop needs from each stage.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}
