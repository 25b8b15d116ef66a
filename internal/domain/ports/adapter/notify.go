package adapter

import "context"

// OpsNotifier pushes operational alerts (failed checkouts, processor
// outages) to the team channel. Best-effort like the transaction log.
type OpsNotifier interface {
	Alert(ctx context.Context, text string) error
}
