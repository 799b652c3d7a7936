package publish

import (
	"context"
	"log"

	"github.com/fazecat/demandpulse/Internal/types"
)

// Publisher is a remote sink for collected snapshots.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, snap types.Snapshot) error
}

// PublishAll sends snap to every publisher. Failures are logged and do not stop
// the others; the returned map holds the error per failed publisher.
func PublishAll(ctx context.Context, snap types.Snapshot, pubs []Publisher) map[string]error {
	failed := make(map[string]error)
	for _, p := range pubs {
		log.Printf("📤 Sending snapshot to %s...", p.Name())
		if err := p.Publish(ctx, snap); err != nil {
			log.Printf("❌ ERROR sending to %s: %v", p.Name(), err)
			failed[p.Name()] = err
			continue
		}
		log.Printf("✅ SUCCESS: snapshot sent to %s (top 3: %v)", p.Name(), snap.Metadata.Top3Ranking)
	}
	return failed
}
