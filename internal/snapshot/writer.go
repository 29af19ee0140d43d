package snapshot

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Writer decouples state mutations from snapshot IO. Enqueue never blocks:
// a blob waiting to be written is replaced by a newer one, so under bursts
// only the latest state reaches the gateway. Write failures are logged and
// dropped; the in-memory state stays authoritative.
type Writer struct {
	gateway Gateway
	key     string
	logger  *zap.Logger

	mu      sync.Mutex
	closed  bool
	pending chan []byte
	done    chan struct{}
}

// NewWriter starts the background drain loop.
func NewWriter(gateway Gateway, key string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Writer{
		gateway: gateway,
		key:     key,
		logger:  logger,
		pending: make(chan []byte, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Enqueue replaces any pending blob with the given one and returns
// immediately.
func (w *Writer) Enqueue(blob []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.pending <- blob:
	default:
		// Drop the stale pending blob and retry with the fresh one.
		select {
		case <-w.pending:
		default:
		}
		select {
		case w.pending <- blob:
		default:
		}
	}
}

// Close stops accepting blobs, flushes anything still pending, and waits for
// the drain loop to exit.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	close(w.pending)
	w.mu.Unlock()
	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)
	for blob := range w.pending {
		if err := w.gateway.Save(context.Background(), w.key, blob); err != nil {
			w.logger.Warn("snapshot write failed", zap.String("key", w.key), zap.Error(err))
		}
	}
}
