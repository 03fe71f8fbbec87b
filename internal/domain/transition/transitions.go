package transition

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wavecrest/desktopd/internal/domain/wct"
	"github.com/wavecrest/desktopd/internal/infrastructure/logging"
	"github.com/wavecrest/desktopd/internal/infrastructure/monitoring"
)

// Observer receives transition lifecycle callbacks. Callbacks for distinct
// transitions are serialized relative to each other; observers must not
// assume any ordering between unrelated tokens.
type Observer interface {
	OnTransitionReady(token Token, info Info, startTransaction, finishTransaction *wct.Transaction)
	OnTransitionMerged(merged, playing Token)
	OnTransitionFinished(token Token, aborted bool)
}

// Transitions coordinates the asynchronous window transition pipeline.
// Starting a transition records the requested hierarchy transaction and
// hands back a token; the shell glue later drives the lifecycle through
// NotifyReady, NotifyMerged and NotifyFinished, which fan out to every
// registered observer.
type Transitions struct {
	mu        sync.RWMutex
	observers []Observer
	requested map[Token]*wct.Transaction // Protected by mu
	logger    *logging.Logger
	metrics   *monitoring.Metrics
}

// New creates a transition coordinator
func New(logger *logging.Logger) *Transitions {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Transitions{
		requested: make(map[Token]*wct.Transaction),
		logger:    logger,
	}
}

// WithMetrics adds metrics tracking to the coordinator
func (t *Transitions) WithMetrics(metrics *monitoring.Metrics) *Transitions {
	t.metrics = metrics
	return t
}

// RegisterObserver adds a lifecycle observer. Registration lasts for the
// process lifetime; there is no unregister.
func (t *Transitions) RegisterObserver(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// Start begins a transition carrying the given hierarchy transaction and
// returns its token. The transaction is applied by the transition system,
// not by the caller.
func (t *Transitions) Start(transaction *wct.Transaction) Token {
	token := NewToken()

	t.mu.Lock()
	t.requested[token] = transaction
	t.mu.Unlock()

	t.logger.Debug("Transition started",
		zap.String("token", string(token)),
		zap.Int("ops", len(transaction.Ops())),
	)
	if t.metrics != nil {
		t.metrics.TransitionsStarted.Inc()
	}
	return token
}

// Requested returns the hierarchy transaction a transition was started
// with, if it is still in flight
func (t *Transitions) Requested(token Token) (*wct.Transaction, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	transaction, ok := t.requested[token]
	return transaction, ok
}

// NotifyReady delivers the ready callback for a transition to all
// observers. The requested transaction is passed as the start transaction;
// observers append any follow-up work to the finish transaction.
func (t *Transitions) NotifyReady(token Token, info Info) {
	t.mu.Lock()
	start, ok := t.requested[token]
	if !ok {
		start = wct.New()
	}
	observers := t.snapshotObservers()
	t.mu.Unlock()

	finish := wct.New()
	for _, o := range observers {
		o.OnTransitionReady(token, info, start, finish)
	}
}

// NotifyMerged reports that the merged transition was coalesced into the
// playing one. Any in-flight state follows the playing token.
func (t *Transitions) NotifyMerged(merged, playing Token) {
	t.mu.Lock()
	if transaction, ok := t.requested[merged]; ok {
		delete(t.requested, merged)
		t.requested[playing] = transaction
	}
	observers := t.snapshotObservers()
	t.mu.Unlock()

	t.logger.Debug("Transition merged",
		zap.String("merged", string(merged)),
		zap.String("playing", string(playing)),
	)
	if t.metrics != nil {
		t.metrics.TransitionsMerged.Inc()
	}
	for _, o := range observers {
		o.OnTransitionMerged(merged, playing)
	}
}

// NotifyFinished completes a transition's lifecycle and releases its
// in-flight record
func (t *Transitions) NotifyFinished(token Token, aborted bool) {
	t.mu.Lock()
	delete(t.requested, token)
	observers := t.snapshotObservers()
	t.mu.Unlock()

	if t.metrics != nil {
		result := "completed"
		if aborted {
			result = "aborted"
		}
		t.metrics.TransitionsFinished.WithLabelValues(result).Inc()
	}
	for _, o := range observers {
		o.OnTransitionFinished(token, aborted)
	}
}

// snapshotObservers must be called with mu held
func (t *Transitions) snapshotObservers() []Observer {
	observers := make([]Observer, len(t.observers))
	copy(observers, t.observers)
	return observers
}
