package trace

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chainspan/chainspan/internal/shared/id"
	"go.uber.org/zap"
)

// EmptyTraceID is the sentinel returned by Start while tracing is
// disabled or when a tracing fault occurs. Record and Finish on the
// sentinel are guaranteed no-ops.
const EmptyTraceID = ""

// MaxWalkDepth bounds every parent-link walk so a malformed cyclic
// graph terminates instead of looping.
const MaxWalkDepth = 1000

// Recorder receives tracer lifecycle counts for metrics collection.
type Recorder interface {
	SpanStarted(layer string)
	SpanFinished(layer string, duration time.Duration)
	TracingFault(kind string)
	ChainsStored(count int)
	ChainEvicted(activeDescendants bool)
	ActiveSpans(count int)
}

// nopRecorder is used when no metrics sink is wired.
type nopRecorder struct{}

func (nopRecorder) SpanStarted(string)                 {}
func (nopRecorder) SpanFinished(string, time.Duration) {}
func (nopRecorder) TracingFault(string)                {}
func (nopRecorder) ChainsStored(int)                   {}
func (nopRecorder) ChainEvicted(bool)                  {}
func (nopRecorder) ActiveSpans(int)                    {}

// Config holds tracer tuning knobs.
type Config struct {
	// MaxChains caps the stored-chain count; the oldest chains by
	// CreatedAt are evicted past the cap.
	MaxChains int
	// SpanTTL expires abandoned active spans. Zero disables the sweep.
	SpanTTL time.Duration
	// EventBuffer sizes the sealed-span event channel.
	EventBuffer int
	// Enabled sets the initial process-wide toggle.
	Enabled bool
}

// DefaultConfig returns production-ready tracer configuration.
func DefaultConfig() Config {
	return Config{
		MaxChains:   1000,
		SpanTTL:     0,
		EventBuffer: 1000,
		Enabled:     true,
	}
}

// Tracer orchestrates span lifecycle: it creates nodes, resolves parent
// linkage from the ambient context, assembles nodes into chains, and
// bounds memory with age-based eviction.
//
// Tracing never interrupts the instrumented caller: every internal
// failure is logged and converted to a no-op or sentinel.
type Tracer struct {
	cfg      Config
	logger   *zap.Logger
	recorder Recorder
	enabled  atomic.Bool

	mu     sync.RWMutex
	chains map[string]*Chain // keyed by root node id
	active map[string]*Node  // started but not yet finished

	events    chan *Node
	done      chan struct{}
	sweepWG   sync.WaitGroup
	closeOnce sync.Once
}

// New creates a tracer. A nil logger falls back to a no-op logger and a
// nil recorder to a no-op sink. When SpanTTL is set, a background
// sweeper expires abandoned active spans until Close is called.
func New(cfg Config, logger *zap.Logger, recorder Recorder) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if cfg.MaxChains <= 0 {
		cfg.MaxChains = DefaultConfig().MaxChains
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}

	t := &Tracer{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		chains:   make(map[string]*Chain),
		active:   make(map[string]*Node),
		events:   make(chan *Node, cfg.EventBuffer),
		done:     make(chan struct{}),
	}
	t.enabled.Store(cfg.Enabled)

	if cfg.SpanTTL > 0 {
		t.sweepWG.Add(1)
		go t.sweepLoop()
	}

	return t
}

// Enable turns span creation on process-wide.
func (t *Tracer) Enable() {
	t.enabled.Store(true)
}

// Disable stops new span creation. In-flight state is not retracted.
func (t *Tracer) Disable() {
	t.enabled.Store(false)
}

// IsEnabled reports the process-wide toggle.
func (t *Tracer) IsEnabled() bool {
	return t.enabled.Load()
}

// Start begins a span with the ambient trace id as parent. It is
// shorthand for StartSpan with no initial data and no explicit parent.
func (t *Tracer) Start(ctx context.Context, layer, module, action string) (context.Context, string) {
	return t.StartSpan(ctx, layer, module, action, nil, "")
}

// StartSpan begins a span. The layer is given as either its tag ("L2")
// or its short code ("app"); an unknown layer is a tracing fault and
// yields the empty sentinel. When parentID is empty the ambient trace
// id carried by ctx is used; when that is also empty the node becomes a
// new chain's root. The returned context carries the new node's id as
// the ambient trace, so nested spans attach to it.
func (t *Tracer) StartSpan(
	ctx context.Context,
	layerRef string,
	module string,
	action string,
	data map[string]interface{},
	parentID string,
) (outCtx context.Context, traceID string) {
	outCtx, traceID = ctx, EmptyTraceID
	defer t.recoverFault("start")

	if !t.enabled.Load() {
		return outCtx, EmptyTraceID
	}

	layer, err := ParseLayer(layerRef)
	if err != nil {
		t.fault("invalid_layer", "span start with unknown layer",
			zap.String("layer", layerRef),
			zap.String("module", module),
			zap.String("action", action))
		return outCtx, EmptyTraceID
	}

	if parentID == "" {
		parentID = CurrentTrace(ctx)
	}

	nodeData := make(map[string]interface{}, len(data))
	for k, v := range data {
		if isReservedKey(k) {
			t.fault("reserved_key", "initial span data uses a reserved key",
				zap.String("key", k),
				zap.String("module", module),
				zap.String("action", action))
			continue
		}
		nodeData[k] = v
	}

	node := &Node{
		ID:        id.NewNodeID().String(),
		ParentID:  parentID,
		Layer:     layer,
		Module:    module,
		Action:    action,
		Data:      nodeData,
		Timestamp: time.Now(),
	}

	chainCount, activeCount := t.attach(node)

	t.recorder.SpanStarted(layer.Tag())
	t.recorder.ChainsStored(chainCount)
	t.recorder.ActiveSpans(activeCount)

	return WithCurrentTrace(ctx, node.ID), node.ID
}

// attach registers the node as active and links it into its chain,
// creating a new chain (and running an eviction pass) for roots.
func (t *Tracer) attach(node *Node) (chainCount, activeCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active[node.ID] = node

	if node.ParentID == "" {
		t.chains[node.ID] = &Chain{
			RootID:    node.ID,
			Nodes:     []*Node{node},
			CreatedAt: node.Timestamp,
		}
		t.evictLocked()
	} else if chain := t.chainOfLocked(node.ParentID); chain != nil {
		chain.Nodes = append(chain.Nodes, node)
	} else {
		// Parent chain unlocatable, e.g. its root was already
		// evicted. The node stays active but joins no chain.
		t.logger.Warn("span has no reachable chain",
			zap.String("trace_id", node.ID),
			zap.String("parent_id", node.ParentID))
	}

	return len(t.chains), len(t.active)
}

// Record merges one entry into an active span's data map. Unknown ids
// and the empty sentinel are no-ops.
func (t *Tracer) Record(traceID, key string, value interface{}) {
	defer t.recoverFault("record")

	if traceID == EmptyTraceID {
		return
	}
	if isReservedKey(key) {
		t.fault("reserved_key", "record on a reserved key",
			zap.String("trace_id", traceID),
			zap.String("key", key))
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	node, ok := t.active[traceID]
	if !ok {
		t.fault("unknown_trace", "record on unknown trace id",
			zap.String("trace_id", traceID),
			zap.String("key", key))
		return
	}
	node.Data[key] = value
}

// Finish seals an active span: it writes result (when non-nil) and
// finished_at into the data map and removes the span from the active
// table. The returned context carries the span's parent as the ambient
// trace id, restoring the enclosing span for LIFO-nested flows.
//
// Finishing out of LIFO order leaves the returned ambient id pointing at
// the finished span's parent regardless of what else is open; callers
// that interleave finishes must thread explicit parent ids instead.
func (t *Tracer) Finish(ctx context.Context, traceID string, result interface{}) (outCtx context.Context) {
	outCtx = ctx
	defer t.recoverFault("finish")

	if traceID == EmptyTraceID {
		return outCtx
	}

	sealed, activeCount := t.seal(traceID, result)
	if sealed == nil {
		t.fault("unknown_trace", "finish on unknown trace id",
			zap.String("trace_id", traceID))
		return outCtx
	}

	finishedAt, _ := sealed.Data[DataKeyFinishedAt].(time.Time)
	t.recorder.SpanFinished(sealed.Layer.Tag(), finishedAt.Sub(sealed.Timestamp))
	t.recorder.ActiveSpans(activeCount)
	t.emit(sealed)

	return WithCurrentTrace(ctx, sealed.ParentID)
}

// seal writes the finish fields into an active span and removes it from
// the active table. It returns a snapshot of the sealed node, or nil
// when the id is not active.
func (t *Tracer) seal(traceID string, result interface{}) (sealed *Node, activeCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	node, ok := t.active[traceID]
	if !ok {
		return nil, len(t.active)
	}

	if result != nil {
		node.Data[DataKeyResult] = result
	}
	node.Data[DataKeyFinishedAt] = time.Now()
	delete(t.active, traceID)

	return node.clone(), len(t.active)
}

// GetChain resolves the chain containing the given id, whether the id
// names a stored node or a still-active one. The result is a deep copy;
// mutating it does not affect the store.
func (t *Tracer) GetChain(traceID string) (*Chain, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	chain := t.chainOfLocked(traceID)
	if chain == nil {
		return nil, false
	}
	return chain.clone(), true
}

// GetAllChains returns deep copies of every stored chain, oldest first.
func (t *Tracer) GetAllChains() []*Chain {
	t.mu.RLock()
	defer t.mu.RUnlock()

	chains := make([]*Chain, 0, len(t.chains))
	for _, c := range t.chains {
		chains = append(chains, c.clone())
	}
	sort.Slice(chains, func(i, j int) bool {
		return chains[i].CreatedAt.Before(chains[j].CreatedAt)
	})
	return chains
}

// GetChainCount returns the stored-chain count.
func (t *Tracer) GetChainCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.chains)
}

// ActiveCount returns the number of started-but-unfinished spans.
func (t *Tracer) ActiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.active)
}

// ClearChains drops every stored chain. Active spans are untouched so
// in-flight flows can still finish.
func (t *Tracer) ClearChains() {
	t.mu.Lock()
	t.chains = make(map[string]*Chain)
	t.mu.Unlock()
	t.recorder.ChainsStored(0)
}

// Events exposes sealed spans for live observers. When the buffer is
// full new events are dropped, never blocking the tracer.
func (t *Tracer) Events() <-chan *Node {
	return t.events
}

// Close stops the TTL sweeper and closes the event channel. It waits
// for an in-flight sweep to drain before closing, so the sweeper never
// races a send against the closed channel.
func (t *Tracer) Close() {
	t.closeOnce.Do(func() {
		close(t.done)
		t.sweepWG.Wait()
		close(t.events)
	})
}

// chainOfLocked implements root resolution: scan stored chains for the
// id, then walk the active table's parent links until a node already
// migrated into a stored chain (or a root) is reached. Both phases are
// depth-bounded. Callers must hold at least a read lock.
func (t *Tracer) chainOfLocked(traceID string) *Chain {
	for _, chain := range t.chains {
		if chain.GetNode(traceID) != nil {
			return chain
		}
	}

	node, ok := t.active[traceID]
	for depth := 0; ok && depth < MaxWalkDepth; depth++ {
		if node.ParentID == "" {
			// The id is a root; it may legitimately have no
			// stored chain (already evicted).
			return t.chains[node.ID]
		}
		for _, chain := range t.chains {
			if chain.GetNode(node.ParentID) != nil {
				return chain
			}
		}
		node, ok = t.active[node.ParentID]
	}
	return nil
}

// evictLocked enforces the chain cap, removing the oldest chains by
// CreatedAt. Chains with active descendants are not spared (the cap is
// a hard memory bound); evicting one is logged and counted separately.
func (t *Tracer) evictLocked() {
	if len(t.chains) <= t.cfg.MaxChains {
		return
	}

	roots := make([]string, 0, len(t.chains))
	for root := range t.chains {
		roots = append(roots, root)
	}
	sort.Slice(roots, func(i, j int) bool {
		return t.chains[roots[i]].CreatedAt.Before(t.chains[roots[j]].CreatedAt)
	})

	for _, root := range roots {
		if len(t.chains) <= t.cfg.MaxChains {
			break
		}
		chain := t.chains[root]
		delete(t.chains, root)

		activeLeft := 0
		for _, n := range chain.Nodes {
			if _, stillActive := t.active[n.ID]; stillActive {
				activeLeft++
			}
		}
		if activeLeft > 0 {
			t.logger.Warn("evicted chain with active spans",
				zap.String("root_id", root),
				zap.Int("active_spans", activeLeft))
		}
		t.recorder.ChainEvicted(activeLeft > 0)
	}
}

// sweepLoop expires abandoned active spans once SpanTTL is configured.
func (t *Tracer) sweepLoop() {
	defer t.sweepWG.Done()

	interval := t.cfg.SpanTTL
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.SweepActive(t.cfg.SpanTTL)
		}
	}
}

// SweepActive seals and drops active spans older than ttl, returning
// the number expired. Like the span API, it converts internal panics
// into logged faults; calling it after Close drops its events instead
// of panicking.
func (t *Tracer) SweepActive(ttl time.Duration) int {
	defer t.recoverFault("sweep")

	expired, activeCount := t.expire(ttl)

	for _, node := range expired {
		t.fault("span_ttl", "active span expired",
			zap.String("trace_id", node.ID),
			zap.String("module", node.Module),
			zap.String("action", node.Action))
		t.emit(node)
	}
	if len(expired) > 0 {
		t.recorder.ActiveSpans(activeCount)
	}
	return len(expired)
}

// expire seals active spans older than ttl, returning snapshots of the
// sealed nodes and the remaining active count.
func (t *Tracer) expire(ttl time.Duration) (expired []*Node, activeCount int) {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	for traceID, node := range t.active {
		if now.Sub(node.Timestamp) > ttl {
			node.Data[DataKeyResult] = "expired"
			node.Data[DataKeyFinishedAt] = now
			delete(t.active, traceID)
			expired = append(expired, node.clone())
		}
	}
	return expired, len(t.active)
}

// emit publishes a sealed span to observers, dropping when full.
func (t *Tracer) emit(node *Node) {
	select {
	case t.events <- node:
	default:
		t.logger.Warn("span event buffer full, dropping event",
			zap.String("trace_id", node.ID))
	}
}

// fault logs a tracing fault. Faults never propagate to the caller.
func (t *Tracer) fault(kind, msg string, fields ...zap.Field) {
	fields = append(fields, zap.String("fault", kind))
	t.logger.Warn(msg, fields...)
	t.recorder.TracingFault(kind)
}

// recoverFault converts an internal panic inside the span API into a
// logged fault so tracing can never break the instrumented application.
func (t *Tracer) recoverFault(op string) {
	if r := recover(); r != nil {
		t.fault("internal", "tracing operation panicked",
			zap.String("op", op),
			zap.Any("panic", r))
	}
}
