package game

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	EventBufferSize      = 1024                   // Circular buffer size
	MaxEventsPerSec      = 10000                  // Global rate limit
	MaxEventsPerEntity   = 100                    // Per-entity rate limit per second
	BatchFlushSize       = 64                     // Events per batch write
	BatchFlushInterval   = 100 * time.Millisecond // How often to flush
	EntityLimiterCleanup = 5 * time.Minute        // Cleanup interval for entity limiters
)

// Publisher receives every flushed batch in addition to the NDJSON file.
type Publisher interface {
	Publish(batch []Event) error
}

// EventLog provides bounded, rate-limited event logging with backpressure.
// Emit is called from the tick; a background goroutine flushes batches.
type EventLog struct {
	// Circular buffer guarded by bufMu
	buffer    [EventBufferSize]Event
	bufMu     sync.Mutex
	writeHead uint64
	readHead  uint64

	globalLimiter  *rate.Limiter
	entityLimiters sync.Map // map[string]*entityLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	file      *os.File
	fileMu    sync.Mutex
	publisher Publisher
	logger    *zap.Logger

	droppedCount uint64 // atomic
	totalCount   uint64 // atomic
	onDrop       func()
}

type entityLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64 // Unix nano
}

// NewEventLog creates a new bounded event log.
func NewEventLog(logger *zap.Logger) *EventLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventLog{
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
		logger:        logger,
	}
}

// SetPublisher attaches a secondary sink. Call before Start.
func (el *EventLog) SetPublisher(p Publisher) { el.publisher = p }

// OnDrop registers a callback invoked for every dropped event. Call before
// Start.
func (el *EventLog) OnDrop(fn func()) { el.onDrop = fn }

// Start opens the NDJSON file (if any) and begins the writer goroutines.
// An empty path keeps events in memory only, still feeding the publisher.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}

	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		el.file = file
	}

	el.running.Store(true)
	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()
	return nil
}

// Stop flushes pending events and shuts down the writer.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		if !el.running.Load() {
			return
		}
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.fileMu.Lock()
		if el.file != nil {
			el.file.Close()
		}
		el.fileMu.Unlock()
	})
}

// Emit adds an event with rate limiting. It returns false if the event was
// rate limited or the log is not running. A full buffer drops the oldest
// event.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}

	if !el.globalLimiter.Allow() {
		el.drop()
		return false
	}
	if event.EntityID != "" {
		if !el.entityLimiter(event.EntityID).Allow() {
			el.drop()
			return false
		}
	}

	el.bufMu.Lock()
	el.writeHead++
	head := el.writeHead
	if head-el.readHead > EventBufferSize {
		el.readHead++
		el.drop()
	}
	event.Sequence = head
	el.buffer[head%EventBufferSize] = event
	el.bufMu.Unlock()

	atomic.AddUint64(&el.totalCount, 1)
	return true
}

// EmitSimple creates and emits an event.
func (el *EventLog) EmitSimple(eventType EventType, tickNum uint64, sessionID, entityID string, payload any) bool {
	event := NewEvent(eventType, tickNum, entityID, payload)
	event.SessionID = sessionID
	return el.Emit(event)
}

func (el *EventLog) drop() {
	atomic.AddUint64(&el.droppedCount, 1)
	if el.onDrop != nil {
		el.onDrop()
	}
}

func (el *EventLog) entityLimiter(id string) *rate.Limiter {
	now := time.Now().UnixNano()
	if v, ok := el.entityLimiters.Load(id); ok {
		e := v.(*entityLimiterEntry)
		e.lastUsed.Store(now)
		return e.limiter
	}
	entry := &entityLimiterEntry{
		limiter: rate.NewLimiter(MaxEventsPerEntity, MaxEventsPerEntity/10),
	}
	entry.lastUsed.Store(now)
	actual, _ := el.entityLimiters.LoadOrStore(id, entry)
	return actual.(*entityLimiterEntry).limiter
}

func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)
	for {
		select {
		case <-el.stopChan:
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}
		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

// cleanupLoop removes stale entity limiters.
func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(EntityLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			el.cleanupEntityLimiters()
		}
	}
}

func (el *EventLog) cleanupEntityLimiters() {
	cutoff := time.Now().Add(-EntityLimiterCleanup).UnixNano()
	el.entityLimiters.Range(func(key, value any) bool {
		if value.(*entityLimiterEntry).lastUsed.Load() < cutoff {
			el.entityLimiters.Delete(key)
		}
		return true
	})
}

func (el *EventLog) collectBatch(batch []Event) []Event {
	el.bufMu.Lock()
	defer el.bufMu.Unlock()

	for el.readHead < el.writeHead && len(batch) < BatchFlushSize {
		el.readHead++
		batch = append(batch, el.buffer[el.readHead%EventBufferSize])
	}
	return batch
}

// flushBatch appends events to the file as newline-delimited JSON and hands
// the batch to the publisher.
func (el *EventLog) flushBatch(batch []Event) {
	el.fileMu.Lock()
	if el.file != nil {
		for _, event := range batch {
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			data = append(data, '\n')
			if _, err := el.file.Write(data); err != nil {
				el.logger.Warn("event log write failed", zap.Error(err))
				break
			}
		}
	}
	el.fileMu.Unlock()

	if el.publisher != nil {
		if err := el.publisher.Publish(batch); err != nil {
			el.logger.Warn("event publish failed", zap.Int("events", len(batch)), zap.Error(err))
		}
	}
}

// Stats returns counters for monitoring.
func (el *EventLog) Stats() map[string]any {
	el.bufMu.Lock()
	pending := el.writeHead - el.readHead
	el.bufMu.Unlock()

	return map[string]any{
		"total":   atomic.LoadUint64(&el.totalCount),
		"dropped": atomic.LoadUint64(&el.droppedCount),
		"pending": pending,
		"running": el.running.Load(),
	}
}

// DroppedCount returns the number of dropped events.
func (el *EventLog) DroppedCount() uint64 {
	return atomic.LoadUint64(&el.droppedCount)
}

// TotalCount returns the number of accepted events.
func (el *EventLog) TotalCount() uint64 {
	return atomic.LoadUint64(&el.totalCount)
}
