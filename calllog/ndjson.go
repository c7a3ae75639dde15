package calllog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/GediminasPukys/clinic-voice-agent/logging"
)

// Config controls the NDJSON call log sink.
type Config struct {
	// Dir is the directory receiving one <session-id>.ndjson file per session.
	Dir string
	// QueueSize bounds the in-flight entry queue; entries beyond it are
	// dropped with a warning rather than blocking an invocation.
	QueueSize int
}

// NDJSONRecorder appends entries as newline-delimited JSON, one file per
// session, through a single writer goroutine. Enqueueing never blocks; write
// failures are logged and swallowed.
type NDJSONRecorder struct {
	cfg    Config
	logger logging.Logger

	queue chan Entry
	done  chan struct{}

	mu     sync.Mutex
	closed bool
	files  map[string]*os.File
}

// NewNDJSONRecorder creates the log directory and starts the writer goroutine.
func NewNDJSONRecorder(cfg Config, logger logging.Logger) (*NDJSONRecorder, error) {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create call log directory: %w", err)
	}

	r := &NDJSONRecorder{
		cfg:    cfg,
		logger: logger,
		queue:  make(chan Entry, cfg.QueueSize),
		done:   make(chan struct{}),
		files:  make(map[string]*os.File),
	}
	go r.run()
	return r, nil
}

// Record enqueues an entry without blocking. When the queue is full or the
// recorder is already closed the entry is dropped and a warning logged; an
// audit gap is preferable to stalling a live conversation.
func (r *NDJSONRecorder) Record(entry Entry) {
	entry.Truncate()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Warn("call log recorder closed, dropping entry",
			"function", entry.Function, "session_id", entry.SessionID)
		return
	}
	select {
	case r.queue <- entry:
		r.mu.Unlock()
	default:
		r.mu.Unlock()
		r.logger.Warn("call log queue full, dropping entry",
			"function", entry.Function, "session_id", entry.SessionID)
	}
}

// Close drains pending entries and closes all session files. Closing twice is
// harmless; entries recorded after Close are dropped.
func (r *NDJSONRecorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	<-r.done

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, f := range r.files {
		if err := f.Close(); err != nil {
			r.logger.Warn("failed to close call log file", "session_id", id, "error", err)
		}
	}
	r.files = map[string]*os.File{}
	return nil
}

func (r *NDJSONRecorder) run() {
	defer close(r.done)
	for entry := range r.queue {
		r.write(entry)
	}
}

func (r *NDJSONRecorder) write(entry Entry) {
	f, err := r.file(entry.SessionID)
	if err != nil {
		r.logger.Warn("call log sink unavailable", "session_id", entry.SessionID, "error", err)
		return
	}

	line, err := json.Marshal(entry)
	if err != nil {
		r.logger.Warn("failed to marshal call log entry", "function", entry.Function, "error", err)
		return
	}

	if _, err := f.Write(append(line, '\n')); err != nil {
		r.logger.Warn("failed to write call log entry", "session_id", entry.SessionID, "error", err)
	}
}

func (r *NDJSONRecorder) file(sessionID string) (*os.File, error) {
	if sessionID == "" {
		sessionID = "unknown"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.files[sessionID]; ok {
		return f, nil
	}

	path := filepath.Join(r.cfg.Dir, sessionID+".ndjson")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open call log file: %w", err)
	}
	r.files[sessionID] = f
	return f, nil
}
