package observability

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeRequest       EventType = "request"
	EventTypeLLM           EventType = "llm"
	EventTypeUpstreamError EventType = "upstream_error"
	EventTypeParse         EventType = "parse"
	EventTypePlanCreated   EventType = "plan_created"
	EventTypeCardCompleted EventType = "card_completed"
	EventTypePersistence   EventType = "persistence"
	EventTypeBusy          EventType = "busy"
	EventTypeHeartbeat     EventType = "heartbeat"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	PlanID    string    `json:"plan_id,omitempty"`
	Source    string    `json:"source,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Options configures NewLogger.
type Options struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	LLMLogPath string // empty disables the LLM transcript file
}

// Logger handles structured logging.
type Logger struct {
	z          *zap.Logger
	llmLogPath string
	maxSize    int64
}

func NewLogger(opts Options) (*Logger, error) {
	level := zap.NewAtomicLevel()
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, err
		}
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	zcfg.Encoding = "json"
	if opts.Format == "console" {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.OutputPaths = []string{"stdout"}
	zcfg.DisableStacktrace = true

	z, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{
		z:          z,
		llmLogPath: opts.LLMLogPath,
		maxSize:    10 * 1024 * 1024, // 10MB
	}, nil
}

// NewNopLogger discards everything. Used by tests and as a nil fallback.
func NewNopLogger() *Logger {
	return &Logger{z: zap.NewNop()}
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() {
	_ = l.z.Sync()
}

// Log emits a structured event.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	fields := []zap.Field{zap.Time("event_time", evt.Timestamp)}
	if evt.PlanID != "" {
		fields = append(fields, zap.String("plan_id", evt.PlanID))
	}
	if evt.Source != "" {
		fields = append(fields, zap.String("source", evt.Source))
	}
	if evt.Data != nil {
		fields = append(fields, zap.Any("data", evt.Data))
	}

	switch evt.Type {
	case EventTypeUpstreamError, EventTypePersistence:
		l.z.Error(string(evt.Type), fields...)
	case EventTypeBusy, EventTypeParse:
		l.z.Warn(string(evt.Type), fields...)
	case EventTypeLLM, EventTypeHeartbeat:
		l.z.Debug(string(evt.Type), fields...)
	default:
		l.z.Info(string(evt.Type), fields...)
	}

	if evt.Type == EventTypeLLM && l.llmLogPath != "" {
		data, err := json.Marshal(evt)
		if err != nil {
			l.z.Warn("failed to marshal llm event", zap.Error(err))
			return
		}
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogRequest(source string, req any) {
	l.Log(Event{
		Type:   EventTypeRequest,
		Source: source,
		Data:   req,
	})
}

func (l *Logger) LogLLM(prompt any, response string) {
	l.Log(Event{
		Type: EventTypeLLM,
		Data: map[string]any{
			"prompt":   prompt,
			"response": response,
		},
	})
}

// LogUpstreamError records a failed completion call with the raw body the
// provider sent back, if any.
func (l *Logger) LogUpstreamError(err error, status int, body string) {
	l.Log(Event{
		Type: EventTypeUpstreamError,
		Data: map[string]any{
			"error":  errString(err),
			"status": status,
			"body":   body,
		},
	})
}

func (l *Logger) LogParse(found int, rawLen int) {
	l.Log(Event{
		Type: EventTypeParse,
		Data: map[string]int{
			"cards":      found,
			"raw_length": rawLen,
		},
	})
}

func (l *Logger) LogPlanCreated(planID string, cards int, source string) {
	l.Log(Event{
		Type:   EventTypePlanCreated,
		PlanID: planID,
		Source: source,
		Data:   map[string]int{"cards": cards},
	})
}

func (l *Logger) LogCardCompleted(planID, cardID string, percent int) {
	l.Log(Event{
		Type:   EventTypeCardCompleted,
		PlanID: planID,
		Data: map[string]any{
			"card_id": cardID,
			"percent": percent,
		},
	})
}

func (l *Logger) LogPersistence(op string, err error) {
	l.Log(Event{
		Type: EventTypePersistence,
		Data: map[string]string{
			"op":    op,
			"error": errString(err),
		},
	})
}

func (l *Logger) LogBusy(source string) {
	l.Log(Event{
		Type:   EventTypeBusy,
		Source: source,
		Data:   map[string]string{"status": "generation already in progress"},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
