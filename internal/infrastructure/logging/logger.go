package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime"
	"strings"
	"sync"
	"time"
)

var levelOrder = map[LogLevel]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// StructuredLogger implementa la interfaz Logger con logging estructurado
type StructuredLogger struct {
	mu     sync.RWMutex
	config *LoggerConfig
	logger *log.Logger
}

// LogEntry representa una entrada de log estructurada
type LogEntry struct {
	Timestamp   string   `json:"timestamp"`
	Level       LogLevel `json:"level"`
	Message     string   `json:"message"`
	RequestID   string   `json:"request_id,omitempty"`
	SessionID   string   `json:"session_id,omitempty"`
	Service     string   `json:"service"`
	Version     string   `json:"version,omitempty"`
	Environment string   `json:"environment,omitempty"`
	Domain      string   `json:"domain,omitempty"`
	Source      string   `json:"source,omitempty"`
	Fields      Fields   `json:"fields,omitempty"`
}

// NewStructuredLogger crea un nuevo logger estructurado
func NewStructuredLogger(config *LoggerConfig) (*StructuredLogger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	cfg := *config
	return &StructuredLogger{
		config: &cfg,
		logger: log.New(cfg.Output, "", 0),
	}, nil
}

func (sl *StructuredLogger) shouldLog(level LogLevel) bool {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return levelOrder[level] >= levelOrder[sl.config.Level]
}

func (sl *StructuredLogger) log(ctx context.Context, level LogLevel, message string, fields Fields) {
	if !sl.shouldLog(level) {
		return
	}

	entry := sl.createLogEntry(ctx, level, message, fields)

	var output string
	if sl.config.Format == FormatText {
		output = sl.formatText(entry)
	} else {
		output = sl.formatJSON(entry)
	}

	sl.logger.Println(output)
}

// createLogEntry copia los campos para no compartir el mapa del llamador
func (sl *StructuredLogger) createLogEntry(ctx context.Context, level LogLevel, message string, fields Fields) *LogEntry {
	entry := &LogEntry{
		Timestamp:   time.Now().Format(time.RFC3339),
		Level:       level,
		Message:     message,
		Service:     sl.config.Service,
		Version:     sl.config.Version,
		Environment: sl.config.Environment,
		RequestID:   GetRequestID(ctx),
		SessionID:   GetSessionID(ctx),
	}

	if len(fields) > 0 {
		entry.Fields = make(Fields, len(fields)+1)
		for k, v := range fields {
			if k == FieldDomain {
				entry.Domain, _ = v.(string)
				continue
			}
			entry.Fields[k] = v
		}
	}

	if startTime := GetStartTime(ctx); !startTime.IsZero() {
		if entry.Fields == nil {
			entry.Fields = make(Fields)
		}
		if _, ok := entry.Fields[FieldDuration]; !ok {
			entry.Fields[FieldDuration] = durationMs(time.Since(startTime))
		}
	}

	if sl.config.AddSource {
		entry.Source = sl.getSource()
	}

	return entry
}

func (sl *StructuredLogger) formatJSON(entry *LogEntry) string {
	jsonData, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf("[%s] %s - %s", entry.Level, entry.RequestID, entry.Message)
	}
	return string(jsonData)
}

// formatText formatea la entrada como texto legible
func (sl *StructuredLogger) formatText(entry *LogEntry) string {
	parts := []string{entry.Timestamp, fmt.Sprintf("[%s]", entry.Level)}

	if entry.RequestID != "" {
		parts = append(parts, "req:"+entry.RequestID)
	}
	if entry.SessionID != "" {
		parts = append(parts, "ses:"+entry.SessionID)
	}
	if entry.Domain != "" {
		parts = append(parts, "domain:"+entry.Domain)
	}

	parts = append(parts, entry.Message)
	result := strings.Join(parts, " ")

	if len(entry.Fields) > 0 {
		if fieldsJSON, err := json.Marshal(entry.Fields); err == nil {
			result += " fields=" + string(fieldsJSON)
		}
	}

	return result
}

// getSource obtiene la función que llamó al logger
func (sl *StructuredLogger) getSource() string {
	// Skip: getSource, createLogEntry, log, public method
	const skip = 4
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}

	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}

	name := fn.Name()
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		name = name[idx+1:]
	}
	return name
}

func (sl *StructuredLogger) Debug(ctx context.Context, message string, fields Fields) {
	sl.log(ctx, LevelDebug, message, fields)
}

func (sl *StructuredLogger) Info(ctx context.Context, message string, fields Fields) {
	sl.log(ctx, LevelInfo, message, fields)
}

func (sl *StructuredLogger) Warn(ctx context.Context, message string, fields Fields) {
	sl.log(ctx, LevelWarn, message, fields)
}

func (sl *StructuredLogger) Error(ctx context.Context, message string, fields Fields) {
	sl.log(ctx, LevelError, message, fields)
}

func (sl *StructuredLogger) InfoWithError(ctx context.Context, message string, err error, fields Fields) {
	sl.log(ctx, LevelInfo, message, withError(fields, err))
}

func (sl *StructuredLogger) WarnWithError(ctx context.Context, message string, err error, fields Fields) {
	sl.log(ctx, LevelWarn, message, withError(fields, err))
}

func (sl *StructuredLogger) ErrorWithError(ctx context.Context, message string, err error, fields Fields) {
	sl.log(ctx, LevelError, message, withError(fields, err))
}

// withError devuelve una copia de fields enriquecida con el error
func withError(fields Fields, err error) Fields {
	if err == nil {
		return fields
	}

	out := make(Fields, len(fields)+2)
	for k, v := range fields {
		out[k] = v
	}
	out[FieldError] = err.Error()
	out[FieldErrorType] = getErrorType(err)
	return out
}

// SetLevel establece el nivel de logging
func (sl *StructuredLogger) SetLevel(level LogLevel) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.config.Level = level
}

// GetLevel retorna el nivel actual de logging
func (sl *StructuredLogger) GetLevel() LogLevel {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.config.Level
}
