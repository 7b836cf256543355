/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger.go
Description: Dual-stream logging system for HackBench. Maintains an operational log
(structured technical entries: request/response metadata, classification, errors) and a
narrative log (human-readable walkthrough text), both written to timestamped per-run
files with the narrative stream mirrored to the console.
*/

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the operational logging level
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warn"
	LogLevelError   LogLevel = "error"
)

// LogFormat represents the operational logging format
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// Config holds the configuration for the dual logger
type Config struct {
	Level   LogLevel  `json:"level"`
	Format  LogFormat `json:"format"`
	Dir     string    `json:"dir"`
	Console bool      `json:"console"`
	Colors  bool      `json:"colors"`
}

// Validate checks the Config for invalid or missing values.
// Returns an error if the config is invalid, or nil if valid.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("dir must not be empty")
	}
	switch c.Format {
	case LogFormatJSON, LogFormatText:
		// ok
	default:
		return fmt.Errorf("unsupported log format: %s", c.Format)
	}
	switch c.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		// ok
	default:
		return fmt.Errorf("unsupported log level: %s", c.Level)
	}
	return nil
}

// Logger provides the two log streams for a single run. The operational
// stream carries structured technical entries; the narrative stream carries
// the walkthrough text a learner reads.
type Logger struct {
	config *Config

	operational *logrus.Logger
	narrative   *logrus.Logger

	opFile  *os.File
	narFile *os.File

	opPath  string
	narPath string

	startTime time.Time
}

// New creates a dual logger writing timestamped files under config.Dir.
func New(config *Config) (*Logger, error) {
	if config == nil {
		config = &Config{
			Level:   LogLevelInfo,
			Format:  LogFormatText,
			Dir:     "./logs",
			Console: true,
			Colors:  true,
		}
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	if err := os.MkdirAll(config.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")

	l := &Logger{
		config:      config,
		operational: logrus.New(),
		narrative:   logrus.New(),
		startTime:   time.Now(),
	}

	// Operational stream: structured entries, file only.
	l.opPath = filepath.Join(config.Dir, fmt.Sprintf("hackbench_operational_%s.log", timestamp))
	opFile, err := os.OpenFile(l.opPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open operational log file: %w", err)
	}
	l.opFile = opFile
	l.operational.SetOutput(opFile)
	l.setOperationalFormat()

	level, err := logrus.ParseLevel(string(config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.operational.SetLevel(level)

	// Narrative stream: plain text, file plus console.
	l.narPath = filepath.Join(config.Dir, fmt.Sprintf("hackbench_narrative_%s.log", timestamp))
	narFile, err := os.OpenFile(l.narPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		opFile.Close()
		return nil, fmt.Errorf("failed to open narrative log file: %w", err)
	}
	l.narFile = narFile

	var narOut io.Writer = narFile
	if config.Console {
		narOut = io.MultiWriter(os.Stdout, narFile)
	}
	l.narrative.SetOutput(narOut)
	l.narrative.SetLevel(logrus.InfoLevel)
	l.narrative.SetFormatter(&NarrativeFormatter{Colors: config.Colors})

	l.operational.WithFields(logrus.Fields{
		"start_time":      l.startTime.Format(time.RFC3339),
		"operational_log": l.opPath,
		"narrative_log":   l.narPath,
		"level":           config.Level,
		"format":          config.Format,
	}).Info("HackBench logging initialized")

	return l, nil
}

// NewWithWriters builds a logger over injected sinks. Used by tests and by
// callers that manage artifact files themselves.
func NewWithWriters(operational, narrative io.Writer) *Logger {
	l := &Logger{
		config:      &Config{Level: LogLevelDebug, Format: LogFormatText},
		operational: logrus.New(),
		narrative:   logrus.New(),
		startTime:   time.Now(),
	}
	l.operational.SetOutput(operational)
	l.operational.SetLevel(logrus.DebugLevel)
	l.operational.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	l.narrative.SetOutput(narrative)
	l.narrative.SetLevel(logrus.InfoLevel)
	l.narrative.SetFormatter(&NarrativeFormatter{})
	return l
}

// setOperationalFormat selects the structured formatter for the operational stream.
func (l *Logger) setOperationalFormat() {
	switch l.config.Format {
	case LogFormatJSON:
		l.operational.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		l.operational.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
			DisableColors:   true,
		})
	}
}

// OperationalPath returns the operational log file path ("" for injected sinks).
func (l *Logger) OperationalPath() string { return l.opPath }

// NarrativePath returns the narrative log file path ("" for injected sinks).
func (l *Logger) NarrativePath() string { return l.narPath }

// Debug logs a debug entry on the operational stream.
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.operational.WithFields(fields).Debug(msg)
}

// Info logs an info entry on the operational stream.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.operational.WithFields(fields).Info(msg)
}

// Warning logs a warning entry on the operational stream.
func (l *Logger) Warning(msg string, fields map[string]interface{}) {
	l.operational.WithFields(fields).Warn(msg)
}

// Error logs an error entry on the operational stream.
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.operational.WithFields(fields).Error(msg)
}

// Walkthrough-specific logging methods

// LogRequest logs a dispatched request on the operational stream.
func (l *Logger) LogRequest(method, url string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["method"] = method
	fields["url"] = url
	l.operational.WithFields(fields).Info("HTTP request dispatched")
}

// LogResponse logs response metadata on the operational stream.
func (l *Logger) LogResponse(status int, elapsed time.Duration, bodySample string) {
	l.operational.WithFields(logrus.Fields{
		"status":      status,
		"elapsed":     elapsed,
		"body_sample": bodySample,
	}).Info("HTTP response received")
}

// LogClassification logs a classified payload attempt on the operational stream.
func (l *Logger) LogClassification(attemptID string, vector string, variant int, outcome string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["attempt_id"] = attemptID
	fields["vector"] = vector
	fields["variant"] = variant
	fields["outcome"] = outcome
	l.operational.WithFields(fields).Info("Payload attempt classified")
}

// Narrative writes walkthrough text for the learner.
func (l *Logger) Narrative(msg string) {
	l.narrative.Info(msg)
}

// Section writes a framed section header on the narrative stream.
func (l *Logger) Section(title string) {
	separator := "======================================================================"
	l.narrative.Info("\n" + separator)
	l.narrative.Info(title)
	l.narrative.Info(separator)
}

// Step narrates a numbered step and mirrors it to the operational stream.
func (l *Logger) Step(num int, title, description string) {
	l.narrative.Infof("\n[Step %d] %s", num, title)
	l.narrative.Info(description)
	l.operational.WithFields(logrus.Fields{"step": num, "title": title}).Info("Walkthrough step")
}

// Payload narrates a payload about to be attempted.
func (l *Logger) Payload(payload, explanation string) {
	l.narrative.Infof("\nPayload: %s", payload)
	l.narrative.Infof("Explanation: %s", explanation)
}

// ExplainSuccess narrates why an attempt succeeded.
func (l *Logger) ExplainSuccess(what, why string) {
	l.narrative.Infof("\n[+] %s", what)
	l.narrative.Info(why)
	l.operational.WithFields(logrus.Fields{"event": what}).Info("Attempt succeeded")
}

// ExplainFailure narrates why an attempt failed, with an optional next-step hint.
func (l *Logger) ExplainFailure(what, why, hint string) {
	l.narrative.Infof("\n[-] %s", what)
	l.narrative.Info(why)
	if hint != "" {
		l.narrative.Infof("Next: %s", hint)
	}
	l.operational.WithFields(logrus.Fields{"event": what}).Warn("Attempt failed")
}

// Close flushes and closes the underlying log files.
func (l *Logger) Close() error {
	if l.opFile != nil {
		if err := l.opFile.Close(); err != nil {
			return fmt.Errorf("failed to close operational log: %w", err)
		}
	}
	if l.narFile != nil {
		if err := l.narFile.Close(); err != nil {
			return fmt.Errorf("failed to close narrative log: %w", err)
		}
	}
	return nil
}
