// Package logging provides categorized file-based logging for the reasoning
// engine. Logs are written to <dir>/logs/ with one file per category; when
// debug mode is off every call is a silent no-op. Category loggers are built
// on zap cores so the CLI and the engine share one formatting pipeline.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a logging subsystem.
type Category string

const (
	CategoryBoot    Category = "boot"    // startup, option resolution
	CategorySession Category = "session" // session lifecycle, learn calls
	CategoryKernel  Category = "kernel"  // prove/query search
	CategoryHDC     Category = "hdc"     // codec construction, capacity warnings
	CategoryVocab   Category = "vocab"   // identifier registration
	CategoryScope   Category = "scope"   // bindings, transactions
	CategoryGraph   Category = "graph"   // fact assertions, cascades
	CategoryPack    Category = "pack"    // theory pack loading, watcher
	CategoryStore   Category = "store"   // durable store operations
	CategoryArbiter Category = "arbiter" // priority arbitration decisions
)

var (
	mu       sync.RWMutex
	loggers  = make(map[Category]*Logger)
	logsDir  string
	debug    bool
	disabled = &Logger{}
)

// Logger writes to one category file. A zero Logger discards everything.
type Logger struct {
	cat   Category
	sugar *zap.SugaredLogger
}

// Initialize points the logging system at a workspace directory. Debug mode
// off means no files are created and every logger is a no-op.
func Initialize(dir string, debugMode bool) error {
	mu.Lock()
	defer mu.Unlock()
	debug = debugMode
	loggers = make(map[Category]*Logger)
	if !debug {
		return nil
	}
	logsDir = filepath.Join(dir, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("create logs directory: %w", err)
	}
	return nil
}

// Get returns the logger for a category, creating its file on first use.
func Get(cat Category) *Logger {
	mu.RLock()
	if !debug {
		mu.RUnlock()
		return disabled
	}
	if l, ok := loggers[cat]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[cat]; ok {
		return l
	}
	path := filepath.Join(logsDir, string(cat)+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return disabled
	}
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "lvl",
		MessageKey:     "msg",
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	core := zapcore.NewCore(enc, zapcore.AddSync(f), zapcore.DebugLevel)
	l := &Logger{cat: cat, sugar: zap.New(core).Sugar()}
	loggers[cat] = l
	return l
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if l.sugar != nil {
		l.sugar.Debugf(format, args...)
	}
}

func (l *Logger) Info(format string, args ...interface{}) {
	if l.sugar != nil {
		l.sugar.Infof(format, args...)
	}
}

func (l *Logger) Warn(format string, args ...interface{}) {
	if l.sugar != nil {
		l.sugar.Warnf(format, args...)
	}
}

func (l *Logger) Error(format string, args ...interface{}) {
	if l.sugar != nil {
		l.sugar.Errorf(format, args...)
	}
}

// Timer measures one operation and logs its duration on Stop.
type Timer struct {
	cat   Category
	op    string
	start time.Time
}

// StartTimer begins timing an operation in the given category.
func StartTimer(cat Category, op string) *Timer {
	return &Timer{cat: cat, op: op, start: time.Now()}
}

// Stop logs the elapsed time. Slow operations are promoted to warnings.
func (t *Timer) Stop() {
	elapsed := time.Since(t.start)
	l := Get(t.cat)
	if elapsed > time.Second {
		l.Warn("%s took %v", t.op, elapsed)
		return
	}
	l.Debug("%s took %v", t.op, elapsed)
}
