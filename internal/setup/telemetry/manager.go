// Package telemetry sets up the loggers of a run. Every run writes into its
// own session directory and old sessions are pruned.
package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/invitegate/internal/setup/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// sessionLayout names session directories.
const sessionLayout = "2006-01-02_15-04-05"

// Manager creates the log files of a run.
type Manager struct {
	instanceID    string
	componentName string
	sessionDir    string
	logDir        string
	level         string
	maxLogsToKeep int
	maxLogLines   int
	stderr        bool
	files         []*lineRotator
}

// NewManager creates a Manager writing sessions below logDir.
func NewManager(logDir, componentName string, debugCfg *config.Debug) *Manager {
	return &Manager{
		instanceID:    uuid.New().String(),
		componentName: componentName,
		logDir:        logDir,
		level:         debugCfg.LogLevel,
		maxLogsToKeep: debugCfg.MaxLogsToKeep,
		maxLogLines:   debugCfg.MaxLogLines,
		stderr:        true,
	}
}

// GetLoggers initializes the main and database loggers.
func (lm *Manager) GetLoggers() (*zap.Logger, *zap.Logger, error) {
	if err := lm.setupLogDirectories(); err != nil {
		return nil, nil, err
	}

	mainLogger, err := lm.initLogger(filepath.Join(lm.sessionDir, "main.log"), lm.stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize main logger: %w", err)
	}

	dbLogger, err := lm.initLogger(filepath.Join(lm.sessionDir, "database.log"), false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database logger: %w", err)
	}

	fields := []zap.Field{
		zap.String("component", lm.componentName),
		zap.String("instanceID", lm.instanceID),
	}

	return mainLogger.With(fields...), dbLogger.With(fields...), nil
}

// SessionDir returns the directory of the current run.
func (lm *Manager) SessionDir() string {
	return lm.sessionDir
}

// InstanceID returns the identifier of this run.
func (lm *Manager) InstanceID() string {
	return lm.instanceID
}

// Close closes every log file.
func (lm *Manager) Close() error {
	var errs []error
	for _, file := range lm.files {
		errs = append(errs, file.Close())
	}
	lm.files = nil

	return errors.Join(errs...)
}

// setupLogDirectories prunes old sessions and creates the session directory.
func (lm *Manager) setupLogDirectories() error {
	if err := os.MkdirAll(lm.logDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	if err := lm.rotateLogSessions(); err != nil {
		return fmt.Errorf("failed to rotate log sessions: %w", err)
	}

	name := time.Now().Format(sessionLayout) + "_" + lm.instanceID[:8]
	lm.sessionDir = filepath.Join(lm.logDir, name)
	if err := os.MkdirAll(lm.sessionDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	return nil
}

// initLogger creates a logger writing to a rotated file and optionally stderr.
func (lm *Manager) initLogger(path string, withStderr bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lm.level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	file, err := openRotator(path, lm.maxLogLines)
	if err != nil {
		return nil, err
	}
	lm.files = append(lm.files, file)

	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.AddSync(file), level)}
	if withStderr {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level))
	}

	return zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// rotateLogSessions removes the oldest sessions beyond maxLogsToKeep, making
// room for the session about to be created.
func (lm *Manager) rotateLogSessions() error {
	sessions, err := filepath.Glob(filepath.Join(lm.logDir, "*"))
	if err != nil {
		return err
	}

	keep := max(lm.maxLogsToKeep-1, 0)
	if len(sessions) <= keep {
		return nil
	}

	modTimes := make(map[string]time.Time, len(sessions))
	for _, session := range sessions {
		if info, err := os.Stat(session); err == nil {
			modTimes[session] = info.ModTime()
		}
	}

	slices.SortFunc(sessions, func(a, b string) int {
		return modTimes[a].Compare(modTimes[b])
	})

	for _, session := range sessions[:len(sessions)-keep] {
		if err := os.RemoveAll(session); err != nil {
			return err
		}
	}

	return nil
}
