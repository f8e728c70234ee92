package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"systemrepair/internal/config"
)

// LogFileName is the file created on the user's Desktop for every run.
const LogFileName = "repair_tool_log.txt"

// EnterpriseLogger пишет журнал выполнения в файл и, при необходимости, в консоль.
type EnterpriseLogger struct {
	logger *zap.SugaredLogger
	level  zapcore.Level
	file   *os.File
	path   string
}

// NewEnterpriseLogger opens cfg.Logging.File and returns a logger writing to it.
// The file is truncated at startup unless logging.append is set; every record
// after that is appended. Records at ERROR and above always reach stdout,
// everything else only with verbose.
func NewEnterpriseLogger(cfg *config.Config, verbose bool) (*EnterpriseLogger, error) {
	level, err := parseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	l := &EnterpriseLogger{level: level}

	consoleLevel := zapcore.ErrorLevel
	if verbose {
		consoleLevel = level
	}
	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(), zapcore.Lock(zapcore.AddSync(os.Stdout)), consoleLevel),
	}

	if cfg.Logging.File != "" {
		f, err := openLogFile(cfg.Logging.File, cfg.Logging.Append)
		if err != nil {
			// Если не можем открыть файл логов, используем stdout
			fmt.Printf("[WARN] Could not open log file %s: %v\n", cfg.Logging.File, err)
			fmt.Printf("[WARN] Log records will go to stdout\n")
			cores[0] = zapcore.NewCore(newEncoder(), zapcore.Lock(zapcore.AddSync(os.Stdout)), level)
		} else {
			l.file = f
			l.path = cfg.Logging.File
			cores = append(cores, zapcore.NewCore(newEncoder(), zapcore.AddSync(f), level))
		}
	}

	l.logger = zap.New(zapcore.NewTee(cores...)).Sugar()
	return l, nil
}

// NewWithWriter builds a logger that writes every record at or above level to w.
func NewWithWriter(w io.Writer, level string) (*EnterpriseLogger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(newEncoder(), zapcore.AddSync(w), lvl)
	return &EnterpriseLogger{logger: zap.New(core).Sugar(), level: lvl}, nil
}

// Nop returns a logger that discards everything.
func Nop() *EnterpriseLogger {
	return &EnterpriseLogger{logger: zap.NewNop().Sugar(), level: zapcore.InfoLevel}
}

// Log записывает сообщение с уровнем и парами ключ/значение.
func (l *EnterpriseLogger) Log(level, message string, fields ...interface{}) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		l.logger.Debugw(message, fields...)
	case "INFO":
		l.logger.Infow(message, fields...)
	case "WARN", "WARNING":
		l.logger.Warnw(message, fields...)
	case "ERROR":
		l.logger.Errorw(message, fields...)
	case "FATAL", "CRITICAL":
		// Never exits: the caller decides how the process ends.
		l.logger.Errorw(message, append([]interface{}{"severity", "FATAL"}, fields...)...)
	default:
		l.logger.Infow(message, fields...)
	}
}

// Path returns the log file path, or "" when logging to stdout only.
func (l *EnterpriseLogger) Path() string {
	return l.path
}

func (l *EnterpriseLogger) Close() error {
	_ = l.logger.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func openLogFile(path string, appendMode bool) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if !appendMode {
		flags |= os.O_TRUNC
	}
	return os.OpenFile(path, flags, 0644)
}

// newEncoder renders "2006-01-02 15:04:05 - LEVEL - message {fields}".
func newEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " - ",
	})
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel, nil
	case "", "INFO":
		return zapcore.InfoLevel, nil
	case "WARN", "WARNING":
		return zapcore.WarnLevel, nil
	case "ERROR":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}
