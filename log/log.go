package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const FileName = "voiceptt.log"

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
)

// ResolveDir picks the data directory holding the log, the settings record
// and the transcript journal.
func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -datadir flag
	if flagPath != "" {
		return absFromWd(flagPath)
	}

	// Priority 2: VOICEPTT_DATA_DIR environment variable
	if envPath := os.Getenv("VOICEPTT_DATA_DIR"); envPath != "" {
		return absFromWd(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absFromWd(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error
	diagFile, err = os.OpenFile(filepath.Join(dir, FileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	diagLog.Info().Msg("VoicePTT app starting up")
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(backend, model, mode, hotkey string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("backend", backend).
		Str("model", model).
		Str("mode", mode).
		Str("hotkey", hotkey).
		Msg("session_start")
}

func SessionEnd(count int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("count", count).
		Msg("session_end")
}

func ModelLoaded(backend, model string, took time.Duration) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("backend", backend).
		Str("model", model).
		Float64("load_ms", float64(took.Milliseconds())).
		Msg("model_loaded")
}

func Transcription(chars int, mode string, audio, took time.Duration) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("chars", chars).
		Str("mode", mode).
		Float64("audio_s", audio.Seconds()).
		Float64("total_ms", float64(took.Milliseconds())).
		Msg("transcription")
}

func Cancelled(reason string) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Str("reason", reason).
		Msg("cancelled")
}

func SettingChanged(field, value string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("field", field).
		Str("value", value).
		Msg("setting_changed")
}
