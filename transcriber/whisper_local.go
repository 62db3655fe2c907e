package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"voiceptt/log"
)

const modelBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

var modelFiles = map[string]string{
	"tiny":   "ggml-tiny.bin",
	"base":   "ggml-base.bin",
	"small":  "ggml-small.bin",
	"medium": "ggml-medium.bin",
	"large":  "ggml-large-v3.bin",
}

var binaryNames = []string{"whisper-cli", "whisper-cpp", "whisper", "main"}

// WhisperLocal runs the whisper.cpp command line tool on the recorded file.
type WhisperLocal struct {
	modelSize string
	modelPath string
	binPath   string

	mu    sync.Mutex
	ready bool
}

func NewWhisperLocal(cfg Config) (*WhisperLocal, error) {
	if cfg.ModelSize == "" {
		cfg.ModelSize = "small"
	}
	file, ok := modelFiles[cfg.ModelSize]
	if !ok {
		return nil, fmt.Errorf("invalid model size: %s", cfg.ModelSize)
	}
	if cfg.ModelDir == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("model dir: %w", err)
		}
		cfg.ModelDir = filepath.Join(cache, "voiceptt", "models")
	}
	return &WhisperLocal{
		modelSize: cfg.ModelSize,
		modelPath: filepath.Join(cfg.ModelDir, file),
		binPath:   cfg.BinPath,
	}, nil
}

func (w *WhisperLocal) Name() string { return "whisper-local/" + w.modelSize }

func (w *WhisperLocal) ModelPath() string { return w.modelPath }

// Load locates the whisper.cpp binary and downloads the model on first use.
func (w *WhisperLocal) Load(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ready {
		return nil
	}

	if w.binPath == "" {
		w.binPath = findWhisperBinary()
	}
	if w.binPath == "" {
		return &ServiceError{Service: w.Name(), Err: fmt.Errorf("whisper.cpp binary not found (tried %s)", strings.Join(binaryNames, ", "))}
	}

	if _, err := os.Stat(w.modelPath); err != nil {
		log.Infof("model %s not found, downloading", w.modelPath)
		start := time.Now()
		if err := downloadModel(ctx, modelBaseURL+filepath.Base(w.modelPath), w.modelPath); err != nil {
			return &ServiceError{Service: w.Name(), Err: fmt.Errorf("download model: %w", err)}
		}
		log.Infof("model downloaded in %s", time.Since(start).Round(time.Second))
	}

	w.ready = true
	return nil
}

func (w *WhisperLocal) Transcribe(ctx context.Context, wavPath, lang string) (string, error) {
	w.mu.Lock()
	ready, bin := w.ready, w.binPath
	w.mu.Unlock()
	if !ready {
		return "", &ServiceError{Service: w.Name(), Err: fmt.Errorf("model not loaded")}
	}

	prefix := strings.TrimSuffix(wavPath, filepath.Ext(wavPath))
	outPath := prefix + ".json"
	defer os.Remove(outPath)

	args := []string{
		"-m", w.modelPath,
		"-f", wavPath,
		"-oj",
		"-of", prefix,
		"--no-prints",
	}
	if lang != "" {
		args = append(args, "-l", lang)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &ServiceError{Service: w.Name(), Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))}
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return "", &ServiceError{Service: w.Name(), Err: fmt.Errorf("read output: %w", err)}
	}
	text, err := parseWhisperOutput(data)
	if err != nil {
		return "", &ServiceError{Service: w.Name(), Err: err}
	}
	return text, nil
}

type whisperCppOutput struct {
	Transcription []struct {
		Text string `json:"text"`
	} `json:"transcription"`
}

// nonSpeech matches segments made only of annotations such as
// [BLANK_AUDIO], [MUSIC] or (silence).
var nonSpeech = regexp.MustCompile(`^(?:\s*(?:\[[^\]]*\]|\([^)]*\)|\*[^*]*\*))+\s*$`)

func parseWhisperOutput(data []byte) (string, error) {
	var out whisperCppOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("parse output: %w", err)
	}
	var b strings.Builder
	for _, seg := range out.Transcription {
		if nonSpeech.MatchString(seg.Text) {
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String(), nil
}

func findWhisperBinary() string {
	for _, name := range binaryNames {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	homeDir, _ := os.UserHomeDir()
	locations := []string{
		"/opt/homebrew/bin",
		"/usr/local/bin",
		filepath.Join(homeDir, ".local", "bin"),
		filepath.Join(homeDir, "whisper.cpp", "build", "bin"),
	}
	for _, loc := range locations {
		for _, name := range binaryNames {
			path := filepath.Join(loc, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

func downloadModel(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http status: %d", resp.StatusCode)
	}

	tmpPath := dest + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, dest)
}
