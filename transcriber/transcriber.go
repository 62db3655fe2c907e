package transcriber

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/openai/openai-go/v3/option"
)

// Transcriber turns a mono 16 kHz WAV file into text. Load must succeed
// before Transcribe is called. Transcribe has no timeout of its own.
type Transcriber interface {
	Name() string
	Load(ctx context.Context) error
	Transcribe(ctx context.Context, wavPath, lang string) (string, error)
}

// ServiceError wraps every failure reported by a transcription backend.
type ServiceError struct {
	Service string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Download    time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

const (
	BackendLocal  = "local"
	BackendGroq   = "groq"
	BackendOpenAI = "openai"
)

var Backends = []string{BackendLocal, BackendGroq, BackendOpenAI}

type Config struct {
	Backend   string
	ModelSize string
	ModelDir  string
	BinPath   string
}

// Factory builds a transcriber for a model size. The orchestrator calls it
// again whenever the user picks another model.
type Factory func(modelSize string) (Transcriber, error)

// NewFactory binds backend options; API keys come from the environment.
func NewFactory(cfg Config) (Factory, error) {
	switch cfg.Backend {
	case "", BackendLocal:
		return func(size string) (Transcriber, error) {
			c := cfg
			c.ModelSize = size
			return NewWhisperLocal(c)
		}, nil
	case BackendGroq:
		key := os.Getenv("GROQ_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("set GROQ_API_KEY environment variable")
		}
		return func(string) (Transcriber, error) { return NewGroq(key), nil }, nil
	case BackendOpenAI:
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("set OPENAI_API_KEY environment variable")
		}
		client := NewTracedClient()
		return func(string) (Transcriber, error) {
			return NewOpenAI(key, option.WithHTTPClient(client.HTTP())), nil
		}, nil
	}
	return nil, fmt.Errorf("unknown backend %q (want one of %v)", cfg.Backend, Backends)
}
