package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"voiceptt/log"
)

const (
	groqURL   = "https://api.groq.com/openai/v1/audio/transcriptions"
	groqModel = "whisper-large-v3-turbo"

	// Segments above this no-speech probability are dropped.
	noSpeechThreshold = 0.8
)

type Groq struct {
	client *TracedClient
	apiURL string
	apiKey string
}

func NewGroq(apiKey string) *Groq {
	return &Groq{
		client: NewTracedClient(),
		apiURL: groqURL,
		apiKey: apiKey,
	}
}

func (g *Groq) Name() string { return "groq" }

// Load warms the TLS connection so the first dictation is not slower than
// the rest.
func (g *Groq) Load(ctx context.Context) error {
	if g.apiKey == "" {
		return &ServiceError{Service: g.Name(), Err: fmt.Errorf("missing API key")}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, g.apiURL, nil)
	if err != nil {
		return &ServiceError{Service: g.Name(), Err: err}
	}
	if d := g.client.WarmConnection(req); d > 0 {
		log.Infof("groq connection warmed (tls %dms)", d.Milliseconds())
	}
	return nil
}

type groqResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Text         string  `json:"text"`
		NoSpeechProb float64 `json:"no_speech_prob"`
	} `json:"segments"`
}

func (g *Groq) Transcribe(ctx context.Context, wavPath, lang string) (string, error) {
	text, err := g.transcribe(ctx, wavPath, lang)
	if err != nil {
		return "", &ServiceError{Service: g.Name(), Err: err}
	}
	return text, nil
}

func (g *Groq) transcribe(ctx context.Context, wavPath, lang string) (string, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}

	writer.WriteField("model", groqModel)
	writer.WriteField("response_format", "verbose_json")
	if lang != "" {
		writer.WriteField("language", lang)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, &body)
	if err != nil {
		return "", err
	}

	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var gResp groqResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return "", fmt.Errorf("response parse error: %w", err)
	}

	m := resp.Metrics
	log.Infof("groq: ttfb=%dms total=%dms reused=%v ratelimit=%s/%s",
		m.TTFB.Milliseconds(), m.Total.Milliseconds(), m.ConnReused,
		firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests"),
		firstNonEmpty(resp.Header, "x-ratelimit-limit-requests"))

	return speechText(gResp), nil
}

// speechText drops segments whisper marks as probable silence. Without
// segment data the plain text is used.
func speechText(r groqResponse) string {
	if len(r.Segments) == 0 {
		return r.Text
	}
	var b strings.Builder
	for _, seg := range r.Segments {
		if seg.NoSpeechProb > noSpeechThreshold {
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}
