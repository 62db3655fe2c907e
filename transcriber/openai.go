package transcriber

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type OpenAI struct {
	client openai.Client
	apiKey string
}

func NewOpenAI(apiKey string, opts ...option.RequestOption) *OpenAI {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAI{
		client: openai.NewClient(opts...),
		apiKey: apiKey,
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Load(context.Context) error {
	if o.apiKey == "" {
		return &ServiceError{Service: o.Name(), Err: fmt.Errorf("missing API key")}
	}
	return nil
}

func (o *OpenAI) Transcribe(ctx context.Context, wavPath, lang string) (string, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return "", &ServiceError{Service: o.Name(), Err: err}
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModelWhisper1,
	}
	if lang != "" {
		params.Language = openai.String(lang)
	}

	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", &ServiceError{Service: o.Name(), Err: err}
	}
	return resp.Text, nil
}
