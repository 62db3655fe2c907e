package transcriber

import (
	"context"
	"fmt"
	"os"
	"sync"
)

type FakeCall struct {
	Path  string
	Lang  string
	Bytes int
}

// Fake returns canned text. It records the size of every WAV it was given,
// since callers delete the file afterwards.
type Fake struct {
	Text    string
	Err     error
	LoadErr error

	mu    sync.Mutex
	calls []FakeCall
	loads int
}

func NewFake(text string, err error) *Fake {
	return &Fake{Text: text, Err: err}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Load(context.Context) error {
	f.mu.Lock()
	f.loads++
	f.mu.Unlock()
	if f.LoadErr != nil {
		return &ServiceError{Service: f.Name(), Err: f.LoadErr}
	}
	return nil
}

func (f *Fake) Transcribe(_ context.Context, wavPath, lang string) (string, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return "", &ServiceError{Service: f.Name(), Err: err}
	}

	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Path: wavPath, Lang: lang, Bytes: len(data)})
	text, ferr := f.Text, f.Err
	f.mu.Unlock()

	if ferr != nil {
		return "", &ServiceError{Service: f.Name(), Err: fmt.Errorf("fake transcriber error: %w", ferr)}
	}
	return text, nil
}

func (f *Fake) SetText(text string) {
	f.mu.Lock()
	f.Text = text
	f.mu.Unlock()
}

func (f *Fake) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

func (f *Fake) Loads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}
