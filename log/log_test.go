package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/voiceptt-data")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/voiceptt-data" {
		t.Errorf("got %q, want /tmp/voiceptt-data", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("data")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "data")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("VOICEPTT_DATA_DIR", "/tmp/voiceptt-env")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/voiceptt-env" {
		t.Errorf("got %q, want /tmp/voiceptt-env", got)
	}
}

func TestResolveDirFlagBeatsEnv(t *testing.T) {
	t.Setenv("VOICEPTT_DATA_DIR", "/tmp/voiceptt-env")
	got, err := ResolveDir("/tmp/voiceptt-flag")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/voiceptt-flag" {
		t.Errorf("got %q, want /tmp/voiceptt-flag", got)
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("VOICEPTT_DATA_DIR", "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Error("expected non-empty default directory")
	}
}

func TestInitCreatesFile(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(tmp, FileName)); err != nil {
		t.Errorf("%s not created: %v", FileName, err)
	}
}

func TestStructuredEvents(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	Transcription(42, "paste", 2*time.Second, 300*time.Millisecond)
	Cancelled("Key press too short")
	Close()

	data, err := os.ReadFile(filepath.Join(tmp, FileName))
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{"starting up", "transcription", "chars=42", "mode=paste", "cancelled"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q, got:\n%s", want, out)
		}
	}
}

func TestLogBeforeInitIsNoop(t *testing.T) {
	setupLogDir(t)
	Info("dropped")
	Errorf("dropped %d", 1)
	Cancelled("dropped")
}

func TestCloseIdempotent(t *testing.T) {
	setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Close()
	Close() // should not panic
}
