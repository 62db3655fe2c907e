package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecord(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	s, problems := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Equal(t, Defaults(), s)
	assert.Empty(t, problems)
}

func TestLoadDefaultsPerField(t *testing.T) {
	full := Settings{Mode: ModePaste, Hotkey: "alt_l", ModelSize: "tiny", AudioDevice: 3}

	for _, tc := range []struct {
		name    string
		content string
		want    Settings
		field   string
	}{
		{
			name:    "no mode",
			content: `{"hotkey":"alt_l","model_size":"tiny","audio_device":3}`,
			want:    Settings{Mode: ModeCopy, Hotkey: "alt_l", ModelSize: "tiny", AudioDevice: 3},
			field:   "mode",
		},
		{
			name:    "no hotkey",
			content: `{"mode":"paste","model_size":"tiny","audio_device":3}`,
			want:    Settings{Mode: ModePaste, Hotkey: "cmd_r", ModelSize: "tiny", AudioDevice: 3},
			field:   "hotkey",
		},
		{
			name:    "no model",
			content: `{"mode":"paste","hotkey":"alt_l","audio_device":3}`,
			want:    Settings{Mode: ModePaste, Hotkey: "alt_l", ModelSize: "small", AudioDevice: 3},
			field:   "model_size",
		},
		{
			name:    "no device",
			content: `{"mode":"paste","hotkey":"alt_l","model_size":"tiny"}`,
			want:    Settings{Mode: ModePaste, Hotkey: "alt_l", ModelSize: "tiny", AudioDevice: 1},
			field:   "audio_device",
		},
		{
			name:    "device wrong type",
			content: `{"mode":"paste","hotkey":"alt_l","model_size":"tiny","audio_device":"two"}`,
			want:    Settings{Mode: ModePaste, Hotkey: "alt_l", ModelSize: "tiny", AudioDevice: 1},
			field:   "audio_device",
		},
		{
			name:    "unknown hotkey",
			content: `{"mode":"paste","hotkey":"f13","model_size":"tiny","audio_device":3}`,
			want:    Settings{Mode: ModePaste, Hotkey: "cmd_r", ModelSize: "tiny", AudioDevice: 3},
			field:   "hotkey",
		},
		{
			name:    "unknown mode",
			content: `{"mode":"type","hotkey":"alt_l","model_size":"tiny","audio_device":3}`,
			want:    Settings{Mode: ModeCopy, Hotkey: "alt_l", ModelSize: "tiny", AudioDevice: 3},
			field:   "mode",
		},
		{
			name:    "complete",
			content: `{"mode":"paste","hotkey":"alt_l","model_size":"tiny","audio_device":3,"extra":true}`,
			want:    full,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s, problems := Load(writeRecord(t, tc.content))
			assert.Equal(t, tc.want, s)
			if tc.field == "" {
				assert.Empty(t, problems)
				return
			}
			require.Len(t, problems, 1)
			assert.Equal(t, tc.field, problems[0].Field)
		})
	}
}

func TestLoadGarbage(t *testing.T) {
	s, problems := Load(writeRecord(t, "{not json"))
	assert.Equal(t, Defaults(), s)
	require.Len(t, problems, 1)

	var cfgErr *ConfigError
	assert.True(t, errors.As(problems[0], &cfgErr))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	want := Settings{Mode: ModePaste, Hotkey: "ctrl_r", ModelSize: "medium", AudioDevice: 0}

	require.NoError(t, Save(path, want))
	got, problems := Load(path)
	assert.Empty(t, problems)
	assert.Equal(t, want, got)

	require.NoError(t, Save(path, got))
	again, _ := Load(path)
	assert.Equal(t, want, again)

	_, err := os.Stat(path + ".new")
	assert.True(t, os.IsNotExist(err), "temporary file left behind")
}

func TestSaveOverwritesWholeRecord(t *testing.T) {
	path := writeRecord(t, `{"mode":"paste","hotkey":"alt_l","model_size":"tiny","audio_device":3,"legacy":"x"}`)

	require.NoError(t, Save(path, Defaults()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "legacy")
	assert.Contains(t, string(data), `"model_size": "small"`)
}

func TestSaveFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", FileName)
	err := Save(path, Defaults())
	require.Error(t, err)

	var perr *PersistenceError
	assert.True(t, errors.As(err, &perr))
}

func TestModeToggled(t *testing.T) {
	assert.Equal(t, ModePaste, ModeCopy.Toggled())
	assert.Equal(t, ModeCopy, ModePaste.Toggled())
	assert.Equal(t, "PASTE", ModePaste.Upper())
}
