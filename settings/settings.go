// Package settings persists the user's preferences as a small JSON record.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
)

const FileName = "voiceptt_settings.json"

type Mode string

const (
	ModeCopy  Mode = "copy"
	ModePaste Mode = "paste"
)

var (
	Modes      = []Mode{ModeCopy, ModePaste}
	Hotkeys    = []string{"cmd_r", "cmd_l", "alt_r", "alt_l", "ctrl_r", "ctrl_l"}
	ModelSizes = []string{"tiny", "base", "small", "medium", "large"}
)

type Settings struct {
	Mode        Mode   `json:"mode"`
	Hotkey      string `json:"hotkey"`
	ModelSize   string `json:"model_size"`
	AudioDevice int    `json:"audio_device"`
}

func Defaults() Settings {
	return Settings{
		Mode:        ModeCopy,
		Hotkey:      "cmd_r",
		ModelSize:   "small",
		AudioDevice: 1,
	}
}

// Toggled returns the other output mode.
func (m Mode) Toggled() Mode {
	if m == ModePaste {
		return ModeCopy
	}
	return ModePaste
}

func (m Mode) Upper() string { return strings.ToUpper(string(m)) }

// ConfigError reports one persisted field that was absent or malformed and
// has been replaced by its default.
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("settings: field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("settings: field %q = %s: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("settings: cannot persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

var (
	errMissing    = fmt.Errorf("missing")
	errWrongType  = fmt.Errorf("wrong type")
	errOutOfRange = fmt.Errorf("not an allowed value")
)

// Load reads the record at path. It never fails: every field that is absent
// or malformed falls back to its default, and each such field is reported in
// the returned slice so the caller can log it.
func Load(path string) (Settings, []*ConfigError) {
	s := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, []*ConfigError{{Field: "*", Err: err}}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return s, []*ConfigError{{Field: "*", Err: err}}
	}

	var problems []*ConfigError
	report := func(field string, err error) {
		problems = append(problems, &ConfigError{Field: field, Value: string(raw[field]), Err: err})
	}

	if v, err := enumField(raw, "mode", []string{string(ModeCopy), string(ModePaste)}); err != nil {
		report("mode", err)
	} else {
		s.Mode = Mode(v)
	}
	if v, err := enumField(raw, "hotkey", Hotkeys); err != nil {
		report("hotkey", err)
	} else {
		s.Hotkey = v
	}
	if v, err := enumField(raw, "model_size", ModelSizes); err != nil {
		report("model_size", err)
	} else {
		s.ModelSize = v
	}
	if v, err := intField(raw, "audio_device"); err != nil {
		report("audio_device", err)
	} else {
		s.AudioDevice = v
	}

	return s, problems
}

func enumField(raw map[string]json.RawMessage, key string, allowed []string) (string, error) {
	msg, ok := raw[key]
	if !ok {
		return "", errMissing
	}
	var v string
	if err := json.Unmarshal(msg, &v); err != nil {
		return "", errWrongType
	}
	if !slices.Contains(allowed, v) {
		return "", errOutOfRange
	}
	return v, nil
}

func intField(raw map[string]json.RawMessage, key string) (int, error) {
	msg, ok := raw[key]
	if !ok {
		return 0, errMissing
	}
	var v int
	if err := json.Unmarshal(msg, &v); err != nil {
		return 0, errWrongType
	}
	if v < 0 {
		return 0, errOutOfRange
	}
	return v, nil
}

// Save rewrites the whole record. The new content is written next to the
// target and renamed over it, so a reader never sees a partial record.
func Save(path string, s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	data = append(data, '\n')

	pathNew := path + ".new"
	f, err := os.OpenFile(pathNew, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return &PersistenceError{Path: path, Err: fmt.Errorf("unable to open '%s': %w", pathNew, err)}
	}
	_, err = f.Write(data)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(pathNew)
		return &PersistenceError{Path: path, Err: fmt.Errorf("unable to write '%s': %w", pathNew, err)}
	}
	if err := os.Rename(pathNew, path); err != nil {
		return &PersistenceError{Path: path, Err: fmt.Errorf("cannot move '%s' to '%s': %w", pathNew, path, err)}
	}
	return nil
}
