package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"zentimer/internal/core/model"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	Volume            *float64 `yaml:"volume,omitempty" validate:"omitempty,gte=0,lte=1"`
	SnoozeSeconds     int      `yaml:"snooze_seconds,omitempty" validate:"omitempty,gte=5,lte=3600"`
	Store             string   `yaml:"store,omitempty" validate:"omitempty,oneof=badger file memory"`
	DataDir           string   `yaml:"data_dir,omitempty"`
	LogLevel          string   `yaml:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn error"`
	PersistDebounceMs int      `yaml:"persist_debounce_ms,omitempty" validate:"omitempty,gte=10,lte=5000"`
	TickIntervalMs    int      `yaml:"tick_interval_ms,omitempty" validate:"omitempty,gte=10,lte=1000"`
	AlarmCommand      string   `yaml:"alarm_command,omitempty"`
}

var settingsValidator = validator.New()

// LoadSettings reads user preferences from YAML.
// If the config file does not exist, default settings are returned.
func LoadSettings(appName string) (model.Settings, error) {
	settings := model.DefaultSettings()
	configPath, err := resolveConfigPath(appName)
	if err != nil {
		return settings, err
	}

	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes user preferences to YAML.
func SaveSettings(appName string, settings model.Settings) error {
	configPath, err := resolveConfigPath(appName)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	volume := settings.Volume
	fileData := yamlSettings{
		Volume:            &volume,
		SnoozeSeconds:     int(settings.Snooze / time.Second),
		Store:             settings.Store,
		DataDir:           settings.DataDir,
		LogLevel:          settings.LogLevel,
		PersistDebounceMs: int(settings.PersistDebounce / time.Millisecond),
		TickIntervalMs:    int(settings.TickInterval / time.Millisecond),
		AlarmCommand:      settings.AlarmCommand,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(configPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// DataDir returns the directory holding the timer store.
func DataDir(appName string, settings model.Settings) (string, error) {
	if settings.DataDir != "" {
		return settings.DataDir, nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, "data"), nil
}

func resolveConfigPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

// applyYamlSettings copies every field that passes validation; invalid
// fields keep their defaults.
func applyYamlSettings(settings *model.Settings, fileData yamlSettings) {
	valid := func(field string) bool {
		return settingsValidator.StructPartial(fileData, field) == nil
	}

	if fileData.Volume != nil && valid("Volume") {
		settings.Volume = *fileData.Volume
	}
	if fileData.SnoozeSeconds > 0 && valid("SnoozeSeconds") {
		settings.Snooze = time.Duration(fileData.SnoozeSeconds) * time.Second
	}
	if fileData.Store != "" && valid("Store") {
		settings.Store = fileData.Store
	}
	if fileData.LogLevel != "" && valid("LogLevel") {
		settings.LogLevel = fileData.LogLevel
	}
	if fileData.PersistDebounceMs > 0 && valid("PersistDebounceMs") {
		settings.PersistDebounce = time.Duration(fileData.PersistDebounceMs) * time.Millisecond
	}
	if fileData.TickIntervalMs > 0 && valid("TickIntervalMs") {
		settings.TickInterval = time.Duration(fileData.TickIntervalMs) * time.Millisecond
	}

	settings.DataDir = fileData.DataDir
	settings.AlarmCommand = fileData.AlarmCommand
}
