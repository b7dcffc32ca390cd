// Package config loads settings from config.yaml, .env files and MURMUR_*
// environment variables, in increasing order of precedence. Command-line
// flags are applied last as overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"murmur/audio"
	"murmur/hotkey"
	"murmur/inject"
	"murmur/ptt"
	"murmur/transcriber"
)

const envPrefix = "MURMUR"

type Config struct {
	Trigger string `mapstructure:"trigger" validate:"required"`
	ExitKey string `mapstructure:"exit_key" validate:"required"`
	Input   Input  `mapstructure:"input"`
	Audio   Audio  `mapstructure:"audio"`
	Timing  Timing `mapstructure:"timing"`
	Engine  Engine `mapstructure:"engine"`
	Inject  Inject `mapstructure:"inject"`
	UI      UI     `mapstructure:"ui"`

	file string
}

type Input struct {
	Backend string `mapstructure:"backend" validate:"oneof=evdev hook register"`
}

type Audio struct {
	Device     string `mapstructure:"device"`
	SampleRate int    `mapstructure:"sample_rate" validate:"oneof=8000 16000 22050 24000 44100 48000"`
	ChunkMS    int    `mapstructure:"chunk_ms" validate:"min=10,max=1000"`
}

type Timing struct {
	GraceMS     int `mapstructure:"grace_ms" validate:"min=0,max=5000"`
	HoldMS      int `mapstructure:"hold_ms" validate:"min=0,max=10000"`
	SettleMS    int `mapstructure:"settle_ms" validate:"min=0,max=2000"`
	CharDelayMS int `mapstructure:"char_delay_ms" validate:"min=0,max=500"`
}

type Engine struct {
	Provider string `mapstructure:"provider" validate:"oneof=groq openai fake"`
	Model    string `mapstructure:"model"`
	Language string `mapstructure:"language" validate:"omitempty,alpha,min=2,max=3"`
	BaseURL  string `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey   string `mapstructure:"api_key"`
	TimeoutS int    `mapstructure:"timeout_s" validate:"min=1,max=600"`
}

type Inject struct {
	Mode string `mapstructure:"mode" validate:"oneof=type paste"`
}

type UI struct {
	Mode string `mapstructure:"mode" validate:"oneof=tui log gui"`
	Beep bool   `mapstructure:"beep"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("trigger", "ctrl_r")
	v.SetDefault("exit_key", "esc")
	v.SetDefault("input.backend", hotkey.DefaultBackend)
	v.SetDefault("audio.device", "")
	v.SetDefault("audio.sample_rate", audio.DefaultSampleRate)
	v.SetDefault("audio.chunk_ms", int(audio.DefaultChunk/time.Millisecond))
	v.SetDefault("timing.grace_ms", int(ptt.DefaultGrace/time.Millisecond))
	v.SetDefault("timing.hold_ms", int(ptt.DefaultHold/time.Millisecond))
	v.SetDefault("timing.settle_ms", int(inject.DefaultSettle/time.Millisecond))
	v.SetDefault("timing.char_delay_ms", int(inject.DefaultCharDelay/time.Millisecond))
	v.SetDefault("engine.provider", "groq")
	v.SetDefault("engine.model", "")
	v.SetDefault("engine.language", "")
	v.SetDefault("engine.base_url", "")
	v.SetDefault("engine.api_key", "")
	v.SetDefault("engine.timeout_s", int(ptt.DefaultTimeout/time.Second))
	v.SetDefault("inject.mode", "type")
	v.SetDefault("ui.mode", "tui")
	v.SetDefault("ui.beep", true)
}

// Dir is where config.yaml is looked up after the working directory.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "murmur")
}

// Load reads configuration. An explicit path must exist; otherwise
// config.yaml is optional. overrides are keyed like the file
// ("audio.device") and win over every other source.
func Load(path string, overrides map[string]any) (*Config, error) {
	loadDotenv(path)

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir := Dir(); dir != "" {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	for k, val := range overrides {
		v.Set(k, val)
	}

	cfg := &Config{file: v.ConfigFileUsed()}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotenv loads .env from the working directory and from next to the
// config file. Variables already set in the environment are kept.
func loadDotenv(path string) {
	candidates := []string{".env"}
	if path != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(path), ".env"))
	} else if dir := Dir(); dir != "" {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})
	return v
}

// Validate checks field ranges and that both keys parse and differ.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("config: %w", err)
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, describe(fe))
		}
		return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
	}
	trigger, exit, err := c.Keys()
	if err != nil {
		return err
	}
	if trigger.Matches(exit) {
		return fmt.Errorf("config: trigger and exit_key are both %s", trigger)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	// Namespace is "Config.audio.sample_rate"; drop the type name.
	name := fe.Namespace()
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", name, fe.Param(), fe.Value())
	case "min", "max":
		return fmt.Sprintf("%s must be %s %s, got %v", name, map[string]string{"min": ">=", "max": "<="}[fe.Tag()], fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s is invalid (%s), got %v", name, fe.Tag(), fe.Value())
}

func (c *Config) Keys() (trigger, exit hotkey.Key, err error) {
	trigger, err = hotkey.ParseKey(c.Trigger)
	if err != nil {
		return trigger, exit, fmt.Errorf("config: trigger: %w", err)
	}
	exit, err = hotkey.ParseKey(c.ExitKey)
	if err != nil {
		return trigger, exit, fmt.Errorf("config: exit_key: %w", err)
	}
	return trigger, exit, nil
}

func (c *Config) PTT() ptt.Config {
	trigger, exit, _ := c.Keys()
	return ptt.Config{
		Trigger:    trigger,
		Exit:       exit,
		SampleRate: c.Audio.SampleRate,
		Language:   c.Engine.Language,
		Grace:      ms(c.Timing.GraceMS),
		Hold:       ms(c.Timing.HoldMS),
		Timeout:    time.Duration(c.Engine.TimeoutS) * time.Second,
	}
}

func (c *Config) Capture() audio.CaptureConfig {
	return audio.CaptureConfig{
		SampleRate:    uint32(c.Audio.SampleRate),
		ChunkDuration: ms(c.Audio.ChunkMS),
	}
}

func (c *Config) Transcriber() transcriber.Config {
	return transcriber.Config{
		Provider: c.Engine.Provider,
		Model:    c.Engine.Model,
		BaseURL:  c.Engine.BaseURL,
		APIKey:   c.Engine.APIKey,
		Timeout:  time.Duration(c.Engine.TimeoutS) * time.Second,
	}
}

func (c *Config) InjectOptions() inject.Options {
	return inject.Options{
		Mode:      c.Inject.Mode,
		Settle:    ms(c.Timing.SettleMS),
		CharDelay: ms(c.Timing.CharDelayMS),
	}
}

// File is the config file that was read, or "".
func (c *Config) File() string { return c.file }

// SaveDevice remembers the chosen input device in the config file in use,
// creating one under Dir when none was read. Only audio.device is written
// on top of what the file already holds, so keys from the environment stay
// out of it.
func (c *Config) SaveDevice(name string) (string, error) {
	path := c.file
	if path == "" {
		dir := Dir()
		if dir == "" {
			return "", errors.New("config: no user config directory")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("config: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}

	w := viper.New()
	w.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := w.ReadInConfig(); err != nil {
			return "", fmt.Errorf("config %s: %w", path, err)
		}
	}
	w.Set("audio.device", name)
	if err := w.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("config: %w", err)
	}
	c.Audio.Device = name
	c.file = path
	return path, nil
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
