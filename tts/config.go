package tts

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Config contains all TTS configuration options.
type Config struct {
	// Engine selection
	Engine          string `yaml:"engine" env:"LINGO_TTS_ENGINE" envDefault:"mock"`
	DefaultLanguage string `yaml:"default_language" env:"LINGO_TTS_DEFAULT_LANGUAGE" envDefault:"en-US"`

	// Speech parameters applied to the next utterance
	Rate   float64 `yaml:"rate" env:"LINGO_TTS_RATE" envDefault:"0.5"`
	Volume float64 `yaml:"volume" env:"LINGO_TTS_VOLUME" envDefault:"1.0"`
	Pitch  float64 `yaml:"pitch" env:"LINGO_TTS_PITCH" envDefault:"1.0"`

	// Result reporting
	AwaitSpeakCompletion  bool `yaml:"await_speak_completion" env:"LINGO_TTS_AWAIT_SPEAK_COMPLETION" envDefault:"false"`
	AwaitSynthCompletion  bool `yaml:"await_synth_completion" env:"LINGO_TTS_AWAIT_SYNTH_COMPLETION" envDefault:"false"`
	AutoStopSharedSession bool `yaml:"auto_stop_shared_session" env:"LINGO_TTS_AUTO_STOP_SHARED_SESSION" envDefault:"true"`

	// Playback
	PauseBoundary string `yaml:"pause_boundary" env:"LINGO_TTS_PAUSE_BOUNDARY" envDefault:"immediate"`
	OutputDir     string `yaml:"output_dir" env:"LINGO_TTS_OUTPUT_DIR"`

	// Voice overrides applied at startup, language -> voice name
	Voices map[string]string `yaml:"voices"`

	Audio AudioConfig `yaml:"audio"`
	Piper PiperConfig `yaml:"piper"`
	Mock  MockConfig  `yaml:"mock"`
}

// AudioConfig contains the audio session setup applied at startup.
type AudioConfig struct {
	Category string   `yaml:"category" env:"LINGO_TTS_AUDIO_CATEGORY" envDefault:"playback"`
	Options  []string `yaml:"options" env:"LINGO_TTS_AUDIO_OPTIONS"`
	Mode     string   `yaml:"mode" env:"LINGO_TTS_AUDIO_MODE" envDefault:"spokenAudio"`
}

// PiperConfig contains Piper engine specific settings.
type PiperConfig struct {
	Binary     string        `yaml:"binary" env:"LINGO_TTS_PIPER_BINARY" envDefault:"piper"`
	ModelDir   string        `yaml:"model_dir" env:"LINGO_TTS_PIPER_MODEL_DIR"`
	SampleRate int           `yaml:"sample_rate" env:"LINGO_TTS_PIPER_SAMPLE_RATE" envDefault:"22050"`
	Timeout    time.Duration `yaml:"timeout" env:"LINGO_TTS_PIPER_TIMEOUT" envDefault:"30s"`

	// Render cache. A zero size disables the disk tier.
	CacheDir  string `yaml:"cache_dir" env:"LINGO_TTS_PIPER_CACHE_DIR"`
	CacheSize int    `yaml:"cache_size" env:"LINGO_TTS_PIPER_CACHE_SIZE" envDefault:"100"` // MB
}

// MockConfig contains mock engine settings.
type MockConfig struct {
	WordsPerMinute int  `yaml:"words_per_minute" env:"LINGO_TTS_MOCK_WORDS_PER_MINUTE" envDefault:"180"`
	AutoPlay       bool `yaml:"auto_play" env:"LINGO_TTS_MOCK_AUTO_PLAY" envDefault:"true"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	params := DefaultSpeechParams()
	return Config{
		Engine:          "mock",
		DefaultLanguage: "en-US",

		Rate:   params.Rate,
		Volume: params.Volume,
		Pitch:  params.Pitch,

		AutoStopSharedSession: true,
		PauseBoundary:         PauseImmediate.String(),

		Audio: AudioConfig{
			Category: string(CategoryPlayback),
			Mode:     string(ModeSpokenAudio),
		},
		Piper: DefaultPiperConfig(),
		Mock:  DefaultMockConfig(),
	}
}

// DefaultPiperConfig returns default Piper configuration.
func DefaultPiperConfig() PiperConfig {
	cfg := PiperConfig{
		Binary:     "piper",
		SampleRate: 22050,
		Timeout:    30 * time.Second,
		CacheSize:  100,
	}

	// Common model locations
	switch runtime.GOOS {
	case "linux":
		cfg.ModelDir = filepath.Join("/usr", "share", "piper-voices")
	case "darwin":
		cfg.ModelDir = filepath.Join("/usr", "local", "share", "piper-voices")
	}

	return cfg
}

// DefaultMockConfig returns default mock configuration.
func DefaultMockConfig() MockConfig {
	return MockConfig{
		WordsPerMinute: 180,
		AutoPlay:       true,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validEngines := []string{"mock", "piper"}
	engineValid := false
	for _, e := range validEngines {
		if strings.EqualFold(c.Engine, e) {
			engineValid = true
			c.Engine = strings.ToLower(c.Engine)
			break
		}
	}
	if !engineValid {
		return fmt.Errorf("invalid TTS engine '%s': must be one of %v", c.Engine, validEngines)
	}

	if c.DefaultLanguage == "" {
		return fmt.Errorf("default_language cannot be empty")
	}
	if c.Rate < 0 {
		return fmt.Errorf("rate cannot be negative, got %f", c.Rate)
	}
	if err := ValidateVolume(c.Volume); err != nil {
		return err
	}
	if err := ValidatePitch(c.Pitch); err != nil {
		return err
	}
	if _, ok := ParsePauseBoundary(c.PauseBoundary); !ok {
		return fmt.Errorf("invalid pause_boundary '%s': must be immediate or word", c.PauseBoundary)
	}
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	switch c.Engine {
	case "piper":
		if err := c.Piper.Validate(); err != nil {
			return fmt.Errorf("piper config: %w", err)
		}
	case "mock":
		if err := c.Mock.Validate(); err != nil {
			return fmt.Errorf("mock config: %w", err)
		}
	}

	return nil
}

// Validate checks that the category, options and mode are known.
func (c *AudioConfig) Validate() error {
	if _, err := ParseAudioCategory(c.Category); err != nil {
		return err
	}
	if _, err := ParseCategoryOptions(c.Options); err != nil {
		return err
	}
	if _, err := ParseAudioMode(c.Mode); err != nil {
		return err
	}
	return nil
}

// Validate checks if the Piper configuration is valid.
func (c *PiperConfig) Validate() error {
	if c.Binary == "" {
		return fmt.Errorf("piper binary path cannot be empty")
	}
	if c.ModelDir == "" {
		return fmt.Errorf("piper model_dir cannot be empty")
	}
	validSampleRates := []int{16000, 22050, 24000, 44100, 48000}
	sampleRateValid := false
	for _, sr := range validSampleRates {
		if c.SampleRate == sr {
			sampleRateValid = true
			break
		}
	}
	if !sampleRateValid {
		return fmt.Errorf("invalid sample rate %d: must be one of %v", c.SampleRate, validSampleRates)
	}
	if c.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1 second, got %v", c.Timeout)
	}
	if c.CacheSize < 0 || c.CacheSize > 10000 {
		return fmt.Errorf("cache_size must be between 0 and 10000 MB, got %d", c.CacheSize)
	}
	return nil
}

// Validate checks if the mock configuration is valid.
func (c *MockConfig) Validate() error {
	if c.WordsPerMinute < 50 || c.WordsPerMinute > 600 {
		return fmt.Errorf("words_per_minute must be between 50 and 600, got %d", c.WordsPerMinute)
	}
	return nil
}

// Params returns the configured speech parameters.
func (c *Config) Params() SpeechParams {
	return SpeechParams{Rate: c.Rate, Volume: c.Volume, Pitch: c.Pitch}
}

// Boundary returns the configured pause boundary.
func (c *Config) Boundary() PauseBoundary {
	b, _ := ParsePauseBoundary(c.PauseBoundary)
	return b
}
