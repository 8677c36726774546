package tts

import (
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// LoadConfigFromViper loads TTS configuration from Viper.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("tts.engine") {
		cfg.Engine = viper.GetString("tts.engine")
	}
	if viper.IsSet("tts.default_language") {
		cfg.DefaultLanguage = viper.GetString("tts.default_language")
	}

	// Speech parameters
	if viper.IsSet("tts.rate") {
		cfg.Rate = viper.GetFloat64("tts.rate")
	}
	if viper.IsSet("tts.volume") {
		cfg.Volume = viper.GetFloat64("tts.volume")
	}
	if viper.IsSet("tts.pitch") {
		cfg.Pitch = viper.GetFloat64("tts.pitch")
	}

	// Result reporting
	if viper.IsSet("tts.await_speak_completion") {
		cfg.AwaitSpeakCompletion = viper.GetBool("tts.await_speak_completion")
	}
	if viper.IsSet("tts.await_synth_completion") {
		cfg.AwaitSynthCompletion = viper.GetBool("tts.await_synth_completion")
	}
	if viper.IsSet("tts.auto_stop_shared_session") {
		cfg.AutoStopSharedSession = viper.GetBool("tts.auto_stop_shared_session")
	}

	// Playback
	if viper.IsSet("tts.pause_boundary") {
		cfg.PauseBoundary = viper.GetString("tts.pause_boundary")
	}
	if viper.IsSet("tts.output_dir") {
		cfg.OutputDir = expandPath(viper.GetString("tts.output_dir"))
	}
	if viper.IsSet("tts.voices") {
		cfg.Voices = viper.GetStringMapString("tts.voices")
	}

	cfg.Audio = loadAudioConfig(cfg.Audio)
	cfg.Piper = loadPiperConfig()
	cfg.Mock = loadMockConfig()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid TTS configuration: %w", err)
	}

	return cfg, nil
}

func loadAudioConfig(cfg AudioConfig) AudioConfig {
	if viper.IsSet("tts.audio.category") {
		cfg.Category = viper.GetString("tts.audio.category")
	}
	if viper.IsSet("tts.audio.options") {
		cfg.Options = viper.GetStringSlice("tts.audio.options")
	}
	if viper.IsSet("tts.audio.mode") {
		cfg.Mode = viper.GetString("tts.audio.mode")
	}
	return cfg
}

// loadPiperConfig loads Piper-specific configuration from Viper.
func loadPiperConfig() PiperConfig {
	cfg := DefaultPiperConfig()

	if viper.IsSet("tts.piper.binary") {
		cfg.Binary = expandPath(viper.GetString("tts.piper.binary"))
	}
	if viper.IsSet("tts.piper.model_dir") {
		cfg.ModelDir = expandPath(viper.GetString("tts.piper.model_dir"))
	}
	if viper.IsSet("tts.piper.sample_rate") {
		cfg.SampleRate = viper.GetInt("tts.piper.sample_rate")
	}
	if viper.IsSet("tts.piper.timeout") {
		if d, err := time.ParseDuration(viper.GetString("tts.piper.timeout")); err == nil {
			cfg.Timeout = d
		}
	}
	if viper.IsSet("tts.piper.cache_dir") {
		cfg.CacheDir = expandPath(viper.GetString("tts.piper.cache_dir"))
	}
	if viper.IsSet("tts.piper.cache_size") {
		cfg.CacheSize = viper.GetInt("tts.piper.cache_size")
	}

	return cfg
}

// loadMockConfig loads mock engine configuration from Viper.
func loadMockConfig() MockConfig {
	cfg := DefaultMockConfig()

	if viper.IsSet("tts.mock.words_per_minute") {
		cfg.WordsPerMinute = viper.GetInt("tts.mock.words_per_minute")
	}
	if viper.IsSet("tts.mock.auto_play") {
		cfg.AutoPlay = viper.GetBool("tts.mock.auto_play")
	}

	return cfg
}

func expandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

// SetDefaults registers the TTS defaults with Viper.
func SetDefaults() {
	cfg := DefaultConfig()

	viper.SetDefault("tts.engine", cfg.Engine)
	viper.SetDefault("tts.default_language", cfg.DefaultLanguage)
	viper.SetDefault("tts.rate", cfg.Rate)
	viper.SetDefault("tts.volume", cfg.Volume)
	viper.SetDefault("tts.pitch", cfg.Pitch)
	viper.SetDefault("tts.await_speak_completion", cfg.AwaitSpeakCompletion)
	viper.SetDefault("tts.await_synth_completion", cfg.AwaitSynthCompletion)
	viper.SetDefault("tts.auto_stop_shared_session", cfg.AutoStopSharedSession)
	viper.SetDefault("tts.pause_boundary", cfg.PauseBoundary)

	viper.SetDefault("tts.audio.category", cfg.Audio.Category)
	viper.SetDefault("tts.audio.mode", cfg.Audio.Mode)

	viper.SetDefault("tts.piper.binary", cfg.Piper.Binary)
	viper.SetDefault("tts.piper.model_dir", cfg.Piper.ModelDir)
	viper.SetDefault("tts.piper.sample_rate", cfg.Piper.SampleRate)
	viper.SetDefault("tts.piper.timeout", cfg.Piper.Timeout.String())
	viper.SetDefault("tts.piper.cache_size", cfg.Piper.CacheSize)

	viper.SetDefault("tts.mock.words_per_minute", cfg.Mock.WordsPerMinute)
	viper.SetDefault("tts.mock.auto_play", cfg.Mock.AutoPlay)
}
