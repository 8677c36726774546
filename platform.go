package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/internal/cache"
	"github.com/dgnsrekt/lingo/tts"
	"github.com/dgnsrekt/lingo/tts/audio"
	"github.com/dgnsrekt/lingo/tts/engines/mock"
	"github.com/dgnsrekt/lingo/tts/engines/piper"
	gap "github.com/muesli/go-app-paths"
)

const renderMemoryCache = 32 << 20

// speech is a dispatcher together with the file sink synthesized audio is
// written to.
type speech struct {
	*tts.Dispatcher
	files *audio.WAVSink
	cache *cache.Cache
}

// Close shuts the dispatcher down and releases the render cache.
func (s *speech) Close() error {
	err := s.Dispatcher.Close()
	if s.cache != nil {
		err = errors.Join(err, s.cache.Close())
	}
	return err
}

// platform is what newPlatform builds for an engine.
type platform struct {
	tts.Platform
	output *audio.Output // nil when nothing is played
	format audio.Format
	cache  *cache.Cache
}

// newPlatform creates the platform named by cfg.Engine.
func newPlatform(cfg tts.Config) (*platform, error) {
	switch cfg.Engine {
	case "piper":
		return newPiper(cfg.Piper)
	case "mock":
		p := mock.New(
			mock.WithAutoPlay(cfg.Mock.AutoPlay),
			mock.WithWordsPerMinute(cfg.Mock.WordsPerMinute),
		)
		return &platform{Platform: p, format: audio.DefaultFormat}, nil
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.Engine)
	}
}

func newPiper(cfg tts.PiperConfig) (*platform, error) {
	logger := log.WithPrefix("piper")
	if bin := piper.FindBinary(cfg.Binary); bin != "" {
		cfg.Binary = bin
	} else {
		logger.Warn("piper binary not found", "binary", cfg.Binary)
	}

	rc, err := newRenderCache(cfg)
	if err != nil {
		return nil, err
	}

	format := audio.Format{SampleRate: cfg.SampleRate, Channels: 1}
	output := audio.NewOutput(format)
	renderer := piper.CachedRenderer{
		Renderer: piper.Command{Binary: cfg.Binary},
		Cache:    rc,
		Logger:   logger,
	}
	p := piper.New(cfg, output, piper.WithLogger(logger), piper.WithRenderer(renderer))
	return &platform{Platform: p, output: output, format: format, cache: rc}, nil
}

// newRenderCache keeps recent renders in memory and, unless cache_size is
// zero, on disk in cache_dir or the user cache dir.
func newRenderCache(cfg tts.PiperConfig) (*cache.Cache, error) {
	cc := cache.Config{MemoryBytes: renderMemoryCache, CompressionLevel: 3}
	if cfg.CacheSize > 0 {
		dir := cfg.CacheDir
		if dir == "" {
			base, err := gap.NewScope(gap.User, "lingo").CacheDir()
			if err != nil {
				return nil, fmt.Errorf("unable to find cache directory: %w", err)
			}
			dir = filepath.Join(base, "piper")
		}
		cc.Dir = dir
		cc.DiskBytes = int64(cfg.CacheSize) << 20
	}

	rc, err := cache.New(cc)
	if err != nil {
		return nil, fmt.Errorf("unable to open render cache: %w", err)
	}
	return rc, nil
}

// newSpeech creates the dispatcher for cfg.
func newSpeech(cfg tts.Config) (*speech, error) {
	p, err := newPlatform(cfg)
	if err != nil {
		return nil, err
	}

	files := audio.NewWAVSink(cfg.OutputDir, p.format)
	d, err := tts.NewDispatcher(tts.Options{
		Platform: p.Platform,
		Session:  audio.NewSession(p.output),
		Files:    files,
		Logger:   log.WithPrefix("tts"),
		Config:   cfg,
	})
	if err != nil {
		if p.cache != nil {
			_ = p.cache.Close()
		}
		return nil, fmt.Errorf("unable to start %s engine: %w", cfg.Engine, err)
	}
	log.Debug("speech ready", "engine", p.Name(), "languages", len(d.Languages()))
	return &speech{Dispatcher: d, files: files, cache: p.cache}, nil
}
