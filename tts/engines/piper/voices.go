package piper

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/dgnsrekt/lingo/tts"
)

// modelConfig is the part of a voice's .onnx.json that describes it.
type modelConfig struct {
	Dataset  string `json:"dataset"`
	Language struct {
		Code string `json:"code"`
	} `json:"language"`
	Audio struct {
		Quality    string `json:"quality"`
		SampleRate int    `json:"sample_rate"`
	} `json:"audio"`
}

// Model is an installed piper voice model.
type Model struct {
	Path       string // .onnx file
	Voice      tts.Voice
	SampleRate int
}

// ScanModels finds every model in dir that has a readable config next to
// it. Models are returned sorted by identifier.
func ScanModels(dir string) ([]Model, []error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.onnx"))
	if err != nil {
		return nil, []error{err}
	}

	var (
		models []Model
		errs   []error
	)
	for _, path := range paths {
		m, err := loadModel(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool {
		return models[i].Voice.Identifier < models[j].Voice.Identifier
	})
	return models, errs
}

func loadModel(path string) (Model, error) {
	data, err := os.ReadFile(path + ".json")
	if err != nil {
		return Model{}, fmt.Errorf("reading model config: %w", err)
	}

	var cfg modelConfig
	if err := sonic.Unmarshal(data, &cfg); err != nil {
		return Model{}, fmt.Errorf("parsing model config %s: %w", filepath.Base(path), err)
	}
	if cfg.Language.Code == "" {
		return Model{}, fmt.Errorf("model config %s has no language code", filepath.Base(path))
	}

	id := strings.TrimSuffix(filepath.Base(path), ".onnx")
	name := cfg.Dataset
	if name == "" {
		name = id
	}
	quality := cfg.Audio.Quality
	if quality == "" {
		quality = "default"
	}

	return Model{
		Path:       path,
		SampleRate: cfg.Audio.SampleRate,
		Voice: tts.Voice{
			Name:       name,
			Locale:     strings.ReplaceAll(cfg.Language.Code, "_", "-"),
			Quality:    quality,
			Identifier: id,
		},
	}, nil
}
