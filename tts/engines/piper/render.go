package piper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/internal/cache"
)

// Renderer turns text into raw 16-bit PCM with a model.
type Renderer interface {
	Render(ctx context.Context, model, text string, lengthScale float64) ([]byte, error)
}

// Command renders with a fresh piper process per request.
type Command struct {
	Binary string
}

// Render implements Renderer.
func (c Command) Render(ctx context.Context, model, text string, lengthScale float64) ([]byte, error) {
	args := []string{
		"--model", model,
		"--output-raw",
		"--length_scale", strconv.FormatFloat(lengthScale, 'f', 3, 64),
	}

	cmd := exec.CommandContext(ctx, c.Binary, args...)
	cmd.Stdin = strings.NewReader(text + "\n")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("piper failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("piper failed: %w", err)
	}
	if len(output) == 0 {
		return nil, errors.New("no audio generated")
	}
	return output, nil
}

// CachedRenderer serves repeated renders from a cache.
type CachedRenderer struct {
	Renderer Renderer
	Cache    *cache.Cache
	Logger   *log.Logger
}

// Render implements Renderer.
func (r CachedRenderer) Render(ctx context.Context, model, text string, lengthScale float64) ([]byte, error) {
	key := cache.Key(model, text, lengthScale)
	if pcm, ok := r.Cache.Get(key); ok {
		return pcm, nil
	}

	pcm, err := r.Renderer.Render(ctx, model, text, lengthScale)
	if err != nil {
		return nil, err
	}
	if err := r.Cache.Put(key, pcm); err != nil && r.Logger != nil {
		r.Logger.Debug("render not cached", "model", model, "bytes", len(pcm), "err", err)
	}
	return pcm, nil
}

// FindBinary looks for piper in the usual places.
func FindBinary(candidates ...string) string {
	locations := append(candidates, "piper", "/usr/local/bin/piper", "/usr/bin/piper")
	for _, loc := range locations {
		if loc == "" {
			continue
		}
		if path, err := exec.LookPath(loc); err == nil {
			return path
		}
	}
	return ""
}
