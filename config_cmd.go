package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/dgnsrekt/lingo/tts"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const defaultConfig = `# write a debug log to the cache directory
debug: false

tts:
  # speech engine: mock or piper
  engine: "mock"
  # language used when a request names none
  default_language: "en-US"

  # speech parameters of the next utterance
  rate: 0.5
  volume: 1.0
  pitch: 1.0

  # report speak and synth results once speech has finished
  await_speak_completion: false
  await_synth_completion: false
  # deactivate the audio session when an utterance ends
  auto_stop_shared_session: true

  # where a pause takes effect: immediate or word
  pause_boundary: "immediate"
  # where synthesized files are written
  # output_dir: "~/lingo"

  # voices to use per language
  # voices:
  #   en-US: "lessac"

  audio:
    # playback, ambient, soloAmbient, playAndRecord, record or multiRoute
    category: "playback"
    # options: ["mixWithOthers"]
    mode: "spokenAudio"

  piper:
    binary: "piper"
    # model_dir: "~/.local/share/piper-voices"
    sample_rate: 22050
    timeout: "30s"
    # rendered audio cache in MB, 0 disables it
    cache_size: 100
    # cache_dir: "~/.cache/lingo/piper"

  mock:
    words_per_minute: 180
    auto_play: true
`

var (
	configShow bool

	configCmd = &cobra.Command{
		Use:     "config",
		Hidden:  false,
		Short:   "Edit the lingo config file",
		Long:    paragraph(fmt.Sprintf("\n%s the lingo config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
		Example: paragraph("lingo config\nlingo config --config path/to/config.yml\nlingo config --show"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configShow {
				return showConfig(cmd, ttsConfig)
			}

			if err := ensureConfigFile(); err != nil {
				return err
			}

			c, err := editor.Cmd("Lingo", configFile)
			if err != nil {
				return fmt.Errorf("unable to set config file: %w", err)
			}
			c.Stdin = os.Stdin
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			if err := c.Run(); err != nil {
				return fmt.Errorf("unable to run command: %w", err)
			}

			fmt.Println("Wrote config file to:", configFile)
			return nil
		},
	}
)

func init() {
	configCmd.Flags().BoolVar(&configShow, "show", false, "print the effective configuration")
}

// showConfig prints cfg the way it would be written to the config file.
func showConfig(cmd *cobra.Command, cfg tts.Config) error {
	out, err := yaml.Marshal(struct {
		TTS tts.Config `yaml:"tts"`
	}{cfg})
	if err != nil {
		return fmt.Errorf("unable to encode config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
