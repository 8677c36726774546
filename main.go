// Package main provides the entry point for the lingo CLI application.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/tts"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	engineName string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "lingo",
		Short: "Speak text in any installed language",
		Long: paragraph(
			fmt.Sprintf("\nSpeak text in %s, one engine per language.", keyword("any installed voice")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
	}

	// ttsConfig is the configuration loaded by validateOptions.
	ttsConfig = tts.DefaultConfig()
)

// validateOptions reads the effective TTS configuration so that every
// command fails early on a bad config file.
func validateOptions(cmd *cobra.Command) error {
	setLogLevel(debug || viper.GetBool("debug"))

	// The engine flag takes precedence over the config file.
	if cmd.Flags().Changed("engine") {
		viper.Set("tts.engine", engineName)
	}
	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return err
	}
	ttsConfig = cfg
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	cobra.OnInitialize(tryLoadConfigFromDefaultPlaces)
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is lingo.yml in the user config dir)")
	rootCmd.PersistentFlags().StringVarP(&engineName, "engine", "e", "", "speech engine (mock or piper)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write a debug log")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	tts.SetDefaults()

	rootCmd.AddCommand(speakCmd, synthCmd, voicesCmd, languagesCmd, bridgeCmd, configCmd, manCmd)
}

func configDirs() ([]string, error) {
	scope := gap.NewScope(gap.User, "lingo")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		return nil, err
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "lingo")}, dirs...)
	}

	if c := os.Getenv("LINGO_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}
	return dirs, nil
}

func tryLoadConfigFromDefaultPlaces() {
	dirs, err := configDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		for _, v := range dirs {
			viper.AddConfigPath(v)
		}
		viper.SetConfigName("lingo")
	}
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("lingo")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); err == nil {
			log.Debug("Using configuration file", "path", used)
			return
		}
	}

	if configFile == "" {
		configFile = filepath.Join(dirs[0], "lingo.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
