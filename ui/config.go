package ui

// Config contains TUI-specific configuration.
type Config struct {
	// Word-wrap width. Zero uses the terminal width.
	Width          uint   `env:"LINGO_UI_WIDTH"`
	HighlightColor string `env:"LINGO_UI_HIGHLIGHT_COLOR" envDefault:"226"`
	ShowProgress   bool   `env:"LINGO_UI_SHOW_PROGRESS"   envDefault:"true"`
	QuitOnFinish   bool   `env:"LINGO_UI_QUIT_ON_FINISH"  envDefault:"true"`

	// Language the text is spoken in, set by the CLI.
	Language string
}
