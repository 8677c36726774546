// Package textsrc turns command line input into text that can be spoken.
package textsrc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/mitchellh/go-homedir"
)

// ErrEmpty is returned when a source holds no speakable text.
var ErrEmpty = errors.New("no text to speak")

// Source is readable input for speech.
type Source struct {
	Name     string // File path, "-" for stdin, "clipboard" or "argument"
	Markdown bool   // Strip markdown before speaking

	reader io.Reader
}

// FromArg creates a source for a command line argument. "-" reads stdin,
// an existing file is read from disk and anything else is spoken as is.
func FromArg(arg string, stdin io.Reader) (*Source, error) {
	if arg == "-" {
		return FromReader("-", stdin, false), nil
	}

	path, err := homedir.Expand(arg)
	if err != nil {
		path = arg
	}
	if st, err := os.Stat(path); err == nil {
		if st.IsDir() {
			return nil, fmt.Errorf("%s is a directory", arg)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read file: %w", err)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		return &Source{Name: abs, Markdown: IsMarkdownFile(path), reader: strings.NewReader(string(b))}, nil
	}

	return FromReader("argument", strings.NewReader(arg), false), nil
}

// FromArgs joins several arguments into one spoken source. A single
// argument is resolved like FromArg.
func FromArgs(args []string, stdin io.Reader) (*Source, error) {
	if len(args) == 1 {
		return FromArg(args[0], stdin)
	}
	return FromReader("argument", strings.NewReader(strings.Join(args, " ")), false), nil
}

// FromClipboard creates a source from the system clipboard.
func FromClipboard() (*Source, error) {
	s, err := clipboard.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to read clipboard: %w", err)
	}
	return FromReader("clipboard", strings.NewReader(s), false), nil
}

// FromReader wraps r.
func FromReader(name string, r io.Reader, markdown bool) *Source {
	return &Source{Name: name, Markdown: markdown, reader: r}
}

// Text reads the source and returns its speakable text.
func (s *Source) Text() (string, error) {
	b, err := io.ReadAll(s.reader)
	if err != nil {
		return "", fmt.Errorf("unable to read from %s: %w", s.Name, err)
	}

	var out string
	if s.Markdown {
		out = PlainText(b)
	} else {
		out = strings.TrimSpace(string(b))
	}
	if out == "" {
		return "", fmt.Errorf("%s: %w", s.Name, ErrEmpty)
	}
	return out, nil
}

// StdinIsPipe reports whether stdin is redirected.
func StdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}
