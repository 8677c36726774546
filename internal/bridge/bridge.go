// Package bridge exposes a Dispatcher to a host process over JSON lines.
//
// Each request is one line:
//
//	{"id": 1, "method": "speak", "args": {"text": "hello", "language": "en-US"}}
//
// and is answered by one line carrying the same id:
//
//	{"id": 1, "result": 1}
//
// Operations that report success as a value answer 1 or 0. Other failures
// carry an error message and its kind. Lifecycle notifications are written
// as they happen:
//
//	{"event": "onProgress", "data": {"language": "en-US", "text": "hello world", "start": 0, "end": 5, "word": "hello", ...}}
//
// Progress start and end are rune (code point) offsets into text, end
// exclusive.
package bridge

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/tts"
)

const maxLineSize = 1 << 20

// Request is one host call.
type Request struct {
	ID     any    `json:"id"`
	Method string `json:"method"`
	Args   Args   `json:"args"`
}

// Args holds the arguments of every operation. Each operation reads the
// fields it needs.
type Args struct {
	Text     *string  `json:"text"`
	Language *string  `json:"language"`
	FileName *string  `json:"fileName"`
	Name     *string  `json:"name"`
	Locale   *string  `json:"locale"`
	Category *string  `json:"category"`
	Options  []string `json:"options"`
	Mode     string   `json:"mode"`
	Value    any      `json:"value"`
}

// Response answers a Request.
type Response struct {
	ID     any    `json:"id"`
	Result any    `json:"result"`
	Error  string `json:"error,omitempty"`
	Code   string `json:"code,omitempty"`
}

// Event carries a lifecycle notification.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"` // tts.Notification, or Progress for onProgress
}

// Progress is the payload of onProgress. Every field is always present.
type Progress struct {
	Language  string `json:"language"`
	Utterance string `json:"utterance"`
	Text      string `json:"text"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Word      string `json:"word"`
}

func newProgress(n tts.Notification) Progress {
	start := max(0, min(n.Start, len(n.Text)))
	end := max(start, min(n.End, len(n.Text)))
	return Progress{
		Language:  n.Language,
		Utterance: n.Utterance,
		Text:      n.Text,
		Start:     utf8.RuneCountInString(n.Text[:start]),
		End:       utf8.RuneCountInString(n.Text[:end]),
		Word:      n.Word,
	}
}

type handler func(s *Server, args Args, reply func(result any, err error))

var methods = map[string]handler{
	"checkAvailability": func(s *Server, _ Args, reply func(any, error)) {
		reply(s.d.CheckAvailability())
	},
	"speak": func(s *Server, a Args, reply func(any, error)) {
		text, err := required("text", a.Text)
		if err != nil {
			reply(nil, err)
			return
		}
		language, err := required("language", a.Language)
		if err != nil {
			reply(nil, err)
			return
		}
		s.d.Speak(text, language, func(err error) { reply(outcome(err)) })
	},
	"setAwaitSpeakCompletion": func(s *Server, a Args, reply func(any, error)) {
		v, err := a.boolValue()
		if err != nil {
			reply(nil, err)
			return
		}
		s.d.SetAwaitSpeakCompletion(v)
		reply(1, nil)
	},
	"setAwaitSynthCompletion": func(s *Server, a Args, reply func(any, error)) {
		v, err := a.boolValue()
		if err != nil {
			reply(nil, err)
			return
		}
		s.d.SetAwaitSynthCompletion(v)
		reply(1, nil)
	},
	"synthesizeToFile": func(s *Server, a Args, reply func(any, error)) {
		text, err := required("text", a.Text)
		if err != nil {
			reply(nil, err)
			return
		}
		fileName, err := required("fileName", a.FileName)
		if err != nil {
			reply(nil, err)
			return
		}
		var language string
		if a.Language != nil {
			language = *a.Language
		}
		s.d.SynthesizeToFile(text, fileName, language, func(err error) { reply(synthOutcome(err)) })
	},
	"pause": func(s *Server, _ Args, reply func(any, error)) {
		reply(flag(s.d.Pause()), nil)
	},
	"setSpeechRate": func(s *Server, a Args, reply func(any, error)) {
		v, err := a.numberValue()
		if err != nil {
			reply(nil, err)
			return
		}
		s.d.SetSpeechRate(v)
		reply(1, nil)
	},
	"setVolume": func(s *Server, a Args, reply func(any, error)) {
		v, err := a.numberValue()
		if err != nil {
			reply(nil, err)
			return
		}
		reply(outcome(s.d.SetVolume(v)))
	},
	"setPitch": func(s *Server, a Args, reply func(any, error)) {
		v, err := a.numberValue()
		if err != nil {
			reply(nil, err)
			return
		}
		reply(outcome(s.d.SetPitch(v)))
	},
	"stop": func(s *Server, _ Args, reply func(any, error)) {
		s.d.Stop()
		reply(1, nil)
	},
	"getLanguages": func(s *Server, _ Args, reply func(any, error)) {
		reply(s.d.Languages(), nil)
	},
	"getSpeechRateValidRange": func(s *Server, _ Args, reply func(any, error)) {
		reply(s.d.SpeechRateValidRange(), nil)
	},
	"isLanguageAvailable": func(s *Server, a Args, reply func(any, error)) {
		language, err := required("language", a.Language)
		if err != nil {
			reply(nil, err)
			return
		}
		reply(s.d.IsLanguageAvailable(language), nil)
	},
	"getVoices": func(s *Server, _ Args, reply func(any, error)) {
		reply(s.d.Voices(), nil)
	},
	"setVoice": func(s *Server, a Args, reply func(any, error)) {
		name, err := required("name", a.Name)
		if err != nil {
			reply(nil, err)
			return
		}
		locale, err := required("locale", a.Locale)
		if err != nil {
			reply(nil, err)
			return
		}
		reply(flag(s.d.SetVoice(name, locale)), nil)
	},
	"setSharedAudioSession": func(s *Server, a Args, reply func(any, error)) {
		v, err := a.boolValue()
		if err != nil {
			reply(nil, err)
			return
		}
		reply(outcome(s.d.SetSharedAudioSession(v)))
	},
	"setAutoStopSharedSession": func(s *Server, a Args, reply func(any, error)) {
		v, err := a.boolValue()
		if err != nil {
			reply(nil, err)
			return
		}
		s.d.SetAutoStopSharedSession(v)
		reply(1, nil)
	},
	"setAudioCategory": func(s *Server, a Args, reply func(any, error)) {
		category, err := required("category", a.Category)
		if err != nil {
			reply(nil, err)
			return
		}
		reply(outcome(s.d.SetAudioCategory(category, a.Options, a.Mode)))
	},
	"enterForeground": func(s *Server, _ Args, reply func(any, error)) {
		reply(outcome(s.d.EnterForeground()))
	},
	"enterBackground": func(s *Server, _ Args, reply func(any, error)) {
		reply(s.d.EnterBackground(), nil)
	},
}

// Methods returns the names of every supported operation.
func Methods() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	return names
}

// Server answers requests read from a stream.
type Server struct {
	d      *tts.Dispatcher
	logger *log.Logger

	mu sync.Mutex
	w  io.Writer
}

// NewServer creates a server writing responses and notifications to w.
// A nil logger discards.
func NewServer(d *tts.Dispatcher, w io.Writer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{d: d, w: w, logger: logger}
}

// Notify implements tts.Notifier.
func (s *Server) Notify(n tts.Notification) {
	var data any = n
	if n.Kind == tts.NotifyProgress {
		data = newProgress(n)
	}
	s.write(Event{Event: string(n.Kind), Data: data})
}

// Serve handles requests from r until it is exhausted or ctx is done.
// Answers to requests still in flight may be written after Serve returns.
// Notifications are only written once the server is subscribed to the
// dispatcher.
func (s *Server) Serve(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		s.handle(line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading requests: %w", err)
	}
	return nil
}

func (s *Server) handle(line []byte) {
	var req Request
	if err := sonic.Unmarshal(line, &req); err != nil {
		s.logger.Warn("bad request", "err", err)
		s.respond(nil, nil, fmt.Errorf("%w: %w", tts.ErrMalformedRequest, err))
		return
	}

	h, ok := methods[req.Method]
	if !ok {
		s.respond(req.ID, nil, fmt.Errorf("%w: unknown method %q", tts.ErrMalformedRequest, req.Method))
		return
	}

	s.logger.Debug("request", "id", req.ID, "method", req.Method)
	var once sync.Once
	h(s, req.Args, func(result any, err error) {
		once.Do(func() { s.respond(req.ID, result, err) })
	})
}

func (s *Server) respond(id, result any, err error) {
	resp := Response{ID: id, Result: result}
	if err != nil {
		resp.Result = nil
		resp.Error = err.Error()
		resp.Code = string(tts.KindOf(err))
	}
	s.write(resp)
}

func (s *Server) write(v any) {
	b, err := sonic.Marshal(v)
	if err != nil {
		s.logger.Error("encoding message", "err", err)
		return
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(b); err != nil {
		s.logger.Error("writing message", "err", err)
	}
}

// outcome maps an error to the value a host expects. Failures a host can
// act on are reported as 0, anything else as an error.
func outcome(err error) (any, error) {
	switch tts.KindOf(err) {
	case tts.KindNone:
		return 1, nil
	case tts.KindResumeFailed, tts.KindParameterRange, tts.KindAudioSession:
		return 0, nil
	default:
		return nil, err
	}
}

// synthOutcome is outcome for synthesizeToFile, where a file that could
// not be written is answered with 0.
func synthOutcome(err error) (any, error) {
	if tts.KindOf(err) == tts.KindFileWrite {
		return 0, nil
	}
	return outcome(err)
}

func flag(ok bool) int {
	if ok {
		return 1
	}
	return 0
}

func required(name string, v *string) (string, error) {
	if v == nil {
		return "", fmt.Errorf("%w: %s is required", tts.ErrMalformedRequest, name)
	}
	return *v, nil
}

func (a Args) boolValue() (bool, error) {
	v, ok := a.Value.(bool)
	if !ok {
		return false, fmt.Errorf("%w: value must be a boolean", tts.ErrMalformedRequest)
	}
	return v, nil
}

func (a Args) numberValue() (float64, error) {
	v, ok := a.Value.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: value must be a number", tts.ErrMalformedRequest)
	}
	return v, nil
}
