package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Options configure a Dispatcher.
type Options struct {
	Platform Platform     // Required
	Session  AudioSession // Optional audio session subsystem
	Files    FileSink     // Where synthesizeToFile writes; required for file renders
	Notifier Notifier     // Optional first subscriber
	Logger   *log.Logger  // Defaults to a discarding logger
	Config   Config
}

type settings struct {
	params          SpeechParams
	awaitSpeak      bool
	awaitSynth      bool
	autoStopSession bool
	boundary        PauseBoundary
	defaultLanguage string
}

type fileStream struct {
	name   string
	w      io.WriteCloser
	failed bool
	closed bool
}

// Dispatcher coordinates one engine per language. All of its state is owned
// by a single goroutine; public methods hand work to that goroutine and
// return once the request has been accepted. Completions and notifications
// run on a separate delivery goroutine, so they may call back into the
// Dispatcher. Close must not be called from them.
type Dispatcher struct {
	platform Platform
	session  AudioSession
	files    FileSink
	logger   *log.Logger

	owner    *mailbox
	delivery *mailbox

	catalog   *VoiceCatalog
	overrides *VoiceOverrideTable
	registry  *EngineRegistry
	pending   *PendingResultTracker
	bridge    *LifecycleBridge
	lifecycle *SessionLifecycleController

	settings      settings
	streams       map[string]*fileStream
	subscribers   map[int]Notifier
	nextSub       int
	sessionActive bool
	progress      rate.Sometimes

	closeOnce sync.Once
}

// NewDispatcher creates a dispatcher, enumerates the platform voices and
// creates an engine for every language found.
func NewDispatcher(opts Options) (*Dispatcher, error) {
	if opts.Platform == nil {
		return nil, errors.New("tts: platform is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid TTS configuration: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	cfg := opts.Config
	d := &Dispatcher{
		platform:  opts.Platform,
		session:   opts.Session,
		files:     opts.Files,
		logger:    logger,
		owner:     newMailbox(),
		delivery:  newMailbox(),
		catalog:   NewVoiceCatalog(opts.Platform),
		overrides: NewVoiceOverrideTable(),
		settings: settings{
			params:          cfg.Params(),
			awaitSpeak:      cfg.AwaitSpeakCompletion,
			awaitSynth:      cfg.AwaitSynthCompletion,
			autoStopSession: cfg.AutoStopSharedSession,
			boundary:        cfg.Boundary(),
			defaultLanguage: cfg.DefaultLanguage,
		},
		streams:     make(map[string]*fileStream),
		subscribers: make(map[int]Notifier),
		progress:    rate.Sometimes{First: 1, Interval: time.Second},
	}
	d.pending = NewPendingResultTracker(d.resolve)
	d.bridge = NewLifecycleBridge(d.pending, d.emit)
	d.registry = NewEngineRegistry(d.newSynthesizer)
	d.registry.OnStateChange(func(key LanguageKey, state EngineState) {
		d.logger.Debug("engine state", "language", key, "state", state)
	})
	d.lifecycle = NewSessionLifecycleController(d.catalog, d.registry, func() PauseBoundary {
		return d.settings.boundary
	})
	if opts.Notifier != nil {
		d.subscribers[d.nextSub] = opts.Notifier
		d.nextSub++
	}

	go d.owner.run()
	go d.delivery.run()

	d.do(func() { d.startup(cfg) })
	return d, nil
}

func (d *Dispatcher) startup(cfg Config) {
	if err := d.lifecycle.Foreground(); err != nil {
		d.logger.Warn("initializing engines", "platform", d.platform.Name(), "err", err)
	}
	d.logger.Debug("engines ready", "platform", d.platform.Name(), "engines", d.registry.Len())

	for language, name := range cfg.Voices {
		display, ok := d.catalog.Display(NormalizeLanguage(language))
		if !ok {
			display = language
		}
		if !d.setVoice(name, display) {
			d.logger.Warn("configured voice not found", "language", language, "voice", name)
		}
	}

	if d.session != nil {
		if err := d.setAudioCategory(cfg.Audio.Category, cfg.Audio.Options, cfg.Audio.Mode); err != nil {
			d.logger.Warn("configuring audio session", "err", err)
		}
	}
}

// do runs fn on the owner goroutine and waits for it. It reports false if
// the dispatcher is closed.
func (d *Dispatcher) do(fn func()) bool {
	done := make(chan struct{})
	if !d.owner.post(func() {
		defer close(done)
		fn()
	}) {
		return false
	}
	<-done
	return true
}

// resolve hands a completion to the delivery goroutine.
func (d *Dispatcher) resolve(done Completion, err error) {
	d.delivery.post(func() { done(err) })
}

// emit hands a notification to every current subscriber.
func (d *Dispatcher) emit(n Notification) {
	subs := make([]Notifier, 0, len(d.subscribers))
	for i := 0; i < d.nextSub; i++ {
		if s, ok := d.subscribers[i]; ok {
			subs = append(subs, s)
		}
	}
	if len(subs) == 0 {
		return
	}
	d.delivery.post(func() {
		for _, s := range subs {
			s.Notify(n)
		}
	})
}

func (d *Dispatcher) newSynthesizer(key LanguageKey) (Synthesizer, error) {
	return d.platform.NewSynthesizer(key, func(ev Event) {
		d.owner.post(func() { d.handleEvent(key, ev) })
	})
}

func (d *Dispatcher) display(key LanguageKey) string {
	if lang, ok := d.catalog.Display(key); ok {
		return lang
	}
	return key.String()
}

// engineFor returns the engine for key, creating it for languages the
// catalog knows about.
func (d *Dispatcher) engineFor(key LanguageKey) (*Engine, error) {
	if e, ok := d.registry.Lookup(key); ok {
		return e, nil
	}
	if _, ok := d.catalog.Display(key); !ok {
		return nil, ErrEngineUnavailable
	}
	return d.registry.GetOrCreate(key)
}

// resolveVoice prefers an explicit override, then the first platform voice
// whose locale is the language exactly.
func (d *Dispatcher) resolveVoice(key LanguageKey) (Voice, error) {
	if v, ok := d.overrides.Get(key); ok {
		return v, nil
	}
	if v, ok := d.catalog.VoiceForLocale(d.display(key)); ok {
		return v, nil
	}
	return Voice{}, ErrVoiceUnavailable
}

func (d *Dispatcher) newUtterance(text string, voice Voice) Utterance {
	p := d.settings.params
	return Utterance{
		ID:     uuid.NewString(),
		Text:   text,
		Voice:  voice,
		Rate:   d.platform.RateRange().ClampRate(p.Rate),
		Volume: p.Volume,
		Pitch:  p.Pitch,
	}
}

// report registers done for utterance on ch when await is set, and resolves
// it right away otherwise.
func (d *Dispatcher) report(ch Channel, utterance string, await bool, done Completion) {
	if await {
		d.pending.Set(ch, utterance, done)
		return
	}
	d.resolve(done, nil)
}

// CheckAvailability re-enumerates the platform voices and reports whether
// any are installed.
func (d *Dispatcher) CheckAvailability() (bool, error) {
	var (
		available bool
		err       error
	)
	if !d.do(func() {
		if err = d.catalog.Refresh(); err != nil {
			return
		}
		available = len(d.catalog.Voices()) > 0
	}) {
		return false, ErrClosed
	}
	if err != nil {
		return false, NewTTSError("checkAvailability", "", err)
	}
	return available, nil
}

// Speak speaks text in language. done receives nil once the request is
// accepted, or once the utterance finishes when speak completion is
// awaited. A nil done is allowed.
func (d *Dispatcher) Speak(text, language string, done Completion) {
	if done == nil {
		done = func(error) {}
	}
	if !d.do(func() { d.speak(text, language, done) }) {
		done(ErrClosed)
	}
}

// SpeakContext is Speak for callers that want to block until the outcome
// is known or ctx is done.
func (d *Dispatcher) SpeakContext(ctx context.Context, text, language string) error {
	result := make(chan error, 1)
	d.Speak(text, language, func(err error) { result <- err })
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) speak(text, language string, done Completion) {
	fail := func(err error) {
		d.logger.Warn("speak failed", "language", language, "err", err)
		d.resolve(done, NewTTSError("speak", language, err))
	}
	key := NormalizeLanguage(language)
	engine, err := d.engineFor(key)
	if err != nil {
		fail(err)
		return
	}

	// A paused engine resumes its utterance, so text only matters otherwise.
	paused := engine.State() == StatePaused
	if !paused && strings.TrimSpace(text) == "" {
		fail(fmt.Errorf("%w: text is required", ErrMalformedRequest))
		return
	}

	d.registry.ForEachExcept(key, func(e *Engine) { e.Stop() })

	if paused {
		if !engine.Resume() {
			fail(ErrResumeFailed)
			return
		}
		u, _ := engine.Current()
		d.logger.Debug("resumed", "language", language, "utterance", u.ID)
		d.report(ChannelSpeak, u.ID, d.settings.awaitSpeak, done)
		return
	}

	voice, err := d.resolveVoice(key)
	if err != nil {
		fail(err)
		return
	}

	u := d.newUtterance(text, voice)
	if err := engine.Speak(u); err != nil {
		fail(err)
		return
	}
	d.logger.Debug("speaking", "language", language, "utterance", u.ID, "voice", voice.Name, "rate", u.Rate)
	d.report(ChannelSpeak, u.ID, d.settings.awaitSpeak, done)
}

// SynthesizeToFile renders text to fileName through the file sink. An
// empty language selects the configured default. done receives nil once
// the request is accepted, or once the file is complete when synth
// completion is awaited.
func (d *Dispatcher) SynthesizeToFile(text, fileName, language string, done Completion) {
	if done == nil {
		done = func(error) {}
	}
	if !d.do(func() { d.synthesizeToFile(text, fileName, language, done) }) {
		done(ErrClosed)
	}
}

// SynthesizeToFileContext is SynthesizeToFile for callers that want to
// block until the outcome is known or ctx is done.
func (d *Dispatcher) SynthesizeToFileContext(ctx context.Context, text, fileName, language string) error {
	result := make(chan error, 1)
	d.SynthesizeToFile(text, fileName, language, func(err error) { result <- err })
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) synthesizeToFile(text, fileName, language string, done Completion) {
	if language == "" {
		language = d.settings.defaultLanguage
	}
	fail := func(err error) {
		d.logger.Warn("synthesizeToFile failed", "language", language, "file", fileName, "err", err)
		d.resolve(done, NewTTSError("synthesizeToFile", language, err))
	}
	switch {
	case strings.TrimSpace(text) == "":
		fail(fmt.Errorf("%w: text is required", ErrMalformedRequest))
		return
	case fileName == "":
		fail(fmt.Errorf("%w: fileName is required", ErrMalformedRequest))
		return
	case d.files == nil:
		fail(fmt.Errorf("%w: no file sink configured", ErrFileWrite))
		return
	}

	key := NormalizeLanguage(language)
	engine, err := d.engineFor(key)
	if err != nil {
		fail(err)
		return
	}
	voice, err := d.resolveVoice(key)
	if err != nil {
		fail(err)
		return
	}

	w, err := d.files.Create(fileName)
	if err != nil {
		fail(fmt.Errorf("%w: %w", ErrFileWrite, err))
		return
	}

	u := d.newUtterance(text, voice)
	d.streams[u.ID] = &fileStream{name: fileName, w: w}
	if err := engine.Write(u); err != nil {
		delete(d.streams, u.ID)
		_ = w.Close()
		fail(err)
		return
	}
	d.logger.Debug("rendering", "language", language, "utterance", u.ID, "file", fileName)
	d.report(ChannelSynthToFile, u.ID, d.settings.awaitSynth, done)
}

// handleEvent runs on the owner goroutine for every synthesizer event.
func (d *Dispatcher) handleEvent(key LanguageKey, ev Event) {
	engine, ok := d.registry.Lookup(key)
	if !ok {
		return
	}
	u, ok := engine.Observe(ev)
	if !ok {
		d.logger.Debug("dropping stale event", "language", key, "utterance", ev.Utterance, "event", ev.Kind)
		return
	}

	switch ev.Kind {
	case EventBuffer:
		d.writeBuffer(u.ID, ev.Buffer)
		return
	case EventRange:
		d.progress.Do(func() {
			d.logger.Debug("progress", "language", key, "utterance", u.ID, "start", ev.Start, "end", ev.End)
		})
	case EventFinish, EventCancel:
		d.endStream(u.ID)
		d.logger.Debug("utterance ended", "language", key, "utterance", u.ID, "event", ev.Kind)
	}

	d.bridge.Deliver(d.display(key), u, ev)

	if ev.Kind.Terminal() && d.settings.autoStopSession {
		d.deactivateSession()
	}
}

func (d *Dispatcher) writeBuffer(utterance string, buf []byte) {
	s, ok := d.streams[utterance]
	if !ok || s.failed || s.closed {
		return
	}

	if len(buf) == 0 {
		s.closed = true
		if err := s.w.Close(); err != nil {
			d.failStream(utterance, s, err)
			return
		}
		d.logger.Debug("file written", "utterance", utterance, "file", s.name)
		d.pending.ResolveUtterance(ChannelSynthToFile, utterance, nil)
		return
	}

	if _, err := s.w.Write(buf); err != nil {
		s.closed = true
		_ = s.w.Close()
		d.failStream(utterance, s, err)
	}
}

func (d *Dispatcher) failStream(utterance string, s *fileStream, err error) {
	s.failed = true
	d.logger.Error("writing synthesized audio", "utterance", utterance, "file", s.name, "err", err)
	d.pending.ResolveUtterance(ChannelSynthToFile, utterance,
		NewTTSError("synthesizeToFile", "", fmt.Errorf("%w: %s: %w", ErrFileWrite, s.name, err)))
}

// endStream closes a file render that ended without an end-of-stream
// buffer.
func (d *Dispatcher) endStream(utterance string) {
	s, ok := d.streams[utterance]
	if !ok {
		return
	}
	delete(d.streams, utterance)
	if s.closed {
		return
	}
	s.closed = true
	if err := s.w.Close(); err != nil {
		d.failStream(utterance, s, err)
	}
}

func (d *Dispatcher) deactivateSession() {
	if d.session == nil || !d.sessionActive {
		return
	}
	if err := d.session.SetActive(false); err != nil {
		d.logger.Warn("deactivating audio session", "err", err)
		return
	}
	d.sessionActive = false
}

// SetAwaitSpeakCompletion selects whether Speak reports on acceptance or
// on completion.
func (d *Dispatcher) SetAwaitSpeakCompletion(await bool) {
	d.do(func() { d.settings.awaitSpeak = await })
}

// SetAwaitSynthCompletion selects whether SynthesizeToFile reports on
// acceptance or once the file is complete.
func (d *Dispatcher) SetAwaitSynthCompletion(await bool) {
	d.do(func() { d.settings.awaitSynth = await })
}

// Pause pauses every active engine. It reports true only if every pause
// succeeded.
func (d *Dispatcher) Pause() bool {
	ok := true
	if !d.do(func() {
		d.registry.ForEach(func(e *Engine) {
			if !e.State().IsActive() {
				return
			}
			if !e.Pause(d.settings.boundary) {
				d.logger.Warn("pause declined", "language", e.Key())
				ok = false
			}
		})
	}) {
		return false
	}
	return ok
}

// Stop cancels every engine immediately.
func (d *Dispatcher) Stop() {
	d.do(func() {
		d.registry.ForEach(func(e *Engine) { e.Stop() })
	})
}

// SetSpeechRate sets the rate of the next utterance.
func (d *Dispatcher) SetSpeechRate(rate float64) {
	d.do(func() { d.settings.params.Rate = rate })
}

// SetVolume sets the volume of the next utterance. Values outside [0, 1]
// are rejected and not applied.
func (d *Dispatcher) SetVolume(volume float64) error {
	if err := ValidateVolume(volume); err != nil {
		return NewTTSError("setVolume", "", err)
	}
	if !d.do(func() { d.settings.params.Volume = volume }) {
		return ErrClosed
	}
	return nil
}

// SetPitch sets the pitch of the next utterance. Values outside [0.5, 2]
// are rejected and not applied.
func (d *Dispatcher) SetPitch(pitch float64) error {
	if err := ValidatePitch(pitch); err != nil {
		return NewTTSError("setPitch", "", err)
	}
	if !d.do(func() { d.settings.params.Pitch = pitch }) {
		return ErrClosed
	}
	return nil
}

// Params returns the parameters the next utterance will use.
func (d *Dispatcher) Params() SpeechParams {
	var p SpeechParams
	d.do(func() { p = d.settings.params })
	return p
}

// Languages returns every known display language.
func (d *Dispatcher) Languages() []string {
	var langs []string
	d.do(func() { langs = d.catalog.Languages() })
	return langs
}

// SpeechRateValidRange returns the platform rate range.
func (d *Dispatcher) SpeechRateValidRange() RateRange {
	return d.platform.RateRange()
}

// IsLanguageAvailable reports whether a known language starts with
// language, ignoring case.
func (d *Dispatcher) IsLanguageAvailable(language string) bool {
	var ok bool
	d.do(func() { ok = d.catalog.IsAvailable(language) })
	return ok
}

// Voices returns the platform voices.
func (d *Dispatcher) Voices() []Voice {
	var voices []Voice
	d.do(func() { voices = d.catalog.Voices() })
	return voices
}

// SetVoice selects the voice named name for locale. It reports false,
// leaving the overrides unchanged, when no such voice exists.
func (d *Dispatcher) SetVoice(name, locale string) bool {
	var ok bool
	d.do(func() { ok = d.setVoice(name, locale) })
	return ok
}

func (d *Dispatcher) setVoice(name, locale string) bool {
	v, ok := d.catalog.Find(name, locale)
	if !ok {
		return false
	}
	d.overrides.Set(NormalizeLanguage(locale), v)
	d.logger.Debug("voice override", "language", locale, "voice", v.Name)
	return true
}

// SetSharedAudioSession activates or deactivates the audio session.
func (d *Dispatcher) SetSharedAudioSession(active bool) error {
	var err error
	if !d.do(func() {
		if d.session == nil {
			err = fmt.Errorf("%w: no audio session", ErrAudioSessionFailure)
			return
		}
		if err = d.session.SetActive(active); err != nil {
			err = fmt.Errorf("%w: %w", ErrAudioSessionFailure, err)
			return
		}
		d.sessionActive = active
	}) {
		return ErrClosed
	}
	if err != nil {
		d.logger.Warn("audio session", "active", active, "err", err)
		return NewTTSError("setSharedAudioSession", "", err)
	}
	return nil
}

// SetAutoStopSharedSession selects whether the audio session is
// deactivated after each utterance ends.
func (d *Dispatcher) SetAutoStopSharedSession(stop bool) {
	d.do(func() { d.settings.autoStopSession = stop })
}

// SetAudioCategory configures the audio session. An empty mode selects
// the default mode.
func (d *Dispatcher) SetAudioCategory(category string, options []string, mode string) error {
	var err error
	if !d.do(func() { err = d.setAudioCategory(category, options, mode) }) {
		return ErrClosed
	}
	if err != nil {
		d.logger.Warn("audio category", "category", category, "err", err)
		return NewTTSError("setAudioCategory", "", err)
	}
	return nil
}

func (d *Dispatcher) setAudioCategory(category string, options []string, mode string) error {
	c, err := ParseAudioCategory(category)
	if err != nil {
		return err
	}
	opts, err := ParseCategoryOptions(options)
	if err != nil {
		return err
	}
	m, err := ParseAudioMode(mode)
	if err != nil {
		return err
	}
	if d.session == nil {
		return fmt.Errorf("%w: no audio session", ErrAudioSessionFailure)
	}
	if err := d.session.Configure(c, opts, m); err != nil {
		return fmt.Errorf("%w: %w", ErrAudioSessionFailure, err)
	}
	return nil
}

// EnterForeground re-enumerates voices and creates engines for any new
// languages.
func (d *Dispatcher) EnterForeground() error {
	var err error
	if !d.do(func() { err = d.lifecycle.Foreground() }) {
		return ErrClosed
	}
	if err != nil {
		d.logger.Warn("foreground", "err", err)
	}
	return err
}

// EnterBackground pauses every speaking engine and returns how many
// paused.
func (d *Dispatcher) EnterBackground() int {
	var n int
	d.do(func() { n = d.lifecycle.Background() })
	return n
}

// EngineState reports the state of the engine registered for language.
func (d *Dispatcher) EngineState(language string) (EngineState, bool) {
	var (
		state EngineState
		ok    bool
	)
	d.do(func() {
		var e *Engine
		if e, ok = d.registry.Lookup(NormalizeLanguage(language)); ok {
			state = e.State()
		}
	})
	return state, ok
}

// Subscribe registers n for lifecycle notifications. The returned function
// removes it.
func (d *Dispatcher) Subscribe(n Notifier) func() {
	id := -1
	d.do(func() {
		id = d.nextSub
		d.nextSub++
		d.subscribers[id] = n
	})
	return func() {
		d.do(func() { delete(d.subscribers, id) })
	}
}

// Close stops every engine, resolves outstanding continuations with
// ErrClosed and shuts the dispatcher down.
func (d *Dispatcher) Close() error {
	d.closeOnce.Do(func() {
		d.do(func() {
			d.registry.TearDown()
			for id, s := range d.streams {
				if !s.closed {
					_ = s.w.Close()
				}
				delete(d.streams, id)
			}
			d.pending.ResolveAll(ErrClosed)
			d.deactivateSession()
		})
		d.owner.close()
		d.delivery.close()
	})
	return nil
}
