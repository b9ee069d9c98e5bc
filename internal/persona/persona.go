// Package persona holds the bridge's mood state, the write-confirmation
// policy and a best-effort timeline of notable events.
package persona

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Moods the persona can be in.
const (
	MoodCalm        = "calm"
	MoodFocused     = "focused"
	MoodCurious     = "curious"
	MoodOverwhelmed = "overwhelmed"
)

var validMoods = map[string]struct{}{
	MoodCalm:        {},
	MoodFocused:     {},
	MoodCurious:     {},
	MoodOverwhelmed: {},
}

// Config wires a Persona. TimelinePath may be empty to disable the timeline.
type Config struct {
	Mood                      string
	WriteRequiresConfirmation bool
	TimelinePath              string
	Logger                    *log.Logger
}

// Persona is safe for concurrent use.
type Persona struct {
	mu           sync.Mutex
	mood         string
	writeConfirm bool
	timelinePath string
	logger       *log.Logger
}

// New creates a Persona. An unknown initial mood falls back to calm.
func New(cfg Config) *Persona {
	mood := cfg.Mood
	if _, ok := validMoods[mood]; !ok {
		mood = MoodCalm
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Persona{
		mood:         mood,
		writeConfirm: cfg.WriteRequiresConfirmation,
		timelinePath: cfg.TimelinePath,
		logger:       logger,
	}
}

// Mood returns the current mood.
func (p *Persona) Mood() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mood
}

// SetMood switches the current mood; unknown moods are rejected.
func (p *Persona) SetMood(mood string) error {
	if _, ok := validMoods[mood]; !ok {
		return fmt.Errorf("unknown mood %q", mood)
	}
	p.mu.Lock()
	p.mood = mood
	p.mu.Unlock()
	return nil
}

// WriteRequiresConfirmation reports whether mutating commands need an
// explicit confirmation flag before they are dispatched.
func (p *Persona) WriteRequiresConfirmation() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeConfirm
}

// timelineEvent is one JSONL line in the timeline file.
type timelineEvent struct {
	TS     string         `json:"ts"`
	Kind   string         `json:"kind"`
	Mood   string         `json:"mood"`
	Detail map[string]any `json:"detail,omitempty"`
}

// AppendEvent records an event on the timeline. Timeline writes are best
// effort: failures are logged and never propagated.
func (p *Persona) AppendEvent(kind string, detail map[string]any) {
	p.mu.Lock()
	path := p.timelinePath
	mood := p.mood
	p.mu.Unlock()
	if path == "" {
		return
	}

	line, err := json.Marshal(timelineEvent{
		TS:     time.Now().UTC().Format(time.RFC3339),
		Kind:   kind,
		Mood:   mood,
		Detail: detail,
	})
	if err != nil {
		p.logger.Warn("timeline marshal failed", "kind", kind, "err", err)
		return
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		p.logger.Warn("timeline open failed", "path", path, "err", err)
		return
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		p.logger.Warn("timeline write failed", "path", path, "err", err)
	}
}
