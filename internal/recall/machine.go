package recall

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/abhisek/memoir/internal/store"
)

// HintGenerator produces a hint image for a set of keywords.
type HintGenerator interface {
	GenerateHintImage(ctx context.Context, keywords []string) (url string, err error)
}

// Prompter is an optional interface for generators that can report the
// prompt they send for a keyword set.
type Prompter interface {
	Prompt(keywords []string) string
}

// Config tunes the verification machine.
type Config struct {
	// KeywordMatchThreshold is the minimum matched keyword count to pass.
	KeywordMatchThreshold int

	// HintTimeout bounds a single hint generation call. Default: 20s.
	HintTimeout time.Duration
}

// DefaultConfig returns a Config with the standard threshold and timeout.
func DefaultConfig() Config {
	return Config{
		KeywordMatchThreshold: KeywordMatchThreshold,
		HintTimeout:           20 * time.Second,
	}
}

// ConfigFromEnv reads MEMOIR_KEYWORD_THRESHOLD and MEMOIR_IMAGE_TIMEOUT,
// falling back to defaults. Unparsable values are reported and ignored.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("MEMOIR_KEYWORD_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.KeywordMatchThreshold = n
		} else {
			fmt.Fprintf(os.Stderr, "warning: ignoring MEMOIR_KEYWORD_THRESHOLD=%q: %v\n", v, err)
		}
	}
	if v := os.Getenv("MEMOIR_IMAGE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HintTimeout = d
		} else {
			fmt.Fprintf(os.Stderr, "warning: ignoring MEMOIR_IMAGE_TIMEOUT=%q: %v\n", v, err)
		}
	}
	return cfg
}

// Validate checks the config values.
func (c Config) Validate() error {
	if c.KeywordMatchThreshold < 1 {
		return fmt.Errorf("keyword match threshold must be >= 1, got %d", c.KeywordMatchThreshold)
	}
	if c.HintTimeout <= 0 {
		return fmt.Errorf("hint timeout must be positive, got %s", c.HintTimeout)
	}
	return nil
}

// Machine applies protocol actions to attempts. It holds no per-attempt
// state and is safe for concurrent use.
type Machine struct {
	cfg   Config
	hints HintGenerator
}

// NewMachine creates a Machine. hints may be nil, in which case every
// hint step proceeds without an image.
func NewMachine(cfg Config, hints HintGenerator) *Machine {
	return &Machine{cfg: cfg, hints: hints}
}

// Threshold returns the configured keyword match threshold.
func (m *Machine) Threshold() int {
	return m.cfg.KeywordMatchThreshold
}

// Begin moves a new attempt from START to AWAIT_CONFIDENCE.
func (m *Machine) Begin(a Attempt) (Attempt, error) {
	if a.State != StateStart {
		return a, &TransitionError{State: a.State, Action: "begin"}
	}
	a.State = StateAwaitConfidence
	return a, nil
}

// SubmitConfidence answers "do you remember?" at AWAIT_CONFIDENCE, or
// "do you remember now?" at AWAIT_HINT_RESPONSE.
func (m *Machine) SubmitConfidence(ctx context.Context, a Attempt, c store.Confidence) (Attempt, error) {
	if c != store.Remembers && c != store.Forgets {
		return a, fmt.Errorf("%w: %q", ErrInvalidConfidence, c)
	}

	switch a.State {
	case StateAwaitConfidence:
		a.Confidence = c
		if c == store.Remembers {
			a.State = StateAwaitFirstRecall
			return a, nil
		}
		return m.showHint(ctx, a), nil

	case StateAwaitHintResponse:
		a.Confidence = c
		if c == store.Remembers {
			a.State = StateAwaitSecondRecall
			return a, nil
		}
		a.State = StateRevealOriginal
		return a, nil
	}

	return a, &TransitionError{State: a.State, Action: "submit confidence"}
}

// SubmitRecallText scores a typed recall against the initial answer's
// keywords.
func (m *Machine) SubmitRecallText(ctx context.Context, a Attempt, text string) (Attempt, error) {
	switch a.State {
	case StateAwaitFirstRecall:
		count, ok := Passes(a.Keywords, text, m.cfg.KeywordMatchThreshold)
		a.RecallText = text
		a.MatchCount = count
		a.Step = store.StepInitialRecall
		if ok {
			a.HintProvided = false
			a.State = StateTerminalPass
			return a, nil
		}
		return m.showHint(ctx, a), nil

	case StateAwaitSecondRecall:
		count, ok := Passes(a.Keywords, text, m.cfg.KeywordMatchThreshold)
		a.RecallText = text
		a.MatchCount = count
		a.Step = store.StepPostHintRecall
		a.HintProvided = true
		if ok {
			a.State = StateTerminalPass
			return a, nil
		}
		a.State = StateRevealOriginal
		return a, nil
	}

	return a, &TransitionError{State: a.State, Action: "submit recall text"}
}

// AcknowledgeReveal ends an attempt whose original answer was shown.
func (m *Machine) AcknowledgeReveal(a Attempt) (Attempt, error) {
	if a.State != StateRevealOriginal {
		return a, &TransitionError{State: a.State, Action: "acknowledge reveal"}
	}
	a.Step = store.StepPostHintRecall
	a.HintProvided = true
	a.State = StateTerminalFail
	return a, nil
}

// showHint enters SHOW_HINT, requests an image and always lands on
// AWAIT_HINT_RESPONSE. A failed or timed-out generation is recorded in
// HintError.
func (m *Machine) showHint(ctx context.Context, a Attempt) Attempt {
	a.State = StateShowHint
	a.HintProvided = true
	a.Step = store.StepPostHintRecall
	a.HintURL, a.HintPrompt, a.HintError = "", "", ""

	url, prompt, err := m.generate(ctx, a.Keywords)
	a.HintPrompt = prompt
	if err != nil {
		a.HintError = err.Error()
	} else {
		a.HintURL = url
	}

	a.State = StateAwaitHintResponse
	return a
}

func (m *Machine) generate(ctx context.Context, keywords []string) (url, prompt string, err error) {
	if m.hints == nil || len(keywords) == 0 {
		return "", "", ErrNoHint
	}
	if p, ok := m.hints.(Prompter); ok {
		prompt = p.Prompt(keywords)
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.HintTimeout)
	defer cancel()

	type generated struct {
		url string
		err error
	}
	done := make(chan generated, 1)
	go func() {
		u, e := m.hints.GenerateHintImage(ctx, keywords)
		done <- generated{u, e}
	}()

	// Generators that ignore ctx still cannot hold the attempt past the timeout.
	select {
	case g := <-done:
		url, err = g.url, g.err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err == nil && url == "" {
		err = ErrNoHint
	}
	if err != nil {
		return "", prompt, fmt.Errorf("generate hint image: %w", err)
	}
	return url, prompt, nil
}
