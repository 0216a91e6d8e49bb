package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// Speaker reads text aloud.
type Speaker interface {
	Speak(ctx context.Context, text, lang string) error
	Stop(ctx context.Context) error
}

// NopSpeaker is used where no text-to-speech engine is available.
type NopSpeaker struct{}

func (NopSpeaker) Speak(context.Context, string, string) error { return nil }
func (NopSpeaker) Stop(context.Context) error                  { return nil }

// Say speaks text if it is non-empty. Speaker failures are logged, never
// returned: playback is best effort.
func Say(ctx context.Context, sp Speaker, text, lang string, log *slog.Logger) {
	if text == "" || sp == nil {
		return
	}
	if err := sp.Speak(ctx, text, lang); err != nil {
		if log == nil {
			log = slog.Default()
		}
		log.Warn("speaking text", "lang", lang, "err", err)
	}
}

// ExecSpeaker speaks through an external TTS command such as espeak-ng or
// say. In Args, "{lang}" and "{text}" are replaced per call; when no arg
// mentions "{text}" the text is written to the command's stdin. A "--" is
// inserted before substituted text that starts with "-".
type ExecSpeaker struct {
	Name string
	Args []string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewExecSpeaker returns a speaker for the named command.
func NewExecSpeaker(name string, args ...string) *ExecSpeaker {
	return &ExecSpeaker{Name: name, Args: args}
}

// Speak runs the command and waits for it to finish. A running utterance is
// interrupted first.
func (s *ExecSpeaker) Speak(ctx context.Context, text, lang string) error {
	if lang == "" {
		lang = DefaultLang
	}

	repl := strings.NewReplacer("{lang}", lang, "{text}", text)
	args := make([]string, 0, len(s.Args)+1)
	inline, guarded := false, false
	for _, a := range s.Args {
		if a == "--" {
			guarded = true
		}
		if strings.Contains(a, "{text}") {
			inline = true
		}
		arg := repl.Replace(a)
		// Text that looks like a flag must stay an operand.
		if !guarded && strings.HasPrefix(arg, "-") && !strings.HasPrefix(a, "-") {
			args = append(args, "--")
			guarded = true
		}
		args = append(args, arg)
	}

	cmd := exec.CommandContext(ctx, s.Name, args...)
	if !inline {
		cmd.Stdin = strings.NewReader(text)
	}

	s.mu.Lock()
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("starting %s: %w", s.Name, err)
	}
	s.cmd = cmd
	s.mu.Unlock()

	err := cmd.Wait()

	s.mu.Lock()
	if s.cmd == cmd {
		s.cmd = nil
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("running %s: %w", s.Name, err)
	}
	return nil
}

// Stop interrupts the current utterance, if any.
func (s *ExecSpeaker) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}
	err := s.cmd.Process.Kill()
	s.cmd = nil
	return err
}
