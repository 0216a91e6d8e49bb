// Package translate is the translation gateway: phrasebook short-circuit, a
// configured primary provider, keyless fallbacks, output cleanup and echo
// rejection. Gateway methods never fail; the worst case is the input text.
package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Provider names accepted in Config.Provider.
const (
	ProviderNone   = "none"
	ProviderDeepL  = "deepl"
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"
)

const batchConcurrency = 4

// Config is the gateway's read-only configuration.
type Config struct {
	// Provider selects the primary backend: deepl, google, openai or none.
	Provider      string
	DeepLKey      string
	GoogleKey     string
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	// LibreEndpoints are tried in order after the primary. nil selects
	// DefaultLibreEndpoints; an empty non-nil slice disables LibreTranslate.
	LibreEndpoints  []string
	LibreKey        string
	DisableMyMemory bool

	Attempts      int
	BackoffStep   time.Duration
	EchoThreshold float64
}

// Cache stores accepted provider translations. internal/cache implements it
// over Redis.
type Cache interface {
	GetTranslation(ctx context.Context, r Request) (string, bool, error)
	SetTranslation(ctx context.Context, r Request, text string) error
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithPhrasebook enables the phrasebook short-circuit.
func WithPhrasebook(pb Phrasebook) Option {
	return func(g *Gateway) { g.phrasebook = pb }
}

// WithCache consults c before the providers and stores provider results in it.
func WithCache(c Cache) Option {
	return func(g *Gateway) { g.cache = c }
}

// WithLogger sets the logger used for provider failures.
func WithLogger(log *slog.Logger) Option {
	return func(g *Gateway) { g.log = log }
}

// WithSleep replaces the backoff sleep (used in tests).
func WithSleep(fn SleepFunc) Option {
	return func(g *Gateway) { g.sleep = fn }
}

// WithPrimary replaces the configured primary provider. It is asked to
// detect the source language itself.
func WithPrimary(p Provider) Option {
	return func(g *Gateway) { g.primaryOverride, g.overridden = p, true }
}

// WithProviders replaces the configured fallback chain. Fallbacks receive
// the caller's source language.
func WithProviders(providers ...Provider) Option {
	return func(g *Gateway) { g.override, g.overridden = providers, true }
}

// Gateway translates text through an ordered provider chain. It holds no
// per-request state and is safe for concurrent use.
type Gateway struct {
	primary    Provider
	providers  []Provider
	phrasebook Phrasebook
	cache      Cache
	threshold  float64
	sleep      SleepFunc
	log        *slog.Logger

	overridden      bool
	primaryOverride Provider
	override        []Provider
}

// Outcome describes how a translation was produced.
type Outcome struct {
	Text string `json:"text"`
	// Source is "phrasebook", "passthrough", "cache", a provider name, or
	// empty when every stage failed and Text is the input.
	Source string `json:"source,omitempty"`
}

// Translated reports whether Text came from the phrasebook or a provider.
func (o Outcome) Translated() bool {
	return o.Source != "" && o.Source != sourcePassthrough
}

const (
	sourcePhrasebook  = "phrasebook"
	sourcePassthrough = "passthrough"
	sourceCache       = "cache"
)

// NewGateway builds the provider chain from cfg. Providers whose key is
// missing are skipped.
func NewGateway(cfg Config, opts ...Option) *Gateway {
	g := &Gateway{threshold: cfg.EchoThreshold}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = slog.Default()
	}
	if g.threshold <= 0 {
		g.threshold = EchoThreshold
	}

	if g.overridden {
		g.primary, g.providers = g.primaryOverride, g.override
		return g
	}

	retry := RetryPolicy{Attempts: cfg.Attempts, Step: cfg.BackoffStep, Sleep: g.sleep}
	if retry.Attempts <= 0 {
		retry.Attempts = DefaultAttempts
	}
	if retry.Step <= 0 {
		retry.Step = DefaultBackoffStep
	}

	if p, err := primary(cfg, retry); err != nil {
		g.log.Info("primary translation provider disabled", "provider", cfg.Provider, "err", err)
	} else {
		g.primary = p
	}

	endpoints := cfg.LibreEndpoints
	if endpoints == nil {
		endpoints = DefaultLibreEndpoints
	}
	for _, e := range endpoints {
		g.providers = append(g.providers, NewLibre(e, cfg.LibreKey, retry))
	}
	if !cfg.DisableMyMemory {
		g.providers = append(g.providers, NewMyMemory(retry))
	}

	return g
}

func primary(cfg Config, retry RetryPolicy) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderNone:
		return nil, nil
	case ProviderDeepL:
		return NewDeepL(cfg.DeepLKey, retry)
	case ProviderGoogle:
		return NewGoogle(cfg.GoogleKey, retry)
	case ProviderOpenAI:
		return NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, retry)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// Providers lists the chain's provider names in the order they are tried.
func (g *Gateway) Providers() []string {
	var names []string
	for _, p := range g.chain() {
		names = append(names, p.Name())
	}
	return names
}

func (g *Gateway) chain() []Provider {
	if g.primary == nil {
		return g.providers
	}
	return append([]Provider{g.primary}, g.providers...)
}

// Translate returns the best translation of text, or text itself when no
// stage produced an acceptable one.
func (g *Gateway) Translate(ctx context.Context, text, source, target string) string {
	return g.Do(ctx, Request{Text: text, Source: source, Target: target}).Text
}

// Do runs the full pipeline and reports which stage answered.
func (g *Gateway) Do(ctx context.Context, r Request) Outcome {
	if strings.TrimSpace(r.Text) == "" {
		return Outcome{}
	}
	original := Outcome{Text: r.Text}

	src, err := NormalizeLang(r.Source)
	if err != nil {
		g.log.Warn("invalid source language", "lang", r.Source, "err", err)
		return original
	}
	dst, err := NormalizeLang(r.Target)
	if err != nil || dst == Auto {
		g.log.Warn("invalid target language", "lang", r.Target, "err", err)
		return original
	}

	if src == dst {
		return Outcome{Text: r.Text, Source: sourcePassthrough}
	}

	if g.phrasebook != nil && src != Auto {
		if hit, ok := lookupPhrase(g.phrasebook, r.Text, src, dst); ok {
			return Outcome{Text: hit, Source: sourcePhrasebook}
		}
	}

	req := Request{Text: strings.TrimSpace(r.Text), Source: src, Target: dst}
	if g.cache != nil {
		text, ok, err := g.cache.GetTranslation(ctx, req)
		if err != nil {
			g.log.Warn("translation cache read failed", "err", err)
		} else if ok {
			return Outcome{Text: text, Source: sourceCache}
		}
	}

	for i, p := range g.chain() {
		if ctx.Err() != nil {
			break
		}
		call := req
		if i == 0 && g.primary != nil {
			call.Source = Auto
		}
		if text, ok := g.accept(ctx, p, call); ok {
			if g.cache != nil {
				if err := g.cache.SetTranslation(ctx, req, text); err != nil {
					g.log.Warn("translation cache write failed", "err", err)
				}
			}
			return Outcome{Text: text, Source: p.Name()}
		}
	}

	return original
}

// accept runs one provider and applies cleanup and echo rejection.
func (g *Gateway) accept(ctx context.Context, p Provider, req Request) (text string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			g.log.Error("translation provider panicked", "provider", p.Name(), "recover", rec)
			text, ok = "", false
		}
	}()

	res := p.Translate(ctx, req)
	switch res.Kind {
	case ResultOK:
		cleaned := Clean(res.Text)
		if cleaned == "" {
			return "", false
		}
		if IsEcho(req.Text, cleaned, g.threshold) {
			g.log.Debug("translation rejected as echo", "provider", p.Name())
			return "", false
		}
		return cleaned, true
	case ResultEmpty:
		g.log.Debug("translation provider returned nothing", "provider", p.Name())
	case ResultFailed:
		if !errors.Is(ctx.Err(), context.Canceled) {
			g.log.Warn("translation provider failed", "provider", p.Name(), "reason", res.Reason)
		}
	}
	return "", false
}

// TranslateBatch translates independent lines concurrently. Output order
// matches input order and each line follows Translate's contract.
func (g *Gateway) TranslateBatch(ctx context.Context, texts []string, source, target string) []string {
	out := make([]string, len(texts))

	var eg errgroup.Group
	eg.SetLimit(batchConcurrency)
	for i, text := range texts {
		eg.Go(func() error {
			out[i] = g.Translate(ctx, text, source, target)
			return nil
		})
	}
	_ = eg.Wait()

	return out
}
