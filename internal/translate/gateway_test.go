package translate_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/wayfarer/internal/translate"
)

type mockProvider struct {
	name        string
	calls       atomic.Int32
	translateFn func(ctx context.Context, r translate.Request) translate.Result
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Translate(ctx context.Context, r translate.Request) translate.Result {
	m.calls.Add(1)
	return m.translateFn(ctx, r)
}

func returning(name string, res translate.Result) *mockProvider {
	return &mockProvider{name: name, translateFn: func(context.Context, translate.Request) translate.Result { return res }}
}

func discardLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newGateway(opts ...translate.Option) *translate.Gateway {
	return translate.NewGateway(translate.Config{}, append([]translate.Option{translate.WithLogger(discardLog())}, opts...)...)
}

func TestTranslate_SameLanguageNoCalls(t *testing.T) {
	p := returning("primary", translate.Ok("should not be used"))
	g := newGateway(translate.WithProviders(p))

	assert.Equal(t, "Ciao", g.Translate(context.Background(), "Ciao", "it", "it"))
	assert.Equal(t, "Ciao", g.Translate(context.Background(), "Ciao", "IT", "it"))
	assert.Zero(t, p.calls.Load())
}

func TestTranslate_EmptyInput(t *testing.T) {
	p := returning("primary", translate.Ok("x"))
	g := newGateway(translate.WithProviders(p))

	assert.Equal(t, "", g.Translate(context.Background(), "   ", "it", "en"))
	assert.Zero(t, p.calls.Load())
}

func TestTranslate_AllProvidersDownReturnsOriginal(t *testing.T) {
	a := returning("a", translate.Failed("503"))
	b := returning("b", translate.Empty())
	c := returning("c", translate.Failed("timeout"))
	g := newGateway(translate.WithProviders(a, b, c))

	out := g.Do(context.Background(), translate.Request{Text: "Dov'è il museo?", Source: "it", Target: "en"})
	assert.Equal(t, "Dov'è il museo?", out.Text)
	assert.False(t, out.Translated())
	assert.EqualValues(t, 1, a.calls.Load())
	assert.EqualValues(t, 1, b.calls.Load())
	assert.EqualValues(t, 1, c.calls.Load())
}

func TestTranslate_EchoRejectedFallsThrough(t *testing.T) {
	echo := &mockProvider{name: "echo", translateFn: func(_ context.Context, r translate.Request) translate.Result {
		return translate.Ok(r.Text)
	}}
	fallback := returning("fallback", translate.Ok("Where is the museum?"))
	g := newGateway(translate.WithProviders(echo, fallback))

	out := g.Do(context.Background(), translate.Request{Text: "Dov'è il museo?", Source: "it", Target: "en"})
	assert.Equal(t, "Where is the museum?", out.Text)
	assert.Equal(t, "fallback", out.Source)
	assert.EqualValues(t, 1, echo.calls.Load())
	assert.EqualValues(t, 1, fallback.calls.Load())
}

func TestTranslate_PrimaryWinsAndStopsChain(t *testing.T) {
	primary := returning("primary", translate.Ok("Good morning"))
	fallback := returning("fallback", translate.Ok("Morning"))
	g := newGateway(translate.WithPrimary(primary), translate.WithProviders(fallback))

	assert.Equal(t, "Good morning", g.Translate(context.Background(), "Buongiorno a tutti", "auto", "en"))
	assert.Zero(t, fallback.calls.Load())
	assert.Equal(t, []string{"primary", "fallback"}, g.Providers())
}

func TestTranslate_PrimaryDetectsSourceFallbacksKeepIt(t *testing.T) {
	var primarySrc, fallbackSrc string
	primary := &mockProvider{name: "primary", translateFn: func(_ context.Context, r translate.Request) translate.Result {
		primarySrc = r.Source
		return translate.Failed("quota exceeded")
	}}
	fallback := &mockProvider{name: "fallback", translateFn: func(_ context.Context, r translate.Request) translate.Result {
		fallbackSrc = r.Source
		return translate.Ok("Good morning")
	}}
	g := newGateway(translate.WithPrimary(primary), translate.WithProviders(fallback))

	out := g.Do(context.Background(), translate.Request{Text: "Buongiorno", Source: "it", Target: "en"})
	assert.Equal(t, "Good morning", out.Text)
	assert.Equal(t, translate.Auto, primarySrc)
	assert.Equal(t, "it", fallbackSrc)
}

func TestTranslate_CleansOutput(t *testing.T) {
	p := returning("p", translate.Ok("Hello ,  “world”   !"))
	g := newGateway(translate.WithProviders(p))

	assert.Equal(t, `Hello, "world"!`, g.Translate(context.Background(), "Ciao mondo", "it", "en"))
}

func TestTranslate_PhrasebookShortCircuit(t *testing.T) {
	p := returning("p", translate.Ok("nope"))
	g := newGateway(translate.WithProviders(p), translate.WithPhrasebook(translate.DefaultPhrasebook()))

	out := g.Do(context.Background(), translate.Request{Text: "  dov’è la   STAZIONE ? ", Source: "it", Target: "en"})
	assert.Equal(t, "Where is the station?", out.Text)
	assert.Equal(t, "phrasebook", out.Source)
	assert.True(t, out.Translated())

	assert.Equal(t, "Danke", g.Translate(context.Background(), "Grazie!", "it", "de"))
	assert.Zero(t, p.calls.Load())
}

func TestTranslate_PhrasebookSkippedForAutoSource(t *testing.T) {
	p := returning("p", translate.Ok("Thanks"))
	g := newGateway(translate.WithProviders(p), translate.WithPhrasebook(translate.DefaultPhrasebook()))

	assert.Equal(t, "Thanks", g.Translate(context.Background(), "Grazie", "auto", "en"))
	assert.EqualValues(t, 1, p.calls.Load())
}

func TestTranslate_InvalidLanguageReturnsOriginal(t *testing.T) {
	p := returning("p", translate.Ok("x"))
	g := newGateway(translate.WithProviders(p))

	assert.Equal(t, "Ciao", g.Translate(context.Background(), "Ciao", "i", "en"))
	assert.Equal(t, "Ciao", g.Translate(context.Background(), "Ciao", "it", "auto"))
	assert.Equal(t, "Ciao", g.Translate(context.Background(), "Ciao", "it", "english"))
	assert.Zero(t, p.calls.Load())
}

func TestTranslate_PanickingProviderIsSkipped(t *testing.T) {
	bad := &mockProvider{name: "bad", translateFn: func(context.Context, translate.Request) translate.Result {
		panic("boom")
	}}
	good := returning("good", translate.Ok("Hello"))
	g := newGateway(translate.WithProviders(bad, good))

	assert.Equal(t, "Hello", g.Translate(context.Background(), "Ciao", "it", "en"))
}

func TestTranslate_CancelledContextStopsChain(t *testing.T) {
	p := returning("p", translate.Ok("Hello"))
	g := newGateway(translate.WithProviders(p))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, "Ciao", g.Translate(ctx, "Ciao", "it", "en"))
	assert.Zero(t, p.calls.Load())
}

func TestTranslateBatch_PreservesOrder(t *testing.T) {
	p := &mockProvider{name: "upper", translateFn: func(_ context.Context, r translate.Request) translate.Result {
		return translate.Ok("EN:" + r.Text)
	}}
	g := newGateway(translate.WithProviders(p))

	in := []string{"uno", "due", "", "tre", "quattro", "cinque"}
	out := g.TranslateBatch(context.Background(), in, "it", "en")
	assert.Equal(t, []string{"EN:uno", "EN:due", "", "EN:tre", "EN:quattro", "EN:cinque"}, out)
	assert.EqualValues(t, 5, p.calls.Load())
}

func TestNewGateway_ChainFromConfig(t *testing.T) {
	g := translate.NewGateway(translate.Config{
		Provider:       translate.ProviderDeepL,
		LibreEndpoints: []string{"http://libre.local/"},
	}, translate.WithLogger(discardLog()))

	assert.Equal(t, []string{"libretranslate(http://libre.local)", "mymemory"}, g.Providers())

	g = translate.NewGateway(translate.Config{
		Provider:        translate.ProviderGoogle,
		GoogleKey:       "k",
		LibreEndpoints:  []string{},
		DisableMyMemory: true,
	}, translate.WithLogger(discardLog()))
	assert.Equal(t, []string{"google"}, g.Providers())

	g = translate.NewGateway(translate.Config{}, translate.WithLogger(discardLog()))
	require.Len(t, g.Providers(), len(translate.DefaultLibreEndpoints)+1)
}

type mapCache struct {
	entries map[string]string
	sets    int
}

func (m *mapCache) key(r translate.Request) string { return r.Source + "|" + r.Target + "|" + r.Text }

func (m *mapCache) GetTranslation(_ context.Context, r translate.Request) (string, bool, error) {
	s, ok := m.entries[m.key(r)]
	return s, ok, nil
}

func (m *mapCache) SetTranslation(_ context.Context, r translate.Request, text string) error {
	m.entries[m.key(r)] = text
	m.sets++
	return nil
}

func TestTranslate_CacheStoresOnlyProviderResults(t *testing.T) {
	c := &mapCache{entries: map[string]string{}}
	p := returning("p", translate.Ok("Good evening"))
	failing := returning("f", translate.Failed("down"))

	g := newGateway(translate.WithProviders(p), translate.WithCache(c))
	first := g.Do(context.Background(), translate.Request{Text: " Buonasera ", Source: "IT", Target: "en"})
	assert.Equal(t, "p", first.Source)
	assert.Equal(t, "Good evening", c.entries["it|en|Buonasera"])

	second := g.Do(context.Background(), translate.Request{Text: "Buonasera", Source: "it", Target: "en"})
	assert.Equal(t, "cache", second.Source)
	assert.Equal(t, "Good evening", second.Text)
	assert.EqualValues(t, 1, p.calls.Load())

	g = newGateway(translate.WithProviders(failing), translate.WithCache(c))
	assert.Equal(t, "Buonanotte", g.Translate(context.Background(), "Buonanotte", "it", "en"))
	assert.Equal(t, 1, c.sets, "failures must not be cached")
}
