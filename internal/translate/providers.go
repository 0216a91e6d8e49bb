package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	deeplFreeURL  = "https://api-free.deepl.com/v2/translate"
	deeplProURL   = "https://api.deepl.com/v2/translate"
	googleURL     = "https://translation.googleapis.com/language/translate/v2"
	myMemoryURL   = "https://api.mymemory.translated.net/get"
	libreEndpoint = "/translate"
)

// DefaultLibreEndpoints are public LibreTranslate instances that accept
// keyless requests.
var DefaultLibreEndpoints = []string{
	"https://libretranslate.com",
	"https://translate.argosopentech.com",
	"https://libretranslate.de",
}

// ---- DeepL ----

// DeepL calls the DeepL v2 API.
type DeepL struct {
	key     string
	baseURL string
	client  *http.Client
	retry   RetryPolicy
}

// NewDeepL constructs a DeepL provider. Free-tier keys (":fx" suffix) are
// routed to the free endpoint.
func NewDeepL(key string, retry RetryPolicy) (*DeepL, error) {
	endpoint := deeplProURL
	if strings.HasSuffix(key, ":fx") {
		endpoint = deeplFreeURL
	}
	return NewDeepLWithURL(endpoint, key, retry)
}

// NewDeepLWithURL constructs a DeepL provider against a custom URL (for tests).
func NewDeepLWithURL(baseURL, key string, retry RetryPolicy) (*DeepL, error) {
	if key == "" {
		return nil, fmt.Errorf("deepl: %w", ErrNoKey)
	}
	return &DeepL{key: key, baseURL: baseURL, client: newHTTPClient(), retry: retry}, nil
}

func (d *DeepL) Name() string { return "deepl" }

type deeplResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

// Translate implements Provider. Source "auto" is sent as no source_lang,
// which makes DeepL detect it.
func (d *DeepL) Translate(ctx context.Context, r Request) Result {
	form := url.Values{}
	form.Set("text", r.Text)
	form.Set("target_lang", deeplLang(r.Target, true))
	if r.Source != Auto {
		form.Set("source_lang", deeplLang(r.Source, false))
	}

	return d.retry.do(ctx, func(ctx context.Context) (string, error) {
		req, err := newRequest(ctx, http.MethodPost, d.baseURL, "application/x-www-form-urlencoded", form.Encode())
		if err != nil {
			return "", err
		}
		req.Header.Set("Authorization", "DeepL-Auth-Key "+d.key)

		var raw deeplResponse
		if err := doRequest(d.client, req, &raw); err != nil {
			return "", err
		}
		if len(raw.Translations) == 0 {
			return "", nil
		}
		return raw.Translations[0].Text, nil
	})
}

// ---- Google Cloud Translation v2 ----

// Google calls the Cloud Translation v2 REST API.
type Google struct {
	key     string
	baseURL string
	client  *http.Client
	retry   RetryPolicy
}

// NewGoogle constructs a Google provider.
func NewGoogle(key string, retry RetryPolicy) (*Google, error) {
	return NewGoogleWithURL(googleURL, key, retry)
}

// NewGoogleWithURL constructs a Google provider against a custom URL (for tests).
func NewGoogleWithURL(baseURL, key string, retry RetryPolicy) (*Google, error) {
	if key == "" {
		return nil, fmt.Errorf("google: %w", ErrNoKey)
	}
	return &Google{key: key, baseURL: baseURL, client: newHTTPClient(), retry: retry}, nil
}

func (g *Google) Name() string { return "google" }

type googleRequest struct {
	Q      string `json:"q"`
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type googleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

// Translate implements Provider. An omitted source asks Google to detect it.
func (g *Google) Translate(ctx context.Context, r Request) Result {
	body := googleRequest{Q: r.Text, Target: googleLang(r.Target), Format: "text"}
	if r.Source != Auto {
		body.Source = googleLang(r.Source)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Failed(fmt.Sprintf("encoding google request: %v", err))
	}
	endpoint := g.baseURL + "?" + url.Values{"key": {g.key}}.Encode()

	return g.retry.do(ctx, func(ctx context.Context) (string, error) {
		req, err := newRequest(ctx, http.MethodPost, endpoint, "application/json", string(payload))
		if err != nil {
			return "", err
		}
		var raw googleResponse
		if err := doRequest(g.client, req, &raw); err != nil {
			return "", err
		}
		if len(raw.Data.Translations) == 0 {
			return "", nil
		}
		return raw.Data.Translations[0].TranslatedText, nil
	})
}

// ---- LibreTranslate ----

// Libre calls one LibreTranslate instance. The gateway builds one per
// configured endpoint and tries them in order.
type Libre struct {
	endpoint string
	apiKey   string
	client   *http.Client
	retry    RetryPolicy
}

// NewLibre constructs a provider for the instance at baseURL. apiKey may be
// empty for public instances.
func NewLibre(baseURL, apiKey string, retry RetryPolicy) *Libre {
	return &Libre{
		endpoint: strings.TrimRight(baseURL, "/") + libreEndpoint,
		apiKey:   apiKey,
		client:   newHTTPClient(),
		retry:    retry,
	}
}

func (l *Libre) Name() string { return "libretranslate(" + strings.TrimSuffix(l.endpoint, libreEndpoint) + ")" }

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate implements Provider.
func (l *Libre) Translate(ctx context.Context, r Request) Result {
	src := Auto
	if r.Source != Auto {
		src = libreLang(r.Source)
	}
	payload, err := json.Marshal(libreRequest{
		Q: r.Text, Source: src, Target: libreLang(r.Target), Format: "text", APIKey: l.apiKey,
	})
	if err != nil {
		return Failed(fmt.Sprintf("encoding libretranslate request: %v", err))
	}

	return l.retry.do(ctx, func(ctx context.Context) (string, error) {
		req, err := newRequest(ctx, http.MethodPost, l.endpoint, "application/json", string(payload))
		if err != nil {
			return "", err
		}
		var raw libreResponse
		if err := doRequest(l.client, req, &raw); err != nil {
			return "", err
		}
		return raw.TranslatedText, nil
	})
}

// ---- MyMemory ----

// MyMemory calls the keyless MyMemory API.
type MyMemory struct {
	baseURL string
	client  *http.Client
	retry   RetryPolicy
}

// NewMyMemory constructs a MyMemory provider.
func NewMyMemory(retry RetryPolicy) *MyMemory {
	return NewMyMemoryWithURL(myMemoryURL, retry)
}

// NewMyMemoryWithURL constructs a MyMemory provider against a custom URL (for tests).
func NewMyMemoryWithURL(baseURL string, retry RetryPolicy) *MyMemory {
	return &MyMemory{baseURL: baseURL, client: newHTTPClient(), retry: retry}
}

func (m *MyMemory) Name() string { return "mymemory" }

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	// MyMemory sends the status as a number or a string.
	ResponseStatus json.RawMessage `json:"responseStatus"`
}

// Translate implements Provider. MyMemory reports quota and validation
// errors in the body with a 200 HTTP status.
func (m *MyMemory) Translate(ctx context.Context, r Request) Result {
	src := "autodetect"
	if r.Source != Auto {
		src = myMemoryLang(r.Source)
	}
	q := url.Values{}
	q.Set("q", r.Text)
	q.Set("langpair", src+"|"+myMemoryLang(r.Target))
	endpoint := m.baseURL + "?" + q.Encode()

	return m.retry.do(ctx, func(ctx context.Context) (string, error) {
		req, err := newRequest(ctx, http.MethodGet, endpoint, "", "")
		if err != nil {
			return "", err
		}
		var raw myMemoryResponse
		if err := doRequest(m.client, req, &raw); err != nil {
			return "", err
		}
		if status := string(bytes.Trim(raw.ResponseStatus, `"`)); status != "" && status != "200" {
			return "", fmt.Errorf("mymemory status %s: %s", status, raw.ResponseData.TranslatedText)
		}
		return raw.ResponseData.TranslatedText, nil
	})
}
