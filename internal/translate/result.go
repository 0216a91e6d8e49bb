package translate

import (
	"context"
	"errors"
)

// ErrNoKey is returned by providers constructed without the API key they need.
var ErrNoKey = errors.New("translate: provider has no api key")

// Kind tags a provider Result.
type Kind int

const (
	ResultOK Kind = iota
	ResultEmpty
	ResultFailed
)

func (k Kind) String() string {
	switch k {
	case ResultOK:
		return "ok"
	case ResultEmpty:
		return "empty"
	case ResultFailed:
		return "failed"
	}
	return "unknown"
}

// Result is what a provider produced for one request. Text is set only for
// ResultOK and Reason only for ResultFailed.
type Result struct {
	Kind   Kind
	Text   string
	Reason string
}

// Ok wraps a successful translation.
func Ok(text string) Result { return Result{Kind: ResultOK, Text: text} }

// Empty reports that the provider answered without a translation.
func Empty() Result { return Result{Kind: ResultEmpty} }

// Failed reports a provider error.
func Failed(reason string) Result { return Result{Kind: ResultFailed, Reason: reason} }

// Request is a single translation request. Source may be "auto".
type Request struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Provider is a translation backend. Implementations never panic on upstream
// errors; they report them as a Failed result.
type Provider interface {
	Name() string
	Translate(ctx context.Context, req Request) Result
}
