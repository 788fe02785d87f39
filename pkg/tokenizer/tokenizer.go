package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the encoding used when none is configured.
const DefaultEncoding = "cl100k_base"

// Counter counts tokenizer units of already-known text. Counting is local
// and in-process; it must never perform network calls, every budget decision
// in context packing sits on top of it.
type Counter interface {
	Count(text string) int
}

// Tiktoken is a Counter backed by a pkoukk/tiktoken-go encoding.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// New returns a Tiktoken counter for the named encoding. Failing to resolve
// the encoding is fatal for the run; token counts are load-bearing for every
// packing invariant, so callers must not continue without one.
func New(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoding %q: %w", encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (t *Tiktoken) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}
