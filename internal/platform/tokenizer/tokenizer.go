// Package tokenizer wraps a deterministic byte-pair encoder used to bound
// chunk sizes. The default encoding is cl100k_base.
package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const DefaultEncoding = "cl100k_base"

// Tokenizer converts text to token ids and back. Implementations must be
// deterministic and safe for concurrent use.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type bpe struct {
	enc *tiktoken.Tiktoken
}

var (
	cacheMu sync.Mutex
	cache   = map[string]Tokenizer{}
)

// New returns the shared tokenizer for encoding. Encoders are loaded once per
// process; the BPE ranks are read from TIKTOKEN_CACHE_DIR when present.
func New(encoding string) (Tokenizer, error) {
	encoding = strings.TrimSpace(encoding)
	if encoding == "" {
		encoding = DefaultEncoding
	}
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if tk, ok := cache[encoding]; ok {
		return tk, nil
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %q: %w", encoding, err)
	}
	tk := &bpe{enc: enc}
	cache[encoding] = tk
	return tk, nil
}

func (b *bpe) Encode(text string) []int {
	if text == "" {
		return nil
	}
	return b.enc.Encode(text, nil, nil)
}

// Decode joins the byte sequences of tokens. A window cut inside a multi-byte
// character yields U+FFFD for the partial rune.
func (b *bpe) Decode(tokens []int) string {
	if len(tokens) == 0 {
		return ""
	}
	return strings.ToValidUTF8(b.enc.Decode(tokens), "\uFFFD")
}

// Count returns the number of tokens in text.
func Count(tk Tokenizer, text string) int {
	return len(tk.Encode(text))
}
