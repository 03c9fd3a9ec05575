// Package chunking splits document text into token-bounded chunks and assigns
// each chunk a content-derived identity.
package chunking

import (
	"regexp"
	"strings"

	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
	"github.com/yungbote/docqa-backend/internal/platform/tokenizer"
)

const (
	DefaultMaxTokens     = 500
	DefaultOverlapTokens = 50
)

var sentenceBoundary = regexp.MustCompile(`[.!?]+\s+`)

// Options selects the chunking method and its token bounds.
type Options struct {
	Method        string
	MaxTokens     int
	OverlapTokens int
}

func DefaultOptions() Options {
	return Options{
		Method:        knowledge.MethodTokens,
		MaxTokens:     DefaultMaxTokens,
		OverlapTokens: DefaultOverlapTokens,
	}
}

// Validate rejects non-positive max tokens and negative overlap.
func (o Options) Validate() error {
	if o.MaxTokens <= 0 {
		return apperr.Rejected("max_tokens", "must be positive")
	}
	if o.OverlapTokens < 0 {
		return apperr.Rejected("overlap_tokens", "must not be negative")
	}
	return nil
}

// Chunker holds only its tokenizer and is safe for concurrent use.
type Chunker struct {
	tk tokenizer.Tokenizer
}

func New(tk tokenizer.Tokenizer) *Chunker {
	return &Chunker{tk: tk}
}

// Window is a half-open token range [Start, End).
type Window struct {
	Start int
	End   int
}

// TokenWindows computes the windows for n tokens. Each window covers
// maxTokens tokens plus overlapTokens of lookahead when tokens remain past it.
// The next window always starts maxTokens after the previous one.
func TokenWindows(n, maxTokens, overlapTokens int) []Window {
	if n <= 0 || maxTokens <= 0 {
		return nil
	}
	if overlapTokens < 0 {
		overlapTokens = 0
	}
	out := make([]Window, 0, n/maxTokens+1)
	for start := 0; start < n; start += maxTokens {
		end := start + maxTokens
		if end < n {
			end += overlapTokens
		}
		if end > n {
			end = n
		}
		out = append(out, Window{Start: start, End: end})
	}
	return out
}

// ChunkByTokens splits text into windows of maxTokens tokens with a trailing
// overlap. Windows that decode to blank text are dropped.
func (c *Chunker) ChunkByTokens(text string, maxTokens, overlapTokens int) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}
	if err := (Options{MaxTokens: maxTokens, OverlapTokens: overlapTokens}).Validate(); err != nil {
		return nil, err
	}
	tokens := c.tk.Encode(text)
	windows := TokenWindows(len(tokens), maxTokens, overlapTokens)
	out := make([]string, 0, len(windows))
	for _, w := range windows {
		chunk := Clean(c.tk.Decode(tokens[w.Start:w.End]))
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	return out, nil
}

// ChunkBySentences greedily packs sentences while the packed text stays within
// maxTokens. A sentence that alone exceeds maxTokens is split by tokens with
// no overlap.
func (c *Chunker) ChunkBySentences(text string, maxTokens int) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}
	if err := (Options{MaxTokens: maxTokens}).Validate(); err != nil {
		return nil, err
	}

	out := []string{}
	current := ""
	for _, raw := range sentenceBoundary.Split(text, -1) {
		sentence := Clean(raw)
		if sentence == "" {
			continue
		}
		candidate := sentence
		if current != "" {
			candidate = current + " " + sentence
		}
		if tokenizer.Count(c.tk, candidate) <= maxTokens {
			current = candidate
			continue
		}
		if current != "" {
			out = append(out, current)
			current = ""
		}
		if tokenizer.Count(c.tk, sentence) > maxTokens {
			parts, err := c.ChunkByTokens(sentence, maxTokens, 0)
			if err != nil {
				return nil, err
			}
			out = append(out, parts...)
			continue
		}
		current = sentence
	}
	if current != "" {
		out = append(out, current)
	}
	return out, nil
}

// Chunk dispatches on opts.Method.
func (c *Chunker) Chunk(text string, opts Options) ([]string, error) {
	if knowledge.NormalizeMethod(opts.Method) == knowledge.MethodSentences {
		return c.ChunkBySentences(text, opts.MaxTokens)
	}
	return c.ChunkByTokens(text, opts.MaxTokens, opts.OverlapTokens)
}

// ChunkDocument chunks text and builds a Chunk record per piece, carrying the
// document provenance and the position of each chunk in the sequence.
func (c *Chunker) ChunkDocument(text string, prov knowledge.Provenance, opts Options) ([]knowledge.Chunk, error) {
	pieces, err := c.Chunk(text, opts)
	if err != nil {
		return nil, err
	}
	method := strings.TrimSpace(opts.Method)
	if method == "" {
		method = knowledge.MethodTokens
	}
	out := make([]knowledge.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		out = append(out, BuildChunk(piece, prov, knowledge.ChunkMetadata{
			ChunkIndex:  i,
			TotalChunks: len(pieces),
			Method:      method,
		}))
	}
	return out, nil
}

// Clean collapses whitespace runs to a single space and trims the result.
func Clean(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
