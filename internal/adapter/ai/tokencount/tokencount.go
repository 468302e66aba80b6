// Package tokencount bounds prompt sizes with real tokenizer counts.
//
// It uses tiktoken-go, a Go port of OpenAI's tiktoken library, so the text
// handed to a prompt is truncated on token boundaries rather than bytes.
package tokencount

import (
	"log/slog"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Budgeter truncates text to a token budget using a fixed encoding.
// Safe for concurrent use.
type Budgeter struct {
	encoding string

	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// NewBudgeter creates a Budgeter for the given encoding name; empty selects
// cl100k_base.
func NewBudgeter(encoding string) *Budgeter {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	return &Budgeter{encoding: encoding}
}

func (b *Budgeter) tokenizer() *tiktoken.Tiktoken {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.enc != nil {
		return b.enc
	}
	enc, err := tiktoken.GetEncoding(b.encoding)
	if err != nil {
		slog.Warn("tokenizer unavailable, falling back to cl100k_base",
			slog.String("encoding", b.encoding),
			slog.Any("error", err))
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil
		}
	}
	b.enc = enc
	return b.enc
}

// Count returns the token count of s, or 0 when no tokenizer is available.
func (b *Budgeter) Count(s string) int {
	enc := b.tokenizer()
	if enc == nil {
		return 0
	}
	return len(enc.Encode(s, nil, nil))
}

// Truncate returns s cut to at most budget tokens. A non-positive budget or a
// missing tokenizer returns s unchanged.
func (b *Budgeter) Truncate(s string, budget int) string {
	if budget <= 0 {
		return s
	}
	enc := b.tokenizer()
	if enc == nil {
		return s
	}
	ids := enc.Encode(s, nil, nil)
	if len(ids) <= budget {
		return s
	}
	return enc.Decode(ids[:budget])
}
