package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates prompt sizes with a tiktoken encoding. The encoding is
// resolved on first use because tiktoken may download its BPE ranks.
type TokenCounter struct {
	model string
	once  sync.Once
	enc   *tiktoken.Tiktoken
	err   error
}

func NewTokenCounter(model string) *TokenCounter {
	return &TokenCounter{model: model}
}

// Count returns the number of tokens in s, or an error when no encoding is available.
func (c *TokenCounter) Count(s string) (int, error) {
	c.once.Do(func() {
		c.enc, c.err = tiktoken.EncodingForModel(c.model)
		if c.err != nil {
			c.enc, c.err = tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		}
	})
	if c.err != nil {
		return 0, c.err
	}
	return len(c.enc.Encode(s, nil, nil)), nil
}
