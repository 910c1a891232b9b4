// Package tokenizer estimates the token weight of a prompt before it is
// sent, so a host can pair an admission check with the size of the request
// it is about to dispatch. Estimates feed pre-flight decisions only; the
// ledger records the provider-reported counts after the call completes.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// codecForModel maps model names to tiktoken encodings. Models not listed
// here fall back to character-based estimation.
var codecForModel = map[string]tokenizer.Encoding{
	"gpt-4o":        tokenizer.O200kBase,
	"gpt-4o-mini":   tokenizer.O200kBase,
	"o1":            tokenizer.O200kBase,
	"o1-mini":       tokenizer.O200kBase,
	"o3-mini":       tokenizer.O200kBase,
	"gpt-4-turbo":   tokenizer.Cl100kBase,
	"gpt-4":         tokenizer.Cl100kBase,
	"gpt-3.5-turbo": tokenizer.Cl100kBase,
}

// EstimateTokens returns the approximate token count of text for the given
// model. Models with a known tiktoken encoding are counted exactly; anything
// else is estimated at four characters per token.
func EstimateTokens(text, model string) (int64, error) {
	enc, ok := codecForModel[model]
	if !ok {
		return estimateByChars(text), nil
	}

	codec, err := tokenizer.Get(enc)
	if err != nil {
		return 0, fmt.Errorf("load encoding for %s: %w", model, err)
	}

	ids, _, err := codec.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("encode text: %w", err)
	}
	return int64(len(ids)), nil
}

// EstimateChatTokens estimates the token count of a chat transcript. Each
// message carries ~4 tokens of role and formatting overhead, plus 2 tokens
// of reply priming for the whole exchange.
func EstimateChatTokens(messages []map[string]string, model string) (int64, error) {
	var total int64
	for _, msg := range messages {
		total += 4
		for _, value := range msg {
			count, err := EstimateTokens(value, model)
			if err != nil {
				return 0, err
			}
			total += count
		}
	}
	total += 2
	return total, nil
}

// estimateByChars approximates one token per four characters, rounding up.
func estimateByChars(text string) int64 {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return 0
	}
	return int64((len(text) + 3) / 4)
}
