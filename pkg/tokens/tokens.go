// Package tokens estimates prompt token counts for metrics.
package tokens

import (
	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// Estimate returns the token count of text under the named model's encoding.
// Models tiktoken does not know fall back to cl100k_base; if even that fails
// (offline BPE cache missing) a rough length/4 estimate is returned so metric
// recording never errors.
func Estimate(model, text string) int {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
	}
	if err != nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
