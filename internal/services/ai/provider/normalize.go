package provider

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Shape tags which vendor body layout a response uses.
type Shape int

const (
	// ShapeOpenAI is {choices:[{message:{content}}], usage:{total_tokens}}.
	ShapeOpenAI Shape = iota
	// ShapeAnthropic is {content:[{text}], usage:{input_tokens, output_tokens}}.
	ShapeAnthropic
)

// EmptyReplyText replaces a completion with no text.
const EmptyReplyText = "Scusa, non ho capito."

// Normalize parses a provider body into a Completion. It is the only place that
// knows about vendor response layouts.
func Normalize(shape Shape, body []byte) (*Completion, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to decode response: invalid JSON")
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("failed to decode response: expected object")
	}

	var completion Completion
	switch shape {
	case ShapeOpenAI:
		completion.Text = parsed.Get("choices.0.message.content").String()
		completion.Usage = Usage{
			InputTokens:  int(parsed.Get("usage.prompt_tokens").Int()),
			OutputTokens: int(parsed.Get("usage.completion_tokens").Int()),
			TotalTokens:  int(parsed.Get("usage.total_tokens").Int()),
		}
	case ShapeAnthropic:
		completion.Text = parsed.Get("content.0.text").String()
		in := int(parsed.Get("usage.input_tokens").Int())
		out := int(parsed.Get("usage.output_tokens").Int())
		completion.Usage = Usage{
			InputTokens:  in,
			OutputTokens: out,
			TotalTokens:  in + out,
		}
	default:
		return nil, fmt.Errorf("unknown response shape: %d", shape)
	}

	if strings.TrimSpace(completion.Text) == "" {
		completion.Text = EmptyReplyText
	}
	return &completion, nil
}
