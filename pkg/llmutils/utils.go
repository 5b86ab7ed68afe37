package llmutils

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/effective-security/gaia-agent/pkg/llms"
	"gopkg.in/yaml.v3"
)

// CleanJSON returns JSON by trimming prefixes and postfixes,
// this is more useful than TrimBackticks,
// as LLM can reply like,
// `Here you go: {json}`
func CleanJSON(bs []byte) []byte {
	trimmedPrefix := trimPrefixBeforeJSON(bs)
	trimmedJSON := trimPostfixAfterJSON(trimmedPrefix)
	return trimmedJSON
}

// Removes any prefixes before the JSON (like "Sure, here you go:")
func trimPrefixBeforeJSON(bs []byte) []byte {
	startObject := bytes.IndexByte(bs, '{')
	startArray := bytes.IndexByte(bs, '[')

	var start int
	if startObject == -1 && startArray == -1 {
		return bs // No opening brace or bracket found, return the original string
	} else if startObject == -1 {
		start = startArray
	} else if startArray == -1 {
		start = startObject
	} else {
		start = min(startObject, startArray)
	}

	return bs[start:]
}

// Removes any postfixes after the JSON
func trimPostfixAfterJSON(bs []byte) []byte {
	endObject := bytes.LastIndexByte(bs, '}')
	endArray := bytes.LastIndexByte(bs, ']')

	var end int
	if endObject == -1 && endArray == -1 {
		return bs // No closing brace or bracket found, return the original string
	} else if endObject == -1 {
		end = endArray
	} else if endArray == -1 {
		end = endObject
	} else {
		end = max(endObject, endArray)
	}

	return bs[:end+1]
}

var backtick = []byte("```")

// TrimBackticks removes ```json or ``` fences around the text.
func TrimBackticks(text string) string {
	bs := []byte(text)
	size := len(bs)
	startIndex := bytes.Index(bs, backtick)
	if startIndex == -1 {
		return text
	}
	startIndex += len(backtick)

	for i := startIndex; i < size && bs[i] != '{' && bs[i] != '['; i++ {
		if bs[i] == '\n' {
			startIndex = i + 1
			break
		}
	}

	contentAfterStart := bs[startIndex:]
	endIndex := bytes.LastIndex(contentAfterStart, backtick)
	if endIndex == -1 {
		return string(contentAfterStart)
	}
	return string(bytes.TrimSpace(contentAfterStart[:endIndex]))
}

// Truncate caps the text at limit runes. Tool results returned to the
// LLM are bounded to keep the conversation payload small.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// ToJSON marshals the value, ignoring errors. Used for log and
// tool-result payloads where the value is always marshalable.
func ToJSON(val any) string {
	js, _ := json.Marshal(val)
	return string(js)
}

// ToJSONIndent marshals the value with indentation, ignoring errors.
func ToJSONIndent(val any) string {
	js, _ := json.MarshalIndent(val, "", "\t")
	return string(js)
}

// ToYAML marshals the value to YAML, ignoring errors.
func ToYAML(val any) string {
	bs, _ := yaml.Marshal(val)
	return string(bs)
}

// BackticksJSON wraps the JSON into a fenced code block.
func BackticksJSON(js string) string {
	return "\n```json\n" + strings.TrimSpace(js) + "\n```\n"
}

// CountMessagesContentSize returns the total content size of the
// messages, in bytes.
func CountMessagesContentSize(messages []llms.Message) uint64 {
	var size uint64
	for _, m := range messages {
		size += uint64(len(m.GetContent()))
	}
	return size
}

// CountResponseContentSize returns the total content size of the
// response choices, in bytes.
func CountResponseContentSize(resp *llms.ContentResponse) uint64 {
	if resp == nil {
		return 0
	}
	var size uint64
	for _, c := range resp.Choices {
		size += uint64(len(c.Content))
		for _, tc := range c.ToolCalls {
			if tc.FunctionCall != nil {
				size += uint64(len(tc.FunctionCall.Arguments))
			}
		}
	}
	return size
}

// CountTokens extracts token usage from the response generation info.
func CountTokens(resp *llms.ContentResponse) (input, output, total int) {
	if resp == nil || len(resp.Choices) == 0 {
		return 0, 0, 0
	}
	info := resp.Choices[0].GenerationInfo
	input, _ = info["PromptTokens"].(int)
	output, _ = info["CompletionTokens"].(int)
	total, _ = info["TotalTokens"].(int)
	return input, output, total
}
