package agent

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/gaia-agent/pkg/llms"
)

// formatPrompt instructs the model to reduce the answer to the short
// form the GAIA benchmark grades against.
const formatPrompt = "You are an AI assistant, who is responsable for formatting the response of the LLM. " +
	"You get the answer from another Agent and you just need to format it. " +
	"The Answer should be a number OR as few words as possible OR a comma separated list of numbers and/or strings. " +
	"If you are asked for a number, don't use comma to write your number neither use units such as $ or percent sign unless specified otherwise. " +
	"If you are asked for a string, don't use articles, neither abbreviations (e.g. for cities), and write the digits in plain text unless specified otherwise." +
	"If you are asked for a comma separated list, apply the above rules depending of whether the element to be put in the list is a number or a string."

// FormatResponse reduces the raw answer of the loop to the short
// graded form with one extra LLM call.
func (a *Agent) FormatResponse(ctx context.Context, response string) (string, error) {
	model := a.cfg.Formatter
	if model == nil {
		model = a.llm
	}

	messages := []llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, formatPrompt),
		llms.MessageFromTextParts(llms.RoleHuman, response),
	}
	resp, err := model.GenerateContent(ctx, messages)
	if err != nil {
		return "", errors.Wrap(err, "failed to format response")
	}
	if len(resp.Choices) == 0 {
		return "", errors.Newf("agent %s: formatter returned no choices", a.cfg.Name)
	}
	return resp.Choices[0].Content, nil
}
