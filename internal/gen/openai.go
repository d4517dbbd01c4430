package gen

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const generatorName = "Assistant"

// Client implements Generator over the OpenAI chat completions API.
type Client struct {
	api   openai.Client
	model openai.ChatModel
}

// NewClient builds a client for the given API key. An empty model
// selects a small default suitable for summarization workloads.
func NewClient(apiKey, model string) *Client {
	m := openai.ChatModelGPT4oMini
	if model != "" {
		m = openai.ChatModel(model)
	}
	return &Client{
		api:   openai.NewClient(option.WithAPIKey(apiKey)),
		model: m,
	}
}

func (c *Client) Name() string {
	return generatorName
}

func (c *Client) complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("model returned an empty completion")
	}
	return text, nil
}

func (c *Client) Summarize(ctx context.Context, content string) (string, error) {
	prompt := fmt.Sprintf(`Analyze the following task content and extract 3-5 key points or critical actions.
Keep the summary extremely concise, focused on operational logic, and high-value insights.

Task Content:
%s

Return the summary in bullet points.`, content)

	return c.complete(ctx, prompt, 0.3)
}

func (c *Client) ComposeHandbook(ctx context.Context, name, focus string, contexts, stack []string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `Act as a senior AI Architect. Generate a professional 'Company_Handbook.md' for an AI-powered digital employee for a company called %q.
The focus of this employee is: %s.
`, name, focus)

	if len(stack) > 0 {
		fmt.Fprintf(&b, "\nThe following technologies MUST be integrated into the workflow: %s.\n", strings.Join(stack, ", "))
	}
	if len(contexts) > 0 {
		fmt.Fprintf(&b, "\nInclude insights and logic derived from these summarized operational contexts:\n%s\n", strings.Join(contexts, "\n\n"))
	}

	b.WriteString(`
Include sections for:
1. Mission & Role Definition
2. Architecture & Tech Stack
3. Operational Rules (Specific about tone, accuracy, and tool usage)
4. Security & Privacy Boundaries
5. Daily Routine

Format the response in clean, professional Markdown with a focus on technical excellence and clear directives.`)

	return c.complete(ctx, b.String(), 0.7)
}

func (c *Client) ComposeBriefing(ctx context.Context, digests []string) (string, error) {
	prompt := fmt.Sprintf(`Act as a digital employee performing a "Monday Morning CEO Briefing".
Audit the following weekly task summaries and provide a high-level briefing for the CEO.

Tasks:
%s

Provide:
1. Executive Summary
2. Revenue & Metrics
3. Bottlenecks Identified
4. Proactive Suggestions (e.g., cost savings, tool optimizations)

Format in professional Markdown with a focus on business value.`, strings.Join(digests, "\n"))

	return c.complete(ctx, prompt, 1.0)
}

func (c *Client) SuggestTags(ctx context.Context, content string) ([]string, error) {
	prompt := fmt.Sprintf(`Analyze the following task content and suggest 3-5 professional, concise tags/labels that help categorize this work (e.g., "Operations", "Client-Facing", "High-Risk"). Return only a comma-separated list of tags.

Content:
%s`, content)

	text, err := c.complete(ctx, prompt, 0.4)
	if err != nil {
		return nil, err
	}

	var tags []string
	for _, tag := range strings.Split(text, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("model returned no usable tags")
	}
	return tags, nil
}
