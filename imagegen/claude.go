package imagegen

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const refinerSystemPrompt = `You turn a paragraph from an educational document into a single
text-to-image prompt describing one concrete visual scene.
Describe subjects, setting, action, and mood in one line.
Do not request any text, lettering, or typography in the image.
Reply with the prompt only, nothing else.`

// ClaudeRefiner asks Claude to compose the scene prompt. A network failure
// here is not worth failing a document over, so callers should fall back to
// the heuristic refiner on error.
type ClaudeRefiner struct {
	client *anthropic.Client
}

func NewClaudeRefiner(apiKey string) *ClaudeRefiner {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &ClaudeRefiner{client: client}
}

func (c *ClaudeRefiner) Refine(ctx context.Context, docTitle, text string) (string, error) {
	user := text
	if docTitle != "" {
		user = fmt.Sprintf("Document title: %s\n\nParagraph:\n%s", docTitle, text)
	}

	message, err := c.client.Messages.New(
		ctx,
		anthropic.MessageNewParams{
			Model:     anthropic.F(anthropic.ModelClaude3_5SonnetLatest),
			MaxTokens: anthropic.F(int64(256)),
			System: anthropic.F([]anthropic.TextBlockParam{
				anthropic.NewTextBlock(refinerSystemPrompt),
			}),
			Messages: anthropic.F([]anthropic.MessageParam{
				anthropic.NewUserMessage(
					anthropic.NewTextBlock(user),
				),
			}),
		},
	)
	if err != nil {
		return "", fmt.Errorf("claude api error: %w", err)
	}
	if len(message.Content) == 0 {
		return "", fmt.Errorf("empty response from claude")
	}
	prompt := strings.TrimSpace(message.Content[0].Text)
	if prompt == "" {
		return "", fmt.Errorf("claude returned a blank prompt")
	}
	return prompt, nil
}
