package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/backlog-forge/internal/common"
	"github.com/joseph-ayodele/backlog-forge/internal/llm"
)

// Generate implements llm.Generator with a single chat completion. An attachment
// is sent as an image_url part holding a base64 data URL. No retries.
func (c *Client) Generate(ctx context.Context, prompt string, att *llm.Attachment) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	model := c.cfg.Model

	if c.api == nil {
		llm.RequestsTotal.WithLabelValues(model, llm.StatusUnavailable).Inc()
		c.log.Error("llm.generate.no_credential", "req_id", rid, "model", model)
		return "", common.GenerationUnavailableError("LLM_API_KEY environment variable is not set")
	}

	start := time.Now()
	c.log.Info("llm.generate.start",
		"req_id", rid,
		"model", model,
		"temp", c.cfg.Temperature,
		"max_tokens", c.cfg.MaxTokens,
		"prompt_len", len(prompt),
		"has_attachment", att != nil,
	)
	if c.tokens != nil {
		if n, err := c.tokens.Count(prompt); err == nil {
			c.log.Debug("llm.generate.prompt_tokens", "req_id", rid, "estimated", n)
		} else {
			c.log.Warn("llm.generate.token_count_failed", "req_id", rid, "error", err)
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       model,
		Messages:    []goopenai.ChatCompletionMessage{buildMessage(prompt, att)},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	elapsed := time.Since(start)
	llm.RequestDuration.WithLabelValues(model).Observe(elapsed.Seconds())
	if err != nil {
		llm.RequestsTotal.WithLabelValues(model, llm.StatusError).Inc()
		c.log.Error("llm.generate.api_error",
			"req_id", rid, "error", err, "elapsed_ms", elapsed.Milliseconds())
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		llm.RequestsTotal.WithLabelValues(model, llm.StatusEmpty).Inc()
		c.log.Error("llm.generate.empty",
			"req_id", rid, "choices", len(resp.Choices), "elapsed_ms", elapsed.Milliseconds())
		return "", llm.ErrEmptyCompletion
	}

	llm.RequestsTotal.WithLabelValues(model, llm.StatusSuccess).Inc()
	if resp.Usage.TotalTokens > 0 {
		llm.PromptTokens.WithLabelValues(model).Observe(float64(resp.Usage.PromptTokens))
		llm.CompletionTokens.WithLabelValues(model).Observe(float64(resp.Usage.CompletionTokens))
	}

	text := resp.Choices[0].Message.Content
	c.log.Info("llm.generate.ok",
		"req_id", rid,
		"finish_reason", string(resp.Choices[0].FinishReason),
		"response_len", len(text),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return text, nil
}

func buildMessage(prompt string, att *llm.Attachment) goopenai.ChatCompletionMessage {
	if att == nil {
		return goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: prompt}
	}
	return goopenai.ChatCompletionMessage{
		Role: goopenai.ChatMessageRoleUser,
		MultiContent: []goopenai.ChatMessagePart{
			{Type: goopenai.ChatMessagePartTypeText, Text: prompt},
			{
				Type: goopenai.ChatMessagePartTypeImageURL,
				ImageURL: &goopenai.ChatMessageImageURL{
					URL:    llm.DataURL(*att),
					Detail: goopenai.ImageURLDetailHigh,
				},
			},
		},
	}
}
