package openai

import (
	"context"
	"os"
	"strconv"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// defaultMemoryTurns bounds how many prior exchanges the chain replays on each
// call; older turns are dropped oldest-first.
const defaultMemoryTurns = 20

// Client is the model chain: a chat-completion client that owns its own
// conversational memory. Each Invoke replays the retained turns, sends the new
// input, and appends the exchange to memory on success. Callers treat memory as
// opaque; follow-up answers draw on it rather than on re-sent report text.
type Client struct {
	api   *openai.Client
	Model string

	// complete performs one chat completion; injectable so memory bookkeeping
	// is testable without the real API.
	complete func(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)

	mu       sync.Mutex
	history  []openai.ChatCompletionMessage
	maxTurns int
}

func NewClient() *Client {
	key := os.Getenv("OPENAI_API_KEY")
	model := os.Getenv("CHAT_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	turns := defaultMemoryTurns
	if v := os.Getenv("CHAT_MEMORY_TURNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			turns = n
		}
	}
	c := &Client{api: openai.NewClient(key), Model: model, maxTurns: turns}
	c.complete = c.completeAPI
	return c
}

func (c *Client) completeAPI(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.Model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Invoke sends input to the model with the retained conversation prepended and
// returns the model's text unmodified. An empty completion is a valid result,
// not an error. On success the user input and the model reply are appended to
// memory, in that order; a failed call leaves memory untouched.
func (c *Client) Invoke(ctx context.Context, input string) (string, error) {
	c.mu.Lock()
	messages := make([]openai.ChatCompletionMessage, 0, len(c.history)+1)
	messages = append(messages, c.history...)
	c.mu.Unlock()
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: input,
	})

	// No lock is held across the network call.
	text, err := c.complete(ctx, messages)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.history = append(c.history,
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: input},
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text},
	)
	if limit := c.maxTurns * 2; len(c.history) > limit {
		c.history = c.history[len(c.history)-limit:]
	}
	c.mu.Unlock()

	return text, nil
}

// ResetMemory discards all retained conversation turns.
func (c *Client) ResetMemory() {
	c.mu.Lock()
	c.history = nil
	c.mu.Unlock()
}

// MemoryLen reports the number of retained messages (two per exchange).
func (c *Client) MemoryLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}
