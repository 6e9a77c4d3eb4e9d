// Package classify suggests tags for transcribed voice memos.
//
// Classification is best-effort decoration: when an Anthropic API key is
// configured the transcript is labeled by a small model, otherwise (or on
// any API failure) a keyword heuristic takes over. Either way the capture
// path never blocks on classification - a memo without a tag is fine.
package classify

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Vocabulary is the closed set of tags the classifier may assign.
// Anything outside it is discarded rather than invented.
var Vocabulary = []string{"todo", "idea", "shopping", "work", "personal"}

// Tagger suggests a tag for a transcript. An empty tag with a nil error
// means "no suggestion".
type Tagger interface {
	Suggest(ctx context.Context, text string) (string, error)
}

// Classifier implements Tagger with an optional LLM backend and a
// deterministic keyword fallback.
type Classifier struct {
	llm    *anthropic.Client
	model  anthropic.Model
	logger *log.Logger
}

// New creates a Classifier. With an empty apiKey the keyword fallback is
// used exclusively. If logger is nil, a default logger writing to stderr
// is used.
func New(apiKey string, logger *log.Logger) *Classifier {
	if logger == nil {
		logger = log.New(os.Stderr, "[classify] ", log.LstdFlags)
	}

	c := &Classifier{model: anthropic.ModelClaude3_5HaikuLatest, logger: logger}
	if apiKey != "" {
		llm := anthropic.NewClient(option.WithAPIKey(apiKey))
		c.llm = &llm
	}
	return c
}

// Suggest implements Tagger.
func (c *Classifier) Suggest(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	if c.llm != nil {
		tag, err := c.suggestLLM(ctx, text)
		if err == nil {
			return tag, nil
		}
		c.logger.Printf("LLM classification failed, using keyword fallback: %v", err)
	}

	return KeywordTag(text), nil
}

// suggestLLM asks the model to pick one tag from the vocabulary.
func (c *Classifier) suggestLLM(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(
		"Classify this voice memo into exactly one of these tags: %s.\n"+
			"Reply with the tag only, or 'none' if nothing fits.\n\nMemo: %s",
		strings.Join(Vocabulary, ", "), text)

	msg, err := c.llm.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 16,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("classification request failed: %w", err)
	}

	var reply strings.Builder
	for _, block := range msg.Content {
		reply.WriteString(block.Text)
	}

	tag := strings.ToLower(strings.TrimSpace(reply.String()))
	for _, v := range Vocabulary {
		if tag == v {
			return tag, nil
		}
	}
	return "", nil
}

// keywordRules maps trigger words to tags, checked in order.
var keywordRules = []struct {
	tag      string
	triggers []string
}{
	{"shopping", []string{"buy", "groceries", "order", "shopping", "store"}},
	{"todo", []string{"remember to", "need to", "don't forget", "must", "todo", "deadline"}},
	{"work", []string{"meeting", "project", "client", "email", "report", "standup"}},
	{"idea", []string{"idea", "what if", "maybe we could", "concept"}},
	{"personal", []string{"birthday", "family", "dinner", "doctor", "call mom", "call dad"}},
}

// KeywordTag is the deterministic fallback classifier. Returns "" when
// no rule matches.
func KeywordTag(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range keywordRules {
		for _, trigger := range rule.triggers {
			if strings.Contains(lower, trigger) {
				return rule.tag
			}
		}
	}
	return ""
}
