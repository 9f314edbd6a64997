package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"practico/internal/utils"
)

const analyzePrompt = `You are an expert tutor helping students prepare for the Bocconi entrance exam.

Analyze this question image and provide:
1. **Question Type**: (e.g., Mathematics, Logic, Reading Comprehension, etc.)
2. **Main Concept**: What is this question testing?
3. **Step-by-Step Solution**: Break down how to solve it
4. **Key Insights**: Important points to remember
5. **Answer**: The correct answer with explanation

Be clear, educational, and encouraging. Format your response in Markdown.`

// TutorModel is the generative backend of the tutor.
type TutorModel interface {
	GenerateContent(ctx context.Context, contents []utils.GeminiContent) (string, utils.GeminiUsage, error)
	FetchImage(ctx context.Context, imageURL string) (utils.GeminiPart, error)
}

type ChatMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type TutorReply struct {
	Text  string
	Usage utils.GeminiUsage
}

// TutorService is a stateless passthrough; the client owns the conversation.
type TutorService interface {
	Analyze(ctx context.Context, imageURL string, history []ChatMessage) (*TutorReply, error)
	Chat(ctx context.Context, imageURL, message string, history []ChatMessage) (*TutorReply, error)
}

type tutorService struct {
	model TutorModel
}

func NewTutorService(model TutorModel) TutorService {
	return &tutorService{model: model}
}

func (s *tutorService) Analyze(ctx context.Context, imageURL string, history []ChatMessage) (*TutorReply, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, validationf("Question image URL required")
	}
	log.Printf("[ai][analyze] question=%s history=%d", imageURL, len(history))

	var parts []utils.GeminiPart
	if len(history) > 0 {
		// follow-up: only the latest message goes to the model
		parts = []utils.GeminiPart{{Text: history[len(history)-1].Text}}
	} else {
		img, err := s.model.FetchImage(ctx, imageURL)
		if err != nil {
			return nil, s.fail("analyze", err)
		}
		parts = []utils.GeminiPart{img, {Text: analyzePrompt}}
	}
	return s.generate(ctx, "analyze", []utils.GeminiContent{{Role: "user", Parts: parts}})
}

func (s *tutorService) Chat(ctx context.Context, imageURL, message string, history []ChatMessage) (*TutorReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, validationf("Message required")
	}
	imageURL = strings.TrimSpace(imageURL)
	log.Printf("[ai][chat] history=%d image=%t", len(history), imageURL != "")

	if len(history) == 0 && imageURL != "" {
		img, err := s.model.FetchImage(ctx, imageURL)
		if err != nil {
			return nil, s.fail("chat", err)
		}
		parts := []utils.GeminiPart{img, {Text: "This is a Bocconi entrance exam question. " + message}}
		return s.generate(ctx, "chat", []utils.GeminiContent{{Role: "user", Parts: parts}})
	}

	contents := make([]utils.GeminiContent, 0, len(history)+1)
	for _, m := range history {
		contents = append(contents, utils.GeminiContent{
			Role:  geminiRole(m.Role),
			Parts: []utils.GeminiPart{{Text: m.Text}},
		})
	}
	contents = append(contents, utils.GeminiContent{Role: "user", Parts: []utils.GeminiPart{{Text: message}}})
	return s.generate(ctx, "chat", contents)
}

func (s *tutorService) generate(ctx context.Context, op string, contents []utils.GeminiContent) (*TutorReply, error) {
	text, usage, err := s.model.GenerateContent(ctx, contents)
	if err != nil {
		return nil, s.fail(op, err)
	}
	log.Printf("[ai][%s] done tokens=%d", op, usage.TotalTokens)
	return &TutorReply{Text: text, Usage: usage}, nil
}

func (s *tutorService) fail(op string, err error) error {
	log.Printf("[ai][%s] error: %v", op, err)
	return fmt.Errorf("%w: %v", ErrTutorUnavailable, err)
}

// geminiRole maps client roles onto the two the model accepts.
func geminiRole(role string) string {
	if role == "user" {
		return "user"
	}
	return "model"
}
