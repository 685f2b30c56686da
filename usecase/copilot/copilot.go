package copilot

import (
	"context"
	"encoding/json"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/medipro/backend/domain"
)

const systemInstruction = `You are the clinical copilot, a secure assistant for medical professionals.
Your goals:
1. Provide evidence-based medical information based on latest guidelines.
2. Suggest differential diagnoses.
3. Check drug-drug interactions.
4. Assist with dosage calculations.
5. Always maintain a professional, clinical tone.
6. Mention if the user should verify with specific guidelines (e.g., AHA, ACC, ADA).
7. Do not provide patient-identifiable information in your training data.`

// Completer is the slice of the OpenAI client the copilot needs.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Turn is one prior exchange in a copilot conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config selects the models used per task. Note generation and vitals
// analysis run on the fast model, open-ended chat on the strong one.
type Config struct {
	FastModel string
	ChatModel string
}

type UseCase struct {
	client Completer
	cfg    Config
	logger *zap.Logger
}

func New(client Completer, cfg Config, logger *zap.Logger) *UseCase {
	if cfg.FastModel == "" {
		cfg.FastModel = openai.GPT4oMini
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = openai.GPT4o
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// GenerateSOAPNote turns an encounter transcript into a SOAP note with
// ICD-10 code suggestions.
func (uc *UseCase) GenerateSOAPNote(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", domain.ErrInvalidPayload
	}

	prompt := "Transform the following medical encounter transcript into a professional SOAP " +
		"(Subjective, Objective, Assessment, Plan) note. Include ICD-10 code suggestions.\n\n" +
		"Transcript: " + transcript

	return uc.complete(ctx, openai.ChatCompletionRequest{
		Model:       uc.cfg.FastModel,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
}

// Chat answers a clinical question in the context of the prior exchanges.
func (uc *UseCase) Chat(ctx context.Context, history []Turn, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", domain.ErrInvalidPayload
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemInstruction,
	})
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == "assistant" || turn.Role == "model" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	return uc.complete(ctx, openai.ChatCompletionRequest{
		Model:    uc.cfg.ChatModel,
		Messages: messages,
	})
}

// AnalyzeVitals flags concerning patterns in a patient's recent readings.
func (uc *UseCase) AnalyzeVitals(ctx context.Context, records []domain.VitalRecord) (string, error) {
	if len(records) == 0 {
		return "", domain.ErrInvalidPayload
	}

	data, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	prompt := "Analyze the following patient vital signs and trends. Identify any concerning " +
		"patterns or abnormalities.\n\nData: " + string(data)

	return uc.complete(ctx, openai.ChatCompletionRequest{
		Model: uc.cfg.FastModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
}

func (uc *UseCase) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := uc.client.CreateChatCompletion(ctx, req)
	if err != nil {
		uc.logger.Error("completion request failed", zap.String("model", req.Model), zap.Error(err))
		return "", domain.WrapError(domain.ErrCodeUnavailable, "copilot unavailable", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewError(domain.ErrCodeUnavailable, "copilot returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
