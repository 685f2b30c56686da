package copilot

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medipro/backend/domain"
)

type fakeCompleter struct {
	lastReq openai.ChatCompletionRequest
	reply   string
	err     error
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.reply}},
		},
	}, nil
}

func TestGenerateSOAPNote(t *testing.T) {
	fake := &fakeCompleter{reply: "S: headache\nO: ...\nA: ...\nP: ..."}
	uc := New(fake, Config{}, nil)

	note, err := uc.GenerateSOAPNote(context.Background(), "Patient reports headache for three days.")
	require.NoError(t, err)
	assert.Equal(t, fake.reply, note)

	assert.Equal(t, openai.GPT4oMini, fake.lastReq.Model)
	assert.InDelta(t, 0.1, fake.lastReq.Temperature, 0.001)
	require.Len(t, fake.lastReq.Messages, 1)
	assert.Contains(t, fake.lastReq.Messages[0].Content, "SOAP")
	assert.Contains(t, fake.lastReq.Messages[0].Content, "ICD-10")
	assert.Contains(t, fake.lastReq.Messages[0].Content, "headache for three days")
}

func TestGenerateSOAPNoteRejectsEmptyTranscript(t *testing.T) {
	uc := New(&fakeCompleter{}, Config{}, nil)

	_, err := uc.GenerateSOAPNote(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestChatCarriesSystemInstructionAndHistory(t *testing.T) {
	fake := &fakeCompleter{reply: "Consider checking renal function first."}
	uc := New(fake, Config{ChatModel: "test-chat-model"}, nil)

	history := []Turn{
		{Role: "user", Content: "Interactions between warfarin and amiodarone?"},
		{Role: "model", Content: "Amiodarone potentiates warfarin."},
	}
	answer, err := uc.Chat(context.Background(), history, "Recommended dose adjustment?")
	require.NoError(t, err)
	assert.Equal(t, fake.reply, answer)

	assert.Equal(t, "test-chat-model", fake.lastReq.Model)
	require.Len(t, fake.lastReq.Messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, fake.lastReq.Messages[0].Role)
	assert.Contains(t, fake.lastReq.Messages[0].Content, "differential diagnoses")
	assert.Equal(t, openai.ChatMessageRoleUser, fake.lastReq.Messages[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, fake.lastReq.Messages[2].Role)
	assert.Equal(t, "Recommended dose adjustment?", fake.lastReq.Messages[3].Content)
}

func TestAnalyzeVitalsEmbedsReadings(t *testing.T) {
	fake := &fakeCompleter{reply: "Blood pressure trend is concerning."}
	uc := New(fake, Config{}, nil)

	records := []domain.VitalRecord{
		{PatientID: "pat-1", BloodPressure: "160/100", HeartRate: 92},
	}
	_, err := uc.AnalyzeVitals(context.Background(), records)
	require.NoError(t, err)

	require.Len(t, fake.lastReq.Messages, 1)
	assert.Contains(t, fake.lastReq.Messages[0].Content, "160/100")

	_, err = uc.AnalyzeVitals(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestCompletionFailureMapsToUnavailable(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("rate limited")}
	uc := New(fake, Config{}, nil)

	_, err := uc.GenerateSOAPNote(context.Background(), "transcript")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnavailable))
}
