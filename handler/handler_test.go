package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"hr-assistant/internal/usecase"
)

type stubUseCase struct {
	out usecase.AnswerOutput
	err error
	in  usecase.AnswerInput
}

func (s *stubUseCase) Answer(_ context.Context, in usecase.AnswerInput) (usecase.AnswerOutput, error) {
	s.in = in
	return s.out, s.err
}

func makeEvent(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/answer",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil)
	require.Error(t, err)
}

func TestHandle_HappyPath(t *testing.T) {
	uc := &stubUseCase{out: usecase.AnswerOutput{
		Answer:         "Dental is covered.",
		Suggestions:    []string{"A?", "B?", "C?"},
		Topic:          "Benefits",
		ConversationID: "conv-1",
	}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	body := `{
		"question": "What is the dental plan?",
		"conversationId": "conv-1",
		"history": [{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}],
		"employee": {"id":"emp-7","name":"Riley Chen","department":"Engineering","hireDate":"2019-05-20"}
	}`
	resp, err := h.Handle(context.Background(), makeEvent(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, "What is the dental plan?", uc.in.Question)
	require.Equal(t, "conv-1", uc.in.ConversationID)
	require.Len(t, uc.in.History, 2)
	require.Equal(t, "emp-7", uc.in.Employee.EmployeeID)
	require.Equal(t, "Engineering", uc.in.Employee.Department)

	out := parseBody[answerResponse](t, resp.Body)
	require.Equal(t, "Dental is covered.", out.Answer)
	require.Equal(t, []string{"A?", "B?", "C?"}, out.Suggestions)
	require.Equal(t, "Benefits", out.Topic)
	require.Equal(t, "conv-1", out.ConversationID)
}

func TestHandle_MalformedJSON(t *testing.T) {
	h, err := NewHandler(&stubUseCase{})
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`{"question":`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	out := parseBody[errorResponse](t, resp.Body)
	require.Equal(t, "INVALID_JSON", out.Error)
}

func TestHandle_InvalidInputMapsTo400(t *testing.T) {
	uc := &stubUseCase{err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "empty_question"}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`{"question":"","employee":{"id":"emp-7"}}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	out := parseBody[errorResponse](t, resp.Body)
	require.Equal(t, "INVALID_INPUT", out.Error)
	require.Equal(t, "empty_question", out.Reason)
}

func TestHandle_ConfigErrorMapsTo500(t *testing.T) {
	uc := &stubUseCase{err: &usecase.Error{Code: usecase.ErrorConfig, Reason: "ssm_load_error"}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`{"question":"hi?","employee":{"id":"emp-7"}}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHandle_UnknownErrorMapsTo500(t *testing.T) {
	uc := &stubUseCase{err: errors.New("boom")}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`{"question":"hi?","employee":{"id":"emp-7"}}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHandle_DegradedAnswerIsStillA200(t *testing.T) {
	uc := &stubUseCase{out: usecase.AnswerOutput{
		Answer:      "I'm sorry, I encountered an error while processing your question. Please try again or contact HR directly for assistance.",
		Suggestions: []string{"Can you rephrase your question?", "Would you like to ask about something else?", "Would you like to speak with someone from HR directly?"},
		Topic:       "Error",
	}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`{"question":"hi?","employee":{"id":"emp-7"}}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := parseBody[answerResponse](t, resp.Body)
	require.Equal(t, "Error", out.Topic)
	require.Len(t, out.Suggestions, 3)
}
