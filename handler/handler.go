// Package handler adapts API Gateway proxy events to the conversation
// pipeline. This is the one contract the UI layer depends on.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"hr-assistant/internal/domain"
	"hr-assistant/internal/usecase"
)

// AnswerUseCase is the pipeline surface the handler depends on.
type AnswerUseCase interface {
	Answer(ctx context.Context, in usecase.AnswerInput) (usecase.AnswerOutput, error)
}

type employeePayload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	HireDate   string `json:"hireDate"`
}

type answerRequest struct {
	Question       string               `json:"question"`
	ConversationID string               `json:"conversationId"`
	History        []domain.ChatMessage `json:"history"`
	Employee       employeePayload      `json:"employee"`
}

type answerResponse struct {
	Answer         string   `json:"answer"`
	Suggestions    []string `json:"suggestions"`
	Topic          string   `json:"topic"`
	ConversationID string   `json:"conversationId"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type Handler struct {
	uc AnswerUseCase
}

func NewHandler(uc AnswerUseCase) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	return &Handler{uc: uc}, nil
}

func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var req answerRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: "INVALID_JSON"}), nil
	}

	out, err := h.uc.Answer(ctx, usecase.AnswerInput{
		Question:       req.Question,
		History:        req.History,
		ConversationID: req.ConversationID,
		Employee: domain.EmployeeContext{
			EmployeeID: req.Employee.ID,
			Name:       req.Employee.Name,
			Department: req.Employee.Department,
			HireDate:   req.Employee.HireDate,
		},
	})
	if err != nil {
		return errorToResponse(err), nil
	}

	return jsonResponse(http.StatusOK, answerResponse{
		Answer:         out.Answer,
		Suggestions:    out.Suggestions,
		Topic:          out.Topic,
		ConversationID: out.ConversationID,
	}), nil
}

// errorToResponse maps pipeline errors onto HTTP statuses. Only invalid
// input and configuration failures surface here; every degraded-answer
// path is a successful pipeline return and never reaches this mapping.
func errorToResponse(err error) events.APIGatewayProxyResponse {
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		switch ucErr.Code {
		case usecase.ErrorInvalidInput:
			return jsonResponse(http.StatusBadRequest, errorResponse{Error: string(ucErr.Code), Reason: ucErr.Reason})
		default:
			slog.Error("answer request failed", "code", ucErr.Code, "reason", ucErr.Reason, "err", err)
			return jsonResponse(http.StatusInternalServerError, errorResponse{Error: string(ucErr.Code)})
		}
	}
	slog.Error("answer request failed", "err", err)
	return jsonResponse(http.StatusInternalServerError, errorResponse{Error: "INTERNAL_ERROR"})
}

func jsonResponse(status int, body any) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"error":"INTERNAL_ERROR"}`,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(raw),
	}
}
