// Package usecase holds the conversation pipeline: grounding retrieval,
// answer generation, resource-link augmentation, suggestion/topic/summary
// generation, and persistence of the completed turn.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"hr-assistant/internal/domain"
)

const (
	maxHistoryMessages = 10
	lexicalChunkCount  = 4

	defaultCallTimeout = 30 * time.Second

	groundingTemperature  = 0.3
	groundingMaxTokens    = 2000
	answerTemperature     = 0.7
	answerMaxTokens       = 1000
	suggestionTemperature = 0.7
	suggestionMaxTokens   = 200
	topicTemperature      = 0.3
	topicMaxTokens        = 10
	summaryTemperature    = 0.3
	summaryMaxTokens      = 60

	errorTopic    = "Error"
	defaultTopic  = "Other"
	apologyAnswer = "I'm sorry, I encountered an error while processing your question. Please try again or contact HR directly for assistance."

	emptyGrounding = "(no relevant reference material found)"
)

type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

type CompletionClient interface {
	Complete(ctx context.Context, model string, messages []domain.ChatMessage, temperature float64, maxTokens int) (string, error)
}

type DocumentProvider interface {
	Text() string
	RelevantChunks(question, fullText string, maxChunks int) string
}

type LinkResolver interface {
	Relevant(question, answer string) string
}

type TurnWriter interface {
	SaveTurn(ctx context.Context, turn domain.ConversationTurn) (int64, error)
}

// AnswerService is the conversation pipeline.
type AnswerService struct {
	params      ParamGetter
	llm         CompletionClient
	docs        DocumentProvider
	links       LinkResolver
	store       TurnWriter
	logger      *slog.Logger
	paramPrefix string
	callTimeout time.Duration

	cacheMu      sync.RWMutex
	cacheLoaded  bool
	answerModel  string
	utilityModel string
	persona      string
}

type AnswerInput struct {
	Question       string
	History        []domain.ChatMessage
	Employee       domain.EmployeeContext
	ConversationID string
}

type AnswerOutput struct {
	Answer         string
	Suggestions    []string
	Topic          string
	ConversationID string
}

type Option func(*AnswerService)

// WithCallTimeout bounds each individual completion call. A timed-out call
// takes the same fallback path as any other completion failure.
func WithCallTimeout(d time.Duration) Option {
	return func(s *AnswerService) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *AnswerService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewAnswerService(p ParamGetter, llm CompletionClient, docs DocumentProvider, links LinkResolver, store TurnWriter, paramPrefix string, opts ...Option) (*AnswerService, error) {
	if p == nil {
		return nil, errors.New("usecase: param getter must not be nil")
	}
	if llm == nil {
		return nil, errors.New("usecase: completion client must not be nil")
	}
	if docs == nil {
		return nil, errors.New("usecase: document provider must not be nil")
	}
	if links == nil {
		return nil, errors.New("usecase: link resolver must not be nil")
	}
	if store == nil {
		return nil, errors.New("usecase: turn store must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("usecase: parameter prefix must not be empty")
	}
	s := &AnswerService{
		params:      p,
		llm:         llm,
		docs:        docs,
		links:       links,
		store:       store,
		logger:      slog.Default(),
		paramPrefix: paramPrefix,
		callTimeout: defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Answer runs the full pipeline for one question. The returned output is
// always well-formed: on total answer-generation failure it carries the
// fixed apologetic answer, three fixed suggestions, and topic "Error"
// (a successful return, not an error), and nothing is persisted.
func (s *AnswerService) Answer(ctx context.Context, in AnswerInput) (AnswerOutput, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return AnswerOutput{}, newError(ErrorInvalidInput, "empty_question", nil)
	}
	if strings.TrimSpace(in.Employee.EmployeeID) == "" {
		return AnswerOutput{}, newError(ErrorInvalidInput, "missing_employee_id", nil)
	}
	if err := s.ensureConfig(ctx); err != nil {
		return AnswerOutput{}, newError(ErrorConfig, "ssm_load_error", err)
	}

	log := s.logger.With("request_id", uuid.NewString(), "employee_id", in.Employee.EmployeeID)

	grounding := s.retrieveGrounding(ctx, question, log)

	raw, err := s.complete(ctx, s.answerModel,
		buildAnswerMessages(s.persona, grounding, in.Employee, in.History, question),
		answerTemperature, answerMaxTokens)
	if err != nil {
		log.Error("answer generation failed", "err", err)
		return AnswerOutput{
			Answer:         apologyAnswer,
			Suggestions:    append([]string(nil), errorSuggestions...),
			Topic:          errorTopic,
			ConversationID: in.ConversationID,
		}, nil
	}
	answer := strings.TrimSpace(raw)

	if links := s.links.Relevant(question, answer); links != "" {
		answer = answer + "\n\n" + links
	}

	// Suggestions, topic, and summary depend only on (question, answer)
	// and each has a local fallback, so they run concurrently.
	var (
		wg          sync.WaitGroup
		suggestions []string
		topic       string
		summary     string
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		suggestions = s.generateSuggestions(ctx, question, answer, in.Employee.Department, log)
	}()
	go func() {
		defer wg.Done()
		topic = s.classifyTopic(ctx, question, answer, log)
	}()
	go func() {
		defer wg.Done()
		summary = s.summarize(ctx, question, answer, log)
	}()
	wg.Wait()

	now := time.Now()
	convID := strings.TrimSpace(in.ConversationID)
	if convID == "" {
		convID = domain.SynthesizeConversationID(in.Employee.EmployeeID, now)
	}

	// A cancelled caller gets no persistence attempt.
	if ctx.Err() == nil {
		turn := domain.ConversationTurn{
			EmployeeID:     in.Employee.EmployeeID,
			EmployeeName:   in.Employee.Name,
			Question:       question,
			Answer:         answer,
			Summary:        summary,
			Topic:          topic,
			ConversationID: convID,
			Timestamp:      now,
		}
		if _, err := s.store.SaveTurn(ctx, turn); err != nil {
			// The employee still gets their answer; the lost log record is
			// an operator problem, not a user-facing one.
			log.Error("persisting conversation turn failed", "err", err, "conversation_id", convID)
		}
	}

	return AnswerOutput{
		Answer:         answer,
		Suggestions:    suggestions,
		Topic:          topic,
		ConversationID: convID,
	}, nil
}

// retrieveGrounding runs the semantic-first, lexical-fallback retrieval.
// Semantic retrieval failing or finding nothing is expected operation, not
// an error: the keyword chunker answers from the document at reduced
// quality, and an empty document grounds nothing.
func (s *AnswerService) retrieveGrounding(ctx context.Context, question string, log *slog.Logger) string {
	fullText := s.docs.Text()

	raw, err := s.complete(ctx, s.utilityModel, buildGroundingPrompt(question, fullText), groundingTemperature, groundingMaxTokens)
	if err == nil {
		if grounding, ok := extractGrounding(raw); ok {
			return grounding
		}
	} else {
		log.Warn("semantic grounding unavailable, falling back to keyword chunks", "err", err)
	}

	if chunks := s.docs.RelevantChunks(question, fullText, lexicalChunkCount); chunks != "" {
		return chunks
	}
	return emptyGrounding
}

func (s *AnswerService) generateSuggestions(ctx context.Context, question, answer, department string, log *slog.Logger) []string {
	raw, err := s.complete(ctx, s.utilityModel, buildSuggestionPrompt(question, answer, department), suggestionTemperature, suggestionMaxTokens)
	if err != nil {
		log.Warn("suggestion generation failed, using fallbacks", "err", err)
		return append([]string(nil), fallbackSuggestions...)
	}
	return parseSuggestions(raw)
}

func (s *AnswerService) classifyTopic(ctx context.Context, question, answer string, log *slog.Logger) string {
	raw, err := s.complete(ctx, s.utilityModel, buildTopicPrompt(question, answer), topicTemperature, topicMaxTokens)
	if err != nil {
		log.Warn("topic classification failed, defaulting", "err", err, "topic", defaultTopic)
		return defaultTopic
	}
	return extractTopic(raw)
}

func (s *AnswerService) summarize(ctx context.Context, question, answer string, log *slog.Logger) string {
	raw, err := s.complete(ctx, s.utilityModel, buildSummaryPrompt(question, answer), summaryTemperature, summaryMaxTokens)
	if err != nil || strings.TrimSpace(raw) == "" {
		if err != nil {
			log.Warn("summary generation failed, synthesizing", "err", err)
		}
		return fallbackSummary(question)
	}
	return strings.TrimSpace(raw)
}

func (s *AnswerService) complete(ctx context.Context, model string, messages []domain.ChatMessage, temperature float64, maxTokens int) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return s.llm.Complete(callCtx, model, messages, temperature, maxTokens)
}

func (s *AnswerService) ensureConfig(ctx context.Context) error {
	s.cacheMu.RLock()
	if s.cacheLoaded {
		s.cacheMu.RUnlock()
		return nil
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheLoaded {
		return nil
	}

	answerModel, utilityModel, persona, err := s.loadSSMParams(ctx)
	if err != nil {
		return err
	}

	s.answerModel = answerModel
	s.utilityModel = utilityModel
	s.persona = persona
	s.cacheLoaded = true
	return nil
}

func (s *AnswerService) loadSSMParams(ctx context.Context) (answerModel, utilityModel, persona string, err error) {
	prefix := strings.TrimRight(s.paramPrefix, "/")

	answerModel, err = s.params.GetParameter(ctx, prefix+"/config/answer_model")
	if err != nil {
		return "", "", "", fmt.Errorf("usecase: load answer model: %w", err)
	}
	utilityModel, err = s.params.GetParameter(ctx, prefix+"/config/utility_model")
	if err != nil {
		return "", "", "", fmt.Errorf("usecase: load utility model: %w", err)
	}
	persona, err = s.params.GetParameter(ctx, prefix+"/persona_prompt")
	if err != nil {
		return "", "", "", fmt.Errorf("usecase: load persona prompt: %w", err)
	}
	return answerModel, utilityModel, persona, nil
}
