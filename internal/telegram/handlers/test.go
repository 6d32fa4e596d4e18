package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/futig/traffic-law-assistant/internal/telegram/keyboard"
	"github.com/futig/traffic-law-assistant/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	pollType = "quiz"

	// Telegram accepts 2 to 10 poll options
	minPollOptions = 2
	maxPollOptions = 10

	// DefaultPollInterval spaces consecutive polls in one chat
	DefaultPollInterval = 500 * time.Millisecond
)

// TestHandler serves /test [n] and delivers tests as quiz polls
type TestHandler struct {
	BaseHandler
	bot          Sender
	usecase      AssistantUsecase
	validator    Validator
	tests        *TestCache
	keyboard     *keyboard.Builder
	maxQuestions int
	pollInterval time.Duration
	logger       *zap.Logger
}

func NewTestHandler(
	bot Sender,
	sender *MessageSender,
	usecase AssistantUsecase,
	validator Validator,
	tests *TestCache,
	keyboard *keyboard.Builder,
	maxQuestions int,
	pollInterval time.Duration,
	logger *zap.Logger,
) *TestHandler {
	return &TestHandler{
		BaseHandler:  BaseHandler{route: RouteTest, messageSender: sender},
		bot:          bot,
		usecase:      usecase,
		validator:    validator,
		tests:        tests,
		keyboard:     keyboard,
		maxQuestions: maxQuestions,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

func (h *TestHandler) Handle(ctx context.Context, msg *Message) error {
	if msg.Args == "" {
		return h.sendMessage(msg.ChatID, render.MsgChooseQuestionCount, h.keyboard.QuestionCountKeyboard())
	}

	n, err := h.validator.QuestionCount(msg.Args)
	if errors.Is(err, entity.ErrInvalidParameter) {
		return h.sendMessage(msg.ChatID, fmt.Sprintf(render.ErrInvalidCount, h.maxQuestions), nil)
	}
	if err != nil {
		h.HandleError(ctx, msg.ChatID, err)
		return nil
	}

	return h.Deliver(ctx, msg.ChatID, n)
}

// Deliver generates a test of n questions and sends it as quiz polls
func (h *TestHandler) Deliver(ctx context.Context, chatID int64, n int) error {
	ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(zap.Int("num_questions", n)))

	if err := h.sendMessage(chatID, fmt.Sprintf(render.MsgGeneratingTest, n), nil); err != nil {
		return err
	}

	typing := NewTypingNotifier(h.bot, chatID, tgbotapi.ChatTyping, h.logger)
	typing.Start(ctx)
	test, err := h.usecase.GenerateTestDocument(ctx, n)
	typing.Stop()

	if err != nil {
		h.HandleError(ctx, chatID, err)
		return nil
	}

	h.tests.Put(test)

	if err := h.sendMessage(chatID, fmt.Sprintf(render.MsgTestIntro, test.TotalQuestions), nil); err != nil {
		return err
	}

	// a zero interval means no spacing
	limiter := rate.NewLimiter(rate.Every(h.pollInterval), 1)

	sent := 0
	for i, q := range test.Questions {
		if !pollable(q) {
			ctxzap.Warn(ctx, "question cannot be sent as a quiz poll",
				zap.Int("question", i+1),
				zap.Int("options", len(q.Options)),
			)
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := h.messageSender.SendPoll(quizPoll(chatID, sent, q)); err != nil {
			return err
		}
		sent++
	}

	ctxzap.Info(ctx, "test delivered",
		zap.String("test_id", test.TestID),
		zap.Int("polls", sent),
	)

	return h.sendMessage(chatID, render.MsgTestDone, h.keyboard.ExportKeyboard(test.TestID))
}

func pollable(q entity.TestQuestion) bool {
	return len(q.Options) >= minPollOptions &&
		len(q.Options) <= maxPollOptions &&
		q.CorrectAnswer >= 1 &&
		q.CorrectAnswer <= len(q.Options)
}

func quizPoll(chatID int64, i int, q entity.TestQuestion) tgbotapi.SendPollConfig {
	poll := tgbotapi.NewPoll(chatID, render.PollQuestion(i, q), render.PollOptions(q)...)
	poll.Type = pollType
	poll.IsAnonymous = false
	poll.CorrectOptionID = int64(q.CorrectAnswer - 1)
	poll.Explanation = render.PollExplanation(q)
	return poll
}
