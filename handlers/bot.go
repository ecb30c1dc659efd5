package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/raceatlas/raceatlas-api/models"
)

const coachFallbackAnswer = "I can't answer this one.."

type coachRequest struct {
	Q string `json:"q"`
}

// AskCoach proxies a question to the coach chatbot and logs the exchange.
// The log insert is advisory: its failure never blocks the response.
func (h *Handler) AskCoach(c echo.Context) error {
	if h.openai == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "coach not configured")
	}

	var req coachRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Q == "" {
		req.Q = c.QueryParam("q")
	}
	if req.Q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}

	ctx := c.Request().Context()
	answer := coachFallbackAnswer

	resp, err := h.openai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       openai.GPT4oMini,
		Temperature: 0.7,
		MaxTokens:   100,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "Act as a running coach who's a mix of David Goggins and Usain Bolt. " +
					"Give a witty, funny and mostly wrong response. Show only the response.",
			},
			{Role: openai.ChatMessageRoleUser, Content: req.Q},
		},
	})

	var raw []byte
	if err != nil {
		raw, _ = json.Marshal(map[string]string{"error": err.Error()})
		h.logCoachAnswer(c, req.Q, answer, raw)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if len(resp.Choices) > 0 {
		answer = resp.Choices[0].Message.Content
	}
	raw, _ = json.Marshal(resp)
	h.logCoachAnswer(c, req.Q, answer, raw)

	return c.JSON(http.StatusOK, map[string]string{
		"question": req.Q,
		"answer":   answer,
	})
}

func (h *Handler) logCoachAnswer(c echo.Context, question, answer string, raw []byte) {
	referer := c.Request().Referer()
	if referer == "" {
		referer = c.Request().Header.Get("Origin")
	}
	if referer == "" {
		referer = "-"
	}

	row := &models.CoachAnswer{
		Question:  question,
		Answer:    answer,
		Response:  raw,
		IP:        c.RealIP(),
		Referer:   referer,
		UserAgent: c.Request().UserAgent(),
	}
	if _, err := h.db.NewInsert().Model(row).Exec(c.Request().Context()); err != nil {
		zap.L().Warn("coach answer log failed", zap.Error(err))
	}
}
