package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/easeaico/tryangel/internal/companion"
	"github.com/easeaico/tryangel/internal/content"
	"github.com/easeaico/tryangel/internal/memory"
	"github.com/easeaico/tryangel/internal/metrics"
	"github.com/easeaico/tryangel/internal/types"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// SpeakRequest is the request body for POST /speak.
type SpeakRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
	Emotion string `json:"emotion"`
}

func (s *Server) handleSpeak(c echo.Context) error {
	var req SpeakRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return httpError(companion.ErrMessageRequired)
	}

	userID := companion.ResolveUserID(req.UserID)
	if err := types.ValidateUserID(userID); err != nil {
		return httpError(err)
	}
	if !s.limiter.Allow(userID) {
		metrics.RateLimitedTotal.Inc()
		return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, please slow down.")
	}

	result, err := s.companion.Speak(c.Request().Context(), companion.SpeakInput{
		UserID:  userID,
		Message: req.Message,
		Emotion: req.Emotion,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleVoice(c echo.Context) error {
	path, err := s.voices.Path(c.Param("filename"))
	if err != nil {
		return httpError(err)
	}
	return c.File(path)
}

func (s *Server) handleMemory(c echo.Context) error {
	userID := strings.TrimSpace(c.QueryParam("user_id"))
	if userID != "" {
		if err := types.ValidateUserID(userID); err != nil {
			return httpError(err)
		}
	}
	history, err := s.companion.Memory().History(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	if history == nil {
		history = []types.Interaction{}
	}
	return c.JSON(http.StatusOK, history)
}

// FeedbackRequest is the request body for POST /feedback.
type FeedbackRequest struct {
	UserID      string   `json:"user_id"`
	VoiceID     string   `json:"voice_id"`
	Feedback    string   `json:"feedback"`
	Emotion     string   `json:"emotion"`
	SpeechSpeed *float64 `json:"speech_speed"`
}

func (s *Server) handleFeedback(c echo.Context) error {
	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	profile, err := s.companion.Feedback(c.Request().Context(), companion.FeedbackInput{
		UserID:      req.UserID,
		VoiceID:     req.VoiceID,
		Feedback:    req.Feedback,
		Emotion:     req.Emotion,
		SpeedSample: req.SpeechSpeed,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// ComprehensionRequest is the request body for POST /comprehension.
type ComprehensionRequest struct {
	UserID   string   `json:"user_id"`
	Score    *float64 `json:"score"`
	Text     string   `json:"text"`
	Keywords []string `json:"keywords"`
}

func (s *Server) handleComprehension(c echo.Context) error {
	var req ComprehensionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	result, err := s.companion.Comprehension(c.Request().Context(), companion.ComprehensionInput{
		UserID:   req.UserID,
		Score:    req.Score,
		Text:     req.Text,
		Keywords: req.Keywords,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleProfile(c echo.Context) error {
	userID := companion.ResolveUserID(c.QueryParam("user_id"))
	profile, err := s.companion.Learner().Profile(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

func (s *Server) handleInsights(c echo.Context) error {
	insights, err := s.companion.Insights(c.Request().Context(), c.QueryParam("user_id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, insights)
}

// RiskRequest is the request body for POST /risk.
type RiskRequest struct {
	UserID string `json:"user_id"`
}

// RiskResponse reports a persisted dropout risk analysis.
type RiskResponse struct {
	UserID      string  `json:"user_id"`
	DropoutRisk float64 `json:"dropout_risk"`
}

func (s *Server) handleRisk(c echo.Context) error {
	var req RiskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	userID := companion.ResolveUserID(req.UserID)
	risk, err := s.companion.AnalyzeDropoutRisk(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, RiskResponse{UserID: userID, DropoutRisk: risk})
}

// MemoryRequest is the request body for POST /memories.
type MemoryRequest struct {
	UserID string `json:"user_id"`
	Type   string `json:"type"`
	Event  string `json:"event"`
}

// MemoriesResponse lists the recalled memories of a user.
type MemoriesResponse struct {
	UserID   string   `json:"user_id"`
	Memories []string `json:"memories"`
}

func (s *Server) handleRecordMemory(c echo.Context) error {
	var req MemoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	userID := companion.ResolveUserID(req.UserID)
	if err := types.ValidateUserID(userID); err != nil {
		return httpError(err)
	}
	if strings.TrimSpace(req.Event) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "event is required")
	}
	event, err := s.companion.Memory().RecordMemory(c.Request().Context(), userID, req.Type, req.Event)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, event)
}

func (s *Server) handleRecallMemories(c echo.Context) error {
	userID := companion.ResolveUserID(c.QueryParam("user_id"))
	if err := types.ValidateUserID(userID); err != nil {
		return httpError(err)
	}
	limit := memory.DefaultRecallLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	memories, err := s.companion.Memory().RecallMemories(c.Request().Context(), userID, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, MemoriesResponse{UserID: userID, Memories: memories})
}

func (s *Server) handleJoke(c echo.Context) error {
	category := c.QueryParam("category")
	if category == "" {
		category = content.AnyCategory
	}
	joke, err := s.companion.Content().Jokes.Pick(category)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"category": category, "joke": joke})
}

func (s *Server) handleTip(c echo.Context) error {
	topic := c.QueryParam("topic")
	if topic == "" {
		topic = content.AnyCategory
	}
	tip, err := s.companion.Content().Tips.Pick(topic)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"topic": topic, "tip": tip})
}

func (s *Server) handleReassurance(c echo.Context) error {
	topic := c.QueryParam("context")
	phrase := s.companion.Content().Reassure(topic)
	return c.JSON(http.StatusOK, map[string]string{"context": topic, "phrase": phrase})
}

// ContextRequest is the request body for POST /context.
type ContextRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleContext(c echo.Context) error {
	var req ContextRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	return c.JSON(http.StatusOK, map[string]any{"categories": s.companion.Context(req.Text)})
}
