package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easeaico/tryangel/internal/companion"
	"github.com/easeaico/tryangel/internal/content"
	"github.com/easeaico/tryangel/internal/filestore"
	"github.com/easeaico/tryangel/internal/learner"
	"github.com/easeaico/tryangel/internal/memory"
	"github.com/easeaico/tryangel/internal/types"
	"github.com/easeaico/tryangel/internal/voice"
)

type stubSpeech struct{}

func (stubSpeech) Synthesize(_ context.Context, text string) ([]byte, string, error) {
	return []byte("RIFF" + text), "wav", nil
}

func setupTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	dir := t.TempDir()
	store, err := filestore.New(filepath.Join(dir, "data"))
	require.NoError(t, err)
	voices, err := voice.NewLibrary(filepath.Join(dir, "voices"))
	require.NoError(t, err)
	lib, err := content.Load("")
	require.NoError(t, err)
	kb, err := learner.LoadKnowledgeBase("")
	require.NoError(t, err)

	svc, err := companion.NewService(companion.Deps{
		Learner:       learner.NewService(store),
		Memory:        memory.NewService(store),
		Content:       lib,
		Knowledge:     kb,
		Voices:        voices,
		Speech:        stubSpeech{},
		PublicBaseURL: "http://localhost:5000",
	})
	require.NoError(t, err)

	server, err := NewServer(svc, voices, cfg)
	require.NoError(t, err)
	return server
}

func doJSON(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNewServer(t *testing.T) {
	t.Run("returns error when companion is nil", func(t *testing.T) {
		_, err := NewServer(nil, nil, Config{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "companion service cannot be nil")
	})

	t.Run("applies defaults", func(t *testing.T) {
		s := setupTestServer(t, Config{})
		assert.Equal(t, "127.0.0.1:5000", s.config.Addr)
		assert.Equal(t, 5, s.config.SpeakBurst)
	})
}

func TestHandleHealth(t *testing.T) {
	s := setupTestServer(t, Config{})
	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[HealthResponse](t, rec).Status)
}

func TestHandleSpeak(t *testing.T) {
	t.Run("requires a message", func(t *testing.T) {
		s := setupTestServer(t, Config{})
		rec := doJSON(t, s, http.MethodPost, "/speak", SpeakRequest{UserID: "alice"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Message is required."}`, rec.Body.String())
	})

	t.Run("answers and serves the voice clip", func(t *testing.T) {
		s := setupTestServer(t, Config{})
		rec := doJSON(t, s, http.MethodPost, "/speak", SpeakRequest{Message: "Bonjour"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		res := decode[companion.SpeakResult](t, rec)
		assert.Equal(t, types.DefaultUserID, res.UserID)
		assert.Equal(t, "Bonjour", res.Message)
		assert.Equal(t, companion.TemplateReply("Bonjour"), res.Response)
		require.NotEmpty(t, res.VoicePath)
		assert.Equal(t, "http://localhost:5000"+res.VoicePath, res.VoiceURL)

		clip := doJSON(t, s, http.MethodGet, res.VoicePath, nil)
		assert.Equal(t, http.StatusOK, clip.Code)
		assert.Equal(t, "RIFF"+res.Response, clip.Body.String())
	})

	t.Run("rate limits per user", func(t *testing.T) {
		s := setupTestServer(t, Config{SpeakRate: 0.001, SpeakBurst: 2})
		for i := 0; i < 2; i++ {
			rec := doJSON(t, s, http.MethodPost, "/speak", SpeakRequest{UserID: "alice", Message: "Salut"})
			require.Equal(t, http.StatusOK, rec.Code)
		}
		rec := doJSON(t, s, http.MethodPost, "/speak", SpeakRequest{UserID: "alice", Message: "Salut"})
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)

		rec = doJSON(t, s, http.MethodPost, "/speak", SpeakRequest{UserID: "bob", Message: "Salut"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects unsafe user ids", func(t *testing.T) {
		s := setupTestServer(t, Config{})
		rec := doJSON(t, s, http.MethodPost, "/speak", SpeakRequest{UserID: "../secret", Message: "Salut"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleVoiceRejectsUnknownClips(t *testing.T) {
	s := setupTestServer(t, Config{})
	for _, target := range []string{
		"/voices/passwd",
		"/voices/response_00000000-0000-0000-0000-000000000000.wav",
		"/voices/..%2F..%2Fdata%2Fprofiles",
	} {
		rec := doJSON(t, s, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestHandleMemory(t *testing.T) {
	s := setupTestServer(t, Config{})
	for _, req := range []SpeakRequest{
		{UserID: "alice", Message: "Premier"},
		{UserID: "bob", Message: "Second"},
	} {
		require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodPost, "/speak", req).Code)
	}

	rec := doJSON(t, s, http.MethodGet, "/memory?user_id=alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]types.Interaction](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, "Premier", entries[0].Message)

	rec = doJSON(t, s, http.MethodGet, "/memory", nil)
	assert.Len(t, decode[[]types.Interaction](t, rec), 2)

	rec = doJSON(t, s, http.MethodGet, "/memory?user_id=nobody", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandleFeedbackAndProfile(t *testing.T) {
	s := setupTestServer(t, Config{})

	rec := doJSON(t, s, http.MethodGet, "/profile?user_id=alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	speed := 120.0
	rec = doJSON(t, s, http.MethodPost, "/feedback", FeedbackRequest{UserID: "alice", Feedback: "oui", Emotion: "satisfait", SpeechSpeed: &speed})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	profile := decode[types.Profile](t, rec)
	assert.Equal(t, 72, profile.TrustScore)
	assert.Equal(t, 120.0, profile.SpeechSpeedAvg)

	rec = doJSON(t, s, http.MethodGet, "/profile?user_id=alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "satisfait", decode[types.Profile](t, rec).LastEmotion)

	rec = doJSON(t, s, http.MethodPost, "/feedback", FeedbackRequest{UserID: "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleComprehension(t *testing.T) {
	s := setupTestServer(t, Config{})
	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodPost, "/speak", SpeakRequest{UserID: "alice", Message: "Salut"}).Code)

	score := 0.9
	rec := doJSON(t, s, http.MethodPost, "/comprehension", ComprehensionRequest{UserID: "alice", Score: &score})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[companion.ComprehensionResult](t, rec)
	assert.Equal(t, 71, res.Profile.TrustScore)

	bad := -1.0
	rec = doJSON(t, s, http.MethodPost, "/comprehension", ComprehensionRequest{UserID: "alice", Score: &bad})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleInsightsAndRisk(t *testing.T) {
	s := setupTestServer(t, Config{})

	rec := doJSON(t, s, http.MethodGet, "/insights?user_id=alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/risk", RiskRequest{UserID: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.9, decode[RiskResponse](t, rec).DropoutRisk)

	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodPost, "/speak", SpeakRequest{UserID: "alice", Message: "Salut"}).Code)

	rec = doJSON(t, s, http.MethodGet, "/insights?user_id=alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	insights := decode[companion.Insights](t, rec)
	assert.Equal(t, 70, insights.TrustScore)
	assert.InDelta(t, 0.3, insights.DropoutRisk, 1e-9)

	rec = doJSON(t, s, http.MethodPost, "/risk", RiskRequest{UserID: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.3, decode[RiskResponse](t, rec).DropoutRisk, 1e-9)
}

func TestHandleMemories(t *testing.T) {
	s := setupTestServer(t, Config{})

	rec := doJSON(t, s, http.MethodGet, "/memories?user_id=alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{memory.NoMemories}, decode[MemoriesResponse](t, rec).Memories)

	rec = doJSON(t, s, http.MethodPost, "/memories", MemoryRequest{UserID: "alice", Type: "famille", Event: "Anniversaire de Paul"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, s, http.MethodGet, "/memories?user_id=alice&limit=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	memories := decode[MemoriesResponse](t, rec).Memories
	require.Len(t, memories, 1)
	assert.Contains(t, memories[0], "Anniversaire de Paul")

	rec = doJSON(t, s, http.MethodPost, "/memories", MemoryRequest{UserID: "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/memories?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleContentBanks(t *testing.T) {
	s := setupTestServer(t, Config{})

	rec := doJSON(t, s, http.MethodGet, "/jokes?category=nerdy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[map[string]string](t, rec)["joke"])

	rec = doJSON(t, s, http.MethodGet, "/jokes?category=cats", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, []string{"grandma_friendly", "nerdy", "soft"}, body.Categories)

	rec = doJSON(t, s, http.MethodGet, "/tips", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "any", decode[map[string]string](t, rec)["topic"])

	rec = doJSON(t, s, http.MethodGet, "/reassurance?context=inconnu", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, content.ReassuranceFallback, decode[map[string]string](t, rec)["phrase"])
}

func TestHandleContext(t *testing.T) {
	s := setupTestServer(t, Config{})

	rec := doJSON(t, s, http.MethodPost, "/context", ContextRequest{Text: "Mon médecin a envoyé une ordonnance"})
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Categories map[string][]string `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.ElementsMatch(t, []string{"médecin", "ordonnance"}, body.Categories["sante"])

	rec = doJSON(t, s, http.MethodPost, "/context", ContextRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMetrics(t *testing.T) {
	s := setupTestServer(t, Config{})
	doJSON(t, s, http.MethodGet, "/health", nil)

	rec := doJSON(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tryangel_http_requests_total")
}
