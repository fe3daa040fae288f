package learner

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/easeaico/tryangel/internal/types"
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func TestLoadProfileCreatesDefaults(t *testing.T) {
	svc, _ := newTestService(testNow)
	p, err := svc.LoadProfile(context.Background(), "alice")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if p.TrustScore != 70 || p.PreferredVoice != "Sol" || p.LastEmotion != "neutre" || p.DropoutRiskScore != 0.1 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	if p.SpeechSpeedAvg != 150 {
		t.Fatalf("expected default speed 150, got %f", p.SpeechSpeedAvg)
	}
}

func TestLoadProfileRejectsInvalidID(t *testing.T) {
	svc, _ := newTestService(testNow)
	_, err := svc.LoadProfile(context.Background(), "../etc")
	if !errors.Is(err, types.ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID, got %v", err)
	}
}

func TestRecordInteractionAdjustsTrust(t *testing.T) {
	svc, _ := newTestService(testNow)
	ctx := context.Background()
	if _, err := svc.LoadProfile(ctx, "alice"); err != nil {
		t.Fatalf("load: %v", err)
	}

	p, err := svc.RecordInteraction(ctx, "alice", FeedbackInput{VoiceID: "A", Feedback: "positif", Emotion: "joyeux"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if p.TrustScore != 72 || p.LastEmotion != "joyeux" || len(p.FeedbackHistory) != 1 {
		t.Fatalf("unexpected profile after positive feedback: %+v", p)
	}

	p, err = svc.RecordInteraction(ctx, "alice", FeedbackInput{VoiceID: "A", Feedback: "Confus", Emotion: "triste"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if p.TrustScore != 67 || p.LastEmotion != "triste" {
		t.Fatalf("unexpected profile after negative feedback: %+v", p)
	}
	if !p.LastUpdateDate.Equal(testNow) {
		t.Fatalf("expected last update to be stamped, got %v", p.LastUpdateDate)
	}
}

func TestRecordInteractionUnknownUser(t *testing.T) {
	svc, _ := newTestService(testNow)
	_, err := svc.RecordInteraction(context.Background(), "ghost", FeedbackInput{Feedback: "oui"})
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordInteractionTrustStaysInRange(t *testing.T) {
	svc, _ := newTestService(testNow)
	ctx := context.Background()
	if _, err := svc.LoadProfile(ctx, "bob"); err != nil {
		t.Fatalf("load: %v", err)
	}
	feedback := []string{"non", "oui", "mauvais", "négatif", "excellent", "confus", "clair"}
	for i := 0; i < 200; i++ {
		fb := feedback[(i*5)%len(feedback)]
		if i > 100 {
			fb = "excellent"
		}
		p, err := svc.RecordInteraction(ctx, "bob", FeedbackInput{VoiceID: "Sol", Feedback: fb, Emotion: "neutre"})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		if p.TrustScore < 0 || p.TrustScore > 100 {
			t.Fatalf("trust left range at step %d: %d", i, p.TrustScore)
		}
	}
}

func TestRecordInteractionSpeedIsMeanOfSamples(t *testing.T) {
	svc, _ := newTestService(testNow)
	ctx := context.Background()
	if _, err := svc.LoadProfile(ctx, "carol"); err != nil {
		t.Fatalf("load: %v", err)
	}
	samples := []float64{160, 150, 0, 181.5, 140}
	var p *types.Profile
	var err error
	for i, s := range samples {
		p, err = svc.RecordInteraction(ctx, "carol", FeedbackInput{VoiceID: "A", Feedback: "clair", Emotion: "neutre", SpeedSample: speed(s)})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		// interleave feedback without a sample; it must not skew the mean
		if i == 1 {
			if _, err := svc.RecordInteraction(ctx, "carol", FeedbackInput{VoiceID: "A", Feedback: "oui", Emotion: "neutre"}); err != nil {
				t.Fatalf("record: %v", err)
			}
		}
	}
	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	want := sum / float64(len(samples))
	if math.Abs(p.SpeechSpeedAvg-want) > 1e-9 {
		t.Fatalf("expected mean %f, got %f", want, p.SpeechSpeedAvg)
	}
}

func TestAddComprehensionScore(t *testing.T) {
	svc, _ := newTestService(testNow)
	ctx := context.Background()
	if _, err := svc.LoadProfile(ctx, "dave"); err != nil {
		t.Fatalf("load: %v", err)
	}
	p, err := svc.AddComprehensionScore(ctx, "dave", 0.2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if p.TrustScore != 67 || len(p.ComprehensionScores) != 1 || p.ComprehensionScores[0].Score != 0.2 {
		t.Fatalf("unexpected profile: %+v", p)
	}
	p, err = svc.AddComprehensionScore(ctx, "dave", 0.9)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if p.TrustScore != 68 || len(p.ComprehensionScores) != 2 {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if _, err := svc.AddComprehensionScore(ctx, "dave", 1.5); !errors.Is(err, ErrInvalidScore) {
		t.Fatalf("expected ErrInvalidScore, got %v", err)
	}
}

func TestSuggestAdaptiveVoice(t *testing.T) {
	svc, _ := newTestService(testNow)
	ctx := context.Background()
	if _, err := svc.LoadProfile(ctx, "erin"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := svc.RecordInteraction(ctx, "erin", FeedbackInput{VoiceID: "Sol", Feedback: "oui", Emotion: "stressé"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := svc.SuggestAdaptiveVoice(ctx, "erin")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if got != "Voix B – posée et rassurante conseillée." {
		t.Fatalf("unexpected suggestion %q", got)
	}
	if _, err := svc.SuggestAdaptiveVoice(ctx, "ghost"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
