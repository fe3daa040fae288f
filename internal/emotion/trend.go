package emotion

import (
	"fmt"

	"github.com/easeaico/tryangel/internal/types"
)

const (
	// DefaultTrendWindow is the number of recent entries inspected by Trend.
	DefaultTrendWindow = 5
	trendThreshold     = 3
)

// NoTrend is reported when the timeline holds no entries.
const NoTrend = "Aucune tendance détectée."

// Trend summarizes the most recent emotions of a timeline.
func Trend(timeline []types.EmotionEntry, window int) string {
	if window <= 0 {
		window = DefaultTrendWindow
	}
	if len(timeline) == 0 {
		return NoTrend
	}
	recent := timeline
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}

	counts := make(map[string]int, len(recent))
	for _, e := range recent {
		counts[Normalize(e.Emotion)]++
	}

	switch {
	case counts[Triste] >= trendThreshold:
		return "Tu sembles souvent triste dernièrement. Est-ce que je peux t’accompagner davantage ?"
	case counts[Joyeux] >= trendThreshold:
		return "Je remarque beaucoup de joie ces derniers temps, ça me fait plaisir !"
	case len(counts) == 1:
		return fmt.Sprintf("Tu sembles plutôt stable émotionnellement (%s).", Normalize(recent[0].Emotion))
	default:
		return "Tes émotions ont été assez variées récemment. Je reste attentive."
	}
}
