package emotion

import "time"

// AdaptiveVoice returns a voice recommendation for the user's last emotion,
// falling back to the time of day when the emotion gives no hint.
func AdaptiveVoice(lastEmotion string, now time.Time) string {
	switch Normalize(lastEmotion) {
	case Triste, Frustre, Fatigue, Angoisse:
		return "Voix E – calme, douce et réconfortante suggérée."
	case Stresse, Confus:
		return "Voix B – posée et rassurante conseillée."
	case Joyeux, Satisfait:
		return "Voix D – énergique et chaleureuse recommandée."
	}

	hour := now.Hour()
	switch {
	case hour < 7 || hour >= 22:
		return "Voix C – lente et apaisante suggérée pour un moment tardif."
	case hour >= 12 && hour <= 14:
		return "Voix A – claire et concise pour un moment actif."
	default:
		return "Voix standard – adaptée à une humeur neutre et une heure classique."
	}
}
