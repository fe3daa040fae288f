package companion

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/easeaico/tryangel/internal/content"
	"github.com/easeaico/tryangel/internal/emotion"
	"github.com/easeaico/tryangel/internal/types"
	"github.com/easeaico/tryangel/internal/utils"
)

// Reply sources, also used as metric labels.
const (
	SourceJoke        = "joke"
	SourceTip         = "tip"
	SourceReassurance = "reassurance"
	SourceLLM         = "llm"
	SourceTemplate    = "template"
)

const echoLimit = 80

// ReplyRequest is what a Responder sees of the conversation.
type ReplyRequest struct {
	Profile  *types.Profile
	Emotion  string
	Message  string
	History  []types.Interaction
	Memories []string
}

// Responder writes free-form replies, typically with an LLM.
type Responder interface {
	Respond(ctx context.Context, req ReplyRequest) (string, error)
}

type keywordRoute struct {
	category string
	keywords []string
}

var jokeKeywords = []string{"blague", "blagues", "rigoler", "faire rire", "fais-moi rire", "humour", "drôle"}

var tipRoutes = []keywordRoute{
	{"passwords", []string{"mot de passe", "mots de passe", "code secret"}},
	{"phishing", []string{"arnaque", "arnaques", "phishing", "hameçonnage", "lien suspect", "message suspect", "courriel suspect"}},
	{"updates", []string{"mise à jour", "mises à jour"}},
	{"devices", []string{"téléphone", "portable", "ordinateur", "tablette", "clé usb", "wifi"}},
}

var reassuranceRoutes = []keywordRoute{
	{"tristesse", []string{"triste", "pleure", "pleurer", "déprime", "déprimé", "déprimée", "cafard"}},
	{"solitude", []string{"seul", "seule", "solitude", "isolé", "isolée", "personne ne"}},
	{"stress", []string{"stress", "stressé", "stressée", "angoisse", "angoissé", "angoissée", "nerveux", "nerveuse", "débordé", "débordée"}},
	{"peur", []string{"peur", "effrayé", "effrayée", "inquiet", "inquiète"}},
}

// Emotions that call for reassurance even when the message itself is neutral.
var reassuranceByEmotion = map[string]string{
	emotion.Triste:   "tristesse",
	emotion.Stresse:  "stress",
	emotion.Angoisse: "peur",
}

// TemplateReply acknowledges a message by echoing its beginning.
func TemplateReply(message string) string {
	return fmt.Sprintf("Je reçois : %s. Je le retiens pour m’en souvenir.", utils.TruncateRunes(message, echoLimit))
}

// routeCanned picks a reply from the content banks when the message or the
// emotion asks for one. It returns an empty source otherwise.
func routeCanned(lib *content.Library, message, label string) (string, string) {
	if lib == nil {
		return "", ""
	}
	text := wordText(message)

	if containsAny(text, jokeKeywords) {
		if joke, err := lib.Jokes.Pick(content.AnyCategory); err == nil {
			return joke, SourceJoke
		}
	}
	for _, r := range tipRoutes {
		if containsAny(text, r.keywords) {
			if tip, err := lib.Tips.Pick(r.category); err == nil {
				return tip, SourceTip
			}
		}
	}
	for _, r := range reassuranceRoutes {
		if containsAny(text, r.keywords) {
			return lib.Reassure(r.category), SourceReassurance
		}
	}
	if ctx, ok := reassuranceByEmotion[emotion.Normalize(label)]; ok {
		return lib.Reassure(ctx), SourceReassurance
	}
	return "", ""
}

// wordText lowercases s and reduces it to space-separated words, padded with
// a space on both sides so that whole words can be matched with Contains.
func wordText(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(fields, " ") + " "
}

// containsAny reports whether text, built by wordText, holds one of the
// keywords as whole words.
func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, wordText(kw)) {
			return true
		}
	}
	return false
}
