package highlights

import "strings"

// Lexicon maps objective keywords onto descriptive phrases the oracle tends
// to use for the same action. The table is hand-curated for fast-action
// gameplay footage; callers can substitute their own via ScoringStrategy.
type Lexicon map[string][]string

// DefaultLexicon covers the action vocabulary the engine classifies on.
func DefaultLexicon() Lexicon {
	return Lexicon{
		"throwing": {"toss", "launch", "hurl", "pitch", "cast", "release", "arm movement", "arm extension", "forward motion", "throwing motion", "gesture"},
		"catching": {"grab", "grasp", "receive", "snatch", "hold", "hands", "arms extended", "reaching", "catch attempt"},
		"pokeball": {"ball", "sphere", "round object", "circular", "projectile", "flying object", "toy", "gaming device"},
		"pokemon":  {"game", "gaming", "character", "creature", "trainer", "mobile game", "augmented reality", "interface", "screen"},
		"aiming":   {"target", "crosshair", "circle", "targeting", "focus", "concentration", "preparing", "setup"},
		"success":  {"celebration", "victory", "happy", "excited", "caught", "successful", "stars", "sparkles", "fist pump", "smile"},
		"failure":  {"disappointment", "frustrated", "missed", "failed", "escaped", "broke free", "upset", "retry"},
		"running":  {"jogging", "sprint", "moving quickly", "exercise", "athletic", "legs", "motion"},
		"jumping":  {"leap", "hop", "bounce", "airborne", "athletic movement"},
		"playing":  {"gaming", "entertainment", "recreational", "interactive", "fun activity", "mobile gaming"},
		"kicking":  {"foot", "leg", "soccer", "football", "striking"},
		"hitting":  {"striking", "contact", "impact", "swing", "bat", "racket"},
		"dancing":  {"rhythm", "music", "choreography", "moves", "spinning"},
		"shooting": {"aim", "shot", "basket", "goal", "hoop", "net"},
	}
}

// actionKeywords classifies a prompt as action-oriented. Substring matching
// intentionally catches inflections ("throws", "catches").
var actionKeywords = []string{
	"throwing", "catching", "running", "jumping", "dancing", "playing",
	"kicking", "hitting", "shooting", "pokeball", "pokemon", "throw",
	"catch", "ball", "game", "gaming", "mobile", "attempt",
}

func isActionPrompt(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, kw := range actionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// promptWords splits a prompt into match-worthy words: lowercase, longer
// than two runes, stop words removed.
func promptWords(prompt string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(prompt)) {
		w = strings.Trim(w, `.,!?"'`)
		if len(w) <= 2 || stopWords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"that": true, "this": true, "all": true, "any": true, "are": true,
	"was": true, "our": true, "you": true, "your": true,
}
