package highlights

import (
	"strings"

	"github.com/reelcut/reelcut/internal/types"
)

// ScoringStrategy turns a raw oracle response into a final segment score.
// The blend weighs the oracle's relevance against textual evidence in the
// returned attributes so that a single noisy oracle answer cannot dominate.
type ScoringStrategy interface {
	Name() string
	Blend(res types.OracleResult, obj types.Objective) float64
}

// StrategyFor picks the scoring strategy matching the objective.
func StrategyFor(obj types.Objective, lex Lexicon) ScoringStrategy {
	switch Classify(obj) {
	case ModeSimilarity:
		return similarityStrategy{lex: lex}
	case ModeAction:
		return actionStrategy{lex: lex}
	default:
		return genericStrategy{}
	}
}

const (
	oracleWeight    = 0.6
	keywordWeight   = 0.15
	keywordBonusCap = 0.3
	synonymWeight   = 0.15
)

// actionStrategy scores prompts about recognizable physical actions.
// Base confidence is lower than the generic strategy because short action
// windows carry less visual context per frame.
type actionStrategy struct {
	lex Lexicon
}

func (actionStrategy) Name() string { return "keyword-action" }

func (s actionStrategy) Blend(res types.OracleResult, obj types.Objective) float64 {
	score := 0.2 + clamp01(res.Relevance/10)*oracleWeight
	text := attributeText(res)
	words := promptWords(obj.Prompt)
	score += keywordBonus(text, words)
	score += synonymBonus(text, words, s.lex)
	return clamp01(score)
}

type genericStrategy struct{}

func (genericStrategy) Name() string { return "generic-prompt" }

func (genericStrategy) Blend(res types.OracleResult, obj types.Objective) float64 {
	score := 0.3 + clamp01(res.Relevance/10)*oracleWeight
	score += keywordBonus(attributeText(res), promptWords(obj.Prompt))
	return clamp01(score)
}

// similarityStrategy matches oracle output against the profile derived from
// an example range instead of a free-form prompt.
type similarityStrategy struct {
	lex Lexicon
}

func (similarityStrategy) Name() string { return "example-similarity" }

func (s similarityStrategy) Blend(res types.OracleResult, obj types.Objective) float64 {
	score := 0.2 + clamp01(res.Relevance/10)*oracleWeight
	if obj.Example == nil {
		return clamp01(score)
	}
	text := attributeText(res)
	var words []string
	for _, kw := range obj.Example.Keywords {
		words = append(words, strings.ToLower(kw))
	}
	words = append(words, promptWords(obj.Example.Description)...)
	words = append(words, promptWords(obj.Prompt)...)
	score += keywordBonus(text, words)
	score += synonymBonus(text, words, s.lex)
	return clamp01(score)
}

// attributeText flattens the oracle attributes into one lowercase haystack.
func attributeText(res types.OracleResult) string {
	if len(res.Attributes) == 0 {
		return ""
	}
	var b strings.Builder
	for k, v := range res.Attributes {
		b.WriteString(strings.ToLower(k))
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(v))
		b.WriteByte(' ')
	}
	return b.String()
}

func keywordBonus(text string, words []string) float64 {
	if text == "" || len(words) == 0 {
		return 0
	}
	var bonus float64
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		if seen[w] {
			continue
		}
		seen[w] = true
		if strings.Contains(text, w) {
			bonus += keywordWeight
		}
	}
	if bonus > keywordBonusCap {
		bonus = keywordBonusCap
	}
	return bonus
}

// synonymBonus rewards lexicon synonyms of the prompt words that show up in
// the oracle text, scaled by the fraction of words with at least one hit.
func synonymBonus(text string, words []string, lex Lexicon) float64 {
	if text == "" || len(words) == 0 || len(lex) == 0 {
		return 0
	}
	matched := 0
	for _, w := range words {
		syns, ok := lex[w]
		if !ok {
			continue
		}
		for _, s := range syns {
			if strings.Contains(text, s) {
				matched++
				break
			}
		}
	}
	if matched == 0 {
		return 0
	}
	return synonymWeight * float64(matched) / float64(len(words))
}
