// Package tone scores user utterances against emotional tone labels using
// keyword heuristics. It backs the tone service when no classifier model is
// configured or when a model call fails.
package tone

import "strings"

// Label is an emotional tone attached to a conversation turn.
type Label string

const (
	Neutral    Label = "neutral"
	Joy        Label = "joy"
	Sadness    Label = "sadness"
	Anger      Label = "anger"
	Fear       Label = "fear"
	Analytical Label = "analytical"
	Confident  Label = "confident"
	Tentative  Label = "tentative"
)

// Decision is the detected tone with its raw keyword score.
type Decision struct {
	Tone  Label
	Score int
}

var keywordBuckets = map[Label][]string{
	Joy: {
		"happy", "glad", "great", "awesome", "love", "wonderful", "amazing", "fantastic",
		"excited", "fun", "laugh", "thanks", "thank you", "delighted", "enjoy", "haha", "lol",
	},
	Sadness: {
		"sad", "unhappy", "lonely", "depressed", "miss", "cry", "down", "upset",
		"hurt", "disappointed", "heartbroken", "miserable", "hopeless", "grief",
	},
	Anger: {
		"angry", "furious", "mad", "hate", "annoyed", "fed up", "rage", "outraged",
		"pissed", "irritated", "frustrated", "sick of",
	},
	Fear: {
		"afraid", "scared", "worried", "anxious", "nervous", "terrified", "panic",
		"frightened", "dread", "uneasy",
	},
	Analytical: {
		"because", "therefore", "analyze", "compare", "consider", "reason", "evidence",
		"logically", "however", "in fact", "measure", "evaluate",
	},
	Confident: {
		"definitely", "certainly", "absolutely", "sure", "confident", "without a doubt",
		"i know", "of course", "no question",
	},
	Tentative: {
		"maybe", "perhaps", "might", "i guess", "not sure", "possibly", "i think",
		"sort of", "kind of", "probably",
	},
}

// Exclamation marks read as emphasis and lean joyful in casual chat.
const exclamationBoost = 2

// Analyze picks the strongest tone signal in the utterance. An empty or
// signal-free utterance comes back Neutral with score zero.
func Analyze(utterance string) Decision {
	normalized := strings.ToLower(strings.TrimSpace(utterance))
	if normalized == "" {
		return Decision{Tone: Neutral}
	}

	scores := make(map[Label]int)
	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				scores[label] += 3
			}
		}
	}

	if n := strings.Count(utterance, "!"); n > 0 {
		scores[Joy] += n * exclamationBoost
	}

	best := Neutral
	bestScore := 0
	for label, score := range scores {
		if score > bestScore {
			bestScore = score
			best = label
		}
	}

	if bestScore == 0 {
		return Decision{Tone: Neutral}
	}
	return Decision{Tone: best, Score: bestScore}
}
