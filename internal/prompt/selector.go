// Package prompt assembles the reflective-prompt templates handed to the
// generation service. Selection is keyed on the sentiment score and on
// whether continuity memory was found; no generation happens here.
package prompt

import "fmt"

// Tier names, one per score band plus the fallback.
const (
	TierDistress    = "distress-validating"
	TierExploratory = "exploratory"
	TierReflective  = "reflective"
	TierReinforcing = "reinforcing"
	TierCelebratory = "celebratory"
	TierDefault     = "default"
)

// Persona carries the user-selected voice and what they value in each
// sentiment band, from most distressed to elated.
type Persona struct {
	Voice string
	// BandValues[0] applies when highly distressed, BandValues[4] when elated.
	BandValues [5]string
}

// DefaultPersona is used when the user has not picked one.
func DefaultPersona() Persona {
	return Persona{
		Voice: "warm, supportive companion",
		BandValues: [5]string{
			"comfort",
			"gentleness",
			"clarity",
			"encouragement",
			"celebration",
		},
	}
}

// preamble is the shared instruction prefix carrying persona and values.
func (p Persona) preamble() string {
	return fmt.Sprintf(
		"Act as a %s voice. "+
			"When highly distressed you value %s; when sad you value %s; "+
			"when neutral you value %s; when happy you value %s; when elated you value %s.\n\n",
		p.Voice, p.BandValues[0], p.BandValues[1], p.BandValues[2], p.BandValues[3], p.BandValues[4])
}

// TierName maps a sentiment score to its tier.
func TierName(score int) string {
	switch {
	case score == 1 || score == 2:
		return TierDistress
	case score == 3 || score == 4:
		return TierExploratory
	case score == 5 || score == 6:
		return TierReflective
	case score == 7 || score == 8:
		return TierReinforcing
	case score == 9 || score == 10:
		return TierCelebratory
	default:
		return TierDefault
	}
}

// SelectPrompt builds the full generation prompt for a message.
//
// When memoryContext is non-empty the prompt references the prior
// conversation so the reflection builds on it; otherwise it is one of five
// self-contained tier templates keyed on the score, with a fallback for
// out-of-range scores. Word limits are request constraints passed to the
// model, not enforced here.
func SelectPrompt(persona Persona, score int, userMessage, memoryContext string) string {
	if memoryContext != "" {
		return persona.preamble() + fmt.Sprintf(
			"In previous conversations, you mentioned the following:\n%s\n\n"+
				"Now, considering your current message: '%s', please provide further reflective "+
				"advice that builds on the past discussion. Limit response to 50-100 words.",
			memoryContext, userMessage)
	}

	pre := persona.preamble()
	switch TierName(score) {
	case TierDistress:
		return pre +
			"The user is likely experiencing high distress. " +
			"Validate their emotions and gently ask if they'd consider speaking to a mental health professional.\n\n" +
			"User message:\n" + userMessage + "\n\n" +
			"Now, write a gentle, emotionally supportive reflection prompt to help them process this. " +
			"Limit your response to 50 words."
	case TierExploratory:
		return pre +
			"The user seems to be going through something heavy. " +
			"Your goal is to help them explore their emotions softly, without pushing too hard.\n\n" +
			"User message:\n" + userMessage + "\n\n" +
			"Respond with a thoughtful, open-ended question for reflection. Limit your response to 50 words."
	case TierReflective:
		return pre +
			"The user might be in a reflective or uncertain state. " +
			"Encourage them to unpack what led to this feeling in a supportive way.\n\n" +
			"User message:\n" + userMessage + "\n\n" +
			"Write a simple reflective question to help them make sense of their emotions. Limit your response to 50 words."
	case TierReinforcing:
		return pre +
			"The user seems to be recovering or doing better. " +
			"Your job is to reinforce their strengths and ask them what helped them feel better.\n\n" +
			"User message:\n" + userMessage + "\n\n" +
			"Create a reflection prompt that celebrates progress while inspiring growth. Limit your response to 50 words."
	case TierCelebratory:
		return pre +
			"The user is in a great emotional state. " +
			"Congratulate them and ask a light reflection question to keep the momentum going.\n\n" +
			"User message:\n" + userMessage + "\n\n" +
			"Write a short positive reflection question to help them stay grounded and motivated. Limit your response to 50 words."
	default:
		return pre +
			"Help the user reflect on their emotions with compassion.\n\n" +
			"User message:\n" + userMessage + "\n\n" +
			"Write a concise reflective prompt that helps them better understand how they feel. Limit your response to 20 words."
	}
}

// SummaryPrompt asks the model for the short derived summary stored with
// the entry and used as the comparison text for later continuity scans.
func SummaryPrompt(userMessage string) string {
	return "Summarize the following message in one or two sentences, in the second person, " +
		"keeping the emotional core intact:\n\n" + userMessage
}

// CheckupMessage is the generic follow-up notification text.
func CheckupMessage() string {
	return "ReflectIn would love to know: How are you feeling now?"
}
