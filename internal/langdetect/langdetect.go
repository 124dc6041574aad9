// Package langdetect guesses the language of a chat message by scoring
// stopword hits. It covers the languages the widget ships voices for and
// falls back to English.
package langdetect

import "strings"

// Supported language codes.
const (
	Portuguese = "pt"
	English    = "en"
	Spanish    = "es"
	French     = "fr"
	German     = "de"
)

var stopwords = map[string][]string{
	Portuguese: {
		"o", "a", "os", "as", "um", "uma", "de", "do", "da", "em", "no", "na",
		"que", "e", "é", "para", "com", "não", "por", "mais", "como", "mas",
		"se", "eu", "você", "voce", "ele", "ela", "nós", "nos", "isso", "está",
		"esta", "são", "sao", "tem", "foi", "ser", "tudo", "bem", "obrigado",
		"obrigada", "olá", "ola", "sim", "já", "também", "tambem",
	},
	English: {
		"the", "a", "an", "of", "to", "in", "is", "it", "that", "and", "for",
		"with", "not", "on", "you", "i", "he", "she", "we", "this", "are",
		"was", "be", "have", "has", "do", "what", "how", "hello", "hi", "yes",
		"no", "thanks", "thank", "please", "can", "would", "my", "your",
	},
	Spanish: {
		"el", "la", "los", "las", "un", "una", "de", "del", "en", "que", "y",
		"es", "para", "con", "no", "por", "más", "mas", "como", "pero", "si",
		"yo", "tú", "tu", "él", "ella", "nosotros", "esto", "está", "esta",
		"son", "tiene", "fue", "ser", "todo", "bien", "gracias", "hola", "sí",
		"también", "tambien", "usted",
	},
	French: {
		"le", "la", "les", "un", "une", "de", "du", "des", "en", "est", "et",
		"que", "pour", "avec", "pas", "ne", "sur", "vous", "je", "il", "elle",
		"nous", "ce", "cette", "sont", "a", "été", "etre", "être", "tout",
		"bien", "merci", "bonjour", "oui", "non", "aussi", "mais", "si",
	},
	German: {
		"der", "die", "das", "ein", "eine", "von", "zu", "in", "ist", "es",
		"dass", "und", "für", "fur", "mit", "nicht", "auf", "sie", "ich", "er",
		"wir", "dies", "sind", "war", "sein", "haben", "hat", "was", "wie",
		"hallo", "ja", "nein", "danke", "bitte", "auch", "aber", "wenn",
	},
}

var tokenTrim = ".,;:!?¿¡\"'()[]{}«»"

// Detect returns the best-scoring language code for a message, or English
// when nothing scores.
func Detect(message string) string {
	words := tokenize(message)
	if len(words) == 0 {
		return English
	}

	best := English
	bestScore := 0
	// Stable iteration so ties resolve the same way every call.
	for _, lang := range []string{Portuguese, English, Spanish, French, German} {
		score := 0
		for _, word := range words {
			for _, stop := range stopwords[lang] {
				if word == stop {
					score++
					break
				}
			}
		}
		if score > bestScore {
			best = lang
			bestScore = score
		}
	}
	return best
}

func tokenize(message string) []string {
	fields := strings.Fields(strings.ToLower(message))
	words := make([]string, 0, len(fields))
	for _, field := range fields {
		word := strings.Trim(field, tokenTrim)
		if word != "" {
			words = append(words, word)
		}
	}
	return words
}
