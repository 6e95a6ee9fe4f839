// Prompt templates shared by the vendor-backed providers.
//
// The system prompt establishes a medical-interpreter persona and embeds the
// glossary context verbatim; the user prompt carries the source text and a
// closing instruction demanding translation-only output. A non-medical
// context tag degrades to a plain "translate accurately" instruction with no
// glossary.
package provider

import (
	"fmt"

	"github.com/captain-yun7/medtranslate-v1/internal/glossary"
)

// medicalSystemPrompt is the fixed instruction block for medical-context
// translation. Wording is deliberately stable: it participates in vendor-side
// prompt caching.
const medicalSystemPrompt = `You are a professional medical interpreter specialized in healthcare communication.

Your responsibilities:
1. Translate medical consultations accurately and precisely
2. Use correct medical terminology
3. Maintain the tone and intent of the original message
4. Use formal and polite language appropriate for medical settings
5. Clearly convey symptoms, pain, and medical conditions
6. Consider cultural differences in medical communication

Important guidelines:
- Translate ONLY the given text, without adding explanations or commentary
- Preserve the emotional tone and urgency when relevant
- Use standardized medical terminology when available
- Be sensitive to patient concerns and cultural nuances`

// generalSystemPrompt is used for any non-medical context tag.
const generalSystemPrompt = `You are a professional translator. Translate the text accurately while maintaining the original tone and intent.`

// systemPrompt renders the instruction block for the given context tag,
// appending the glossary term reference when the table yields context for
// this direction.
func systemPrompt(contextTag string, table *glossary.Table, sourceLang, targetLang string) string {
	if contextTag != ContextMedical {
		return generalSystemPrompt
	}
	prompt := medicalSystemPrompt
	if table != nil {
		if ref := table.Context(sourceLang, targetLang); ref != "" {
			prompt += "\n\nMedical Terminology Reference:\n" + ref
		}
	}
	return prompt
}

// userPrompt renders the per-call message: language names, the original
// text, and the translation-only closing instruction.
func userPrompt(text, sourceLang, targetLang string) string {
	sourceName := langName(sourceLang)
	targetName := langName(targetLang)
	return fmt.Sprintf(`Translate the following text from %s to %s.

Source text (%s):
%s

Provide ONLY the translation in %s, without any explanations or additional text.`,
		sourceName, targetName, sourceName, text, targetName)
}
