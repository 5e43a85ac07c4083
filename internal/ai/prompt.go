package ai

import (
	"fmt"

	"github.com/JakeFAU/docs-translator/internal/language"
)

func languageName(code string) string {
	if name, ok := language.Name(code); ok {
		return name
	}
	return code
}

// SummarizePrompt asks for a SummarizationResult written in the target
// language.
func SummarizePrompt(text, lang string) string {
	return fmt.Sprintf(`Summarize the following documentation page in %s.
Respond with a single JSON object with the keys "noises" (string array), "claims" (array of objects with "text", "source", "evidence", "certainty"), "claimValidation" (array of objects with "claim", "relevance", "insights", "suggestions"), "summary", "title", "keywords" (string array) and "description".

%s`, languageName(lang), text)
}

// TranslatePrompt asks for a TranslationResult in the target language.
func TranslatePrompt(text, lang string) string {
	return fmt.Sprintf(`Translate the following Markdown documentation to %s. Keep the Markdown structure, code blocks and links intact.
Respond with a single JSON object with the keys "claims" (string array), "terminology" (array of objects with "term" and "translation"), "translationStyle" (one of "formal", "technical", "simplified") and "translatedText".

%s`, languageName(lang), text)
}

// DecodeSummary parses a provider answer into a SummarizationResult.
func DecodeSummary(raw string) (SummarizationResult, error) {
	res, err := DecodeJSON[SummarizationResult](raw)
	if err != nil {
		return SummarizationResult{}, err
	}
	if res.Summary == "" {
		return SummarizationResult{}, fmt.Errorf("summary: %w", ErrEmptyResult)
	}
	return res, nil
}

// DecodeTranslation parses a provider answer into a TranslationResult.
func DecodeTranslation(raw string) (TranslationResult, error) {
	res, err := DecodeJSON[TranslationResult](raw)
	if err != nil {
		return TranslationResult{}, err
	}
	if res.TranslatedText == "" {
		return TranslationResult{}, fmt.Errorf("translation: %w", ErrEmptyResult)
	}
	return res, nil
}
