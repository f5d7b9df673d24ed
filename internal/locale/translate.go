package locale

// Pick returns the text matching the request language, defaulting to Korean.
func Pick(language, english, korean string) string {
	if NormalizeLanguage(language) == LanguageEnglish {
		if english != "" {
			return english
		}
		return korean
	}
	if korean != "" {
		return korean
	}
	return english
}
