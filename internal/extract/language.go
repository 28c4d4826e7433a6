package extract

type Language string

const (
	English Language = "English"
	Hindi   Language = "Hindi"
)

const hindiRatio = 0.05

// DetectLanguage flags text as Hindi when more than 5% of its runes are Devanagari.
func DetectLanguage(text string) Language {
	total, devanagari := 0, 0
	for _, r := range text {
		total++
		if r >= 0x0900 && r <= 0x097F {
			devanagari++
		}
	}
	if total == 0 {
		return English
	}
	if float64(devanagari)/float64(total) > hindiRatio {
		return Hindi
	}
	return English
}
