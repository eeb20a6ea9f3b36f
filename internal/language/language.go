package language

import (
	"strings"

	"golang.org/x/text/cases"
	xlang "golang.org/x/text/language"
)

// Auto is the sentinel hint meaning the transcriber should detect the
// language from the audio itself.
const Auto = "auto"

type entry struct {
	code    string   // ISO 639-1
	display string   // Human-readable name used in translation prompts
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "English", []string{"english"}},
	{"es", "Spanish", []string{"spanish"}},
	{"fr", "French", []string{"french"}},
	{"de", "German", []string{"german"}},
	{"it", "Italian", []string{"italian"}},
	{"pt", "Portuguese", []string{"portuguese"}},
	{"ja", "Japanese", []string{"japanese"}},
	{"ko", "Korean", []string{"korean"}},
	{"zh", "Chinese", []string{"chinese", "mandarin"}},
	{"ru", "Russian", []string{"russian"}},
	{"ar", "Arabic", []string{"arabic"}},
	{"hi", "Hindi", []string{"hindi"}},
	{"nl", "Dutch", []string{"dutch"}},
	{"pl", "Polish", []string{"polish"}},
	{"tr", "Turkish", []string{"turkish"}},
	{"sv", "Swedish", []string{"swedish"}},
	{"da", "Danish", []string{"danish"}},
	{"no", "Norwegian", []string{"norwegian"}},
	{"fi", "Finnish", []string{"finnish"}},
	{"uk", "Ukrainian", []string{"ukrainian"}},
	{"vi", "Vietnamese", []string{"vietnamese"}},
	{"th", "Thai", []string{"thai"}},
}

var (
	byCode map[string]*entry
	byWord map[string]*entry

	titleCaser = cases.Title(xlang.Und)
)

func init() {
	byCode = make(map[string]*entry, len(languages))
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode[e.code] = e
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(value string) *entry {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil
	}
	if e, ok := byCode[value]; ok {
		return e
	}
	if e, ok := byWord[value]; ok {
		return e
	}
	return nil
}

// IsAuto reports whether a hint requests automatic language detection.
func IsAuto(value string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	return trimmed == "" || trimmed == Auto
}

// Normalize converts a recognized language code or word to its ISO 639-1
// code. Unrecognized 2-letter codes pass through; anything else returns an
// empty string.
func Normalize(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	if e := lookup(value); e != nil {
		return e.code
	}
	if len(value) == 2 {
		return value
	}
	return ""
}

// DisplayName returns a human-readable language name for use in translation
// prompts. Unknown codes are title-cased so prompts still read naturally.
func DisplayName(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "Unknown"
	}
	if e := lookup(trimmed); e != nil {
		return e.display
	}
	return titleCaser.String(strings.ToLower(trimmed))
}
