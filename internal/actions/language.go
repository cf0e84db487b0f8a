package actions

import "strings"

// languages maps lowercase names a user may type to the name sent to the
// transform service.
var languages = map[string]string{
	"english":    "English",
	"英文":         "English",
	"英语":         "English",
	"chinese":    "Chinese",
	"中文":         "Chinese",
	"汉语":         "Chinese",
	"japanese":   "Japanese",
	"日文":         "Japanese",
	"日语":         "Japanese",
	"korean":     "Korean",
	"韩语":         "Korean",
	"french":     "French",
	"法语":         "French",
	"german":     "German",
	"德语":         "German",
	"spanish":    "Spanish",
	"西班牙语":       "Spanish",
	"italian":    "Italian",
	"portuguese": "Portuguese",
	"russian":    "Russian",
	"俄语":         "Russian",
}

// LanguageFromInstruction returns the first known language named in instr,
// or fallback when none is.
func LanguageFromInstruction(instr, fallback string) string {
	lower := strings.ToLower(instr)
	best, bestAt := "", -1
	for name, lang := range languages {
		if i := strings.Index(lower, name); i >= 0 && (bestAt < 0 || i < bestAt) {
			best, bestAt = lang, i
		}
	}
	if bestAt >= 0 {
		return best
	}
	return fallback
}
