package translator

import "sort"

// Languages maps the two-letter codes accepted by the backend to
// display names.
var Languages = map[string]string{
	"af": "Afrikaans",
	"sq": "Albanian",
	"ar": "Arabic",
	"hy": "Armenian",
	"bn": "Bengali",
	"bs": "Bosnian",
	"ca": "Catalan",
	"hr": "Croatian",
	"cs": "Czech",
	"da": "Danish",
	"nl": "Dutch",
	"en": "English",
	"eo": "Esperanto",
	"et": "Estonian",
	"tl": "Filipino",
	"fi": "Finnish",
	"fr": "French",
	"de": "German",
	"el": "Greek",
	"gu": "Gujarati",
	"hi": "Hindi",
	"hu": "Hungarian",
	"is": "Icelandic",
	"id": "Indonesian",
	"it": "Italian",
	"ja": "Japanese",
	"jw": "Javanese",
	"kn": "Kannada",
	"km": "Khmer",
	"ko": "Korean",
	"la": "Latin",
	"lv": "Latvian",
	"lt": "Lithuanian",
	"ml": "Malayalam",
	"mr": "Marathi",
	"my": "Myanmar (Burmese)",
	"ne": "Nepali",
	"no": "Norwegian",
	"pl": "Polish",
	"pt": "Portuguese",
	"ro": "Romanian",
	"ru": "Russian",
	"sr": "Serbian",
	"si": "Sinhala",
	"sk": "Slovak",
	"sl": "Slovenian",
	"es": "Spanish",
	"su": "Sundanese",
	"sw": "Swahili",
	"sv": "Swedish",
	"ta": "Tamil",
	"te": "Telugu",
	"th": "Thai",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"ur": "Urdu",
	"vi": "Vietnamese",
	"cy": "Welsh",
	"xh": "Xhosa",
	"yi": "Yiddish",
	"zu": "Zulu",
}

// KnownLanguage reports whether code is a supported target language.
func KnownLanguage(code string) bool {
	_, ok := Languages[code]
	return ok
}

// LanguageName returns the display name for code, or the code itself
// when unknown.
func LanguageName(code string) string {
	if name, ok := Languages[code]; ok {
		return name
	}
	return code
}

// LanguageCodes returns all supported codes in sorted order.
func LanguageCodes() []string {
	codes := make([]string, 0, len(Languages))
	for code := range Languages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
