package symbols

import (
	"path/filepath"
	"strings"
)

// Language is the tag assigned to a file by Classify.
type Language string

const (
	LanguageTypeScript Language = "typescript"
	LanguageJavaScript Language = "javascript"
	LanguageRust       Language = "rust"
	LanguagePython     Language = "python"
	LanguageJava       Language = "java"
	LanguageGo         Language = "go"
	LanguageCPP        Language = "cpp"
	LanguageC          Language = "c"
	LanguagePlaintext  Language = "plaintext"
)

var extLanguages = map[string]Language{
	".ts":   LanguageTypeScript,
	".tsx":  LanguageTypeScript,
	".js":   LanguageJavaScript,
	".jsx":  LanguageJavaScript,
	".mjs":  LanguageJavaScript,
	".cjs":  LanguageJavaScript,
	".rs":   LanguageRust,
	".py":   LanguagePython,
	".java": LanguageJava,
	".go":   LanguageGo,
	".cpp":  LanguageCPP,
	".cc":   LanguageCPP,
	".cxx":  LanguageCPP,
	".c":    LanguageC,
}

// Classify maps a path's lower-cased extension to a language tag.
// Unknown or missing extensions yield LanguagePlaintext.
func Classify(path string) Language {
	if lang, ok := extLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return LanguagePlaintext
}

// String returns the tag itself.
func (l Language) String() string {
	return string(l)
}

// Extractor returns the line scanner for the language. Languages without
// keyword rules get the plaintext extractor, which finds nothing.
func (l Language) Extractor() Extractor {
	switch l {
	case LanguageTypeScript, LanguageJavaScript:
		return typeScriptLike
	case LanguageRust:
		return rustLike
	default:
		return plaintext
	}
}
