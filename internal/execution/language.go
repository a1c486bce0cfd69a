package execution

import (
	"errors"
	"fmt"
	"strings"
)

// Language identifies an execution target.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageShell      Language = "shell"
)

// ErrUnknownLanguage is returned by ParseLanguage for unsupported names.
var ErrUnknownLanguage = errors.New("unknown language")

var languageAliases = map[string]Language{
	"python":     LanguagePython,
	"python3":    LanguagePython,
	"py":         LanguagePython,
	"javascript": LanguageJavaScript,
	"js":         LanguageJavaScript,
	"node":       LanguageJavaScript,
	"shell":      LanguageShell,
	"sh":         LanguageShell,
	"bash":       LanguageShell,
}

// Languages returns every supported language in a stable order.
func Languages() []Language {
	return []Language{LanguagePython, LanguageJavaScript, LanguageShell}
}

// ParseLanguage resolves a language name or common alias.
func ParseLanguage(name string) (Language, error) {
	lang, ok := languageAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
	}
	return lang, nil
}

// FileExtension returns the conventional source file extension.
func (l Language) FileExtension() string {
	switch l {
	case LanguagePython:
		return ".py"
	case LanguageJavaScript:
		return ".js"
	case LanguageShell:
		return ".sh"
	default:
		return ""
	}
}
