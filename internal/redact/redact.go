// Package redact strips credentials, API keys, unsubscribe tokens, paths and
// email addresses from strings before they are logged or returned to
// clients.
package redact

import "regexp"

// Placeholders substituted for redacted text.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedTokenPlaceholder      = "[REDACTED_TOKEN]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// rules run in order. Token and key rules come before the email and host
// rules so that URLs carrying them are redacted as a whole.
var rules = []rule{
	// Connection strings with user info: postgres://, smtp://
	{regexp.MustCompile(`(?i)\b(postgres(?:ql)?|smtps?|db|database)://[^@\s]+@`), RedactedCredentialPlaceholder},
	{regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`), RedactedCredentialPlaceholder},

	// Unsubscribe links carry a signed token as query parameter.
	{regexp.MustCompile(`(?i)([?&]token=)[^&\s"']+`), "${1}" + RedactedTokenPlaceholder},
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), "[REDACTED_JWT]"},

	// Provider keys: Gemini, Groq, then anything labelled as a key.
	{regexp.MustCompile(`AIza[0-9A-Za-z_-]{30,}`), RedactedKeyPlaceholder},
	{regexp.MustCompile(`gsk_[0-9A-Za-z]{20,}`), RedactedKeyPlaceholder},
	{regexp.MustCompile(`(?i)(api[_-]?key|secret|key|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`), RedactedKeyPlaceholder},

	{regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`), "[STACK_TRACE_REDACTED]"},
	{regexp.MustCompile(`(/[\w.-]+){2,}`), RedactedPathPlaceholder},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), RedactedEmailPlaceholder},
	{
		regexp.MustCompile(`(?i)(SELECT|INSERT|UPDATE|DELETE)[\s\w,*()$]+(?:FROM|INTO|SET)(?:[\s\w,*()='"$]+)?`),
		"[REDACTED_SQL]",
	},
	{regexp.MustCompile(`(?i)(?:no such file|file not found|can't open|cannot open)`), "[REDACTED_FILE_ERROR]"},
}

// String returns input with every sensitive fragment replaced.
func String(input string) string {
	if input == "" {
		return input
	}
	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts err.Error(). A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
