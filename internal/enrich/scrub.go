package enrich

import "regexp"

// secretPatterns are applied in order; more specific patterns come first.
var secretPatterns = []struct {
	regex       *regexp.Regexp
	replacement string
}{
	// Environment variables with sensitive data
	{
		regexp.MustCompile(`(OPENAI_API_KEY|GROQ_API_KEY|HUGGINGFACE_API_KEY|HF_TOKEN|SUPABASE_DB_URL|DB_PASSWORD|AWS_SECRET_ACCESS_KEY)\s*=\s*([^\s]+)`),
		"$1=[REDACTED:ENV_SECRET]",
	},
	// Anthropic keys before the generic sk- prefix
	{
		regexp.MustCompile(`sk-ant-[a-zA-Z0-9-]{20,}`),
		"[REDACTED:ANTHROPIC_KEY]",
	},
	{
		regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),
		"[REDACTED:OPENAI_KEY]",
	},
	{
		regexp.MustCompile(`gsk_[a-zA-Z0-9]{20,}`),
		"[REDACTED:GROQ_KEY]",
	},
	{
		regexp.MustCompile(`hf_[a-zA-Z0-9]{20,}`),
		"[REDACTED:HF_TOKEN]",
	},
	// Connection strings with inline credentials
	{
		regexp.MustCompile(`(?i)\b(postgres(?:ql)?|mysql)://[^:\s/]+:[^@\s]+@`),
		"$1://[REDACTED:DB_CREDENTIALS]@",
	},
	{
		regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*["']?\s*([^"'\s]{8,})["']?`),
		"$1=[REDACTED:API_KEY]",
	},
	{
		regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_\-\.=]{20,}`),
		"[REDACTED:BEARER_TOKEN]",
	},
	{
		regexp.MustCompile(`(?i)(token|auth[_-]?token)\s*[:=]\s*["']?\s*([^"'\s]{8,})["']?`),
		"$1=[REDACTED:TOKEN]",
	},
	{
		regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*["']?\s*([^"'\s]{4,})["']?`),
		"$1=[REDACTED:PASSWORD]",
	},
	{
		regexp.MustCompile(`(?i)-----BEGIN (RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----[\s\S]*?-----END (RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`),
		"[REDACTED:PRIVATE_KEY]",
	},
}

// scrubSecrets removes common secret patterns from note text before it
// leaves the process.
func scrubSecrets(content string) string {
	result := content
	for _, p := range secretPatterns {
		result = p.regex.ReplaceAllString(result, p.replacement)
	}
	return result
}
