package authz

import "strings"

// ParseCookieHeader parses a cookie-style header value of `;`-separated
// `key=value` pairs into a map. Pairs without an equals sign and empty
// keys are skipped. When a key occurs more than once the first occurrence
// wins. Values surrounded by double quotes are unquoted.
func ParseCookieHeader(header string) map[string]string {
	cookies := make(map[string]string)

	for _, pair := range strings.Split(header, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		key, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, exists := cookies[key]; exists {
			continue
		}

		value = strings.TrimSpace(value)
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}

		cookies[key] = value
	}

	return cookies
}

// headerValue looks up a header by name, case-insensitively. The request
// source does not canonicalize header names, so "Cookie", "cookie", and
// any other casing must all match.
func headerValue(headers map[string]string, name string) string {
	if value, ok := headers[name]; ok {
		return value
	}
	for key, value := range headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}
