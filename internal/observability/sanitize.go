package observability

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Clip drops control characters from value and cuts it to at most limit
// runes. Request paths and client addresses go through it before they reach
// a log field or span attribute.
func Clip(value string, limit int) string {
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit])
}

// SanitizeRoute clips a request path or chi route pattern.
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return Clip(route, 180)
}

// SanitizeMethod clips an HTTP method.
func SanitizeMethod(method string) string {
	return Clip(method, 10)
}
