package schema

import (
	"strings"
	"unicode"
)

// snakeCase converts a Go identifier to snake_case. Runs of capitals are
// kept together as one word.
//
//	"UserID"     -> "user_id"
//	"CreatedAt"  -> "created_at"
//	"HTTPServer" -> "http_server"
func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// tableName derives a table name from a type name: plural snake_case.
//
//	"User"      -> "users"
//	"OrderItem" -> "order_items"
//	"Category"  -> "categories"
func tableName(typeName string) string {
	s := snakeCase(typeName)
	switch {
	case s == "":
		return s
	case strings.HasSuffix(s, "y") && len(s) > 1 && !strings.ContainsRune("aeiou", rune(s[len(s)-2])):
		return s[:len(s)-1] + "ies"
	case strings.HasSuffix(s, "s"), strings.HasSuffix(s, "x"),
		strings.HasSuffix(s, "ch"), strings.HasSuffix(s, "sh"):
		return s + "es"
	}
	return s + "s"
}
