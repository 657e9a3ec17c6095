package id

import (
	"regexp"

	"github.com/google/uuid"
)

// Pattern is the accepted shape of a path identifier: lowercase hex, dashed.
const Pattern = `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`

var pathIDRegex = regexp.MustCompile(Pattern)

// UUID returns a new random UUID v4 in canonical lowercase form.
func UUID() string {
	return uuid.NewString()
}

// IsValid reports whether s is a lowercase-hex-dashed UUID.
// Uppercase and brace-wrapped forms are rejected even though uuid.Parse
// would accept them.
func IsValid(s string) bool {
	return pathIDRegex.MatchString(s)
}
