// Package template renders {{identifier}} placeholders against the variable
// store. Unresolved placeholders are kept verbatim so existing message
// templates render an unset variable literally instead of blank.
package template

import (
	"regexp"

	"github.com/jornadahq/jornada/model"
)

// Resolver is the read side of the variable store.
type Resolver interface {
	Lookup(name string) (model.Value, bool)
}

var placeholderPattern = regexp.MustCompile(`{{(\w+)}}`)

// Interpolate substitutes every {{identifier}} occurrence with the
// stringified variable value. It never fails and is idempotent once all
// placeholders resolve.
func Interpolate(s string, resolver Resolver) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(token string) string {
		name := token[2 : len(token)-2]
		value, ok := resolver.Lookup(name)
		if !ok {
			return token
		}
		return value.String()
	})
}
