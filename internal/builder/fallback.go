package builder

import "github.com/emailbuilder/emailbuilder/internal/model"

// GlobalDefaults is the ordered set of global header/footer rows consulted
// when a template leaves a field unset.
type GlobalDefaults []model.GlobalEmailTemplate

// Value returns the value of field in the first row where it is non-null.
// An empty string in an earlier row is a deliberate default and wins.
func (g GlobalDefaults) Value(field model.Field) string {
	for i := range g {
		if v := g[i].Value(field); v != nil {
			return *v
		}
	}
	return ""
}

// ResolveField picks the template's own value for field when it is set and
// non-empty, otherwise the global default, otherwise "".
func ResolveField(t *model.EmailTemplate, field model.Field, defaults GlobalDefaults) string {
	if t != nil {
		if v := t.Value(field); v != nil && *v != "" {
			return *v
		}
	}
	return defaults.Value(field)
}
