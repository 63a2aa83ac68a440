package render

import (
	"regexp"
	"strings"
)

// Field is one named value exposed to the template engine. Field names are
// matched against placeholders case-insensitively.
type Field struct {
	Name  string
	Value any
}

// FieldProvider is implemented by every domain record that can be rendered
// into a tweet. The returned slice is a static schema: an ordered list of
// (name, value) pairs, so rendering never has to introspect the record.
type FieldProvider interface {
	TemplateFields() []Field
}

// placeholderSpec matches dual-token placeholders of the form {name}:{spec}.
var placeholderSpec = regexp.MustCompile(`\{([^{}]+)\}:\{([^{}]+)\}`)

// whitespaceRun matches runs of whitespace collapsed after substitution.
var whitespaceRun = regexp.MustCompile(`\s+`)

// Render substitutes the record's fields into the template.
//
// Placeholders have the form {name} or {name}:{spec}. A field whose lowercase
// name matches a placeholder replaces it; when a format specifier is attached
// the value is formatted first and the :{spec} fragment is dropped.
// Placeholders with no matching field are left verbatim, fields with no
// placeholder are ignored. The result has whitespace runs collapsed to a
// single space and is trimmed.
//
// Render is a pure function of its inputs and is safe for concurrent use.
func Render(template string, rec FieldProvider) string {
	if rec == nil {
		return template
	}

	specs := map[string]string{}
	for _, m := range placeholderSpec.FindAllStringSubmatch(template, -1) {
		specs[strings.ToLower(m[1])] = m[2]
	}

	out := template
	for _, f := range rec.TemplateFields() {
		name := strings.ToLower(f.Name)
		placeholder := "{" + name + "}"
		if !strings.Contains(out, placeholder) {
			continue
		}

		value := defaultString(f.Value)
		if spec, ok := specs[name]; ok {
			value = applyFormatSpecifier(value, spec)
			out = strings.ReplaceAll(out, placeholder, value)
			out = strings.ReplaceAll(out, ":{"+spec+"}", " ")
		} else {
			out = strings.ReplaceAll(out, placeholder, value)
		}
		out = whitespaceRun.ReplaceAllString(out, " ")
	}

	return strings.TrimSpace(out)
}
