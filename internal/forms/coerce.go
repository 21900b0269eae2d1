package forms

import (
	"time"
)

// Submission carries the raw values of one form post: Values as sent by the
// client (multiple values per key for multi-selects), StoredFile the name the
// signature store saved an uploaded file under, empty when no file came in.
type Submission struct {
	Values     map[string][]string
	StoredFile string
}

// Coerce maps a raw submission onto a template schema. Each schema field is
// coerced by its declared type; submitted keys outside the schema are dropped,
// so stored form data never carries fields the template does not define. The
// result is ready to marshal into the request's form_data column.
func Coerce(schema Schema, sub Submission, now time.Time) map[string]interface{} {
	data := make(map[string]interface{}, len(schema))
	for _, field := range schema {
		data[field.Name] = coerceField(field, sub, now)
	}
	return data
}

func coerceField(field Field, sub Submission, now time.Time) interface{} {
	switch field.Type {
	case FieldAutoDate:
		// Server-generated; any client-supplied value is ignored.
		return now.UTC().Format("2006-01-02")

	case FieldFile:
		if sub.StoredFile == "" {
			return nil
		}
		return sub.StoredFile

	case FieldSelect:
		value := firstValue(sub.Values, field.Name)
		if value == "" || !field.hasOption(value) {
			return ""
		}
		return value

	case FieldMultiSelect:
		selected := make([]string, 0)
		for _, v := range sub.Values[field.Name] {
			if field.hasOption(v) {
				selected = append(selected, v)
			}
		}
		return selected

	default:
		// text, textarea, email, date: the raw string as submitted.
		return firstValue(sub.Values, field.Name)
	}
}

func firstValue(values map[string][]string, key string) string {
	if vs, ok := values[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}
