package metafields

// TypeMappings converts legacy metafield type names to the current type
// vocabulary. Current names map to themselves.
var TypeMappings = map[string]string{
	"string":                 "single_line_text_field",
	"integer":                "number_integer",
	"json_string":            "json",
	"boolean":                "boolean",
	"number_decimal":         "number_decimal",
	"number_integer":         "number_integer",
	"date":                   "date",
	"date_time":              "date_time",
	"url":                    "url",
	"color":                  "color",
	"rating":                 "rating",
	"multi_line_text_field":  "multi_line_text_field",
	"single_line_text_field": "single_line_text_field",
	"json":                   "json",
}

// MapType returns the current type name for t, or t itself when unmapped.
func MapType(t string) string {
	if mapped, ok := TypeMappings[t]; ok {
		return mapped
	}
	return t
}
