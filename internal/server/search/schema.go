package search

// textWithEnglish is a text field with an English-analyzed subfield.
func textWithEnglish() map[string]any {
	return map[string]any{
		"type": "text",
		"fields": map[string]any{
			"english": map[string]any{"type": "text", "analyzer": "english"},
		},
	}
}

func namedKeyword(key string) map[string]any {
	return map[string]any{
		"properties": map[string]any{
			key: map[string]any{"type": "keyword"},
			"name": map[string]any{
				"type":   "text",
				"fields": map[string]any{"raw": map[string]any{"type": "keyword"}},
			},
		},
	}
}

// Mapping is the index body sent on creation. Field names follow the
// record JSON.
func Mapping() map[string]any {
	title := textWithEnglish()
	title["fields"].(map[string]any)["raw"] = map[string]any{"type": "keyword"}

	return map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"id":                  map[string]any{"type": "keyword"},
				"title":               title,
				"tagline":             textWithEnglish(),
				"overview":            textWithEnglish(),
				"releaseDate":         map[string]any{"type": "date", "format": "yyyy-MM-dd||epoch_millis"},
				"spokenLanguages":     namedKeyword("code"),
				"productionCountries": namedKeyword("code"),
				"genres":              namedKeyword("id"),
				"foreignUrl":          map[string]any{"type": "keyword", "index": false},
				"created":             map[string]any{"type": "date"},
				"updated":             map[string]any{"type": "date"},
				"indexed":             map[string]any{"type": "date"},
				"deleted":             map[string]any{"type": "date"},
			},
		},
	}
}
