// Package tags extracts typed metadata tags embedded in free-text task
// descriptions, e.g. "##Dinero: 1,234.50 ##Fecha 2024-01-05 ##B-Urgente SI".
package tags

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/plannersync/pkg/model"
)

const (
	marker = "##"

	KeyMoney       = "Dinero"
	KeyDate        = "Fecha"
	KeyDescription = "Descripcion_Extra"
)

var (
	markerRegex  = regexp.MustCompile(`##([\p{L}\p{N}_$\-]+)`)
	numericRegex = regexp.MustCompile(`[\d.,]+`)

	truthy = map[string]bool{"ON": true, "TRUE": true, "1": true, "SI": true, "YES": true}
)

// Parse returns the tags found in description keyed by their canonical key.
// It never fails: text that does not follow the grammar is ignored and values
// that cannot be coerced are kept as strings. When a key appears more than
// once the last occurrence wins.
func Parse(description string) map[string]model.Tag {
	tags := make(map[string]model.Tag)

	locs := markerRegex.FindAllStringSubmatchIndex(description, -1)
	for i, loc := range locs {
		end := len(description)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}

		rawKey := description[loc[2]:loc[3]]
		rest := description[loc[1]:end]

		// A separator is mandatory between key and value.
		value := strings.TrimLeft(rest, ":= \t\r\n\v\f")
		if len(value) == len(rest) {
			continue
		}
		if idx := strings.Index(value, marker); idx >= 0 {
			value = value[:idx]
		}
		value = strings.TrimSpace(value)

		tag, ok := coerce(strings.TrimSpace(rawKey), value)
		if !ok {
			continue
		}
		tags[tag.Key] = tag
	}

	return tags
}

// coerce resolves key aliases and converts value according to the key family.
func coerce(rawKey, value string) (model.Tag, bool) {
	lower := strings.ToLower(rawKey)

	switch {
	case rawKey == "$" || lower == "dinero":
		return numberTag(KeyMoney, value), true
	case lower == "f" || lower == "fecha":
		d, err := time.Parse(model.DateLayout, value)
		if err != nil {
			return model.StringTag(KeyDate, value), true
		}
		return model.DateTag(KeyDate, d), true
	case lower == "d" || lower == "desc":
		return model.StringTag(KeyDescription, value), true
	case strings.HasPrefix(lower, "b-"), strings.HasPrefix(lower, "check-"):
		key := rawKey[strings.Index(rawKey, "-")+1:]
		if key == "" {
			return model.Tag{}, false
		}
		return model.BoolTag(key, truthy[strings.ToUpper(value)]), true
	case strings.HasPrefix(lower, "pr-"), strings.HasPrefix(lower, "pg-"), lower == "ps":
		return numberTag(rawKey, value), true
	}

	return model.StringTag(rawKey, value), true
}

// numberTag extracts the first numeric run of value, dropping thousands
// separators. The raw value is kept when nothing parses.
func numberTag(key, value string) model.Tag {
	num := numericRegex.FindString(value)
	if num == "" {
		return model.StringTag(key, value)
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return model.StringTag(key, value)
	}
	return model.NumberTag(key, f)
}
