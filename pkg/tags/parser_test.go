package tags_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/harrisonrobin/plannersync/pkg/model"
	"github.com/harrisonrobin/plannersync/pkg/tags"
)

func TestParse(t *testing.T) {
	tests := map[string]struct {
		description string
		expTags     map[string]model.Tag
	}{
		"Empty description should return no tags.": {
			description: "",
			expTags:     map[string]model.Tag{},
		},
		"Descriptions without markers should return no tags.": {
			description: "Buy milk: 2 liters = cheap # not a tag",
			expTags:     map[string]model.Tag{},
		},
		"Money and date aliases should be coerced.": {
			description: "##Dinero: 1,234.50 ##Fecha 2024-01-05",
			expTags: map[string]model.Tag{
				"Dinero": model.NumberTag("Dinero", 1234.50),
				"Fecha":  model.DateTag("Fecha", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)),
			},
		},
		"Dollar alias should extract the first number.": {
			description: "##$ = USD 300 approx",
			expTags: map[string]model.Tag{
				"Dinero": model.NumberTag("Dinero", 300),
			},
		},
		"Money without numbers should keep the raw string.": {
			description: "##dinero: pending",
			expTags: map[string]model.Tag{
				"Dinero": model.StringTag("Dinero", "pending"),
			},
		},
		"Invalid dates should keep the raw string.": {
			description: "##F: next monday",
			expTags: map[string]model.Tag{
				"Fecha": model.StringTag("Fecha", "next monday"),
			},
		},
		"Description alias should keep the value as string.": {
			description: "intro text ##desc: call the supplier first",
			expTags: map[string]model.Tag{
				"Descripcion_Extra": model.StringTag("Descripcion_Extra", "call the supplier first"),
			},
		},
		"Boolean prefixes should be stripped and coerced.": {
			description: "##B-Urgente: SI ##check-Done: no ##Check-Paid=yes",
			expTags: map[string]model.Tag{
				"Urgente": model.BoolTag("Urgente", true),
				"Done":    model.BoolTag("Done", false),
				"Paid":    model.BoolTag("Paid", true),
			},
		},
		"Numeric prefixes should be coerced to numbers.": {
			description: "##PR-Budget: 12.5% ##PG-Avance 40 ##PS: n/a",
			expTags: map[string]model.Tag{
				"PR-Budget": model.NumberTag("PR-Budget", 12.5),
				"PG-Avance": model.NumberTag("PG-Avance", 40),
				"PS":        model.StringTag("PS", "n/a"),
			},
		},
		"Unknown keys should be kept as trimmed strings.": {
			description: "##Cliente:   ACME Corp   ##Zona=Norte",
			expTags: map[string]model.Tag{
				"Cliente": model.StringTag("Cliente", "ACME Corp"),
				"Zona":    model.StringTag("Zona", "Norte"),
			},
		},
		"Duplicated keys should keep the last value.": {
			description: "##Cliente: ACME ##Cliente: Globex",
			expTags: map[string]model.Tag{
				"Cliente": model.StringTag("Cliente", "Globex"),
			},
		},
		"Aliases resolving to the same key should keep the last value.": {
			description: "##$ 10 ##Dinero 20",
			expTags: map[string]model.Tag{
				"Dinero": model.NumberTag("Dinero", 20),
			},
		},
		"Keys without separator should be ignored.": {
			description: "##Orphan",
			expTags:     map[string]model.Tag{},
		},
		"Values should stop at the next marker.": {
			description: "##Nota: first part ## second part",
			expTags: map[string]model.Tag{
				"Nota": model.StringTag("Nota", "first part"),
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			got := tags.Parse(test.description)

			assert.Equal(test.expTags, got)
		})
	}
}

func TestParseDateValue(t *testing.T) {
	got := tags.Parse("##Fecha 2024-01-05")

	tag, ok := got["Fecha"]
	assert.True(t, ok)
	assert.Equal(t, model.TagDate, tag.Kind)
	assert.Equal(t, "2024-01-05", tag.String())
}
