package fieldconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const timeslotRule = `\d{1,2}:\d{2}\s*-\s*\d{1,2}:\d{2}`

func TestTransformation_None(t *testing.T) {
	tr := Transformation{Kind: TransformationNone}

	assert.Equal(t, "as is", tr.Apply("as is"))
	assert.Equal(t, 7, tr.Apply(7))
	assert.Nil(t, tr.Apply(nil))
}

func TestTransformation_TransformIsPassThrough(t *testing.T) {
	tr := Transformation{Kind: TransformationTransform, Rule: "ignored"}

	assert.Equal(t, "untouched", tr.Apply("untouched"))
}

func TestTransformation_Extract(t *testing.T) {
	tr := Transformation{Kind: TransformationExtract, Rule: timeslotRule}

	t.Run("returns the first match from a string", func(t *testing.T) {
		assert.Equal(t, "09:30-11:30", tr.Apply("Deliver between 09:30-11:30 today"))
	})

	t.Run("returns the first match when several exist", func(t *testing.T) {
		assert.Equal(t, "09:30-11:30", tr.Apply("09:30-11:30 or 14:00-16:00"))
	})

	t.Run("returns the no-match sentinel for a string without matches", func(t *testing.T) {
		assert.Equal(t, SentinelNoMatch, tr.Apply("no slot mentioned"))
	})

	t.Run("returns the no-match sentinel for nil input", func(t *testing.T) {
		assert.Equal(t, SentinelNoMatch, tr.Apply(nil))
	})
}

func TestTransformation_ExtractFromList(t *testing.T) {
	tr := Transformation{Kind: TransformationExtract, Rule: `^rush$`}

	t.Run("returns the first matching element", func(t *testing.T) {
		assert.Equal(t, "rush", tr.Apply([]any{"wedding", "rush", "rush"}))
		assert.Equal(t, "rush", tr.Apply([]string{"wedding", "rush"}))
	})

	t.Run("returns nil when nothing matches", func(t *testing.T) {
		assert.Nil(t, tr.Apply([]any{"wedding"}))
		assert.Nil(t, tr.Apply([]string{}))
	})
}

func TestTransformation_MalformedRule(t *testing.T) {
	tr := Transformation{Kind: TransformationExtract, Rule: `([unclosed`}

	assert.NotPanics(t, func() {
		assert.Equal(t, SentinelRegexError, tr.Apply("anything"))
	})
	// Cached compilation failure renders the same sentinel on repeat use.
	assert.Equal(t, SentinelRegexError, tr.Apply("anything else"))
}

func TestTransformation_DateOutputFormat(t *testing.T) {
	tr := Transformation{
		Kind:         TransformationExtract,
		Rule:         `\d{2}/\d{2}/\d{4}`,
		OutputFormat: OutputFormatDate,
	}

	t.Run("reparses dd/mm/yyyy as yyyy-mm-dd", func(t *testing.T) {
		assert.Equal(t, "2026-03-14", tr.Apply("Deliver on 14/03/2026 please"))
	})

	t.Run("impossible date passes through unchanged", func(t *testing.T) {
		assert.Equal(t, "32/13/2026", tr.Apply("32/13/2026"))
	})

	t.Run("non-conforming match passes through unchanged", func(t *testing.T) {
		free := Transformation{Kind: TransformationExtract, Rule: `\w+`, OutputFormat: OutputFormatDate}
		assert.Equal(t, "tomorrow", free.Apply("tomorrow"))
	})
}

func TestTransformation_TimeOutputFormat(t *testing.T) {
	tr := Transformation{
		Kind:         TransformationExtract,
		Rule:         timeslotRule,
		OutputFormat: OutputFormatTime,
	}

	// The format narrows the whole slot down to its leading hh:mm.
	assert.Equal(t, "09:30", tr.Apply("between 09:30-11:30"))
}

func TestTransformation_TimeslotOutputFormat(t *testing.T) {
	tr := Transformation{
		Kind:         TransformationExtract,
		Rule:         timeslotRule,
		OutputFormat: OutputFormatTimeslot,
	}

	assert.Equal(t, "09:30-11:30", tr.Apply("between 09:30-11:30"))
}

func TestCompileRuleCaching(t *testing.T) {
	first := compileRule(`\d+`)
	second := compileRule(`\d+`)

	assert.Same(t, first, second)
}
