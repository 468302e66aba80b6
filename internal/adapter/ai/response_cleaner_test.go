package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFence(t *testing.T) {
	t.Parallel()
	rc := NewResponseCleaner()
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "tagged fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "untagged fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "no fence", in: `{"a":1}`, want: `{"a":1}`},
		{name: "single line fence", in: "```json{\"a\":1}```", want: `{"a":1}`},
		{name: "empty", in: "", want: ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, rc.StripCodeFence(tc.in))
		})
	}
}

func TestStripCodeFence_Idempotent(t *testing.T) {
	t.Parallel()
	rc := NewResponseCleaner()
	once := rc.StripCodeFence("```json\n{\"a\":1}\n```")
	assert.Equal(t, once, rc.StripCodeFence(once))
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()
	rc := NewResponseCleaner()
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "prose around object", in: "Here is the result: {\"a\": 1} hope it helps", want: `{"a": 1}`},
		{name: "array", in: "answer: [1,2,3] done", want: `[1,2,3]`},
		{name: "nested braces", in: `{"a": {"b": 2}} trailing`, want: `{"a": {"b": 2}}`},
		{name: "brace inside string", in: `{"a": "close } brace"}`, want: `{"a": "close } brace"}`},
		{name: "escaped quote inside string", in: `{"a": "say \" }"} x`, want: `{"a": "say \" }"}`},
		{name: "no json", in: "just words", want: "just words"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, rc.ExtractJSON(tc.in))
		})
	}
}

func TestCleanJSON(t *testing.T) {
	t.Parallel()
	rc := NewResponseCleaner()
	in := "```json\nSure! {\"score\": 7}\n```"
	assert.Equal(t, `{"score": 7}`, rc.CleanJSON(in))
}

func TestExtractScore(t *testing.T) {
	t.Parallel()
	rc := NewResponseCleaner()
	cases := []struct {
		name string
		in   string
		want int
	}{
		{name: "bare integer", in: "82", want: 82},
		{name: "percentage", in: "Score: 87%", want: 87},
		{name: "prose", in: "The candidate scores 64 out of 100.", want: 64},
		{name: "no digits", in: "no answer", want: 0},
		{name: "empty", in: "", want: 0},
		{name: "zero", in: "0", want: 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, rc.ExtractScore(tc.in))
		})
	}
}
