package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "rejoins line-wrapped words",
			in:   "the patient described feeling over-\nwhelmed at work",
			want: "the patient described feeling overwhelmed at work",
		},
		{
			name: "collapses whitespace runs",
			in:   "slept   better\n\n\nthis  week",
			want: "slept better this week",
		},
		{
			name: "strips bullet glyphs",
			in:   " anxiety  mood swings",
			want: "anxiety mood swings",
		},
		{
			name: "collapses dash runs",
			in:   "homework ——— breathing exercises",
			want: "homework breathing exercises",
		},
		{
			name: "tightens spaced hyphens",
			in:   "self - esteem concerns",
			want: "self-esteem concerns",
		},
		{
			name: "removes escaped newlines",
			in:   `first line\nsecond line`,
			want: "first line second line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}
