package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Legendary Mechanic", "The Legendary Mechanic"},
		{"  Lord of Mysteries: Book 2 / Vol.3 ", "Lord of Mysteries Book 2  Vol3"},
		{"Re:Zero (Web Novel)", "ReZero (Web Novel)"},
		{"Chapter 12 - The End?", "Chapter 12  The End"},
		{"诡秘之主", "诡秘之主"},
		{"Überraschung!", "Überraschung"},
		{"../../etc/passwd", "etcpasswd"},
		{"\t\n", ""},
		{"E=mc²", "Emc²"},
		{"①章 ½ 話", "①章  話"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFilename(tt.in))
		})
	}
}

func TestFormatFilenameIdempotent(t *testing.T) {
	inputs := []string{
		"  (Side Story) A  B  ",
		"Chapter 1: Start!!",
		" ( ) ",
		"a\u0301bc", // combining mark is dropped on the first pass
		"第一章　开始",
		"tab\tseparated",
	}
	for _, in := range inputs {
		once := FormatFilename(in)
		assert.Equal(t, once, FormatFilename(once), "input %q", in)
	}
}
