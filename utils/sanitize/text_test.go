package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"plain", "  We love you  ", "We love you"},
		{"script", `<script>alert(1)</script>hi`, "hi"},
		{"tags", `<b>bold</b> and <a href="x">link</a>`, "bold and link"},
		{"entities", "Tom &amp; Jerry", "Tom & Jerry"},
		{"ampersand", "fish & chips", "fish & chips"},
		{"chinese", "永远怀念", "永远怀念"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Text(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "永远", Truncate("永远怀念", 2))
	assert.Equal(t, "abc", Truncate("abc", 0))
}
