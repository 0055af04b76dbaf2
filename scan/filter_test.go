package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsIgnored(t *testing.T) {
	ignores := []string{"pkg/sub/ignored", "vendor"}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"exact match", "pkg/sub/ignored", true},
		{"direct child", "pkg/sub/ignored/b.wasm", true},
		{"deep descendant", "pkg/sub/ignored/x/y/z.wasm", true},
		{"sibling", "pkg/sub/other", false},
		{"prefix but not path component", "pkg/sub/ignoredmore", false},
		{"second entry", "vendor/dep.wasm", true},
		{"unrelated", "pkg/a.wasm", false},
		{"uncleaned path", "pkg/sub/./ignored/b.wasm", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsIgnored(tt.path, ignores))
		})
	}
}

func TestIsIgnoredDoesNotRequireExistence(t *testing.T) {
	// Pure lexical check: none of these paths exist.
	assert.True(t, IsIgnored("no/such/tree/file.wasm", []string{"no/such"}))
	assert.False(t, IsIgnored("no/such/tree/file.wasm", nil))
}
