package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeChildren(t *testing.T) {
	tests := []struct {
		name     string
		recorded []string
		onDisk   []string
		want     []string
	}{
		{"nothing recorded", nil, []string{"a", "b"}, []string{"a", "b"}},
		{"recorded order wins", []string{"b", "a"}, []string{"a", "b"}, []string{"b", "a"}},
		{"unrecorded appended", []string{"c"}, []string{"a", "b", "c"}, []string{"c", "a", "b"}},
		{"missing dropped", []string{"x", "b", "y"}, []string{"a", "b"}, []string{"b", "a"}},
		{"duplicates collapse", []string{"a", "a"}, []string{"a"}, []string{"a"}},
		{"empty disk", []string{"a"}, nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeChildren(tt.recorded, tt.onDisk))
		})
	}
}
