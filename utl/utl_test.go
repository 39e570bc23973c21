package utl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortKeys(t *testing.T) {
	keys := SortKeys(map[string]int{"post": 1, "author": 2, "comment": 3})
	assert.Equal(t, []string{"author", "comment", "post"}, keys)
	assert.Empty(t, SortKeys(map[string]int(nil)))
}

func TestIsName(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"active", true},
		{"_private", true},
		{"IN_PROGRESS2", true},
		{"2fast", false},
		{"with space", false},
		{"", false},
		{"dash-ed", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsName(tt.in))
		})
	}
}

func TestJoinString(t *testing.T) {
	assert.Equal(t, "PostOutput", JoinString("Post", "Output"))
	assert.Equal(t, "", JoinString())
}
