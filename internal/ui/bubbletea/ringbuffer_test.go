package bubbletea

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBufferEviction(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		add      []string
		want     []string
	}{
		{name: "empty", capacity: 3, want: []string{}},
		{name: "under capacity", capacity: 3, add: []string{"a.tf", "b.tf"}, want: []string{"a.tf", "b.tf"}},
		{name: "full", capacity: 3, add: []string{"a.tf", "b.tf", "c.tf"}, want: []string{"a.tf", "b.tf", "c.tf"}},
		{name: "oldest evicted", capacity: 3, add: []string{"a.tf", "b.tf", "c.tf", "d.tf"}, want: []string{"b.tf", "c.tf", "d.tf"}},
		{name: "wraps twice", capacity: 2, add: []string{"a", "b", "c", "d", "e"}, want: []string{"d", "e"}},
		{name: "zero capacity keeps one", capacity: 0, add: []string{"a", "b"}, want: []string{"b"}},
		{name: "negative capacity keeps one", capacity: -3, add: []string{"a"}, want: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := NewRingBuffer[string](tt.capacity)
			for _, item := range tt.add {
				rb.Add(item)
			}
			assert.Equal(t, len(tt.want), rb.Len())
			assert.Equal(t, tt.want, rb.Items())
		})
	}
}

func TestRingBufferItemsIsCopy(t *testing.T) {
	rb := NewRingBuffer[int](2)
	rb.Add(1)

	items := rb.Items()
	items[0] = 99

	assert.Equal(t, []int{1}, rb.Items())
}
