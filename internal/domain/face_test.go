package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBox_Rescale(t *testing.T) {
	tests := []struct {
		name   string
		box    BoundingBox
		factor float64
		want   BoundingBox
	}{
		{
			name:   "quarter scale",
			box:    BoundingBox{X: 10, Y: 20, Width: 30, Height: 40},
			factor: 0.25,
			want:   BoundingBox{X: 40, Y: 80, Width: 120, Height: 160},
		},
		{
			name:   "rounds to nearest pixel",
			box:    BoundingBox{X: 1, Y: 2, Width: 3, Height: 5},
			factor: 0.3,
			want:   BoundingBox{X: 3, Y: 7, Width: 10, Height: 17},
		},
		{
			name:   "unit factor is identity",
			box:    BoundingBox{X: 5, Y: 6, Width: 7, Height: 8},
			factor: 1,
			want:   BoundingBox{X: 5, Y: 6, Width: 7, Height: 8},
		},
		{
			name:   "non-positive factor is ignored",
			box:    BoundingBox{X: 5, Y: 6, Width: 7, Height: 8},
			factor: 0,
			want:   BoundingBox{X: 5, Y: 6, Width: 7, Height: 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.box.Rescale(tt.factor))
		})
	}
}

func TestIdentity_IsUnknown(t *testing.T) {
	assert.True(t, Unknown.IsUnknown())
	assert.True(t, Identity("").IsUnknown())
	assert.False(t, Identity("alice").IsUnknown())
}

func TestEmbedding_Clone(t *testing.T) {
	orig := Embedding{0.1, 0.2, 0.3}
	clone := orig.Clone()
	clone[0] = 9

	assert.Equal(t, 0.1, orig[0])
	assert.Equal(t, 3, clone.Dimension())
	assert.Nil(t, Embedding(nil).Clone())
}

func TestUser_MissingFields(t *testing.T) {
	u := &User{Enrollment: "  2021001 ", Name: " Alice "}
	u.Normalize()

	assert.Equal(t, "2021001", u.Enrollment)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, []string{"class", "semester"}, u.MissingFields())
	assert.Equal(t, Identity("2021001"), u.Identity())
}
