package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLocationID(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Living Room", "living-room"},
		{"kitchen", "kitchen"},
		{"  Studio ", "studio"},
		{"Main Hall East", "main-hall-east"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeLocationID(tc.name))
	}

	// 规范化是幂等的
	assert.Equal(t, "living-room", NormalizeLocationID(NormalizeLocationID("Living Room")))
}
