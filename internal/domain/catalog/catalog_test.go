package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Starters", "starters"},
		{"spaces", "Wood Fired Pizza", "wood-fired-pizza"},
		{"punctuation", "Chef's Specials!", "chefs-specials"},
		{"multiple spaces", "Hot  -  Drinks", "hot-drinks"},
		{"already slug", "desserts", "desserts"},
		{"unicode stripped", "Crème Brûlée", "crme-brle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}
