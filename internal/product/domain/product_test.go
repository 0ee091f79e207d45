package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "black-hoodie", Slugify("Black Hoodie"))
	assert.Equal(t, "black-hoodie", Slugify("  Black   Hoodie  "))
	assert.Equal(t, "tee-2024", Slugify("Tee! 2024"))
	assert.Equal(t, "", Slugify(""))
}
