package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsProductSearchURL(t *testing.T) {
	assert.True(t, IsProductSearchURL("https://shop.example.com/m/products/scan"))
	assert.True(t, IsProductSearchURL("https://shop.example.com/m/products/scan?source=app"))
	assert.False(t, IsProductSearchURL("https://shop.example.com/m/products"))
	assert.False(t, IsProductSearchURL("https://scan.example.com/scan"))
}

func TestBuildReturnURL(t *testing.T) {
	got, err := BuildReturnURL("https://scan.example.com/scan?ret=https://example.com/lookup?q={CODE}", "a b/c")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/lookup?q=a+b%2Fc", got)
}

func TestBuildReturnURLRaw(t *testing.T) {
	got, err := BuildReturnURL("https://scan.example.com/scan?raw&ret=tel:{CODE}", "555-0100")
	require.NoError(t, err)
	assert.Equal(t, "tel:555-0100", got)
}

func TestBuildReturnURLMissingTemplate(t *testing.T) {
	_, err := BuildReturnURL("https://scan.example.com/scan", "code")
	assert.ErrorIs(t, err, ErrNoReturnTemplate)
}
