package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.True(t, cfg.MaxDiscount.String() == "0.3")
	assert.True(t, cfg.RentPercent.String() == "0.05")
	assert.Equal(t, []string{"18+"}, cfg.AdultCategories)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAX_DISCOUNT", "0.5")
	t.Setenv("ADULT_CATEGORIES", "18+, gore , ")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "0.5", cfg.MaxDiscount.String())
	assert.Equal(t, []string{"18+", "gore"}, cfg.AdultCategories)
}

func TestLoadBadDecimal(t *testing.T) {
	t.Setenv("RENT_PERCENT_OF_PRICE", "lots")
	_, err := Load()
	assert.Error(t, err)
}
