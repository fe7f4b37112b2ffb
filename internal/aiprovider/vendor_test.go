package aiprovider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/brainhub/internal/aiprovider"
)

func TestNormalize_OllamaAppendsAPISuffix(t *testing.T) {
	cfg := aiprovider.Normalize(aiprovider.ModelConfig{
		Vendor: aiprovider.VendorOllama,
		BaseURL: "http://localhost:11434",
	})
	assert.Equal(t, "http://localhost:11434/api", cfg.BaseURL)
}

func TestNormalize_OllamaIsIdempotent(t *testing.T) {
	cfg := aiprovider.Normalize(aiprovider.ModelConfig{
		Vendor: aiprovider.VendorOllama,
		BaseURL: "http://localhost:11434/api/",
	})
	assert.Equal(t, "http://localhost:11434/api", cfg.BaseURL)
}

func TestNormalize_AzureDefaultsAPIVersion(t *testing.T) {
	cfg := aiprovider.Normalize(aiprovider.ModelConfig{Vendor: aiprovider.VendorAzure})
	assert.Equal(t, "2024-02-01", cfg.APIVersion)
}

func TestNormalize_AzureKeepsExplicitAPIVersion(t *testing.T) {
	cfg := aiprovider.Normalize(aiprovider.ModelConfig{
		Vendor: aiprovider.VendorAzure,
		APIVersion: "2023-05-15",
	})
	assert.Equal(t, "2023-05-15", cfg.APIVersion)
}

func TestNormalize_OtherVendorsUntouched(t *testing.T) {
	cfg := aiprovider.Normalize(aiprovider.ModelConfig{
		Vendor: aiprovider.VendorOpenAI,
		BaseURL: "https://api.openai.com/v1",
	})
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	assert.Empty(t, cfg.APIVersion)
}
