package aiprovider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/brainhub/internal/aiprovider"
)

func TestFacade_GetLanguageModel_VoyageHasNoChatCapability(t *testing.T) {
	f := aiprovider.NewFacade()
	_, err := f.GetLanguageModel(aiprovider.ModelConfig{Vendor: aiprovider.VendorVoyage, ModelKey: "voyage-3"})
	assert.Error(t, err)
}

func TestFacade_GetLanguageModel_KnownVendorsConstruct(t *testing.T) {
	f := aiprovider.NewFacade()
	for _, v := range []aiprovider.Vendor{
		aiprovider.VendorOpenAI, aiprovider.VendorAnthropic, aiprovider.VendorGoogle,
		aiprovider.VendorAzure, aiprovider.VendorOllama, aiprovider.VendorCustom,
	} {
		llm, err := f.GetLanguageModel(aiprovider.ModelConfig{Vendor: v, APIKey: "key", ModelKey: "model"})
		require.NoError(t, err)
		assert.NotNil(t, llm)
	}
}

func TestFacade_GetEmbeddingModel_EmptyModelKeyIsTypedError(t *testing.T) {
	f := aiprovider.NewFacade()
	_, err := f.GetEmbeddingModel(aiprovider.ModelConfig{Vendor: aiprovider.VendorOpenAI})
	assert.ErrorIs(t, err, aiprovider.ErrNoEmbeddingModelConfig)
}

func TestFacade_GetEmbeddingModel_AnthropicUnsupported(t *testing.T) {
	f := aiprovider.NewFacade()
	_, err := f.GetEmbeddingModel(aiprovider.ModelConfig{Vendor: aiprovider.VendorAnthropic, ModelKey: "claude"})
	assert.Error(t, err)
}

func TestFacade_GetAudioModel_EmptyModelKeyIsTypedError(t *testing.T) {
	f := aiprovider.NewFacade()
	_, err := f.GetAudioModel(aiprovider.ModelConfig{Vendor: aiprovider.VendorOpenAI})
	assert.ErrorIs(t, err, aiprovider.ErrNoAudioModelConfig)
}

func TestFacade_TestConnection_AudioIsAlwaysUntestable(t *testing.T) {
	f := aiprovider.NewFacade()
	results := f.TestConnection(nil, aiprovider.ModelConfig{}, aiprovider.ModelCapabilities{Audio: true})
	require.Contains(t, results, "audio")
	assert.False(t, results["audio"].Success)
}
