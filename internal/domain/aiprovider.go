package domain

// Vendor enumerates the AI vendors the provider facade normalizes over
//. "custom" is treated as an OpenAI-compatible endpoint.
type Vendor string

const (
	VendorOpenAI Vendor = "openai"
	VendorAnthropic Vendor = "anthropic"
	VendorGoogle Vendor = "google"
	VendorAzure Vendor = "azure"
	VendorOllama Vendor = "ollama"
	VendorOpenRouter Vendor = "openrouter"
	VendorDeepSeek Vendor = "deepseek"
	VendorXAI Vendor = "xai"
	VendorVoyage Vendor = "voyage"
	VendorCustom Vendor = "custom"
)

// Capabilities is the boolean tuple classifying what a model can do.
// Rerank is reserved per Open Questions: declared, never wired.
type Capabilities struct {
	Inference bool `json:"inference"`
	Tools bool `json:"tools"`
	Image bool `json:"image"`
	ImageGeneration bool `json:"imageGeneration"`
	Video bool `json:"video"`
	Audio bool `json:"audio"`
	Embedding bool `json:"embedding"`
	Rerank bool `json:"rerank"`
}

// AIProvider is a configured vendor account.
type AIProvider struct {
	ID int64 `db:"id" json:"id"`
	Vendor Vendor `db:"vendor" json:"vendor"`
	BaseURL string `db:"base_url" json:"baseUrl,omitempty"`
	APIKey string `db:"api_key" json:"-"`
	Config string `db:"config" json:"config,omitempty"` // vendor-specific JSON blob
}

// AIModel is a model offered by a provider, tagged with its capabilities.
type AIModel struct {
	ID int64 `db:"id" json:"id"`
	ProviderID int64 `db:"provider_id" json:"providerId"`
	ModelKey string `db:"model_key" json:"modelKey"`
	Capabilities Capabilities `db:"-" json:"capabilities"`
	EmbeddingDimensions int `db:"embedding_dimensions" json:"embeddingDimensions,omitempty"`
}

// ModelConfig is the resolved configuration handed to the AI provider facade
// for one call ( cfg shape).
type ModelConfig struct {
	Vendor Vendor
	APIKey string
	BaseURL string
	ModelKey string
	APIVersion string
}

// GlobalAIConfig holds the runtime-editable settings that bear directly on
// the AI/embedding/agent components.
type GlobalAIConfig struct {
	MainModelID *int64
	EmbeddingModelID *int64
	VoiceModelID *int64
	ImageModelID *int64
	EmbeddingTopK int
	EmbeddingScore float64
	ExcludeEmbeddingTagID *int64
	GlobalPrompt string
	IsUseAIPostProcessing bool
	AIPostProcessingMode string
	AICommentPrompt string
	AITagsPrompt string
	AISmartEditPrompt string
	AICustomPrompt string
	TavilyAPIKey string
	TavilyMaxResult int
	AutoArchivedDays int
}

// DefaultGlobalAIConfig mirrors the monorepo's usual config.SetDefaults pattern.
func DefaultGlobalAIConfig() GlobalAIConfig {
	return GlobalAIConfig{
		EmbeddingTopK: 3,
		EmbeddingScore: 0.4,
		TavilyMaxResult: 5,
		AutoArchivedDays: 30,
	}
}

// VectorRecord is one embedding plus its source metadata in the vector
// store. Many per note.
type VectorRecord struct {
	VectorID string `json:"vectorId"`
	Embedding []float32 `json:"-"`
	NoteID int64 `json:"noteId"`
	Text string `json:"text"`
	IsAttachment bool `json:"isAttachment,omitempty"`
	CreateTime string `json:"createTime"`
	UpdatedAt string `json:"updatedAt"`
}
