package provider

// BaseProvider carries the capability metadata every backend shares.
// Concrete providers embed it and override fields in their constructor.
type BaseProvider struct {
	Name        string
	DisplayName string
	Type        ProviderType
	Version     string

	SupportedFormats   []AudioFormat
	SupportedLanguages []string
	MaxFileSizeMB      int

	SupportsTimestamps        bool
	SupportsWordLevel         bool
	SupportsLanguageDetection bool

	RequiresInternet bool
	RequiresAPIKey   bool
	RequiresBinary   bool

	DefaultModel    string
	AvailableModels []string
}

// NewBaseProvider returns a BaseProvider with the common defaults.
func NewBaseProvider(name, displayName string, providerType ProviderType, version string) BaseProvider {
	return BaseProvider{
		Name:               name,
		DisplayName:        displayName,
		Type:               providerType,
		Version:            version,
		SupportedFormats:   []AudioFormat{FormatWAV, FormatMP3},
		SupportsTimestamps: true,
	}
}

// Info satisfies the metadata half of TranscriptionProvider.
func (b BaseProvider) Info() ProviderInfo {
	return ProviderInfo{
		Name:                      b.Name,
		DisplayName:               b.DisplayName,
		Type:                      b.Type,
		Version:                   b.Version,
		SupportedFormats:          b.SupportedFormats,
		SupportedLanguages:        b.SupportedLanguages,
		MaxFileSizeMB:             b.MaxFileSizeMB,
		SupportsTimestamps:        b.SupportsTimestamps,
		SupportsWordLevel:         b.SupportsWordLevel,
		SupportsLanguageDetection: b.SupportsLanguageDetection,
		RequiresInternet:          b.RequiresInternet,
		RequiresAPIKey:            b.RequiresAPIKey,
		RequiresBinary:            b.RequiresBinary,
		DefaultModel:              b.DefaultModel,
		AvailableModels:           b.AvailableModels,
	}
}
