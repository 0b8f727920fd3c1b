package catalog

// ModelDescriptor is a single entry of the model catalog, kept exactly as the catalog reports it.
type ModelDescriptor struct {
	Name                       string   `json:"name"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

// ModelList is the catalog response body.
type ModelList struct {
	Models []ModelDescriptor `json:"models"`
}
