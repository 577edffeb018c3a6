// Package models contains data types and constants for the generative
// language API.
package models

import "fmt"

// EndpointGenerateFormat is the REST endpoint template for content
// generation. The single %s is the model name.
const EndpointGenerateFormat = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

// Model represents an available generative model
type Model struct {
	Name string
}

// Available models
var (
	ModelFlash = Model{Name: "gemini-2.0-flash"}

	ModelFlashLite = Model{Name: "gemini-2.0-flash-lite"}

	ModelPro = Model{Name: "gemini-1.5-pro"}

	// DefaultModel is the recommended default
	DefaultModel = ModelFlash
)

// AllModels returns a list of all available models
func AllModels() []Model {
	return []Model{ModelFlash, ModelFlashLite, ModelPro}
}

// ModelFromName returns a Model by its name or short alias
func ModelFromName(name string) Model {
	switch name {
	case "gemini-2.0-flash", "fast":
		return ModelFlash
	case "gemini-2.0-flash-lite", "lite":
		return ModelFlashLite
	case "gemini-1.5-pro", "pro":
		return ModelPro
	default:
		return DefaultModel
	}
}

// GenerateURL returns the generateContent endpoint for the model
func (m Model) GenerateURL() string {
	return fmt.Sprintf(EndpointGenerateFormat, m.Name)
}

// DefaultHeaders returns the default headers for inference requests
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
	}
}
