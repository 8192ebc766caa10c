package services

import (
	"math"

	"github.com/Conceptual-Machines/lyrics-api/internal/llm"
)

// Sampling defaults for lyrics generation
const (
	BaseTemperature      = 0.7
	TemperatureStep      = 0.1
	MaxTemperature       = 1.5
	DefaultTopP          = 0.8
	DefaultMaxOutputToks = 1024
)

// MaxDistinctVersions is the number of versions that get a distinct
// temperature before MaxTemperature caps the ramp (0.7 through 1.5)
const MaxDistinctVersions = 9

// ParamsFunc returns the generation request template for the version at index.
// The relay fills in the prompts.
type ParamsFunc func(index int) llm.GenerationRequest

// GenerationParams returns the sampling parameters for one version.
// Later versions run slightly hotter so they drift further from the first take.
func GenerationParams(model string, index int) llm.GenerationRequest {
	if index < 0 {
		index = 0
	}
	return llm.GenerationRequest{
		Model:           model,
		Temperature:     VersionTemperature(index),
		TopP:            DefaultTopP,
		MaxOutputTokens: DefaultMaxOutputToks,
	}
}

// VersionTemperature returns 0.7 + 0.1*index, capped at MaxTemperature
func VersionTemperature(index int) float64 {
	t := BaseTemperature + TemperatureStep*float64(index)
	// round away float noise so 0.7+0.1*2 reports as 0.9
	t = math.Round(t*100) / 100
	return math.Min(t, MaxTemperature)
}

// ParamsForModel binds GenerationParams to a model
func ParamsForModel(model string) ParamsFunc {
	return func(index int) llm.GenerationRequest {
		return GenerationParams(model, index)
	}
}
