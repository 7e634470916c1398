package prompt

import (
	"github.com/bryanwahyu/image-identifier/internal/domain/analysis"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are an AI vision model that analyzes images and identifies objects, people, and scenes. You must produce one valid JSON object only (no markdown, no commentary). Do not include code fences.

Requirements:
- Output must be a single JSON object with exactly three fields: objects, people, scenes.
- Each field is an array of short English labels (strings). Use an empty array when nothing in that category is present.
- objects: the list of identified objects in the image.
- people: the list of identified people in the image (describe them, do not guess identities).
- scenes: the list of identified scenes in the image.

Schema (example with empty values):
{
  "objects": ["<string>"],
  "people": ["<string>"],
  "scenes": ["<string>"]
}`
}

// GetUserPrompt is the fixed instruction sent alongside the image.
func GetUserPrompt() string {
	return "Analyze the following image and identify the objects, people, and scenes present in the image. Return the objects, people, and scenes in the appropriate output array."
}

// Build turns a validated payload into a model request. It is deterministic and does no I/O.
func Build(p analysis.ImagePayload) analysis.ModelRequest {
	return analysis.ModelRequest{
		System:      GetSystemPrompt(),
		Instruction: GetUserPrompt(),
		Image:       p,
	}
}
