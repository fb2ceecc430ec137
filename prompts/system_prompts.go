package prompts

import (
	"github.com/cloudwego/eino/components/prompt"
)

// SystemPrompts contains all the prompt templates organized by use case
type SystemPrompts struct {
	// Listing-side classification of the page a traversal is on
	PageClassification prompt.ChatTemplate

	// Structured extraction from a single posting's own page
	JobExtraction prompt.ChatTemplate

	// Picking a clickable element that matches a plain-text instruction
	ElementSelection prompt.ChatTemplate
}

// NewSystemPrompts creates and initializes all prompt templates
func NewSystemPrompts() *SystemPrompts {
	sp := &SystemPrompts{}
	sp.initializePrompts()
	return sp
}

// initializePrompts sets up all the prompt templates
func (sp *SystemPrompts) initializePrompts() {
	sp.PageClassification = sp.createPageClassificationTemplate()
	sp.JobExtraction = sp.createJobExtractionTemplate()
	sp.ElementSelection = sp.createElementSelectionTemplate()
}

// GetAvailableTemplates returns a map of all available templates with descriptions
func (sp *SystemPrompts) GetAvailableTemplates() map[string]string {
	return map[string]string{
		"page_classification": "Classify a page's job-related status and pick the next traversal action",
		"job_extraction":      "Extract one job posting as structured JSON",
		"element_selection":   "Pick the clickable element matching an instruction",
	}
}
