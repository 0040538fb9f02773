// Package models contains shared data models used across the articleforge codebase.
package models

// ResearchSpec is the structured specification produced by the external
// clarification dialogue. It drives both research and article generation.
type ResearchSpec struct {
	ResearchGoal       string            `json:"research_goal"`
	Domain             string            `json:"domain,omitempty"`
	Scope              Scope             `json:"scope,omitempty"`
	Audience           Audience          `json:"audience,omitempty"`
	FocusAreas         []string          `json:"focus_areas,omitempty"`
	Exclusions         []string          `json:"exclusions,omitempty"`
	Constraints        Constraints       `json:"constraints,omitempty"`
	OutputPreferences  OutputPreferences `json:"output_preferences,omitempty"`
	ClarificationNotes string            `json:"clarification_notes,omitempty"`
}

// Scope configures how wide and how deep the research should go.
type Scope struct {
	Breadth string `json:"breadth,omitempty"` // narrow|moderate|broad
	Depth   string `json:"depth,omitempty"`   // overview|detailed|comprehensive
}

// Audience describes who the final article is written for.
type Audience struct {
	ExpertiseLevel string `json:"expertise_level,omitempty"` // beginner|intermediate|expert
	Context        string `json:"context,omitempty"`
}

// OutputPreferences configure the final article shape.
type OutputPreferences struct {
	Format         string `json:"format,omitempty"` // blog|x_article|linkedin
	WordCount      int    `json:"word_count,omitempty"`
	IncludeSources *bool  `json:"include_sources,omitempty"`
	IncludeImages  *bool  `json:"include_images,omitempty"`
}

// Constraints narrow the research corpus.
type Constraints struct {
	Recency    string `json:"recency,omitempty"` // any|recent|last_year
	Geographic string `json:"geographic,omitempty"`
}

// ApplyDefaults fills unset fields with the documented defaults. JSON decoding
// leaves omitted fields zero-valued, so this runs once after unmarshal.
func (s *ResearchSpec) ApplyDefaults() {
	if s.Scope.Breadth == "" {
		s.Scope.Breadth = "moderate"
	}
	if s.Scope.Depth == "" {
		s.Scope.Depth = "detailed"
	}
	if s.Audience.ExpertiseLevel == "" {
		s.Audience.ExpertiseLevel = "intermediate"
	}
	if s.OutputPreferences.Format == "" {
		s.OutputPreferences.Format = "blog"
	}
	if s.OutputPreferences.WordCount == 0 {
		s.OutputPreferences.WordCount = 2000
	}
	if s.Constraints.Recency == "" {
		s.Constraints.Recency = "any"
	}
}

// ImagePrompt is one unit within an image generation batch.
type ImagePrompt struct {
	Description      string   `json:"description"`
	Style            string   `json:"style,omitempty"`
	QualityModifiers []string `json:"quality_modifiers,omitempty"`
	AspectRatio      string   `json:"aspect_ratio,omitempty"`
	Purpose          string   `json:"purpose,omitempty"` // header|diagram|visual|infographic
}

// ApplyDefaults fills unset prompt fields with the documented defaults.
func (p *ImagePrompt) ApplyDefaults() {
	if p.Style == "" {
		p.Style = "photorealistic"
	}
	if len(p.QualityModifiers) == 0 {
		p.QualityModifiers = []string{"high-quality", "detailed"}
	}
	if p.AspectRatio == "" {
		p.AspectRatio = "16:9"
	}
	if p.Purpose == "" {
		p.Purpose = "visual"
	}
}
