package gateway

import "github.com/lehigh-university-libraries/coursemarketer/internal/providers"

func str(description string) *providers.Schema {
	return &providers.Schema{Type: "string", Description: description}
}

var painPointsSchema = &providers.Schema{
	Type: "array",
	Items: &providers.Schema{
		Type: "object",
		Properties: map[string]*providers.Schema{
			"id":            str(""),
			"targetGroup":   str("The specific demographic (e.g., 轉職者, 二度就業父母)"),
			"title":         str("A catchy, click-baity title using SEO keywords"),
			"description":   str("Why this group needs this course based on current-year trends"),
			"marketingHook": str("A powerful one-sentence hook"),
			"seoKeywords": {
				Type:        "array",
				Items:       str(""),
				Description: "List of 3-5 high traffic SEO keywords used in this strategy",
			},
		},
		Required: []string{"id", "targetGroup", "title", "description", "marketingHook", "seoKeywords"},
	},
}

var slidesSchema = &providers.Schema{
	Type: "array",
	Items: &providers.Schema{
		Type: "object",
		Properties: map[string]*providers.Schema{
			"headline":     str(""),
			"subtext":      str(""),
			"visualPrompt": str(""),
		},
		Required: []string{"headline", "subtext", "visualPrompt"},
	},
}

var scriptSchema = &providers.Schema{
	Type: "array",
	Items: &providers.Schema{
		Type: "object",
		Properties: map[string]*providers.Schema{
			"scene":  str("Time stamp e.g. 0-2s"),
			"visual": str("Visual direction (e.g., Person looking shocked)"),
			"audio":  str("Spoken text or overlay text"),
		},
		Required: []string{"scene", "visual", "audio"},
	},
}
