package models

// CourseInfo describes the course a marketing campaign is built for
type CourseInfo struct {
	Title          string `json:"title" validate:"required,notblank"`
	TargetAudience string `json:"targetAudience" validate:"required,notblank"`
	Description    string `json:"description" validate:"required,notblank"`
	KeyTakeaways   string `json:"keyTakeaways" validate:"required,notblank"`
}

// PainPoint is one marketing angle proposed for a course
type PainPoint struct {
	ID            string   `json:"id"`
	TargetGroup   string   `json:"targetGroup" validate:"required,notblank"` // e.g. "轉職者", "二度就業父母"
	Title         string   `json:"title" validate:"required,notblank"`
	Description   string   `json:"description" validate:"required,notblank"`
	MarketingHook string   `json:"marketingHook" validate:"required,notblank"`
	SEOKeywords   []string `json:"seoKeywords" validate:"min=1,dive,notblank"`
}

// SlideContent is the text of one carousel slide
type SlideContent struct {
	Headline     string `json:"headline" validate:"required,notblank"`
	Subtext      string `json:"subtext" validate:"required,notblank"`
	VisualPrompt string `json:"visualPrompt" validate:"required,notblank"`
}

// ImageState tracks background art generation for a single slide
type ImageState string

const (
	ImageNotStarted ImageState = "not_started"
	ImagePending    ImageState = "pending"
	ImageReady      ImageState = "ready"
	ImageFailed     ImageState = "failed"
)

// SlideData is a slide as presented to the user
type SlideData struct {
	Content           SlideContent `json:"content"`
	BackgroundImage   string       `json:"backgroundImage,omitempty"` // data URI, empty means fallback gradient
	IsGeneratingImage bool         `json:"isGeneratingImage"`
	ImageState        ImageState   `json:"imageState"`
	IsCallToAction    bool         `json:"isCallToAction"`
}

// VideoScriptScene is one beat of a short video script
type VideoScriptScene struct {
	Scene  string `json:"scene" validate:"required,notblank"` // timestamp label, e.g. "0-3s"
	Visual string `json:"visual" validate:"required,notblank"`
	Audio  string `json:"audio" validate:"required,notblank"`
}

// GeneratedVideo is a playable video and the prompt that produced it
type GeneratedVideo struct {
	URI    string `json:"uri"`
	Prompt string `json:"prompt"`
}
