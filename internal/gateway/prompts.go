package gateway

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/lehigh-university-libraries/coursemarketer/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Prompts is the prompt pack sent to the model
type Prompts struct {
	Strategies   string `yaml:"strategies"`
	Slides       string `yaml:"slides"`
	SlideImage   string `yaml:"slide_image"`
	Script       string `yaml:"script"`
	VideoDefault string `yaml:"video_default"`

	templates map[string]*template.Template
}

// PromptParams is the data every prompt template is rendered with
type PromptParams struct {
	Course       models.CourseInfo
	PainPoint    models.PainPoint
	Keywords     string
	VisualPrompt string
	CurrentYear  int
	NextYear     int
	StaleRange   string
	Platform     string
	PlatformZH   string
	Market       string
	Language     string
}

// DefaultPrompts returns the embedded prompt pack
func DefaultPrompts() *Prompts {
	p, err := parsePrompts(defaultPrompts)
	if err != nil {
		panic(fmt.Sprintf("embedded prompts are invalid: %v", err))
	}
	return p
}

// LoadPrompts reads a prompt pack from path. Missing entries fall back to the
// embedded defaults.
func LoadPrompts(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}

	var override Prompts
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}

	p := DefaultPrompts()
	if override.Strategies != "" {
		p.Strategies = override.Strategies
	}
	if override.Slides != "" {
		p.Slides = override.Slides
	}
	if override.SlideImage != "" {
		p.SlideImage = override.SlideImage
	}
	if override.Script != "" {
		p.Script = override.Script
	}
	if override.VideoDefault != "" {
		p.VideoDefault = override.VideoDefault
	}
	if err := p.compile(); err != nil {
		return nil, err
	}
	return p, nil
}

func parsePrompts(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	if err := p.compile(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Prompts) compile() error {
	p.templates = make(map[string]*template.Template)
	for name, text := range map[string]string{
		"strategies":    p.Strategies,
		"slides":        p.Slides,
		"slide_image":   p.SlideImage,
		"script":        p.Script,
		"video_default": p.VideoDefault,
	} {
		tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
		if err != nil {
			return fmt.Errorf("parse %s prompt: %w", name, err)
		}
		p.templates[name] = tmpl
	}
	return nil
}

func (p *Prompts) render(name string, params PromptParams) (string, error) {
	tmpl, ok := p.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
