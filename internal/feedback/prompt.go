package feedback

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeStandard Mode = "standard"
	ModeAmazonPM Mode = "amazon_pm"
)

// ParseMode maps the request's feedbackType. Anything but "amazon_pm" is standard.
func ParseMode(value string) Mode {
	if strings.TrimSpace(value) == string(ModeAmazonPM) {
		return ModeAmazonPM
	}
	return ModeStandard
}

type Request struct {
	Question   string
	Transcript string
	Mode       Mode
}

// PromptSpec is the fully rendered prompt for one request.
type PromptSpec struct {
	SystemRole           string
	UserPrompt           string
	EstimatedInputTokens int
}

const emptyQuestion = "Not specified"

type template struct {
	SystemRole string `yaml:"system_role"`
	UserPrompt string `yaml:"user_prompt"`
}

//go:embed templates.yaml
var templatesYAML []byte

var templates = mustLoadTemplates(templatesYAML)

func mustLoadTemplates(data []byte) map[Mode]template {
	parsed, err := loadTemplates(data)
	if err != nil {
		panic(fmt.Sprintf("feedback: %v", err))
	}
	return parsed
}

func loadTemplates(data []byte) (map[Mode]template, error) {
	var raw map[Mode]template
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	for _, mode := range []Mode{ModeStandard, ModeAmazonPM} {
		tmpl, ok := raw[mode]
		if !ok || strings.TrimSpace(tmpl.SystemRole) == "" || strings.TrimSpace(tmpl.UserPrompt) == "" {
			return nil, fmt.Errorf("template %q is missing or incomplete", mode)
		}
	}
	return raw, nil
}

// BuildPrompt renders the template for req.Mode. Question and transcript are
// inserted as-is in one pass: placeholder-looking text inside user content is
// not expanded, and nothing is escaped. A transcript can therefore carry
// instructions aimed at the model; that risk is accepted.
func BuildPrompt(req Request) PromptSpec {
	tmpl, ok := templates[req.Mode]
	if !ok {
		tmpl = templates[ModeStandard]
	}

	question := req.Question
	if strings.TrimSpace(question) == "" {
		question = emptyQuestion
	}

	userPrompt := strings.NewReplacer(
		"{{question}}", question,
		"{{transcript}}", req.Transcript,
	).Replace(tmpl.UserPrompt)

	return PromptSpec{
		SystemRole:           tmpl.SystemRole,
		UserPrompt:           userPrompt,
		EstimatedInputTokens: EstimateTokens(userPrompt),
	}
}
