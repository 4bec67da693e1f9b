package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template roles.
const (
	RoleOrchestrator = "orchestrator"
	RoleOCRImage     = "ocr_image"
	RoleOCRPDF       = "ocr_pdf"
)

// CatalogueFile is the file name looked up inside a prompts directory.
const CatalogueFile = "templates.yaml"

//go:embed templates.yaml
var bundled []byte

type catalogueFile struct {
	Version   int               `yaml:"version"`
	Templates map[string]string `yaml:"templates"`
}

// Catalogue holds templates keyed by role.
type Catalogue struct {
	templates map[string]string
}

// NewCatalogue builds a catalogue from an in-memory map.
func NewCatalogue(templates map[string]string) *Catalogue {
	c := &Catalogue{templates: make(map[string]string, len(templates))}
	for role, t := range templates {
		c.templates[role] = t
	}
	return c
}

// ParseCatalogueYAML decodes a catalogue payload.
func ParseCatalogueYAML(data []byte) (*Catalogue, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("prompt: catalogue payload is empty")
	}
	var f catalogueFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("prompt: decode catalogue: %w", err)
	}
	if len(f.Templates) == 0 {
		return nil, fmt.Errorf("prompt: catalogue has no templates")
	}
	return NewCatalogue(f.Templates), nil
}

// Bundled returns the catalogue compiled into the binary.
func Bundled() (*Catalogue, error) {
	return ParseCatalogueYAML(bundled)
}

// Load reads dir/templates.yaml, or the bundled catalogue when dir is empty.
func Load(dir string) (*Catalogue, error) {
	if strings.TrimSpace(dir) == "" {
		return Bundled()
	}
	path := filepath.Join(dir, CatalogueFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prompt: read %s: %w", path, err)
	}
	c, err := ParseCatalogueYAML(data)
	if err != nil {
		return nil, fmt.Errorf("prompt: %s: %w", path, err)
	}
	return c, nil
}

// Template returns the template registered for role.
func (c *Catalogue) Template(role string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("prompt: no catalogue loaded")
	}
	t, ok := c.templates[role]
	if !ok || strings.TrimSpace(t) == "" {
		return "", fmt.Errorf("prompt: template %q not found", role)
	}
	return t, nil
}

// TemplateOr returns the template for role, or fallback when it cannot be loaded.
func (c *Catalogue) TemplateOr(role, fallback string) string {
	t, err := c.Template(role)
	if err != nil {
		return fallback
	}
	return t
}

// Roles lists the registered roles in sorted order.
func (c *Catalogue) Roles() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.templates))
	for r := range c.templates {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Render substitutes {{name}} placeholders in a single pass, so values that
// themselves contain placeholders are left untouched.
func Render(tpl string, vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
