// Package scaffold implements the "create" subcommand: generating a new
// page YAML file from a named template.
package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"text/template"
	"time"

	"github.com/goombaio/namegenerator"
)

// ErrUnknownTemplate is returned for a template name not in Templates.
var ErrUnknownTemplate = errors.New("unknown template")

// Templates maps a template name to its text/template source. Each
// template is rendered with a templateData value.
var Templates = map[string]string{
	"basic": basicTemplate,
	"http":  httpTemplate,
	"net":   netTemplate,
}

type templateData struct {
	PageName     string
	FunctionName string
}

const basicTemplate = `name: {{.PageName}}
functions:
  {{.FunctionName}}:
    description: describe what this function does
    parameters:
      arg:
        type: string
        description: describe this argument
    cmdline: ["echo", "${arg}"]
`

const httpTemplate = `name: {{.PageName}}
functions:
  {{.FunctionName}}:
    description: issue an HTTP request
    parameters:
      url:
        type: string
        description: the URL to request
    cmdline: ["curl", "-sS", "${url}"]
`

const netTemplate = `name: {{.PageName}}
functions:
  {{.FunctionName}}:
    description: probe a host
    parameters:
      host:
        type: string
        description: the host to probe
    cmdline: ["ping", "-c", "1", "${host}"]
`

// Create renders templateName into destPath. If functionName is empty, a
// friendly generated name (e.g. "brave-falcon") is used instead, the same
// role namegenerator plays for the teacher's sandbox naming.
func Create(templateName, pageName, functionName, destPath string) error {
	tmplSrc, ok := Templates[templateName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTemplate, templateName)
	}

	if functionName == "" {
		functionName = defaultFunctionName()
	}

	tmpl, err := template.New(templateName).Parse(tmplSrc)
	if err != nil {
		return fmt.Errorf("parsing template %q: %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateData{PageName: pageName, FunctionName: functionName}); err != nil {
		return fmt.Errorf("rendering template %q: %w", templateName, err)
	}

	if err := os.WriteFile(destPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", destPath, err)
	}
	return nil
}

func defaultFunctionName() string {
	gen := namegenerator.NewNameGenerator(time.Now().UnixNano())
	return gen.Generate()
}
