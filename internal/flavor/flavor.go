// Package flavor projects a catalog into one of several external
// agent-tool schemas (openai function-calling, nerve action-groups,
// rigging tool-framework), and decodes the call/result wire records those
// schemas exchange.
package flavor

import (
	"errors"
	"fmt"

	"github.com/dreadnode/robopages-go/internal/catalog"
)

// ErrUnknownFlavor is returned for any flavor name other than the three
// recognized ones.
var ErrUnknownFlavor = errors.New("unknown flavor")

// Flavor is a closed enumeration of the supported tool-schema projections.
type Flavor string

const (
	OpenAI  Flavor = "openai"
	Nerve   Flavor = "nerve"
	Rigging Flavor = "rigging"
)

// Parse validates a flavor name, defaulting the empty string to OpenAI.
func Parse(name string) (Flavor, error) {
	switch Flavor(name) {
	case "":
		return OpenAI, nil
	case OpenAI, Nerve, Rigging:
		return Flavor(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFlavor, name)
	}
}

// --- openai function-calling schema ---

type OpenAITool struct {
	Type     string             `json:"type"`
	Function OpenAIToolFunction `json:"function"`
}

type OpenAIToolFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  OpenAIToolParams   `json:"parameters"`
}

type OpenAIToolParams struct {
	Type       string                          `json:"type"`
	Properties map[string]OpenAIToolProperty   `json:"properties"`
	Required   []string                        `json:"required"`
}

type OpenAIToolProperty struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// --- nerve action-group schema ---

type NerveFunctionGroup struct {
	Name    string       `json:"name"`
	Actions []NerveAction `json:"actions"`
}

type NerveAction struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Args        map[string]string `json:"args"`
	Tool        string            `json:"tool"`
}

// --- rigging tool-framework schema ---

type RiggingTool struct {
	Name      string             `json:"name"`
	Functions []RiggingFunction  `json:"functions"`
}

type RiggingFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  []RiggingParameter `json:"parameters"`
}

type RiggingParameter struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Examples    []string `json:"examples"`
}

// --- call / result wire records ---

// Call is a caller's request to invoke one named function.
type Call struct {
	ID       *string      `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function CallFunction `json:"function"`
}

type CallFunction struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments"`
}

// NormalizedType defaults an absent Type to "function", per §6.
func (c *Call) NormalizedType() string {
	if c.Type == "" {
		return "function"
	}
	return c.Type
}

// CallResultMessage is the response record for one Call.
type CallResultMessage struct {
	Role   string  `json:"role"`
	CallID *string `json:"call_id,omitempty"`
	Content string `json:"content"`
}

// NewCallResult builds a result message with the fixed role "tool".
func NewCallResult(callID *string, content string) CallResultMessage {
	return CallResultMessage{Role: "tool", CallID: callID, Content: content}
}

// RenderAsTools projects every page/function in cat into the schema named
// by f. Any path-substring filter is applied to cat beforehand (by
// catalog.Load, or by the server's per-request filter).
func RenderAsTools(cat *catalog.Catalog, f Flavor) (any, error) {
	switch f {
	case OpenAI:
		return renderOpenAI(cat), nil
	case Nerve:
		return renderNerve(cat), nil
	case Rigging:
		return renderRigging(cat), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlavor, f)
	}
}

func renderOpenAI(cat *catalog.Catalog) []OpenAITool {
	var tools []OpenAITool
	for _, entry := range cat.Pages() {
		for _, name := range entry.Page.SortedFunctionNames() {
			fn := entry.Page.Functions[name]
			tools = append(tools, OpenAITool{
				Type: "function",
				Function: OpenAIToolFunction{
					Name:        name,
					Description: fn.Description,
					Parameters:  openAIParams(fn),
				},
			})
		}
	}
	return tools
}

func openAIParams(fn *catalog.Function) OpenAIToolParams {
	props := make(map[string]OpenAIToolProperty, len(fn.Parameters))
	var required []string
	for _, name := range fn.SortedParameterNames() {
		param := fn.Parameters[name]
		props[name] = OpenAIToolProperty{Type: param.Type, Description: param.Description}
		if param.Required {
			required = append(required, name)
		}
	}
	return OpenAIToolParams{Type: "object", Properties: props, Required: required}
}

func renderNerve(cat *catalog.Catalog) []NerveFunctionGroup {
	var groups []NerveFunctionGroup
	for _, entry := range cat.Pages() {
		group := NerveFunctionGroup{Name: entry.Page.Name}
		for _, name := range entry.Page.SortedFunctionNames() {
			fn := entry.Page.Functions[name]
			args := make(map[string]string, len(fn.Parameters))
			for _, pname := range fn.SortedParameterNames() {
				args[pname] = fn.Parameters[pname].Description
			}
			group.Actions = append(group.Actions, NerveAction{
				Name:        name,
				Description: fn.Description,
				Args:        args,
				Tool:        entry.Page.Name + "." + name + "@robopages",
			})
		}
		groups = append(groups, group)
	}
	return groups
}

func renderRigging(cat *catalog.Catalog) []RiggingTool {
	var tools []RiggingTool
	for _, entry := range cat.Pages() {
		tool := RiggingTool{Name: entry.Page.Name}
		for _, name := range entry.Page.SortedFunctionNames() {
			fn := entry.Page.Functions[name]
			riggingFn := RiggingFunction{Name: name, Description: fn.Description}
			for _, pname := range fn.SortedParameterNames() {
				param := fn.Parameters[pname]
				examples := param.Examples
				if examples == nil {
					examples = []string{}
				}
				riggingFn.Parameters = append(riggingFn.Parameters, RiggingParameter{
					Name:        pname,
					Type:        riggingType(param.Type),
					Description: param.Description,
					Examples:    examples,
				})
			}
			tool.Functions = append(tool.Functions, riggingFn)
		}
		tools = append(tools, tool)
	}
	return tools
}

// riggingType remaps the catalog's "string" type to rigging's "str".
func riggingType(t string) string {
	if t == "string" {
		return "str"
	}
	return t
}
