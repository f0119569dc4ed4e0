package catalog

import (
	"fmt"
	"runtime"
	"sort"

	"gopkg.in/yaml.v3"
)

// Parameter is a named, typed, described input to a Function. Its name is
// its key in the enclosing Function's Parameters map; parameters are
// always iterated in key order (SortedParameterNames), never map order.
type Parameter struct {
	Type        string   `yaml:"type"`
	Description string   `yaml:"description"`
	Required    bool     `yaml:"-"`
	Examples    []string `yaml:"examples,omitempty"`
}

type rawParameter struct {
	Type        string   `yaml:"type"`
	Description string   `yaml:"description"`
	Required    *bool    `yaml:"required"`
	Examples    []string `yaml:"examples"`
}

// UnmarshalYAML applies the "required defaults to true" rule from the page
// file format (§6): a present-but-unset `required` key, or an absent one,
// both mean required.
func (p *Parameter) UnmarshalYAML(node *yaml.Node) error {
	var raw rawParameter
	if err := node.Decode(&raw); err != nil {
		return err
	}
	p.Type = raw.Type
	p.Description = raw.Description
	p.Examples = raw.Examples
	if raw.Required == nil {
		p.Required = true
	} else {
		p.Required = *raw.Required
	}
	return nil
}

// MarshalYAML omits `required` when it's the true default, matching the
// round-trip law in §8: a page reparsed after serialization is equivalent
// modulo default-valued omitted fields.
func (p Parameter) MarshalYAML() (any, error) {
	m := map[string]any{
		"type":        p.Type,
		"description": p.Description,
	}
	if !p.Required {
		m["required"] = false
	}
	if len(p.Examples) > 0 {
		m["examples"] = p.Examples
	}
	return m, nil
}

// ContainerSpec describes how to containerize a Function's command line.
// Exactly one of Image or BuildName is set; IsBuild reports which.
type ContainerSpec struct {
	Image       string
	BuildName   string
	BuildPath   string
	Args        []string
	Volumes     []string
	Force       bool
	PreserveApp bool
	Platform    string
}

type rawBuildSource struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

type rawContainer struct {
	Image       string          `yaml:"image"`
	Build       *rawBuildSource `yaml:"build"`
	Args        []string        `yaml:"args"`
	Volumes     []string        `yaml:"volumes"`
	Force       bool            `yaml:"force"`
	PreserveApp bool            `yaml:"preserve_app"`
	Platform    string          `yaml:"platform"`
}

func (c *ContainerSpec) UnmarshalYAML(node *yaml.Node) error {
	var raw rawContainer
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Build != nil {
		c.BuildName = raw.Build.Name
		c.BuildPath = raw.Build.Path
	} else {
		c.Image = raw.Image
	}
	c.Args = raw.Args
	c.Volumes = raw.Volumes
	c.Force = raw.Force
	c.PreserveApp = raw.PreserveApp
	c.Platform = raw.Platform
	return nil
}

func (c ContainerSpec) MarshalYAML() (any, error) {
	m := map[string]any{}
	if c.IsBuild() {
		m["build"] = rawBuildSource{Name: c.BuildName, Path: c.BuildPath}
	} else {
		m["image"] = c.Image
	}
	if len(c.Args) > 0 {
		m["args"] = c.Args
	}
	if len(c.Volumes) > 0 {
		m["volumes"] = c.Volumes
	}
	if c.Force {
		m["force"] = true
	}
	if c.PreserveApp {
		m["preserve_app"] = true
	}
	if c.Platform != "" {
		m["platform"] = c.Platform
	}
	return m, nil
}

// IsBuild reports whether this is a Build(name, dockerfile) source rather
// than an Image(ref) source.
func (c ContainerSpec) IsBuild() bool {
	return c.BuildName != ""
}

// ImageRef returns the reference the container runtime should run: the
// image name itself, or the name the build produces.
func (c ContainerSpec) ImageRef() string {
	if c.IsBuild() {
		return c.BuildName
	}
	return c.Image
}

// Function is a named callable: a description, an ordered parameter
// schema, an optional container spec, and an execution variant that is
// either a single literal argv or a per-OS mapping of argv.
type Function struct {
	Description string                `yaml:"description"`
	Parameters  map[string]*Parameter `yaml:"parameters"`
	Container   *ContainerSpec        `yaml:"container,omitempty"`
	CommandLine []string              `yaml:"cmdline,omitempty"`
	Platforms   map[string][]string   `yaml:"platforms,omitempty"`
}

// Validate reports whether this function can resolve to a non-empty argv
// on some platform at all. Per the open question in spec.md §9, the
// absence of both `cmdline` and `platforms` is treated as a per-function
// validation error, not a page-level parse error: one malformed function
// does not prevent the rest of the page from loading.
func (f *Function) Validate() error {
	if len(f.CommandLine) == 0 && len(f.Platforms) == 0 {
		return fmt.Errorf("%w: function has neither cmdline nor platforms", ErrParse)
	}
	return nil
}

// Argv returns the literal command line, or the platform-specific one for
// runtime.GOOS, failing with ErrPlatformUnsupported if neither applies to
// the current host.
func (f *Function) Argv() ([]string, error) {
	if len(f.CommandLine) > 0 {
		return f.CommandLine, nil
	}
	if argv, ok := f.Platforms[runtime.GOOS]; ok {
		return argv, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPlatformUnsupported, runtime.GOOS)
}

// SortedParameterNames returns a Function's parameter names in key order,
// the iteration order required throughout the spec (§3's invariant).
func (f *Function) SortedParameterNames() []string {
	names := make([]string, 0, len(f.Parameters))
	for name := range f.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Page is a group of functions, materialized from one YAML file.
type Page struct {
	Name        string               `yaml:"name,omitempty"`
	Description string               `yaml:"description,omitempty"`
	Functions   map[string]*Function `yaml:"functions"`
	Categories  []string             `yaml:"categories,omitempty"`
}

// SortedFunctionNames returns a Page's function names in key order.
func (p *Page) SortedFunctionNames() []string {
	names := make([]string, 0, len(p.Functions))
	for name := range p.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PageEntry pairs a Page with the canonical path it was loaded from.
type PageEntry struct {
	Path string
	Page *Page
}

// FunctionRef is the result of a catalog lookup: the function, the page
// and path it lives in, and the (possibly renamed) name it's indexed
// under.
type FunctionRef struct {
	Name     string
	PagePath string
	Page     *Page
	Function *Function
}

// Catalog is an immutable, ordered-by-path collection of pages plus a flat
// function-name index. Construct one with Load; there is no public
// mutator.
type Catalog struct {
	pages []PageEntry
	index map[string]FunctionRef
}

// NewFromPages builds a Catalog directly from an already-filtered list of
// pages, re-deriving the flat function index. Used by the server to apply
// a request-time path filter to an already-loaded catalog without
// re-reading it from disk.
func NewFromPages(pages []PageEntry) *Catalog {
	index := make(map[string]FunctionRef)
	for _, entry := range pages {
		for name, fn := range entry.Page.Functions {
			if _, exists := index[name]; !exists {
				index[name] = FunctionRef{Name: name, PagePath: entry.Path, Page: entry.Page, Function: fn}
			}
		}
	}
	return &Catalog{pages: pages, index: index}
}

// Pages returns the catalog's pages in path order.
func (c *Catalog) Pages() []PageEntry {
	return c.pages
}

// Size returns the number of loaded pages.
func (c *Catalog) Size() int {
	return len(c.pages)
}

// GetFunction looks up a function by its (possibly renamed) name in the
// catalog's index, which Load and NewFromPages build by scanning pages in
// path order and keeping the first match; a linear scan across pages in
// the same order is the fallback.
func (c *Catalog) GetFunction(name string) (FunctionRef, error) {
	if ref, ok := c.index[name]; ok {
		return ref, nil
	}
	for _, entry := range c.pages {
		if fn, ok := entry.Page.Functions[name]; ok {
			return FunctionRef{Name: name, PagePath: entry.Path, Page: entry.Page, Function: fn}, nil
		}
	}
	return FunctionRef{}, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
}
