package catalog

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Load discovers, parses, validates, de-duplicates, and indexes function
// definitions rooted at path. path may name a single YAML file or a
// directory, and is shell-expanded (~ and $VARS) and canonicalized first.
// An optional filter, when set, must be a substring of a candidate's
// canonical path or it is dropped from consideration entirely (including
// for discovery-failure purposes).
func Load(path string, filter *string) (*Catalog, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand path %q: %w", path, err)
	}

	root, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize path %q: %w", expanded, err)
	}
	root, err = filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize path %q: %w", expanded, err)
	}

	candidates, err := discover(root, filter)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: in %s", ErrNoPages, root)
	}
	sort.Strings(candidates)

	pages := make([]PageEntry, 0, len(candidates))
	seenNames := make(map[string]struct{})

	for _, pagePath := range candidates {
		page, err := loadPage(pagePath, root)
		if err != nil {
			return nil, err
		}

		if err := renameDuplicates(page, pagePath, seenNames); err != nil {
			return nil, err
		}

		pages = append(pages, PageEntry{Path: pagePath, Page: page})
	}

	index := make(map[string]FunctionRef)
	for _, entry := range pages {
		for name, fn := range entry.Page.Functions {
			if _, exists := index[name]; !exists {
				index[name] = FunctionRef{Name: name, PagePath: entry.Path, Page: entry.Page, Function: fn}
			}
		}
	}

	return &Catalog{pages: pages, index: index}, nil
}

func expandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	return os.ExpandEnv(expanded), nil
}

// discover walks root collecting *.yml candidates (or returns root itself
// if it names a regular file), excluding any path with a hidden path
// segment (one beginning with "." other than the literal "." or "..") and
// any candidate that doesn't contain filter as a substring, when set.
func discover(root string, filter *string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}

	if !info.IsDir() {
		if !includedByFilter(root, filter) {
			return nil, nil
		}
		return []string{root}, nil
	}

	var candidates []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(p) != ".yml" {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if hasHiddenSegment(rel) {
			return nil
		}
		if !includedByFilter(p, filter) {
			return nil
		}
		candidates = append(candidates, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return candidates, nil
}

func hasHiddenSegment(rel string) bool {
	for _, seg := range strings.Split(rel, string(filepath.Separator)) {
		if seg == "." || seg == ".." || seg == "" {
			continue
		}
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

func includedByFilter(path string, filter *string) bool {
	if filter == nil {
		return true
	}
	return strings.Contains(path, *filter)
}

func loadPage(pagePath, root string) (*Page, error) {
	text, err := os.ReadFile(pagePath)
	if err != nil {
		return nil, fmt.Errorf("error while reading %s: %w", pagePath, err)
	}

	text = []byte(preprocess(pagePath, string(text)))

	var page Page
	if err := yaml.Unmarshal(text, &page); err != nil {
		return nil, fmt.Errorf("%w in %s: %w", ErrParse, pagePath, err)
	}

	if page.Name == "" {
		base := filepath.Base(pagePath)
		page.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if len(page.Categories) == 0 {
		rel, err := filepath.Rel(root, filepath.Dir(pagePath))
		if err == nil && rel != "." {
			for _, seg := range strings.Split(rel, string(filepath.Separator)) {
				if seg != "" {
					page.Categories = append(page.Categories, seg)
				}
			}
		}
	}

	for name, fn := range page.Functions {
		if err := fn.Validate(); err != nil {
			slog.Warn("invalid function definition", "page", pagePath, "function", name, "error", err)
		}
	}

	return &page, nil
}

// preprocess replaces the literal token "${cwd}" with the absolute
// directory containing the page, before YAML parsing sees the text.
func preprocess(pagePath, text string) string {
	dir := filepath.Dir(pagePath)
	return strings.ReplaceAll(text, "${cwd}", dir)
}

// renameDuplicates enforces the uniqueness invariant: a function name
// already seen in an earlier page is renamed "<pageName>_<funcName>"
// within the current page. A second collision on the renamed form is
// unresolvable and returns ErrDuplicateFunction, which Load passes on to
// its caller, failing the load.
func renameDuplicates(page *Page, pagePath string, seen map[string]struct{}) error {
	renames := make(map[string]string)

	names := page.SortedFunctionNames()
	for _, name := range names {
		if _, dup := seen[name]; dup {
			renamed := page.Name + "_" + name
			if _, stillDup := seen[renamed]; stillDup {
				return fmt.Errorf("%w: %s in %s", ErrDuplicateFunction, renamed, pagePath)
			}
			slog.Warn("function name is not unique, renaming", "name", name, "page", pagePath, "renamed", renamed)
			renames[name] = renamed
		}
	}

	for old, renamed := range renames {
		fn := page.Functions[old]
		delete(page.Functions, old)
		page.Functions[renamed] = fn
	}

	for name := range page.Functions {
		seen[name] = struct{}{}
	}
	return nil
}
