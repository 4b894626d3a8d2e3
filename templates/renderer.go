// Package templates renders prompt templates for commit messages and pull
// request descriptions. Built-in templates are embedded; user, team and
// project directories can shadow them by name.
package templates

import (
	"bytes"
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"github.com/gitscribe/gitscribe"
)

//go:embed builtin
var builtinFS embed.FS

// categories are the template subdirectories searched in every layer.
var categories = []string{"commit", "pr"}

// Compile-time interface verification.
var _ gitscribe.Renderer = (*Renderer)(nil)

// Renderer resolves templates by name across layered search paths. Paths
// are searched in order, so callers list them highest precedence first;
// the embedded builtins always come last.
type Renderer struct {
	searchPaths []string
}

// NewRenderer creates a renderer over the given search paths. Each path
// is expected to contain commit/ and pr/ subdirectories with .tmpl files.
func NewRenderer(searchPaths ...string) *Renderer {
	return &Renderer{searchPaths: searchPaths}
}

// Render renders the named template from the given category. An unknown
// name returns an error marked gitscribe.ErrTemplateNotFound; referencing
// a field the context does not carry is a render error.
func (r *Renderer) Render(name, category string, ctx *gitscribe.TemplateContext) (string, error) {
	src, err := r.lookup(name, category)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(name).
		Funcs(templateFuncs()).
		Option("missingkey=error").
		Parse(src)
	if err != nil {
		return "", errors.Wrapf(err, "parse template %s/%s", category, name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", errors.Wrapf(err, "render template %s/%s", category, name)
	}
	return buf.String(), nil
}

// List enumerates every discoverable template, highest-precedence source
// first for shadowed names.
func (r *Renderer) List() ([]gitscribe.TemplateInfo, error) {
	seen := make(map[string]struct{})
	var infos []gitscribe.TemplateInfo

	add := func(name, category, source string) {
		key := category + "/" + name
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		infos = append(infos, gitscribe.TemplateInfo{
			Name:     name,
			Category: category,
			Source:   source,
		})
	}

	for _, sp := range r.searchPaths {
		for _, category := range categories {
			entries, err := os.ReadDir(filepath.Join(sp, category))
			if err != nil {
				continue
			}
			for _, entry := range entries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tmpl") {
					continue
				}
				add(strings.TrimSuffix(entry.Name(), ".tmpl"), category, sp)
			}
		}
	}

	for _, category := range categories {
		entries, err := fs.ReadDir(builtinFS, "builtin/"+category)
		if err != nil {
			return nil, errors.Wrap(err, "read builtin templates")
		}
		for _, entry := range entries {
			add(strings.TrimSuffix(entry.Name(), ".tmpl"), category, "builtin")
		}
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Category != infos[j].Category {
			return infos[i].Category < infos[j].Category
		}
		return infos[i].Name < infos[j].Name
	})
	return infos, nil
}

// lookup returns the template source for name, searching the layered
// paths before the embedded builtins.
func (r *Renderer) lookup(name, category string) (string, error) {
	for _, sp := range r.searchPaths {
		data, err := os.ReadFile(filepath.Join(sp, category, name+".tmpl"))
		if err == nil {
			return string(data), nil
		}
	}
	data, err := fs.ReadFile(builtinFS, "builtin/"+category+"/"+name+".tmpl")
	if err != nil {
		return "", errors.Mark(
			errors.Newf("template %q not found in category %q", name, category),
			gitscribe.ErrTemplateNotFound)
	}
	return string(data), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"wordwrap":        wordwrap,
		"capitalizeFirst": capitalizeFirst,
	}
}

// wordwrap breaks text into lines no longer than width, splitting only at
// spaces. Words longer than width stay on their own line.
func wordwrap(width int, text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}
	var b strings.Builder
	lineLen := 0
	for i, word := range words {
		if i > 0 {
			if lineLen+1+len(word) > width {
				b.WriteByte('\n')
				lineLen = 0
			} else {
				b.WriteByte(' ')
				lineLen++
			}
		}
		b.WriteString(word)
		lineLen += len(word)
	}
	return b.String()
}

// capitalizeFirst upper-cases the first rune, leaving the rest unchanged.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
