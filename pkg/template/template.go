package template

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var exts = []string{".html", ".tmpl"}

// Store holds the parsed page templates. Templates under shared/ are
// parsed into a root template that every page is cloned from, so pages
// can reference shared partials by their path key (e.g. "shared/head").
type Store struct {
	root  *template.Template
	pages map[string]*template.Template
}

func NewFS(fsys fs.FS) (*Store, error) {
	root := template.New("root")

	err := walkTemplates(fsys, "shared", func(p, key string) error {
		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		root, err = root.New(key).Parse(string(content))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("parsing shared templates: %w", err)
	}

	pages := make(map[string]*template.Template)

	err = walkTemplates(fsys, ".", func(p, key string) error {
		if strings.HasPrefix(key, "shared/") {
			return nil
		}
		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		page, err := root.Clone()
		if err != nil {
			return err
		}
		pages[key], err = page.New(key).Parse(string(content))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("parsing page templates: %w", err)
	}

	return &Store{root: root, pages: pages}, nil
}

func New(dir string) (*Store, error) {
	return NewFS(os.DirFS(dir))
}

func (s *Store) Has(page string) bool {
	_, ok := s.pages[page]
	return ok
}

func (s *Store) Render(w io.Writer, page string, data interface{}) error {
	templ, ok := s.pages[page]
	if !ok {
		return fmt.Errorf("template %s not found", page)
	}
	return templ.Execute(w, data)
}

func walkTemplates(fsys fs.FS, base string, fn func(path, key string) error) error {
	if base != "." {
		if _, err := fs.Stat(fsys, base); err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
	}

	return fs.WalkDir(fsys, base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if p == "." || !d.Type().IsRegular() {
			return nil
		}

		ext := filepath.Ext(d.Name())
		if !slices.Contains(exts, ext) {
			return nil
		}

		return fn(p, strings.TrimSuffix(p, ext))
	})
}
