package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/atdiar/reactive"
	"github.com/atdiar/reactive/dom"
	"github.com/goccy/go-json"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"
)

// session is a template bound to the model read from a file.
type session struct {
	modelPath string
	model     *reactive.Model
	view      *reactive.Reactive
}

func open(templatePath, modelPath string) (*session, error) {
	el, err := loadTemplate(templatePath)
	if err != nil {
		return nil, err
	}
	attrs, err := loadModel(modelPath)
	if err != nil {
		return nil, err
	}
	settings := reactive.DefaultSettings
	if settingsPath != "" {
		if settings, err = reactive.LoadSettings(settingsPath); err != nil {
			return nil, err
		}
	}

	model := reactive.NewModel(attrs)
	r, err := reactive.New(el, model,
		reactive.WithView(formatters()),
		reactive.WithSettings(settings),
		reactive.WithLogger(logger),
	)
	if err != nil {
		if strict {
			return nil, err
		}
		logger.Warn("template partially bound", slog.String("template", templatePath), slog.Any("err", err))
	}
	return &session{modelPath: modelPath, model: model, view: r}, nil
}

func (s *session) close() {
	s.view.Destroy()
}

func (s *session) print(w io.Writer) error {
	out := dom.Format(s.view.Element())
	if raw {
		out = dom.OuterHTML(s.view.Element())
	}
	_, err := fmt.Fprintln(w, out)
	return err
}

// reload applies the model file on top of the live model. Lists are patched
// in place; other keys are written only when their value changed.
func (s *session) reload() error {
	attrs, err := loadModel(s.modelPath)
	if err != nil {
		return err
	}
	current := s.model.Attrs()

	keys := make([]string, 0, len(attrs)+len(current))
	for k := range current {
		if _, ok := attrs[k]; !ok {
			keys = append(keys, k)
		}
	}
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		next := attrs[k]
		if l, ok := current[k].(*reactive.List); ok {
			if nl, ok := next.(*reactive.List); ok {
				l.Patch(nl.Items()...)
				continue
			}
		}
		if reflect.DeepEqual(current[k], next) {
			continue
		}
		s.model.Set(k, next)
	}
	return nil
}

func loadTemplate(path string) (*html.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	n, err := dom.Domify(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// loadModel reads a YAML or JSON object. Arrays are turned into lists so that
// the each directives follow later reloads.
func loadModel(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &doc)
	case "json":
		err = json.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("%s: unknown model format", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc == nil {
		doc = make(map[string]any)
	}
	for k, v := range doc {
		doc[k] = listify(v)
	}
	return doc, nil
}

func listify(v any) any {
	switch t := v.(type) {
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = listify(item)
		}
		return reactive.NewList(items...)
	case map[string]any:
		for k, item := range t {
			t[k] = listify(item)
		}
	}
	return v
}

// formatters are available to every template.
func formatters() reactive.View {
	return reactive.View{
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"trim":  strings.TrimSpace,
		"json": func(v any) string {
			data, err := json.Marshal(v)
			if err != nil {
				return ""
			}
			return string(data)
		},
	}
}
