package macro

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ExpandFunc expands a template string into its final value.
type ExpandFunc func(template string) (string, error)

// Error is returned when a template cannot be expanded.
type Error struct {
	Template string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("expanding %q: %v", e.Template, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Expander substitutes {NAME} and ${NAME} tokens with run-scoped variables.
// Spans enclosed in {{ }} are evaluated as Go templates against the same variables.
type Expander struct {
	vars map[string]string
}

func New(vars map[string]string) *Expander {
	e := &Expander{vars: map[string]string{}}
	for k, v := range vars {
		e.vars[k] = v
	}
	return e
}

func (e *Expander) Set(name, value string) {
	e.vars[name] = value
}

func (e *Expander) Get(name string) (string, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Names returns the sorted variable names.
func (e *Expander) Names() []string {
	names := make([]string, 0, len(e.vars))
	for k := range e.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (e *Expander) Expand(text string) (string, error) {
	if !strings.Contains(text, "{") {
		return text, nil
	}

	tpl, err := toTemplate(text)
	if err != nil {
		return "", &Error{Template: text, Err: err}
	}

	data := make(map[string]interface{}, len(e.vars))
	for k, v := range e.vars {
		data[k] = v
	}

	res, err := Render(text, tpl, data)
	if err != nil {
		return "", &Error{Template: text, Err: err}
	}

	return res, nil
}

func Render(name, text string, data interface{}) (string, error) {
	funcs := map[string]interface{}{}
	tpl := template.New(name).Option("missingkey=error").Funcs(funcs)
	tpl, err := tpl.Parse(text)
	if err != nil {
		return "", err
	}
	buf := &bytes.Buffer{}
	if err := tpl.Execute(buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
