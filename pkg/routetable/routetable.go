// Package routetable loads route definitions from YAML documents.
//
// A route table looks like:
//
//	routes:
//	  - path: /
//	    name: home
//	    component: Home
//	    children:
//	      - path: users
//	        name: users
//	        component: UserList
//	        meta:
//	          auth: true
//	  - path: /old
//	    redirect: /users
//
// Components are referenced by name; the definitions produced by a table
// carry those names as their components.
package routetable

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/route"
)

// Table is a decoded route table.
type Table struct {
	Routes []Entry `yaml:"routes"`
}

// Entry is one route of a table.
type Entry struct {
	Path       string            `yaml:"path"`
	Name       string            `yaml:"name,omitempty"`
	Component  string            `yaml:"component,omitempty"`
	Components map[string]string `yaml:"components,omitempty"`
	Meta       map[string]any    `yaml:"meta,omitempty"`
	Redirect   string            `yaml:"redirect,omitempty"`
	Children   []Entry           `yaml:"children,omitempty"`
}

// ObjectGetter is the part of the S3 client LoadS3 uses. *s3.Client
// implements it.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Load decodes and validates a table. Unknown fields are rejected.
func Load(r io.Reader) (*Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var t Table
	if err := dec.Decode(&t); err != nil && err != io.EOF {
		return nil, errors.New("W302").Wrap(err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadFile loads a table from a file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("W302").WithDetailf("reading %s", path).Wrap(err)
	}
	return Load(bytes.NewReader(data))
}

// LoadS3 loads a table stored at bucket/key.
func LoadS3(ctx context.Context, client ObjectGetter, bucket, key string) (*Table, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.New("W303").WithDetailf("s3://%s/%s", bucket, key).Wrap(err)
	}
	defer out.Body.Close()

	return Load(out.Body)
}

// Validate checks the structure of the table. Path and name uniqueness are
// checked when the definitions are registered.
func (t *Table) Validate() error {
	for i, e := range t.Routes {
		if e.Path == "" || e.Path[0] != '/' {
			return errors.New("W301").WithDetailf("routes[%d]: root path %q must start with \"/\"", i, e.Path)
		}
		if err := e.validate(fmt.Sprintf("routes[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func (e Entry) validate(at string) error {
	if e.Component != "" && e.Components[route.DefaultView] != "" && e.Component != e.Components[route.DefaultView] {
		return errors.New("W301").WithDetailf("%s: component and components.default disagree", at)
	}
	for i, c := range e.Children {
		if c.Path == "" && len(c.Children) == 0 && c.Redirect == "" && c.Component == "" && len(c.Components) == 0 {
			return errors.New("W301").WithDetailf("%s.children[%d]: empty route", at, i)
		}
		if err := c.validate(fmt.Sprintf("%s.children[%d]", at, i)); err != nil {
			return err
		}
	}
	return nil
}

// Definitions converts the table into route definitions.
func (t *Table) Definitions() []route.Definition {
	defs := make([]route.Definition, len(t.Routes))
	for i, e := range t.Routes {
		defs[i] = e.definition()
	}
	return defs
}

func (e Entry) definition() route.Definition {
	def := route.Definition{
		Path:     e.Path,
		Name:     e.Name,
		Meta:     e.Meta,
		Redirect: e.Redirect,
	}
	if e.Component != "" {
		def.Component = e.Component
	}
	if len(e.Components) > 0 {
		def.Components = make(map[string]any, len(e.Components))
		for view, name := range e.Components {
			def.Components[view] = name
		}
	}
	for _, c := range e.Children {
		def.Children = append(def.Children, c.definition())
	}
	return def
}

// FromDefinitions builds a table from definitions. Components are written by
// name: strings as-is, other values by their type name. Guards are dropped.
func FromDefinitions(defs []route.Definition) *Table {
	t := &Table{Routes: make([]Entry, len(defs))}
	for i, def := range defs {
		t.Routes[i] = entryFor(def)
	}
	return t
}

func entryFor(def route.Definition) Entry {
	e := Entry{
		Path:      def.Path,
		Name:      def.Name,
		Component: componentName(def.Component),
		Meta:      def.Meta,
		Redirect:  def.Redirect,
	}
	if len(def.Components) > 0 {
		e.Components = make(map[string]string, len(def.Components))
		for view, c := range def.Components {
			e.Components[view] = componentName(c)
		}
	}
	for _, c := range def.Children {
		e.Children = append(e.Children, entryFor(c))
	}
	return e
}

func componentName(c any) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Encode writes the table as YAML.
func (t *Table) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return err
	}
	return enc.Close()
}
