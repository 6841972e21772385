package kbschema

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

// LoadFile reads a class/property catalog from a YAML document on disk
// and builds a Schema from it, the same shape kbconfig.Load reads
// deployment tuning from. The document format mirrors the in-memory
// Class literals the test fixtures build by hand, letting a deployment
// swap in its own catalog without a code change.
func LoadFile(path string) (*Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadBytes(raw)
}

// LoadBytes builds a Schema from an in-memory YAML document, for
// callers (the CLI's bundled fixture) that embed the document rather
// than read it from disk.
func LoadBytes(raw []byte) (*Schema, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	classes := make([]*Class, 0, len(doc.Classes))
	for _, yc := range doc.Classes {
		c := &Class{
			Name:        yc.Name,
			Abstract:    yc.Abstract,
			Embedded:    yc.Embedded,
			Edge:        yc.Edge,
			Inherits:    yc.Inherits,
			SourceModel: yc.SourceModel,
			TargetModel: yc.TargetModel,
		}
		if len(yc.Properties) > 0 {
			c.Properties = make(map[string]*Property, len(yc.Properties))
			for name, yp := range yc.Properties {
				propType, ok := yamlPropertyTypes[yp.Type]
				if !ok {
					return nil, fmt.Errorf("class %q property %q: unknown type %q", yc.Name, name, yp.Type)
				}
				prop := &Property{
					Name:        name,
					Type:        propType,
					LinkedClass: yp.LinkedClass,
					Choices:     yp.Choices,
				}
				if yp.Cast != "" {
					cast, ok := yamlCasts[yp.Cast]
					if !ok {
						return nil, fmt.Errorf("class %q property %q: unknown cast %q", yc.Name, name, yp.Cast)
					}
					prop.Cast = cast
				}
				c.Properties[name] = prop
			}
		}
		classes = append(classes, c)
	}

	return New(classes)
}

type yamlDocument struct {
	Classes []yamlClass `yaml:"classes"`
}

type yamlClass struct {
	Name        string                  `yaml:"name"`
	Abstract    bool                    `yaml:"abstract"`
	Embedded    bool                    `yaml:"embedded"`
	Edge        bool                    `yaml:"edge"`
	Inherits    []string                `yaml:"inherits"`
	SourceModel string                  `yaml:"sourceModel"`
	TargetModel string                  `yaml:"targetModel"`
	Properties  map[string]yamlProperty `yaml:"properties"`
}

type yamlProperty struct {
	Type        string   `yaml:"type"`
	LinkedClass string   `yaml:"linkedClass"`
	Choices     []string `yaml:"choices"`
	Cast        string   `yaml:"cast"`
}

var yamlPropertyTypes = map[string]PropertyType{
	"scalar":      Scalar,
	"link":        Link,
	"linkSet":     LinkSet,
	"embedded":    Embedded,
	"embeddedSet": EmbeddedSet,
}

// yamlCasts is the closed set of named cast functions a YAML document
// can reference by name; CastFunc values themselves are not
// serializable, so the document names one of these instead.
var yamlCasts = map[string]CastFunc{
	"int": castInt,
}

func castInt(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case float64:
		return int(t), nil
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", t)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("cannot cast %T to integer", v)
	}
}
