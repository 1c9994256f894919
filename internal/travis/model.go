package travis

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// StringList accepts either a single YAML scalar or a sequence of
// scalars. Travis allows both forms for every lifecycle key.
type StringList []string

func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v string
		if err := node.Decode(&v); err != nil {
			return err
		}
		*s = StringList{v}
		return nil
	case yaml.SequenceNode:
		var v []string
		if err := node.Decode(&v); err != nil {
			return err
		}
		*s = v
		return nil
	}
	return fmt.Errorf("line %d: expected string or list of strings", node.Line)
}

// Env is the env key of a .travis.yml. Its shorthand form is a plain
// list of matrix entries; the long form splits global from matrix.
type Env struct {
	Global StringList `yaml:"global"`
	Matrix StringList `yaml:"matrix"`
}

func (e *Env) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		type plain Env
		return node.Decode((*plain)(e))
	}
	var matrix StringList
	if err := node.Decode(&matrix); err != nil {
		return err
	}
	e.Matrix = matrix
	return nil
}

// Addons is the addons key, reduced to the database engines Travis
// provisions through it. The value is the requested engine version.
type Addons struct {
	Postgresql string `yaml:"postgresql"`
	Mariadb    string `yaml:"mariadb"`
}

// Config models the subset of .travis.yml the importer understands.
type Config struct {
	Language string     `yaml:"language"`
	Python   StringList `yaml:"python"`

	Env      Env        `yaml:"env"`
	Services StringList `yaml:"services"`
	Addons   Addons     `yaml:"addons"`

	Matrix struct {
		Exclude []map[string]string `yaml:"exclude"`
	} `yaml:"matrix"`

	BeforeInstall StringList `yaml:"before_install"`
	Install       StringList `yaml:"install"`
	BeforeScript  StringList `yaml:"before_script"`
	Script        StringList `yaml:"script"`
	AfterSuccess  StringList `yaml:"after_success"`
	AfterFailure  StringList `yaml:"after_failure"`
}
