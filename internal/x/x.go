package x

import "fmt"

// Must panics if err is not nil. Use only for errors which indicate
// a programming mistake, never for user input.
func Must(err error) {
	if err != nil {
		panic(err)
	}
}

func MustReturn(v interface{}, err error) interface{} {
	Must(err)
	return v
}

// RenderBlock joins a block type and its labels into the dotted
// address used across diagnostics and the dependency graph,
// e.g. RenderBlock("stage", "build") == "stage.build"
func RenderBlock(blockType string, labels ...string) string {
	s := blockType
	for _, label := range labels {
		s = fmt.Sprintf("%s.%s", s, label)
	}
	return s
}
