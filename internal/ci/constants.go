package ci

import "github.com/conveyor-ci/conveyor/internal/blocks"

const (
	ThisBlock   = blocks.ThisBlock
	OutputBlock = blocks.OutputBlock
)
