package ci

const BuilderBlock = "conveyor"

// SupportedVersion is the only pipeline schema version this build understands.
const SupportedVersion = 1

// Builder block, also known as the conveyor block as defined as the BuilderBlock
// constant, determines if a *.hcl file and the directory in which it is placed
// is a conveyor pipeline. If this file was not present, the directory is not a
// conveyor pipeline.
//
// Builder accepts a single argument, which is the version of the pipeline.
// The version is used to determine the behavior of the pipeline configuration,
// i.e. the *.hcl file. The supported value of Version is 1. The Conductor will
// fail abruptly if the version is not supported.
type Builder struct {
	Version int `hcl:"version" json:"version"`
}
