package meta

var (
	AppVersion = "v0.x"
)

const (
	AppName = "conveyor"

	AppDescription = "A matrix-oriented CI runner which executes Travis-style build pipelines anywhere"

	ConfigFileName = "conveyor.hcl"
	BuildDirPrefix = ".conveyor"

	EnvVarPrefix = "CONVEYOR__"

	OutputEnvFile = ".conveyor.env"
	OutputEnvVar  = "CONVEYOR_OUTPUTS"

	RootStage = "conveyor.root"
)
