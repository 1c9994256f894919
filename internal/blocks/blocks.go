package blocks

const (
	BuilderBlock  = "conveyor"
	StageBlock    = "stage"
	MatrixBlock   = "matrix"
	ServiceBlock  = "service"
	DatabaseBlock = "database"
	CoverageBlock = "coverage"
	VariableBlock = "var"
	EnvBlock      = "env"
	LocalsBlock   = "locals"
	LocalBlock    = "local"

	ThisBlock   = "this"
	OutputBlock = "output"
	JobBlock    = "job"
)
