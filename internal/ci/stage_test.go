package ci

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStage_Description(t *testing.T) {
	stage := Stage{}
	assert.Equal(t, stage.Description().Description, "")
}

func TestStage_Type(t *testing.T) {
	stage := Stage{Id: "test"}
	assert.Equal(t, stage.Type(), "stage")
	assert.Equal(t, stage.Identifier(), "stage.test")
}

func TestStage_IsDaemon(t *testing.T) {
	stage := Stage{}
	assert.False(t, stage.IsDaemon())
}

func TestService_IsDaemon(t *testing.T) {
	service := Service{Id: "postgres"}
	assert.True(t, service.IsDaemon())
	assert.Equal(t, service.Identifier(), "service.postgres")
}
