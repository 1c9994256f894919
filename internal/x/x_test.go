package x

import (
	"fmt"
	"testing"
)

func TestMust(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("The code did not panic")
		}
	}()

	Must(nil)
	Must(fmt.Errorf("test"))
}

func TestRenderBlock(t *testing.T) {
	if RenderBlock("stage", "build") != "stage.build" {
		t.Errorf("RenderBlock not working")
	}
	if RenderBlock("stage") != "stage" {
		t.Errorf("RenderBlock without labels not working")
	}
	if RenderBlock("service", "postgres") != "service.postgres" {
		t.Errorf("RenderBlock not working")
	}
}
