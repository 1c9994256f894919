package ci

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/docker/docker/api/types"
	dockerContainer "github.com/docker/docker/api/types/container"
	dockerClient "github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/hashicorp/hcl/v2"
	"github.com/sirupsen/logrus"
	"github.com/zclconf/go-cty/cty"

	"github.com/conveyor-ci/conveyor/internal/runnable"
	"github.com/conveyor-ci/conveyor/internal/ui"
	"github.com/conveyor-ci/conveyor/internal/x"
)

func (s *Stage) executeDocker(conductor *Conductor, evalCtx *hcl.EvalContext, cmd *exec.Cmd, cfg *runnable.Config) hcl.Diagnostics {
	var diags hcl.Diagnostics
	logger := conductor.Logger().WithField("stage", s.Id)

	ctx := conductor.Context()

	image, d := s.hclImage(conductor, evalCtx)
	diags = diags.Extend(d)

	entrypoint, d := s.hclEntrypoint(conductor, evalCtx)
	diags = diags.Extend(d)

	if diags.HasErrors() {
		return diags
	}

	cli, err := dockerClient.NewClientWithOpts(dockerClient.FromEnv, dockerClient.WithAPIVersionNegotiation())
	if err != nil {
		return diags.Append(&hcl.Diagnostic{
			Severity:    hcl.DiagError,
			Summary:     "could not create docker client",
			Detail:      err.Error(),
			Subject:     s.Container.Image.Range().Ptr(),
			EvalContext: evalCtx,
		})
	}
	defer x.Must(cli.Close())

	logger.Debugf("checking if image %s exists", image)
	_, _, err = cli.ImageInspectWithRaw(ctx, image)
	if err != nil {
		logger.Infof("image %s does not exist, pulling...", image)
		reader, err := cli.ImagePull(ctx, image, types.ImagePullOptions{})
		if err != nil {
			return diags.Append(&hcl.Diagnostic{
				Severity:    hcl.DiagError,
				Summary:     "could not pull image",
				Detail:      err.Error(),
				Subject:     s.Container.Image.Range().Ptr(),
				EvalContext: evalCtx,
			})
		}

		pb := ui.NewDockerProgressWriter(reader, logger.Writer(), fmt.Sprintf("pulling image %s", image))
		defer pb.Close()
		defer reader.Close()
		io.Copy(pb, reader)
	}

	binds := []string{
		fmt.Sprintf("%s:/workspace", cmd.Dir),
	}

	for _, m := range s.Container.Volumes {
		conductor.Eval().Mutex().RLock()
		source, d := m.Source.Value(evalCtx)
		conductor.Eval().Mutex().RUnlock()
		diags = diags.Extend(d)

		conductor.Eval().Mutex().RLock()
		dest, d := m.Destination.Value(evalCtx)
		conductor.Eval().Mutex().RUnlock()
		diags = diags.Extend(d)
		if diags.HasErrors() {
			continue
		}
		binds = append(binds, fmt.Sprintf("%s:%s", source.AsString(), dest.AsString()))
	}
	if diags.HasErrors() {
		return diags
	}

	if cfg.Behavior.DryRun {
		fmt.Println(ui.Blue("docker:run.image"), ui.Green(image))
		fmt.Println(ui.Blue("docker:run.workdir"), ui.Green("/workspace"))
		fmt.Println(ui.Blue("docker:run.volume"), ui.Green(cmd.Dir+":/workspace"))
		fmt.Println(ui.Blue("docker:run.args"), ui.Green(cmd.String()))
		return diags
	}

	logger.Trace("creating container")
	resp, err := cli.ContainerCreate(ctx, &dockerContainer.Config{
		Image:      image,
		Cmd:        cmd.Args,
		WorkingDir: "/workspace",
		Volumes: map[string]struct{}{
			"/workspace": {},
		},
		Tty:          true,
		AttachStdout: true,
		AttachStderr: true,
		AttachStdin:  s.Container.Stdin,
		OpenStdin:    s.Container.Stdin,
		StdinOnce:    s.Container.Stdin,
		Entrypoint:   entrypoint,
		Env:          cmd.Env,
	}, &dockerContainer.HostConfig{
		Binds: binds,
	}, nil, nil, "")
	if err != nil {
		return diags.Append(&hcl.Diagnostic{
			Severity:    hcl.DiagError,
			Summary:     "could not create container",
			Detail:      err.Error(),
			Subject:     s.Container.Image.Range().Ptr(),
			EvalContext: evalCtx,
		})
	}

	logger.Trace("starting container")
	if err := cli.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		return diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "could not start container",
			Detail:   err.Error(),
			Subject:  s.Container.Image.Range().Ptr(),
		})
	}
	s.ContainerId = resp.ID

	container, err := cli.ContainerInspect(ctx, resp.ID)
	if err != nil {
		return diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "could not inspect container",
			Detail:   err.Error(),
			Subject:  s.Container.Image.Range().Ptr(),
		})
	}

	responseBody, err := cli.ContainerLogs(ctx, resp.ID, types.ContainerLogsOptions{
		ShowStdout: true, ShowStderr: true,
		Follow: true,
	})
	if err != nil {
		return diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "could not get container logs",
			Detail:   err.Error(),
			Subject:  s.Container.Image.Range().Ptr(),
		})
	}
	defer responseBody.Close()

	if container.Config.Tty {
		_, err = io.Copy(logger.Writer(), responseBody)
	} else {
		_, err = stdcopy.StdCopy(logger.Writer(), logger.WriterLevel(logrus.WarnLevel), responseBody)
	}
	if err != nil && err != io.EOF {
		if errors.Is(err, context.Canceled) {
			return diags
		}
		diags = diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "failed to copy container logs",
			Detail:   err.Error(),
			Subject:  s.Container.Image.Range().Ptr(),
		})
	}

	waitCh, errCh := cli.ContainerWait(ctx, resp.ID, dockerContainer.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		if err != nil {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "failed waiting for container",
				Detail:   err.Error(),
				Subject:  s.Container.Image.Range().Ptr(),
			})
		}
	case status := <-waitCh:
		if status.StatusCode != 0 && !s.AllowFailure {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  fmt.Sprintf("failed to run command (%s)", s.Identifier()),
				Detail:   fmt.Sprintf("container exited with status %d", status.StatusCode),
			})
		}
	}

	logger.Tracef("removing container with id: %s", resp.ID)
	err = cli.ContainerRemove(ctx, resp.ID, types.ContainerRemoveOptions{
		RemoveVolumes: true,
	})
	if err != nil {
		diags = diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "failed to remove container",
			Detail:   err.Error(),
			Subject:  s.Container.Image.Range().Ptr(),
		})
	}

	return diags
}

func (s *Stage) terminateDocker(ctx context.Context) hcl.Diagnostics {
	var diags hcl.Diagnostics
	if ctx == nil {
		ctx = context.Background()
	}
	cli, err := dockerClient.NewClientWithOpts(dockerClient.FromEnv, dockerClient.WithAPIVersionNegotiation())
	if err != nil {
		return diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagWarning,
			Summary:  "could not create docker client",
			Detail:   err.Error(),
		})
	}
	defer cli.Close()
	err = cli.ContainerStop(ctx, s.ContainerId, dockerContainer.StopOptions{})
	if err != nil {
		diags = diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagWarning,
			Summary:  "could not stop container",
			Detail:   err.Error(),
		})
	}
	return diags
}

func (s *Stage) hclImage(conductor *Conductor, evalCtx *hcl.EvalContext) (image string, diags hcl.Diagnostics) {
	conductor.Eval().Mutex().RLock()
	imageRaw, d := s.Container.Image.Value(evalCtx)
	conductor.Eval().Mutex().RUnlock()

	if d.HasErrors() {
		diags = diags.Extend(d)
	} else if imageRaw.Type() != cty.String {
		diags = diags.Append(&hcl.Diagnostic{
			Severity:    hcl.DiagError,
			Summary:     "image must be a string",
			Detail:      fmt.Sprintf("the provided image, was not recognized as a valid string. received image='''%s'''", imageRaw),
			Subject:     s.Container.Image.Range().Ptr(),
			EvalContext: evalCtx,
		})
	} else {
		image = imageRaw.AsString()
	}
	return image, diags
}

func (s *Stage) hclEntrypoint(conductor *Conductor, evalCtx *hcl.EvalContext) ([]string, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	conductor.Eval().Mutex().RLock()
	entrypointRaw, d := s.Container.Entrypoint.Value(evalCtx)
	conductor.Eval().Mutex().RUnlock()

	var entrypoint []string
	if d.HasErrors() {
		diags = diags.Extend(d)
	} else if entrypointRaw.IsNull() {
		entrypoint = nil
	} else if !entrypointRaw.CanIterateElements() {
		diags = diags.Append(&hcl.Diagnostic{
			Severity:    hcl.DiagError,
			Summary:     "entrypoint must be a list of strings",
			Detail:      fmt.Sprintf("the provided entrypoint, was not recognized as a valid string. received entrypoint='''%s'''", entrypointRaw),
			Subject:     s.Container.Entrypoint.Range().Ptr(),
			EvalContext: evalCtx,
		})
	} else {
		v := entrypointRaw.AsValueSlice()
		for _, e := range v {
			entrypoint = append(entrypoint, e.AsString())
		}
	}
	return entrypoint, diags
}
