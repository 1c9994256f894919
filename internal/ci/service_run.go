package ci

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/docker/docker/api/types"
	dockerContainer "github.com/docker/docker/api/types/container"
	dockerClient "github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/conveyor-ci/conveyor/internal/blocks"
	"github.com/conveyor-ci/conveyor/internal/runnable"
	"github.com/conveyor-ci/conveyor/internal/ui"
	"github.com/conveyor-ci/conveyor/internal/x"
)

func (s *Service) Prepare(conductor *Conductor, skip bool, overridden bool) hcl.Diagnostics {
	logger := conductor.Logger().WithField("service", s.Id)
	if skip {
		logger.Infof("%s", ui.Grey("skipped"))
	} else {
		logger.Infof("%s", ui.Grey("starting"))
	}
	return nil
}

func (s *Service) CanRun(conductor *Conductor, options ...runnable.Option) (bool, hcl.Diagnostics) {
	return true, nil
}

func (s *Service) Run(conductor *Conductor, options ...runnable.Option) hcl.Diagnostics {
	var diags hcl.Diagnostics
	logger := conductor.Logger().WithField("service", s.Id)
	cfg := runnable.NewConfig(options...)
	ctx := conductor.Context()

	evalCtx := conductor.Eval().Context()

	conductor.Eval().Mutex().RLock()
	imageRaw, d := s.Image.Value(evalCtx)
	conductor.Eval().Mutex().RUnlock()
	diags = diags.Extend(d)
	if diags.HasErrors() {
		return diags
	}
	if imageRaw.Type() != cty.String {
		return diags.Append(&hcl.Diagnostic{
			Severity:    hcl.DiagError,
			Summary:     "image must be a string",
			Detail:      fmt.Sprintf("the provided image, was not recognized as a valid string. received image='''%s'''", imageRaw),
			Subject:     s.Image.Range().Ptr(),
			EvalContext: evalCtx,
		})
	}
	image := imageRaw.AsString()

	environment, d := s.Environment.Evaluate(conductor, evalCtx)
	diags = diags.Extend(d)
	if diags.HasErrors() {
		return diags
	}

	if cfg.Behavior.DryRun {
		fmt.Println(ui.Blue("service:start"), ui.Green(image))
		for k, v := range environment {
			fmt.Println(ui.Blue("service:env"), ui.Green(fmt.Sprintf("%s=%s", k, v)))
		}
		s.publish(conductor, "127.0.0.1", fmt.Sprintf("%d", s.Port))
		return diags
	}

	cli, err := dockerClient.NewClientWithOpts(dockerClient.FromEnv, dockerClient.WithAPIVersionNegotiation())
	if err != nil {
		return diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "could not create docker client",
			Detail:   err.Error(),
			Subject:  s.Image.Range().Ptr(),
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
				Severity: hcl.DiagError,
				Summary:  "could not pull image",
				Detail:   err.Error(),
				Subject:  s.Image.Range().Ptr(),
			})
		}
		pb := ui.NewDockerProgressWriter(reader, logger.Writer(), fmt.Sprintf("pulling image %s", image))
		io.Copy(pb, reader)
		pb.Close()
		reader.Close()
	}

	var env []string
	for k, v := range environment {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	containerCfg := &dockerContainer.Config{
		Image: image,
		Env:   env,
	}
	hostCfg := &dockerContainer.HostConfig{}
	if s.Port != 0 {
		port, err := nat.NewPort("tcp", fmt.Sprintf("%d", s.Port))
		if err != nil {
			return diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "invalid service port",
				Detail:   err.Error(),
			})
		}
		containerCfg.ExposedPorts = nat.PortSet{port: struct{}{}}
		hostCfg.PortBindings = nat.PortMap{
			port: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: ""}},
		}
	}

	resp, err := cli.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, "")
	if err != nil {
		return diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "could not create service container",
			Detail:   err.Error(),
			Subject:  s.Image.Range().Ptr(),
		})
	}
	s.containerId = resp.ID

	if err := cli.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		return diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "could not start service container",
			Detail:   err.Error(),
			Subject:  s.Image.Range().Ptr(),
		})
	}

	host := "127.0.0.1"
	hostPort := ""
	if s.Port != 0 {
		container, err := cli.ContainerInspect(ctx, resp.ID)
		if err != nil {
			return diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "could not inspect service container",
				Detail:   err.Error(),
			})
		}
		port := nat.Port(fmt.Sprintf("%d/tcp", s.Port))
		bindings := container.NetworkSettings.Ports[port]
		if len(bindings) == 0 {
			return diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "service port not bound",
				Detail:   fmt.Sprintf("no host binding for %s on %s", port, s.Identifier()),
			})
		}
		hostPort = bindings[0].HostPort
		s.hostPort = hostPort

		d := s.waitReady(ctx, logger, host, hostPort)
		diags = diags.Extend(d)
		if diags.HasErrors() {
			return diags
		}
	}

	s.publish(conductor, host, hostPort)
	logger.Infof("ready on %s:%s", host, hostPort)
	return diags
}

// waitReady dials the published port until the service accepts a
// connection or the timeout expires.
func (s *Service) waitReady(ctx context.Context, logger interface{ Debugf(string, ...interface{}) }, host, port string) hcl.Diagnostics {
	var diags hcl.Diagnostics
	timeout := s.ReadyTimeout
	if timeout == 0 {
		timeout = DefaultServiceReadyTimeout
	}
	deadline := time.Now().Add(time.Duration(timeout) * time.Second)
	addr := net.JoinHostPort(host, port)
	for {
		if time.Now().After(deadline) {
			return diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "service did not become ready",
				Detail:   fmt.Sprintf("%s did not accept connections on %s within %ds", s.Identifier(), addr, timeout),
			})
		}
		select {
		case <-ctx.Done():
			return diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "cancelled",
				Detail:   fmt.Sprintf("cancelled while waiting for %s", s.Identifier()),
			})
		default:
		}
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err == nil {
			conn.Close()
			return diags
		}
		logger.Debugf("waiting for %s: %s", addr, err)
		time.Sleep(500 * time.Millisecond)
	}
}

// publish exposes the service address under service.<id> in the shared
// evaluation context.
func (s *Service) publish(conductor *Conductor, host, port string) {
	conductor.Eval().Mutex().Lock()
	defer conductor.Eval().Mutex().Unlock()

	evalCtx := conductor.Eval().Context()
	services := map[string]cty.Value{}
	if existing, ok := evalCtx.Variables[blocks.ServiceBlock]; ok && !existing.IsNull() {
		for k, v := range existing.AsValueMap() {
			services[k] = v
		}
	}
	services[s.Id] = cty.ObjectVal(map[string]cty.Value{
		"host": cty.StringVal(host),
		"port": cty.StringVal(port),
	})
	evalCtx.Variables[blocks.ServiceBlock] = cty.ObjectVal(services)
}

func (s *Service) HostPort() string {
	return s.hostPort
}

func (s *Service) Terminate(safe bool) hcl.Diagnostics {
	var diags hcl.Diagnostics
	if s.terminated || s.containerId == "" {
		s.terminated = true
		return diags
	}
	s.terminated = true

	ctx := context.Background()
	cli, err := dockerClient.NewClientWithOpts(dockerClient.FromEnv, dockerClient.WithAPIVersionNegotiation())
	if err != nil {
		return diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagWarning,
			Summary:  "could not create docker client",
			Detail:   err.Error(),
		})
	}
	defer cli.Close()

	if err := cli.ContainerStop(ctx, s.containerId, dockerContainer.StopOptions{}); err != nil {
		diags = diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagWarning,
			Summary:  "could not stop service container",
			Detail:   err.Error(),
		})
	}
	if err := cli.ContainerRemove(ctx, s.containerId, types.ContainerRemoveOptions{RemoveVolumes: true}); err != nil {
		diags = diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagWarning,
			Summary:  "could not remove service container",
			Detail:   err.Error(),
		})
	}
	return diags
}

func (s *Service) Kill() hcl.Diagnostics {
	return s.Terminate(false)
}

func (s *Service) Terminated() bool {
	return s.terminated
}
