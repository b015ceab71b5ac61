// Package vehicle runs simulated vehicles as container stacks: an autopilot
// simulator, a telemetry proxy, and a bridge that feeds the participant's
// instance using the asset's own account.
package vehicle

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	"github.com/searchops/imt-exercises/pkg/exercise"
	"github.com/searchops/imt-exercises/pkg/instance"
	"github.com/searchops/imt-exercises/pkg/utils"
)

const (
	mavproxyImage   = "sparlane/mavproxy:latest"
	smmMavlinkImage = "canterburyairpatrol/smm-mavlink:latest"
	batteryCapacity = "100000"
)

func sitlImage(kind exercise.VehicleKind) string {
	return fmt.Sprintf("sparlane/ardupilot-sitl:%s-latest", kind)
}

// Target identifies the instance a factory's vehicles report to.
type Target struct {
	// ServerName is the instance's container name, resolvable from any
	// network in NetworkIDs.
	ServerName string
	// ServerURL is the instance's address as seen from those networks.
	ServerURL string
	// NetworkIDs are the instance-side networks the telemetry bridge joins
	// so it can reach the instance.
	NetworkIDs []string
}

// Factory builds vehicles reporting to one instance.
type Factory struct {
	cli    *client.Client
	target Target
}

// NewFactory creates a factory for the given instance.
func NewFactory(cli *client.Client, target Target) *Factory {
	return &Factory{cli: cli, target: target}
}

var _ exercise.VehicleFactory = (*Factory)(nil)

// NewVehicle creates the container stack for one vehicle. Nothing is started
// until Start.
func (f *Factory) NewVehicle(ctx context.Context, spec exercise.VehicleSpec) (exercise.Vehicle, error) {
	v := &Vehicle{
		cli:    f.cli,
		prefix: fmt.Sprintf("%s_%s", f.target.ServerName, utils.SanitizeAccountName(spec.Name)),
	}
	v.networkName = fmt.Sprintf("ap_%s-net", v.prefix)

	created, err := f.cli.NetworkCreate(ctx, v.networkName, network.CreateOptions{Driver: "bridge"})
	if err != nil {
		return nil, fmt.Errorf("failed to create network %s: %w", v.networkName, err)
	}
	v.networkID = created.ID

	env := []string{
		fmt.Sprintf("LAT=%f", spec.Base.Lat()),
		fmt.Sprintf("LON=%f", spec.Base.Lon()),
		fmt.Sprintf("BATT_CAPACITY=%s", batteryCapacity),
	}

	if v.sitlID, err = f.createOnNetwork(ctx, v, fmt.Sprintf("%s_sitl", v.prefix),
		&container.Config{
			Image: sitlImage(spec.Kind),
			Env:   env,
		},
		&container.HostConfig{}); err != nil {
		return nil, err
	}

	telemetryPort := nat.Port("5761/tcp")
	if v.mavproxyID, err = f.createOnNetwork(ctx, v, fmt.Sprintf("%s_mavproxy", v.prefix),
		&container.Config{
			Image: mavproxyImage,
			Cmd: []string{
				"--non-interactive",
				"--master", fmt.Sprintf("tcp:%s_sitl:5760", v.prefix),
				"--sitl", fmt.Sprintf("%s_sitl:5501", v.prefix),
				"--out", "tcpin:0.0.0.0:5760",
				"--out", "tcpin:0.0.0.0:5761",
			},
			Env:          env,
			ExposedPorts: nat.PortSet{telemetryPort: struct{}{}},
		},
		&container.HostConfig{
			PortBindings: nat.PortMap{
				telemetryPort: []nat.PortBinding{{
					HostIP:   "0.0.0.0",
					HostPort: fmt.Sprintf("%d", 30000+rand.Intn(1000)),
				}},
			},
		}); err != nil {
		return nil, err
	}

	if v.bridgeID, err = f.createOnNetwork(ctx, v, fmt.Sprintf("%s_smm_mavlink", v.prefix),
		&container.Config{
			Image: smmMavlinkImage,
			Cmd: []string{
				fmt.Sprintf("tcp:%s_mavproxy:5760", v.prefix),
				f.target.ServerURL,
				spec.Username,
				spec.Password,
				spec.Name,
			},
		},
		&container.HostConfig{}); err != nil {
		return nil, err
	}
	// The bridge also needs to reach the instance itself.
	for _, netID := range f.target.NetworkIDs {
		if err := f.cli.NetworkConnect(ctx, netID, v.bridgeID, &network.EndpointSettings{}); err != nil {
			return nil, fmt.Errorf("failed to attach %s to instance network: %w", v.prefix, err)
		}
	}

	return v, nil
}

func (f *Factory) createOnNetwork(ctx context.Context, v *Vehicle, name string, cfg *container.Config, host *container.HostConfig) (string, error) {
	if err := instance.PullImage(ctx, f.cli, cfg.Image); err != nil {
		return "", err
	}
	created, err := f.cli.ContainerCreate(ctx, cfg, host, nil, nil, name)
	if err != nil {
		return "", fmt.Errorf("failed to create container %s: %w", name, err)
	}
	if err := f.cli.NetworkConnect(ctx, v.networkID, created.ID, &network.EndpointSettings{}); err != nil {
		return "", fmt.Errorf("failed to attach %s to network %s: %w", name, v.networkName, err)
	}
	return created.ID, nil
}

// Vehicle is one running simulated vehicle.
type Vehicle struct {
	cli         *client.Client
	prefix      string
	networkID   string
	networkName string
	sitlID      string
	mavproxyID  string
	bridgeID    string
}

// Start starts the stack, simulator first so its telemetry endpoints exist
// before the proxy and bridge dial them.
func (v *Vehicle) Start(ctx context.Context) error {
	for _, id := range []string{v.sitlID, v.mavproxyID, v.bridgeID} {
		if err := v.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
			return fmt.Errorf("failed to start vehicle container for %s: %w", v.prefix, err)
		}
	}
	return nil
}

// Stop stops the stack in reverse order, then removes the containers and the
// vehicle network.
func (v *Vehicle) Stop(ctx context.Context) error {
	var errs []error
	for _, id := range []string{v.bridgeID, v.mavproxyID, v.sitlID} {
		if err := v.cli.ContainerStop(ctx, id, container.StopOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop vehicle container for %s: %w", v.prefix, err))
			continue
		}
		if err := v.cli.ContainerRemove(ctx, id, container.RemoveOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove vehicle container for %s: %w", v.prefix, err))
		}
	}
	if len(errs) == 0 {
		if err := v.cli.NetworkRemove(ctx, v.networkID); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove network %s: %w", v.networkName, err))
		}
	}
	return errors.Join(errs...)
}
