package instance

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"

	"github.com/searchops/imt-exercises/pkg/utils"
)

const (
	postgresImage          = "postgis/postgis:17-3.5"
	postgresReadyMarker    = "ready for start up"
	postgresPasswordLength = 10
)

// PostgresServer runs a PostGIS-enabled postgres server in a container.
type PostgresServer struct {
	cli         *client.Client
	name        string
	dbName      string
	password    string
	containerID string
}

// NewPostgresServer pulls the image and creates the container attached to the
// given network. The container is not started.
func NewPostgresServer(ctx context.Context, cli *client.Client, name, networkID, dbName string, creds *utils.StringSource) (*PostgresServer, error) {
	p := &PostgresServer{
		cli:      cli,
		name:     name,
		dbName:   dbName,
		password: creds.RandomLowercase(postgresPasswordLength),
	}

	if err := PullImage(ctx, cli, postgresImage); err != nil {
		return nil, err
	}

	created, err := cli.ContainerCreate(ctx,
		&container.Config{
			Image: postgresImage,
			Env: []string{
				fmt.Sprintf("POSTGRES_PASSWORD=%s", p.password),
				fmt.Sprintf("POSTGRES_DB=%s", p.dbName),
			},
		},
		&container.HostConfig{},
		nil, nil, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres container %s: %w", name, err)
	}
	p.containerID = created.ID

	if err := cli.NetworkConnect(ctx, networkID, p.containerID, &network.EndpointSettings{}); err != nil {
		return nil, fmt.Errorf("failed to attach postgres container %s to network: %w", name, err)
	}

	return p, nil
}

// Name is the container name, which doubles as the database host name on the
// shared network.
func (p *PostgresServer) Name() string {
	return p.name
}

// Password is the generated superuser password.
func (p *PostgresServer) Password() string {
	return p.password
}

// Start starts the container and waits until postgres reports ready.
func (p *PostgresServer) Start(ctx context.Context) error {
	if err := p.cli.ContainerStart(ctx, p.containerID, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start postgres container %s: %w", p.name, err)
	}
	return waitForLog(ctx, p.cli, p.containerID, postgresReadyMarker)
}

// Stop stops the container. Safe to repeat; stopping a stopped or already
// removed container is not an error.
func (p *PostgresServer) Stop(ctx context.Context) error {
	if err := p.cli.ContainerStop(ctx, p.containerID, container.StopOptions{}); err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to stop postgres container %s: %w", p.name, err)
	}
	return nil
}

// Cleanup stops and removes the container. Idempotent.
func (p *PostgresServer) Cleanup(ctx context.Context) error {
	if err := p.Stop(ctx); err != nil {
		return err
	}
	if err := p.cli.ContainerRemove(ctx, p.containerID, container.RemoveOptions{}); err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to remove postgres container %s: %w", p.name, err)
	}
	return nil
}
