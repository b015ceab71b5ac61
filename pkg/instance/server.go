package instance

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"

	"github.com/searchops/imt-exercises/pkg/smm"
	"github.com/searchops/imt-exercises/pkg/smm/rest"
	"github.com/searchops/imt-exercises/pkg/utils"
)

const (
	smmImage            = "canterburyairpatrol/search-management-map:latest"
	smmInternalPort     = 8080
	smmAdminUsername    = "admin"
	adminPasswordLength = 10
)

// smmReadyMarker is printed by the web server once it accepts requests.
var smmReadyMarker = fmt.Sprintf("http://0.0.0.0:%d", smmInternalPort)

// Server runs one Search Management Map instance: a web container and its
// database server on a private bridge network, with the web interface
// published on a random host port.
type Server struct {
	cli           *client.Client
	name          string
	port          int
	networkID     string
	networkName   string
	postgres      *PostgresServer
	adminPassword string
	containerID   string
}

// NewServer pulls images and creates the database and web containers. Nothing
// is started until Start.
func NewServer(ctx context.Context, cli *client.Client, name string, creds *utils.StringSource) (*Server, error) {
	s := &Server{
		cli:           cli,
		name:          name,
		port:          20000 + rand.Intn(45000),
		networkName:   fmt.Sprintf("%s-net", name),
		adminPassword: creds.RandomLowercase(adminPasswordLength),
	}

	created, err := cli.NetworkCreate(ctx, s.networkName, network.CreateOptions{Driver: "bridge"})
	if err != nil {
		return nil, fmt.Errorf("failed to create network %s: %w", s.networkName, err)
	}
	s.networkID = created.ID

	s.postgres, err = NewPostgresServer(ctx, cli, fmt.Sprintf("%s-db-server", name), s.networkID, "smm", creds)
	if err != nil {
		return nil, err
	}

	if err := PullImage(ctx, cli, smmImage); err != nil {
		return nil, err
	}

	internal := nat.Port(fmt.Sprintf("%d/tcp", smmInternalPort))
	web, err := cli.ContainerCreate(ctx,
		&container.Config{
			Image: smmImage,
			Env: []string{
				fmt.Sprintf("DB_HOST=%s", s.postgres.Name()),
				fmt.Sprintf("DB_PASS=%s", s.postgres.Password()),
				"DB_USER=postgres",
				"DB_NAME=smm",
				fmt.Sprintf("DJANGO_SUPERUSER_USERNAME=%s", smmAdminUsername),
				fmt.Sprintf("DJANGO_SUPERUSER_PASSWORD=%s", s.adminPassword),
				"DJANGO_SUPERUSER_EMAIL=me@example.com",
			},
			ExposedPorts: nat.PortSet{internal: struct{}{}},
		},
		&container.HostConfig{
			PortBindings: nat.PortMap{
				internal: []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: fmt.Sprintf("%d", s.port)}},
			},
		},
		nil, nil, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create smm container %s: %w", name, err)
	}
	s.containerID = web.ID

	if err := cli.NetworkConnect(ctx, s.networkID, s.containerID, &network.EndpointSettings{}); err != nil {
		return nil, fmt.Errorf("failed to attach smm container %s to network: %w", name, err)
	}

	return s, nil
}

// Name is the web container name, which doubles as the host name other
// containers on the instance network use to reach it.
func (s *Server) Name() string {
	return s.name
}

// NetworkID is the ID of the instance's private bridge network.
func (s *Server) NetworkID() string {
	return s.networkID
}

// InternalURL is the address of this instance as seen from containers on the
// instance network.
func (s *Server) InternalURL() string {
	return fmt.Sprintf("http://%s:%d", s.name, smmInternalPort)
}

// BaseURL is the address of this instance as seen from the host.
func (s *Server) BaseURL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// Start starts the database and web containers, waiting for each to report
// ready.
func (s *Server) Start(ctx context.Context) error {
	if err := s.postgres.Start(ctx); err != nil {
		return err
	}
	if err := s.cli.ContainerStart(ctx, s.containerID, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start smm container %s: %w", s.name, err)
	}
	return waitForLog(ctx, s.cli, s.containerID, smmReadyMarker)
}

// Stop stops the web container and then the database. Safe to repeat.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.cli.ContainerStop(ctx, s.containerID, container.StopOptions{}); err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to stop smm container %s: %w", s.name, err)
	}
	return s.postgres.Stop(ctx)
}

// Cleanup stops and removes the containers and the instance network.
// Idempotent.
func (s *Server) Cleanup(ctx context.Context) error {
	if err := s.Stop(ctx); err != nil {
		return err
	}
	if err := s.cli.ContainerRemove(ctx, s.containerID, container.RemoveOptions{}); err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to remove smm container %s: %w", s.name, err)
	}
	if err := s.postgres.Cleanup(ctx); err != nil {
		return err
	}
	if err := s.cli.NetworkRemove(ctx, s.networkID); err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to remove network %s: %w", s.networkName, err)
	}
	return nil
}

// AdminConnect returns a connection authenticated as the instance superuser.
func (s *Server) AdminConnect() smm.Connection {
	return s.Connect(smmAdminUsername, s.adminPassword)
}

// Connect returns a connection authenticated as the given account.
func (s *Server) Connect(username, password string) smm.Connection {
	return rest.NewInstance(s.BaseURL(), smmAdminUsername, s.adminPassword).Connect(username, password)
}

var _ smm.Instance = (*Server)(nil)
