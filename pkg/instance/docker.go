// Package instance provisions self-hosted Search Management Map deployments
// as Docker containers: one PostGIS database and one web server per
// participant, joined by a private bridge network.
package instance

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// NewDockerClient creates a Docker client from the environment.
func NewDockerClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return cli, nil
}

// PullImage pulls an image, draining the progress stream before returning.
func PullImage(ctx context.Context, cli *client.Client, ref string) error {
	reader, err := cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	defer func() {
		_ = reader.Close()
	}()

	buffered := bufio.NewReader(reader)
	for {
		if _, err = buffered.ReadBytes('\n'); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to read pull progress for %s: %w", ref, err)
		}
	}
}
