package instance

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

const readinessMaxAttempts = 120

// linearBackOff waits one step longer after every attempt.
type linearBackOff struct {
	step time.Duration
	next time.Duration
}

func newLinearBackOff(step time.Duration) *linearBackOff {
	return &linearBackOff{step: step, next: step}
}

func (b *linearBackOff) NextBackOff() time.Duration {
	d := b.next
	b.next += b.step
	return d
}

func (b *linearBackOff) Reset() {
	b.next = b.step
}

// waitForLog polls a container's log until the marker appears, backing off
// linearly between attempts. Running out of attempts is an error; a service
// that never reports ready must not hang the exercise silently.
func waitForLog(ctx context.Context, cli *client.Client, containerID, marker string) error {
	check := func() error {
		logs, err := cli.ContainerLogs(ctx, containerID, container.LogsOptions{
			ShowStdout: true,
			ShowStderr: true,
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = logs.Close()
		}()

		data, err := io.ReadAll(logs)
		if err != nil {
			return err
		}
		if !strings.Contains(string(data), marker) {
			return fmt.Errorf("marker %q not seen yet", marker)
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newLinearBackOff(time.Second), readinessMaxAttempts),
		ctx,
	)
	if err := backoff.Retry(check, policy); err != nil {
		return fmt.Errorf("container %s did not become ready: %w", containerID, err)
	}
	return nil
}
