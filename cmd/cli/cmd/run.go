package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/searchops/imt-exercises/pkg/config"
	"github.com/searchops/imt-exercises/pkg/exercise"
	"github.com/searchops/imt-exercises/pkg/instance"
	"github.com/searchops/imt-exercises/pkg/logger"
	"github.com/searchops/imt-exercises/pkg/smm/rest"
	"github.com/searchops/imt-exercises/pkg/utils"
	"github.com/searchops/imt-exercises/pkg/vehicle"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an exercise",
	Long: `Run an exercise: provision an instance per participant (or attach to an
already-running deployment), publish the mission, and keep polling until the
exercise ends or is interrupted.`,
	RunE: runExercise,
}

var (
	exercisePath     string
	participantPaths []string
	attachURL        string
	adminUser        string
	runDuration      time.Duration
	tickInterval     time.Duration
	assumeYes        bool
	keepContainers   bool
)

func init() {
	runCmd.Flags().StringVarP(&exercisePath, "exercise", "e", "", "exercise document (YAML or JSON)")
	runCmd.Flags().StringArrayVarP(&participantPaths, "participant", "p", nil, "participant document, repeatable")
	runCmd.Flags().StringVar(&attachURL, "attach", "", "attach to an already-running instance at this URL instead of provisioning")
	runCmd.Flags().StringVar(&adminUser, "admin-user", "admin", "administrator account for --attach")
	runCmd.Flags().DurationVar(&runDuration, "duration", 0, "stop the exercise after this long (0 runs until interrupted)")
	runCmd.Flags().DurationVar(&tickInterval, "tick", time.Second, "poll interval")
	runCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
	runCmd.Flags().BoolVar(&keepContainers, "keep", false, "leave provisioned containers running after the exercise")
	_ = runCmd.MarkFlagRequired("exercise")
}

func runExercise(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadExercise(exercisePath)
	if err != nil {
		return fmt.Errorf("failed to load exercise: %w", err)
	}

	if attachURL == "" && len(participantPaths) == 0 {
		return fmt.Errorf("either --participant or --attach is required")
	}

	runner, err := exercise.New(cfg)
	if err != nil {
		return err
	}

	if !assumeYes {
		confirmed := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Start exercise %q with %d asset(s)?", cfg.Name, len(cfg.Assets)),
			Default: true,
		}
		if err := survey.AskOne(prompt, &confirmed); err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Warn("Received interrupt signal, stopping exercise...")
		cancel()
	}()

	var hosts []*instance.Participant
	if attachURL != "" {
		if err := attachInstance(ctx, runner); err != nil {
			return err
		}
	} else {
		hosts, err = provisionParticipants(ctx, runner)
		if err != nil {
			teardown(hosts)
			return err
		}
	}
	defer teardown(hosts)

	logger.LogSection(fmt.Sprintf("Starting %s", cfg.Name))
	if err := runner.CreateMission(ctx); err != nil {
		return fmt.Errorf("failed to create mission: %w", err)
	}
	logger.Success("Mission published, waiting for participants")

	if runDuration > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, runDuration)
		defer cancelTimeout()
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Progress("Stopping exercise...")
			if err := runner.Stop(context.Background()); err != nil {
				logger.Errorf("failed to stop cleanly: %v", err)
			}
			logger.Success("Exercise stopped")
			return nil
		case <-ticker.C:
			// A failed poll is not fatal; the next tick retries the same
			// level-triggered reconciliation.
			if err := runner.Tick(ctx); err != nil && ctx.Err() == nil {
				logger.Errorf("tick failed: %v", err)
			}
		}
	}
}

// attachInstance registers an externally managed deployment with the runner.
func attachInstance(ctx context.Context, runner *exercise.Runner) error {
	parsed, err := url.Parse(attachURL)
	if err != nil {
		return fmt.Errorf("invalid --attach URL: %w", err)
	}

	password := os.Getenv("SMM_ADMIN_PASSWORD")
	if password == "" {
		fmt.Printf("Password for %s on %s: ", adminUser, attachURL)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	}

	cli, err := instance.NewDockerClient()
	if err != nil {
		return err
	}

	remote := rest.NewInstance(attachURL, adminUser, password)
	vehicles := vehicle.NewFactory(cli, vehicle.Target{
		ServerName: utils.SanitizeAccountName(parsed.Host),
		ServerURL:  attachURL,
	})
	return runner.AddParticipant(ctx, remote, vehicles)
}

// provisionParticipants brings up one instance per participant document and
// registers each with the runner. On error the already-provisioned hosts are
// returned so the caller can tear them down.
func provisionParticipants(ctx context.Context, runner *exercise.Runner) ([]*instance.Participant, error) {
	cli, err := instance.NewDockerClient()
	if err != nil {
		return nil, err
	}

	creds := utils.NewDefaultStringSource()
	var hosts []*instance.Participant
	for _, path := range participantPaths {
		pcfg, err := config.LoadParticipant(path)
		if err != nil {
			return hosts, fmt.Errorf("failed to load participant: %w", err)
		}

		host := instance.NewParticipant(*pcfg, cli, creds)
		if err := host.Start(ctx); err != nil {
			return hosts, err
		}
		hosts = append(hosts, host)
		if err := host.Setup(ctx); err != nil {
			return hosts, err
		}

		server := host.Server()
		vehicles := vehicle.NewFactory(cli, vehicle.Target{
			ServerName: server.Name(),
			ServerURL:  server.InternalURL(),
			NetworkIDs: []string{server.NetworkID()},
		})
		if err := runner.AddParticipant(ctx, server, vehicles); err != nil {
			return hosts, err
		}
	}
	return hosts, nil
}

// teardown stops the provisioned instances after the exercise ends. It uses a
// fresh context so cleanup still runs after an interrupt.
func teardown(hosts []*instance.Participant) {
	ctx := context.Background()
	for _, host := range hosts {
		if keepContainers {
			logger.Infof("leaving instance for %s running at %s", host.Name(), host.Server().BaseURL())
			continue
		}
		if err := host.Cleanup(ctx); err != nil {
			logger.Errorf("failed to clean up instance for %s: %v", host.Name(), err)
		}
	}
}
