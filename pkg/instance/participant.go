package instance

import (
	"context"
	"fmt"

	"github.com/docker/docker/client"
	"github.com/google/uuid"

	"github.com/searchops/imt-exercises/pkg/config"
	"github.com/searchops/imt-exercises/pkg/exercise"
	"github.com/searchops/imt-exercises/pkg/logger"
	"github.com/searchops/imt-exercises/pkg/smm"
	"github.com/searchops/imt-exercises/pkg/utils"
)

// Participant provisions and owns the instance for one participating
// organization: its containers plus the initial member accounts from the
// participant document.
type Participant struct {
	cfg    config.Participant
	cli    *client.Client
	creds  *utils.StringSource
	server *Server
}

// NewParticipant prepares a participant from its document.
func NewParticipant(cfg config.Participant, cli *client.Client, creds *utils.StringSource) *Participant {
	return &Participant{cfg: cfg, cli: cli, creds: creds}
}

// Name is the participant's organization name.
func (p *Participant) Name() string {
	return p.cfg.Name
}

// Server returns the provisioned instance, or nil before Start.
func (p *Participant) Server() *Server {
	return p.server
}

// Start provisions and starts this participant's instance. The container
// names carry a unique suffix so repeated runs on one host do not collide.
func (p *Participant) Start(ctx context.Context) error {
	name := fmt.Sprintf("%s-smm-%s", utils.SanitizeAccountName(p.cfg.Name), uuid.NewString()[:8])
	logger.Infof("provisioning instance %s for %s", name, p.cfg.Name)

	server, err := NewServer(ctx, p.cli, name, p.creds)
	if err != nil {
		return fmt.Errorf("failed to provision instance for %s: %w", p.cfg.Name, err)
	}
	p.server = server

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start instance for %s: %w", p.cfg.Name, err)
	}
	logger.Infof("instance for %s ready at %s", p.cfg.Name, server.BaseURL())
	return nil
}

// Setup creates the umbrella organization and the initial member accounts on
// the freshly started instance.
func (p *Participant) Setup(ctx context.Context) error {
	admin := p.server.AdminConnect()

	org, err := admin.CreateOrganization(ctx, exercise.UmbrellaOrganization)
	if err != nil {
		return fmt.Errorf("failed to create organization %s for %s: %w",
			exercise.UmbrellaOrganization, p.cfg.Name, err)
	}

	for _, member := range p.cfg.Members {
		user, err := admin.CreateUser(ctx, member.Username, member.Password)
		if err != nil {
			return fmt.Errorf("failed to create account %s for %s: %w",
				member.Username, p.cfg.Name, err)
		}
		if err := org.AddMember(ctx, user, smm.RoleMember); err != nil {
			return fmt.Errorf("failed to add %s to %s for %s: %w",
				member.Username, exercise.UmbrellaOrganization, p.cfg.Name, err)
		}
	}
	return nil
}

// Stop stops this participant's containers.
func (p *Participant) Stop(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	return p.server.Stop(ctx)
}

// Cleanup removes this participant's containers and network.
func (p *Participant) Cleanup(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	return p.server.Cleanup(ctx)
}
