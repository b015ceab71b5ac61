package exercise

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/searchops/imt-exercises/pkg/config"
	"github.com/searchops/imt-exercises/pkg/logger"
	"github.com/searchops/imt-exercises/pkg/smm"
	"github.com/searchops/imt-exercises/pkg/utils"
)

const (
	// MonitorUsername is the exercise monitor account registered on every
	// participant instance.
	MonitorUsername = "imt-challenge"

	// UmbrellaOrganization is the top-level organization whose members run
	// the incident. It is granted the right to add further organizations to
	// the mission, which is the trigger event for asset activation.
	UmbrellaOrganization = "IMT"
)

// Participant owns one participant's remote instance: the generated monitor
// credential, the status vocabulary handles, the asset set and the baseline
// of mission organizations already observed.
type Participant struct {
	cfg      *config.Exercise
	instance smm.Instance
	creds    CredentialSource
	vehicles VehicleFactory
	log      logger.Logger

	monitorPassword string
	statuses        map[AssetStatus]smm.StatusValue
	assets          map[string]*Asset
	missionID       string
	baseline        []smm.MissionOrganization
}

func newParticipant(cfg *config.Exercise, instance smm.Instance, creds CredentialSource, vehicles VehicleFactory, log logger.Logger) *Participant {
	return &Participant{
		cfg:      cfg,
		instance: instance,
		creds:    creds,
		vehicles: vehicles,
		log:      log,
		statuses: make(map[AssetStatus]smm.StatusValue),
		assets:   make(map[string]*Asset),
	}
}

// provision runs the participant setup sequence. The order matters: the
// monitor account must exist before asset organizations are resolved through
// it, and the status vocabulary must exist before any asset status is set.
func (p *Participant) provision(ctx context.Context) error {
	if err := p.addMonitorLogin(ctx); err != nil {
		return err
	}
	if err := p.setupAssetStatuses(ctx); err != nil {
		return err
	}
	return p.addAssets(ctx)
}

// addMonitorLogin registers the exercise monitor account.
func (p *Participant) addMonitorLogin(ctx context.Context) error {
	p.monitorPassword = p.creds.RandomLowercase(12)

	admin := p.instance.AdminConnect()
	if _, err := admin.CreateUser(ctx, MonitorUsername, p.monitorPassword); err != nil {
		return fmt.Errorf("failed to create monitor account: %w", err)
	}
	return nil
}

// setupAssetStatuses creates the status vocabulary and captures the returned
// value handles.
func (p *Participant) setupAssetStatuses(ctx context.Context) error {
	admin := p.instance.AdminConnect()
	for _, status := range missionAssetStatuses {
		value, err := admin.GetOrCreateAssetStatusValue(ctx, status.String(), status.String())
		if err != nil {
			return fmt.Errorf("failed to create asset status %q: %w", status, err)
		}
		p.statuses[status] = value
	}
	return nil
}

// monitorConnect returns a connection authenticated as the monitor account.
func (p *Participant) monitorConnect() smm.Connection {
	return p.instance.Connect(MonitorUsername, p.monitorPassword)
}

// addAssets registers every configured asset on the instance.
func (p *Participant) addAssets(ctx context.Context) error {
	if len(p.cfg.Assets) == 0 {
		return nil
	}

	admin := p.instance.AdminConnect()
	monitor := p.monitorConnect()
	for _, def := range p.cfg.Assets {
		if err := p.setupAsset(ctx, admin, monitor, def); err != nil {
			return err
		}
	}
	return nil
}

// setupAsset registers one asset: its account, its type, the asset itself,
// and its organization membership. The asset account is first elevated so it
// can register the asset under the organization, then demoted to standard
// membership.
func (p *Participant) setupAsset(ctx context.Context, admin, monitor smm.Connection, def config.Asset) error {
	username := utils.SanitizeAccountName(def.Name)
	password := p.creds.RandomLowercase(10)

	account, err := admin.CreateUser(ctx, username, password)
	if err != nil {
		return fmt.Errorf("failed to create account for asset %s: %w", def.Name, err)
	}

	assetType, err := getOrCreateAssetType(ctx, admin, def.Type)
	if err != nil {
		return err
	}

	remote, err := admin.CreateAsset(ctx, account, def.Name, assetType)
	if err != nil {
		return fmt.Errorf("failed to create asset %s: %w", def.Name, err)
	}

	assetConn := p.instance.Connect(username, password)

	org, err := getOrCreateOrganization(ctx, monitor, def.Organization)
	if err != nil {
		return err
	}
	if err := org.AddMember(ctx, account, smm.RoleAdmin); err != nil {
		return fmt.Errorf("failed to elevate asset account %s: %w", username, err)
	}
	if err := assetConn.Organization(org.ID(), org.Name()).AddAsset(ctx, remote); err != nil {
		return fmt.Errorf("failed to register asset %s under organization %s: %w", def.Name, org.Name(), err)
	}
	if err := org.AddMember(ctx, account, smm.RoleMember); err != nil {
		return fmt.Errorf("failed to demote asset account %s: %w", username, err)
	}

	p.assets[def.Name] = &Asset{
		def:      def,
		username: username,
		password: password,
		account:  account,
		remote:   remote,
		conn:     assetConn,
		statuses: p.statuses,
		vehicles: p.vehicles,
		log:      p.log,
	}
	return nil
}

// CreateMission creates the mission as the monitor account and populates it
// with the configured points of interest and the umbrella organization.
func (p *Participant) CreateMission(ctx context.Context) error {
	monitor := p.monitorConnect()

	mission, err := monitor.CreateMission(ctx, p.cfg.Name, p.cfg.Description)
	if err != nil {
		return fmt.Errorf("failed to create mission: %w", err)
	}
	p.missionID = mission.ID()

	for _, poi := range p.cfg.POIs {
		// A POI without a name or a full location is skipped, not an error.
		if poi.Name == "" || !poi.Location.Complete() {
			continue
		}
		point := orb.Point{*poi.Location.Longitude, *poi.Location.Latitude}
		if err := mission.AddWaypoint(ctx, point, poi.Name); err != nil {
			return fmt.Errorf("failed to add waypoint %s: %w", poi.Name, err)
		}
	}

	orgs, err := monitor.GetOrganizations(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list organizations: %w", err)
	}
	for _, org := range orgs {
		if org.Name() != UmbrellaOrganization {
			continue
		}
		missionOrg, err := mission.AddOrganization(ctx, org)
		if err != nil {
			return fmt.Errorf("failed to add organization %s to mission: %w", org.Name(), err)
		}
		// Members of the umbrella organization add the responding
		// organizations to the mission; that is the trigger event the
		// reconciliation loop watches for.
		if err := missionOrg.SetCanAddOrganizations(ctx, true); err != nil {
			return fmt.Errorf("failed to grant add-organizations to %s: %w", org.Name(), err)
		}
	}

	p.log.Infof("mission %s created", p.missionID)
	return nil
}

// MissionID returns the remote mission id, empty until CreateMission.
func (p *Participant) MissionID() string {
	return p.missionID
}

// Reconcile polls the mission organization list and activates assets whose
// organization has newly appeared. The diff is level-triggered and compares
// by organization name: handles are freshly deserialized every poll, and two
// organizations added between polls are both picked up. Safe to call on
// every tick.
func (p *Participant) Reconcile(ctx context.Context, now time.Time) error {
	if p.missionID == "" {
		return nil
	}

	mission := p.monitorConnect().Mission(p.missionID, p.cfg.Name)
	orgs, err := mission.Organizations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get mission organizations: %w", err)
	}

	if len(orgs) > len(p.baseline) {
		known := make(map[string]bool, len(p.baseline))
		for _, mo := range p.baseline {
			known[mo.OrganizationName()] = true
		}

		added := make(map[string]bool)
		for _, mo := range orgs {
			if !known[mo.OrganizationName()] {
				added[mo.OrganizationName()] = true
				p.log.Infof("organization %s joined the mission", mo.OrganizationName())
			}
		}

		for _, def := range p.cfg.Assets {
			asset := p.assets[def.Name]
			if asset.State() != StateNotAdded || !added[def.Organization] {
				continue
			}
			if err := asset.AddToMission(ctx, p.missionID, p.cfg.Name, now); err != nil {
				return err
			}
		}
	}

	p.baseline = orgs
	return nil
}

// TimeTick runs the time-based evaluation of every asset.
func (p *Participant) TimeTick(ctx context.Context, now time.Time) error {
	for _, def := range p.cfg.Assets {
		if err := p.assets[def.Name].Evaluate(ctx, now); err != nil {
			return err
		}
	}
	return nil
}

// Stop tears down every asset. It keeps going when an asset fails to stop so
// one faulty vehicle cannot block exercise shutdown.
func (p *Participant) Stop(ctx context.Context) error {
	var errs []error
	for _, def := range p.cfg.Assets {
		asset, ok := p.assets[def.Name]
		if !ok {
			continue
		}
		if err := asset.Stop(ctx); err != nil {
			p.log.Errorf("failed to stop asset %s: %v", def.Name, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// getOrCreateAssetType finds the asset type by name, creating it when absent.
// The lookup and create are two calls; a concurrent creator can still race
// this in the window between them.
func getOrCreateAssetType(ctx context.Context, conn smm.Connection, name string) (smm.AssetType, error) {
	types, err := conn.GetAssetTypes(ctx)
	if err != nil {
		return smm.AssetType{}, fmt.Errorf("failed to list asset types: %w", err)
	}
	for _, at := range types {
		if at.Name == name {
			return at, nil
		}
	}

	at, err := conn.CreateAssetType(ctx, name, name)
	if err != nil {
		return smm.AssetType{}, fmt.Errorf("failed to create asset type %s: %w", name, err)
	}
	return at, nil
}

// getOrCreateOrganization finds the organization by name, creating it when
// absent.
func getOrCreateOrganization(ctx context.Context, conn smm.Connection, name string) (smm.Organization, error) {
	orgs, err := conn.GetOrganizations(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	for _, org := range orgs {
		if org.Name() == name {
			return org, nil
		}
	}

	org, err := conn.CreateOrganization(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create organization %s: %w", name, err)
	}
	return org, nil
}
