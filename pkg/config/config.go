// Package config defines the exercise and participant documents and their
// loaders. Documents are YAML or JSON, decided by file extension.
package config

import (
	"fmt"
)

// Exercise is the top-level exercise document. It is loaded once and treated
// as immutable for the run.
type Exercise struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	POIs        []POI   `yaml:"POIs,omitempty" json:"POIs,omitempty"`
	Assets      []Asset `yaml:"assets,omitempty" json:"assets,omitempty"`
}

// POI is an exercise point of interest. Name and Location are both optional;
// a POI missing either is skipped when the mission is populated, not
// rejected at load.
type POI struct {
	Name     string    `yaml:"name,omitempty" json:"name,omitempty"`
	Location *Location `yaml:"location,omitempty" json:"location,omitempty"`
}

// Location is a geographic position. Latitude and longitude are pointers so
// an absent coordinate can be told apart from zero.
type Location struct {
	Latitude  *float64 `yaml:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64 `yaml:"longitude,omitempty" json:"longitude,omitempty"`
}

// Complete reports whether both coordinates are present.
func (l *Location) Complete() bool {
	return l != nil && l.Latitude != nil && l.Longitude != nil
}

// Asset is one configured asset definition.
type Asset struct {
	Name             string   `yaml:"name" json:"name"`
	Type             string   `yaml:"type" json:"type"`
	Organization     string   `yaml:"organization" json:"organization"`
	BaseLocation     Location `yaml:"baseLocation" json:"baseLocation"`
	ResponseTimeMins int      `yaml:"responseTimeMins" json:"responseTimeMins"`
}

// Participant is a participant document: the organization running one
// instance and its initial member accounts.
type Participant struct {
	Name    string   `yaml:"name" json:"name"`
	Members []Member `yaml:"members" json:"members"`
}

// Member is one initial account on a participant's instance.
type Member struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Validate checks that the exercise document carries every required field.
func (e *Exercise) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("exercise name is required")
	}
	if e.Description == "" {
		return fmt.Errorf("exercise description is required")
	}

	for i, asset := range e.Assets {
		if asset.Name == "" {
			return fmt.Errorf("asset %d: name is required", i)
		}
		if asset.Type == "" {
			return fmt.Errorf("asset %s: type is required", asset.Name)
		}
		if asset.Organization == "" {
			return fmt.Errorf("asset %s: organization is required", asset.Name)
		}
		if !asset.BaseLocation.Complete() {
			return fmt.Errorf("asset %s: base location requires latitude and longitude", asset.Name)
		}
		if asset.ResponseTimeMins < 0 {
			return fmt.Errorf("asset %s: response time must not be negative", asset.Name)
		}
	}

	return nil
}

// Validate checks that the participant document carries every required field.
func (p *Participant) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("participant name is required")
	}
	for i, member := range p.Members {
		if member.Username == "" {
			return fmt.Errorf("member %d: username is required", i)
		}
		if member.Password == "" {
			return fmt.Errorf("member %s: password is required", member.Username)
		}
	}
	return nil
}
