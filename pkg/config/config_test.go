package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadExercise(t *testing.T) {
	exercise, err := LoadExercise("testdata/exercise.yaml")
	if err != nil {
		t.Fatalf("Failed to load exercise: %v", err)
	}

	if exercise.Name != "Alpine Search 2026" {
		t.Errorf("Expected exercise name 'Alpine Search 2026', got '%s'", exercise.Name)
	}

	if len(exercise.POIs) != 3 {
		t.Fatalf("Expected 3 POIs, got %d", len(exercise.POIs))
	}

	if !exercise.POIs[0].Location.Complete() {
		t.Errorf("Expected first POI location to be complete")
	}

	// The unplotted report has no location at all
	if exercise.POIs[2].Location.Complete() {
		t.Errorf("Expected POI without location to be incomplete")
	}

	if len(exercise.Assets) != 2 {
		t.Fatalf("Expected 2 assets, got %d", len(exercise.Assets))
	}

	asset := exercise.Assets[0]
	if asset.Name != "Rescue-1" {
		t.Errorf("Expected asset name 'Rescue-1', got '%s'", asset.Name)
	}
	if asset.Type != "Aircraft" {
		t.Errorf("Expected asset type 'Aircraft', got '%s'", asset.Type)
	}
	if asset.Organization != "Alpha" {
		t.Errorf("Expected asset organization 'Alpha', got '%s'", asset.Organization)
	}
	if asset.ResponseTimeMins != 1 {
		t.Errorf("Expected response time 1 minute, got %d", asset.ResponseTimeMins)
	}
	if !asset.BaseLocation.Complete() {
		t.Errorf("Expected asset base location to be complete")
	}
}

func TestLoadParticipant(t *testing.T) {
	participant, err := LoadParticipant("testdata/participant.json")
	if err != nil {
		t.Fatalf("Failed to load participant: %v", err)
	}

	if participant.Name != "canterbury" {
		t.Errorf("Expected participant name 'canterbury', got '%s'", participant.Name)
	}

	if len(participant.Members) != 2 {
		t.Fatalf("Expected 2 members, got %d", len(participant.Members))
	}

	if participant.Members[0].Username != "duty-officer" {
		t.Errorf("Expected member 'duty-officer', got '%s'", participant.Members[0].Username)
	}
}

func TestLoadExerciseMissingFile(t *testing.T) {
	if _, err := LoadExercise("testdata/does-not-exist.yaml"); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestLoadExerciseUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exercise.toml")
	if err := os.WriteFile(path, []byte("name = \"x\""), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadExercise(path); err == nil {
		t.Fatal("Expected error for unsupported extension")
	}
}

func TestExerciseValidate(t *testing.T) {
	lat := -43.5
	lon := 172.5

	valid := Exercise{
		Name:        "exercise",
		Description: "a description",
		Assets: []Asset{
			{
				Name:             "Rescue-1",
				Type:             "Aircraft",
				Organization:     "Alpha",
				BaseLocation:     Location{Latitude: &lat, Longitude: &lon},
				ResponseTimeMins: 1,
			},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid exercise, got %v", err)
	}

	missingName := valid
	missingName.Name = ""
	if err := missingName.Validate(); err == nil {
		t.Error("Expected error for missing exercise name")
	}

	badAsset := valid
	badAsset.Assets = []Asset{{Name: "Rescue-1", Type: "Aircraft", Organization: "Alpha"}}
	if err := badAsset.Validate(); err == nil {
		t.Error("Expected error for asset without base location")
	}

	negativeResponse := valid
	negativeResponse.Assets = []Asset{
		{
			Name:             "Rescue-1",
			Type:             "Aircraft",
			Organization:     "Alpha",
			BaseLocation:     Location{Latitude: &lat, Longitude: &lon},
			ResponseTimeMins: -1,
		},
	}
	if err := negativeResponse.Validate(); err == nil {
		t.Error("Expected error for negative response time")
	}
}
