package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/searchops/imt-exercises/pkg/config"
	"github.com/searchops/imt-exercises/pkg/exercise"
	"github.com/searchops/imt-exercises/pkg/logger"
)

var (
	colorHeading = color.New(color.FgCyan, color.Bold)
	colorWarning = color.New(color.FgYellow)
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate exercise and participant documents",
	Long:  `Validate the given documents and print what the exercise would contain`,
	RunE:  checkDocuments,
}

func init() {
	checkCmd.Flags().StringVarP(&exercisePath, "exercise", "e", "", "exercise document (YAML or JSON)")
	checkCmd.Flags().StringArrayVarP(&participantPaths, "participant", "p", nil, "participant document, repeatable")
	_ = checkCmd.MarkFlagRequired("exercise")
}

func checkDocuments(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadExercise(exercisePath)
	if err != nil {
		return fmt.Errorf("failed to load exercise: %w", err)
	}
	// New runs the same checks the run command would, including the asset
	// type vocabulary.
	if _, err := exercise.New(cfg); err != nil {
		return err
	}

	logger.LogSection(cfg.Name)
	logger.LogKeyValue("Description", cfg.Description)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = colorHeading.Fprintln(w, "ASSET\tTYPE\tORGANIZATION\tRESPONSE TIME")
	_, _ = fmt.Fprintln(w, "-----\t----\t------------\t-------------")
	for _, asset := range cfg.Assets {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d min\n",
			asset.Name,
			asset.Type,
			asset.Organization,
			asset.ResponseTimeMins,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	complete := 0
	for _, poi := range cfg.POIs {
		if poi.Name != "" && poi.Location.Complete() {
			complete++
		}
	}
	logger.LogKeyValue("Points of interest", fmt.Sprintf("%d (%d complete)", len(cfg.POIs), complete))
	if complete < len(cfg.POIs) {
		_, _ = colorWarning.Printf("%d point(s) of interest are missing a name or location and will not appear on the mission map\n", len(cfg.POIs)-complete)
	}

	for _, path := range participantPaths {
		pcfg, err := config.LoadParticipant(path)
		if err != nil {
			return fmt.Errorf("failed to load participant: %w", err)
		}
		logger.LogKeyValue("Participant", fmt.Sprintf("%s (%d members)", pcfg.Name, len(pcfg.Members)))
	}

	logger.Success("All documents valid")
	return nil
}
