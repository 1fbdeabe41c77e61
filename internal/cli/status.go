package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/setupetc/internal/engine"
)

var statusAll bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which live entries setup-etc manages",
	Long: `Classify the entries of the live directory without changing anything.

Static links, purely static directories and owned copies are listed. Owned
copies whose content no longer matches the declared tree are marked as drifted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := loadPaths()
		if err != nil {
			return err
		}
		eng := newEngine(paths)

		result, err := eng.Status(context.Background(), &engine.StatusRequest{IncludeForeign: statusAll})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSection("Live Directory")
		PrintLabelValue("Path", result.LiveDir)
		staticTarget := result.StaticTarget
		if staticTarget == "" {
			staticTarget = "(not published)"
		}
		PrintLabelValue("Static root", fmt.Sprintf("%s -> %s", result.StaticRoot, staticTarget))
		PrintLabelValue("Activated", fmt.Sprintf("%v", result.Activated))
		PrintLabelValue("Owned copies", PrintCount(len(result.Manifest), "file", "files"))

		PrintSection("Entries")
		if len(result.Entries) == 0 {
			PrintEmptyState("No managed entries")
		} else {
			rows := make([][]string, 0, len(result.Entries))
			for _, entry := range result.Entries {
				drift := ""
				if entry.Drift {
					drift = "drifted"
				}
				rows = append(rows, []string{entry.Name, string(entry.Kind), entry.Target, drift})
			}
			PrintTable([]string{"NAME", "KIND", "TARGET", "DRIFT"}, rows)
		}

		if len(result.Missing) > 0 {
			fmt.Println()
			PrintWarning(fmt.Sprintf("%s listed in the manifest no longer exist:", PrintCount(len(result.Missing), "file", "files")))
			PrintList(result.Missing, 1)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVarP(&statusAll, "all", "a", false, "Also list foreign entries")
}
