package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/setupetc/internal/engine"
	"github.com/danieljhkim/setupetc/internal/planner"
)

var (
	activateDryRun bool
	activateNested bool
)

func runActivate(cmd *cobra.Command, args []string) error {
	paths, err := loadPaths()
	if err != nil {
		return err
	}
	eng := newEngine(paths)

	req := &engine.ActivateRequest{
		SourceDir:         args[0],
		DryRun:            activateDryRun,
		NestedEnvironment: activateNested || os.Getenv(paths.NestedEnvVar) != "",
	}

	result, err := eng.Activate(context.Background(), req)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(result)
	}

	if req.DryRun {
		printPlan(result)
		return nil
	}

	PrintSuccess(fmt.Sprintf("Activated %s", result.SourceDir))
	PrintLabelValue("Applied", PrintCount(len(result.Applied), "operation", "operations"))
	if len(result.Removed) > 0 {
		PrintLabelValue("Removed", PrintCount(len(result.Removed), "entry", "entries"))
	}
	if len(result.Skipped) > 0 {
		PrintWarning(fmt.Sprintf("Skipped %s (see diagnostics above)", PrintCount(len(result.Skipped), "entry", "entries")))
	}
	return nil
}

// printPlan shows what an activation would do.
func printPlan(result *engine.ActivateResult) {
	PrintSection("Dry Run")

	ops := make([]string, 0, len(result.Cleanup.Operations)+len(result.Materialize.Operations))
	for _, op := range result.Cleanup.Operations {
		ops = append(ops, describeOperation(op))
	}
	for _, op := range result.Materialize.Operations {
		ops = append(ops, describeOperation(op))
	}

	PrintInfo(fmt.Sprintf("Would apply %s", PrintCount(len(ops), "operation", "operations")))
	if len(ops) > 0 {
		PrintSubsection("Operations:")
		PrintList(ops, 1)
	}

	var dropped []string
	for _, r := range result.Removed {
		if r.Kind == engine.RemovedFile {
			dropped = append(dropped, r.Name)
		}
	}
	if len(dropped) > 0 {
		PrintSubsection("Manifest entries to drop:")
		PrintList(dropped, 1)
	}

	if len(result.Skipped) > 0 {
		PrintSubsection("Skipped:")
		skipped := make([]string, 0, len(result.Skipped))
		for _, s := range result.Skipped {
			skipped = append(skipped, fmt.Sprintf("%s: %s", s.Name, s.Reason))
		}
		PrintList(skipped, 1)
	}
}

func describeOperation(op planner.Operation) string {
	switch op.Type {
	case planner.OpRemove:
		return fmt.Sprintf("remove: %s", op.Name)
	case planner.OpCopy:
		return fmt.Sprintf("copy: %s (%04o %d:%d)", op.Name, op.Mode&07777, op.UID, op.GID)
	case planner.OpSymlink, planner.OpDirectSymlink:
		return fmt.Sprintf("%s: %s -> %s", op.Type, op.Name, op.Target)
	default:
		return fmt.Sprintf("%s: %s", op.Type, op.Name)
	}
}
