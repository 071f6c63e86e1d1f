package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/brewpkg/internal/engine"
)

var (
	pkgWithDeps    bool
	pkgWithoutKegs bool
	pkgScripts     string
	pkgOwnership   string
	pkgOutputDir   string
	pkgDryRun      bool
	pkgManifest    string
)

var pkgCmd = &cobra.Command{
	Use:   "pkg <formula>",
	Short: "Build an installer package from an installed formula",
	Long: `Build a macOS installer package from an installed Homebrew formula.

The formula's keg, the prefix entries it links, its linked-keg and opt links and
its launchd plist are staged into a temporary root mirroring the Homebrew prefix.
pkgbuild turns that root into <formula>-<version>.pkg in the output directory.

Use --with-deps to include every recursive dependency in the same package.`,
	Example: `  brewpkg pkg wget
  brewpkg pkg nginx --with-deps --identifier-prefix com.example
  brewpkg pkg redis --scripts ./scripts --ownership recommended --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, settings, err := newEngine(cmd, pkgManifest)
		if err != nil {
			return err
		}

		dir, err := cwd()
		if err != nil {
			return err
		}

		req := &engine.BuildRequest{
			CWD:              dir,
			Formula:          args[0],
			IdentifierPrefix: settings.IdentifierPrefix,
			WithDeps:         pkgWithDeps,
			WithoutKegs:      pkgWithoutKegs,
			ScriptsPath:      pkgScripts,
			Ownership:        pkgOwnership,
			OutputDir:        pkgOutputDir,
			DryRun:           pkgDryRun,
		}

		result, err := eng.Build(cmd.Context(), req)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), result)
		}

		printBuildResult(result)
		return nil
	},
}

func printBuildResult(result *engine.BuildResult) {
	if result.DryRun {
		PrintSection("Dry Run")
		PrintInfo(fmt.Sprintf("Would stage %s for %s",
			PrintCount(len(result.Operations), "operation", "operations"),
			PrintCount(len(result.Packages), "formula", "formulae")))
	} else {
		PrintSuccess(fmt.Sprintf("Built %s", result.Output))
	}

	PrintLabelValue("Identifier", result.Spec.Identifier)
	PrintLabelValue("Version", result.Spec.Version)
	PrintLabelValue("Output", result.Output)
	if result.Spec.ScriptsPath != "" {
		PrintLabelValue("Scripts", result.Spec.ScriptsPath)
	}
	if result.Spec.Ownership != "" {
		PrintLabelValue("Ownership", string(result.Spec.Ownership))
	}
	if result.SHA256 != "" {
		PrintLabelValue("SHA-256", result.SHA256)
	}

	PrintSubsection("Formulae:")
	PrintList(result.Packages, 2)

	if result.DryRun && len(result.Operations) > 0 {
		PrintSubsection("Operations:")
		ops := make([]string, 0, len(result.Operations))
		for _, op := range result.Operations {
			if op.SourcePath != "" {
				ops = append(ops, fmt.Sprintf("[%s] %s <- %s", op.Type, op.RelPath, op.SourcePath))
			} else {
				ops = append(ops, fmt.Sprintf("[%s] %s", op.Type, op.RelPath))
			}
		}
		PrintList(ops, 2)
	}
}

func init() {
	pkgCmd.Flags().String("identifier-prefix", "", "Package identifier prefix (default org.homebrew)")
	pkgCmd.Flags().BoolVar(&pkgWithDeps, "with-deps", false, "Include all recursive dependencies")
	pkgCmd.Flags().BoolVar(&pkgWithoutKegs, "without-kegs", false, "Do not copy the versioned kegs into Cellar/")
	pkgCmd.Flags().StringVar(&pkgScripts, "scripts", "", "Directory holding preinstall and/or postinstall scripts")
	pkgCmd.Flags().StringVar(&pkgOwnership, "ownership", "", "pkgbuild --ownership: recommended, preserve or preserve-other")
	pkgCmd.Flags().StringVarP(&pkgOutputDir, "output-dir", "o", "", "Directory to write the package to (default current directory)")
	pkgCmd.Flags().BoolVar(&pkgDryRun, "dry-run", false, "Plan the staging without building")
	pkgCmd.Flags().StringVar(&pkgManifest, "manifest", "", "Read formulae from a YAML manifest instead of brew")
}
