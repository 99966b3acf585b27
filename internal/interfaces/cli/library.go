package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	types "github.com/turtacn/KeyIP-Substructure/pkg/types/substructure"
)

// NewLibraryCmd creates the library command group. Its subcommands run
// against the API server named by --server.
func NewLibraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage and screen stored target libraries",
	}
	cmd.AddCommand(newLibraryAddCmd(), newLibraryScreenCmd())
	return cmd
}

func newLibraryAddCmd() *cobra.Command {
	var (
		targetPath string
		name       string
	)
	cmd := &cobra.Command{
		Use:     "add <library-id>",
		Short:   "Store a molfile in a library",
		Args:    cobra.ExactArgs(1),
		Example: "  keyip library add 6f1c... --target aspirin.mol --name aspirin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			api, err := cliCtx.LibraryAPI()
			if err != nil {
				return err
			}
			target, err := readTarget(cmd, targetPath)
			if err != nil {
				return err
			}
			if name == "" && targetPath != "-" {
				name = strings.TrimSuffix(filepath.Base(targetPath), filepath.Ext(targetPath))
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			mol, err := api.AddMolecule(ctx, &types.AddMoleculeRequest{
				LibraryID: args[0],
				Name:      name,
				Molfile:   target,
			})
			if err != nil {
				return err
			}
			cliCtx.Logger.Info("Molecule stored",
				logging.String("library_id", mol.LibraryID),
				logging.String("molecule_id", mol.ID))

			if cliCtx.Options.Output == "json" {
				return printJSON(cmd, mol)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Stored   %s\n", mol.ID)
			fmt.Fprintf(out, "Name     %s\n", mol.Name)
			fmt.Fprintf(out, "Formula  %s (%d atoms)\n", mol.Formula, mol.AtomCount)
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "target", "t", "", "target V2000 molfile, - for stdin")
	cmd.Flags().StringVar(&name, "name", "", "molecule name (default: file name)")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newLibraryScreenCmd() *cobra.Command {
	var (
		flags  searchFlags
		offset int
		limit  int
	)
	cmd := &cobra.Command{
		Use:     "screen <library-id>",
		Short:   "Screen a pattern against every molecule of a library",
		Args:    cobra.ExactArgs(1),
		Example: "  keyip library screen 6f1c... --pattern carboxyl.yaml --limit 500",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			api, err := cliCtx.LibraryAPI()
			if err != nil {
				return err
			}
			_, raw, err := flags.loadPattern()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			resp, err := api.Screen(ctx, args[0], &types.ScreenRequest{
				Pattern: raw,
				Options: flags.options(cmd),
				Offset:  offset,
				Limit:   limit,
			})
			if err != nil {
				return err
			}
			if cliCtx.Options.Output == "json" {
				return printJSON(cmd, resp)
			}
			printScreen(cmd, resp, offset)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&offset, "offset", 0, "first library position screened")
	cmd.Flags().IntVar(&limit, "limit", 0, "molecules screened (0 selects the server default)")
	return cmd
}

func printScreen(cmd *cobra.Command, resp *types.ScreenResponse, offset int) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Library   %s (%d molecules)\n", resp.LibraryID, resp.Total)
	fmt.Fprintf(out, "Screened  %d, %d skipped by prefilter, %d hit(s)\n", resp.Screened, resp.Prefiltered, len(resp.Hits))
	if len(resp.Hits) > 0 {
		rows := make([][]string, len(resp.Hits))
		for i, h := range resp.Hits {
			first := ""
			switch {
			case len(h.Maps) > 0:
				first = joinIndices(h.Maps[0])
			case len(h.Sets) > 0:
				first = joinIndices(h.Sets[0])
			}
			rows[i] = []string{h.MoleculeID, h.Name, strconv.Itoa(h.Count), first}
		}
		renderTable(out, []string{"Molecule", "Name", "Matches", "First match"}, rows)
	}
	if len(resp.Failures) > 0 {
		rows := make([][]string, len(resp.Failures))
		for i, f := range resp.Failures {
			rows[i] = []string{f.MoleculeID, f.Code, f.Message}
		}
		renderTable(out, []string{"Molecule", "Code", "Error"}, rows)
	}
	if resp.Truncated {
		fmt.Fprintf(out, "More molecules remain; continue with --offset %d\n", offset+resp.Screened)
	}
}

//Personal.AI order the ending
