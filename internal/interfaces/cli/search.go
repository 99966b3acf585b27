package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/internal/domain/substructure"
	"github.com/turtacn/KeyIP-Substructure/internal/domain/substructure/pattern"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
	types "github.com/turtacn/KeyIP-Substructure/pkg/types/substructure"
)

// searchFlags are the engine options shared by match and library screen.
type searchFlags struct {
	patternPath  string
	all          bool
	maps         bool
	strict       bool
	ignoreStereo bool
	hydrogens    bool
	ringMax      int
	selected     []int
	required     []int
	excluded     []int
}

func (f *searchFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.patternPath, "pattern", "p", "", "pattern document (.yaml, .yml or .json)")
	fl.BoolVar(&f.all, "all", false, "report every match instead of stopping at the first")
	fl.BoolVar(&f.maps, "maps", false, "report pattern-to-target atom maps instead of atom sets")
	fl.BoolVar(&f.strict, "strict", false, "use strict aromaticity perception")
	fl.BoolVar(&f.ignoreStereo, "ignore-stereo", false, "ignore stereochemistry constraints")
	fl.BoolVar(&f.hydrogens, "hydrogens", false, "include explicit hydrogens of H-count pattern atoms in the sets")
	fl.IntVar(&f.ringMax, "ring-max", 0, "largest ring size perceived (0 selects the default)")
	fl.IntSliceVar(&f.selected, "select", nil, "restrict matches to these target atoms")
	fl.IntSliceVar(&f.required, "require", nil, "target atoms every match must cover")
	fl.IntSliceVar(&f.excluded, "exclude", nil, "target atoms no match may use")
	_ = cmd.MarkFlagRequired("pattern")
}

func (f *searchFlags) options(cmd *cobra.Command) types.SearchOptions {
	opts := types.SearchOptions{
		Required:              f.required,
		Excluded:              f.excluded,
		FirstOnly:             !f.all,
		IgnoreStereochemistry: f.ignoreStereo,
		ReturnMaps:            f.maps,
		AromaticStrict:        f.strict,
		IncludeHydrogens:      f.hydrogens,
		RingDataMax:           f.ringMax,
	}
	if cmd.Flags().Changed("select") {
		opts.Selected = f.selected
		if opts.Selected == nil {
			opts.Selected = []int{}
		}
	}
	return opts
}

// loadPattern reads the pattern file into the JSON document the service takes.
func (f *searchFlags) loadPattern() (*pattern.Document, json.RawMessage, error) {
	doc, err := pattern.ReadFile(f.patternPath)
	if err != nil {
		return nil, nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeSerialization, "encode pattern document")
	}
	if doc.Name == "" {
		doc.Name = filepath.Base(f.patternPath)
	}
	return doc, raw, nil
}

// NewMatchCmd creates the match command.
func NewMatchCmd() *cobra.Command {
	var (
		flags      searchFlags
		targetPath string
	)
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match a substructure pattern against a molfile",
		Example: "  keyip match --pattern benzene.yaml --target toluene.mol --all\n" +
			"  keyip match -p ethyl.json --target - --maps --select 0,1 < target.mol",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			doc, raw, err := flags.loadPattern()
			if err != nil {
				return err
			}
			target, err := readTarget(cmd, targetPath)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			resp, err := cliCtx.Service.Match(ctx, &types.MatchRequest{
				Pattern: raw,
				Target:  types.Target{Molfile: target},
				Options: flags.options(cmd),
			})
			if err != nil {
				return err
			}
			cliCtx.Logger.Debug("Match finished",
				logging.String("pattern", doc.Name),
				logging.Int("matches", resp.Count),
				logging.Int64("duration_ms", resp.DurationMS))

			if cliCtx.Options.Output == "json" {
				return printJSON(cmd, resp)
			}
			printMatch(cmd, doc, targetPath, resp)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&targetPath, "target", "t", "", "target V2000 molfile, - for stdin")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func printMatch(cmd *cobra.Command, doc *pattern.Document, targetPath string, resp *types.MatchResponse) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Pattern  %s (%d atoms)\n", doc.Name, len(doc.Atoms))
	fmt.Fprintf(out, "Target   %s (%d atoms)\n", targetPath, resp.AtomCount)
	fmt.Fprintf(out, "Matched  %s, %d match(es)\n", yesNo(resp.Matched), resp.Count)
	if !resp.Matched {
		return
	}

	header, rowsOf := "Atoms", resp.Sets
	if resp.Maps != nil {
		header, rowsOf = "Map (pattern order)", resp.Maps
	}
	rows := make([][]string, len(rowsOf))
	for i, r := range rowsOf {
		rows[i] = []string{strconv.Itoa(i + 1), joinIndices(r)}
	}
	renderTable(out, []string{"#", header}, rows)
	if len(resp.Union) > 0 {
		fmt.Fprintf(out, "Union    %s\n", joinIndices(resp.Union))
	}
}

// NewRingsCmd creates the rings command.
func NewRingsCmd() *cobra.Command {
	var (
		targetPath string
		maxSize    int
	)
	cmd := &cobra.Command{
		Use:   "rings",
		Short: "Report ring membership per ring size",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			target, err := readTarget(cmd, targetPath)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			resp, err := cliCtx.Service.Rings(ctx, &types.RingsRequest{
				Target:  types.Target{Molfile: target},
				MaxSize: maxSize,
			})
			if err != nil {
				return err
			}
			if cliCtx.Options.Output == "json" {
				return printJSON(cmd, resp)
			}

			sizes := make([]int, 0, len(resp.Members))
			for size, atoms := range resp.Members {
				if len(atoms) > 0 {
					sizes = append(sizes, size)
				}
			}
			sort.Ints(sizes)
			out := cmd.OutOrStdout()
			if len(sizes) == 0 {
				fmt.Fprintf(out, "No rings up to size %d in %d atoms\n", resp.MaxSize, resp.AtomCount)
				return nil
			}
			rows := make([][]string, len(sizes))
			for i, size := range sizes {
				rows[i] = []string{strconv.Itoa(size), strconv.Itoa(len(resp.Members[size])), joinIndices(resp.Members[size])}
			}
			renderTable(out, []string{"Ring size", "Atoms", "Members"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "target", "t", "", "target V2000 molfile, - for stdin")
	cmd.Flags().IntVar(&maxSize, "max-size", 0, "largest ring size reported (0 selects the default)")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

// NewAromaticCmd creates the aromatic command.
func NewAromaticCmd() *cobra.Command {
	var (
		targetPath string
		strict     bool
	)
	cmd := &cobra.Command{
		Use:   "aromatic",
		Short: "Report the aromatic atoms of a molfile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			target, err := readTarget(cmd, targetPath)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			resp, err := cliCtx.Service.Aromatic(ctx, &types.AromaticRequest{
				Target: types.Target{Molfile: target},
				Strict: strict,
			})
			if err != nil {
				return err
			}
			if cliCtx.Options.Output == "json" {
				return printJSON(cmd, resp)
			}

			out := cmd.OutOrStdout()
			mode := "default"
			if resp.Strict {
				mode = "strict"
			}
			fmt.Fprintf(out, "Aromaticity  %s, %d of %d atoms\n", mode, len(resp.Aromatic), resp.AtomCount)
			if len(resp.Aromatic) == 0 {
				return nil
			}
			fmt.Fprintf(out, "Aromatic     %s\n", color.CyanString(joinIndices(resp.Aromatic)))
			if len(resp.Aromatic5) > 0 {
				fmt.Fprintf(out, "5-rings      %s\n", joinIndices(resp.Aromatic5))
			}
			if len(resp.Aromatic6) > 0 {
				fmt.Fprintf(out, "6-rings      %s\n", joinIndices(resp.Aromatic6))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "target", "t", "", "target V2000 molfile, - for stdin")
	cmd.Flags().BoolVar(&strict, "strict", false, "use strict aromaticity perception")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

// StereoResult is the JSON output of the stereo command.
type StereoResult struct {
	Center     int    `json:"center"`
	Neighbours []int  `json:"neighbours"`
	Flag       string `json:"flag"`
}

// NewStereoCmd creates the stereo command, which derives the chirality
// descriptor of a target centre from its coordinates.
func NewStereoCmd() *cobra.Command {
	var (
		targetPath string
		center     int
		neighbours []int
	)
	cmd := &cobra.Command{
		Use:     "stereo",
		Short:   "Derive the chirality descriptor of a target centre",
		Example: "  keyip stereo --target alanine.mol --center 1 --neighbours 0,2,3,4",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			target, err := readTarget(cmd, targetPath)
			if err != nil {
				return err
			}
			mol, err := molecule.ParseMolfile(target)
			if err != nil {
				return err
			}
			flag, err := substructure.StereoFlag(mol, center, neighbours)
			if err != nil {
				return err
			}
			res := StereoResult{Center: center, Neighbours: neighbours, Flag: flag}
			if cliCtx.Options.Output == "json" {
				return printJSON(cmd, res)
			}
			if flag == "" {
				flag = "(none)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Centre %d [%s]: %s\n", center, joinIndices(neighbours), color.CyanString(flag))
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "target", "t", "", "target V2000 molfile, - for stdin")
	cmd.Flags().IntVar(&center, "center", 0, "centre atom index")
	cmd.Flags().IntSliceVar(&neighbours, "neighbours", nil, "neighbour atom indices in descriptor order")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("neighbours")
	return cmd
}

//Personal.AI order the ending
