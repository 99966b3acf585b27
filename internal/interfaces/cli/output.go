package cli

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// printJSON outputs data as indented JSON to stdout.
func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintError writes a formatted error message to stderr, with the error
// code when the error carries one.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		msg = fmt.Sprintf("%s (%s)", ae.Message, ae.Code)
		if ae.Detail != "" {
			msg += ": " + ae.Detail
		} else if ae.Cause != nil {
			msg += ": " + ae.Cause.Error()
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.RedString("Error:"), msg)
}

// renderTable writes rows under headers with tablewriter.
func renderTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}

// joinIndices renders atom indices as "0,1,2".
func joinIndices(idx []int) string {
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// yesNo colours a boolean verdict.
func yesNo(ok bool) string {
	if ok {
		return color.GreenString("yes")
	}
	return color.YellowString("no")
}

// readTarget reads a molfile from path, or from stdin when path is "-".
func readTarget(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeBadRequest, "read target molfile")
	}
	return string(data), nil
}

//Personal.AI order the ending
