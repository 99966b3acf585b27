package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Substructure/internal/application/screening"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/internal/testutil"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
	types "github.com/turtacn/KeyIP-Substructure/pkg/types/substructure"
)

const ethylYAML = `name: ethyl
atoms:
  - element: C
  - element: C
bonds:
  - from: 0
    to: 1
    type: "-"
`

type fakeLibrary struct {
	added    *types.AddMoleculeRequest
	screened *types.ScreenRequest
	libID    string
	err      error
}

func (f *fakeLibrary) AddMolecule(_ context.Context, req *types.AddMoleculeRequest) (*types.MoleculeResponse, error) {
	f.added = req
	if f.err != nil {
		return nil, f.err
	}
	return &types.MoleculeResponse{ID: "mol-1", LibraryID: req.LibraryID, Name: req.Name, Formula: "C4H10", AtomCount: 4}, nil
}

func (f *fakeLibrary) Screen(_ context.Context, libraryID string, req *types.ScreenRequest) (*types.ScreenResponse, error) {
	f.libID, f.screened = libraryID, req
	if f.err != nil {
		return nil, f.err
	}
	return &types.ScreenResponse{
		LibraryID: libraryID,
		Total:     3,
		Screened:  2,
		Hits:      []types.ScreenHit{{MoleculeID: "mol-1", Name: "butane", Count: 3, Sets: [][]int{{0, 1}}}},
		Truncated: true,
	}, nil
}

type harness struct {
	dir     string
	library *fakeLibrary
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{dir: dir, library: &fakeLibrary{}}
	h.write(t, "ethyl.yaml", ethylYAML)
	h.write(t, "butane.mol", testutil.Molfile(testutil.Chain(4)))
	h.write(t, "toluene.mol", testutil.Molfile(testutil.Toluene()))
	h.write(t, "chiral.mol", testutil.Molfile(testutil.Tetrahedral(false)))
	return h
}

func (h *harness) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, name), []byte(content), 0o600))
}

func (h *harness) path(name string) string { return filepath.Join(h.dir, name) }

// run executes the command tree with an in-process service and returns
// stdout.
func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	svc, err := screening.NewService(screening.Config{}, screening.Dependencies{Logger: logging.NewNopLogger()})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	root := NewRootCommand(CommandDependencies{
		Service: svc,
		Logger:  logging.NewNopLogger(),
		Library: h.library,
	})
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--no-color"}, args...))
	err = root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMatchCmd_JSON(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "match", "-o", "json", "-p", h.path("ethyl.yaml"), "-t", h.path("butane.mol"), "--all")
	require.NoError(t, err)

	var resp types.MatchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Matched)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, [][]int{{0, 1}, {1, 2}, {2, 3}}, resp.Sets)
	assert.Equal(t, []int{0, 1, 2, 3}, resp.Union)
}

func TestMatchCmd_Text(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "match", "-p", h.path("ethyl.yaml"), "-t", h.path("butane.mol"))
	require.NoError(t, err)
	assert.Contains(t, out, "Pattern  ethyl (2 atoms)")
	assert.Contains(t, out, "Matched  yes, 1 match(es)")
	assert.Contains(t, out, "0,1")
}

func TestMatchCmd_SelectAndMaps(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "match", "-o", "json", "-p", h.path("ethyl.yaml"), "-t", h.path("butane.mol"),
		"--all", "--maps", "--select", "2,3")
	require.NoError(t, err)

	var resp types.MatchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.ElementsMatch(t, [][]int{{2, 3}, {3, 2}}, resp.Maps)
}

func TestMatchCmd_TargetFromStdin(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, testutil.Molfile(testutil.Chain(2)), "match", "-o", "json", "-p", h.path("ethyl.yaml"), "-t", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"matched": true`)
}

func TestMatchCmd_Errors(t *testing.T) {
	h := newHarness(t)
	h.write(t, "bad.yaml", "atoms:\n  - element: Zz\n")

	_, err := h.run(t, "", "match", "-t", h.path("butane.mol"))
	assert.ErrorContains(t, err, "pattern")

	_, err = h.run(t, "", "match", "-p", h.path("bad.yaml"), "-t", h.path("butane.mol"))
	assert.True(t, errors.IsCode(err, errors.ErrCodePatternContract))

	_, err = h.run(t, "", "match", "-p", h.path("ethyl.yaml"), "-t", h.path("missing.mol"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))

	_, err = h.run(t, "", "-o", "xml", "match", "-p", h.path("ethyl.yaml"), "-t", h.path("butane.mol"))
	assert.ErrorContains(t, err, "unknown output format")
}

func TestRingsCmd(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "rings", "-o", "json", "-t", h.path("toluene.mol"), "--max-size", "6")
	require.NoError(t, err)
	var resp types.RingsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, resp.Members[6])

	out, err = h.run(t, "", "rings", "-t", h.path("butane.mol"))
	require.NoError(t, err)
	assert.Contains(t, out, "No rings up to size")
}

func TestAromaticCmd(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "aromatic", "-t", h.path("toluene.mol"))
	require.NoError(t, err)
	assert.Contains(t, out, "6 of 7 atoms")
	assert.Contains(t, out, "0,1,2,3,4,5")
}

func TestStereoCmd(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "stereo", "-o", "json", "-t", h.path("chiral.mol"), "--center", "0", "--neighbours", "4,1,2,3")
	require.NoError(t, err)
	var res StereoResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "@", res.Flag)

	out, err = h.run(t, "", "stereo", "-t", h.path("chiral.mol"), "--center", "0", "--neighbours", "4,2,1,3")
	require.NoError(t, err)
	assert.Contains(t, out, "@@")

	_, err = h.run(t, "", "stereo", "-t", h.path("chiral.mol"), "--center", "9", "--neighbours", "1,2,3")
	assert.True(t, errors.IsCode(err, errors.ErrCodeTargetInconsistent))
}

func TestLibraryAddCmd(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "library", "add", "lib-1", "-t", h.path("butane.mol"))
	require.NoError(t, err)
	require.NotNil(t, h.library.added)
	assert.Equal(t, "lib-1", h.library.added.LibraryID)
	assert.Equal(t, "butane", h.library.added.Name)
	assert.Contains(t, h.library.added.Molfile, "V2000")
	assert.Contains(t, out, "Stored   mol-1")

	_, err = h.run(t, "", "library", "add", "-t", h.path("butane.mol"))
	assert.Error(t, err)
}

func TestLibraryScreenCmd(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "library", "screen", "lib-1", "-p", h.path("ethyl.yaml"), "--offset", "4", "--limit", "2", "--strict")
	require.NoError(t, err)
	require.NotNil(t, h.library.screened)
	assert.Equal(t, "lib-1", h.library.libID)
	assert.Equal(t, 4, h.library.screened.Offset)
	assert.Equal(t, 2, h.library.screened.Limit)
	assert.True(t, h.library.screened.Options.AromaticStrict)
	assert.True(t, h.library.screened.Options.FirstOnly)
	assert.JSONEq(t, `{"name":"ethyl","atoms":[{"element":"C"},{"element":"C"}],"bonds":[{"from":0,"to":1,"type":"-"}]}`,
		string(h.library.screened.Pattern))
	assert.Contains(t, out, "mol-1")
	assert.Contains(t, out, "continue with --offset 6")

	h.library.err = errors.NotFound("library lib-2 not found")
	_, err = h.run(t, "", "library", "screen", "lib-2", "-p", h.path("ethyl.yaml"))
	assert.True(t, errors.IsNotFound(err))
}

func TestVersionCmd(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "version", "-o", "json")
	require.NoError(t, err)
	var info VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

func TestPrintError(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetErr(&buf)

	PrintError(cmd, errors.New(errors.ErrCodePatternContract, "bad pattern").WithDetail("atom 0"))
	assert.Contains(t, buf.String(), "bad pattern ("+string(errors.ErrCodePatternContract)+"): atom 0")

	buf.Reset()
	PrintError(cmd, assert.AnError)
	assert.Contains(t, buf.String(), assert.AnError.Error())

	buf.Reset()
	PrintError(cmd, nil)
	assert.Empty(t, buf.String())
}

func TestGetCLIContext_Missing(t *testing.T) {
	cmd := &cobra.Command{}
	_, err := GetCLIContext(cmd)
	assert.Error(t, err)
}

func TestJoinIndices(t *testing.T) {
	assert.Equal(t, "", joinIndices(nil))
	assert.Equal(t, "3,1,2", joinIndices([]int{3, 1, 2}))
}

//Personal.AI order the ending
