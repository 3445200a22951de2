package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/fluoriclogppka-studio/internal/application/reporting"
	"github.com/turtacn/fluoriclogppka-studio/internal/domain/molecule"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// ValidateResult is the output of the validate command.
type ValidateResult struct {
	SMILES      string                     `json:"smiles" yaml:"smiles"`
	Method      molecule.Method            `json:"method" yaml:"method"`
	MethodLabel string                     `json:"method_label" yaml:"method_label"`
	Info        *reporting.MoleculeSummary `json:"info,omitempty" yaml:"info,omitempty"`
}

// RenderText implements textRenderer.
func (r ValidateResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "Molecule from: %s\n", r.MethodLabel)
	fmt.Fprintf(w, "SMILES: %s\n", r.SMILES)
	if r.Info != nil {
		InfoResult(*r.Info).RenderText(w)
	}
}

// TableHeaders implements tableProvider.
func (r ValidateResult) TableHeaders() []string { return []string{"FIELD", "VALUE"} }

// TableRows implements tableProvider.
func (r ValidateResult) TableRows() [][]string {
	rows := [][]string{
		{"smiles", r.SMILES},
		{"method", string(r.Method)},
	}
	if r.Info != nil {
		rows = append(rows, InfoResult(*r.Info).TableRows()[1:]...)
	}
	return rows
}

// InfoResult is the output of the info command.
type InfoResult reporting.MoleculeSummary

// RenderText implements textRenderer.
func (r InfoResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "Formula: %s\n", r.Formula)
	fmt.Fprintf(w, "Molecular Weight: %s\n", r.WeightText)
	fmt.Fprintf(w, "Atoms: %d\n", r.NumAtoms)
	fmt.Fprintf(w, "Bonds: %d\n", r.NumBonds)
}

// TableHeaders implements tableProvider.
func (r InfoResult) TableHeaders() []string { return []string{"FIELD", "VALUE"} }

// TableRows implements tableProvider.
func (r InfoResult) TableRows() [][]string {
	return [][]string{
		{"smiles", r.SMILES},
		{"formula", r.Formula},
		{"molecular_weight", r.WeightText},
		{"num_atoms", fmt.Sprint(r.NumAtoms)},
		{"num_bonds", fmt.Sprint(r.NumBonds)},
	}
}

func newValidateCmd() *cobra.Command {
	var (
		sdfPath  string
		editor   string
		withInfo bool
	)

	cmd := &cobra.Command{
		Use:   "validate [smiles]",
		Short: "Normalize a molecule to canonical SMILES",
		Long: "Validate a molecule given as SMILES, an SDF file or an editor JSON payload,\n" +
			"and print its canonical SMILES.  Runs locally; no server is needed.",
		Example: "  fluoro validate OCC\n" +
			"  fluoro validate --sdf ethanol.sdf\n" +
			"  fluoro validate --editor '{\"molecule\":{\"smiles\":\"OCC\"}}'",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			in, err := validateInput(args, sdfPath, editor, cmd.Flags().Changed("editor"))
			if err != nil {
				return err
			}

			n := molecule.NewNormalizer(molecule.WithLogger(cliCtx.Logger))
			id, ok, err := n.Normalize(cmd.Context(), in)
			if err != nil {
				return err
			}
			if !ok {
				return rejected(in)
			}
			cliCtx.Logger.Debug("molecule normalized",
				logging.String("method", string(in.Method())),
				logging.String("smiles", id.String()))

			res := ValidateResult{
				SMILES:      id.String(),
				Method:      in.Method(),
				MethodLabel: in.Method().Label(),
			}
			if withInfo {
				summary, err := reporting.MoleculeInfo(id)
				if err != nil {
					return err
				}
				res.Info = summary
			}
			return PrintResult(cmd, res)
		},
	}

	cmd.Flags().StringVar(&sdfPath, "sdf", "", "SDF file to read the first usable record from")
	cmd.Flags().StringVar(&editor, "editor", "", "editor JSON payload")
	cmd.Flags().BoolVar(&withInfo, "info", false, "also print formula, weight and counts")
	cmd.MarkFlagsMutuallyExclusive("sdf", "editor")
	return cmd
}

// validateInput picks the single input source given on the command line.
func validateInput(args []string, sdfPath, editor string, editorSet bool) (molecule.Input, error) {
	sources := 0
	if len(args) > 0 {
		sources++
	}
	if sdfPath != "" {
		sources++
	}
	if editorSet {
		sources++
	}
	if sources == 0 {
		return nil, apperrors.New(apperrors.ErrCodeMoleculeNoInput, molecule.MsgNoMolecule)
	}
	if sources > 1 {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "give exactly one of [smiles], --sdf or --editor")
	}

	switch {
	case sdfPath != "":
		data, err := os.ReadFile(sdfPath)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeSDFReadFailed, "Error reading SDF file")
		}
		return molecule.StructureFileInput{Name: filepath.Base(sdfPath), Data: data}, nil
	case editorSet:
		payload, err := molecule.DecodeEditorPayload([]byte(editor))
		if err != nil {
			return nil, err
		}
		return molecule.EditorInput{Payload: payload}, nil
	default:
		return molecule.TextInput{Raw: args[0]}, nil
	}
}

func rejected(in molecule.Input) error {
	if in.Method() == molecule.MethodEditor {
		return apperrors.New(apperrors.ErrCodeMoleculeNoInput, molecule.MsgDrawMolecule)
	}
	err := apperrors.New(apperrors.ErrCodeMoleculeInvalidSMILES, molecule.MsgNoMolecule)
	if t, ok := in.(molecule.TextInput); ok && strings.TrimSpace(t.Raw) != "" {
		return err.WithDetail(t.Raw)
	}
	return err
}

func newInfoCmd() *cobra.Command {
	var smiles string

	cmd := &cobra.Command{
		Use:   "info [smiles]",
		Short: "Print formula, molecular weight and atom/bond counts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if smiles == "" && len(args) > 0 {
				smiles = args[0]
			}
			if strings.TrimSpace(smiles) == "" {
				return apperrors.New(apperrors.ErrCodeMoleculeNoInput, molecule.MsgNoMolecule)
			}
			id, ok := molecule.Validate(smiles)
			if !ok {
				return apperrors.New(apperrors.ErrCodeMoleculeInvalidSMILES, molecule.MsgNoMolecule).WithDetail(smiles)
			}
			summary, err := reporting.MoleculeInfo(id)
			if err != nil {
				return err
			}
			return PrintResult(cmd, InfoResult(*summary))
		},
	}

	cmd.Flags().StringVarP(&smiles, "smiles", "s", "", "molecule as SMILES")
	return cmd
}
