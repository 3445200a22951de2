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
	domain "github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fluoriclogppka-studio/pkg/client"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// PredictResult is the output of the predict command.
type PredictResult client.Prediction

// RenderText implements textRenderer.
func (r PredictResult) RenderText(w io.Writer) {
	fmt.Fprintln(w, r.Headline)
}

// TableHeaders implements tableProvider.
func (r PredictResult) TableHeaders() []string { return []string{"SMILES", "TARGET", "VALUE"} }

// TableRows implements tableProvider.
func (r PredictResult) TableRows() [][]string {
	return [][]string{{r.Result.SMILES, r.Result.Target, r.Value}}
}

// FeaturesResult is the output of the features command.
type FeaturesResult client.Features

// RenderText implements textRenderer.
func (r FeaturesResult) RenderText(w io.Writer) {
	for _, g := range r.Groups {
		fmt.Fprintln(w, g.Title)
		for _, it := range g.Items {
			fmt.Fprintf(w, "  %s: %s\n", it.Name, it.Value)
		}
	}
	if r.Table.Message != "" {
		fmt.Fprintln(w, r.Table.Message)
	}
}

// TableHeaders implements tableProvider.
func (r FeaturesResult) TableHeaders() []string {
	return []string{"KEY", "NAME", "VALUE", "TYPE"}
}

// TableRows implements tableProvider.
func (r FeaturesResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Table.Rows))
	for _, row := range r.Table.Rows {
		rows = append(rows, []string{row.Key, row.Name, fmt.Sprint(row.Value), row.Type})
	}
	return rows
}

// moleculeArgs reads --smiles or the positional argument and checks both the
// molecule and the target before any request is made.
func moleculeArgs(smiles string, args []string, target string) (molecule.Identifier, domain.Target, error) {
	if smiles == "" && len(args) > 0 {
		smiles = args[0]
	}
	if strings.TrimSpace(smiles) == "" {
		return "", "", apperrors.New(apperrors.ErrCodeMoleculeNoInput, molecule.MsgNoMolecule)
	}
	t, err := domain.ParseTarget(target)
	if err != nil {
		return "", "", err
	}
	id, ok := molecule.Validate(smiles)
	if !ok {
		return "", "", apperrors.New(apperrors.ErrCodeMoleculeInvalidSMILES, molecule.MsgNoMolecule).WithDetail(smiles)
	}
	return id, t, nil
}

func newPredictCmd() *cobra.Command {
	var smiles, target string

	cmd := &cobra.Command{
		Use:     "predict [smiles]",
		Short:   "Predict pKa or logP for a molecule",
		Example: "  fluoro predict --smiles 'OC(=O)C(F)(F)F' --target pKa",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			id, t, err := moleculeArgs(smiles, args, target)
			if err != nil {
				return err
			}
			c, err := cliCtx.remoteClient()
			if err != nil {
				return err
			}

			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()
			p, err := c.Predict(ctx, client.PredictRequest{SMILES: id.String(), Target: t.String()})
			if err != nil {
				return err
			}
			cliCtx.Logger.Debug("prediction received",
				logging.String("smiles", id.String()),
				logging.String("target", t.String()),
				logging.String("value", p.Value))
			return PrintResult(cmd, PredictResult(*p))
		},
	}

	cmd.Flags().StringVarP(&smiles, "smiles", "s", "", "molecule as SMILES")
	cmd.Flags().StringVarP(&target, "target", "t", string(domain.TargetPKa), "property to predict (pKa, logP)")
	return cmd
}

func newFeaturesCmd() *cobra.Command {
	var smiles, target, exportPath string

	cmd := &cobra.Command{
		Use:   "features [smiles]",
		Short: "Compute 3D molecular descriptors",
		Example: "  fluoro features --smiles CCO --target logP\n" +
			"  fluoro features --smiles CCO --export ./out/",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			id, t, err := moleculeArgs(smiles, args, target)
			if err != nil {
				return err
			}
			c, err := cliCtx.remoteClient()
			if err != nil {
				return err
			}

			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()
			f, err := c.Features3D(ctx, client.PredictRequest{SMILES: id.String(), Target: t.String()})
			if err != nil {
				return err
			}

			if exportPath != "" {
				path, err := exportFeatures(exportPath, f)
				if err != nil {
					return err
				}
				cliCtx.Logger.Info("3D features exported", logging.String("path", path))
				fmt.Fprintf(cmd.ErrOrStderr(), "OK: exported 3D features to %s\n", path)
			}
			return PrintResult(cmd, FeaturesResult(*f))
		},
	}

	cmd.Flags().StringVarP(&smiles, "smiles", "s", "", "molecule as SMILES")
	cmd.Flags().StringVarP(&target, "target", "t", string(domain.TargetPKa), "target property (pKa, logP)")
	cmd.Flags().StringVar(&exportPath, "export", "", "write "+reporting.ExportFileName+" to this file or directory")
	return cmd
}

// exportFeatures writes the descriptor set the way the server's download
// endpoint does.  A directory path gets the default file name.
func exportFeatures(path string, f *client.Features) (string, error) {
	m := domain.NewMapping()
	if len(f.Raw) > 0 && string(f.Raw) != "null" {
		if err := m.UnmarshalJSON(f.Raw); err != nil {
			return "", apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to decode 3D features")
		}
	}
	if m.Len() == 0 {
		return "", apperrors.New(apperrors.ErrCodeFeaturesNotAvailable, "No features available for display")
	}
	data, err := reporting.ExportJSON(m)
	if err != nil {
		return "", err
	}

	if info, statErr := os.Stat(path); (statErr == nil && info.IsDir()) || strings.HasSuffix(path, string(os.PathSeparator)) {
		path = filepath.Join(path, reporting.ExportFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeStorageError, "failed to create export directory")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeStorageError, "failed to write export")
	}
	return path, nil
}
