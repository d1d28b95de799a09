package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fundingdata/internal/application"
	"github.com/JonMunkholm/fundingdata/internal/ingest"
	"github.com/JonMunkholm/fundingdata/internal/precheck"
	"github.com/JonMunkholm/fundingdata/internal/validate"
	"github.com/JonMunkholm/fundingdata/internal/workbook"
)

// errRejected is returned after the failures have been printed.
var errRejected = errors.New("workbook rejected")

type submitOptions struct {
	Round     int
	Fund      string
	Auth      string
	AccountID string
	UserEmail string
	DryRun    bool
}

func (o *submitOptions) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.Round, "round", 0, "reporting round")
	cmd.Flags().StringVar(&o.Fund, "fund", "", "fund code, template label or name")
	cmd.Flags().StringVar(&o.Auth, "auth", "", `authorisation claims JSON, e.g. {"place_names":["Sampleford"]}`)
	_ = cmd.MarkFlagRequired("round")
}

// request reads path and builds the submission.
func (o *submitOptions) request(path string) (ingest.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ingest.Request{}, err
	}
	wb, err := workbook.ParseBytes(data)
	if err != nil {
		return ingest.Request{}, errors.Wrapf(err, "read %s", path)
	}

	req := ingest.Request{
		Round:     o.Round,
		Fund:      o.Fund,
		Workbook:  wb,
		File:      data,
		Filename:  filepath.Base(path),
		DoLoad:    !o.DryRun,
		AccountID: o.AccountID,
		UserEmail: o.UserEmail,
	}
	if auth := strings.TrimSpace(o.Auth); auth != "" && auth != "null" {
		req.Claims = &precheck.Claims{}
		if err := json.Unmarshal([]byte(auth), req.Claims); err != nil {
			return ingest.Request{}, errors.Wrap(err, "--auth")
		}
	}
	return req, nil
}

func newIngestCmd() *cobra.Command {
	var opts submitOptions

	cmd := &cobra.Command{
		Use:   "ingest <file.xlsx> --round <n> [--fund <code>]",
		Short: "Validate a workbook and load it into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := application.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.Service.Ingest(cmd.Context(), req)
			return report(cmd.OutOrStdout(), res, err)
		},
	}
	opts.bind(cmd)
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "validate without loading")
	cmd.Flags().StringVar(&opts.AccountID, "account", "", "submitting account id")
	cmd.Flags().StringVar(&opts.UserEmail, "email", "", "submitting user email")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var opts submitOptions

	cmd := &cobra.Command{
		Use:   "check <file.xlsx> --round <n>",
		Short: "Validate a workbook without a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request(args[0])
			if err != nil {
				return err
			}
			svc, err := ingest.New(nil, ingest.Options{})
			if err != nil {
				return err
			}
			res, err := svc.Check(cmd.Context(), req)
			return report(cmd.OutOrStdout(), res, err)
		},
	}
	opts.bind(cmd)
	return cmd
}

type rejection struct {
	Detail                  string             `json:"detail"`
	PreTransformationErrors []string           `json:"pre_transformation_errors"`
	ValidationErrors        []validate.Failure `json:"validation_errors"`
}

// report prints the result, or the failures of a rejected workbook.
// Other errors are returned untouched.
func report(w io.Writer, res *ingest.Result, err error) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err == nil {
		return enc.Encode(res)
	}

	rej := rejection{
		Detail:                  "Workbook validation failed",
		PreTransformationErrors: []string{},
		ValidationErrors:        []validate.Failure{},
	}
	var pe *precheck.Error
	var ve *ingest.ValidationError
	switch {
	case errors.As(err, &pe):
		rej.PreTransformationErrors = pe.Messages
	case errors.As(err, &ve):
		rej.ValidationErrors = ve.Failures
	default:
		return err
	}
	if err := enc.Encode(rej); err != nil {
		return err
	}
	return errRejected
}
