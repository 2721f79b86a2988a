package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"diabetes-console/internal/controller"
	"diabetes-console/internal/render"
	"diabetes-console/internal/terminal"
	"diabetes-console/internal/view"
)

// outcome turns what the controller did into an exit status. Alerts fail the
// command, and so does any navigation not listed in expected.
func outcome(v *terminal.View, expected ...view.Page) error {
	if len(v.Alerts()) > 0 {
		return &exitCodeError{code: ExitFailure}
	}
	if p, moved := v.Navigated(); moved && !slices.Contains(expected, p) {
		return &exitCodeError{code: ExitFailure}
	}
	return nil
}

func newLoginCmd(opts *globalOptions) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the access token",
		Long: `Log in with a username and password. The password may also be given in
the DIABETESCTL_PASSWORD environment variable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("DIABETESCTL_PASSWORD")
			}
			if username == "" || password == "" {
				return exitError(ExitUsage, "login: --username and --password are required")
			}

			c, err := opts.open()
			if err != nil {
				return err
			}
			defer c.Close()

			v := terminal.New(view.PageIndex, cmd.OutOrStdout(), cmd.ErrOrStderr())
			c.controller(v).Login(cmd.Context(), username, password)
			return outcome(v, view.Landing)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func newUploadCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Upload a patient report and show the extracted data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return exitError(ExitUsage, "upload: cannot open %q (%v)", args[0], err)
			}
			defer f.Close()

			c, err := opts.open()
			if err != nil {
				return err
			}
			defer c.Close()

			v := terminal.New(view.PageDashboard, cmd.OutOrStdout(), cmd.ErrOrStderr())
			c.controller(v).Upload(cmd.Context(), &controller.Upload{
				Name:    filepath.Base(args[0]),
				Content: f,
			})
			return outcome(v)
		},
	}
}

// bannerView remembers the last banner shown.
type bannerView struct {
	*terminal.View
	last *render.Banner
}

func (b *bannerView) ShowBanner(banner render.Banner) {
	b.last = &banner
	b.View.ShowBanner(banner)
}

func newPredictCmd(opts *globalOptions) *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run a model on the last uploaded report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.open()
			if err != nil {
				return err
			}
			defer c.Close()

			tv := terminal.New(view.PageDashboard, cmd.OutOrStdout(), cmd.ErrOrStderr())
			v := &bannerView{View: tv}
			c.controller(v).SelectModel(cmd.Context(), model)
			if err := outcome(tv); err != nil {
				return err
			}
			if b := v.last; b != nil && !b.IsPrediction() && b.Style == render.StyleDanger {
				return &exitCodeError{code: ExitFailure}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", render.ModelClassical, "model to run: classical, transformer or neural")
	return cmd
}

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var exportPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past predictions and their trends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.open()
			if err != nil {
				return err
			}
			defer c.Close()

			v := terminal.New(view.PageHistory, cmd.OutOrStdout(), cmd.ErrOrStderr())
			ctrl := c.controller(v)

			if exportPath == "" {
				ctrl.PageLoad(cmd.Context())
				return outcome(v)
			}

			if ctrl.Bootstrap() {
				return outcome(v)
			}
			f, err := os.Create(exportPath)
			if err != nil {
				return exitError(ExitUsage, "history: cannot create %q (%v)", exportPath, err)
			}
			ok := ctrl.ExportHistory(cmd.Context(), f)
			if cerr := f.Close(); cerr != nil && ok {
				return exitError(ExitFailure, "history: write %q (%v)", exportPath, cerr)
			}
			if !ok {
				_ = os.Remove(exportPath)
				return outcome(v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "History exported to %s\n", exportPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&exportPath, "export", "", "write the history to an XLSX workbook instead of printing it")
	return cmd
}

func newLogoutCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.open()
			if err != nil {
				return err
			}
			defer c.Close()

			v := terminal.New(view.PageDashboard, cmd.OutOrStdout(), cmd.ErrOrStderr())
			c.controller(v).Logout()
			return outcome(v, view.Entry)
		},
	}
}

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session state and probe the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.open()
			if err != nil {
				return err
			}
			defer c.Close()

			out := cmd.OutOrStdout()
			tbl := terminal.NewTable(terminal.Column{Header: "item"}, terminal.Column{Header: "value"})
			tbl.AddRow("backend", c.cfg.BackendURL)
			tbl.AddRow("store", fmt.Sprintf("%s (%s)", c.cfg.Storage, c.cfg.StoragePath))
			if c.sess.LoggedIn() {
				tbl.AddRow("session", "logged in")
			} else {
				tbl.AddRow("session", "logged out")
			}

			pingErr := c.client.Ping(cmd.Context())
			if pingErr != nil {
				tbl.AddRow("api", "unreachable: "+pingErr.Error())
			} else {
				tbl.AddRow("api", "reachable")
			}
			if err := tbl.Render(out); err != nil {
				return err
			}
			if pingErr != nil {
				return &exitCodeError{code: ExitFailure}
			}
			return nil
		},
	}
}
