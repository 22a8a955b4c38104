package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/eod/internal/assistant"
	"github.com/sadopc/eod/internal/dashboard"
	"github.com/sadopc/eod/internal/export"
	"github.com/sadopc/eod/internal/reporting"
	"github.com/sadopc/eod/internal/tui"
)

var errManagerOnly = errors.New("only managers can ask the AI analyst")

type cli struct {
	configFile string
	open       func(ctx context.Context, configFile string) (*env, error)
	env        *env
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "eod",
		Short: "End-of-day sales reporting for telecallers and managers",
		Long: `eod collects end-of-day reports from telecallers and gives managers a
team dashboard, CSV/JSON export and an AI analyst.

Run without arguments to start the terminal UI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.open(cmd.Context(), c.configFile)
			if err != nil {
				return err
			}
			c.env = e
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.close()
		},
		RunE: c.runTUI,
	}
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default ~/.config/eod/config.yaml)")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.usersCmd(),
		c.statsCmd(),
		c.exportCmd(),
		c.askCmd(),
		c.summarizeCmd(),
		c.settingsCmd(),
	)
	return root
}

// close releases the environment. Cobra skips post-run hooks when a command
// fails, so callers of Execute call it too.
func (c *cli) close() {
	if c.env != nil {
		c.env.Close()
		c.env = nil
	}
}

func (c *cli) runTUI(cmd *cobra.Command, args []string) error {
	app := tui.NewApp(tui.Options{
		Service:   c.env.svc,
		Assistant: c.env.ai,
		Logger:    c.env.logger.Named("tui"),
		Splash:    c.env.cfg.Splash.Duration,
		ExportDir: c.env.cfg.ExportDir,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// userError maps service errors to the text the UI would show.
func userError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(reporting.UserMessage(err))
}

func (c *cli) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in as a directory user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.env.svc.Login(args[0])
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", u.Name, u.Role)
			return nil
		},
	}
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.env.svc.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, ok := c.env.svc.CurrentUser()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", u.Name, u.Email, u.Role)
			return nil
		},
	}
}

func (c *cli) usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List the accounts that can sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, u := range c.env.svc.Directory().Users() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %-16s %s\n", u.Email, u.Name, u.Role)
			}
			return nil
		},
	}
}

func (c *cli) windowFlag(cmd *cobra.Command) *string {
	return cmd.Flags().StringP("window", "w", "", "time window: today, week, month or all (default from settings)")
}

func (c *cli) resolveWindow(s string) (dashboard.Window, error) {
	if s == "" {
		return c.env.svc.DefaultWindow(), nil
	}
	return dashboard.ParseWindow(s)
}

func (c *cli) statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print dashboard totals for the signed-in user",
		Args:  cobra.NoArgs,
	}
	window := c.windowFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		w, err := c.resolveWindow(*window)
		if err != nil {
			return err
		}
		v, err := c.env.svc.Dashboard(w)
		if err != nil {
			return userError(err)
		}
		printStats(cmd.OutOrStdout(), v)
		return nil
	}
	return cmd
}

func printStats(out io.Writer, v dashboard.View) {
	if v.Empty {
		fmt.Fprintln(out, "No Reports Yet")
		return
	}
	t := v.Summary
	fmt.Fprintf(out, "%s: %d reports\n", v.Window.Label(), len(v.Reports))
	fmt.Fprintf(out, "  Total Dials       %6d\n", t.CallsDialed)
	fmt.Fprintf(out, "  Total Connected   %6d\n", t.CallsConnected)
	fmt.Fprintf(out, "  Total Explained   %6d\n", t.ProjectsExplained)
	fmt.Fprintf(out, "  Visits Scheduled  %6d\n", t.ScheduledVisits)
	fmt.Fprintf(out, "  Visits Completed  %6d\n", t.CompletedVisits)
	fmt.Fprintf(out, "  New Leads         %6d\n", t.Leads)

	if !v.Viewer.IsManager() || len(v.Leaderboard) == 0 {
		return
	}
	fmt.Fprintln(out, "\nLeaderboard")
	for i, st := range v.Leaderboard {
		fmt.Fprintf(out, "  %2d. %-20s dialed %5d  connected %5d  reports %3d\n",
			i+1, st.Name, st.CallsDialed, st.CallsConnected, st.ReportCount)
	}
}

func (c *cli) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every report to a CSV or JSON file (managers only)",
		Args:  cobra.NoArgs,
	}
	format := cmd.Flags().StringP("format", "f", "csv", "export format: csv or json")
	out := cmd.Flags().StringP("out", "o", "", "output directory (default export_dir)")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		f, err := export.ParseFormat(*format)
		if err != nil {
			return err
		}
		dir := *out
		if dir == "" {
			dir = c.env.cfg.ExportDir
		}
		path, err := c.env.svc.Export(f, dir)
		if err != nil {
			return userError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
		return nil
	}
	return cmd
}

func (c *cli) askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the AI analyst about the reports in a window (managers only)",
		Args:  cobra.MinimumNArgs(1),
	}
	window := c.windowFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		w, err := c.resolveWindow(*window)
		if err != nil {
			return err
		}
		v, err := c.env.svc.Dashboard(w)
		if err != nil {
			return userError(err)
		}
		if !v.Viewer.IsManager() {
			return errManagerOnly
		}
		answer, err := c.env.ai.Answer(cmd.Context(), v.Reports, strings.Join(args, " "))
		if err != nil {
			return errors.New(assistant.UserMessage(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	}
	return cmd
}

func (c *cli) summarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a visible report, newest first",
		Args:  cobra.NoArgs,
	}
	index := cmd.Flags().IntP("index", "n", 0, "report to summarize, 0 is the newest")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		v, err := c.env.svc.Dashboard(dashboard.All)
		if err != nil {
			return userError(err)
		}
		if *index < 0 || *index >= len(v.Reports) {
			return fmt.Errorf("no report at index %d (%d visible)", *index, len(v.Reports))
		}
		r := v.Reports[*index]
		text, err := c.env.ai.Summarize(cmd.Context(), r)
		if err != nil {
			return errors.New(assistant.UserMessage(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s, %s, %s\n\n%s\n",
			r.TelecallerName, r.PartnerFirm, r.Date.Local().Format("1/2/2006"), text)
		return nil
	}
	return cmd
}

func (c *cli) settingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Show stored preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := c.env.store.GetAllSettings()
			if err != nil {
				return err
			}
			for _, st := range settings {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", st.Key, st.Value)
			}
			return nil
		},
	}
}
