package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dephub/solcix/providers/compile"
	"github.com/dephub/solcix/providers/installer"
	"github.com/dephub/solcix/providers/versioneer"
	"github.com/dephub/solcix/solcix"
)

// newRootCommand builds the command tree. The returned func releases what the
// executed command opened and must be called once it has returned.
func newRootCommand() (*cobra.Command, func() error) {
	var (
		verbose bool
		a       *app
	)
	logger := logrus.New()

	root := &cobra.Command{
		Use:           "solcix",
		Short:         "Manage and switch between solidity compiler versions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.SetOutput(cmd.ErrOrStderr())
			logger.SetLevel(logrus.InfoLevel)
			if verbose {
				logger.SetLevel(logrus.DebugLevel)
			}
			cfg, err := solcix.Load()
			if err != nil {
				return errors.Wrap(err, "failed to load the configuration")
			}
			a, err = newApp(cfg, logger)
			return err
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	get := func() *app { return a }
	root.AddCommand(
		newInstallCommand(get),
		newUninstallCommand(get),
		newListCommand(get),
		newUseCommand(get),
		newCurrentCommand(get),
		newResolveCommand(get),
		newInstallFromCommand(get),
		newVerifyCommand(get),
		newUpgradeCommand(get),
		newCacheCommand(get),
		newRunCommand(get),
	)

	closeApp := func() error {
		if a == nil {
			return nil
		}
		err := a.Close()
		a = nil
		return err
	}
	return root, closeApp
}

// printReport writes the report and returns an error if any version failed.
func printReport(w io.Writer, report installer.Report) error {
	for _, v := range report.Installed {
		fmt.Fprintf(w, "installed %s\n", v) //nolint:errcheck
	}
	for _, v := range report.Removed {
		fmt.Fprintf(w, "uninstalled %s\n", v) //nolint:errcheck
	}
	for _, v := range report.Verified {
		fmt.Fprintf(w, "verified %s\n", v) //nolint:errcheck
	}
	for _, v := range report.Skipped {
		fmt.Fprintf(w, "skipped %s\n", v) //nolint:errcheck
	}
	if report.OK() {
		return nil
	}
	failed := make([]string, 0, len(report.Failed))
	for v := range report.Failed {
		failed = append(failed, v)
	}
	sort.Strings(failed)
	for _, v := range failed {
		fmt.Fprintf(w, "failed %s: %v\n", v, report.Failed[v]) //nolint:errcheck
	}
	return errors.Errorf("%d version(s) failed", len(failed))
}

func newInstallCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "install VERSION...",
		Short: "Install solc versions ('latest' installs the latest release)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := get().inst.Install(cmd.Context(), args...)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report)
		},
	}
}

func newUninstallCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall VERSION...",
		Short: "Remove installed solc versions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := get().inst.Uninstall(cmd.Context(), args...)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report)
		},
	}
}

func newListCommand(get func() *app) *cobra.Command {
	var (
		installed   bool
		installable bool
		filter      string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published, installed or installable solc versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			var (
				versions []string
				err      error
			)
			switch {
			case installed && installable:
				return errors.New("--installed and --installable are mutually exclusive")
			case installed:
				versions, err = a.inst.Installed()
			case installable:
				versions, err = a.inst.Installable(cmd.Context())
			default:
				var c *versioneer.Catalog
				if c, err = a.resolver.Catalog(cmd.Context()); err == nil {
					versions = c.Strings()
				}
			}
			if err != nil {
				return err
			}
			if filter != "" {
				if versions, err = filterVersions(versions, filter); err != nil {
					return err
				}
			}
			for _, v := range versions {
				fmt.Fprintln(cmd.OutOrStdout(), v) //nolint:errcheck
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&installed, "installed", false, "list installed versions")
	cmd.Flags().BoolVar(&installable, "installable", false, "list versions which are not installed yet")
	cmd.Flags().StringVar(&filter, "filter", "", "semver range the versions must satisfy (e.g. '>=0.8.0, <0.8.10')")
	return cmd
}

// filterVersions keeps the versions satisfying the semver range expression.
func filterVersions(versions []string, expr string) ([]string, error) {
	releases := make(map[string]string, len(versions))
	for _, v := range versions {
		releases[v] = ""
	}
	c, err := versioneer.NewCatalog(releases, "")
	if err != nil {
		return nil, err
	}
	return c.Filter(expr)
}

func newUseCommand(get func() *app) *cobra.Command {
	var alwaysInstall bool
	cmd := &cobra.Command{
		Use:       "use global|local VERSION",
		Short:     "Pin the solc version globally or for the current directory",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"global", "local"},
		RunE: func(cmd *cobra.Command, args []string) error {
			m := get().manager
			switch args[0] {
			case "global":
				return m.UseGlobal(cmd.Context(), args[1], alwaysInstall)
			case "local":
				return m.UseLocal(cmd.Context(), args[1], alwaysInstall)
			}
			return errors.Errorf("unknown scope %q, expected 'global' or 'local'", args[0])
		},
	}
	cmd.Flags().BoolVar(&alwaysInstall, "always-install", false, "install the version if it is missing")
	return cmd
}

func newCurrentCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the pinned solc version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			version, origin, err := get().manager.Current()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (set by %s)\n", version, origin) //nolint:errcheck
			return nil
		},
	}
}

// repoFlags selects a git repository the source paths are read from.
type repoFlags struct {
	repo, ref string
}

func (rf *repoFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&rf.repo, "repo", "", "read the source from a github repository (e.g. 'https://github.com/vendor/repo.git')")
	cmd.Flags().StringVar(&rf.ref, "ref", "", "branch, tag or commit of --repo")
}

func (rf *repoFlags) resolver(a *app) (*solcix.Resolver, error) {
	if rf.repo == "" {
		return a.resolver, nil
	}
	src, err := solcix.NewGitSource(solcix.GitHubClient(nil, a.cfg.GitHubToken), rf.repo, rf.ref)
	if err != nil {
		return nil, err
	}
	return a.resolver.WithSource(src), nil
}

func newResolveCommand(get func() *app) *cobra.Command {
	var rf repoFlags
	cmd := &cobra.Command{
		Use:   "resolve FILE|SOURCE",
		Short: "Show the versions compatible with the pragma of a solidity source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := rf.resolver(get())
			if err != nil {
				return err
			}
			p, err := r.ResolveSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if p == nil {
				return solcix.ErrNoPragma
			}
			sel, err := r.Compatible(cmd.Context(), p)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "pragma: %s\n", p) //nolint:errcheck
			if sel.IsPinned() {
				fmt.Fprintf(w, "compatible: %s\n", sel.Pinned) //nolint:errcheck
			} else {
				fmt.Fprintf(w, "compatible: %s\n", strings.Join(sel.Versions, ", ")) //nolint:errcheck
			}
			recommended, err := r.Recommended(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "recommended: %s\n", recommended) //nolint:errcheck
			return nil
		},
	}
	rf.register(cmd)
	return cmd
}

func newInstallFromCommand(get func() *app) *cobra.Command {
	var rf repoFlags
	cmd := &cobra.Command{
		Use:   "install-from FILE|SOURCE",
		Short: "Install the version recommended by the pragma of a solidity source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			r, err := rf.resolver(a)
			if err != nil {
				return err
			}
			version, err := r.InstallFromSource(cmd.Context(), args[0], a.inst, nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), version) //nolint:errcheck
			return nil
		},
	}
	rf.register(cmd)
	return cmd
}

func newVerifyCommand(get func() *app) *cobra.Command {
	var reinstall bool
	cmd := &cobra.Command{
		Use:   "verify [VERSION...]",
		Short: "Check installed versions against the published checksums",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := get().inst.Verify(cmd.Context(), args, reinstall)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().BoolVar(&reinstall, "reinstall", false, "reinstall versions failing verification")
	return cmd
}

func newUpgradeCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Reinstall every installed version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := get().manager.Upgrade(cmd.Context())
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report)
		},
	}
}

func newCacheCommand(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the release list cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop the cached release lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return get().cache.Clear()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Fetch the release list again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := get().releases.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d releases, latest %s\n", len(list.Releases), list.LatestRelease) //nolint:errcheck
			return nil
		},
	})
	return cmd
}

func newRunCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:                "run -- ARGS...",
		Short:              "Run the pinned solc with the given arguments",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && args[0] == "--" {
				args = args[1:]
			}
			solc, err := get().executable()
			if err != nil {
				return err
			}
			code, err := compile.Passthrough(cmd.Context(), solc, args, compile.Stdio{
				In:  os.Stdin,
				Out: cmd.OutOrStdout(),
				Err: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			if code != 0 {
				return &exitCodeError{code: code}
			}
			return nil
		},
	}
}
