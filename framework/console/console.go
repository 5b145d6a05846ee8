// Package console is the ioc command line: it loads definition files into a
// container and reports on them.
//
//	ioc check app.xml extra.yaml
//	ioc defs app.xml
//	ioc get --trace movieLister app.xml
//	ioc serve app.xml
package console

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-ioc/framework/app"
	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/framework/settings"
)

const (
	envFileFlag   = "env-file"
	logLevelFlag  = "log-level"
	logFormatFlag = "log-format"
)

// Execute runs the root command and exits non-zero on failure.
// This is called by main.main().
func Execute(types *container.TypeRegistry) {
	if err := New(types).Execute(); err != nil {
		os.Exit(1)
	}
}

// New returns the root command. Class names in definition files resolve
// against types.
func New(types *container.TypeRegistry) *cobra.Command {
	if types == nil {
		types = container.DefaultTypes()
	}

	cmd := &cobra.Command{
		Use:   "ioc [sub-command]",
		Short: "Inspect and run object definition files",
		Long: `ioc reads XML and YAML object definitions into an inversion of control
container. Files given on the command line replace IOC_SOURCES.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	cmd.PersistentFlags().StringSlice(envFileFlag, nil, "env files to load settings from (default .env)")
	cmd.PersistentFlags().String(logLevelFlag, "", "log level: debug, info, warn or error (overrides IOC_LOG_LEVEL)")
	cmd.PersistentFlags().String(logFormatFlag, "", "log format: text or json (overrides IOC_LOG_FORMAT)")

	cmd.AddCommand(
		newCheckCommand(types),
		newDefsCommand(types),
		newGetCommand(types),
		newServeCommand(types),
	)
	return cmd
}

// loadSettings reads the environment and applies the persistent flags on top.
func loadSettings(cmd *cobra.Command) (*settings.Settings, error) {
	flags := cmd.Flags()
	envFiles, err := flags.GetStringSlice(envFileFlag)
	if err != nil {
		return nil, err
	}
	s := settings.Load(envFiles...)

	if level, _ := flags.GetString(logLevelFlag); level != "" {
		s.Log.Level = level
	}
	if format, _ := flags.GetString(logFormatFlag); format != "" {
		s.Log.Format = format
	}
	return s, nil
}

// newApplication starts a container over files, or IOC_SOURCES when none are
// given.
func newApplication(cmd *cobra.Command, types *container.TypeRegistry, files []string, opts ...app.Option) (*app.Application, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(append(appOptions(cmd, types, s, files), opts...)...)
}

// appOptions points the application at s and files. Logs go to the command's
// error stream.
func appOptions(cmd *cobra.Command, types *container.TypeRegistry, s *settings.Settings, files []string) []app.Option {
	opts := []app.Option{
		app.WithSettings(s),
		app.WithTypes(types),
		app.WithLogWriter(cmd.ErrOrStderr()),
	}
	if len(files) > 0 {
		opts = append(opts, app.WithSources(files...))
	}
	return opts
}
