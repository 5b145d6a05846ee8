package console

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/km-arc/go-ioc/framework/app"
	"github.com/km-arc/go-ioc/framework/container"
)

// ── check ─────────────────────────────────────────────────────────────────────

func newCheckCommand(types *container.TypeRegistry) *cobra.Command {
	return &cobra.Command{
		Use:   "check [FILES...]",
		Short: "Load definitions and build every eager singleton",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			application, err := newApplication(cmd, types, args)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, application.Shutdown(context.Background())) }()

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d definitions, %d singletons built\n",
				len(application.IDs()), len(application.Objects()))
			return err
		},
	}
}

// ── defs ──────────────────────────────────────────────────────────────────────

func newDefsCommand(types *container.TypeRegistry) *cobra.Command {
	return &cobra.Command{
		Use:   "defs [FILES...]",
		Short: "List object definitions without building anything",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			application, err := newApplication(cmd, types, args, app.WithoutEagerInit())
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, application.Shutdown(context.Background())) }()

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "Class", "Scope", "Lazy", "Abstract", "Parent"})
			for _, id := range application.IDs() {
				def, ok := application.ObjectDef(id)
				if !ok {
					continue
				}
				t.AppendRow(table.Row{
					def.ID, def.Class, def.Scope.String(),
					strconv.FormatBool(def.LazyInit), strconv.FormatBool(def.Abstract), def.Parent,
				})
			}
			style := table.StyleLight
			style.Options.DrawBorder = false
			t.SetStyle(style)
			t.Render()
			return nil
		},
	}
}

// ── get ───────────────────────────────────────────────────────────────────────

func newGetCommand(types *container.TypeRegistry) *cobra.Command {
	var trace bool
	cmd := &cobra.Command{
		Use:   "get ID [FILES...]",
		Short: "Build one object and print it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			application, err := newApplication(cmd, types, args[1:], app.WithoutEagerInit())
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, application.Shutdown(context.Background())) }()

			out := cmd.OutOrStdout()
			if trace {
				application.AfterResolving(func(id string, _ any) {
					fmt.Fprintf(out, "built %s\n", id)
				})
			}
			obj, err := application.GetObject(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "%T %v\n", obj, obj)
			return err
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "print every object built, in construction order")
	return cmd
}

// ── serve ─────────────────────────────────────────────────────────────────────

func newServeCommand(types *container.TypeRegistry) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve [FILES...]",
		Short: "Start the container and serve the inspection endpoints until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			s.Inspect.Enabled = true
			if addr != "" {
				s.Inspect.Addr = addr
			}
			application, err := app.New(appOptions(cmd, types, s, args)...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return application.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides IOC_INSPECT_ADDR)")
	return cmd
}
