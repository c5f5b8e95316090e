package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "resolve <type>",
		Short: "Build an instance of a type and print its construction tree",
		Long: `Build an instance of a type with all of its dependencies.

Overrides are given as key=value and apply to every parameter with that
name along the way. Values are parsed as YAML scalars; a key prefixed with
":" names a type id to build for that parameter.`,
		Example: `  autowire resolve demo.Service
  autowire resolve demo.Service --set retries=5 --set sender=ops@example.com
  autowire resolve demo.Mailer --set :logger=demo.Logger`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeTypeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			overrides, err := parseOverrides(sets)
			if err != nil {
				return err
			}
			e, err := c.newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			var v any
			rec, counter, err := trace(c.Logger, func() error {
				v, err = e.resolver.Resolve(ctx, args[0], overrides)
				return err
			})
			if err != nil {
				return err
			}

			g := rec.graph()
			printSuccess("Resolved %s as %T", StyleHighlight.Render(args[0]), v)
			printTree(g, args[0])
			printDetail("%+v", v)
			printStats(g.NodeCount(), g.EdgeCount(), counter.allCached())
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&sets, "set", "s", nil, "argument override key=value (repeatable)")

	return cmd
}

// invokeCommand creates the invoke command.
func (c *CLI) invokeCommand() *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "invoke <target>",
		Short: "Build a type and call its Invoke method, or call Type::Method",
		Example: `  autowire invoke demo.SendReport --set recipients=a@example.com,b@example.com
  autowire invoke demo.SendReport --set recipients=ops@example.com --set subject=outage`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeTypeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			overrides, err := parseOverrides(sets)
			if err != nil {
				return err
			}
			e, err := c.newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			out, err := e.resolver.Invoke(ctx, args[0], overrides)
			if err != nil {
				return err
			}
			printSuccess("Invoked %s", StyleHighlight.Render(args[0]))
			if out != nil {
				fmt.Println(out)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&sets, "set", "s", nil, "argument override key=value (repeatable)")

	return cmd
}
