package cli

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autowire/pkg/introspect"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "inspect [type]",
		Short: "Print the signature of a type or one of its methods",
		Long: `Print the parameters autowire reflects for a type's constructor, or for
one of its methods with --method.

Without a type argument an interactive picker lists the catalog.`,
		Example: `  autowire inspect demo.Service
  autowire inspect demo.SendReport --method Invoke
  autowire inspect`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeTypeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := c.newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			var typeID string
			if len(args) == 1 {
				typeID = args[0]
			} else {
				if typeID, err = pickType(e.catalog); err != nil {
					return err
				}
				if typeID == "" {
					return nil
				}
			}

			var sig introspect.Signature
			_, counter, err := trace(c.Logger, func() error {
				sig, err = e.introspector().Signature(ctx, typeID, method)
				return err
			})
			if err != nil {
				return err
			}

			printSuccess("%s::%s", StyleHighlight.Render(typeID), method)
			if len(sig) == 0 {
				printDetail("no parameters")
			} else {
				fmt.Println(signatureTable(sig))
			}
			printStats(0, 0, counter.allCached())
			printNewline()
			printNextStep("Build it", "autowire resolve "+typeID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", introspect.Constructor, "method to inspect")

	return cmd
}

// pickType runs the interactive type picker. It returns "" when the user
// quits without choosing.
func pickType(catalog *introspect.Catalog) (string, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
		return "", errors.New("a type argument is required when not running in a terminal")
	}
	final, err := tea.NewProgram(newTypeListModel(catalog)).Run()
	if err != nil {
		return "", fmt.Errorf("type picker: %w", err)
	}
	return final.(typeListModel).Selected, nil
}
