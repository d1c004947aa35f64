package cmd

import (
	"github.com/spf13/cobra"
)

var raw, strict bool

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render TEMPLATE MODEL",
	Short: "render prints a template bound to a model.",
	Long: `
		Render binds the HTML template to the model and prints the result.
		Arrays of the model feed the each directives of the template.
		Directives which fail to bind are logged; use --strict to fail instead.
	`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open(args[0], args[1])
		if err != nil {
			return err
		}
		defer s.close()
		return s.print(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().BoolVar(&raw, "raw", false, "print the markup without indentation")
	renderCmd.Flags().BoolVar(&strict, "strict", false, "fail when a directive cannot be bound")
}
