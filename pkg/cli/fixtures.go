package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/goax/pkg/provider/fixture"
)

// NewFixturesCommand creates the fixtures command group
func NewFixturesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fixtures",
		Aliases: []string{"fixture"},
		Short:   "Manage stored fixture trees",
		Long: `Manage the fixture trees stored in the configuration directory.

A stored fixture can be selected with --fixture <name> or provider.fixture in
the configuration file.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored fixtures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := fixtureRepository()
			if err != nil {
				return err
			}
			names, err := repo.List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if GlobalConfig.JSON {
				return printJSON(out, names)
			}
			if len(names) == 0 {
				fmt.Fprintf(out, "No fixtures in %s\n", repo.Dir())
				return nil
			}
			for _, name := range names {
				marker := " "
				if name == current.cfg.Provider.Fixture {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, name)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name> <file>",
		Short: "Validate a fixture file and store it under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := fixtureRepository()
			if err != nil {
				return err
			}
			if err := repo.Import(args[0], args[1]); err != nil {
				return err
			}
			current.logger.Info("fixture stored", "name", args[0], "source", args[1])
			fmt.Fprintf(cmd.OutOrStdout(), "%s Stored fixture %s\n", paint(colorGreen, "✓"), args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "demo <name>",
		Short: "Store the built-in demo tree as a starting point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := fixtureRepository()
			if err != nil {
				return err
			}
			if err := repo.Save(args[0], fixture.Demo()); err != nil {
				return err
			}
			path, err := repo.Path(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Stored demo fixture at %s\n", paint(colorGreen, "✓"), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a stored fixture",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := fixtureRepository()
			if err != nil {
				return err
			}
			if err := repo.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted fixture %s\n", paint(colorGreen, "✓"), args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path <name>",
		Short: "Print the file backing a stored fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := fixtureRepository()
			if err != nil {
				return err
			}
			path, err := repo.Path(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	return cmd
}
