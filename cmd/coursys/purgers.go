package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"coursys/courselib/pkg/cli"
	"coursys/courselib/pkg/config"
)

var purgersCmd = &cobra.Command{
	Use:   "purgers",
	Short: "List the models that will be purged",
	Long: `List every discovered purge unit in execution order, with where its
policy comes from and what it deletes. The database is not opened.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return listPurgers(cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(purgersCmd)
}

func listPurgers(cfg *config.Config, out io.Writer) error {
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	units, err := discoverUnits(cfg, logger)
	if err != nil {
		return cli.NewCommandError("purgers", err)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tSOURCE\tPOLICY")
	for _, u := range units {
		policy := u.Describe()
		if u.Err != nil {
			policy = fmt.Sprintf("invalid: %v", u.Err)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.Model, u.Source, policy)
	}
	return tw.Flush()
}
