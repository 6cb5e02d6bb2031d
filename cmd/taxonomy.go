package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-fit/internal/taxonomy"
)

var taxonomyCmd = &cobra.Command{
	Use:       "taxonomy [resume|job]",
	Short:     "Print the active skill taxonomies",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{taxonomy.ResumeName, taxonomy.JobName},
	Run: func(cmd *cobra.Command, args []string) {
		runTaxonomy(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(taxonomyCmd)

	taxonomyCmd.Flags().StringP("format", "f", formatText, "output format: text or json")
}

func runTaxonomy(cmd *cobra.Command, args []string) {
	logger, err := newLogger("stderr")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	registry, err := buildRegistry(config, logger)
	if err != nil {
		logger.Fatal("loading taxonomies", zap.Error(err))
	}

	resume, job := registry.Snapshot()
	tables := []*taxonomy.Taxonomy{resume, job}
	if len(args) == 1 {
		tables = tables[:0]
		if args[0] == taxonomy.ResumeName {
			tables = append(tables, resume)
		} else {
			tables = append(tables, job)
		}
	}

	format, _ := cmd.Flags().GetString("format")
	if err := writeTaxonomies(cmd.OutOrStdout(), format, tables); err != nil {
		logger.Fatal("writing taxonomies", zap.Error(err))
	}
}

func writeTaxonomies(w io.Writer, format string, tables []*taxonomy.Taxonomy) error {
	switch format {
	case formatJSON:
		out := make(map[string][]taxonomy.Domain, len(tables))
		for _, t := range tables {
			out[t.Name()] = t.Domains()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case formatText:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for i, t := range tables {
			if i > 0 {
				fmt.Fprintln(tw)
			}
			fmt.Fprintf(tw, "%s taxonomy\n", t.Name())
			for _, d := range t.Domains() {
				fmt.Fprintf(tw, "  %s\t%s\n", d.Name, strings.Join(d.Keywords, ", "))
			}
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
