package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thebtf/assimilator/internal/db/sqlite"
	"github.com/thebtf/assimilator/internal/watcher"
	"github.com/thebtf/assimilator/pkg/assimilate"
	"github.com/thebtf/assimilator/pkg/table"
)

var (
	dedupeFlags         clusterFlags
	dedupeReferences    []string
	dedupeAllReferences bool
	dedupeJSON          bool
	dedupeSQLite        string
	dedupeQuery         string
	dedupeWatch         bool
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe [file.csv]",
	Short: "Print the assimilated table and the variants each value absorbed",
	Long: `Clusters the key column of a CSV file or SQLite query result and prints
the rows whose key survived as a canonical value, followed by the raw
variants each canonical value absorbed.

Two values are merged when their edit distance is greater than the
threshold and, if reference columns are given, the rows agree on every
reference column.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDedupe,
}

func init() {
	dedupeFlags.register(dedupeCmd)
	dedupeCmd.Flags().StringSliceVarP(&dedupeReferences, "reference", "r", nil, "reference column that must match (repeatable)")
	dedupeCmd.Flags().BoolVar(&dedupeAllReferences, "all-references", false, "use every non-key column as a reference column")
	dedupeCmd.Flags().BoolVar(&dedupeJSON, "json", false, "output as JSON")
	dedupeCmd.Flags().StringVar(&dedupeSQLite, "sqlite", "", "read the source table from this SQLite database")
	dedupeCmd.Flags().StringVar(&dedupeQuery, "query", "", "SQL query selecting the source table (with --sqlite)")
	dedupeCmd.Flags().BoolVar(&dedupeWatch, "watch", false, "re-run whenever the CSV file changes")
	rootCmd.AddCommand(dedupeCmd)
}

// dedupeOutput is the JSON form of a projection.
type dedupeOutput struct {
	Variants   map[string][]string `json:"variants"`
	Key        string              `json:"key"`
	Columns    []string            `json:"columns"`
	References []string            `json:"references"`
	Rows       []table.Row         `json:"rows"`
	Threshold  int                 `json:"threshold"`
}

func runDedupe(cmd *cobra.Command, args []string) error {
	load, err := dedupeSource(cmd.Context(), args)
	if err != nil {
		return err
	}

	run := func() error {
		tbl, err := load()
		if err != nil {
			return err
		}
		f, err := dedupeFlags.formatter(tbl)
		if err != nil {
			return err
		}
		if dedupeAllReferences || cfg.AllReferences {
			_, _, err = f.ProjectFullyReferenced()
		} else {
			refs := dedupeReferences
			if len(refs) == 0 {
				refs = cfg.References
			}
			_, _, err = f.Project(assimilate.References(refs...))
		}
		if err != nil {
			return err
		}
		last, _ := f.Last()
		return printProjection(cmd, f.Key(), last)
	}

	if err := run(); err != nil {
		return err
	}
	if !dedupeWatch {
		return nil
	}
	if len(args) == 0 {
		return errors.New("--watch requires a CSV file argument")
	}

	w, err := watcher.New(args[0], func() {
		if err := run(); err != nil {
			log.Error().Err(err).Str("path", args[0]).Msg("Re-run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Stop()

	log.Info().Str("path", args[0]).Msg("Watching input for changes")
	<-cmd.Context().Done()
	return nil
}

// dedupeSource picks the table loader from the arguments and flags.
func dedupeSource(ctx context.Context, args []string) (func() (*table.Table, error), error) {
	switch {
	case dedupeSQLite != "" && len(args) > 0:
		return nil, errors.New("give either a CSV file or --sqlite, not both")
	case dedupeSQLite != "":
		if dedupeQuery == "" {
			return nil, errors.New("--sqlite requires --query")
		}
		return func() (*table.Table, error) {
			store, err := sqlite.NewStore(sqlite.StoreConfig{Path: dedupeSQLite, MaxConns: 1})
			if err != nil {
				return nil, err
			}
			defer store.Close()
			return store.LoadTable(ctx, dedupeQuery)
		}, nil
	case len(args) == 1:
		path := args[0]
		return func() (*table.Table, error) {
			return table.LoadCSV(path, cfg.Comma())
		}, nil
	default:
		return nil, errors.New("a CSV file or --sqlite is required")
	}
}

func printProjection(cmd *cobra.Command, key string, snap assimilate.Snapshot) error {
	if dedupeJSON {
		out := dedupeOutput{
			Key:        key,
			Threshold:  snap.Threshold,
			References: snap.References,
			Columns:    snap.Table.Columns(),
			Rows:       snap.Table.Rows(),
			Variants:   snap.Variants,
		}
		if out.References == nil {
			out.References = []string{}
		}
		if out.Rows == nil {
			out.Rows = []table.Row{}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal projection: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Print(snap.Table.String())
	if len(snap.Variants) == 0 {
		cmd.Println()
		cmd.Println("No variants absorbed.")
		return nil
	}

	canonical := make([]string, 0, len(snap.Variants))
	for k := range snap.Variants {
		canonical = append(canonical, k)
	}
	sort.Strings(canonical)

	cmd.Println()
	cmd.Println("Variants:")
	for _, k := range canonical {
		cmd.Printf("  %s <- %s\n", k, strings.Join(snap.Variants[k], ", "))
	}
	return nil
}
