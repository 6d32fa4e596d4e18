package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/futig/traffic-law-assistant/internal/pkg/corpus"
	"github.com/spf13/cobra"
)

// collection is the part of the assistant the CLI drives
type collection interface {
	IndexCorpus(ctx context.Context, articles []entity.Article) (entity.IndexReport, error)
	ResetCollection(ctx context.Context) error
	CollectionStats(ctx context.Context) (entity.CollectionStats, error)
	SearchSimilar(ctx context.Context, query string, n int) ([]entity.SearchResult, error)
}

type session struct {
	collection collection
	corpusPath string
	close      func()
}

type opener func(environment string) (*session, error)

func newRootCmd(open opener) *cobra.Command {
	var environment string

	root := &cobra.Command{
		Use:   "indexer",
		Short: "Manage the Ley 109 article index",
		Long: `indexer loads the Ley 109 corpus into the configured vector store and
inspects the resulting collection.

Example usage:
  indexer load                       # Index the corpus from CORPUS_PATH
  indexer load --file corpus.json    # Index another file
  indexer load --reset               # Drop the collection first
  indexer stats                      # Show collection stats
  indexer search "casco" -n 3        # Query the index`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&environment, "env", "local", "environment to run (local, prod, or custom)")

	withSession := func(run func(ctx context.Context, s *session, out io.Writer) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			s, err := open(environment)
			if err != nil {
				return err
			}
			defer s.close()
			return run(cmd.Context(), s, cmd.OutOrStdout())
		}
	}

	root.AddCommand(
		newLoadCmd(withSession),
		newResetCmd(withSession),
		newStatsCmd(withSession),
		newSearchCmd(withSession),
	)
	return root
}

type sessionRunner func(run func(ctx context.Context, s *session, out io.Writer) error) func(*cobra.Command, []string) error

func newLoadCmd(withSession sessionRunner) *cobra.Command {
	var (
		file  string
		reset bool
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Index the corpus file. An already populated collection is left as is.",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "corpus JSON file (default CORPUS_PATH)")
	cmd.Flags().BoolVar(&reset, "reset", false, "drop the collection before indexing")

	cmd.RunE = withSession(func(ctx context.Context, s *session, out io.Writer) error {
		path := file
		if path == "" {
			path = s.corpusPath
		}

		articles, err := corpus.LoadFile(path)
		if err != nil {
			return fmt.Errorf("load corpus: %w", err)
		}

		if reset {
			if err := s.collection.ResetCollection(ctx); err != nil {
				return fmt.Errorf("reset collection: %w", err)
			}
		}

		report, err := s.collection.IndexCorpus(ctx, articles)
		if err != nil {
			return fmt.Errorf("index corpus: %w", err)
		}

		if report.Skipped {
			fmt.Fprintf(out, "Collection already holds %d articles, nothing indexed. Use --reset to rebuild.\n", report.Existing)
			return nil
		}
		fmt.Fprintf(out, "Indexed %d articles from %s\n", report.Indexed, path)
		return nil
	})
	return cmd
}

func newResetCmd(withSession sessionRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate the collection",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withSession(func(ctx context.Context, s *session, out io.Writer) error {
		if err := s.collection.ResetCollection(ctx); err != nil {
			return fmt.Errorf("reset collection: %w", err)
		}
		fmt.Fprintln(out, "Collection reset")
		return nil
	})
	return cmd
}

func newStatsCmd(withSession sessionRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print collection stats as JSON",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withSession(func(ctx context.Context, s *session, out io.Writer) error {
		stats, err := s.collection.CollectionStats(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, stats)
	})
	return cmd
}

func newSearchCmd(withSession sessionRunner) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Print the articles closest to a query",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.Flags().IntVarP(&n, "n-results", "n", 3, "number of results")

	cmd.RunE = func(c *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return fmt.Errorf("query must not be empty")
		}
		if n < 1 {
			return fmt.Errorf("--n-results must be positive, got %d", n)
		}

		return withSession(func(ctx context.Context, s *session, out io.Writer) error {
			results, err := s.collection.SearchSimilar(ctx, query, n)
			if err != nil {
				return err
			}
			for i, r := range results {
				fmt.Fprintf(out, "%d. Artículo %s (similarity %.3f)\n   %s\n", i+1, r.ID, r.SimilarityScore, preview(r.Content))
			}
			return nil
		})(c, args)
	}
	return cmd
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func preview(content string) string {
	const limit = 120
	runes := []rune(strings.Join(strings.Fields(content), " "))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "…"
}
