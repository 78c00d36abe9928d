package main

import (
	"encoding/json"
	"fmt"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/cobra"

	"github.com/redquill/ferret"
	"github.com/redquill/ferret/pkg/store"
)

var (
	findPathRegex   string
	findDataRegex   string
	findCrossDev    bool
	findBatch       int
	findExcludeFrom string
	findOutput      string
	findFormat      string
)

var findCmd = &cobra.Command{
	Use:   "find <root>",
	Short: "Walk a directory tree for matching files",
	Long: `Walk a directory tree depth-first and report every node whose path matches
--path-regex and whose content matches --data-regex (both optional). The
walk runs in quota-bounded batches driven by a resumable cursor, so a run
over a large tree stays responsive and interruptible.`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

func init() {
	findCmd.Flags().StringVar(&findPathRegex, "path-regex", "", "Report only nodes whose path matches this expression")
	findCmd.Flags().StringVar(&findDataRegex, "data-regex", "", "Report only regular files containing this expression")
	findCmd.Flags().BoolVar(&findCrossDev, "cross-devices", false, "Descend into directories on other devices")
	findCmd.Flags().IntVar(&findBatch, "batch", 1000, "Hits per walk batch (0 = unlimited, single batch)")
	findCmd.Flags().StringVar(&findExcludeFrom, "exclude-from", "", "Skip hits matching patterns from this gitignore-style file")
	findCmd.Flags().StringVar(&findOutput, "output", "", "Record hits into a SQLite database at this path")
	findCmd.Flags().StringVar(&findFormat, "format", "human", "Output format: human, json")
}

func runFind(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var excluded *ignore.GitIgnore
	if findExcludeFrom != "" {
		excluded, err = ignore.CompileIgnoreFile(findExcludeFrom)
		if err != nil {
			return fmt.Errorf("loading exclude file: %w", err)
		}
	}

	opts := []ferret.Option{ferret.WithConfig(cfg)}
	if findOutput != "" {
		s, err := store.New(store.Config{Path: findOutput})
		if err != nil {
			return fmt.Errorf("creating store: %w", err)
		}
		opts = append(opts, ferret.WithStore(s))
	}

	searcher, err := ferret.NewSearcher(opts...)
	if err != nil {
		return err
	}
	defer searcher.Close()

	req := &ferret.FindRequest{
		Root:         ferret.OSPath(args[0]),
		PathRegex:    findPathRegex,
		DataRegex:    findDataRegex,
		CrossDevices: findCrossDev,
		Cursor:       ferret.Cursor{Quota: findBatch},
	}

	var hits []ferret.StatEntry
	for {
		batch, cursor, err := searcher.Find(req)
		if err != nil {
			return fmt.Errorf("walking: %w", err)
		}
		if verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "batch: %d hits\n", len(batch))
		}
		for _, h := range batch {
			if excluded != nil && excluded.MatchesPath(h.Spec.Collapse()) {
				continue
			}
			hits = append(hits, h)
		}
		if cursor.Done() {
			break
		}
		req.Cursor = cursor
	}

	if findFormat == "json" {
		if !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "Find complete: %d hits\n", len(hits))
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(hits)
	}

	out := cmd.OutOrStdout()
	for _, h := range hits {
		fmt.Fprintf(out, "%s %10d %s\n", h.Mode, h.Size, h.Spec.Collapse())
	}
	if !quiet {
		fmt.Fprintf(out, "Find complete: %d hits\n", len(hits))
	}
	return nil
}
