package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/redquill/ferret"
	"github.com/redquill/ferret/pkg/obfuscate"
	"github.com/redquill/ferret/pkg/store"
	"github.com/redquill/ferret/pkg/types"
)

var (
	grepLiteral string
	grepRegex   string
	grepMember  string
	grepBefore  int
	grepAfter   int
	grepStart   int64
	grepLength  int64
	grepXorIn   uint8
	grepXorOut  uint8
	grepOutput  string
	grepFormat  string
	grepColor   string
)

// styles holds color formatters for human-readable match output
type styles struct {
	path   *color.Color
	offset *color.Color
	window *color.Color
	notice *color.Color
}

// newStyles creates color formatters for grep output
// enabled=false respects --color=never and the NO_COLOR env var
func newStyles(enabled bool) *styles {
	s := &styles{
		path:   color.New(color.Bold, color.FgHiBlue),
		offset: color.New(color.FgHiGreen),
		window: color.New(color.FgYellow),
		notice: color.New(color.Bold, color.FgHiRed),
	}

	if !enabled {
		s.path.DisableColor()
		s.offset.DisableColor()
		s.window.DisableColor()
		s.notice.DisableColor()
	}

	return s
}

var grepCmd = &cobra.Command{
	Use:   "grep <target>",
	Short: "Scan a file for a pattern",
	Long: `Scan one target stream for a literal byte sequence or a regular expression.
The target is read block by block, so files of any size scan in bounded
memory. Use --member to address a file inside a zip or 7z container.`,
	Args: cobra.ExactArgs(1),
	RunE: runGrep,
}

func init() {
	grepCmd.Flags().StringVar(&grepLiteral, "literal", "", "Literal byte pattern to search for")
	grepCmd.Flags().StringVar(&grepRegex, "regex", "", "Regular expression to search for")
	grepCmd.Flags().StringVar(&grepMember, "member", "", "Archive member path inside the target container")
	grepCmd.Flags().IntVar(&grepBefore, "before", 0, "Bytes of context before each hit")
	grepCmd.Flags().IntVar(&grepAfter, "after", 0, "Bytes of context after each hit")
	grepCmd.Flags().Int64Var(&grepStart, "start", 0, "Absolute offset to start scanning at")
	grepCmd.Flags().Int64Var(&grepLength, "length", 0, "Number of bytes to scan (0 = to end of data)")
	grepCmd.Flags().Uint8Var(&grepXorIn, "xor-in", 0, "XOR key applied to the pattern in transit (0 = off)")
	grepCmd.Flags().Uint8Var(&grepXorOut, "xor-out", 0, "XOR key applied to returned windows (0 = off)")
	grepCmd.Flags().StringVar(&grepOutput, "output", "", "Record results into a SQLite database at this path")
	grepCmd.Flags().StringVar(&grepFormat, "format", "human", "Output format: human, json")
	grepCmd.Flags().StringVar(&grepColor, "color", "auto", "Color output: auto, always, never")
}

func runGrep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	target := ferret.OSPath(args[0])
	if grepMember != "" {
		target = target.Append(ferret.Segment{Path: grepMember, Type: types.PathTypeArchive})
	}

	req := &ferret.GrepRequest{
		Target:      target,
		Regex:       grepRegex,
		XorInKey:    grepXorIn,
		XorOutKey:   grepXorOut,
		StartOffset: grepStart,
		Length:      grepLength,
		BytesBefore: grepBefore,
		BytesAfter:  grepAfter,
	}
	if grepLiteral != "" {
		// The literal travels obfuscated when an input key is set; the
		// scanner restores it before matching.
		req.Literal = obfuscate.Xor([]byte(grepLiteral), grepXorIn)
	}

	opts := []ferret.Option{ferret.WithConfig(cfg)}
	if grepOutput != "" {
		s, err := store.New(store.Config{Path: grepOutput})
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

	matches, err := searcher.Grep(req)
	if err != nil {
		return fmt.Errorf("grepping: %w", err)
	}

	if grepFormat == "json" {
		if !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "Grep complete: %d results\n", len(matches))
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(matches)
	}

	return outputMatchesHuman(cmd, matches, cfg.HitLimit)
}

func outputMatchesHuman(cmd *cobra.Command, matches []*ferret.Match, hitLimit int) error {
	s := newStyles(colorEnabled(grepColor))
	out := cmd.OutOrStdout()

	truncated := len(matches) == hitLimit+1
	for i, m := range matches {
		// Windows travel obfuscated; invert the output key for display.
		window := obfuscate.Xor(m.Data, grepXorOut)

		if truncated && i == len(matches)-1 {
			fmt.Fprintf(out, "%s\n", s.notice.Sprint(string(window)))
			continue
		}
		fmt.Fprintf(out, "%s:%s: %s\n",
			s.path.Sprint(m.Target.Collapse()),
			s.offset.Sprintf("%d", m.Offset),
			s.window.Sprintf("%q", window),
		)
	}

	if !quiet {
		fmt.Fprintf(out, "Grep complete: %d results\n", len(matches))
	}
	return nil
}

// colorEnabled resolves a --color flag value against the terminal and the
// NO_COLOR convention.
func colorEnabled(flag string) bool {
	switch flag {
	case "always":
		return true
	case "never":
		return false
	default: // "auto"
		return term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""
	}
}
