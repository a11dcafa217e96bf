package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/modelsearch/internal/domain/filter"
	"github.com/kailas-cloud/modelsearch/internal/domain/tag"
	"github.com/kailas-cloud/modelsearch/internal/transport/dto"
	"github.com/kailas-cloud/modelsearch/internal/tui"
	sessionuc "github.com/kailas-cloud/modelsearch/internal/usecase/session"
)

var (
	searchTags         []string
	searchSort         string
	searchLimit        int
	searchMinDownloads int64
	searchMaxDownloads int64
	searchJSON         bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search models and print grouped results",
	Long: `Search the backend and print the filtered, sorted, capped result set
grouped by base name.

Examples:
  modelsearch search "small multilingual embedding model"
  modelsearch search --tag gguf --tag llama --sort downloads-desc llama
  modelsearch search --limit 10 --min-downloads 1000 --json bert`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringArrayVar(&searchTags, "tag", nil, "keep results carrying any of these tags (repeatable)")
	searchCmd.Flags().StringVar(&searchSort, "sort", string(filter.SortRelevance),
		"sort order: relevance, downloads-desc, downloads-asc")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().Int64Var(&searchMinDownloads, "min-downloads", 0, "lower download bound (inclusive)")
	searchCmd.Flags().Int64Var(&searchMaxDownloads, "max-downloads", -1, "upper download bound (inclusive, default: largest in results)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadCLI()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, err := buildStack(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()
	sess := st.session

	// A limit above min_top_k must reach the backend as top_k.
	if searchLimit > 0 {
		if _, err := sess.SetLimit(searchLimit); err != nil {
			return err
		}
	}

	query := strings.Join(args, " ")
	if _, err := sess.Submit(cmd.Context(), query); err != nil {
		return err
	}

	snap, err := applySearchFlags(sess)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(dto.FromSnapshot(snap, cfg.Profile.Host))
	}
	writeSearchText(out, snap)
	return nil
}

// applySearchFlags replays the filter flags as session events.
func applySearchFlags(sess *sessionuc.Session) (sessionuc.Snapshot, error) {
	snap := sess.Snapshot()
	for _, t := range searchTags {
		if !snap.Filter.IsSelected(t) {
			snap = sess.ToggleTag(t)
		}
	}

	rng := snap.Filter.Downloads()
	rng.Low = searchMinDownloads
	if searchMaxDownloads >= 0 {
		rng.High = searchMaxDownloads
	} else {
		// No explicit ceiling: never let the facet maximum invert the range.
		rng.High = max(rng.High, rng.Low)
	}
	var err error
	if snap, err = sess.SetDownloadRange(rng); err != nil {
		return snap, err
	}

	snap = sess.SetSort(filter.SortMode(searchSort))

	if searchLimit > 0 {
		if snap, err = sess.SetLimit(searchLimit); err != nil {
			return snap, err
		}
	}
	return snap, nil
}

func writeSearchText(w io.Writer, snap sessionuc.Snapshot) {
	if len(snap.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No results found.")
		return
	}

	for _, g := range snap.Groups {
		indent := ""
		if !g.Group.IsSingle() {
			indent = "  "
			header := fmt.Sprintf("%s  (%d variants, best relevance %.3f", g.Group.BaseName(), g.Group.Len(), 1-g.Stats.BestDistance)
			if g.Stats.HasDownloads {
				header += fmt.Sprintf(", %s-%s downloads", tui.FormatCount(g.Stats.MinDownloads), tui.FormatCount(g.Stats.MaxDownloads))
			}
			_, _ = fmt.Fprintln(w, header+")")
		}
		for _, it := range g.Group.Items() {
			downloads := "n/a"
			if it.HasDownloads() {
				downloads = tui.FormatCount(it.Downloads())
			}
			line := fmt.Sprintf("%s%s  relevance %.3f  downloads %s", indent, it.ID(), it.Relevance(), downloads)
			if tags := tag.Displayable(it.Tags()); len(tags) > 0 {
				line += "  [" + strings.Join(tags, ", ") + "]"
			}
			_, _ = fmt.Fprintln(w, line)
		}
	}
	_, _ = fmt.Fprintf(w, "\n%d results (sort %s, limit %d)\n", len(snap.Items), snap.Filter.Sort(), snap.Filter.Limit())
}
