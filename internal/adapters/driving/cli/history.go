package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Upload and inspect browsing histories",
}

var historyUploadCmd = &cobra.Command{
	Use:   "upload <file|->",
	Short: "Shrink a history export and store it as a session",
	Long: `Reads a JSON history export (an array of entries, or an object with a
"history" array), filters noise and duplicates, and stores the result as
a new session. Prints the session id used by 'case create'.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryUpload,
}

var historyReviewCmd = &cobra.Command{
	Use:   "review <file|->",
	Short: "Summarise a history by category without storing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryReview,
}

var historyTagsCmd = &cobra.Command{
	Use:   "tags <session-id>",
	Short: "Show how much material each category has in a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryTags,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List round categories in tie-break order",
	RunE:  runCategories,
}

const reviewHostsShown = 5

func init() {
	historyUploadCmd.Flags().Int("stop-threshold", 0, "stop shrinking once at most this many items remain (0 = configured default)")
	historyReviewCmd.Flags().Bool("json", false, "print the full review as JSON")
	historyTagsCmd.Flags().Bool("json", false, "print the summary as JSON")

	historyCmd.AddCommand(historyUploadCmd)
	historyCmd.AddCommand(historyReviewCmd)
	historyCmd.AddCommand(historyTagsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func runHistoryUpload(cmd *cobra.Command, args []string) error {
	if err := requireService("history service", historyService); err != nil {
		return err
	}
	stop, err := cmd.Flags().GetInt("stop-threshold")
	if err != nil {
		return fmt.Errorf("getting stop-threshold flag: %w", err)
	}

	history, err := readHistory(cmd, args[0])
	if err != nil {
		return err
	}
	res, err := historyService.Upload(cmd.Context(), history, stop)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	cmd.Printf("Session: %s\n", res.SessionID)
	cmd.Printf("Kept %d of %d entries\n", res.TotalSaved, res.TotalIn)
	for _, st := range res.Stages {
		cmd.Printf("  %-12s %d\n", st.Stage, st.Count)
	}
	return nil
}

func runHistoryReview(cmd *cobra.Command, args []string) error {
	if err := requireService("history service", historyService); err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json") //nolint:errcheck // flag is registered in init

	history, err := readHistory(cmd, args[0])
	if err != nil {
		return err
	}
	review, err := historyService.Review(cmd.Context(), history)
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}
	if asJSON {
		return printJSON(cmd, review)
	}

	cmd.Printf("%d items\n\n", review.Total)
	for _, cat := range review.Tags {
		cmd.Printf("%-14s %5d", cat.Label, cat.Count)
		hosts := make([]string, 0, reviewHostsShown)
		for _, h := range cat.Hosts {
			if len(hosts) == reviewHostsShown {
				break
			}
			hosts = append(hosts, fmt.Sprintf("%s (%d)", h.Host, h.Count))
		}
		if len(hosts) > 0 {
			cmd.Printf("  %s", strings.Join(hosts, ", "))
		}
		cmd.Println()
	}
	return nil
}

func runHistoryTags(cmd *cobra.Command, args []string) error {
	if err := requireService("history service", historyService); err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json") //nolint:errcheck // flag is registered in init

	summary, err := historyService.SessionTags(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("session tags: %w", err)
	}
	if asJSON {
		return printJSON(cmd, summary)
	}

	cmd.Printf("%d items, %d recommended per category\n\n", summary.Total, summary.MinPerTag)
	for _, tag := range summary.Tags {
		line := fmt.Sprintf("%-14s %5d", tag.Label, tag.Count)
		if tag.Needs > 0 {
			line += fmt.Sprintf("  (needs %d more)", tag.Needs)
		}
		cmd.Println(line)
	}
	return nil
}

func runCategories(cmd *cobra.Command, _ []string) error {
	if err := requireService("history service", historyService); err != nil {
		return err
	}
	for i, cat := range historyService.Categories() {
		cmd.Printf("%d. %-14s %s\n", i+1, cat.ID, cat.Label)
	}
	return nil
}
