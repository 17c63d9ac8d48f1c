package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

var caseCmd = &cobra.Command{
	Use:   "case",
	Short: "Create, edit and play cases",
	Long: `A case is a list of "two truths and a lie" rounds built from an
uploaded session. Rounds are numbered from zero.`,
}

var caseCreateCmd = &cobra.Command{
	Use:   "create <session-id>",
	Short: "Generate a case from an uploaded session",
	Args:  cobra.ExactArgs(1),
	RunE:  runCaseCreate,
}

var caseRoundsCmd = &cobra.Command{
	Use:   "rounds <case-id>",
	Short: "Show every round of a case, lies included",
	Args:  cobra.ExactArgs(1),
	RunE:  runCaseRounds,
}

var caseEditCmd = &cobra.Command{
	Use:   "edit <case-id> <delete_round|regenerate_round|append_round>",
	Short: "Delete, regenerate or append rounds",
	Args:  cobra.ExactArgs(2),
	RunE:  runCaseEdit,
}

var caseRoundCmd = &cobra.Command{
	Use:   "round <case-id> <round>",
	Short: "Show one round as a player sees it",
	Args:  cobra.ExactArgs(2),
	RunE:  runCaseRound,
}

var caseGuessCmd = &cobra.Command{
	Use:   "guess <case-id> <round> <card>",
	Short: "Grade a guess of which card is the lie",
	Args:  cobra.ExactArgs(3),
	RunE:  runCaseGuess,
}

var casePlayCmd = &cobra.Command{
	Use:   "play <case-id>",
	Short: "Play a case round by round in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  runCasePlay,
}

func init() {
	caseCreateCmd.Flags().Int("rounds", domain.DefaultCaseRounds, "number of rounds")
	caseCreateCmd.Flags().StringSlice("tags", nil, "restrict rounds to these categories")
	caseRoundsCmd.Flags().Bool("json", false, "print the case as JSON")
	caseEditCmd.Flags().Int("round", -1, "round to delete or regenerate")
	caseEditCmd.Flags().Int("count", 1, "rounds to append (1-5)")
	caseEditCmd.Flags().StringSlice("tags", nil, "categories for new rounds (default: the case's selection)")

	caseCmd.AddCommand(caseCreateCmd)
	caseCmd.AddCommand(caseRoundsCmd)
	caseCmd.AddCommand(caseEditCmd)
	caseCmd.AddCommand(caseRoundCmd)
	caseCmd.AddCommand(caseGuessCmd)
	caseCmd.AddCommand(casePlayCmd)
	rootCmd.AddCommand(caseCmd)
}

func runCaseCreate(cmd *cobra.Command, args []string) error {
	if err := requireService("game service", gameService); err != nil {
		return err
	}
	rounds, err := cmd.Flags().GetInt("rounds")
	if err != nil {
		return fmt.Errorf("getting rounds flag: %w", err)
	}
	tags, err := cmd.Flags().GetStringSlice("tags")
	if err != nil {
		return fmt.Errorf("getting tags flag: %w", err)
	}

	c, err := gameService.CreateCase(cmd.Context(), args[0], rounds, tags)
	if err != nil {
		return fmt.Errorf("create case: %w", err)
	}
	cmd.Printf("Case: %s (%d rounds)\n", c.ID, len(c.Rounds))
	cmd.Printf("Play with: historycourt case play %s\n", c.ID)
	return nil
}

func runCaseRounds(cmd *cobra.Command, args []string) error {
	if err := requireService("game service", gameService); err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json") //nolint:errcheck // flag is registered in init

	c, err := gameService.Rounds(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("case rounds: %w", err)
	}
	if asJSON {
		return printJSON(cmd, map[string]any{
			"case_id":       c.ID,
			"session_id":    c.SessionID,
			"selected_tags": nonNilStrings(c.SelectedTags),
			"rounds":        c.Rounds,
		})
	}
	printRounds(cmd, c.Rounds)
	return nil
}

func runCaseEdit(cmd *cobra.Command, args []string) error {
	if err := requireService("game service", gameService); err != nil {
		return err
	}
	req := domain.EditRequest{Action: domain.EditAction(args[1])}
	if !req.Action.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownAction, args[1])
	}
	var err error
	if req.Round, err = cmd.Flags().GetInt("round"); err != nil {
		return fmt.Errorf("getting round flag: %w", err)
	}
	if req.Count, err = cmd.Flags().GetInt("count"); err != nil {
		return fmt.Errorf("getting count flag: %w", err)
	}
	if req.Tags, err = cmd.Flags().GetStringSlice("tags"); err != nil {
		return fmt.Errorf("getting tags flag: %w", err)
	}

	c, err := gameService.Edit(cmd.Context(), args[0], req)
	if err != nil {
		return fmt.Errorf("edit case: %w", err)
	}
	cmd.Printf("Case %s now has %d rounds\n", c.ID, len(c.Rounds))
	return nil
}

func runCaseRound(cmd *cobra.Command, args []string) error {
	if err := requireService("game service", gameService); err != nil {
		return err
	}
	idx, err := parseIndex("round", args[1])
	if err != nil {
		return err
	}
	r, err := gameService.Round(cmd.Context(), args[0], idx)
	if err != nil {
		return fmt.Errorf("show round: %w", err)
	}
	printPublicRound(cmd, r)
	return nil
}

func runCaseGuess(cmd *cobra.Command, args []string) error {
	if err := requireService("game service", gameService); err != nil {
		return err
	}
	idx, err := parseIndex("round", args[1])
	if err != nil {
		return err
	}
	sel, err := parseIndex("card", args[2])
	if err != nil {
		return err
	}
	res, err := gameService.Guess(cmd.Context(), args[0], idx, sel)
	if err != nil {
		return fmt.Errorf("grade guess: %w", err)
	}
	printVerdict(cmd, res)
	return nil
}

func runCasePlay(cmd *cobra.Command, args []string) error {
	if err := requireService("game service", gameService); err != nil {
		return err
	}
	ctx := cmd.Context()
	caseID := args[0]
	scanner := bufio.NewScanner(cmd.InOrStdin())
	correct := 0

	for idx := 0; ; idx++ {
		r, err := gameService.Round(ctx, caseID, idx)
		if errors.Is(err, domain.ErrRoundOutOfRange) {
			cmd.Printf("\nGame over: %d of %d correct\n", correct, idx)
			return nil
		}
		if err != nil {
			return fmt.Errorf("show round: %w", err)
		}
		printPublicRound(cmd, r)

		sel, ok := promptCard(cmd, scanner)
		if !ok {
			cmd.Println()
			return nil
		}
		res, err := gameService.Guess(ctx, caseID, idx, sel)
		if err != nil {
			return fmt.Errorf("grade guess: %w", err)
		}
		if res.Correct {
			correct++
		}
		printVerdict(cmd, res)
	}
}

// promptCard reads a 1-based card choice until one is valid. It reports false
// on end of input or "q".
func promptCard(cmd *cobra.Command, scanner *bufio.Scanner) (int, bool) {
	for {
		cmd.Printf("Which is the lie? [1-%d, q to quit]: ", domain.CardsPerRound)
		if !scanner.Scan() {
			return 0, false
		}
		input := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(input, "q") {
			return 0, false
		}
		n, err := strconv.Atoi(input)
		if err == nil && n >= 1 && n <= domain.CardsPerRound {
			return n - 1, true
		}
		cmd.Println("Invalid choice.")
	}
}

func printRounds(cmd *cobra.Command, rounds []domain.Round) {
	for i, r := range rounds {
		cmd.Printf("Round %d [%s]\n", i, r.Tag)
		for j, card := range r.Cards {
			marker := " "
			if j == r.LieIndex {
				marker = "*"
			}
			cmd.Printf("  %s %d. %s | %s\n", marker, j+1, card.Host, card.Title)
		}
	}
}

func printPublicRound(cmd *cobra.Command, r *domain.PublicRound) {
	cmd.Printf("\nRound %d of %d [%s]\n", r.Index+1, r.Total, r.Tag)
	for i, card := range r.Cards {
		cmd.Printf("  %d. %s | %s\n", i+1, card.Host, card.Title)
	}
}

func printVerdict(cmd *cobra.Command, res *domain.GuessResult) {
	if res.Correct {
		cmd.Println("Correct!")
		return
	}
	cmd.Printf("Wrong. The lie was card %d.\n", res.LieIndex+1)
}

func parseIndex(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", domain.ErrInvalidInput, name, s)
	}
	return n, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
