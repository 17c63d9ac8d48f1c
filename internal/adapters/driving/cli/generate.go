package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

var generateCmd = &cobra.Command{
	Use:   "generate <history-file|->",
	Short: "Generate rounds from a history without storing anything",
	Long: `Generates rounds straight from a history export using the configured
generation mode. If the language model is unavailable or its output fails
validation, rounds are synthesised locally instead.

Examples:
  historycourt generate history.json --rounds 3
  historycourt generate - --seed demo --tags news,social < history.json`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().Int("rounds", domain.DefaultCaseRounds, "number of rounds")
	generateCmd.Flags().String("seed", "", "seed for reproducible local rounds")
	generateCmd.Flags().StringSlice("tags", nil, "restrict rounds to these categories")
	generateCmd.Flags().Bool("json", false, "print rounds as JSON, lies included")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := requireService("round generator", roundGenerator); err != nil {
		return err
	}
	rounds, err := cmd.Flags().GetInt("rounds")
	if err != nil {
		return fmt.Errorf("getting rounds flag: %w", err)
	}
	if rounds < 1 {
		return fmt.Errorf("%w: rounds must be at least 1", domain.ErrInvalidInput)
	}
	seed, err := cmd.Flags().GetString("seed")
	if err != nil {
		return fmt.Errorf("getting seed flag: %w", err)
	}
	tags, err := cmd.Flags().GetStringSlice("tags")
	if err != nil {
		return fmt.Errorf("getting tags flag: %w", err)
	}
	asJSON, _ := cmd.Flags().GetBool("json") //nolint:errcheck // flag is registered in init

	history, err := readHistory(cmd, args[0])
	if err != nil {
		return err
	}

	res, err := roundGenerator.Generate(cmd.Context(), domain.GenerateRequest{
		History: history,
		Rounds:  rounds,
		Seed:    seed,
		Tags:    tags,
		Meta:    map[string]any{"source": "cli"},
	})
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if asJSON {
		return printJSON(cmd, res)
	}

	cmd.Printf("Strategy: %s\n\n", res.Strategy)
	printRounds(cmd, res.Rounds)
	return nil
}
