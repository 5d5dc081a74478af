package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, _, _, err := setup(ctx)
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")
	res, err := a.Query(ctx, question, nil)
	if err != nil {
		return fmt.Errorf("answering: %w", err)
	}

	fmt.Println(res.Answer)
	if len(res.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range res.Sources {
			if src.Link != "" {
				fmt.Printf("  - %s (%s)\n", src.Label, src.Link)
			} else {
				fmt.Printf("  - %s\n", src.Label)
			}
		}
	}
	return nil
}
