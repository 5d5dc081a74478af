package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question answering session",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, _, _, err := setup(ctx)
	if err != nil {
		return err
	}

	stats := a.Stats()
	fmt.Printf("coursechat %s, %d courses indexed\n", Version, stats.CourseCount)
	fmt.Println(`Ask about the course materials. "/new" starts a fresh session, "/exit" quits.`)
	fmt.Println()

	var sessionID *uuid.UUID
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println("\nbye")
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit", "/quit":
			fmt.Println("bye")
			return nil
		case "/new":
			if sessionID != nil {
				a.ClearSession(*sessionID)
			}
			sessionID = nil
			fmt.Println("started a new session")
			continue
		}

		res, err := a.Query(ctx, input, sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		sessionID = &res.SessionID

		fmt.Println(res.Answer)
		for _, src := range res.Sources {
			fmt.Printf("  [%s]\n", src.Label)
		}
		fmt.Println()
	}
}
