package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dkaplan88/hireflow/pkg/observability"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive assistant session in the terminal",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	logger := observability.GetLogger()
	defer observability.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.shutdown(shutdownCtx)
	}()

	sessionID := uuid.NewString()
	fmt.Println("Hireflow assistant ready. Type a command, or 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if ctx.Err() != nil {
			break
		}

		fmt.Println(a.manager.HandleCommand(ctx, sessionID, line))
	}

	fmt.Println("Goodbye.")
	return scanner.Err()
}
