package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/ai-expense-auditor/internal/application/service"
	"github.com/garyjia/ai-expense-auditor/internal/dictation"
	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
)

const quitCommand = "/quit"

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask the policy assistant questions",
	Long:  "Opens an assistant session. Each input line is one message; type /quit or send EOF to leave.",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := startContainer(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer app.Close()

		return runChat(cmd.Context(), app.Services().Chat, dictation.NewLineSource(cmd.InOrStdin()), cmd.OutOrStdout(), logger)
	},
}

// runChat feeds lines from source to the assistant until the source ends
// or the user quits. The transcript is discarded on return.
func runChat(ctx context.Context, chat service.ChatService, source dictation.Source, out io.Writer, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer chat.Close()

	printMessage(out, chat.Open())

	buf := &dictation.Buffer{}
	recorder := dictation.NewRecorder(source, buf, func(b *dictation.Buffer) {
		text := b.Take()
		if text == "" {
			return
		}
		if text == quitCommand {
			cancel()
			return
		}
		reply, err := chat.Send(ctx, text)
		if err != nil && entity.IsValidationError(err) {
			return
		}
		printMessage(out, reply)
	}, logger)

	if err := recorder.Start(ctx); err != nil {
		return err
	}
	<-recorder.Done()
	recorder.Stop()

	if recorder.State() == dictation.StateError {
		return fmt.Errorf("input failed: %s", recorder.ErrorMessage())
	}
	return nil
}

func printMessage(w io.Writer, m entity.ChatMessage) {
	prefix := "Assistant"
	if m.Sender == entity.SenderUser {
		prefix = "You"
	}
	if m.Error {
		prefix += " (error)"
	}
	fmt.Fprintf(w, "%s: %s\n", prefix, strings.TrimSpace(m.Text))
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
