package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/anchor/backend/internal/service/companion"
)

var farewells = map[string]bool{"quit": true, "exit": true, "bye": true, "goodbye": true}

func newChatCmd(load appFactory) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk with Anchor in the terminal",
		Long: `Start an interactive conversation. Every message is stored like one sent
through the API. Type quit, exit, bye or goodbye to hear how the conversation felt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return runChat(cmd.Context(), a.Companion, userID, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id the conversation belongs to")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runChat(ctx context.Context, svc *companion.Service, userID string, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Anchor is here, a steady companion through life's emotional waves.")
	fmt.Fprintln(out, "Type 'quit' to end our conversation.")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Anchor: Thank you for sharing your time with me. I'll be here whenever you need me.")
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if farewells[strings.ToLower(line)] {
			summary, err := svc.Summary(ctx, userID)
			if err != nil {
				fmt.Fprintln(out, "Anchor: I couldn't look back over our conversations just now.")
			} else {
				fmt.Fprintf(out, "\nAnchor: %s\n", summary.Sentence())
			}
			fmt.Fprintln(out, "Remember, I'm always here when you need steady ground. Take care.")
			return nil
		}
		if line == "" {
			fmt.Fprintln(out, "Anchor: I'm listening...")
			continue
		}

		exchange, err := svc.Send(ctx, userID, line)
		if err != nil && exchange.Reply.Reply == "" {
			fmt.Fprintln(out, "Anchor: I'm having trouble processing. Let's try again.")
			continue
		}
		fmt.Fprintf(out, "Anchor: %s\n", exchange.Reply.Reply)
	}
}
