package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quillview/pagetutor/internal/chat"
	"github.com/quillview/pagetutor/internal/domain"
	"github.com/quillview/pagetutor/internal/stream"
)

var chatDocID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Converse with the tutor about an ingested document",
	Long:  `Interactive chat. Answers stream token by token; citations like [Page 3] are extracted when a response completes and shown under it.`,
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatDocID, "doc", "", "Document id (defaults to the most recently ingested)")
	rootCmd.AddCommand(chatCmd)
}

var (
	promptColor   = color.New(color.FgCyan, color.Bold)
	tutorColor    = color.New(color.FgGreen)
	errColor      = color.New(color.FgRed)
	citationColor = color.New(color.FgYellow)
	statusColor   = color.New(color.FgHiBlack)
)

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := resolveDocument(ctx, a)
	if err != nil {
		return err
	}

	engine := stream.NewEngine(a.cfg.ServerURL, &http.Client{})
	controller := chat.NewController(a.convs, engine)
	if err := controller.SetDocument(ctx, doc); err != nil {
		return err
	}

	fmt.Printf("Chatting about %q (%d pages). Type /quit to leave.\n\n", doc.Name, doc.TotalPages)
	for _, msg := range controller.History() {
		printMessage(msg)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		promptColor.Print("you> ")
		if !scanner.Scan() {
			break
		}
		input := scanner.Text()
		if trimmed := strings.TrimSpace(input); trimmed == "/quit" || trimmed == "/exit" {
			break
		}

		statusColor.Println("thinking...")
		msg, err := controller.Submit(ctx, input, chat.TurnCallbacks{
			OnFirst: func() {
				tutorColor.Print("tutor> ")
			},
			OnDelta: func(delta string) {
				fmt.Print(delta)
			},
		})
		if errors.Is(err, domain.ErrActiveRequest) {
			errColor.Println("a response is still in progress")
			continue
		}
		if err != nil {
			return err
		}
		if msg == nil {
			// Empty input or cancelled turn.
			if ctx.Err() != nil {
				break
			}
			continue
		}

		fmt.Println()
		if msg.IsError {
			errColor.Println(msg.Content)
		}
		printCitations(msg.Citations)
		fmt.Println()
	}

	controller.Cancel()
	return scanner.Err()
}

func resolveDocument(ctx context.Context, a *app) (*domain.Document, error) {
	if chatDocID != "" {
		return a.docs.Get(ctx, chatDocID)
	}

	docs, err := a.docs.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w, run: pagetutor upload <file>", domain.ErrNoDocument)
	}
	// List strips text blobs; fetch the full record.
	return a.docs.Get(ctx, docs[0].ID)
}

func printMessage(msg domain.Message) {
	switch {
	case msg.IsError:
		errColor.Println(msg.Content)
	case msg.Role == domain.RoleUser:
		promptColor.Print("you> ")
		fmt.Println(msg.Content)
	default:
		tutorColor.Print("tutor> ")
		fmt.Println(msg.Content)
		printCitations(msg.Citations)
	}
	fmt.Println()
}

func printCitations(citations []domain.Citation) {
	if len(citations) == 0 {
		return
	}
	chips := make([]string, 0, len(citations))
	for _, c := range citations {
		chips = append(chips, fmt.Sprintf("[p.%d]", c.PageNumber))
	}
	citationColor.Printf("cited: %s\n", strings.Join(chips, " "))
}
