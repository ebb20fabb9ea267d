package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillview/pagetutor/internal/domain"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage ingested documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents, most recent first",
	RunE:  runDocsList,
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its chat history",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsDelete,
}

func init() {
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsDeleteCmd)
	rootCmd.AddCommand(docsCmd)
}

func runDocsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	docs, err := a.docs.List(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("no documents yet; run: pagetutor upload <file>")
		return nil
	}

	for _, doc := range docs {
		fmt.Printf("%s  %-30s  %3d pages  %s\n",
			doc.ID, doc.Name, doc.TotalPages, doc.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	id := args[0]
	if err := a.docs.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return fmt.Errorf("no document with id %s", id)
		}
		return err
	}
	// The document owns its conversation; both go together.
	if err := a.convs.Delete(ctx, id); err != nil {
		return err
	}

	fmt.Printf("deleted %s\n", id)
	return nil
}
