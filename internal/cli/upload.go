package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Ingest a document and register it for chat",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := newUploader(a.cfg.ServerURL).Upload(ctx, args[0])
	if err != nil {
		return err
	}

	if err := a.docs.Save(ctx, *doc); err != nil {
		return fmt.Errorf("register document: %w", err)
	}

	color.Green("Ingested %q: %d pages", doc.Name, doc.TotalPages)
	fmt.Printf("id: %s\n", doc.ID)
	fmt.Printf("chat with it: pagetutor chat --doc %s\n", doc.ID)
	return nil
}
