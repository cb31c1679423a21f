package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/KaramelBytes/docbox-cli/internal/api"
	"github.com/KaramelBytes/docbox-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	docsJSON      bool
	resultImage   string
	resultZoom    bool
	resultRawText bool
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List, upload and read documents",
	Example: `  docbox docs list
  docbox docs upload ./scan.png
  docbox docs status 3
  docbox docs result 3 --save-image ./scan-copy.png`,
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your documents and their OCR status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		d, err := a.dashboard()
		if err != nil {
			return err
		}
		d.Refresh(cmd.Context())
		if docsJSON {
			docs := d.Documents
			if docs == nil {
				docs = []api.Document{}
			}
			b, err := utils.PrettyJSON(docs)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		d.Render(cmd.OutOrStdout())
		return nil
	},
}

var docsUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a scan for OCR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		d, err := a.dashboard()
		if err != nil {
			return err
		}
		d.SelectFile(args[0])
		doc, err := d.Upload(cmd.Context())
		if err != nil {
			return fmt.Errorf("upload: %s", friendly(err))
		}
		if doc == nil {
			return errors.New("no file selected")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Uploaded %s (id %d, status %s)\n", doc.Filename, doc.ID, doc.OCRStatus)
		d.SelectFile("")
		d.Render(cmd.OutOrStdout())
		return nil
	},
}

var docsResultCmd = &cobra.Command{
	Use:   "result <id>",
	Short: "Show the recognized text of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		d, err := a.dashboard()
		if err != nil {
			return err
		}
		if err := d.View(cmd.Context(), id); err != nil {
			return fmt.Errorf("result: %s", friendly(err))
		}
		defer d.Close()
		if resultRawText {
			fmt.Fprint(cmd.OutOrStdout(), d.Selected.Text)
		} else {
			if resultZoom {
				d.Image.Toggle()
			}
			d.RenderOverlay(cmd.OutOrStdout())
		}
		if resultImage != "" {
			b, err := a.client.FetchAsset(cmd.Context(), d.Selected.Filename)
			if err != nil {
				return fmt.Errorf("download image: %s", friendly(err))
			}
			if err := os.WriteFile(resultImage, b, 0o644); err != nil {
				return fmt.Errorf("write image: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Image saved: %s\n", resultImage)
		}
		return nil
	},
}

var docsStatusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Show the OCR status of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		d, err := a.dashboard()
		if err != nil {
			return err
		}
		st, err := d.Status(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("status: %s", friendly(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "- [%d] status: %s\n", st.ID, st.OCRStatus)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		status, err := a.client.Health(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %s\n", a.client.BaseURL(), status)
		return nil
	},
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid document id: %q", s)
	}
	return id, nil
}

// friendly prefers the backend's detail message over the raw body.
func friendly(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Friendly()
	}
	return err.Error()
}

func init() {
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(healthCmd)
	docsCmd.AddCommand(docsListCmd, docsUploadCmd, docsResultCmd, docsStatusCmd)

	docsListCmd.Flags().BoolVar(&docsJSON, "json", false, "print the list as JSON")
	docsResultCmd.Flags().StringVar(&resultImage, "save-image", "", "also download the original image to this path")
	docsResultCmd.Flags().BoolVar(&resultZoom, "zoom", false, "show the image reference zoomed")
	docsResultCmd.Flags().BoolVar(&resultRawText, "text", false, "print only the recognized text")
}
