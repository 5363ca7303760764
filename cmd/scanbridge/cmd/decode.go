package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/scanbridge/internal/bridge"
	"github.com/MeKo-Tech/scanbridge/internal/session"
)

// decodeCmd runs the single-image decode path on a file or stdin.
var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode a barcode from an image, PDF, or base64 payload",
	Long: `Decode a single barcode from a still image (PNG, JPEG, BMP), a PDF with
embedded images, or a base64 payload. Reads stdin when the file is "-".

Examples:
  scanbridge decode label.png
  scanbridge decode shipment.pdf
  cat payload.b64 | scanbridge decode - --base64`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		isBase64, _ := cmd.Flags().GetBool("base64")

		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		payload := bridge.EncodeBase64(data)
		if isBase64 {
			payload = strings.TrimSpace(string(data))
		}

		res, derr := bridge.DecodeImagePayload(payload)
		if derr != nil {
			if derr.Kind == session.KindDecodeNotFound {
				fmt.Fprintln(cmd.OutOrStdout(), "no barcode found")
				return nil
			}
			return derr
		}

		out := map[string]any{"text": res.Text, "format": res.Format.String()}
		if res.Metadata.ECLevel != "" {
			out["error_correction_level"] = res.Metadata.ECLevel
		}
		encoded, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().Bool("base64", false, "treat the input as a base64 payload instead of raw bytes")
}
