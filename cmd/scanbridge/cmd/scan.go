package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/scanbridge/internal/barcode"
	"github.com/MeKo-Tech/scanbridge/internal/camera"
	"github.com/MeKo-Tech/scanbridge/internal/history"
	"github.com/MeKo-Tech/scanbridge/internal/prefs"
	"github.com/MeKo-Tech/scanbridge/internal/session"
)

// terminalBeeper rings the terminal bell on successful scans.
type terminalBeeper struct{}

func (terminalBeeper) Beep() { fmt.Print("\a") }

// scanCmd runs a live capture session over a virtual camera fed from image
// files, one preview frame per file.
var scanCmd = &cobra.Command{
	Use:   "scan [images...]",
	Short: "Run a scan session over image-file frames",
	Long: `Run a live capture session. The given image files are delivered as
preview frames in order; the session ends on the first successful decode
(or, in bulk mode, on interrupt).

Examples:
  scanbridge scan frame1.png frame2.png
  scanbridge scan frames/*.png --formats QR_CODE,EAN_13 --save-history
  scanbridge scan frames/*.png --bulk`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		formatsCSV, _ := cmd.Flags().GetString("formats")
		charset, _ := cmd.Flags().GetString("charset")
		bulk, _ := cmd.Flags().GetBool("bulk")
		saveHistory, _ := cmd.Flags().GetBool("save-history")
		torch, _ := cmd.Flags().GetBool("torch")
		front, _ := cmd.Flags().GetBool("front")
		prompt, _ := cmd.Flags().GetString("prompt")
		displayMS, _ := cmd.Flags().GetInt("display-ms")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		formats, err := barcode.ParseFormats(formatsCSV)
		if err != nil {
			return err
		}

		prefStore, err := prefs.NewStore(cfg.Storage.PrefsPath)
		if err != nil {
			return fmt.Errorf("opening preferences: %w", err)
		}
		hist := history.NewStore(cfg.Storage.HistoryPath)

		dev := camera.NewVirtualDevice()
		for _, path := range args {
			img, err := imaging.Open(path)
			if err != nil {
				return fmt.Errorf("loading frame %s: %w", path, err)
			}
			dev.QueueImage(img)
		}

		driver := session.NewDriver(session.Options{
			Devices: func(bool) camera.Device { return dev },
			History: hist,
			Prefs:   prefStore,
			Beeper:  terminalBeeper{},
			Toast: func(msg string) {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			},
			MinPreviewPixels: cfg.Camera.MinPreviewPixels,
			MaxPreviewPixels: cfg.Camera.MaxPreviewPixels,
			BulkScanDelay:    time.Duration(cfg.Capture.BulkScanDelayMS) * time.Millisecond,
		})

		outcomes := make(chan session.Outcome, 1)
		sessionCfg := session.Config{
			Formats:               formats,
			CharacterSet:          charset,
			PreferFrontCamera:     front,
			TorchOn:               torch,
			SaveHistory:           saveHistory,
			BeepOnScan:            true,
			ResultDisplayDuration: time.Duration(displayMS) * time.Millisecond,
			Prompt:                prompt,
			BulkMode:              bulk,
		}
		if serr := driver.Start(sessionCfg, func(o session.Outcome) { outcomes <- o }); serr != nil {
			return serr
		}
		driver.OnSurfaceReady(camera.Surface{Width: 1080, Height: 1920})

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(sigChan)

		var outcome session.Outcome
		select {
		case outcome = <-outcomes:
		case <-sigChan:
			driver.OnUserBack()
			outcome = <-outcomes
		case <-time.After(timeout):
			driver.OnUserBack()
			outcome = <-outcomes
		}

		switch {
		case outcome.Err != nil:
			return outcome.Err
		case outcome.Cancelled:
			return printScanPayload(cmd, "", "", true)
		default:
			return printScanPayload(cmd, outcome.Result.Text, outcome.Result.Format.String(), false)
		}
	},
}

func printScanPayload(cmd *cobra.Command, text, format string, cancelled bool) error {
	payload := map[string]any{"text": text, "format": format, "cancelled": cancelled}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().String("formats", "", "comma-separated symbologies to accept (default all)")
	scanCmd.Flags().String("charset", "", "preferred text character set (IANA name)")
	scanCmd.Flags().Bool("bulk", false, "keep scanning until interrupted")
	scanCmd.Flags().Bool("save-history", false, "record successful scans in history")
	scanCmd.Flags().Bool("torch", false, "start with the torch on")
	scanCmd.Flags().Bool("front", false, "prefer a front camera")
	scanCmd.Flags().String("prompt", "", "viewfinder prompt text")
	scanCmd.Flags().Int("display-ms", 0, "how long to hold a result before finishing")
	scanCmd.Flags().Duration("timeout", 30*time.Second, "give up after this long without a scan")
}
