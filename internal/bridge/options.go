package bridge

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/MeKo-Tech/scanbridge/internal/barcode"
	"github.com/MeKo-Tech/scanbridge/internal/camera"
	"github.com/MeKo-Tech/scanbridge/internal/session"
)

// formatList accepts both a JSON array of symbology names and the legacy
// comma-joined string form.
type formatList []string

func (f *formatList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	if joined == "" {
		*f = nil
		return nil
	}
	*f = strings.Split(joined, ",")
	return nil
}

// scanOptions is the wire-level scan configuration object.
type scanOptions struct {
	Formats               formatList `json:"formats"`
	CharacterSet          string     `json:"character_set"`
	PreferFrontCamera     bool       `json:"prefer_front_camera"`
	ShowFlipButton        bool       `json:"show_flip_button"`
	ShowTorchButton       bool       `json:"show_torch_button"`
	TorchOn               bool       `json:"torch_on"`
	SaveHistory           bool       `json:"save_history"`
	DisableSuccessBeep    bool       `json:"disable_success_beep"`
	ResultDisplayDuration int        `json:"result_display_duration_ms"`
	Prompt                string     `json:"prompt_message"`
	OrientationLock       string     `json:"orientation_lock"`
	FramingRect           []int      `json:"manual_framing_rect"`
	BulkMode              bool       `json:"bulk_mode"`
}

func (o *scanOptions) sessionConfig() (session.Config, *session.Error) {
	formats, err := parseFormatNames(o.Formats)
	if err != nil {
		return session.Config{}, err
	}
	cfg := session.Config{
		Formats:               formats,
		CharacterSet:          o.CharacterSet,
		PreferFrontCamera:     o.PreferFrontCamera,
		ShowFlipButton:        o.ShowFlipButton,
		ShowTorchButton:       o.ShowTorchButton,
		TorchOn:               o.TorchOn,
		SaveHistory:           o.SaveHistory,
		BeepOnScan:            !o.DisableSuccessBeep,
		ResultDisplayDuration: time.Duration(o.ResultDisplayDuration) * time.Millisecond,
		Prompt:                o.Prompt,
		OrientationLock:       camera.Orientation(o.OrientationLock),
		BulkMode:              o.BulkMode,
	}
	if len(o.FramingRect) == 2 {
		cfg.FramingRect = camera.Size{Width: o.FramingRect[0], Height: o.FramingRect[1]}
	}
	if verr := cfg.Validate(); verr != nil {
		return session.Config{}, verr
	}
	return cfg, nil
}

func parseFormatNames(names []string) ([]barcode.Format, *session.Error) {
	var formats []barcode.Format
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		f, err := barcode.ParseFormat(name)
		if err != nil {
			return nil, session.NewError(session.KindInvalidConfig, "%v", err)
		}
		formats = append(formats, f)
	}
	return formats, nil
}
