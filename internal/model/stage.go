package model

// Stage is a state of the download workflow.
//
// A run moves forward through the stages in declaration order. Any failure
// moves it straight to StageClosed, and every run ends in StageClosed.
type Stage int

const (
	// StageIdle is the state before the browser session is opened.
	StageIdle Stage = iota

	// StageSessionOpen means a browser session exists.
	StageSessionOpen

	// StageAuthenticated means a logged-in indicator was found.
	StageAuthenticated

	// StageUsageOpen means the energy usage section is displayed.
	StageUsageOpen

	// StageDetailsOpen means the usage details sub-section is displayed.
	StageDetailsOpen

	// StageExportPanelOpen means the Green Button export panel was opened.
	StageExportPanelOpen

	// StageRangeSelected means the custom date range was entered.
	StageRangeSelected

	// StageDownloadTriggered means the download control was clicked.
	StageDownloadTriggered

	// StageClosed means the browser session was released.
	StageClosed
)

// stageNames maps stages to their serialized names.
var stageNames = map[Stage]string{
	StageIdle:              "idle",
	StageSessionOpen:       "session_open",
	StageAuthenticated:     "authenticated",
	StageUsageOpen:         "usage_open",
	StageDetailsOpen:       "details_open",
	StageExportPanelOpen:   "export_panel_open",
	StageRangeSelected:     "range_selected",
	StageDownloadTriggered: "download_triggered",
	StageClosed:            "closed",
}

// String returns the stage name.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Unknown names decode to StageIdle.
func (s *Stage) UnmarshalText(text []byte) error {
	for stage, name := range stageNames {
		if name == string(text) {
			*s = stage
			return nil
		}
	}
	*s = StageIdle
	return nil
}
