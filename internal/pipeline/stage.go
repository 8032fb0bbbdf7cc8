package pipeline

// Stage is one of the four ordered pipeline phases.
type Stage int

const (
	StageUpload Stage = iota + 1
	StageTranscribe
	StageTranslate
	StageDownload
)

// Stages lists every stage in order.
var Stages = []Stage{StageUpload, StageTranscribe, StageTranslate, StageDownload}

func (s Stage) String() string {
	switch s {
	case StageUpload:
		return "upload"
	case StageTranscribe:
		return "transcribe"
	case StageTranslate:
		return "translate"
	case StageDownload:
		return "download"
	default:
		return ""
	}
}

// Title returns a capitalized label for display.
func (s Stage) Title() string {
	switch s {
	case StageUpload:
		return "Upload"
	case StageTranscribe:
		return "Transcribe"
	case StageTranslate:
		return "Translate"
	case StageDownload:
		return "Download"
	default:
		return ""
	}
}

// StageStatus is a stage's position relative to the active stage.
type StageStatus string

const (
	StatusCompleted StageStatus = "completed"
	StatusActive    StageStatus = "active"
	StatusPending   StageStatus = "pending"
)

// State is the controller's position in the run.
type State int

const (
	StateIdle State = iota
	StateAwaitingTranscription
	StateAwaitingTranslation
	StateAwaitingDownload
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingTranscription:
		return "awaiting_transcription"
	case StateAwaitingTranslation:
		return "awaiting_translation"
	case StateAwaitingDownload:
		return "awaiting_download"
	default:
		return "unknown"
	}
}

// ActiveStage maps the state to the stage the user acts on next.
func (s State) ActiveStage() Stage {
	switch s {
	case StateAwaitingTranscription:
		return StageTranscribe
	case StateAwaitingTranslation:
		return StageTranslate
	case StateAwaitingDownload:
		return StageDownload
	default:
		return StageUpload
	}
}

// StatusOf reports whether stage is completed, active, or pending while the
// controller is in state s.
func (s State) StatusOf(stage Stage) StageStatus {
	active := s.ActiveStage()
	switch {
	case stage < active:
		return StatusCompleted
	case stage == active:
		return StatusActive
	default:
		return StatusPending
	}
}
