package pipeline

import (
	"fmt"

	"subflow/internal/services"
)

var (
	ErrNoMedia           = fmt.Errorf("%w: upload a file first", services.ErrValidation)
	ErrNoTranscription   = fmt.Errorf("%w: transcribe the file first", services.ErrValidation)
	ErrNoTranslation     = fmt.Errorf("%w: translate or skip translation first", services.ErrValidation)
	ErrOutOfOrder        = fmt.Errorf("%w: stage already completed; reset to start over", services.ErrValidation)
	ErrBusy              = fmt.Errorf("%w: another stage is still running", services.ErrValidation)
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported subtitle format", services.ErrValidation)
	ErrSuperseded        = services.ErrSuperseded
)
