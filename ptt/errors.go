package ptt

import (
	"fmt"

	"murmur/audio"
)

// DeviceError is returned when the microphone cannot be opened, started, or
// fails mid-recording.
type DeviceError = audio.DeviceError

// TranscriptionError wraps an engine failure for one session.
type TranscriptionError struct {
	Session string
	Err     error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed (session %s): %v", e.Session, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// InjectionError wraps a failure to type the transcribed text. It is logged
// and never moves the controller to Error.
type InjectionError struct {
	Session string
	Err     error
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("text injection failed (session %s): %v", e.Session, e.Err)
}

func (e *InjectionError) Unwrap() error { return e.Err }
