package editor

import (
	"encoding/json"
	"fmt"

	"github.com/heimdex/heimdex-studio/internal/timeline"
)

// DecodeCommand parses a wire command of the form {"type": "<kind>", ...}.
func DecodeCommand(data []byte) (Command, error) {
	var envelope struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}

	var cmd Command
	switch envelope.Type {
	case KindMoveClip:
		cmd = decodeInto[MoveClip](data)
	case KindTrimStart:
		cmd = decodeInto[TrimStart](data)
	case KindTrimEnd:
		cmd = decodeInto[TrimEnd](data)
	case KindAttachTransition:
		cmd = decodeInto[AttachTransition](data)
	case KindRemoveTransition:
		cmd = decodeInto[RemoveTransition](data)
	case KindAddClip:
		cmd = decodeInto[AddClip](data)
	case KindRemoveClip:
		cmd = decodeInto[RemoveClip](data)
	case KindAddTrack:
		cmd = decodeInto[AddTrack](data)
	case KindRemoveTrack:
		cmd = decodeInto[RemoveTrack](data)
	case KindRenameTrack:
		cmd = decodeInto[RenameTrack](data)
	case KindSetVolume:
		cmd = decodeInto[SetVolume](data)
	case KindSetMute:
		cmd = decodeInto[SetMute](data)
	case KindSetSolo:
		cmd = decodeInto[SetSolo](data)
	case KindSetLocked:
		cmd = decodeInto[SetLocked](data)
	case KindSetVisible:
		cmd = decodeInto[SetVisible](data)
	case KindAddKeyframe:
		cmd = decodeInto[AddKeyframe](data)
	case KindRemoveKeyframe:
		cmd = decodeInto[RemoveKeyframe](data)
	case KindSetEnvelope:
		cmd = decodeInto[SetEnvelope](data)
	case KindSetDucking:
		cmd = decodeInto[SetDucking](data)
	case "":
		return nil, fmt.Errorf("decode command: missing type")
	default:
		return nil, fmt.Errorf("decode command: unknown type %q", envelope.Type)
	}

	if dc, ok := cmd.(decodeFailure); ok {
		return nil, fmt.Errorf("decode %s: %w", envelope.Type, dc.err)
	}
	return cmd, nil
}

type decodeFailure struct {
	err error
}

func (decodeFailure) Kind() Kind { return "" }

func (d decodeFailure) apply(*timeline.Arrangement) error { return d.err }

func decodeInto[T Command](data []byte) Command {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return decodeFailure{err: err}
	}
	return v
}
