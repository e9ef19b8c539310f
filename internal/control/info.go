package control

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/easycue/easycue/internal/models"
)

// Struct field names used by GetStatus.
const (
	fieldState     = "state"
	fieldMessage   = "message"
	fieldPID       = "pid"
	fieldRunID     = "run_id"
	fieldStartedAt = "started_at"
	fieldSeq       = "seq"
)

// EncodeInfo converts a status snapshot to its wire form. The message field
// is present only for the error state; run fields only while running.
func EncodeInfo(info models.ServiceInfo) (*structpb.Struct, error) {
	fields := map[string]any{
		fieldState: info.Status.State.String(),
		fieldSeq:   float64(info.Seq),
	}
	if info.Status.State == models.StateError {
		fields[fieldMessage] = info.Status.Message
	}
	if info.PID > 0 {
		fields[fieldPID] = float64(info.PID)
	}
	if info.RunID != "" {
		fields[fieldRunID] = info.RunID
	}
	if !info.StartedAt.IsZero() {
		fields[fieldStartedAt] = info.StartedAt.UTC().Format(time.RFC3339Nano)
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode status: %w", err)
	}
	return s, nil
}

// DecodeInfo converts the wire form back to a status snapshot.
func DecodeInfo(s *structpb.Struct) (models.ServiceInfo, error) {
	var info models.ServiceInfo
	fields := s.GetFields()

	state, err := models.ParseServiceState(fields[fieldState].GetStringValue())
	if err != nil {
		return info, fmt.Errorf("failed to decode status: %w", err)
	}
	info.Status.State = state
	if state == models.StateError {
		info.Status.Message = fields[fieldMessage].GetStringValue()
	}

	info.PID = int(fields[fieldPID].GetNumberValue())
	info.RunID = fields[fieldRunID].GetStringValue()
	info.Seq = uint64(fields[fieldSeq].GetNumberValue())

	if v := fields[fieldStartedAt].GetStringValue(); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return info, fmt.Errorf("failed to decode started_at: %w", err)
		}
		info.StartedAt = t
	}

	return info, nil
}
