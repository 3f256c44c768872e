package eventlog

import (
	"github.com/SlimIO/Winelog/internal/evtstore"
)

// TimeLayout is the format of LogRow.TimeCreated, always UTC with millisecond
// precision.
const TimeLayout = "2006-01-02 15:04:05.000"

// LogRow is one decoded event. Optional fields are nil exactly when the store
// rendered their slot as null. A LogRow holds no reference to store buffers.
// LogRow 是一条解码后的事件。可选字段仅在槽位为空时为 nil。
type LogRow struct {
	EventID            uint32  `json:"event_id"`
	ProviderName       string  `json:"provider_name"`
	ProviderGUID       *string `json:"provider_guid"`
	ProviderSourceName *string `json:"provider_source_name"`
	Version            uint8   `json:"version"`
	Level              uint8   `json:"level"`
	Task               uint16  `json:"task"`
	Opcode             uint8   `json:"opcode"`
	Keywords           uint64  `json:"keywords"`
	TimeCreated        string  `json:"time_created"`
	EventRecordID      uint64  `json:"event_record_id"`
	ActivityID         *string `json:"correlation_activity_id"`
	RelatedActivityID  *string `json:"correlation_related_activity_id"`
	ProcessID          *uint32 `json:"process_id"`
	ThreadID           *uint32 `json:"thread_id"`
	Channel            *string `json:"channel"`
	Computer           string  `json:"computer"`
	UserID             *string `json:"security_user_id"`
}

// FormatTimestamp converts 100ns ticks since 1601-01-01 UTC to TimeLayout.
// Sub-millisecond digits are dropped, not rounded.
func FormatTimestamp(ticks uint64) string {
	return evtstore.FromFileTime(ticks).UTC().Format(TimeLayout)
}
