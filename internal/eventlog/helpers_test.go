package eventlog

import (
	"fmt"
	"time"

	"github.com/SlimIO/Winelog/internal/evtstore"
)

const (
	testProviderGUID = "{54849625-5478-4994-a5ba-3e3b0328c30d}"
	testActivityID   = "{b1b2b3b4-0000-1111-2222-333344445555}"
	testRelatedID    = "{00000000-0000-0000-0000-0000000000aa}"
)

var testBaseTime = time.Date(2024, 3, 9, 17, 45, 12, 987654300, time.UTC)

func guidValue(s string) evtstore.Value {
	g, err := evtstore.ParseGUID(s)
	if err != nil {
		panic(err)
	}
	return evtstore.GUIDBytes(g)
}

func sidValue(s string) evtstore.Value {
	sid, err := evtstore.ParseSID(s)
	if err != nil {
		panic(err)
	}
	return evtstore.SIDBytes(sid)
}

// fullEvent returns a record with every schema field populated.
func fullEvent(recordID uint64) evtstore.Event {
	return evtstore.Event{
		Properties: map[string]evtstore.Value{
			evtstore.PathProviderName:       evtstore.String("Microsoft-Windows-Security-Auditing"),
			evtstore.PathProviderGUID:       guidValue(testProviderGUID),
			evtstore.PathProviderSourceName: evtstore.String("Security"),
			evtstore.PathEventID:            evtstore.UInt16(4624),
			evtstore.PathQualifiers:         evtstore.UInt16(1),
			evtstore.PathVersion:            evtstore.Byte(2),
			evtstore.PathLevel:              evtstore.Byte(4),
			evtstore.PathTask:               evtstore.UInt16(12544),
			evtstore.PathOpcode:             evtstore.Byte(1),
			evtstore.PathKeywords:           evtstore.HexInt64(0x8020000000000000),
			evtstore.PathTimeCreated:        evtstore.FileTime(testBaseTime.Add(time.Duration(recordID) * time.Second)),
			evtstore.PathEventRecordID:      evtstore.UInt64(recordID),
			evtstore.PathActivityID:         guidValue(testActivityID),
			evtstore.PathRelatedActivityID:  guidValue(testRelatedID),
			evtstore.PathProcessID:          evtstore.UInt32(744),
			evtstore.PathThreadID:           evtstore.UInt32(2100),
			evtstore.PathChannel:            evtstore.String("Security"),
			evtstore.PathComputer:           evtstore.String("DC01.corp.local"),
			evtstore.PathUserID:             sidValue("S-1-5-18"),
		},
		Raw: []byte(fmt.Sprintf("<Event record=%d/>", recordID)),
	}
}

// blockFor encodes ev in schema order, as a store would render it.
func blockFor(ev evtstore.Event) []byte {
	vals := make([]evtstore.Value, FieldCount)
	for i, p := range SchemaPaths() {
		vals[i] = ev.Properties[p]
	}
	return evtstore.EncodeVariants(vals)
}

// newStore returns a store whose channel holds records 1..n in chronological order.
func newStore(channel string, n int) *evtstore.MemStore {
	s := evtstore.NewMemStore()
	s.AddChannel(channel)
	for i := 1; i <= n; i++ {
		s.AddChannel(channel, fullEvent(uint64(i)))
	}
	return s
}

func recordIDs(rows []LogRow) []uint64 {
	ids := make([]uint64, len(rows))
	for i, r := range rows {
		ids[i] = r.EventRecordID
	}
	return ids
}
