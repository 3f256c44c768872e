package evtstore

// System property paths understood by every store.
// 所有存储都能识别的系统属性路径。
const (
	PathProviderName       = "Event/System/Provider/@Name"
	PathProviderGUID       = "Event/System/Provider/@Guid"
	PathProviderSourceName = "Event/System/Provider/@EventSourceName"
	PathEventID            = "Event/System/EventID"
	PathQualifiers         = "Event/System/EventID/@Qualifiers"
	PathVersion            = "Event/System/Version"
	PathLevel              = "Event/System/Level"
	PathTask               = "Event/System/Task"
	PathOpcode             = "Event/System/Opcode"
	PathKeywords           = "Event/System/Keywords"
	PathTimeCreated        = "Event/System/TimeCreated/@SystemTime"
	PathEventRecordID      = "Event/System/EventRecordID"
	PathActivityID         = "Event/System/Correlation/@ActivityID"
	PathRelatedActivityID  = "Event/System/Correlation/@RelatedActivityID"
	PathProcessID          = "Event/System/Execution/@ProcessID"
	PathThreadID           = "Event/System/Execution/@ThreadID"
	PathChannel            = "Event/System/Channel"
	PathComputer           = "Event/System/Computer"
	PathUserID             = "Event/System/Security/@UserID"
)
