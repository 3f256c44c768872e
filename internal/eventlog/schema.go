// Package eventlog reads events from an evtstore.Store and decodes them into
// rows that carry no reference to store memory.
// Package eventlog 从 evtstore.Store 读取事件并解码为不引用存储内存的行。
package eventlog

import (
	"fmt"

	"github.com/SlimIO/Winelog/internal/evtstore"
)

// Field names one column of the decode schema. A Field's value is its slot
// index in every block rendered against the schema's render context.
// Field 表示解码模式中的一列，其值即渲染块中的槽位索引。
type Field int

const (
	FieldProviderName Field = iota
	FieldProviderGUID
	FieldProviderSourceName
	FieldEventID
	FieldQualifiers
	FieldVersion
	FieldLevel
	FieldTask
	FieldOpcode
	FieldKeywords
	FieldTimeCreated
	FieldEventRecordID
	FieldActivityID
	FieldRelatedActivityID
	FieldProcessID
	FieldThreadID
	FieldChannel
	FieldComputer
	FieldUserID

	fieldCount
)

type fieldSpec struct {
	name string
	path string
	// accepted lists the non-null slot types the decoder takes for the field.
	accepted []evtstore.VarType
}

var (
	typesString   = []evtstore.VarType{evtstore.TypeString}
	typesGUID     = []evtstore.VarType{evtstore.TypeGUID}
	typesByte     = []evtstore.VarType{evtstore.TypeByte}
	typesUInt16   = []evtstore.VarType{evtstore.TypeUInt16}
	typesUInt32   = []evtstore.VarType{evtstore.TypeUInt32}
	typesUInt64   = []evtstore.VarType{evtstore.TypeUInt64, evtstore.TypeHexInt64}
	typesFileTime = []evtstore.VarType{evtstore.TypeFileTime}
	typesSID      = []evtstore.VarType{evtstore.TypeSID}
)

// schema is indexed by Field. The array length ties it to the enum, so adding
// a Field without a schema entry leaves an empty path that TestSchema rejects.
var schema = [fieldCount]fieldSpec{
	FieldProviderName:       {"ProviderName", evtstore.PathProviderName, typesString},
	FieldProviderGUID:       {"ProviderGUID", evtstore.PathProviderGUID, typesGUID},
	FieldProviderSourceName: {"ProviderSourceName", evtstore.PathProviderSourceName, typesString},
	FieldEventID:            {"EventID", evtstore.PathEventID, typesUInt16},
	FieldQualifiers:         {"Qualifiers", evtstore.PathQualifiers, typesUInt16},
	FieldVersion:            {"Version", evtstore.PathVersion, typesByte},
	FieldLevel:              {"Level", evtstore.PathLevel, typesByte},
	FieldTask:               {"Task", evtstore.PathTask, typesUInt16},
	FieldOpcode:             {"Opcode", evtstore.PathOpcode, typesByte},
	FieldKeywords:           {"Keywords", evtstore.PathKeywords, typesUInt64},
	FieldTimeCreated:        {"TimeCreated", evtstore.PathTimeCreated, typesFileTime},
	FieldEventRecordID:      {"EventRecordID", evtstore.PathEventRecordID, typesUInt64},
	FieldActivityID:         {"ActivityID", evtstore.PathActivityID, typesGUID},
	FieldRelatedActivityID:  {"RelatedActivityID", evtstore.PathRelatedActivityID, typesGUID},
	FieldProcessID:          {"ProcessID", evtstore.PathProcessID, typesUInt32},
	FieldThreadID:           {"ThreadID", evtstore.PathThreadID, typesUInt32},
	FieldChannel:            {"Channel", evtstore.PathChannel, typesString},
	FieldComputer:           {"Computer", evtstore.PathComputer, typesString},
	FieldUserID:             {"UserID", evtstore.PathUserID, typesSID},
}

// FieldCount is the number of slots in a rendered schema block.
const FieldCount = int(fieldCount)

func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return schema[f].name
}

// Path returns the store path rendered into the field's slot.
func (f Field) Path() string { return schema[f].path }

func (f Field) accepts(t evtstore.VarType) bool {
	for _, a := range schema[f].accepted {
		if a == t {
			return true
		}
	}
	return false
}

// SchemaPaths returns the ordered path list handed to CreateRenderContext.
// SchemaPaths 返回传给 CreateRenderContext 的有序路径列表。
func SchemaPaths() []string {
	paths := make([]string, fieldCount)
	for i := range schema {
		paths[i] = schema[i].path
	}
	return paths
}
