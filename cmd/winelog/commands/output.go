package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/SlimIO/Winelog/internal/eventlog"
	"github.com/SlimIO/Winelog/internal/utils/fmtutil"
)

// providerWidth bounds the provider column of the table format.
const providerWidth = 40

// rowWriter prints decoded rows in one output format.
type rowWriter interface {
	Write(row eventlog.LogRow) error
	Flush() error
}

func newRowWriter(format string, w io.Writer) (rowWriter, error) {
	switch format {
	case "", "json":
		return &jsonRowWriter{enc: json.NewEncoder(w)}, nil
	case "table":
		return newTableRowWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported format %q (must be json or table)", format)
	}
}

// jsonRowWriter writes one JSON object per line.
type jsonRowWriter struct {
	enc *json.Encoder
}

func (j *jsonRowWriter) Write(row eventlog.LogRow) error { return j.enc.Encode(row) }

func (j *jsonRowWriter) Flush() error { return nil }

// tableRowWriter aligns rows into columns; nothing is printed until Flush.
// tableRowWriter 将行对齐为列，Flush 时输出。
type tableRowWriter struct {
	tw   *tabwriter.Writer
	rows int
}

func newTableRowWriter(w io.Writer) *tableRowWriter {
	return &tableRowWriter{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (t *tableRowWriter) Write(row eventlog.LogRow) error {
	if t.rows == 0 {
		if _, err := fmt.Fprintln(t.tw, "TIME CREATED\tRECORD\tEVENT\tLEVEL\tPROVIDER\tCOMPUTER"); err != nil {
			return err
		}
	}
	t.rows++
	_, err := fmt.Fprintf(t.tw, "%s\t%d\t%d\t%s\t%s\t%s\n",
		row.TimeCreated, row.EventRecordID, row.EventID&0xFFFF, levelName(row.Level),
		fmtutil.Truncate(row.ProviderName, providerWidth), row.Computer)
	return err
}

func (t *tableRowWriter) Flush() error {
	if t.rows == 0 {
		if _, err := fmt.Fprintln(t.tw, "No events."); err != nil {
			return err
		}
	}
	return t.tw.Flush()
}

// levelName returns the standard name of an event level.
func levelName(level uint8) string {
	switch level {
	case 0:
		return "LogAlways"
	case 1:
		return "Critical"
	case 2:
		return "Error"
	case 3:
		return "Warning"
	case 4:
		return "Information"
	case 5:
		return "Verbose"
	default:
		return strconv.Itoa(int(level))
	}
}
