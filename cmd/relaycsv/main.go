// relaycsv implements a command line tool for converting recorded relay
// archives (see package archive) into CSV files, flattening each
// record's primary hdata row into one CSV row.
package main

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/m-lab/go/rtx"

	"github.com/weechat-go/relay/archive"
	"github.com/weechat-go/relay/wire"
	"github.com/weechat-go/relay/zstd"
)

func init() {
	// Always prepend the filename and line number.
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	// A variable to enable mocking for testing.
	logFatal = log.Fatal
)

// bufferRow is the flattened CSV shape for a "buffer" hdata row, the most
// common single-row reply this tool is used against. Fields absent from a
// given record are left at their zero value.
type bufferRow struct {
	Timestamp string `csv:"timestamp"`
	SessionID string `csv:"session_id"`
	Pointer   string `csv:"pointer"`
	Name      string `csv:"name"`
	ShortName string `csv:"short_name"`
	Number    int32  `csv:"number"`
}

// readRows reads every archived record from rdr and flattens each one's
// primary hdata row into a bufferRow.
func readRows(rdr io.Reader) ([]*bufferRow, error) {
	archReader := archive.NewReader(rdr)
	records, err := archive.LoadAll(archReader)
	if err != nil {
		return nil, err
	}
	rows := make([]*bufferRow, 0, len(records))
	for _, rec := range records {
		row := &bufferRow{
			Timestamp: rec.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
			SessionID: rec.SessionID,
		}
		if fields, ok := primaryFields(rec); ok {
			if v, ok := fields["pointer"]; ok {
				row.Pointer = v.Str
			}
			if v, ok := fields["name"]; ok {
				row.Name = v.Str
			}
			if v, ok := fields["short_name"]; ok {
				row.ShortName = v.Str
			}
			if v, ok := fields["number"]; ok {
				row.Number = v.Int
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func primaryFields(rec *archive.Record) (map[string]wire.Value, bool) {
	if rec.Message == nil {
		return nil, false
	}
	v, ok := rec.Message.PrimaryHData()
	if !ok {
		return nil, false
	}
	fields, ok := v.(map[string]wire.Value)
	return fields, ok
}

func toCSV(rows []*bufferRow, wtr io.Writer) error {
	return gocsv.Marshal(rows, wtr)
}

// openFile either opens a file, or opens and unzips a file ending in .zst.
func openFile(fn string) (io.ReadCloser, error) {
	if strings.HasSuffix(fn, ".zst") {
		return zstd.NewReader(fn), nil
	}
	return os.Open(fn)
}

func main() {
	args := os.Args[1:]

	var source io.ReadCloser
	var err error
	source = os.Stdin
	if len(args) == 1 {
		source, err = openFile(args[0])
		rtx.Must(err, "Could not open file %q", args[0])
	} else if len(args) > 1 {
		logFatal("Too many command-line arguments.")
	}
	defer source.Close()

	rows, err := readRows(source)
	rtx.Must(err, "Could not read archive records")
	rtx.Must(toCSV(rows, os.Stdout), "Could not convert input to CSV")
}
