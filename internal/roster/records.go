package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"coursekit/internal/partition"
)

// Header is the first row of every bin listing.
var Header = []string{"bin", "item", "user_id", "user_name", "group_id", "group_name"}

// UserIDColumn is the position of user_id in a bin listing.
const UserIDColumn = 2

// Record is one member placed in a bin.
type Record struct {
	Bin  int
	Item int // 1-based position within the bin
	Member
}

// Fields renders the record in Header order.
func (r Record) Fields() []string {
	group := ""
	if r.GroupID != 0 {
		group = strconv.FormatInt(r.GroupID, 10)
	}
	return []string{
		strconv.Itoa(r.Bin),
		strconv.Itoa(r.Item),
		strconv.FormatInt(r.UserID, 10),
		r.UserName,
		group,
		r.GroupName,
	}
}

// Flatten turns bins into records in bin order.
func Flatten(bins []partition.Bin[Member]) []Record {
	var out []Record
	for _, b := range bins {
		for i, m := range b.Items {
			out = append(out, Record{Bin: b.Index, Item: i + 1, Member: m})
		}
	}
	return out
}

// WriteRecords writes a header row followed by records.
func WriteRecords(w io.Writer, delim rune, records []Record) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r.Fields()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBinFiles writes one listing per bin into dir, named bin_<n>.txt, and
// returns the file paths.
func WriteBinFiles(dir string, delim rune, bins []partition.Bin[Member]) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, 0, len(bins))
	for _, b := range bins {
		path := filepath.Join(dir, fmt.Sprintf("bin_%d.txt", b.Index))
		if err := writeBinFile(path, delim, b); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeBinFile(path string, delim rune, b partition.Bin[Member]) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteRecords(f, delim, Flatten([]partition.Bin[Member]{b})); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
