package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// URLFunc builds the grading URL for one user of one assignment.
type URLFunc func(assignmentID, userID int64) string

// AugmentWithURLs copies a bin listing from r to w, appending one URL column
// per assignment. The user id is read from UserIDColumn. A header row gets
// assignment_<id> column names.
func AugmentWithURLs(r io.Reader, w io.Writer, delim rune, assignmentIDs []int64, urlFor URLFunc) error {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	cw := csv.NewWriter(w)
	cw.Comma = delim

	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read line %d: %w", line, err)
		}
		if len(row) <= UserIDColumn {
			return fmt.Errorf("line %d: expected a user id in column %d, got %d columns", line, UserIDColumn+1, len(row))
		}

		cell := strings.TrimSpace(row[UserIDColumn])
		if cell == Header[UserIDColumn] {
			for _, aid := range assignmentIDs {
				row = append(row, fmt.Sprintf("assignment_%d", aid))
			}
		} else {
			userID, err := strconv.ParseInt(cell, 10, 64)
			if err != nil {
				return fmt.Errorf("line %d: invalid user id %q", line, cell)
			}
			for _, aid := range assignmentIDs {
				row = append(row, urlFor(aid, userID))
			}
		}

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
