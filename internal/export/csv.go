package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"cashcraft/internal/core"
)

// CSVHeader is the first line of every CSV export.
var CSVHeader = []string{"id", "date", "category", "amount", "description"}

// WriteCSV writes one line per expense, in the order given.
func WriteCSV(w io.Writer, expenses []core.Expense) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, e := range expenses {
		record := []string{
			strconv.FormatInt(e.ID, 10),
			e.Date.String(),
			e.Category,
			e.Amount.String(),
			e.Description,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write CSV row %d: %w", e.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
