package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jengzang/shelter-map/internal/models"
)

type encodedRecord struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Encode writes ds in the format Decode reads, categories in order.
// Coordinates are written as strings to keep their full precision.
func Encode(w io.Writer, ds *models.Dataset) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("{")
	for i, c := range ds.Categories {
		if i > 0 {
			bw.WriteString(",")
		}
		key, err := json.Marshal(string(c))
		if err != nil {
			return err
		}
		records := make([]encodedRecord, 0, len(ds.Records[c]))
		for _, rec := range ds.Records[c] {
			records = append(records, encodedRecord{
				ID:        rec.ID,
				Name:      rec.Name,
				Latitude:  strconv.FormatFloat(rec.Latitude, 'f', -1, 64),
				Longitude: strconv.FormatFloat(rec.Longitude, 'f', -1, 64),
			})
		}
		value, err := json.MarshalIndent(records, "  ", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode %q: %w", c, err)
		}
		fmt.Fprintf(bw, "\n  %s: %s", key, value)
	}
	bw.WriteString("\n}\n")
	return bw.Flush()
}
