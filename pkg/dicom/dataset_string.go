package dicom

import (
	"fmt"
	"strings"

	"github.com/dicomdesk/dicomdesk/pkg/dicom/tag"
)

// MetadataRow is one line of the metadata tree: a rendered element with
// its dictionary name and any nested sequence rows.
type MetadataRow struct {
	Tag   tag.Tag
	Name  string
	VR    string
	Value string
	Items []MetadataRow
}

// MetadataRows renders every element except pixel data as display rows,
// recursing into sequences. This feeds the metadata tab of the UI
// collaborator.
func MetadataRows(ds *DataSet) []MetadataRow {
	var rows []MetadataRow
	for t, e := range ds.All() {
		if t.Group == 0x7FE0 {
			continue
		}
		row := MetadataRow{
			Tag:   t,
			Name:  tag.Name(t),
			VR:    string(e.VR),
			Value: ValueString(e),
		}
		if items, ok := e.Items(); ok {
			for _, item := range items {
				row.Items = append(row.Items, MetadataRows(item)...)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// ValueString renders an element value for display. Binary payloads and
// sequences get placeholders rather than byte dumps.
func ValueString(e *Element) string {
	switch v := e.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return "<binary data>"
	case *PixelData:
		return fmt.Sprintf("<encapsulated pixel data, %d frames>", len(v.Frames))
	case []*DataSet:
		return fmt.Sprintf("<sequence of %d items>", len(v))
	default:
		return fmt.Sprint(v)
	}
}

// String dumps the dataset one element per line in tag order
func (ds *DataSet) String() string {
	var b strings.Builder
	for _, t := range ds.Tags() {
		e, _ := ds.Get(t)
		name := tag.Name(t)
		if name == "" {
			name = "?"
		}
		fmt.Fprintf(&b, "%s %s %-28s %s\n", t, e.VR, name, ValueString(e))
	}
	return b.String()
}
