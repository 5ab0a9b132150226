package summary

import (
	"fmt"
	"strings"
	"time"

	"carelog/internal/docstore"
)

// FormatReport concatenates a shift's clinical fields into one readable text
// block: a header from the shift document, one numbered section per entry,
// and a trailing count.
func FormatReport(shift *docstore.Document, entries []docstore.ListedEntry, generatedAt time.Time) string {
	var b strings.Builder

	title := shift.GetString("label")
	if title == "" {
		title = "Shift summary"
	}
	b.WriteString(title)
	b.WriteString("\n")
	if date := shift.GetString("date"); date != "" {
		b.WriteString("Date: " + date + "\n")
	}
	b.WriteString("Generated: " + generatedAt.Format(time.RFC3339) + "\n")

	for i, entry := range entries {
		b.WriteString("\n")
		heading := entry.Doc.GetString("category")
		if heading == "" {
			heading = "entry"
		}
		fmt.Fprintf(&b, "[%d] %s\n", i+1, heading)
		writeEntryFields(&b, entry.Doc)
	}

	fmt.Fprintf(&b, "\nEntries: %d\n", len(entries))
	return b.String()
}

// writeEntryFields renders an entry's top-level scalar fields, skipping the
// administrative timestamps and the section heading itself.
func writeEntryFields(b *strings.Builder, doc *docstore.Document) {
	for _, f := range doc.Fields() {
		switch f.Name {
		case docstore.FieldCreatedAt, docstore.FieldUpdatedAt, "category":
			continue
		}
		switch f.Value.Kind {
		case docstore.KindString:
			fmt.Fprintf(b, "  %s: %s\n", f.Name, f.Value.Str)
		case docstore.KindNumber:
			fmt.Fprintf(b, "  %s: %g\n", f.Name, f.Value.Num)
		case docstore.KindBool:
			fmt.Fprintf(b, "  %s: %t\n", f.Name, f.Value.Bool)
		case docstore.KindList:
			fmt.Fprintf(b, "  %s: %d items\n", f.Name, len(f.Value.List))
		}
	}
}
