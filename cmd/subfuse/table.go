package main

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"subfuse/internal/queue"
)

// renderQueueTable formats queue items for terminal display. Failed items
// carry their error in the detail column; everything else shows the
// translation status.
func renderQueueTable(items []*queue.Item) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Source", "From", "To", "Status", "Detail", "Updated"})

	for _, item := range items {
		detail := item.TranslationStatus
		if item.Status == queue.StatusFailed {
			detail = item.ErrorMessage
		}
		tw.AppendRow(table.Row{
			strconv.FormatInt(item.ID, 10),
			filepath.Base(item.SourcePath),
			item.SourceLanguage,
			item.TargetLanguage,
			string(item.Status),
			detail,
			item.UpdatedAt.Local().Format(time.RFC3339),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 6, WidthMax: 48},
	})
	return tw.Render()
}
