// Package backup exports a user's memories and stamps them as backed up.
package backup

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/zhouzirui/anchor/backend/internal/model/memory"
)

// Format is an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

const dateLayout = "2006-01-02"

var csvHeader = []string{"Title", "Description", "Feelings", "Dates", "Created", "Backed Up"}

// ParseFormat 解析导出格式，空值或未知值都按 json 处理。
func ParseFormat(raw string) Format {
	if Format(strings.ToLower(strings.TrimSpace(raw))) == FormatCSV {
		return FormatCSV
	}
	return FormatJSON
}

// File is an encoded backup ready to be served as a download.
type File struct {
	Data        []byte
	ContentType string
	Filename    string
	Count       int
}

type jsonBackup struct {
	BackupDate    string          `json:"backupDate"`
	TotalMemories int             `json:"totalMemories"`
	Memories      []memory.Memory `json:"memories"`
}

// Export renders memories in format. now stamps the backup date and the filename.
func Export(memories []memory.Memory, format Format, now time.Time) (File, error) {
	now = now.UTC()
	if memories == nil {
		memories = []memory.Memory{}
	}

	out := File{Count: len(memories)}
	switch format {
	case FormatCSV:
		out.Data = []byte(encodeCSV(memories))
		out.ContentType = "text/csv"
	default:
		format = FormatJSON
		data, err := json.MarshalIndent(jsonBackup{
			BackupDate:    now.Format(time.RFC3339Nano),
			TotalMemories: len(memories),
			Memories:      memories,
		}, "", "  ")
		if err != nil {
			return File{}, fmt.Errorf("encode json backup: %w", err)
		}
		out.Data = data
		out.ContentType = "application/json"
	}
	out.Filename = fmt.Sprintf("anchor-memories-%s.%s", now.Format(dateLayout), format)
	return out, nil
}

// encodeCSV writes rows joined by "\n" without a trailing newline.
func encodeCSV(memories []memory.Memory) string {
	lines := make([]string, 0, len(memories)+1)
	lines = append(lines, strings.Join(csvHeader, ","))

	for _, m := range memories {
		backedUp := ""
		if m.BackedUpAt != nil {
			backedUp = m.BackedUpAt.UTC().Format(dateLayout)
		}
		created := ""
		if !m.CreatedAt.IsZero() {
			created = m.CreatedAt.UTC().Format(dateLayout)
		}

		row := []string{
			escapeCSV(m.Title),
			escapeCSV(m.Description),
			escapeCSV(strings.Join(m.Feelings, ", ")),
			escapeCSV(strings.Join(m.SpecialDates, ", ")),
			created,
			backedUp,
		}
		lines = append(lines, strings.Join(row, ","))
	}
	return strings.Join(lines, "\n")
}

// escapeCSV quotes a value only when it holds a comma, a double quote or a newline.
func escapeCSV(value string) string {
	if !strings.ContainsAny(value, ",\"\n") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
