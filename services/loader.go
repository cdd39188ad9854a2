package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"rag-platform/models"
)

// FileLoader reads local files into documents. Supported formats are
// plain text, markdown, PDF and XLSX.
type FileLoader struct{}

// Load reads the file at path and returns it as a single document with
// "source" and "filename" metadata.
func (FileLoader) Load(path string) (models.Document, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		var data []byte
		data, err = os.ReadFile(path)
		text = string(data)
	case ".pdf":
		text, err = loadPDF(path)
	case ".xlsx":
		text, err = loadXLSX(path)
	default:
		return models.Document{}, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("load %s: %w", path, err)
	}

	return models.Document{
		Text: text,
		Metadata: map[string]string{
			"source":   path,
			"filename": filepath.Base(path),
		},
	}, nil
}

func loadPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func loadXLSX(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", err
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " "))
			if line == "" {
				continue
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
