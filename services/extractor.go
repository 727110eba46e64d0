package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/yunseo/custombotAI/models"
)

// UploadedFile is a raw upload as received at the API boundary.
type UploadedFile struct {
	Name         string
	DeclaredType string
	Data         []byte
}

// Supported file formats.
const (
	formatPDF      = "pdf"
	formatDocx     = "docx"
	formatText     = "txt"
	formatMarkdown = "md"
)

// Extractor converts uploaded files into plain text.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// IsSupported reports whether the file's declared type or extension maps
// to a supported format.
func (e *Extractor) IsSupported(name, declaredType string) bool {
	_, err := detectFormat(name, declaredType)
	return err == nil
}

// ExtractText returns the plain-text content of the file, trimmed of
// surrounding whitespace. An empty result is an error, not a success
// with zero content.
func (e *Extractor) ExtractText(file UploadedFile) (string, error) {
	format, err := detectFormat(file.Name, file.DeclaredType)
	if err != nil {
		return "", err
	}

	var text string
	switch format {
	case formatPDF:
		text, err = extractPDF(file.Data)
	case formatDocx:
		text, err = extractDocx(file.Data)
	case formatText, formatMarkdown:
		text = string(file.Data)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", models.NewError(models.CodeEmptyContent, "no text content found in file", nil)
	}
	return text, nil
}

// detectFormat dispatches on the declared media type first, falling back
// to the filename extension when the type is absent or generic.
func detectFormat(name, declaredType string) (string, error) {
	mediaType := strings.ToLower(strings.TrimSpace(declaredType))
	// drop parameters like "; charset=utf-8"
	if base, _, found := strings.Cut(mediaType, ";"); found {
		mediaType = strings.TrimSpace(base)
	}

	switch mediaType {
	case "application/pdf":
		return formatPDF, nil
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return formatDocx, nil
	case "text/plain":
		return formatText, nil
	case "text/markdown":
		return formatMarkdown, nil
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return formatPDF, nil
	case ".docx":
		return formatDocx, nil
	case ".txt":
		return formatText, nil
	case ".md":
		return formatMarkdown, nil
	}

	return "", models.NewError(models.CodeUnsupportedFormat,
		fmt.Sprintf("unsupported file type: %s", declaredType), nil)
}

// extractPDF pulls the textual content out of a PDF, ignoring layout and
// images. The pdf library panics on some malformed inputs, so the
// recover converts those into a reportable error.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = models.NewError(models.CodeExtractionFailed,
				"failed to extract text from PDF", fmt.Errorf("pdf parser panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", models.NewError(models.CodeExtractionFailed, "failed to extract text from PDF", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", models.NewError(models.CodeExtractionFailed, "failed to extract text from PDF", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", models.NewError(models.CodeExtractionFailed, "failed to extract text from PDF", err)
	}
	return buf.String(), nil
}

// docx is a zip package; the text lives in word/document.xml as
// paragraphs of runs.
type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

func extractDocx(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", models.NewError(models.CodeExtractionFailed, "failed to extract text from Word document", err)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", models.NewError(models.CodeExtractionFailed, "failed to extract text from Word document", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", models.NewError(models.CodeExtractionFailed, "failed to extract text from Word document", err)
		}

		var doc docxDocument
		if err := xml.Unmarshal(content, &doc); err != nil {
			return "", models.NewError(models.CodeExtractionFailed, "failed to extract text from Word document", err)
		}

		var sb strings.Builder
		for i, para := range doc.Body.Paragraphs {
			if i > 0 {
				sb.WriteString("\n")
			}
			for _, run := range para.Runs {
				for _, t := range run.Text {
					sb.WriteString(t.Content)
				}
			}
		}
		return sb.String(), nil
	}

	return "", models.NewError(models.CodeExtractionFailed,
		"failed to extract text from Word document", fmt.Errorf("word/document.xml not found"))
}
