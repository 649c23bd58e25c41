package loaders

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"empchat/internal/rag/interfaces"
	"empchat/internal/rag/schema"

	"github.com/google/uuid"
	"github.com/unidoc/unipdf/v4/core"
	"github.com/unidoc/unipdf/v4/extractor"
	"github.com/unidoc/unipdf/v4/model"
)

// PdfLoader implements the Loader interface for reading PDF files.
type PdfLoader struct{}

// NewPdfLoader creates a new PdfLoader.
func NewPdfLoader() *PdfLoader {
	return &PdfLoader{}
}

// Load reads a PDF file, extracts the text of each page and returns one
// Document per page, tagged with the source file name and page label.
func (l *PdfLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, err
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, err
	}

	var documents []*schema.Document
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return nil, err
		}

		ex, err := extractor.New(page)
		if err != nil {
			return nil, err
		}

		text, err := ex.ExtractText()
		if err != nil {
			return nil, err
		}

		documents = append(documents, &schema.Document{
			ID:   uuid.New().String(),
			Text: text,
			Metadata: map[string]interface{}{
				schema.MetadataKeySource:    filepath.Base(path),
				schema.MetadataKeyPageLabel: fmt.Sprintf("%d", i),
			},
		})
	}

	return documents, nil
}

// CreationDate returns the raw /CreationDate value from the PDF's document
// information dictionary, e.g. "D:20230615120000+02'00'". It returns the
// empty string when the entry is absent.
func (l *PdfLoader) CreationDate(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return "", err
	}

	trailer, err := pdfReader.GetTrailer()
	if err != nil {
		return "", err
	}

	infoDict, ok := core.GetDict(trailer.Get("Info"))
	if !ok {
		return "", nil
	}
	dateStr, ok := core.GetString(infoDict.Get("CreationDate"))
	if !ok {
		return "", nil
	}

	return dateStr.Str(), nil
}

// compile-time check to ensure PdfLoader implements the Loader interface
var _ interfaces.Loader = (*PdfLoader)(nil)
