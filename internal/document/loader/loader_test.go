package loader

import (
	"context"
	"strings"
	"testing"

	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		filename string
		want     FileType
	}{
		{"essay.txt", FileTypeTxt},
		{"ESSAY.TXT", FileTypeTxt},
		{"paper.final.PDF", FileTypePdf},
		{"letter.doc", FileTypeDoc},
		{"letter.docx", FileTypeDocx},
		{"noext", FileType("")},
		{"image.png", FileType(".png")},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFileType(tt.filename))
		})
	}
}

func TestFactory(t *testing.T) {
	f := NewFactory(logger.NewNop())

	assert.Equal(t, []FileType{FileTypeDoc, FileTypeDocx, FileTypePdf, FileTypeTxt}, f.SupportedTypes())

	for _, ft := range []FileType{FileTypeTxt, FileTypePdf, FileTypeDoc, FileTypeDocx} {
		l, err := f.CreateLoader(ft)
		require.NoError(t, err, ft)
		assert.NotNil(t, l)
	}

	_, err := f.CreateLoader(".exe")
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestTextLoader(t *testing.T) {
	l := NewTextLoader()

	doc, err := l.Load(context.Background(), strings.NewReader("\ufeffhello world"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", doc.Content)
	assert.Equal(t, "text", doc.Metadata["loader"])

	doc, err = l.Load(context.Background(), strings.NewReader("bad \xff byte"))
	require.NoError(t, err)
	assert.Equal(t, "bad \ufffd byte", doc.Content)
}

func TestPDFLoader_Corrupt(t *testing.T) {
	l := NewPDFLoader(logger.NewNop())

	_, err := l.Load(context.Background(), strings.NewReader("%PDF-1.4 this is not really a pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPDFExtraction)
}

func TestWordLoader_Corrupt(t *testing.T) {
	l := NewWordLoader()

	_, err := l.Load(context.Background(), strings.NewReader("definitely not a zip archive"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWordExtraction)
}
