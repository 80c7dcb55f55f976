package gcs

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	bytes.Buffer
	object      string
	contentType string
	closed      bool
	closeErr    error
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return w.closeErr
}

func newFakeStore(w *fakeWriter) *BlobStore {
	return &BlobStore{
		bucket: "archive-bucket",
		newWriter: func(_ context.Context, object, contentType string) objectWriter {
			w.object = object
			w.contentType = contentType
			return w
		},
	}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client")
}

func TestPutObjectUploads(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	store := newFakeStore(w)

	uri, err := store.PutObject(context.Background(), "/pdfs/doc.pdf", "application/pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "gs://archive-bucket/pdfs/doc.pdf", uri)
	assert.Equal(t, "pdfs/doc.pdf", w.object)
	assert.Equal(t, "application/pdf", w.contentType)
	assert.Equal(t, "%PDF", w.String())
	assert.True(t, w.closed)
}

func TestPutObjectErrors(t *testing.T) {
	t.Parallel()

	t.Run("empty path", func(t *testing.T) {
		_, err := newFakeStore(&fakeWriter{}).PutObject(context.Background(), "  ", "", strings.NewReader("x"))
		require.Error(t, err)
	})

	t.Run("close failure", func(t *testing.T) {
		w := &fakeWriter{closeErr: errors.New("precondition failed")}
		_, err := newFakeStore(w).PutObject(context.Background(), "doc.pdf", "", strings.NewReader("x"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "close writer")
	})

	t.Run("reader failure closes writer", func(t *testing.T) {
		w := &fakeWriter{}
		_, err := newFakeStore(w).PutObject(context.Background(), "doc.pdf", "", errReader{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "copy object")
		assert.True(t, w.closed)
	})
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("reset") }
