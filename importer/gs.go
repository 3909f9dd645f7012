package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// gsReadSeekCloser decorates a Google Storage object handle with io.Reader,
// io.Seeker and io.Closer. Derived from
// https://github.com/googleapis/google-cloud-go/issues/1124#issuecomment-419070541
type gsReadSeekCloser struct {
	*storage.ObjectHandle
	ctx    context.Context
	r      *storage.Reader
	offset int64
}

func (s *gsReadSeekCloser) Read(buf []byte) (int, error) {
	if s.r == nil {
		r, err := s.NewRangeReader(s.ctx, s.offset, -1)
		if err != nil {
			return 0, err
		}
		s.r = r
	}
	return s.r.Read(buf)
}

// Seek only supports rewinding. Seeking is not actually possible, so the
// current connection is dropped and the next Read opens a new one.
func (s *gsReadSeekCloser) Seek(offset int64, whence int) (int64, error) {
	if whence != io.SeekStart {
		return 0, fmt.Errorf("io.Seeker 'whence' value %d is not implemented", whence)
	}
	if s.r != nil {
		s.r.Close()
		s.r = nil
	}
	s.offset = offset
	return s.offset, nil
}

func (s *gsReadSeekCloser) Close() error {
	if s.r == nil {
		return nil
	}
	err := s.r.Close()
	s.r = nil
	return err
}

// splitGSPath turns gs://bucket/path/to/object into its bucket and object.
func splitGSPath(path string) (bucket, object string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 || pathParts[0] == "" || pathParts[1] == "" {
		return "", "", fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}
	return pathParts[0], pathParts[1], nil
}

// openSeeker opens a local file, or a gs:// object when client is non-nil.
func openSeeker(ctx context.Context, path string, client *storage.Client) (io.ReadSeekCloser, error) {
	if strings.HasPrefix(path, "gs://") {
		if client == nil {
			return nil, fmt.Errorf("%s: a storage client is required for gs:// paths", path)
		}
		bucket, object, err := splitGSPath(path)
		if err != nil {
			return nil, err
		}

		handle := client.Bucket(bucket).Object(object)

		// Fail early, rather than on first read, if the object is absent.
		if _, err := handle.Attrs(ctx); err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %s", path, err))
		}

		return &gsReadSeekCloser{ObjectHandle: handle, ctx: ctx}, nil
	}

	return os.Open(path)
}
