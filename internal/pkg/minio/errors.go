package minio

import (
	"errors"
	"strings"

	"github.com/minio/minio-go/v7"
)

var (
	ErrInvalidArgument   = errors.New("minio: invalid argument")
	ErrInvalidBucketName = errors.New("minio: invalid bucket name")
	ErrInvalidObjectName = errors.New("minio: invalid object name")
)

// Error is a failed archive operation. Bucket and Object name its target
// when known.
type Error struct {
	Op     string
	Bucket string
	Object string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("minio: ")
	b.WriteString(e.Op)
	if e.Bucket != "" {
		b.WriteString(" " + e.Bucket)
		if e.Object != "" {
			b.WriteString("/" + e.Object)
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op string, err error, bucket, object string) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Bucket: bucket, Object: object, Err: err}
}

// bucketOwned reports whether MakeBucket lost a race against another
// creator of the same bucket
func bucketOwned(err error) bool {
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	return resp.Code == "BucketAlreadyExists" || resp.Code == "BucketAlreadyOwnedByYou"
}
