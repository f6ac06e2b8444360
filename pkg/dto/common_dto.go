package dto

import "io"

// UploadFile is a multipart file handed from a handler to a service.
type UploadFile struct {
	Reader      io.Reader
	FileName    string
	ContentType string
	Size        int64
}
