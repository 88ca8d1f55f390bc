package domain

import "context"

// File is an uploaded file held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file size in bytes.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// Uploaded describes a stored file: its public URL and storage path.
type Uploaded struct {
	URL  string `json:"fileURL"`
	Path string `json:"filePath"`
}

// FileUploader stores files and returns where they can be fetched from.
type FileUploader interface {
	Upload(ctx context.Context, creds Credentials, folder string, file File) (*Uploaded, error)
}
