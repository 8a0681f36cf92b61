package models

import "time"

// FileInfo represents metadata about a stored image blob.
type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MediaType  string    `json:"mediaType"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// SelectedFile is the image currently chosen for analysis. The payload
// itself lives in the image store under FileInfo.ID.
type SelectedFile struct {
	FileInfo
	PreviewURL string `json:"-"` // data: URL
}
