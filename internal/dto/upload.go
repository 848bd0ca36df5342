package dto

import "io"

// Upload - файл из multipart-формы
type Upload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

type UploadResponse struct {
	Message  string `json:"message"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}
