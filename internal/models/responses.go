package models

// UploadMessage is the message returned with a stored upload.
const UploadMessage = "File added successfully!"

// UploadResponse is the body of a successful upload.
type UploadResponse struct {
	Message string       `json:"message"`
	Data    UploadRecord `json:"data"`
}

// ListResponse is the body of a record listing.
type ListResponse struct {
	Response []UploadRecord `json:"response"`
}
