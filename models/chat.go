package models

// ChatRequest is the JSON body of POST /api/chat.
type ChatRequest struct {
	Query string `json:"query" binding:"required,min=1"`
	K     int    `json:"k,omitempty"`
}

// ChatResponse carries the generated answer and the deduplicated source
// filenames of the chunks used as context.
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// UploadResponse is returned by POST /api/upload.
type UploadResponse struct {
	Status      string `json:"status"`
	File        string `json:"file,omitempty"`
	ChunksAdded int    `json:"chunks_added,omitempty"`
	Message     string `json:"message,omitempty"`
}

// CountResponse is returned by GET /api/vectorstore/count.
type CountResponse struct {
	Count int `json:"count"`
}

// DeleteResponse is returned by DELETE /api/vectorstore/delete_all.
type DeleteResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
