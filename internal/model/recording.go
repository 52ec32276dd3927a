package model

import "time"

// DefaultMimetype is served when a recording was ingested without a content type.
const DefaultMimetype = "video/webm"

// Recording is one ingested media file as recorded in the catalog.
// Filepath is the storage key understood by the blob store, never an absolute disk path.
type Recording struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Filepath  string    `json:"filepath"`
	Filesize  int64     `json:"filesize"`
	Mimetype  *string   `json:"mimetype"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContentType returns the stored mimetype or DefaultMimetype when none was recorded.
func (r *Recording) ContentType() string {
	if r.Mimetype == nil || *r.Mimetype == "" {
		return DefaultMimetype
	}
	return *r.Mimetype
}
