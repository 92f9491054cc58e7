package outline

import "encoding/json"

// envelope is the uniform success/error wrapper every endpoint responds with.
type envelope struct {
	OK      bool            `json:"ok"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Status  int             `json:"status"`
}

func (e *envelope) errorMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Error != "" {
		return e.Error
	}
	return "unknown error"
}

type authInfoData struct {
	User struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"user"`
}

type createCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Private     bool   `json:"private"`
}

type listCollectionsRequest struct {
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	Sort      string `json:"sort"`
	Direction string `json:"direction"`
}

type idRequest struct {
	ID string `json:"id"`
}

type createDocumentRequest struct {
	Title            string `json:"title"`
	Text             string `json:"text"`
	CollectionID     string `json:"collectionId"`
	ParentDocumentID string `json:"parentDocumentId,omitempty"`
	Publish          bool   `json:"publish"`
}

type updateDocumentRequest struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
}
