package models

// ChatSource tags where an assistant reply was grounded
type ChatSource string

const (
	SourceKnowledgeBase    ChatSource = "knowledge_base"
	SourceUploadedDocument ChatSource = "uploaded_document"
	SourceGeneral          ChatSource = "general"
)

// Citation points at the provenance of a grounded answer
type Citation struct {
	Title  string  `json:"title"`
	Author *string `json:"author,omitempty"`
	Page   *int    `json:"page,omitempty"`
}

// ChatMessage is one turn of a chat transcript. Assistant turns produced by
// retrieval carry a source tag, a similarity score and citations; a reply
// with empty content and a score below the confidence threshold signals
// that the fallback decision belongs to the caller.
type ChatMessage struct {
	Role            string     `json:"role"` // "user" or "assistant"
	Content         string     `json:"content"`
	Citations       []Citation `json:"citations,omitempty"`
	Source          ChatSource `json:"source,omitempty"`
	SimilarityScore *float64   `json:"similarity_score,omitempty"`
}
