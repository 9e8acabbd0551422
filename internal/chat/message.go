package chat

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// MediaKind distinguishes image captures from video captures.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Media points at a locally held capture preview. The reference is an
// ephemeral handle valid only for the lifetime of the widget; it is never
// sent to the completion service.
type Media struct {
	Kind      MediaKind `json:"kind"`
	Reference string    `json:"reference"`
}

// Kind separates normal conversation turns from pure media artifacts
// (entries that exist only to anchor a preview, with no text). The
// orchestrator excludes artifacts when mapping history into model turns.
type Kind string

const (
	KindText          Kind = "text"
	KindMediaArtifact Kind = "media"
)

// Message is one immutable conversation entry. Once appended it is never
// rewritten or removed.
type Message struct {
	ID    int64  `json:"id"`
	Role  Role   `json:"role"`
	Kind  Kind   `json:"kind"`
	Text  string `json:"text"`
	Media *Media `json:"media,omitempty"`
}
