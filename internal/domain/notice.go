package domain

// NoticeSeverity classifies user-facing messages the engine emits.
type NoticeSeverity string

const (
	NoticeInfo    NoticeSeverity = "info"
	NoticeSuccess NoticeSeverity = "success"
	NoticeError   NoticeSeverity = "error"
)

// Notice is a user-visible message for the storefront to display. Delivery is
// fire-and-forget; the engine never reads notices back.
type Notice struct {
	Message  string         `json:"message"`
	Severity NoticeSeverity `json:"severity"`
}
