package notification

import (
	"fmt"
	"strings"

	"github.com/colonyops/ans/internal/core/anserr"
)

// ContentType selects which content body a request carries.
type ContentType int32

const (
	ContentBasicText    ContentType = 0
	ContentLongText     ContentType = 1
	ContentPicture      ContentType = 2
	ContentConversation ContentType = 3
	ContentMultiline    ContentType = 4
)

var contentTypeNames = [...]string{"basic_text", "long_text", "picture", "conversation", "multiline"}

func (c ContentType) String() string {
	if c >= 0 && int(c) < len(contentTypeNames) {
		return contentTypeNames[c]
	}
	return fmt.Sprintf("content(%d)", int32(c))
}

// ParseContentType parses a content type name as printed by String.
func ParseContentType(s string) (ContentType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range contentTypeNames {
		if name == s {
			return ContentType(i), nil
		}
	}
	return ContentBasicText, anserr.InvalidParam("unknown content type %q", s)
}

// BasicContent is the title and text shared by every content type.
type BasicContent struct {
	Title          string `json:"title"`
	Text           string `json:"text"`
	AdditionalText string `json:"additionalText,omitempty"`
}

type LongTextContent struct {
	BasicContent
	LongText      string `json:"longText"`
	BriefText     string `json:"briefText,omitempty"`
	ExpandedTitle string `json:"expandedTitle,omitempty"`
}

type MultilineContent struct {
	BasicContent
	BriefText string   `json:"briefText,omitempty"`
	LongTitle string   `json:"longTitle,omitempty"`
	Lines     []string `json:"lines"`
}

type PictureContent struct {
	BasicContent
	BriefText     string `json:"briefText,omitempty"`
	ExpandedTitle string `json:"expandedTitle,omitempty"`
	// Picture is a path or URI; the service does not load it.
	Picture string `json:"picture"`
}

// Message is one entry of a conversation.
type Message struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Sender    string `json:"sender"`
}

type ConversationContent struct {
	BasicContent
	User     string    `json:"user"`
	Messages []Message `json:"messages"`
}

// Content is the displayable body of a request. Exactly the member matching
// Type is used.
type Content struct {
	Type         ContentType          `json:"contentType"`
	Normal       *BasicContent        `json:"normal,omitempty"`
	LongText     *LongTextContent     `json:"longText,omitempty"`
	Multiline    *MultilineContent    `json:"multiLine,omitempty"`
	Picture      *PictureContent      `json:"picture,omitempty"`
	Conversation *ConversationContent `json:"conversation,omitempty"`
}

// Text returns a basic text content.
func Text(title, text string) Content {
	return Content{Type: ContentBasicText, Normal: &BasicContent{Title: title, Text: text}}
}

// Basic returns the title and text of whichever body is set.
func (c Content) Basic() BasicContent {
	switch c.Type {
	case ContentLongText:
		if c.LongText != nil {
			return c.LongText.BasicContent
		}
	case ContentMultiline:
		if c.Multiline != nil {
			return c.Multiline.BasicContent
		}
	case ContentPicture:
		if c.Picture != nil {
			return c.Picture.BasicContent
		}
	case ContentConversation:
		if c.Conversation != nil {
			return c.Conversation.BasicContent
		}
	default:
		if c.Normal != nil {
			return *c.Normal
		}
	}
	return BasicContent{}
}

// Validate checks that the body for Type is present and complete.
func (c Content) Validate() error {
	requireBasic := func(b BasicContent) error {
		if b.Title == "" || b.Text == "" {
			return anserr.InvalidParam("%s content requires title and text", c.Type)
		}
		return nil
	}

	switch c.Type {
	case ContentBasicText:
		if c.Normal == nil {
			return anserr.InvalidParam("basic_text content is missing")
		}
		return requireBasic(*c.Normal)
	case ContentLongText:
		if c.LongText == nil {
			return anserr.InvalidParam("long_text content is missing")
		}
		if c.LongText.LongText == "" {
			return anserr.InvalidParam("long_text content requires longText")
		}
		return requireBasic(c.LongText.BasicContent)
	case ContentMultiline:
		if c.Multiline == nil {
			return anserr.InvalidParam("multiline content is missing")
		}
		if len(c.Multiline.Lines) == 0 {
			return anserr.InvalidParam("multiline content requires lines")
		}
		return requireBasic(c.Multiline.BasicContent)
	case ContentPicture:
		if c.Picture == nil {
			return anserr.InvalidParam("picture content is missing")
		}
		if c.Picture.Picture == "" {
			return anserr.InvalidParam("picture content requires a picture")
		}
		return requireBasic(c.Picture.BasicContent)
	case ContentConversation:
		if c.Conversation == nil {
			return anserr.InvalidParam("conversation content is missing")
		}
		if c.Conversation.User == "" || len(c.Conversation.Messages) == 0 {
			return anserr.InvalidParam("conversation content requires a user and messages")
		}
		return nil
	default:
		return anserr.InvalidParam("invalid content type %d", int32(c.Type))
	}
}
