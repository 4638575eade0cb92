package chat

import (
	"time"

	"github.com/danhigham/cometcharm/internal/domain"
)

type apiUser struct {
	UID          string `json:"uid"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar"`
	Status       string `json:"status"`
	LastActiveAt int64  `json:"lastActiveAt"`
}

func (u apiUser) toDomain() domain.User {
	user := domain.User{
		UID:    u.UID,
		Name:   u.Name,
		Avatar: u.Avatar,
		Status: u.Status,
	}
	if user.Name == "" {
		user.Name = u.UID
	}
	if u.LastActiveAt > 0 {
		user.LastActive = time.Unix(u.LastActiveAt, 0)
	}
	return user
}

type apiGroup struct {
	GUID         string `json:"guid"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Description  string `json:"description"`
	MembersCount int    `json:"membersCount"`
}

func (g apiGroup) toDomain() domain.Group {
	return domain.Group{
		GUID:         g.GUID,
		Name:         g.Name,
		Type:         g.Type,
		Description:  g.Description,
		MembersCount: g.MembersCount,
	}
}

type apiConversation struct {
	ConversationID     string `json:"conversationId"`
	ConversationType   string `json:"conversationType"`
	UnreadMessageCount int    `json:"unreadMessageCount"`
	UpdatedAt          int64  `json:"updatedAt"`
	ConversationWith   struct {
		Name string `json:"name"`
		UID  string `json:"uid"`
		GUID string `json:"guid"`
	} `json:"conversationWith"`
	LastMessage *struct {
		Sender         string    `json:"sender"`
		MentionedUsers []apiUser `json:"mentionedUsers"`
		Data           struct {
			Text     string `json:"text"`
			Entities struct {
				Sender struct {
					Entity apiUser `json:"entity"`
				} `json:"sender"`
			} `json:"entities"`
		} `json:"data"`
	} `json:"lastMessage"`
}

func (c apiConversation) toDomain() domain.Conversation {
	conv := domain.Conversation{
		ID:          c.ConversationID,
		Type:        domain.ConversationType(c.ConversationType),
		Title:       c.ConversationWith.Name,
		UnreadCount: c.UnreadMessageCount,
	}
	if conv.Title == "" {
		conv.Title = c.ConversationWith.UID + c.ConversationWith.GUID
	}
	if c.UpdatedAt > 0 {
		conv.UpdatedAt = time.Unix(c.UpdatedAt, 0)
	}
	if lm := c.LastMessage; lm != nil {
		names := make(map[string]string, len(lm.MentionedUsers))
		for _, u := range lm.MentionedUsers {
			names[u.UID] = u.Name
		}
		conv.LastMessage = MentionsToMarkdown(lm.Data.Text, names)
		conv.LastSender = lm.Data.Entities.Sender.Entity.Name
		if conv.LastSender == "" {
			conv.LastSender = lm.Sender
		}
	}
	return conv
}
