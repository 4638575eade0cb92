package domain

import (
	"strings"
	"time"
)

// Credentials identify a CometChat app.
type Credentials struct {
	AppID   string `json:"appId" yaml:"app_id" validate:"required"`
	AuthKey string `json:"authKey" yaml:"auth_key" validate:"required"`
	Region  string `json:"region" yaml:"region" validate:"required"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (c Credentials) Trimmed() Credentials {
	return Credentials{
		AppID:   strings.TrimSpace(c.AppID),
		AuthKey: strings.TrimSpace(c.AuthKey),
		Region:  strings.TrimSpace(c.Region),
	}
}

type User struct {
	UID        string
	Name       string
	Avatar     string
	Status     string // "online" or "offline"
	LastActive time.Time
}

type Group struct {
	GUID         string
	Name         string
	Type         string // public, private, password
	Description  string
	MembersCount int
}

type ConversationType string

const (
	ConversationUser  ConversationType = "user"
	ConversationGroup ConversationType = "group"
)

type Conversation struct {
	ID          string
	Type        ConversationType
	Title       string
	LastMessage string
	LastSender  string
	UnreadCount int
	UpdatedAt   time.Time
}

type CallType string

const (
	CallAudio CallType = "audio"
	CallVideo CallType = "video"
)

// CallStatus is the status sent when answering or rejecting a call.
type CallStatus string

const (
	CallStatusInitiated CallStatus = "initiated"
	CallStatusOngoing   CallStatus = "ongoing"
	CallStatusRejected  CallStatus = "rejected"
	CallStatusBusy      CallStatus = "busy"
	CallStatusCancelled CallStatus = "cancelled"
	CallStatusEnded     CallStatus = "ended"
)

// Call is a call notification delivered by the chat platform.
type Call struct {
	SessionID   string
	Type        CallType
	Status      CallStatus
	Initiator   User
	Receiver    string // uid or guid
	InitiatedAt time.Time
}
