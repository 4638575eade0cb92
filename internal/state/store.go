package state

import (
	"sort"
	"strings"
	"sync"

	"github.com/danhigham/cometcharm/internal/domain"
)

// Tab is one of the home screen's directory lists.
type Tab int

const (
	TabConversations Tab = iota
	TabUsers
	TabGroups
)

var Tabs = []Tab{TabConversations, TabUsers, TabGroups}

func (t Tab) String() string {
	switch t {
	case TabUsers:
		return "Users"
	case TabGroups:
		return "Groups"
	default:
		return "Chats"
	}
}

// Store caches what the home screen shows. Writers may run on command
// goroutines; drawFunc tells the UI to re-read.
type Store struct {
	mu            sync.RWMutex
	currentUser   *domain.User
	conversations []domain.Conversation
	users         []domain.User
	groups        []domain.Group
	loaded        map[Tab]bool
	activeTab     Tab
	drawFunc      func()
}

func New(drawFunc func()) *Store {
	return &Store{
		loaded:   make(map[Tab]bool),
		drawFunc: drawFunc,
	}
}

func (s *Store) SetDrawFunc(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawFunc = f
}

// draw must be called without s.mu held: drawFunc may block until the UI
// loop, which reads the store, takes the message.
func (s *Store) draw() {
	s.mu.RLock()
	f := s.drawFunc
	s.mu.RUnlock()
	if f != nil {
		f()
	}
}

func (s *Store) SetCurrentUser(u *domain.User) {
	s.mu.Lock()
	if u == nil {
		s.currentUser = nil
	} else {
		cp := *u
		s.currentUser = &cp
	}
	s.mu.Unlock()
	s.draw()
}

func (s *Store) CurrentUser() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentUser == nil {
		return domain.User{}, false
	}
	return *s.currentUser, true
}

func (s *Store) SetConversations(convs []domain.Conversation) {
	s.mu.Lock()
	s.conversations = append([]domain.Conversation(nil), convs...)
	sort.SliceStable(s.conversations, func(i, j int) bool {
		return s.conversations[i].UpdatedAt.After(s.conversations[j].UpdatedAt)
	})
	s.loaded[TabConversations] = true
	s.mu.Unlock()
	s.draw()
}

// SetUsers stores users with online users first, then by name.
func (s *Store) SetUsers(users []domain.User) {
	s.mu.Lock()
	s.users = append([]domain.User(nil), users...)
	sort.SliceStable(s.users, func(i, j int) bool {
		a, b := s.users[i], s.users[j]
		if (a.Status == "online") != (b.Status == "online") {
			return a.Status == "online"
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	s.loaded[TabUsers] = true
	s.mu.Unlock()
	s.draw()
}

func (s *Store) SetGroups(groups []domain.Group) {
	s.mu.Lock()
	s.groups = append([]domain.Group(nil), groups...)
	sort.SliceStable(s.groups, func(i, j int) bool {
		return strings.ToLower(s.groups[i].Name) < strings.ToLower(s.groups[j].Name)
	})
	s.loaded[TabGroups] = true
	s.mu.Unlock()
	s.draw()
}

// MarkRead zeroes the unread count of a conversation.
func (s *Store) MarkRead(conversationID string) {
	s.mu.Lock()
	for i, c := range s.conversations {
		if c.ID == conversationID {
			s.conversations[i].UnreadCount = 0
			break
		}
	}
	s.mu.Unlock()
	s.draw()
}

func (s *Store) Conversations() []domain.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

func (s *Store) Users() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, len(s.users))
	copy(out, s.users)
	return out
}

func (s *Store) Groups() []domain.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Group, len(s.groups))
	copy(out, s.groups)
	return out
}

// Loaded reports whether tab has been fetched since the last Reset.
func (s *Store) Loaded(tab Tab) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded[tab]
}

func (s *Store) SetActiveTab(tab Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeTab = tab
}

func (s *Store) ActiveTab() Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeTab
}

// Reset forgets everything tied to the logged-in user.
func (s *Store) Reset() {
	s.mu.Lock()
	s.currentUser = nil
	s.conversations = nil
	s.users = nil
	s.groups = nil
	s.loaded = make(map[Tab]bool)
	s.activeTab = TabConversations
	s.mu.Unlock()
	s.draw()
}
