package server

import (
	"fmt"
	"time"

	"github.com/jrsteele09/go-bizcard-client/inbox"
	"github.com/jrsteele09/go-bizcard-client/posts"
	"github.com/jrsteele09/go-bizcard-client/users"
	"github.com/rs/zerolog/log"
)

// DemoPassword is the password of every seeded user
const DemoPassword = "pw"

type demoUser struct {
	loginID    string
	name       string
	company    string
	department string
	position   string
	email      string
	phone      string
}

var demoUsers = []demoUser{
	{"alice", "Alice", "Acme Corp", "Engineering", "Lead Engineer", "alice@acme.test", "010-1111-2222"},
	{"bob", "Bob", "Globex", "Sales", "Account Manager", "bob@globex.test", "010-3333-4444"},
	{"carol", "Carol", "Initech", "Design", "Product Designer", "carol@initech.test", "010-5555-6666"},
	{"dave", "Dave", "Umbrella", "Research", "Scientist", "dave@umbrella.test", "010-7777-8888"},
}

// InitialiseSystem seeds demo users, exchanged cards, posts and notifications. It does
// nothing when users already exist.
func (s *Server) InitialiseSystem() error {
	existing, err := s.repos.Users.List(0, 1)
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to list users: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	hash, err := users.HashPassword(DemoPassword)
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to hash password: %w", err)
	}

	now := s.now()
	ids := make(map[string]int64, len(demoUsers))
	for _, d := range demoUsers {
		u := &users.User{
			LoginID:      d.loginID,
			PasswordHash: hash,
			Name:         d.name,
			Company:      d.company,
			Department:   d.department,
			Position:     d.position,
			Email:        d.email,
			Phone:        d.phone,
			DateJoined:   now,
		}
		if err := s.repos.Users.Upsert(u); err != nil {
			return fmt.Errorf("[Server InitialiseSystem] failed to create user %s: %w", d.loginID, err)
		}
		ids[d.loginID] = u.ID
	}

	// Step 2: exchanged cards. Dave knows nobody yet.
	for _, pair := range [][2]string{{"alice", "bob"}, {"alice", "carol"}, {"bob", "carol"}} {
		if err := s.repos.Users.Connect(ids[pair[0]], ids[pair[1]]); err != nil {
			return fmt.Errorf("[Server InitialiseSystem] failed to connect %s and %s: %w", pair[0], pair[1], err)
		}
	}

	// Step 3: a small feed
	feed := []*posts.Post{
		{CreatorID: ids["alice"], CreatorName: "Alice", Content: "Great talks at the cloud expo today", ImageURL: "/uploads/expo.jpg", CreatedAt: now.Add(-3 * time.Hour)},
		{CreatorID: ids["bob"], CreatorName: "Bob", Content: "Our new catalogue is out", ImageURL: "/uploads/catalogue.jpg", CreatedAt: now.Add(-2 * time.Hour), LikedBy: []int64{ids["alice"]}},
		{CreatorID: ids["carol"], CreatorName: "Carol", Content: "Sketches from the design sprint", ImageURL: "/uploads/sprint.jpg", CreatedAt: now.Add(-time.Hour)},
		{CreatorID: ids["dave"], CreatorName: "Dave", Content: "Hello from the lab", ImageURL: "/uploads/lab.jpg", CreatedAt: now.Add(-30 * time.Minute)},
	}
	for _, p := range feed {
		if err := s.repos.Posts.Create(p); err != nil {
			return fmt.Errorf("[Server InitialiseSystem] failed to create post: %w", err)
		}
	}

	alicePost := feed[0].ID
	comment := &posts.Comment{AuthorID: ids["bob"], AuthorName: "Bob", Content: "Nice meeting you there!", CreatedAt: now.Add(-150 * time.Minute)}
	if err := s.repos.Posts.AddComment(alicePost, comment); err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to add comment: %w", err)
	}
	if _, err := s.repos.Posts.ToggleLike(alicePost, ids["carol"]); err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to like post: %w", err)
	}

	// Step 4: Alice's inbox mirrors the activity above
	for _, n := range []*inbox.Notification{
		{RecipientID: ids["alice"], SenderID: ids["bob"], Type: inbox.TypeComment, Message: "Bob commented on your post", CreatedAt: comment.CreatedAt, PostID: &alicePost, CommentID: &comment.ID},
		{RecipientID: ids["alice"], SenderID: ids["carol"], Type: inbox.TypePostLike, Message: "Carol liked your post", CreatedAt: now.Add(-140 * time.Minute), PostID: &alicePost},
	} {
		if err := s.repos.Inbox.Add(n); err != nil {
			return fmt.Errorf("[Server InitialiseSystem] failed to add notification: %w", err)
		}
	}

	if s.env == "DEV" {
		log.Info().
			Strs("users", []string{"alice", "bob", "carol", "dave"}).
			Str("password", DemoPassword).
			Msg("seeded demo data")
	}
	return nil
}
