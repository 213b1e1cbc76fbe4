package server

import (
	"github.com/jrsteele09/go-bizcard-client/inbox"
	fakeinboxrepo "github.com/jrsteele09/go-bizcard-client/inbox/repofake"
	"github.com/jrsteele09/go-bizcard-client/posts"
	fakepostrepo "github.com/jrsteele09/go-bizcard-client/posts/repofake"
	"github.com/jrsteele09/go-bizcard-client/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-bizcard-client/token/refresh/repofake"
	"github.com/jrsteele09/go-bizcard-client/users"
	fakeuserrepo "github.com/jrsteele09/go-bizcard-client/users/repofake"
)

// Repos holds the storage the server works against
type Repos struct {
	Users         users.UserRepo
	RefreshTokens refresh.Repo
	Posts         posts.Repo
	Inbox         inbox.Repo
}

func NewInMemoryRepos() Repos {
	return Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
		Posts:         fakepostrepo.NewFakePostRepo(),
		Inbox:         fakeinboxrepo.NewFakeInboxRepo(),
	}
}
