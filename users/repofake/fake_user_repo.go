package fakeuserrepo

import (
	"sort"
	"sync"

	"github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/jrsteele09/go-bizcard-client/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[int64]*users.User
	loginIDs map[string]int64 // login id to user id
	nextID   int64
	lock     sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:    make(map[int64]*users.User),
		loginIDs: make(map[string]int64),
		nextID:   1,
	}
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if existing, ok := ur.loginIDs[user.LoginID]; ok && existing != user.ID {
		return errors.ErrLoginIDTaken
	}

	if user.ID == 0 {
		user.ID = ur.nextID
	}
	if user.ID >= ur.nextID {
		ur.nextID = user.ID + 1
	}
	if existing, ok := ur.users[user.ID]; ok && existing.LoginID != user.LoginID {
		delete(ur.loginIDs, existing.LoginID)
	}
	ur.users[user.ID] = cloneUser(user)
	ur.loginIDs[user.LoginID] = user.ID
	return nil
}

func (ur *FakeUserRepo) GetByID(id int64) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if _, ok := ur.users[id]; !ok {
		return nil, errors.ErrUserNotFound
	}
	return cloneUser(ur.users[id]), nil
}

func (ur *FakeUserRepo) GetByLoginID(loginID string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if _, ok := ur.loginIDs[loginID]; !ok {
		return nil, errors.ErrUserNotFound
	}
	return cloneUser(ur.users[ur.loginIDs[loginID]]), nil
}

func (ur *FakeUserRepo) List(offset, limit int) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userList := make([]*users.User, 0, len(ur.users))
	for _, v := range ur.users {
		userList = append(userList, cloneUser(v))
	}

	sort.Slice(userList, func(i, j int) bool {
		return userList[i].ID < userList[j].ID
	})

	if offset >= len(userList) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(userList) {
		end = len(userList)
	}
	return userList[offset:end], nil
}

func (ur *FakeUserRepo) Connect(a, b int64) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	ua, ok := ur.users[a]
	if !ok {
		return errors.ErrUserNotFound
	}
	ub, ok := ur.users[b]
	if !ok {
		return errors.ErrUserNotFound
	}
	if !ua.HasContact(b) {
		ua.Contacts = append(ua.Contacts, b)
	}
	if !ub.HasContact(a) {
		ub.Contacts = append(ub.Contacts, a)
	}
	return nil
}

// cloneUser keeps callers from mutating stored users without Upsert
func cloneUser(u *users.User) *users.User {
	cp := *u
	cp.Contacts = append([]int64(nil), u.Contacts...)
	return &cp
}
