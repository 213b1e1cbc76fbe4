package fakeinboxrepo

import (
	"sort"
	"sync"

	"github.com/jrsteele09/go-bizcard-client/inbox"
	"github.com/jrsteele09/go-bizcard-client/internal/errors"
)

var _ inbox.Repo = (*FakeInboxRepo)(nil)

type FakeInboxRepo struct {
	notifications map[int64]*inbox.Notification
	nextID        int64
	lock          sync.RWMutex
}

func NewFakeInboxRepo() inbox.Repo {
	return &FakeInboxRepo{
		notifications: make(map[int64]*inbox.Notification),
		nextID:        1,
	}
}

func (ir *FakeInboxRepo) Add(n *inbox.Notification) error {
	ir.lock.Lock()
	defer ir.lock.Unlock()

	n.ID = ir.nextID
	ir.nextID++
	stored := *n
	ir.notifications[n.ID] = &stored
	return nil
}

func (ir *FakeInboxRepo) ListFor(recipientID int64) ([]*inbox.Notification, error) {
	ir.lock.RLock()
	defer ir.lock.RUnlock()

	var list []*inbox.Notification
	for _, n := range ir.notifications {
		if n.RecipientID == recipientID {
			cp := *n
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (ir *FakeInboxRepo) MarkRead(recipientID, id int64) error {
	ir.lock.Lock()
	defer ir.lock.Unlock()

	n, ok := ir.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return errors.ErrNotFound
	}
	n.IsRead = true
	return nil
}

func (ir *FakeInboxRepo) Delete(recipientID, id int64) error {
	ir.lock.Lock()
	defer ir.lock.Unlock()

	n, ok := ir.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return errors.ErrNotFound
	}
	delete(ir.notifications, id)
	return nil
}

func (ir *FakeInboxRepo) DeleteMany(recipientID int64, ids []int64) error {
	ir.lock.Lock()
	defer ir.lock.Unlock()

	for _, id := range ids {
		if n, ok := ir.notifications[id]; ok && n.RecipientID == recipientID {
			delete(ir.notifications, id)
		}
	}
	return nil
}
