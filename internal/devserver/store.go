package devserver

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dohr-michael/taskdeck/internal/api"
)

var (
	errNotFound  = errors.New("not found")
	errForbidden = errors.New("forbidden")
	errExists    = errors.New("already exists")

	errCompletedLocked = errors.New("completed tasks cannot change to other states")
)

type user struct {
	api.User
	PasswordHash []byte
}

// Store holds every resource of the dev server in memory.
type Store struct {
	mu sync.Mutex

	now func() time.Time

	nextUser, nextTask, nextCategory, nextNotification int64

	users         map[int64]*user
	tasks         map[int64]*api.Task
	categories    map[int64]*api.Category
	notifications map[int64]*api.Notification
}

// NewStore returns an empty store using clock for timestamps.
func NewStore(clock func() time.Time) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		now:           clock,
		users:         make(map[int64]*user),
		tasks:         make(map[int64]*api.Task),
		categories:    make(map[int64]*api.Category),
		notifications: make(map[int64]*api.Notification),
	}
}

func (s *Store) today() civil.Date { return civil.DateOf(s.now()) }

func (s *Store) createUser(name, email string, hash []byte) (api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return api.User{}, errExists
		}
	}
	s.nextUser++
	u := &user{User: api.User{ID: s.nextUser, Name: name, Email: email}, PasswordHash: hash}
	s.users[u.ID] = u
	return u.User, nil
}

func (s *Store) userByEmail(email string) (user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return *u, true
		}
	}
	return user{}, false
}

func (s *Store) userByID(id int64) (user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return user{}, false
	}
	return *u, true
}

func (s *Store) updateUser(id int64, name, email *string, hash []byte) (api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return api.User{}, errNotFound
	}
	if email != nil && !strings.EqualFold(*email, u.Email) {
		for _, other := range s.users {
			if other.ID != id && strings.EqualFold(other.Email, *email) {
				return api.User{}, errExists
			}
		}
		u.Email = *email
	}
	if name != nil {
		u.Name = *name
	}
	if hash != nil {
		u.PasswordHash = hash
	}
	return u.User, nil
}

// deleteUser drops the user and everything they own.
func (s *Store) deleteUser(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, id)
	for tid, t := range s.tasks {
		if t.UserID == id {
			delete(s.tasks, tid)
		}
	}
	for cid, c := range s.categories {
		if c.UserID == id {
			delete(s.categories, cid)
		}
	}
	for nid, n := range s.notifications {
		if n.UserID == id {
			delete(s.notifications, nid)
		}
	}
}

// --- tasks ---

func (s *Store) refresh(t *api.Task) {
	t.Overdue = t.DueDate != nil && t.DueDate.Before(s.today()) && t.Status != api.StatusCompleted
}

func (s *Store) ownedTask(userID, id int64) (*api.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, errNotFound
	}
	if t.UserID != userID {
		return nil, errForbidden
	}
	return t, nil
}

func (s *Store) userTasks(userID int64, keep func(*api.Task) bool) []api.Task {
	var out []api.Task
	for _, t := range s.tasks {
		if t.UserID != userID || (keep != nil && !keep(t)) {
			continue
		}
		s.refresh(t)
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b api.Task) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) createTask(userID int64, in api.TaskInput) api.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := api.Timestamp{Time: s.now().UTC()}
	s.nextTask++
	t := &api.Task{
		ID:          s.nextTask,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		DueTime:     in.DueTime,
		Priority:    cmp.Or(in.Priority, api.PriorityMedium),
		Status:      api.StatusPending,
		Important:   in.Important,
		Completed:   in.Completed,
		UserID:      userID,
		CategoryID:  in.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Completed {
		t.Status = api.StatusCompleted
		t.CompletedAt = &now
	}
	s.tasks[t.ID] = t
	s.refresh(t)
	s.notifyLocked(userID, t.ID, "📝 Task created: "+t.Title)
	return *t
}

func (s *Store) getTask(userID, id int64) (api.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.ownedTask(userID, id)
	if err != nil {
		return api.Task{}, err
	}
	s.refresh(t)
	return *t, nil
}

func (s *Store) deleteTask(userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.ownedTask(userID, id)
	if err != nil {
		return err
	}
	s.notifyLocked(userID, id, "🗑️ Task deleted: "+t.Title)
	delete(s.tasks, id)
	return nil
}

// --- categories ---

func (s *Store) countTasks(categoryID int64) int {
	n := 0
	for _, t := range s.tasks {
		if t.CategoryID != nil && *t.CategoryID == categoryID {
			n++
		}
	}
	return n
}

func (s *Store) ownedCategory(userID, id int64) (*api.Category, error) {
	c, ok := s.categories[id]
	if !ok {
		return nil, errNotFound
	}
	if c.UserID != userID {
		return nil, errForbidden
	}
	return c, nil
}

func (s *Store) nameTaken(userID, exceptID int64, name string) bool {
	for _, c := range s.categories {
		if c.UserID == userID && c.ID != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (s *Store) listCategories(userID int64) []api.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []api.Category{}
	for _, c := range s.categories {
		if c.UserID == userID {
			cp := *c
			cp.TaskCount = s.countTasks(c.ID)
			out = append(out, cp)
		}
	}
	slices.SortFunc(out, func(a, b api.Category) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

func (s *Store) createCategory(userID int64, in api.CategoryInput) (api.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTaken(userID, 0, in.Name) {
		return api.Category{}, errExists
	}
	s.nextCategory++
	c := &api.Category{
		ID:        s.nextCategory,
		Name:      in.Name,
		Color:     in.Color,
		Icon:      in.Icon,
		UserID:    userID,
		CreatedAt: api.Timestamp{Time: s.now().UTC()},
	}
	s.categories[c.ID] = c
	return *c, nil
}

func (s *Store) getCategory(userID, id int64) (api.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.ownedCategory(userID, id)
	if err != nil {
		return api.Category{}, err
	}
	cp := *c
	cp.TaskCount = s.countTasks(id)
	return cp, nil
}

func (s *Store) updateCategory(userID, id int64, up api.CategoryUpdate) (api.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.ownedCategory(userID, id)
	if err != nil {
		return api.Category{}, err
	}
	if up.Name != nil {
		name := strings.TrimSpace(*up.Name)
		if s.nameTaken(userID, id, name) {
			return api.Category{}, errExists
		}
		c.Name = name
	}
	if up.Color != nil {
		c.Color = *up.Color
	}
	if up.Icon != nil {
		c.Icon = *up.Icon
	}
	cp := *c
	cp.TaskCount = s.countTasks(id)
	return cp, nil
}

// deleteCategory removes the category and detaches its tasks.
func (s *Store) deleteCategory(userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.ownedCategory(userID, id); err != nil {
		return err
	}
	for _, t := range s.tasks {
		if t.CategoryID != nil && *t.CategoryID == id {
			t.CategoryID = nil
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) categoryTasks(userID, id int64) (api.CategoryTasks, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.ownedCategory(userID, id)
	if err != nil {
		return api.CategoryTasks{}, err
	}
	tasks := s.userTasks(userID, func(t *api.Task) bool {
		return t.CategoryID != nil && *t.CategoryID == id
	})
	if tasks == nil {
		tasks = []api.Task{}
	}
	cp := *c
	cp.TaskCount = len(tasks)
	return api.CategoryTasks{Category: cp, Tasks: tasks, Total: len(tasks)}, nil
}

// --- notifications ---

func (s *Store) notifyLocked(userID, taskID int64, msg string) {
	s.nextNotification++
	s.notifications[s.nextNotification] = &api.Notification{
		ID:        s.nextNotification,
		TaskID:    taskID,
		UserID:    userID,
		Message:   msg,
		CreatedAt: api.Timestamp{Time: s.now().UTC()},
	}
}

func (s *Store) listNotifications(userID int64, page, limit int, isRead *bool) api.NotificationList {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []api.Notification
	unread := 0
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		if !n.IsRead {
			unread++
		}
		if isRead != nil && n.IsRead != *isRead {
			continue
		}
		cp := *n
		cp.TaskTitle = "Deleted task"
		if t, ok := s.tasks[n.TaskID]; ok {
			cp.TaskTitle = t.Title
		}
		matched = append(matched, cp)
	}
	// Newest first.
	slices.SortFunc(matched, func(a, b api.Notification) int { return cmp.Compare(b.ID, a.ID) })

	return api.NotificationList{
		Notifications: window(matched, page, limit),
		Total:         len(matched),
		UnreadCount:   unread,
	}
}

func (s *Store) markRead(userID, id int64) (api.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return api.Notification{}, errNotFound
	}
	n.IsRead = true
	return *n, nil
}

func (s *Store) markAllRead(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count
}

func (s *Store) deleteNotification(userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return errNotFound
	}
	delete(s.notifications, id)
	return nil
}

// window returns the 1-based page of items. It never returns nil.
func window[T any](items []T, page, limit int) []T {
	offset := (page - 1) * limit
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}
