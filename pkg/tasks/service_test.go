package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taskboard/pkg/auth"
	"taskboard/pkg/models"
	"taskboard/pkg/notify"
	"taskboard/pkg/taskerr"
)

type repoMock struct {
	mock.Mock
}

func (m *repoMock) Create(ctx context.Context, task *models.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *repoMock) FindByID(ctx context.Context, id uint) (*models.Task, error) {
	args := m.Called(ctx, id)
	var task *models.Task
	if value := args.Get(0); value != nil {
		task = value.(*models.Task)
	}
	return task, args.Error(1)
}

func (m *repoMock) Query(ctx context.Context, ownerID uint, q Query) ([]models.Task, int64, error) {
	args := m.Called(ctx, ownerID, q)
	var items []models.Task
	if value := args.Get(0); value != nil {
		items = value.([]models.Task)
	}
	return items, int64(args.Int(1)), args.Error(2)
}

func (m *repoMock) Update(ctx context.Context, task *models.Task, deletedSubTaskIDs []uint) error {
	return m.Called(ctx, task, deletedSubTaskIDs).Error(0)
}

func (m *repoMock) SaveScalars(ctx context.Context, task *models.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *repoMock) Delete(ctx context.Context, task *models.Task) error {
	return m.Called(ctx, task).Error(0)
}

type subRepoMock struct {
	mock.Mock
}

func (m *subRepoMock) Create(ctx context.Context, st *models.SubTask) error {
	return m.Called(ctx, st).Error(0)
}

func (m *subRepoMock) FindByID(ctx context.Context, id uint) (*models.SubTask, error) {
	args := m.Called(ctx, id)
	var st *models.SubTask
	if value := args.Get(0); value != nil {
		st = value.(*models.SubTask)
	}
	return st, args.Error(1)
}

func (m *subRepoMock) Update(ctx context.Context, st *models.SubTask) error {
	return m.Called(ctx, st).Error(0)
}

func (m *subRepoMock) Delete(ctx context.Context, st *models.SubTask) error {
	return m.Called(ctx, st).Error(0)
}

func (m *subRepoMock) ListByTask(ctx context.Context, taskID uint) ([]models.SubTask, error) {
	args := m.Called(ctx, taskID)
	var items []models.SubTask
	if value := args.Get(0); value != nil {
		items = value.([]models.SubTask)
	}
	return items, args.Error(1)
}

type dispatcherMock struct {
	mock.Mock
}

func (m *dispatcherMock) Dispatch(kind string, event notify.Event) {
	m.Called(kind, event)
}

// fakeCache is a plain in-memory cache so the tests can observe hits and
// invalidations without a redis round trip.
type fakeCache struct {
	lists             map[string]*Page
	items             map[uint]*models.Task
	invalidatedOwners []uint
}

func newFakeCache() *fakeCache {
	return &fakeCache{lists: make(map[string]*Page), items: make(map[uint]*models.Task)}
}

func (c *fakeCache) GetList(_ context.Context, key string) (*Page, bool) {
	page, ok := c.lists[key]
	return page, ok
}

func (c *fakeCache) SetList(_ context.Context, key string, page *Page) {
	c.lists[key] = page
}

func (c *fakeCache) GetTask(_ context.Context, id uint) (*models.Task, bool) {
	task, ok := c.items[id]
	return task, ok
}

func (c *fakeCache) SetTask(_ context.Context, task *models.Task) {
	c.items[task.ID] = task
}

func (c *fakeCache) InvalidateTask(_ context.Context, id uint) {
	delete(c.items, id)
}

func (c *fakeCache) InvalidateOwner(_ context.Context, ownerID uint) {
	c.invalidatedOwners = append(c.invalidatedOwners, ownerID)
	c.lists = make(map[string]*Page)
}

type attachmentsMock struct {
	mock.Mock
}

func (m *attachmentsMock) Upload(data []byte, name string) (string, error) {
	args := m.Called(data, name)
	return args.String(0), args.Error(1)
}

func newFixture() (*Service, *repoMock, *subRepoMock, *dispatcherMock, *fakeCache, *attachmentsMock) {
	repo := new(repoMock)
	subs := new(subRepoMock)
	dispatcher := new(dispatcherMock)
	attachments := new(attachmentsMock)
	fc := newFakeCache()
	svc := NewService(repo, subs, fc, dispatcher, attachments)
	return svc, repo, subs, dispatcher, fc, attachments
}

func ownerCtx(id uint, username string) context.Context {
	return auth.WithUser(context.Background(), models.User{ID: id, Username: username, Email: username + "@example.com"})
}

func TestServiceCreate_HighPriorityDispatchesExactlyOnce(t *testing.T) {
	svc, repo, _, dispatcher, fc, _ := newFixture()
	ctx := ownerCtx(1, "alice")

	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Task")).
		Run(func(args mock.Arguments) {
			task := args.Get(1).(*models.Task)
			task.ID = 42
			task.Version = 1
		}).
		Return(nil).Once()
	dispatcher.On("Dispatch", notify.KindTaskCreatedHighPriority, mock.MatchedBy(func(ev notify.Event) bool {
		return ev.TaskID == 42 && ev.Title == "Ship the release" && ev.OwnerUsername == "alice"
	})).Once()

	created, err := svc.Create(ctx, &models.Task{
		Title:    "Ship the release",
		Priority: models.PriorityHigh,
		Status:   models.StatusPending,
		UserID:   999, // caller-supplied owner is ignored
	})

	require.NoError(t, err)
	require.Equal(t, uint(42), created.ID)
	require.Equal(t, uint(1), created.UserID)
	require.Equal(t, []uint{1}, fc.invalidatedOwners)
	repo.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
}

func TestServiceCreate_LowPriorityDispatchesNothing(t *testing.T) {
	svc, repo, _, dispatcher, _, _ := newFixture()
	ctx := ownerCtx(1, "alice")

	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := svc.Create(ctx, &models.Task{
		Title:    "Water the plants",
		Priority: models.PriorityLow,
		Status:   models.StatusPending,
	})

	require.NoError(t, err)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestServiceCreate_Unauthenticated(t *testing.T) {
	svc, repo, _, _, _, _ := newFixture()

	_, err := svc.Create(context.Background(), &models.Task{
		Title:    "No owner",
		Priority: models.PriorityLow,
		Status:   models.StatusPending,
	})

	require.ErrorIs(t, err, taskerr.ErrUnauthenticated)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestServiceCreate_ValidationRejectedBeforePersist(t *testing.T) {
	svc, repo, _, _, _, _ := newFixture()
	ctx := ownerCtx(1, "alice")

	_, err := svc.Create(ctx, &models.Task{
		Title:    "ab",
		Priority: models.PriorityLow,
		Status:   models.StatusPending,
	})

	var verr *taskerr.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "title")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestServiceGet_OwnershipDenied(t *testing.T) {
	svc, repo, _, _, _, _ := newFixture()
	ctx := ownerCtx(2, "bob")

	repo.On("FindByID", mock.Anything, uint(7)).
		Return(&models.Task{ID: 7, UserID: 1, Title: "Alice's task"}, nil).Once()

	_, err := svc.Get(ctx, 7)
	require.ErrorIs(t, err, taskerr.ErrAccessDenied)
	require.NotErrorIs(t, err, taskerr.ErrNotFound)
}

func TestServiceGet_NotFound(t *testing.T) {
	svc, repo, _, _, _, _ := newFixture()
	ctx := ownerCtx(1, "alice")

	repo.On("FindByID", mock.Anything, uint(404)).Return(nil, taskerr.ErrNotFound).Once()

	_, err := svc.Get(ctx, 404)
	require.ErrorIs(t, err, taskerr.ErrNotFound)
}

func TestServiceList_SecondIdenticalCallHitsCache(t *testing.T) {
	svc, repo, _, _, _, _ := newFixture()
	ctx := ownerCtx(1, "alice")

	priority := models.PriorityHigh
	status := models.StatusPending
	q := Query{Priority: &priority, Status: &status}

	repo.On("Query", mock.Anything, uint(1), mock.Anything).
		Return([]models.Task{{ID: 1, UserID: 1, Title: "Only mine"}}, 1, nil).Once()

	first, err := svc.List(ctx, q)
	require.NoError(t, err)
	require.Len(t, first.Items, 1)
	require.Equal(t, int64(1), first.TotalCount)

	second, err := svc.List(ctx, q)
	require.NoError(t, err)
	require.Equal(t, first, second)

	// One storage query for two identical calls.
	repo.AssertNumberOfCalls(t, "Query", 1)
}

func TestServiceList_WriteInvalidatesCachedPage(t *testing.T) {
	svc, repo, _, _, _, _ := newFixture()
	ctx := ownerCtx(1, "alice")

	repo.On("Query", mock.Anything, uint(1), mock.Anything).Return([]models.Task{}, 0, nil).Twice()
	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := svc.List(ctx, Query{})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &models.Task{Title: "New task", Priority: models.PriorityLow, Status: models.StatusPending})
	require.NoError(t, err)

	_, err = svc.List(ctx, Query{})
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Query", 2)
}

func TestServiceUpdate_NilSubtasksClearsCollection(t *testing.T) {
	svc, repo, _, _, _, _ := newFixture()
	ctx := ownerCtx(1, "alice")

	existing := &models.Task{
		ID: 5, UserID: 1, Version: 3,
		Title: "Before", Priority: models.PriorityLow, Status: models.StatusPending,
		Subtasks: []models.SubTask{
			{ID: 10, TaskID: 5, Title: "keep me?", Priority: models.PriorityLow, Status: models.StatusPending},
			{ID: 20, TaskID: 5, Title: "me too?", Priority: models.PriorityLow, Status: models.StatusPending},
		},
	}
	repo.On("FindByID", mock.Anything, uint(5)).Return(existing, nil).Once()
	repo.On("Update", mock.Anything, mock.MatchedBy(func(task *models.Task) bool {
		return task.ID == 5 && len(task.Subtasks) == 0 && task.Title == "After"
	}), []uint{10, 20}).Return(nil).Once()

	updated, err := svc.Update(ctx, &models.Task{
		ID:       5,
		Title:    "After",
		Priority: models.PriorityLow,
		Status:   models.StatusInProgress,
		Subtasks: nil,
	})

	require.NoError(t, err)
	require.Empty(t, updated.Subtasks)
	repo.AssertExpectations(t)
}

func TestServiceUpdate_ConflictSurfacesWithoutRetry(t *testing.T) {
	svc, repo, _, _, _, _ := newFixture()
	ctx := ownerCtx(1, "alice")

	existing := &models.Task{ID: 5, UserID: 1, Version: 3, Title: "Before", Priority: models.PriorityLow, Status: models.StatusPending}
	repo.On("FindByID", mock.Anything, uint(5)).Return(existing, nil).Once()
	repo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(taskerr.ErrConflict).Once()

	_, err := svc.Update(ctx, &models.Task{
		ID: 5, Title: "Concurrent edit", Priority: models.PriorityLow, Status: models.StatusPending,
	})

	require.ErrorIs(t, err, taskerr.ErrConflict)
	repo.AssertNumberOfCalls(t, "Update", 1)
}

func TestServiceUpdate_HighPriorityDispatches(t *testing.T) {
	svc, repo, _, dispatcher, _, _ := newFixture()
	ctx := ownerCtx(1, "alice")

	existing := &models.Task{ID: 5, UserID: 1, Version: 1, Title: "Before", Priority: models.PriorityLow, Status: models.StatusPending}
	repo.On("FindByID", mock.Anything, uint(5)).Return(existing, nil).Once()
	repo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	dispatcher.On("Dispatch", notify.KindTaskCreatedHighPriority, mock.Anything).Once()

	_, err := svc.Update(ctx, &models.Task{
		ID: 5, Title: "Now urgent", Priority: models.PriorityHigh, Status: models.StatusPending,
	})

	require.NoError(t, err)
	dispatcher.AssertExpectations(t)
}

func TestServiceDelete_OwnershipDenied(t *testing.T) {
	svc, repo, _, _, _, _ := newFixture()
	ctx := ownerCtx(2, "bob")

	repo.On("FindByID", mock.Anything, uint(5)).
		Return(&models.Task{ID: 5, UserID: 1}, nil).Once()

	err := svc.Delete(ctx, 5)
	require.ErrorIs(t, err, taskerr.ErrAccessDenied)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestServiceSubTaskOps_OwnershipCheckedViaParent(t *testing.T) {
	svc, repo, subs, _, _, _ := newFixture()
	ctx := ownerCtx(2, "bob")

	subs.On("FindByID", mock.Anything, uint(30)).
		Return(&models.SubTask{ID: 30, TaskID: 5, Title: "subtask", Priority: models.PriorityLow, Status: models.StatusPending}, nil)
	repo.On("FindByID", mock.Anything, uint(5)).
		Return(&models.Task{ID: 5, UserID: 1}, nil)

	_, err := svc.UpdateSubTask(ctx, &models.SubTask{ID: 30, Title: "hijack", Priority: models.PriorityLow, Status: models.StatusPending})
	require.ErrorIs(t, err, taskerr.ErrAccessDenied)

	err = svc.DeleteSubTask(ctx, 30)
	require.ErrorIs(t, err, taskerr.ErrAccessDenied)
	subs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	subs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestServiceCreateSubTask_LinksParent(t *testing.T) {
	svc, repo, subs, _, _, _ := newFixture()
	ctx := ownerCtx(1, "alice")

	repo.On("FindByID", mock.Anything, uint(5)).
		Return(&models.Task{ID: 5, UserID: 1}, nil).Once()
	subs.On("Create", mock.Anything, mock.MatchedBy(func(st *models.SubTask) bool {
		return st.TaskID == 5 && st.ID == 0
	})).Return(nil).Once()

	created, err := svc.CreateSubTask(ctx, 5, &models.SubTask{
		ID:       99, // must be ignored
		Title:    "fresh subtask",
		Priority: models.PriorityMedium,
		Status:   models.StatusPending,
	})

	require.NoError(t, err)
	require.Equal(t, uint(5), created.TaskID)
	subs.AssertExpectations(t)
}

func TestServiceUploadAttachment(t *testing.T) {
	svc, repo, _, _, _, attachments := newFixture()
	ctx := ownerCtx(1, "alice")

	repo.On("FindByID", mock.Anything, uint(5)).
		Return(&models.Task{ID: 5, UserID: 1, Version: 1, Title: "With file", Priority: models.PriorityLow, Status: models.StatusPending}, nil).Once()
	attachments.On("Upload", []byte("contents"), "notes.txt").
		Return("/attachments/abc_notes.txt", nil).Once()
	repo.On("SaveScalars", mock.Anything, mock.MatchedBy(func(task *models.Task) bool {
		return task.AttachmentURL == "/attachments/abc_notes.txt"
	})).Return(nil).Once()

	updated, err := svc.UploadAttachment(ctx, 5, []byte("contents"), "notes.txt")
	require.NoError(t, err)
	require.Equal(t, "/attachments/abc_notes.txt", updated.AttachmentURL)
	attachments.AssertExpectations(t)
	repo.AssertExpectations(t)
}
