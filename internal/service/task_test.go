package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/things/internal/model"
	"github.com/BuzzLyutic/things/internal/repo"
)

// MockTaskRepository is a testify mock of repo.TaskRepository.
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, ownerID, id, description string) (model.Task, error) {
	args := m.Called(ctx, ownerID, id, description)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, ownerID, id string, patch model.TaskPatch) (model.Task, error) {
	args := m.Called(ctx, ownerID, id, patch)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockTaskRepository) ClearCompleted(ctx context.Context, ownerID string) ([]model.Task, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) DeleteAll(ctx context.Context, ownerID string) ([]model.Task, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) ListForOwner(ctx context.Context, ownerID string) ([]model.Task, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]model.Task), args.Error(1)
}

const owner = "owner-1"

func TestIntentRouter_Dispatch(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clientID := uuid.NewString()

	tests := []struct {
		name      string
		intent    string
		fields    map[string]string
		setupMock func(*MockTaskRepository)
		wantErr   error
		check     func(*testing.T, Result)
	}{
		{
			name:   "create task",
			intent: "CREATE_TASK",
			fields: map[string]string{"description": "  Buy milk "},
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, owner, "", "Buy milk").
					Return(model.Task{ID: "t1", OwnerID: owner, Description: "Buy milk"}, nil)
			},
			check: func(t *testing.T, r Result) {
				require.NotNil(t, r.Task)
				assert.Equal(t, "t1", r.Task.ID)
				assert.Equal(t, model.IntentCreateTask, r.Intent)
			},
		},
		{
			name:   "create task with client id",
			intent: "CREATE_TASK",
			fields: map[string]string{"description": "Walk dog", "id": clientID},
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, owner, clientID, "Walk dog").
					Return(model.Task{ID: clientID, OwnerID: owner, Description: "Walk dog"}, nil)
			},
		},
		{
			name:      "create with malformed client id",
			intent:    "CREATE_TASK",
			fields:    map[string]string{"description": "Walk dog", "id": "not-a-uuid"},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrInvalidRequest,
		},
		{
			name:      "empty description",
			intent:    "CREATE_TASK",
			fields:    map[string]string{"description": ""},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrInvalidRequest,
		},
		{
			name:   "toggle incomplete task",
			intent: "TOGGLE_COMPLETION",
			fields: map[string]string{"id": "t1", "completed": "false"},
			setupMock: func(m *MockTaskRepository) {
				m.On("Update", mock.Anything, owner, "t1", mock.MatchedBy(func(p model.TaskPatch) bool {
					return p.Completed != nil && *p.Completed && p.CompletedAt.Equal(fixed) &&
						p.Description == nil && p.Editing == nil
				})).Return(model.Task{ID: "t1", Completed: true, CompletedAt: &fixed}, nil)
			},
			check: func(t *testing.T, r Result) {
				require.NotNil(t, r.Task)
				assert.True(t, r.Task.Completed)
			},
		},
		{
			name:   "toggle completed task",
			intent: "TOGGLE_COMPLETION",
			fields: map[string]string{"id": "t1", "completed": "true"},
			setupMock: func(m *MockTaskRepository) {
				m.On("Update", mock.Anything, owner, "t1", mock.MatchedBy(func(p model.TaskPatch) bool {
					return p.Completed != nil && !*p.Completed
				})).Return(model.Task{ID: "t1"}, nil)
			},
		},
		{
			name:      "toggle without completed",
			intent:    "TOGGLE_COMPLETION",
			fields:    map[string]string{"id": "t1"},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrInvalidRequest,
		},
		{
			name:      "toggle with garbage completed",
			intent:    "TOGGLE_COMPLETION",
			fields:    map[string]string{"id": "t1", "completed": "maybe"},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrInvalidRequest,
		},
		{
			name:   "edit task",
			intent: "EDIT_TASK",
			fields: map[string]string{"id": "t1"},
			setupMock: func(m *MockTaskRepository) {
				m.On("Update", mock.Anything, owner, "t1", mock.MatchedBy(func(p model.TaskPatch) bool {
					return p.Editing != nil && *p.Editing && p.Completed == nil
				})).Return(model.Task{ID: "t1", Editing: true}, nil)
			},
		},
		{
			name:      "edit without id",
			intent:    "EDIT_TASK",
			fields:    map[string]string{},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrInvalidRequest,
		},
		{
			name:   "save task",
			intent: "SAVE_TASK",
			fields: map[string]string{"id": "t1", "description": "Renamed"},
			setupMock: func(m *MockTaskRepository) {
				m.On("Update", mock.Anything, owner, "t1", mock.MatchedBy(func(p model.TaskPatch) bool {
					return p.Description != nil && *p.Description == "Renamed" && p.Editing != nil && !*p.Editing
				})).Return(model.Task{ID: "t1", Description: "Renamed"}, nil)
			},
		},
		{
			name:      "save with blank description",
			intent:    "SAVE_TASK",
			fields:    map[string]string{"id": "t1", "description": "   "},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrInvalidRequest,
		},
		{
			name:   "save foreign task",
			intent: "SAVE_TASK",
			fields: map[string]string{"id": "someone-elses", "description": "Mine now"},
			setupMock: func(m *MockTaskRepository) {
				m.On("Update", mock.Anything, owner, "someone-elses", mock.Anything).
					Return(model.Task{}, repo.ErrorNotFound)
			},
			wantErr: repo.ErrorNotFound,
		},
		{
			name:   "delete task",
			intent: "DELETE_TASK",
			fields: map[string]string{"id": "t1"},
			setupMock: func(m *MockTaskRepository) {
				m.On("Delete", mock.Anything, owner, "t1").Return(nil)
			},
		},
		{
			name:   "delete missing task is a no-op",
			intent: "DELETE_TASK",
			fields: map[string]string{"id": "gone"},
			setupMock: func(m *MockTaskRepository) {
				m.On("Delete", mock.Anything, owner, "gone").Return(repo.ErrorNotFound)
			},
		},
		{
			name:   "clear completed",
			intent: "CLEAR_COMPLETED",
			setupMock: func(m *MockTaskRepository) {
				m.On("ClearCompleted", mock.Anything, owner).Return([]model.Task{{ID: "t2"}}, nil)
			},
			check: func(t *testing.T, r Result) {
				assert.Len(t, r.Removed, 1)
			},
		},
		{
			name:   "delete all",
			intent: "DELETE_ALL",
			setupMock: func(m *MockTaskRepository) {
				m.On("DeleteAll", mock.Anything, owner).Return([]model.Task{{ID: "t1"}, {ID: "t2"}}, nil)
			},
			check: func(t *testing.T, r Result) {
				assert.Len(t, r.Removed, 2)
			},
		},
		{
			name:      "unknown intent",
			intent:    "BOGUS",
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrUnknownIntent,
		},
		{
			name:      "missing intent",
			intent:    "",
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrInvalidRequest,
		},
		{
			name:   "store failure propagates",
			intent: "DELETE_ALL",
			setupMock: func(m *MockTaskRepository) {
				m.On("DeleteAll", mock.Anything, owner).Return([]model.Task(nil), errors.New("connection reset"))
			},
			wantErr: errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			router := NewIntentRouter(mockRepo)
			router.now = func() time.Time { return fixed }

			result, err := router.Dispatch(context.Background(), tt.intent, tt.fields, owner)

			switch {
			case tt.wantErr == nil:
				require.NoError(t, err)
			case errors.Is(tt.wantErr, ErrInvalidRequest), errors.Is(tt.wantErr, ErrUnknownIntent),
				errors.Is(tt.wantErr, repo.ErrorNotFound):
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.EqualError(t, err, tt.wantErr.Error())
			}
			if tt.check != nil {
				tt.check(t, result)
			}

			// fail-fast cases must never reach the store
			mockRepo.AssertExpectations(t)
			if len(mockRepo.ExpectedCalls) == 0 {
				assert.Empty(t, mockRepo.Calls)
			}
		})
	}
}

func TestFieldError(t *testing.T) {
	err := missing("description")

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "description", fe.Field)
	assert.Equal(t, "Description is required", fe.Message)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestIntentRouter_EndToEndWithMemoryRepo(t *testing.T) {
	ctx := context.Background()
	tasks := repo.NewMemoryTaskRepo()
	router := NewIntentRouter(tasks)

	res, err := router.Dispatch(ctx, "CREATE_TASK", map[string]string{"description": "Ship it"}, owner)
	require.NoError(t, err)
	id := res.Task.ID

	_, err = router.Dispatch(ctx, "TOGGLE_COMPLETION", map[string]string{"id": id, "completed": "false"}, owner)
	require.NoError(t, err)

	list, err := tasks.ListForOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Completed)
	assert.NotNil(t, list[0].CompletedAt)

	_, err = router.Dispatch(ctx, "TOGGLE_COMPLETION", map[string]string{"id": id, "completed": "false"}, "intruder")
	assert.ErrorIs(t, err, repo.ErrorNotFound)

	res, err = router.Dispatch(ctx, "CLEAR_COMPLETED", nil, owner)
	require.NoError(t, err)
	assert.Len(t, res.Removed, 1)

	list, err = tasks.ListForOwner(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}
