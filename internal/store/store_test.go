package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openworkbench/chatcore/internal/model"
	"github.com/openworkbench/chatcore/internal/prefs"
	"github.com/openworkbench/chatcore/internal/project"
	"github.com/openworkbench/chatcore/pkg/logger"
)

// fakeGateway is an in-memory gateway with injectable failures, used to
// drive the store without a network.
type fakeGateway struct {
	mu    sync.Mutex
	convs map[string]*model.ConversationDetail
	clock time.Time

	projects []model.Project

	listErr error
	getErr  error
	sendErr error

	// When blockGetID matches, GetConversation waits on getGate before
	// answering. Lets tests interleave a stale fetch with a fresh one.
	blockGetID string
	getGate    chan struct{}

	// When set, SendMessage waits on sendGate before answering.
	sendGate chan struct{}

	sendCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		convs: make(map[string]*model.ConversationDetail),
		clock: time.Now(),
	}
}

func (f *fakeGateway) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// addConversation seeds a conversation server-side and returns its summary.
func (f *fakeGateway) addConversation(title string) model.Conversation {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.tick()
	conv := model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    "u1",
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.convs[conv.ID] = &model.ConversationDetail{Conversation: conv}
	return conv
}

func (f *fakeGateway) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Conversation
	for _, d := range f.convs {
		out = append(out, d.Conversation)
	}
	return out, nil
}

func (f *fakeGateway) GetConversation(ctx context.Context, id string) (*model.ConversationDetail, error) {
	f.mu.Lock()
	blocked := f.blockGetID == id
	gate := f.getGate
	f.mu.Unlock()
	if blocked && gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	d, ok := f.convs[id]
	if !ok {
		return nil, errors.New("conversation not found")
	}
	return d.Clone(), nil
}

func (f *fakeGateway) CreateConversation(ctx context.Context, req *model.CreateConversationRequest) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.tick()
	conv := model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    "u1",
		Title:     req.Title,
		ProjectID: req.ProjectID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.convs[conv.ID] = &model.ConversationDetail{Conversation: conv}
	return &conv, nil
}

func (f *fakeGateway) UpdateConversation(ctx context.Context, id string, req *model.UpdateConversationRequest) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.convs[id]
	if !ok {
		return nil, errors.New("conversation not found")
	}
	if req.Title != nil {
		d.Title = *req.Title
	}
	if req.ProjectID != nil {
		d.ProjectID = *req.ProjectID
	}
	d.UpdatedAt = f.tick()
	conv := d.Conversation
	return &conv, nil
}

func (f *fakeGateway) DeleteConversation(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.convs[id]; !ok {
		return errors.New("conversation not found")
	}
	delete(f.convs, id)
	return nil
}

func (f *fakeGateway) SendMessage(ctx context.Context, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	f.mu.Lock()
	gate := f.sendGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	if f.sendErr != nil {
		return nil, f.sendErr
	}

	id := req.ConversationID
	if id == "" {
		now := f.tick()
		conv := model.Conversation{
			ID:        uuid.Must(uuid.NewV7()).String(),
			UserID:    "u1",
			Title:     req.Content,
			ProjectID: req.ProjectID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		f.convs[conv.ID] = &model.ConversationDetail{Conversation: conv}
		id = conv.ID
	}
	d, ok := f.convs[id]
	if !ok {
		return nil, errors.New("conversation not found")
	}

	content := req.Content
	userMsg := model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: id,
		Content:        &content,
		Type:           model.TypeForFile(req.File),
		IsFromUser:     true,
		CreatedAt:      f.tick(),
	}
	if req.File != nil {
		userMsg.Files = []model.FileAttachment{*req.File}
	}
	reply := "reply to: " + content
	assistantMsg := model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: id,
		Content:        &reply,
		Type:           model.MessageTypeText,
		IsFromUser:     false,
		CreatedAt:      f.tick(),
	}
	d.Messages = append(d.Messages, userMsg, assistantMsg)
	d.MessageCount += 2
	d.UpdatedAt = f.clock

	return &model.SendMessageResponse{
		ConversationID:   id,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		ToolsUsed:        []string{"fake"},
		ConfidenceScore:  0.9,
		ExecutionTimeMs:  1,
	}, nil
}

func (f *fakeGateway) ListProjects(ctx context.Context) ([]model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Project, len(f.projects))
	copy(out, f.projects)
	return out, nil
}

func (f *fakeGateway) CreateProject(ctx context.Context, req *model.CreateProjectRequest) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := model.Project{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    "u1",
		Name:      req.Name,
		CreatedAt: f.tick(),
	}
	f.projects = append(f.projects, p)
	return &p, nil
}

func (f *fakeGateway) UpdateProject(ctx context.Context, id string, req *model.UpdateProjectRequest) (*model.Project, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) DeleteProject(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.projects {
		if f.projects[i].ID == id {
			f.projects = append(f.projects[:i], f.projects[i+1:]...)
			return nil
		}
	}
	return errors.New("project not found")
}

func (f *fakeGateway) ListTemplates(ctx context.Context) ([]model.PromptTemplate, error) {
	return nil, nil
}

func newTestStore(t *testing.T, fake *fakeGateway) (*Store, *project.Selector) {
	t.Helper()
	pr, err := prefs.NewStore(t.TempDir())
	require.NoError(t, err)
	sel := project.NewSelector(fake, pr, logger.Nop(), "u1")
	return New(fake, pr, sel, logger.Nop(), "u1"), sel
}

func TestRefreshListOrdersMostRecentFirst(t *testing.T) {
	fake := newFakeGateway()
	older := fake.addConversation("older")
	newer := fake.addConversation("newer")

	st, _ := newTestStore(t, fake)
	require.NoError(t, st.RefreshList(context.Background()))

	convs := st.Conversations()
	require.Len(t, convs, 2)
	assert.Equal(t, newer.ID, convs[0].ID)
	assert.Equal(t, older.ID, convs[1].ID)
	assert.Equal(t, StatusReady, st.Status())
}

func TestRefreshListErrorKeepsCachedState(t *testing.T) {
	fake := newFakeGateway()
	fake.addConversation("a")

	st, _ := newTestStore(t, fake)
	require.NoError(t, st.RefreshList(context.Background()))

	fake.mu.Lock()
	fake.listErr = errors.New("boom")
	fake.mu.Unlock()

	err := st.RefreshList(context.Background())
	require.Error(t, err)
	assert.Len(t, st.Conversations(), 1, "cached list survives a failed refresh")
	assert.Equal(t, "boom", st.Err())
	assert.Equal(t, StatusReady, st.Status(), "error state does not block further operations")

	st.ClearError()
	assert.Empty(t, st.Err())
}

func TestSetActiveLoadsDetailAndPersists(t *testing.T) {
	fake := newFakeGateway()
	conv := fake.addConversation("a")

	st, _ := newTestStore(t, fake)
	require.NoError(t, st.RefreshList(context.Background()))
	require.NoError(t, st.SetActive(context.Background(), conv.ID))

	active := st.Active()
	require.NotNil(t, active)
	assert.Equal(t, conv.ID, active.ID)

	// A fresh store over the same prefs restores the pointer on refresh.
	st2 := New(fake, prefsOf(st), nil, logger.Nop(), "u1")
	require.NoError(t, st2.RefreshList(context.Background()))
	require.NotNil(t, st2.Active())
	assert.Equal(t, conv.ID, st2.Active().ID)
}

// prefsOf rebuilds a prefs store over the same directory.
func prefsOf(st *Store) *prefs.Store {
	return st.prefs
}

func TestSetActiveNilClearsDurablePointer(t *testing.T) {
	fake := newFakeGateway()
	conv := fake.addConversation("a")

	st, _ := newTestStore(t, fake)
	require.NoError(t, st.RefreshList(context.Background()))
	require.NoError(t, st.SetActive(context.Background(), conv.ID))
	require.NoError(t, st.SetActive(context.Background(), ""))

	assert.Nil(t, st.Active())

	// Nothing durable left behind: a new refresh restores nothing.
	st2 := New(fake, prefsOf(st), nil, logger.Nop(), "u1")
	require.NoError(t, st2.RefreshList(context.Background()))
	assert.Nil(t, st2.Active())
}

func TestRefreshListClearsUnresolvableStoredPointer(t *testing.T) {
	fake := newFakeGateway()
	conv := fake.addConversation("a")

	st, _ := newTestStore(t, fake)
	require.NoError(t, st.RefreshList(context.Background()))
	require.NoError(t, st.SetActive(context.Background(), conv.ID))

	// Conversation disappears server-side.
	require.NoError(t, fake.DeleteConversation(context.Background(), conv.ID))

	st2 := New(fake, prefsOf(st), nil, logger.Nop(), "u1")
	require.NoError(t, st2.RefreshList(context.Background()))
	assert.Nil(t, st2.Active())
	assert.Empty(t, prefsOf(st2).ActiveConversation("u1"))
}

func TestSetActiveLastWriteWins(t *testing.T) {
	fake := newFakeGateway()
	convA := fake.addConversation("a")
	convB := fake.addConversation("b")

	st, _ := newTestStore(t, fake)
	require.NoError(t, st.RefreshList(context.Background()))

	gate := make(chan struct{})
	fake.mu.Lock()
	fake.blockGetID = convA.ID
	fake.getGate = gate
	fake.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- st.SetActive(context.Background(), convA.ID)
	}()

	// B's fetch starts after A's and completes first.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, st.SetActive(context.Background(), convB.ID))

	close(gate)
	require.NoError(t, <-done)

	require.NotNil(t, st.Active())
	assert.Equal(t, convB.ID, st.Active().ID, "stale fetch must not overwrite the later selection")
}

func TestCreatePrependsWithoutActivating(t *testing.T) {
	fake := newFakeGateway()
	fake.addConversation("existing")

	st, _ := newTestStore(t, fake)
	require.NoError(t, st.RefreshList(context.Background()))

	conv, err := st.Create(context.Background(), &model.CreateConversationRequest{Title: "fresh"})
	require.NoError(t, err)

	convs := st.Conversations()
	require.Len(t, convs, 2)
	assert.Equal(t, conv.ID, convs[0].ID)
	assert.Nil(t, st.Active(), "create does not activate")
}

func TestCreateScopesToActiveProject(t *testing.T) {
	fake := newFakeGateway()
	st, sel := newTestStore(t, fake)

	proj, err := sel.Create(context.Background(), &model.CreateProjectRequest{Name: "p"})
	require.NoError(t, err)

	conv, err := st.Create(context.Background(), &model.CreateConversationRequest{Title: "scoped"})
	require.NoError(t, err)
	assert.Equal(t, proj.ID, conv.ProjectID)
}

func TestUpdateSyncsSummaryAndActiveDetail(t *testing.T) {
	fake := newFakeGateway()
	conv := fake.addConversation("before")

	st, _ := newTestStore(t, fake)
	require.NoError(t, st.RefreshList(context.Background()))
	require.NoError(t, st.SetActive(context.Background(), conv.ID))

	title := "after"
	_, err := st.Update(context.Background(), conv.ID, &model.UpdateConversationRequest{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "after", st.Conversations()[0].Title)
	require.NotNil(t, st.Active())
	assert.Equal(t, "after", st.Active().Title)
}

func TestDeleteActiveClearsDetailAndPointer(t *testing.T) {
	fake := newFakeGateway()
	conv := fake.addConversation("a")

	st, _ := newTestStore(t, fake)
	require.NoError(t, st.RefreshList(context.Background()))
	require.NoError(t, st.SetActive(context.Background(), conv.ID))

	require.NoError(t, st.Delete(context.Background(), conv.ID))
	assert.Empty(t, st.Conversations())
	assert.Nil(t, st.Active())
	assert.Empty(t, prefsOf(st).ActiveConversation("u1"))
}
