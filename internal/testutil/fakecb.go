// Package testutil поддельный сервер удаленного API CodeBeamer для тестов.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/DevN0mad/cbremote/internal/models"
)

// Коды ошибок JSON-RPC, которые возвращает сервер.
const (
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeAccessDenied   = -32000
)

// Учетные данные по умолчанию.
const (
	DefaultLogin    = "bond"
	DefaultPassword = "007"
)

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      string            `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type optionKey struct {
	trackerID int
	labelID   int
}

// FakeCodeBeamer хранит сущности в памяти и отвечает на вызовы удаленного
// API так же, как настоящий сервер: токен первым параметром, null для
// отсутствующих сущностей, error для отказов.
type FakeCodeBeamer struct {
	*httptest.Server

	Login    string
	Password string
	Info     models.ServerInfo

	mu           sync.Mutex
	nextID       int
	tokens       map[string]bool
	sessionUser  models.User
	users        []models.User
	passwords    map[string]string
	projects     []models.Project
	artifacts    []models.Artifact
	bodies       map[int]*models.BinaryStream
	revisions    map[int][]string
	trackers     []models.Tracker
	items        []models.TrackerItem
	options      map[optionKey][]models.Ref
	wikiPages    []models.WikiPage
	wikiContent  map[int]string
	attachments  map[int][]models.Artifact
	associations []models.Association
	calls        map[string]int
	failures     map[string]string
	delay        time.Duration
}

// NewFakeCodeBeamer запускает сервер и останавливает его по окончании теста.
func NewFakeCodeBeamer(t testing.TB) *FakeCodeBeamer {
	t.Helper()

	f := &FakeCodeBeamer{
		Login:    DefaultLogin,
		Password: DefaultPassword,
		Info: models.ServerInfo{
			MajorVersion: "5",
			MinorVersion: ".3",
			BuildDate:    "2009-06-12",
			OS:           "Linux",
			JavaVersion:  "1.6.0",
		},
		nextID:      1000,
		tokens:      map[string]bool{},
		passwords:   map[string]string{},
		bodies:      map[int]*models.BinaryStream{},
		revisions:   map[int][]string{},
		options:     map[optionKey][]models.Ref{},
		wikiContent: map[int]string{},
		attachments: map[int][]models.Artifact{},
		calls:       map[string]int{},
		failures:    map[string]string{},
	}
	f.sessionUser = f.AddUser(models.User{Name: DefaultLogin, Email: "bond@example.com"})
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *FakeCodeBeamer) id() int {
	f.nextID++
	return f.nextID
}

// SessionUser пользователь, под которым открываются сессии.
func (f *FakeCodeBeamer) SessionUser() models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessionUser
}

// AddUser добавляет учетную запись и возвращает ее с присвоенным идентификатором.
func (f *FakeCodeBeamer) AddUser(u models.User) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = f.id()
	f.users = append(f.users, u)
	return u
}

// AddProject добавляет проект.
func (f *FakeCodeBeamer) AddProject(p models.Project) models.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.id()
	f.projects = append(f.projects, p)
	return p
}

// AddArtifact добавляет артефакт. Артефакт без родителя попадает в корень проекта.
func (f *FakeCodeBeamer) AddArtifact(a models.Artifact) models.Artifact {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = f.id()
	f.artifacts = append(f.artifacts, a)
	return a
}

// SetBody задает содержимое артефакта.
func (f *FakeCodeBeamer) SetBody(artifactID int, fileName string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[artifactID] = models.NewBinaryStream(fileName, data)
}

// AddTracker добавляет трекер.
func (f *FakeCodeBeamer) AddTracker(t models.Tracker) models.Tracker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = f.id()
	f.trackers = append(f.trackers, t)
	return t
}

// AddItem добавляет задачу.
func (f *FakeCodeBeamer) AddItem(item models.TrackerItem) models.TrackerItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.ID = f.id()
	f.items = append(f.items, item)
	return item
}

// SetOptions задает варианты выбора поля трекера.
func (f *FakeCodeBeamer) SetOptions(trackerID, labelID int, options ...models.Ref) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.options[optionKey{trackerID, labelID}] = options
}

// AddWikiPage добавляет вики-страницу.
func (f *FakeCodeBeamer) AddWikiPage(p models.WikiPage) models.WikiPage {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.id()
	f.wikiPages = append(f.wikiPages, p)
	return p
}

// AddAssociation добавляет связь.
func (f *FakeCodeBeamer) AddAssociation(a models.Association) models.Association {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = f.id()
	f.associations = append(f.associations, a)
	return a
}

// Fail заставляет метод отвечать ошибкой с сообщением message.
// Пустое сообщение снимает отказ.
func (f *FakeCodeBeamer) Fail(method, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if message == "" {
		delete(f.failures, method)
		return
	}
	f.failures[method] = message
}

// SetDelay задерживает каждый ответ.
func (f *FakeCodeBeamer) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

// Calls возвращает число вызовов метода.
func (f *FakeCodeBeamer) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// OpenSessions возвращает число сессий без logout.
func (f *FakeCodeBeamer) OpenSessions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

// Users возвращает копию учетных записей.
func (f *FakeCodeBeamer) Users() []models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.User(nil), f.users...)
}

// UserPassword возвращает пароль, с которым была создана учетная запись.
func (f *FakeCodeBeamer) UserPassword(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.passwords[name]
}

// Projects возвращает копию проектов.
func (f *FakeCodeBeamer) Projects() []models.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Project(nil), f.projects...)
}

// Artifacts возвращает копию артефактов в порядке создания.
func (f *FakeCodeBeamer) Artifacts() []models.Artifact {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Artifact(nil), f.artifacts...)
}

// Body возвращает содержимое артефакта.
func (f *FakeCodeBeamer) Body(artifactID int) *models.BinaryStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[artifactID]
}

// Revisions возвращает комментарии ревизий содержимого артефакта.
func (f *FakeCodeBeamer) Revisions(artifactID int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.revisions[artifactID]...)
}

// Trackers возвращает копию трекеров.
func (f *FakeCodeBeamer) Trackers() []models.Tracker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Tracker(nil), f.trackers...)
}

// Items возвращает копию задач.
func (f *FakeCodeBeamer) Items() []models.TrackerItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.TrackerItem(nil), f.items...)
}

// WikiPages возвращает копию вики-страниц.
func (f *FakeCodeBeamer) WikiPages() []models.WikiPage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.WikiPage(nil), f.wikiPages...)
}

// WikiContent возвращает содержимое вики-страницы.
func (f *FakeCodeBeamer) WikiContent(pageID int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wikiContent[pageID]
}

// Attachments возвращает вложения задачи.
func (f *FakeCodeBeamer) Attachments(itemID int) []models.Artifact {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Artifact(nil), f.attachments[itemID]...)
}

type rpcFailure struct {
	code    int
	message string
}

func (e *rpcFailure) Error() string { return e.message }

func failure(code int, format string, args ...any) *rpcFailure {
	return &rpcFailure{code: code, message: fmt.Sprintf(format, args...)}
}

func (f *FakeCodeBeamer) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	delay := f.delay
	f.calls[req.Method]++
	result, fail := f.dispatch(req)
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	resp := map[string]any{"jsonrpc": models.RPCVersion, "id": req.ID}
	if fail != nil {
		resp["error"] = models.RPCError{Code: fail.code, Message: fail.message}
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func param[T any](req rpcRequest, i int) (T, *rpcFailure) {
	var v T
	if i >= len(req.Params) {
		return v, failure(CodeInvalidParams, "%s: missing parameter %d", req.Method, i)
	}
	if err := json.Unmarshal(req.Params[i], &v); err != nil {
		return v, failure(CodeInvalidParams, "%s: parameter %d: %v", req.Method, i, err)
	}
	return v, nil
}

// dispatch выполняется под мьютексом.
func (f *FakeCodeBeamer) dispatch(req rpcRequest) (any, *rpcFailure) {
	if msg, ok := f.failures[req.Method]; ok {
		return nil, failure(CodeAccessDenied, "%s", msg)
	}

	switch req.Method {
	case "login":
		login, fail := param[string](req, 0)
		if fail != nil {
			return nil, fail
		}
		password, fail := param[string](req, 1)
		if fail != nil {
			return nil, fail
		}
		if login != f.Login || password != f.Password {
			return nil, failure(CodeAccessDenied, "invalid login or password")
		}
		token := uuid.NewString()
		f.tokens[token] = true
		return token, nil
	case "getServerInfo":
		return f.Info, nil
	}

	token, fail := param[string](req, 0)
	if fail != nil {
		return nil, fail
	}
	if !f.tokens[token] {
		return nil, failure(CodeAccessDenied, "invalid session token")
	}

	switch req.Method {
	case "logout":
		delete(f.tokens, token)
		return true, nil
	case "getSessionUser":
		return f.sessionUser, nil
	case "findAllUsers":
		return f.users, nil
	case "createUser":
		return f.createUser(req)
	case "findAllProjects":
		return f.projects, nil
	case "findProjectByName":
		return f.findProjectByName(req)
	case "createProject":
		return f.createProject(req)
	case "findTopArtifactsByProject":
		return f.findTopArtifacts(req)
	case "findArtifactsByParentArtifact":
		return f.findChildArtifacts(req)
	case "getArtifactBody":
		return f.getArtifactBody(req)
	case "createArtifact":
		return f.createArtifact(req, false)
	case "createArtifactWithBody":
		return f.createArtifact(req, true)
	case "updateArtifactBody":
		return f.updateArtifactBody(req)
	case "findAllTrackers":
		return f.trackers, nil
	case "findTrackersByProject":
		return f.findTrackersByProject(req)
	case "createTracker":
		return f.createTracker(req)
	case "findTrackerItemsByTrackerId":
		return f.findItemsByTracker(req)
	case "findAllUserTrackerItems":
		return f.findUserItems()
	case "findTrackerChoiceOptions":
		return f.findOptions(req)
	case "createTrackerItem":
		return f.createItem(req)
	case "updateTrackerItem":
		return f.updateItem(req)
	case "addTrackerItemAttachment":
		return f.addAttachment(req)
	case "findWikiPageById":
		return f.findWikiPage(req)
	case "findTopWikiPagesByProject":
		return f.findTopWikiPages(req)
	case "createWikiPage":
		return f.createWikiPage(req)
	case "findAllAssociations":
		return f.associations, nil
	}
	return nil, failure(CodeMethodNotFound, "method %q not found", req.Method)
}

func (f *FakeCodeBeamer) createUser(req rpcRequest) (any, *rpcFailure) {
	u, fail := param[models.User](req, 1)
	if fail != nil {
		return nil, fail
	}
	password, fail := param[string](req, 2)
	if fail != nil {
		return nil, fail
	}
	if u.Name == "" {
		return nil, failure(CodeInvalidParams, "user name is required")
	}
	for _, existing := range f.users {
		if existing.Name == u.Name {
			return nil, failure(CodeInvalidParams, "user %q already exists", u.Name)
		}
	}
	u.ID = f.id()
	f.users = append(f.users, u)
	f.passwords[u.Name] = password
	return u, nil
}

func (f *FakeCodeBeamer) findProjectByName(req rpcRequest) (any, *rpcFailure) {
	name, fail := param[string](req, 1)
	if fail != nil {
		return nil, fail
	}
	for _, p := range f.projects {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, nil
}

func (f *FakeCodeBeamer) createProject(req rpcRequest) (any, *rpcFailure) {
	p, fail := param[models.Project](req, 1)
	if fail != nil {
		return nil, fail
	}
	if p.Name == "" {
		return nil, failure(CodeInvalidParams, "project name is required")
	}
	p.ID = f.id()
	f.projects = append(f.projects, p)
	return p, nil
}

func (f *FakeCodeBeamer) findTopArtifacts(req rpcRequest) (any, *rpcFailure) {
	projectID, fail := param[int](req, 1)
	if fail != nil {
		return nil, fail
	}
	found := []models.Artifact{}
	for _, a := range f.artifacts {
		if a.Parent == nil && a.Project != nil && a.Project.ID == projectID {
			found = append(found, a)
		}
	}
	return found, nil
}

func (f *FakeCodeBeamer) findChildArtifacts(req rpcRequest) (any, *rpcFailure) {
	parentID, fail := param[int](req, 1)
	if fail != nil {
		return nil, fail
	}
	found := []models.Artifact{}
	for _, a := range f.artifacts {
		if a.Parent != nil && a.Parent.ID == parentID {
			found = append(found, a)
		}
	}
	return found, nil
}

func (f *FakeCodeBeamer) getArtifactBody(req rpcRequest) (any, *rpcFailure) {
	id, fail := param[int](req, 1)
	if fail != nil {
		return nil, fail
	}
	if body, ok := f.bodies[id]; ok {
		return body, nil
	}
	return nil, nil
}

func (f *FakeCodeBeamer) createArtifact(req rpcRequest, withBody bool) (any, *rpcFailure) {
	a, fail := param[models.Artifact](req, 1)
	if fail != nil {
		return nil, fail
	}
	if a.Name == "" {
		return nil, failure(CodeInvalidParams, "artifact name is required")
	}
	if a.Parent != nil && !f.hasContainer(a.Parent.ID) {
		return nil, failure(CodeInvalidParams, "parent %d not found", a.Parent.ID)
	}

	a.ID = f.id()
	f.artifacts = append(f.artifacts, a)

	if withBody {
		body, fail := param[*models.BinaryStream](req, 2)
		if fail != nil {
			return nil, fail
		}
		f.bodies[a.ID] = body
		f.revisions[a.ID] = append(f.revisions[a.ID], a.Comment)
	}
	return a, nil
}

func (f *FakeCodeBeamer) hasContainer(id int) bool {
	for _, a := range f.artifacts {
		if a.ID == id {
			return true
		}
	}
	for _, p := range f.wikiPages {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (f *FakeCodeBeamer) updateArtifactBody(req rpcRequest) (any, *rpcFailure) {
	id, fail := param[int](req, 1)
	if fail != nil {
		return nil, fail
	}
	body, fail := param[*models.BinaryStream](req, 2)
	if fail != nil {
		return nil, fail
	}
	comment, fail := param[string](req, 3)
	if fail != nil {
		return nil, fail
	}
	if _, ok := f.bodies[id]; !ok {
		return nil, failure(CodeInvalidParams, "artifact %d has no content", id)
	}
	f.bodies[id] = body
	f.revisions[id] = append(f.revisions[id], comment)
	return nil, nil
}

func (f *FakeCodeBeamer) findTrackersByProject(req rpcRequest) (any, *rpcFailure) {
	projectID, fail := param[int](req, 1)
	if fail != nil {
		return nil, fail
	}
	found := []models.Tracker{}
	for _, t := range f.trackers {
		if t.Project != nil && t.Project.ID == projectID {
			found = append(found, t)
		}
	}
	return found, nil
}

func (f *FakeCodeBeamer) createTracker(req rpcRequest) (any, *rpcFailure) {
	t, fail := param[models.Tracker](req, 1)
	if fail != nil {
		return nil, fail
	}
	if t.Name == "" {
		return nil, failure(CodeInvalidParams, "tracker name is required")
	}
	t.ID = f.id()
	f.trackers = append(f.trackers, t)
	return t, nil
}

func (f *FakeCodeBeamer) findItemsByTracker(req rpcRequest) (any, *rpcFailure) {
	trackerID, fail := param[int](req, 1)
	if fail != nil {
		return nil, fail
	}
	found := []models.TrackerItem{}
	for _, item := range f.items {
		if item.Tracker != nil && item.Tracker.ID == trackerID {
			found = append(found, item)
		}
	}
	return found, nil
}

func (f *FakeCodeBeamer) findUserItems() (any, *rpcFailure) {
	found := []models.TrackerItem{}
	for _, item := range f.items {
		for _, u := range item.AssignedTo {
			if u.ID == f.sessionUser.ID {
				found = append(found, item)
				break
			}
		}
	}
	return found, nil
}

func (f *FakeCodeBeamer) findOptions(req rpcRequest) (any, *rpcFailure) {
	trackerID, fail := param[int](req, 1)
	if fail != nil {
		return nil, fail
	}
	labelID, fail := param[int](req, 2)
	if fail != nil {
		return nil, fail
	}
	options := f.options[optionKey{trackerID, labelID}]
	if options == nil {
		options = []models.Ref{}
	}
	return options, nil
}

func (f *FakeCodeBeamer) createItem(req rpcRequest) (any, *rpcFailure) {
	item, fail := param[models.TrackerItem](req, 1)
	if fail != nil {
		return nil, fail
	}
	if item.Tracker == nil {
		return nil, failure(CodeInvalidParams, "tracker is required")
	}
	item.ID = f.id()
	f.items = append(f.items, item)
	return item, nil
}

func (f *FakeCodeBeamer) updateItem(req rpcRequest) (any, *rpcFailure) {
	item, fail := param[models.TrackerItem](req, 1)
	if fail != nil {
		return nil, fail
	}
	for i := range f.items {
		if f.items[i].ID == item.ID {
			f.items[i] = item
			return item, nil
		}
	}
	return nil, failure(CodeInvalidParams, "tracker item %d not found", item.ID)
}

func (f *FakeCodeBeamer) addAttachment(req rpcRequest) (any, *rpcFailure) {
	itemID, fail := param[int](req, 1)
	if fail != nil {
		return nil, fail
	}
	a, fail := param[models.Artifact](req, 2)
	if fail != nil {
		return nil, fail
	}
	body, fail := param[*models.BinaryStream](req, 3)
	if fail != nil {
		return nil, fail
	}
	for _, item := range f.items {
		if item.ID == itemID {
			a.ID = f.id()
			f.attachments[itemID] = append(f.attachments[itemID], a)
			f.bodies[a.ID] = body
			return item, nil
		}
	}
	return nil, nil
}

func (f *FakeCodeBeamer) findWikiPage(req rpcRequest) (any, *rpcFailure) {
	id, fail := param[int](req, 1)
	if fail != nil {
		return nil, fail
	}
	for _, p := range f.wikiPages {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *FakeCodeBeamer) findTopWikiPages(req rpcRequest) (any, *rpcFailure) {
	projectID, fail := param[int](req, 1)
	if fail != nil {
		return nil, fail
	}
	found := []models.WikiPage{}
	for _, p := range f.wikiPages {
		if p.Parent == nil && p.Project != nil && p.Project.ID == projectID {
			found = append(found, p)
		}
	}
	return found, nil
}

func (f *FakeCodeBeamer) createWikiPage(req rpcRequest) (any, *rpcFailure) {
	p, fail := param[models.WikiPage](req, 1)
	if fail != nil {
		return nil, fail
	}
	content, fail := param[string](req, 2)
	if fail != nil {
		return nil, fail
	}
	p.ID = f.id()
	f.wikiPages = append(f.wikiPages, p)
	f.wikiContent[p.ID] = content
	return p, nil
}
