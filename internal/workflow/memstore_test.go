package workflow

import (
	"bytes"
	"context"
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/custodian/internal/documents"
	"github.com/JaimeStill/custodian/internal/errs"
	"github.com/JaimeStill/custodian/internal/notifications"
	"github.com/JaimeStill/custodian/internal/permissions"
	"github.com/JaimeStill/custodian/pkg/lifecycle"
	"github.com/JaimeStill/custodian/pkg/pagination"
	"github.com/JaimeStill/custodian/pkg/storage"
)

var errInjected = errs.Persistence("injected failure", nil)

// memState is the full contents of the in-memory database.
type memState struct {
	docs     map[uuid.UUID]documents.Document
	versions []documents.Version
	requests map[uuid.UUID]permissions.Request
	notes    []notifications.Notification
	tick     int
}

func (s memState) clone() memState {
	return memState{
		docs:     maps.Clone(s.docs),
		versions: slices.Clone(s.versions),
		requests: maps.Clone(s.requests),
		notes:    slices.Clone(s.notes),
		tick:     s.tick,
	}
}

func (s *memState) now() time.Time {
	s.tick++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.tick) * time.Second)
}

// memStore serializes units of work and applies each one to a copy of the
// state, publishing the copy only on success.
type memStore struct {
	mu    sync.Mutex
	state memState
	fail  map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		state: memState{
			docs:     make(map[uuid.UUID]documents.Document),
			requests: make(map[uuid.UUID]permissions.Request),
		},
		fail: make(map[string]bool),
	}
}

func (m *memStore) failOn(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[op] = true
}

func (m *memStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	tx := &memTx{state: &work, fail: m.fail}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *memStore) snapshot() memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

func (m *memStore) document(id uuid.UUID) (documents.Document, bool) {
	s := m.snapshot()
	d, ok := s.docs[id]
	return d, ok
}

func (m *memStore) request(id uuid.UUID) (permissions.Request, bool) {
	s := m.snapshot()
	r, ok := s.requests[id]
	return r, ok
}

func (m *memStore) versionsOf(id uuid.UUID) []documents.Version {
	var out []documents.Version
	for _, v := range m.snapshot().versions {
		if v.DocumentID == id {
			out = append(out, v)
		}
	}
	return out
}

func (m *memStore) inbox(user uuid.UUID) []notifications.Notification {
	var out []notifications.Notification
	for _, n := range m.snapshot().notes {
		if n.UserID == user {
			out = append(out, n)
		}
	}
	return out
}

func (m *memStore) pendingFor(documentID uuid.UUID) int {
	count := 0
	for _, r := range m.snapshot().requests {
		if r.DocumentID == documentID && r.Status == permissions.StatusPending {
			count++
		}
	}
	return count
}

type memTx struct {
	state *memState
	fail  map[string]bool
}

func (t *memTx) Documents() documents.Store         { return memDocuments{t} }
func (t *memTx) Permissions() permissions.Store     { return memPermissions{t} }
func (t *memTx) Notifications() notifications.Store { return memNotifications{t} }

func (t *memTx) check(op string) error {
	if t.fail[op] {
		return errInjected
	}
	return nil
}

type memDocuments struct{ tx *memTx }

func (d memDocuments) Find(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	doc, ok := d.tx.state.docs[id]
	if !ok {
		return nil, documents.ErrNotFound
	}
	return &doc, nil
}

func (d memDocuments) FindForUpdate(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	return d.Find(ctx, id)
}

func (d memDocuments) Insert(ctx context.Context, in documents.NewDocument) (*documents.Document, error) {
	if err := d.tx.check("documents.Insert"); err != nil {
		return nil, err
	}
	at := d.tx.state.now()
	doc := documents.Document{
		ID:           uuid.New(),
		Title:        in.Title,
		Description:  in.Description,
		DocumentType: in.DocumentType,
		File:         in.File,
		Version:      1,
		Status:       documents.StatusActive,
		CreatedBy:    in.CreatedBy,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	d.tx.state.docs[doc.ID] = doc
	return &doc, nil
}

func (d memDocuments) UpdateFile(ctx context.Context, id uuid.UUID, file documents.File) (*documents.Document, error) {
	if err := d.tx.check("documents.UpdateFile"); err != nil {
		return nil, err
	}
	doc, ok := d.tx.state.docs[id]
	if !ok {
		return nil, documents.ErrNotFound
	}
	doc.File = file
	doc.Version++
	doc.UpdatedAt = d.tx.state.now()
	d.tx.state.docs[id] = doc
	return &doc, nil
}

func (d memDocuments) UpdateStatus(ctx context.Context, id uuid.UUID, status documents.Status) (*documents.Document, error) {
	if err := d.tx.check("documents.UpdateStatus"); err != nil {
		return nil, err
	}
	doc, ok := d.tx.state.docs[id]
	if !ok {
		return nil, documents.ErrNotFound
	}
	doc.Status = status
	doc.UpdatedAt = d.tx.state.now()
	d.tx.state.docs[id] = doc
	return &doc, nil
}

func (d memDocuments) Delete(ctx context.Context, id uuid.UUID) error {
	if err := d.tx.check("documents.Delete"); err != nil {
		return err
	}
	if _, ok := d.tx.state.docs[id]; !ok {
		return documents.ErrNotFound
	}
	delete(d.tx.state.docs, id)
	return nil
}

func (d memDocuments) List(ctx context.Context, page pagination.PageRequest, filters documents.Filters) ([]documents.Document, error) {
	return slices.Collect(maps.Values(d.tx.state.docs)), nil
}

func (d memDocuments) Count(ctx context.Context, page pagination.PageRequest, filters documents.Filters) (int, error) {
	return len(d.tx.state.docs), nil
}

func (d memDocuments) Versions(ctx context.Context, documentID uuid.UUID) ([]documents.Version, error) {
	var out []documents.Version
	for _, v := range slices.Backward(d.tx.state.versions) {
		if v.DocumentID == documentID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (d memDocuments) InsertVersion(ctx context.Context, in documents.NewVersion) (*documents.Version, error) {
	if err := d.tx.check("documents.InsertVersion"); err != nil {
		return nil, err
	}
	v := documents.Version{
		ID:         uuid.New(),
		DocumentID: in.DocumentID,
		Version:    in.Version,
		File:       in.File,
		CreatedBy:  in.CreatedBy,
		CreatedAt:  d.tx.state.now(),
	}
	d.tx.state.versions = append(d.tx.state.versions, v)
	return &v, nil
}

func (d memDocuments) DeleteVersions(ctx context.Context, documentID uuid.UUID) ([]documents.Version, error) {
	if err := d.tx.check("documents.DeleteVersions"); err != nil {
		return nil, err
	}
	var removed []documents.Version
	d.tx.state.versions = slices.DeleteFunc(d.tx.state.versions, func(v documents.Version) bool {
		if v.DocumentID == documentID {
			removed = append(removed, v)
			return true
		}
		return false
	})
	return removed, nil
}

type memPermissions struct{ tx *memTx }

func (p memPermissions) Find(ctx context.Context, id uuid.UUID) (*permissions.Request, error) {
	r, ok := p.tx.state.requests[id]
	if !ok {
		return nil, permissions.ErrNotFound
	}
	return &r, nil
}

func (p memPermissions) FindPendingForUpdate(ctx context.Context, id uuid.UUID) (*permissions.Request, error) {
	r, ok := p.tx.state.requests[id]
	if !ok || r.Status != permissions.StatusPending {
		return nil, permissions.ErrNotFound
	}
	return &r, nil
}

func (p memPermissions) FindPendingByDocument(ctx context.Context, documentID uuid.UUID) (*permissions.Request, error) {
	for _, r := range p.tx.state.requests {
		if r.DocumentID == documentID && r.Status == permissions.StatusPending {
			return &r, nil
		}
	}
	return nil, permissions.ErrNotFound
}

func (p memPermissions) Insert(ctx context.Context, in permissions.NewRequest) (*permissions.Request, error) {
	if err := p.tx.check("permissions.Insert"); err != nil {
		return nil, err
	}
	if _, err := p.FindPendingByDocument(ctx, in.DocumentID); err == nil {
		return nil, permissions.ErrPendingExists
	}
	r := permissions.Request{
		ID:          uuid.New(),
		DocumentID:  in.DocumentID,
		RequestedBy: in.RequestedBy,
		Action:      in.Action,
		NewFile:     in.NewFile,
		Status:      permissions.StatusPending,
		CreatedAt:   p.tx.state.now(),
	}
	p.tx.state.requests[r.ID] = r
	return &r, nil
}

func (p memPermissions) MarkResolved(
	ctx context.Context,
	id uuid.UUID,
	status permissions.Status,
	resolver uuid.UUID,
	at time.Time,
) (*permissions.Request, error) {
	if err := p.tx.check("permissions.MarkResolved"); err != nil {
		return nil, err
	}
	r, ok := p.tx.state.requests[id]
	if !ok || r.Status != permissions.StatusPending {
		return nil, permissions.ErrNotFound
	}
	r.Status = status
	r.ResolvedBy = &resolver
	r.ResolvedAt = &at
	p.tx.state.requests[id] = r
	return &r, nil
}

func (p memPermissions) DeleteByDocument(ctx context.Context, documentID uuid.UUID) ([]permissions.Request, error) {
	if err := p.tx.check("permissions.DeleteByDocument"); err != nil {
		return nil, err
	}
	var removed []permissions.Request
	for id, r := range p.tx.state.requests {
		if r.DocumentID == documentID {
			removed = append(removed, r)
			delete(p.tx.state.requests, id)
		}
	}
	return removed, nil
}

func (p memPermissions) ListPending(ctx context.Context) ([]permissions.Pending, error) {
	out := make([]permissions.Pending, 0)
	for _, r := range p.tx.state.requests {
		if r.Status != permissions.StatusPending {
			continue
		}
		out = append(out, permissions.Pending{
			Request:       r,
			DocumentTitle: p.tx.state.docs[r.DocumentID].Title,
		})
	}
	slices.SortFunc(out, func(a, b permissions.Pending) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

type memNotifications struct{ tx *memTx }

func (n memNotifications) Append(ctx context.Context, recipient uuid.UUID, message string) (*notifications.Notification, error) {
	if err := n.tx.check("notifications.Append"); err != nil {
		return nil, err
	}
	note := notifications.Notification{
		ID:        uuid.New(),
		UserID:    recipient,
		Message:   message,
		CreatedAt: n.tx.state.now(),
	}
	n.tx.state.notes = append(n.tx.state.notes, note)
	return &note, nil
}

func (n memNotifications) List(ctx context.Context, recipient uuid.UUID, page pagination.PageRequest) ([]notifications.Notification, error) {
	var out []notifications.Notification
	for _, note := range slices.Backward(n.tx.state.notes) {
		if note.UserID == recipient {
			out = append(out, note)
		}
	}
	return out, nil
}

func (n memNotifications) Count(ctx context.Context, recipient uuid.UUID) (int, error) {
	notes, _ := n.List(ctx, recipient, pagination.PageRequest{})
	return len(notes), nil
}

func (n memNotifications) CountUnread(ctx context.Context, recipient uuid.UUID) (int, error) {
	count := 0
	for _, note := range n.tx.state.notes {
		if note.UserID == recipient && !note.IsRead {
			count++
		}
	}
	return count, nil
}

func (n memNotifications) MarkRead(ctx context.Context, id, owner uuid.UUID) error {
	for i, note := range n.tx.state.notes {
		if note.ID == id && note.UserID == owner {
			n.tx.state.notes[i].IsRead = true
			return nil
		}
	}
	return notifications.ErrNotFound
}

func (n memNotifications) MarkAllRead(ctx context.Context, owner uuid.UUID) (int64, error) {
	var updated int64
	for i, note := range n.tx.state.notes {
		if note.UserID == owner && !note.IsRead {
			n.tx.state.notes[i].IsRead = true
			updated++
		}
	}
	return updated, nil
}

// memFiles is an in-memory storage.System.
type memFiles struct {
	mu         sync.Mutex
	files      map[string][]byte
	deleted    []string
	failDelete bool
}

func newMemFiles() *memFiles {
	return &memFiles{files: make(map[string][]byte)}
}

func (f *memFiles) Start(lc *lifecycle.Coordinator) error { return nil }

func (f *memFiles) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[key] = data
	return nil
}

func (f *memFiles) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *memFiles) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete {
		return errs.Storage("delete", io.ErrUnexpectedEOF)
	}
	if _, ok := f.files[key]; !ok {
		return storage.ErrNotFound
	}
	delete(f.files, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *memFiles) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[key]
	return ok, nil
}

func (f *memFiles) has(key string) bool {
	ok, _ := f.Exists(context.Background(), key)
	return ok
}

func (f *memFiles) put(key string) documents.File {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[key] = []byte(key)
	return documents.File{
		Ref:         key,
		Name:        key,
		ContentType: "application/pdf",
		SizeBytes:   int64(len(key)),
	}
}

func (f *memFiles) deletions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.deleted)
}
