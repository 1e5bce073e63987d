package synapse

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	genieerrors "github.com/Sage-Bionetworks/synapsegenie/pkg/errors"
)

// Message captures a notification delivered through the in-memory store.
type Message struct {
	UserIDs []string
	Subject string
	Body    string
}

type memFile struct {
	entity  Entity
	content []byte
}

// MemStore is an in-memory Store used by tests and local dry runs. It
// mirrors the remote service's idempotency rules: folders and tables are
// keyed by (parent, name), files are versioned by name within a folder.
type MemStore struct {
	mu          sync.Mutex
	projects    map[string]*Project
	folders     map[string]*Folder
	folderByKey map[string]string
	tables      map[string]*Table
	tableByKey  map[string]string
	rows        map[string][]Row
	files       map[string]*memFile
	fileByKey   map[string]string
	messages    []Message
	now         func() time.Time
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		projects:    make(map[string]*Project),
		folders:     make(map[string]*Folder),
		folderByKey: make(map[string]string),
		tables:      make(map[string]*Table),
		tableByKey:  make(map[string]string),
		rows:        make(map[string][]Row),
		files:       make(map[string]*memFile),
		fileByKey:   make(map[string]string),
		now:         time.Now,
	}
}

var _ Store = (*MemStore)(nil)

func newID() string {
	return "syn" + uuid.NewString()[:8]
}

func containerKey(parentID, name string) string {
	return parentID + "/" + name
}

func (s *MemStore) GetProject(ctx context.Context, id string) (*Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.projects[id]
	if !ok {
		return nil, genieerrors.NewInfraError("get project", fmt.Errorf("project %s not found", id))
	}
	copied := *project
	return &copied, nil
}

func (s *MemStore) CreateProject(ctx context.Context, name string) (*Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, project := range s.projects {
		if project.Name == name {
			copied := *project
			return &copied, nil
		}
	}

	project := &Project{ID: newID(), Name: name, Annotations: map[string]string{}}
	s.projects[project.ID] = project
	copied := *project
	return &copied, nil
}

func (s *MemStore) SetAnnotation(ctx context.Context, projectID, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.projects[projectID]
	if !ok {
		return genieerrors.NewInfraError("set annotation", fmt.Errorf("project %s not found", projectID))
	}
	if project.Annotations == nil {
		project.Annotations = map[string]string{}
	}
	project.Annotations[key] = value
	return nil
}

func (s *MemStore) StoreFolder(ctx context.Context, name, parentID string) (*Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := containerKey(parentID, name)
	if id, ok := s.folderByKey[key]; ok {
		copied := *s.folders[id]
		return &copied, nil
	}

	folder := &Folder{ID: newID(), Name: name, ParentID: parentID}
	s.folders[folder.ID] = folder
	s.folderByKey[key] = folder.ID
	copied := *folder
	return &copied, nil
}

func (s *MemStore) FindTable(ctx context.Context, name, parentID string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.tableByKey[containerKey(parentID, name)]
	if !ok {
		return nil, nil
	}
	copied := *s.tables[id]
	return &copied, nil
}

func (s *MemStore) GetTable(ctx context.Context, id string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.tables[id]
	if !ok {
		return nil, genieerrors.NewInfraError("get table", fmt.Errorf("table %s not found", id))
	}
	copied := *table
	return &copied, nil
}

func (s *MemStore) MoveTable(ctx context.Context, tableID, parentID, name string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.tables[tableID]
	if !ok {
		return nil, genieerrors.NewInfraError("move table", fmt.Errorf("table %s not found", tableID))
	}

	delete(s.tableByKey, containerKey(table.ParentID, table.Name))
	table.ParentID = parentID
	table.Name = name
	s.tableByKey[containerKey(parentID, name)] = tableID

	copied := *table
	return &copied, nil
}

func (s *MemStore) CreateTable(ctx context.Context, table Table) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := containerKey(table.ParentID, table.Name)
	if id, ok := s.tableByKey[key]; ok {
		copied := *s.tables[id]
		return &copied, nil
	}

	created := table
	created.ID = newID()
	s.tables[created.ID] = &created
	s.tableByKey[key] = created.ID
	s.rows[created.ID] = nil
	copied := created
	return &copied, nil
}

func rowMatches(row Row, filter map[string]string) bool {
	for column, want := range filter {
		if row[column] != want {
			return false
		}
	}
	return true
}

func (s *MemStore) QueryRows(ctx context.Context, tableID string, filter map[string]string) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[tableID]; !ok {
		return nil, genieerrors.NewInfraError("query rows", fmt.Errorf("table %s not found", tableID))
	}

	var matched []Row
	for _, row := range s.rows[tableID] {
		if rowMatches(row, filter) {
			copied := make(Row, len(row))
			for k, v := range row {
				copied[k] = v
			}
			matched = append(matched, copied)
		}
	}
	return matched, nil
}

func (s *MemStore) UpsertRows(ctx context.Context, tableID, key string, rows []Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[tableID]; !ok {
		return genieerrors.NewInfraError("upsert rows", fmt.Errorf("table %s not found", tableID))
	}

	existing := s.rows[tableID]
	for _, row := range rows {
		replaced := false
		for i, have := range existing {
			if have[key] == row[key] {
				existing[i] = row
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, row)
		}
	}
	s.rows[tableID] = existing
	return nil
}

func (s *MemStore) DeleteRows(ctx context.Context, tableID, key string, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[tableID]; !ok {
		return genieerrors.NewInfraError("delete rows", fmt.Errorf("table %s not found", tableID))
	}

	drop := make(map[string]struct{}, len(values))
	for _, v := range values {
		drop[v] = struct{}{}
	}

	kept := s.rows[tableID][:0]
	for _, row := range s.rows[tableID] {
		if _, gone := drop[row[key]]; !gone {
			kept = append(kept, row)
		}
	}
	s.rows[tableID] = kept
	return nil
}

func (s *MemStore) StoreFile(ctx context.Context, path, parentID string) (*Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, genieerrors.NewInfraError("store file", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sum := md5.Sum(content)
	name := filepath.Base(path)
	key := containerKey(parentID, name)

	if id, ok := s.fileByKey[key]; ok {
		record := s.files[id]
		record.content = content
		record.entity.MD5 = hex.EncodeToString(sum[:])
		record.entity.ModifiedOn = s.now()
		copied := record.entity
		return &copied, nil
	}

	record := &memFile{
		entity: Entity{
			ID:         newID(),
			Name:       name,
			ParentID:   parentID,
			MD5:        hex.EncodeToString(sum[:]),
			ModifiedOn: s.now(),
			CreatedBy:  "memuser",
			ModifiedBy: "memuser",
		},
		content: content,
	}
	s.files[record.entity.ID] = record
	s.fileByKey[key] = record.entity.ID
	copied := record.entity
	return &copied, nil
}

func (s *MemStore) ListFiles(ctx context.Context, folderID string) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	inScope := map[string]struct{}{folderID: {}}
	// Folder creation order is not guaranteed, so expand until stable.
	for {
		grew := false
		for _, folder := range s.folders {
			if _, ok := inScope[folder.ParentID]; ok {
				if _, seen := inScope[folder.ID]; !seen {
					inScope[folder.ID] = struct{}{}
					grew = true
				}
			}
		}
		if !grew {
			break
		}
	}

	var entities []Entity
	for _, record := range s.files {
		if _, ok := inScope[record.entity.ParentID]; ok {
			entities = append(entities, record.entity)
		}
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })
	return entities, nil
}

func (s *MemStore) GetFile(ctx context.Context, id string) (*Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	record, ok := s.files[id]
	if !ok {
		s.mu.Unlock()
		return nil, genieerrors.NewInfraError("get file", fmt.Errorf("file %s not found", id))
	}
	entity := record.entity
	content := record.content
	s.mu.Unlock()

	dir, err := os.MkdirTemp("", "synapsegenie-cache")
	if err != nil {
		return nil, genieerrors.NewInfraError("get file", err)
	}
	local := filepath.Join(dir, entity.Name)
	if err := os.WriteFile(local, content, 0o644); err != nil {
		return nil, genieerrors.NewInfraError("get file", err)
	}
	entity.Path = local
	return &entity, nil
}

func (s *MemStore) SendMessage(ctx context.Context, userIDs []string, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, Message{UserIDs: userIDs, Subject: subject, Body: body})
	return nil
}

// Messages returns a copy of the messages sent so far.
func (s *MemStore) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}
