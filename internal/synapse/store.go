package synapse

import "context"

// Store is the port to the remote project/table service. Implementations
// must treat StoreFolder, FindTable and CreateTable as keyed by
// (parent, name) so that repeated calls are idempotent.
type Store interface {
	// GetProject fetches a project by id.
	GetProject(ctx context.Context, id string) (*Project, error)
	// CreateProject creates a new project with the given name.
	CreateProject(ctx context.Context, name string) (*Project, error)
	// SetAnnotation sets a single project annotation.
	SetAnnotation(ctx context.Context, projectID, key, value string) error

	// StoreFolder creates a folder under parentID, or returns the
	// existing one with the same name.
	StoreFolder(ctx context.Context, name, parentID string) (*Folder, error)

	// FindTable returns the table named name under parentID, or nil when
	// no such table exists.
	FindTable(ctx context.Context, name, parentID string) (*Table, error)
	// GetTable fetches a table schema by id.
	GetTable(ctx context.Context, id string) (*Table, error)
	// CreateTable creates a table from the given schema.
	CreateTable(ctx context.Context, table Table) (*Table, error)
	// MoveTable renames a table and reparents it, keeping its rows.
	MoveTable(ctx context.Context, tableID, parentID, name string) (*Table, error)

	// QueryRows returns the rows of a table matching every filter value.
	// A nil filter returns all rows.
	QueryRows(ctx context.Context, tableID string, filter map[string]string) ([]Row, error)
	// UpsertRows inserts or replaces rows, matching existing rows on the
	// key column.
	UpsertRows(ctx context.Context, tableID, key string, rows []Row) error
	// DeleteRows removes rows whose key column matches one of values.
	DeleteRows(ctx context.Context, tableID, key string, values []string) error

	// StoreFile uploads a local file under parentID, replacing any
	// existing entity with the same name as a new version.
	StoreFile(ctx context.Context, path, parentID string) (*Entity, error)
	// ListFiles returns the file entities below folderID, recursively.
	ListFiles(ctx context.Context, folderID string) ([]Entity, error)
	// GetFile downloads a file entity; the returned Path points at the
	// local copy.
	GetFile(ctx context.Context, id string) (*Entity, error)

	// SendMessage delivers a message to the given user ids.
	SendMessage(ctx context.Context, userIDs []string, subject, body string) error
}
