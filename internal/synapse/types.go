package synapse

import "time"

// Column types supported by the remote table service.
const (
	ColTypeString    = "STRING"
	ColTypeEntityID  = "ENTITYID"
	ColTypeDate      = "DATE"
	ColTypeBoolean   = "BOOLEAN"
	ColTypeLargeText = "LARGETEXT"
)

// Project is the top-level container holding center folders and tables.
type Project struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// Folder is a named container inside a project or another folder.
type Folder struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId"`
}

// Column describes one column of a remote table schema.
type Column struct {
	Name         string `json:"name"`
	Type         string `json:"columnType"`
	MaximumSize  int    `json:"maximumSize,omitempty"`
	FacetType    string `json:"facetType,omitempty"`
	DefaultValue string `json:"defaultValue,omitempty"`
}

// Table is a remote table schema reference.
type Table struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	ParentID    string            `json:"parentId"`
	Columns     []Column          `json:"columns,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// Row is a single table row keyed by column name.
type Row map[string]string

// Entity is a file entity tracked by the remote store. Path is only set
// once the file content is available locally.
type Entity struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ParentID   string    `json:"parentId"`
	Path       string    `json:"path,omitempty"`
	MD5        string    `json:"md5,omitempty"`
	ModifiedOn time.Time `json:"modifiedOn"`
	CreatedBy  string    `json:"createdBy,omitempty"`
	ModifiedBy string    `json:"modifiedBy,omitempty"`
}
