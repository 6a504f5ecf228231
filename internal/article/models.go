package article

import "time"

// Status is the lifecycle state of an article.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusPublish Status = "publish"
	StatusTrash   Status = "trash"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublish, StatusTrash:
		return true
	}
	return false
}

// Content holds the editable fields of an article. Snapshots capture a full copy of it.
type Content struct {
	Title      string `json:"title" bson:"title" validate:"max=255"`
	Body       string `json:"body" bson:"body" validate:"max=1048576"`
	URLName    string `json:"urlname,omitempty" bson:"urlname,omitempty" validate:"omitempty,max=100,slug"`
	Status     Status `json:"status" bson:"status" validate:"required,oneof=draft publish trash"`
	CategoryID string `json:"categoryId,omitempty" bson:"categoryId,omitempty"`
}

// Article is the persistent article record. Revision is the save counter clients
// track locally; it only ever grows.
type Article struct {
	ID      string `json:"id" bson:"_id"`
	Content `bson:",inline"`

	Revision             int64  `json:"revision" bson:"revision"`
	LastEditor           string `json:"lastEditor,omitempty" bson:"lastEditor,omitempty"`
	LockHolder           string `json:"lockHolder,omitempty" bson:"lockHolder"`
	LockHolderName       string `json:"lockHolderName,omitempty" bson:"lockHolderName,omitempty"`
	LastSnapshotRevision int64  `json:"lastSnapshotRevision" bson:"lastSnapshotRevision"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a copy that can be mutated without touching the original.
func (a *Article) Clone() *Article {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// SnapshotReason records why a snapshot was captured.
type SnapshotReason string

const (
	ReasonCreated   SnapshotReason = "created"
	ReasonHandoff   SnapshotReason = "handoff"
	ReasonThreshold SnapshotReason = "threshold"
)

// Snapshot is an immutable copy of an article's content at a given revision.
// Seq orders snapshots of one article by creation.
type Snapshot struct {
	ID        string         `json:"id" bson:"_id"`
	ArticleID string         `json:"articleId" bson:"articleId"`
	Seq       int64          `json:"seq" bson:"seq"`
	Content   Content        `json:"content" bson:"content"`
	Editor    string         `json:"editor,omitempty" bson:"editor,omitempty"`
	Revision  int64          `json:"revision" bson:"revision"`
	Reason    SnapshotReason `json:"reason" bson:"reason"`
	CreatedAt time.Time      `json:"createdAt" bson:"createdAt"`
}

// NewSnapshot captures the current content and revision of a, attributed to editor.
// ID, Seq and CreatedAt are assigned by the version store.
func NewSnapshot(a *Article, editor string, reason SnapshotReason) *Snapshot {
	return &Snapshot{
		ArticleID: a.ID,
		Content:   a.Content,
		Editor:    editor,
		Revision:  a.Revision,
		Reason:    reason,
	}
}

// ContentPatch is a partial update of Content. Nil fields keep their stored value.
type ContentPatch struct {
	Title      *string `json:"title,omitempty"`
	Body       *string `json:"body,omitempty"`
	URLName    *string `json:"urlname,omitempty"`
	Status     *Status `json:"status,omitempty"`
	CategoryID *string `json:"categoryId,omitempty"`
}

// Apply returns c with the fields set in p replaced.
func (p ContentPatch) Apply(c Content) Content {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Body != nil {
		c.Body = *p.Body
	}
	if p.URLName != nil {
		c.URLName = *p.URLName
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.CategoryID != nil {
		c.CategoryID = *p.CategoryID
	}
	return c
}
