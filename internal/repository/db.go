package repository

import (
	"database/sql"
	"time"

	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/util/compression"
	"github.com/pkg/errors"
)

// DBDraftRepository keeps drafts in the local sqlite store. The draft body is
// compressed; the codec is recorded per row so changing the configured one
// does not strand older drafts.
type DBDraftRepository struct {
	db         db.Db
	compressor compression.Compressor
}

func NewDBDraftRepository(db db.Db, encoding string) (*DBDraftRepository, error) {
	if encoding == "" {
		encoding = compression.Zstd
	}
	c, err := compression.ByName(encoding)
	if err != nil {
		return nil, err
	}
	return &DBDraftRepository{
		db:         db,
		compressor: c,
	}, nil
}

func (r *DBDraftRepository) Save(d *Draft) error {
	if d.ID != "" && d.CreatedAt.IsZero() {
		var created time.Time
		err := r.db.QueryRow(`SELECT created_at FROM drafts WHERE id = ?`, d.ID).Scan(&created)
		if err == nil {
			d.CreatedAt = created
		} else if !errors.Is(err, sql.ErrNoRows) {
			return errors.Wrapf(err, "load draft %s", d.ID)
		}
	}

	raw, err := d.prepare(time.Now().UTC())
	if err != nil {
		return err
	}

	compressed, err := r.compressor.Compress(raw)
	if err != nil {
		return errors.Wrap(err, "error compressing draft")
	}

	_, err = r.db.Exec(`
		INSERT INTO drafts (id, title, edit_slug, content, content_hash, encoding, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			edit_slug = excluded.edit_slug,
			content = excluded.content,
			content_hash = excluded.content_hash,
			encoding = excluded.encoding,
			modified_at = excluded.modified_at`,
		d.ID, d.Title, d.EditSlug, compressed, d.ContentHash, r.compressor.Name(), d.CreatedAt, d.ModifiedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "error saving draft %s", d.ID)
	}

	repoLogger.Debug().
		Str("draft_id", string(d.ID)).
		Str("hash", d.ContentHash).
		Int("bytes", len(compressed)).
		Msg("Draft saved")
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *DBDraftRepository) scan(row rowScanner) (*Draft, error) {
	var (
		d          Draft
		compressed []byte
		encoding   sql.NullString
		editSlug   sql.NullString
	)
	if err := row.Scan(&d.ID, &d.Title, &editSlug, &compressed, &d.ContentHash, &encoding, &d.CreatedAt, &d.ModifiedAt); err != nil {
		return nil, err
	}
	d.EditSlug = editSlug.String

	c, err := compression.ByName(encoding.String)
	if err != nil {
		return nil, errors.Wrapf(err, "draft %s", d.ID)
	}
	raw, err := c.Decompress(compressed)
	if err != nil {
		return nil, errors.Wrapf(err, "error decompressing draft %s", d.ID)
	}
	if err := d.setBody(raw); err != nil {
		return nil, err
	}
	return &d, nil
}

const draftColumns = `id, title, edit_slug, content, content_hash, encoding, created_at, modified_at`

func (r *DBDraftRepository) Get(id DraftID) (*Draft, error) {
	d, err := r.scan(r.db.QueryRow(`SELECT `+draftColumns+` FROM drafts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error loading draft %s", id)
	}
	return d, nil
}

func (r *DBDraftRepository) Delete(id DraftID) error {
	res, err := r.db.Exec(`DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "error deleting draft %s", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDraftNotFound
	}
	return nil
}

func (r *DBDraftRepository) List() ([]Draft, error) {
	rows, err := r.db.Query(`SELECT ` + draftColumns + ` FROM drafts`)
	if err != nil {
		return nil, errors.Wrap(err, "error querying drafts")
	}
	defer rows.Close()

	drafts := make([]Draft, 0)
	for rows.Next() {
		d, err := r.scan(rows)
		if err != nil {
			return nil, errors.Wrap(err, "error scanning draft")
		}
		drafts = append(drafts, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading drafts")
	}

	sortDrafts(drafts)
	return drafts, nil
}
