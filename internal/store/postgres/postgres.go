// Package postgres archives room messages and serves per-room roles from
// PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Postgres provides storage in PostgreSQL.
type Postgres struct {
	bun *bun.DB
}

// Connect connects to the database and pings the DB to ensure the connection
// is working.
func Connect(ctx context.Context, connStr string) (*Postgres, error) {
	sqlDB := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(connStr)))
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(bun.NewDB(sqlDB, pgdialect.New())), nil
}

func New(db *bun.DB) *Postgres {
	return &Postgres{bun: db}
}

func (pg *Postgres) Close() error {
	return pg.bun.Close()
}

// CreateSchema creates the messages and room_members tables if missing.
func (pg *Postgres) CreateSchema(ctx context.Context) error {
	for _, model := range []any{(*message)(nil), (*roomMember)(nil)} {
		if _, err := pg.bun.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// Archive returns a sink that writes committed message events.
func (pg *Postgres) Archive() *Archive {
	return &Archive{pg: pg}
}

// Roles returns a role resolver backed by room_members.
func (pg *Postgres) Roles() *RoleStore {
	return &RoleStore{pg: pg}
}

// Archive implements app.Sink. Evicting a room keeps its archived history.
type Archive struct {
	pg *Postgres
}

func (a *Archive) Handle(ctx context.Context, rec app.Record) error {
	switch rec.Event {
	case app.RecordNewMessage, app.RecordMessagePinned:
		if rec.Message == nil {
			return nil
		}
		return a.pg.UpsertMessage(ctx, *rec.Message)
	case app.RecordMessageDeleted:
		return a.pg.DeleteMessage(ctx, rec.MessageID)
	case app.RecordReactionUpdated:
		return a.pg.SetReactions(ctx, rec.MessageID, rec.Reactions)
	}
	return nil
}

func (pg *Postgres) upsertQuery(m domain.Message) *bun.InsertQuery {
	return pg.bun.NewInsert().
		Model(fromDomain(m)).
		On("CONFLICT (id) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("is_pinned = EXCLUDED.is_pinned").
		Set("reactions = EXCLUDED.reactions")
}

// UpsertMessage inserts a message or refreshes its mutable columns.
func (pg *Postgres) UpsertMessage(ctx context.Context, m domain.Message) error {
	if _, err := pg.upsertQuery(m).Exec(ctx); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

// DeleteMessage removes a message. Unknown ids are not an error.
func (pg *Postgres) DeleteMessage(ctx context.Context, id string) error {
	_, err := pg.bun.NewDelete().
		Model((*message)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

func (pg *Postgres) reactionsQuery(id string, reactions []domain.Reaction) (*bun.UpdateQuery, error) {
	if reactions == nil {
		reactions = []domain.Reaction{}
	}
	data, err := json.Marshal(reactions)
	if err != nil {
		return nil, fmt.Errorf("marshal reactions: %w", err)
	}
	return pg.bun.NewUpdate().
		Model((*message)(nil)).
		Set("reactions = ?::jsonb", string(data)).
		Where("id = ?", id), nil
}

// SetReactions rewrites the reactions column of one message.
func (pg *Postgres) SetReactions(ctx context.Context, id string, reactions []domain.Reaction) error {
	q, err := pg.reactionsQuery(id, reactions)
	if err != nil {
		return err
	}
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("update reactions: %w", err)
	}
	return nil
}

func (pg *Postgres) listQuery(dst *[]message, room domain.RoomID, limit int) *bun.SelectQuery {
	return pg.bun.NewSelect().
		Model(dst).
		Where("room_id = ?", string(room)).
		Order("created_at DESC").
		Limit(limit)
}

// ListMessages returns up to limit archived messages of a room, oldest first.
func (pg *Postgres) ListMessages(ctx context.Context, room domain.RoomID, limit int) ([]domain.Message, error) {
	var msgs []message
	if err := pg.listQuery(&msgs, room, limit).Scan(ctx); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return oldestFirst(msgs), nil
}

// oldestFirst converts rows selected newest first.
func oldestFirst(msgs []message) []domain.Message {
	out := make([]domain.Message, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = m.DomainMessage()
	}
	return out
}

// RoleStore implements app.RoleResolver. Users without a row are members.
type RoleStore struct {
	pg *Postgres
}

func (r *RoleStore) RoleOf(ctx context.Context, room domain.RoomID, user domain.UserID) (domain.Role, error) {
	var rm roomMember
	err := r.pg.bun.NewSelect().
		Model(&rm).
		Where("room_id = ?", string(room)).
		Where("user_id = ?", string(user)).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RoleMember, nil
	}
	if err != nil {
		return domain.RoleMember, fmt.Errorf("select role: %w", err)
	}
	return domain.ParseRole(rm.Role), nil
}

func (r *RoleStore) setRoleQuery(room domain.RoomID, user domain.UserID, role domain.Role) *bun.InsertQuery {
	rm := &roomMember{RoomID: string(room), UserID: string(user), Role: string(role)}
	return r.pg.bun.NewInsert().
		Model(rm).
		On("CONFLICT (room_id, user_id) DO UPDATE").
		Set("role = EXCLUDED.role")
}

// SetRole grants role to user in room.
func (r *RoleStore) SetRole(ctx context.Context, room domain.RoomID, user domain.UserID, role domain.Role) error {
	if _, err := r.setRoleQuery(room, user, role).Exec(ctx); err != nil {
		return fmt.Errorf("upsert role: %w", err)
	}
	return nil
}
