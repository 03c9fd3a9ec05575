package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/docqa-backend/internal/data/repos/testutil"
	types "github.com/yungbote/docqa-backend/internal/domain"
	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
	"github.com/yungbote/docqa-backend/internal/pkg/dbctx"
)

func TestChatSessionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewChatSessionRepo(db, testutil.Logger(t))

	s, err := repo.Create(dbc, &types.ChatSession{UserID: testutil.PtrString("reader-1")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.SessionID == uuid.Nil || !s.IsActive {
		t.Fatalf("Create: got=%+v", s)
	}
	if _, err := repo.Create(dbc, nil); err != nil {
		t.Fatalf("Create(anonymous): %v", err)
	}

	got, err := repo.GetByID(dbc, s.SessionID)
	if err != nil || got.SessionID != s.SessionID {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if _, err := repo.GetByID(dbc, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("GetByID(missing): want NotFound got=%v", err)
	}

	if rows, err := repo.ListByUser(dbc, "reader-1", 10); err != nil || len(rows) != 1 {
		t.Fatalf("ListByUser: err=%v len=%d", err, len(rows))
	}

	if err := repo.UpdateMetadata(dbc, s.SessionID, map[string]any{"book": "robotics"}); err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	got, _ = repo.GetByID(dbc, s.SessionID)
	var meta map[string]any
	if err := json.Unmarshal(got.SessionMetadata, &meta); err != nil || meta["book"] != "robotics" {
		t.Fatalf("metadata: got=%s err=%v", got.SessionMetadata, err)
	}
	if err := repo.UpdateMetadata(dbc, uuid.New(), nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("UpdateMetadata(missing): want NotFound got=%v", err)
	}
}

func TestQueryAndResponseRepos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	log := testutil.Logger(t)
	sessions := NewChatSessionRepo(db, log)
	queries := NewUserQueryRepo(db, log)
	responses := NewResponseRepo(db, log)

	s, err := sessions.Create(dbc, nil)
	if err != nil {
		t.Fatalf("Create session: %v", err)
	}

	base := time.Now().UTC().Add(-time.Hour)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		q, err := queries.Create(dbc, &types.UserQuery{
			SessionID:     s.SessionID,
			Content:       "question",
			Timestamp:     base.Add(time.Duration(i) * time.Minute),
			ContextChunks: []string{"c1", "c2"},
		})
		if err != nil {
			t.Fatalf("Create query %d: %v", i, err)
		}
		ids = append(ids, q.QueryID)
	}

	r, err := responses.Create(dbc, &types.Response{
		QueryID:          ids[2],
		Content:          "answer",
		SourceChunks:     []string{"c1"},
		ConfidenceScore:  87,
		ValidationResult: datatypes.JSON(`{"is_valid":true}`),
	})
	if err != nil {
		t.Fatalf("Create response: %v", err)
	}
	if r.ResponseID == uuid.Nil {
		t.Fatalf("response id not assigned")
	}
	if _, err := responses.Create(dbc, &types.Response{QueryID: ids[1], ConfidenceScore: 101}); err == nil {
		t.Fatalf("confidence out of range: want error")
	}

	hist, err := queries.ListBySession(dbc, s.SessionID, 0)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(hist) != 3 || hist[0].QueryID != ids[2] || hist[2].QueryID != ids[0] {
		t.Fatalf("ListBySession order: got=%v", hist)
	}
	if hist[0].Response == nil || hist[0].Response.ConfidenceScore != 87 {
		t.Fatalf("ListBySession response: got=%+v", hist[0].Response)
	}
	if hist[1].Response != nil {
		t.Fatalf("ListBySession: query without response got=%+v", hist[1].Response)
	}

	q, err := queries.GetWithResponse(dbc, ids[2])
	if err != nil || q.Response == nil || q.Response.Content != "answer" {
		t.Fatalf("GetWithResponse: got=%+v err=%v", q, err)
	}
	if len(q.ContextChunks) != 2 {
		t.Fatalf("ContextChunks: got=%v", q.ContextChunks)
	}
	if _, err := queries.GetWithResponse(dbc, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("GetWithResponse(missing): want NotFound got=%v", err)
	}

	// last: a failed statement aborts the surrounding Postgres transaction
	if _, err := responses.Create(dbc, &types.Response{QueryID: ids[2], Content: "again"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate response: want Conflict got=%v", err)
	}
}
