package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*SessionRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &SessionRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestEnsureConversationInsertsThenSelects(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO conversations").
		WithArgs("conv-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT conversation_id, current_turn").
		WithArgs("conv-1").
		WillReturnRows(sqlmock.NewRows([]string{"conversation_id", "current_turn", "created_at", "updated_at"}).
			AddRow("conv-1", 2, now, now))

	conv, err := repo.EnsureConversation(context.Background(), "conv-1")
	if err != nil {
		t.Fatalf("EnsureConversation() error = %v", err)
	}
	if conv.ID != "conv-1" || conv.CurrentTurn != 2 {
		t.Fatalf("unexpected conversation: %+v", conv)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListTurnsDecodesShownTitles(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT conversation_id, turn_number").
		WithArgs("conv-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"conversation_id", "turn_number", "query", "refined_query", "source", "shown_titles", "created_at",
		}).
			AddRow("conv-1", 1, "lipsticks", "lipsticks", "catalog", []byte(`["Red Lipstick","Nude Lipstick"]`), now).
			AddRow("conv-1", 2, "cheaper", "lipsticks under $10", "catalog", []byte(`[]`), now))

	turns, err := repo.ListTurns(context.Background(), "conv-1")
	if err != nil {
		t.Fatalf("ListTurns() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Source != domain.SourceCatalog {
		t.Fatalf("unexpected source %q", turns[0].Source)
	}
	if len(turns[0].ShownTitles) != 2 || turns[0].ShownTitles[0] != "Red Lipstick" {
		t.Fatalf("shown titles lost: %v", turns[0].ShownTitles)
	}
	if len(turns[1].ShownTitles) != 0 {
		t.Fatalf("expected empty titles, got %v", turns[1].ShownTitles)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendTurnAdvancesCounterAndInserts(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE conversations").
		WithArgs("conv-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"current_turn"}).AddRow(3))
	mock.ExpectExec("INSERT INTO conversation_turns").
		WithArgs("conv-1", 3, "cheaper", "fragrances under $50", "hybrid", []byte(`["Calvin Klein CK One"]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := repo.AppendTurn(context.Background(), domain.Turn{
		ConversationID: "conv-1",
		Query:          "cheaper",
		RefinedQuery:   "fragrances under $50",
		Source:         domain.SourceHybrid,
		ShownTitles:    []string{"Calvin Klein CK One"},
	})
	if err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("expected turn 3, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendTurnUnknownConversation(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE conversations").
		WithArgs("missing", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.AppendTurn(context.Background(), domain.Turn{ConversationID: "missing", Query: "q", RefinedQuery: "q", Source: domain.SourceCatalog})
	if !domain.IsKind(err, domain.ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
