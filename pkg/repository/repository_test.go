package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/bankmock/internal/storage"
	"github.com/getmockd/bankmock/pkg/resource"
)

var testNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func setup(t *testing.T) (*sql.DB, *Repository) {
	t.Helper()
	db, err := storage.Open(storage.Config{Path: storage.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, storage.Migrate(context.Background(), db))

	n := 0
	repo := New(
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
		}),
	)
	return db, repo
}

func TestCreateGet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db, repo := setup(t)
	c := resource.Lookup(resource.KindPhysicalAccount)

	created, err := repo.Create(ctx, db, c, map[string]any{"balance": 250.75, "currency": "RUB", "owner": "Anna"})
	require.NoError(t, err)

	assert.Equal(t, "00000000-0000-4000-8000-000000000001", created["id"])
	assert.Equal(t, resource.TypePhysicalEntity, created["type"])
	assert.Equal(t, 250.75, created["balance"])
	assert.Equal(t, "active", created["status"])

	got, err := repo.Get(ctx, db, c, created["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestCreate_ServerFieldsAndCreatedAt(t *testing.T) {
	ctx := context.Background()
	db, repo := setup(t)
	c := resource.Lookup(resource.KindPayment)

	row, err := repo.Create(ctx, db, c, map[string]any{
		"amount": 10.0, "currency": "USD", "recipient": "ACME", "account_id": "acc-1",
		"status": "COMPLETED",
	})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", row["status"])
	assert.Equal(t, "2026-03-01T09:30:00Z", row["created_at"])
	assert.Equal(t, "standard", row["type"])
	assert.Nil(t, row["purpose"])
}

func TestGet_TypeDiscriminator(t *testing.T) {
	ctx := context.Background()
	db, repo := setup(t)

	legal, err := repo.Create(ctx, db, resource.Lookup(resource.KindLegalAccount),
		map[string]any{"balance": 1.0, "currency": "EUR", "company": "OOO Romashka"})
	require.NoError(t, err)

	_, err = repo.Get(ctx, db, resource.Lookup(resource.KindPhysicalAccount), legal["id"].(string))
	var nf *resource.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, resource.KindPhysicalAccount, nf.Kind)

	err = repo.Delete(ctx, db, resource.Lookup(resource.KindPhysicalAccount), legal["id"].(string))
	require.ErrorAs(t, err, &nf)

	n, err := repo.Count(ctx, db, resource.Lookup(resource.KindLegalAccount))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = repo.Count(ctx, db, resource.Lookup(resource.KindPhysicalAccount))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	db, repo := setup(t)
	c := resource.Lookup(resource.KindMedicalInsured)

	row, err := repo.Create(ctx, db, c, map[string]any{"name": "Oleg", "policy_number": "P-1"})
	require.NoError(t, err)
	recordID := row["id"].(string)

	require.NoError(t, repo.Delete(ctx, db, c, recordID))

	var nf *resource.NotFoundError
	_, err = repo.Get(ctx, db, c, recordID)
	require.ErrorAs(t, err, &nf)
	require.ErrorAs(t, repo.Delete(ctx, db, c, recordID), &nf)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	db, repo := setup(t)
	c := resource.Lookup(resource.KindPayment)

	row, err := repo.Create(ctx, db, c, map[string]any{
		"amount": 10.0, "currency": "USD", "recipient": "ACME", "account_id": "acc-1",
	})
	require.NoError(t, err)
	recordID := row["id"].(string)

	updated, err := repo.Update(ctx, db, c, recordID, map[string]any{
		"amount": 99.5, "currency": "EUR", "recipient": "Globex",
		"account_id": "acc-2", "status": "COMPLETED", "id": "other",
	})
	require.NoError(t, err)
	assert.Equal(t, 99.5, updated["amount"])
	assert.Equal(t, "EUR", updated["currency"])
	assert.Equal(t, "Globex", updated["recipient"])
	assert.Equal(t, "acc-1", updated["account_id"], "account_id is not updatable")
	assert.Equal(t, "PENDING", updated["status"], "status is server-assigned")
	assert.Equal(t, recordID, updated["id"])
	assert.Equal(t, row["created_at"], updated["created_at"])

	same, err := repo.Update(ctx, db, c, recordID, map[string]any{"status": "FAILED"})
	require.NoError(t, err)
	assert.Equal(t, updated, same)

	var nf *resource.NotFoundError
	_, err = repo.Update(ctx, db, c, "00000000-0000-4000-8000-999999999999", map[string]any{"amount": 1.0})
	require.ErrorAs(t, err, &nf)
	_, err = repo.Update(ctx, db, c, "00000000-0000-4000-8000-999999999999", map[string]any{})
	require.ErrorAs(t, err, &nf)
}

func TestUpdate_PartialKeepsOtherFields(t *testing.T) {
	ctx := context.Background()
	db, repo := setup(t)
	c := resource.Lookup(resource.KindPhysicalAccount)

	row, err := repo.Create(ctx, db, c, map[string]any{"balance": 5.0, "currency": "RUB", "owner": "Ivan"})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, db, c, row["id"].(string), map[string]any{"status": "blocked"})
	require.NoError(t, err)
	assert.Equal(t, "blocked", updated["status"])
	assert.Equal(t, 5.0, updated["balance"])
	assert.Equal(t, "Ivan", updated["owner"])
}

func TestEmbedded_RoundTripAndCorruption(t *testing.T) {
	ctx := context.Background()
	db, repo := setup(t)
	c := resource.Lookup(resource.KindConsentPE)

	row, err := repo.Create(ctx, db, c, map[string]any{
		"tpp_id": "tpp", "subject": "s", "permissions": []any{"ReadAccounts", "ReadBalances"},
	})
	require.NoError(t, err)
	assert.Equal(t, `["ReadAccounts","ReadBalances"]`, row["permissions"])

	resp := resource.ToResponse(c, row)
	assert.Equal(t, []any{"ReadAccounts", "ReadBalances"}, resp["permissions"])

	_, err = db.ExecContext(ctx, "UPDATE consents SET permissions = 'ReadAccounts,ReadBalances' WHERE id = ?", row["id"])
	require.NoError(t, err)

	row, err = repo.Get(ctx, db, c, row["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, []any{}, resource.ToResponse(c, row)["permissions"])

	agreement, err := repo.Create(ctx, db, resource.Lookup(resource.KindProductAgreement),
		map[string]any{"product_type": "DEPOSIT"})
	require.NoError(t, err)
	assert.Equal(t, "{}", agreement["terms"])
}

func TestList_OrderingAndPaging(t *testing.T) {
	ctx := context.Background()
	db, repo := setup(t)
	c := resource.Lookup(resource.KindTransaction)

	for _, date := range []string{"2026-01-01", "2026-03-01", "2026-02-01", "2026-03-01"} {
		_, err := repo.Create(ctx, db, c, map[string]any{
			"date": date, "amount": -10.0, "account_id": "acc", "status": "completed",
		})
		require.NoError(t, err)
	}

	rows, err := repo.List(ctx, db, c, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	var order []string
	for _, r := range rows {
		order = append(order, r["id"].(string)[24:])
	}
	// date DESC, ties by insertion order.
	assert.Equal(t, []string{"000000000002", "000000000004", "000000000003", "000000000001"}, order)

	page, err := repo.List(ctx, db, c, nil, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, rows[2]["id"], page[0]["id"])

	beyond, err := repo.List(ctx, db, c, nil, 10, 100)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestList_Filters(t *testing.T) {
	ctx := context.Background()
	db, repo := setup(t)
	c := resource.Lookup(resource.KindTransaction)

	for i, acc := range []string{"a", "b", "a"} {
		_, err := repo.Create(ctx, db, c, map[string]any{
			"date": fmt.Sprintf("2026-01-0%d", i+1), "amount": 1.0, "account_id": acc, "status": "pending",
			"description": "same",
		})
		require.NoError(t, err)
	}

	rows, err := repo.List(ctx, db, c, Filter{"account_id": "a"}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = repo.List(ctx, db, c, Filter{"account_id": "a", "status": "completed"}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)

	// description is not filterable, so the key is ignored.
	rows, err = repo.List(ctx, db, c, Filter{"description": "other"}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestList_SharedTableIsolation(t *testing.T) {
	ctx := context.Background()
	db, repo := setup(t)

	_, err := repo.Create(ctx, db, resource.Lookup(resource.KindConsentLE),
		map[string]any{"tpp_id": "t", "subject": "s", "permissions": []any{}})
	require.NoError(t, err)

	rows, err := repo.List(ctx, db, resource.Lookup(resource.KindConsentPE), nil, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStorageError(t *testing.T) {
	ctx := context.Background()
	db, repo := setup(t)
	c := resource.Lookup(resource.KindVRP)

	_, err := db.ExecContext(ctx, "DROP TABLE vrps")
	require.NoError(t, err)

	var se *resource.StorageError
	_, err = repo.Create(ctx, db, c, map[string]any{"max_amount": 5.0})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, resource.OpCreate, se.Op)

	_, err = repo.List(ctx, db, c, nil, 10, 0)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, resource.OpList, se.Op)

	_, err = repo.Get(ctx, db, c, "00000000-0000-4000-8000-000000000001")
	require.ErrorAs(t, err, &se)

	_, err = repo.Count(ctx, db, c)
	require.ErrorAs(t, err, &se)
}

func TestRepository_WithConnAndTx(t *testing.T) {
	ctx := context.Background()
	db, repo := setup(t)
	c := resource.Lookup(resource.KindBankDocument)

	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	row, err := repo.Create(ctx, conn, c, map[string]any{"content": "aGk=", "signature": "s"})
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, tx, c, row["id"].(string)))
	require.NoError(t, tx.Rollback())

	_, err = repo.Get(ctx, db, c, row["id"].(string))
	assert.NoError(t, err)
}
