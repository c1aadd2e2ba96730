package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bidwire/gate/internal/model"
	"github.com/bidwire/gate/internal/store"
)

// bidColumns is the column list used for SELECT statements on the bids table.
const bidColumns = `id, project_id, contractor_account_id, amount_cents, status,
	metadata, created_at, updated_at`

// participantColumns is the column list for the participants table.
const participantColumns = `agent_id, account_id, role, name, endpoint`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// storeErr wraps a database failure with the StoreUnavailable sentinel so
// the permission layer can fail closed without parsing driver errors.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, model.ErrStoreUnavailable, err)
}

func queryBidsFor(ctx context.Context, db executor, projectID, contractorAccountID string) ([]*model.Bid, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+bidColumns+`
		FROM bids WHERE project_id = $1 AND contractor_account_id = $2
		ORDER BY created_at`, projectID, contractorAccountID)
	if err != nil {
		return nil, storeErr("query bids", err)
	}
	defer rows.Close()

	// No bids yet is the expected pre-bid state, not an error.
	bids := []*model.Bid{}
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, storeErr("scan bid", err)
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate bids", err)
	}
	return bids, nil
}

func queryBiddersFor(ctx context.Context, db executor, projectID string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT contractor_account_id
		FROM bids WHERE project_id = $1 ORDER BY contractor_account_id`, projectID)
	if err != nil {
		return nil, storeErr("query bidders", err)
	}
	defer rows.Close()

	var accounts []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr("scan bidder", err)
		}
		accounts = append(accounts, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate bidders", err)
	}
	return accounts, nil
}

func queryGetParticipant(ctx context.Context, db executor, agentID string) (*model.Participant, error) {
	row := db.QueryRowContext(ctx, `SELECT `+participantColumns+`
		FROM participants WHERE agent_id = $1`, agentID)
	p, err := scanParticipant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("query participant", err)
	}
	return p, nil
}

func queryPutParticipant(ctx context.Context, db executor, p *model.Participant) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO participants (agent_id, account_id, role, name, endpoint, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (agent_id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			role = EXCLUDED.role,
			name = EXCLUDED.name,
			endpoint = EXCLUDED.endpoint,
			updated_at = now()`,
		p.AgentID,
		p.AccountID,
		string(p.Role),
		nullString(p.Name),
		nullString(p.Endpoint),
	)
	if err != nil {
		return storeErr("upsert participant", err)
	}
	return nil
}

func queryListParticipants(ctx context.Context, db executor) ([]*model.Participant, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+participantColumns+`
		FROM participants ORDER BY agent_id`)
	if err != nil {
		return nil, storeErr("query participants", err)
	}
	defer rows.Close()

	var participants []*model.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, storeErr("scan participant", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate participants", err)
	}
	return participants, nil
}

func queryHasPriorContact(ctx context.Context, db executor, projectID, contractorAccountID string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS (
		SELECT 1 FROM contact_log WHERE project_id = $1 AND contractor_account_id = $2
	)`, projectID, contractorAccountID).Scan(&exists)
	if err != nil {
		return false, storeErr("query contact", err)
	}
	return exists, nil
}

func queryRecordContact(ctx context.Context, db executor, projectID, contractorAccountID string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO contact_log (project_id, contractor_account_id)
		VALUES ($1, $2)
		ON CONFLICT (project_id, contractor_account_id) DO NOTHING`,
		projectID, contractorAccountID)
	if err != nil {
		return storeErr("record contact", err)
	}
	return nil
}

func queryContactsFor(ctx context.Context, db executor, projectID string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT contractor_account_id
		FROM contact_log WHERE project_id = $1 ORDER BY contractor_account_id`, projectID)
	if err != nil {
		return nil, storeErr("query contacts", err)
	}
	defer rows.Close()

	var accounts []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr("scan contact", err)
		}
		accounts = append(accounts, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate contacts", err)
	}
	return accounts, nil
}

func queryRecordDecision(ctx context.Context, db executor, d *model.Decision) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO decisions (
			id, project_id, sender_account_id, recipient_account_id,
			outcome, reason, transform, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID,
		nullString(d.ProjectID),
		nullString(d.SenderAccountID),
		nullString(d.RecipientAccount),
		string(d.Outcome),
		d.Reason,
		nullString(string(d.Transform)),
		d.CreatedAt,
	)
	if err != nil {
		return storeErr("record decision", err)
	}
	return nil
}

func queryListDecisions(ctx context.Context, db executor, filter store.DecisionFilter) ([]*model.Decision, error) {
	var (
		conds []string
		args  []any
	)
	if filter.ProjectID != "" {
		args = append(args, filter.ProjectID)
		conds = append(conds, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if filter.Outcome != "" {
		args = append(args, string(filter.Outcome))
		conds = append(conds, fmt.Sprintf("outcome = $%d", len(args)))
	}

	q := `SELECT id, project_id, sender_account_id, recipient_account_id,
		outcome, reason, transform, created_at FROM decisions`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeErr("query decisions", err)
	}
	defer rows.Close()

	var decisions []*model.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, storeErr("scan decision", err)
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate decisions", err)
	}
	return decisions, nil
}

// nullString converts an empty string to a NULL-able value.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
