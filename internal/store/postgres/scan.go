package postgres

import (
	"database/sql"

	"github.com/bidwire/gate/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanBid scans a single row into a model.Bid.
// The row must contain columns in the order defined by bidColumns.
func scanBid(row scannable) (*model.Bid, error) {
	var b model.Bid
	var metadata []byte

	err := row.Scan(
		&b.ID,
		&b.ProjectID,
		&b.ContractorAccountID,
		&b.AmountCents,
		&b.Status,
		&metadata,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Metadata = metadata
	return &b, nil
}

// scanParticipant scans a single row into a model.Participant.
// The row must contain columns in the order defined by participantColumns.
func scanParticipant(row scannable) (*model.Participant, error) {
	var p model.Participant
	var (
		name     sql.NullString
		endpoint sql.NullString
	)

	err := row.Scan(
		&p.AgentID,
		&p.AccountID,
		&p.Role,
		&name,
		&endpoint,
	)
	if err != nil {
		return nil, err
	}

	p.Name = name.String
	p.Endpoint = endpoint.String
	return &p, nil
}

// scanDecision scans a single row into a model.Decision.
func scanDecision(row scannable) (*model.Decision, error) {
	var d model.Decision
	var (
		projectID sql.NullString
		sender    sql.NullString
		recipient sql.NullString
		transform sql.NullString
	)

	err := row.Scan(
		&d.ID,
		&projectID,
		&sender,
		&recipient,
		&d.Outcome,
		&d.Reason,
		&transform,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.ProjectID = projectID.String
	d.SenderAccountID = sender.String
	d.RecipientAccount = recipient.String
	d.Transform = model.TransformPolicy(transform.String)
	return &d, nil
}
