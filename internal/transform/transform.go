// Package transform applies the content policies chosen by permission
// evaluation: contact-info redaction and sender pseudonymization.
package transform

import (
	"fmt"

	"github.com/bidwire/gate/internal/model"
)

// Transformer applies a transform policy to a message. Apart from lazy
// alias assignment it is a pure function of (policy, message).
type Transformer struct {
	aliases *AliasBook
}

// New returns a Transformer using the given alias book.
func New(aliases *AliasBook) *Transformer {
	return &Transformer{aliases: aliases}
}

// Apply returns a transformed copy of the message; the input is never
// mutated. senderAccountID is the durable account behind the sender, used
// for alias assignment under the pseudonymize policy.
func (t *Transformer) Apply(policy model.TransformPolicy, msg model.Message, senderAccountID string) (model.Message, error) {
	switch policy {
	case model.TransformNone, "":
		return msg, nil

	case model.TransformRedact:
		out := msg
		out.Body = RedactText(msg.Body)
		fields, err := redactFields(msg.Fields)
		if err != nil {
			return model.Message{}, err
		}
		out.Fields = fields
		return out, nil

	case model.TransformPseudonymize:
		out := msg
		out.SenderName = t.aliases.Alias(msg.ProjectID, senderAccountID)
		return out, nil

	default:
		return model.Message{}, fmt.Errorf("%w: unknown policy %q", model.ErrTransform, policy)
	}
}
