package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bidwire/gate/internal/model"
	"github.com/bidwire/gate/internal/permission"
	"github.com/bidwire/gate/internal/ui"
)

var (
	checkProject      string
	checkSenderRole   string
	checkSenderAcct   string
	checkRecipRole    string
	checkRecipAcct    string
	checkBidStatuses  []string
	checkPriorContact bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate the permission policy for a hypothetical message",
	Long: `check runs the permission rules against the given context without
touching the database or delivering anything. Useful for verifying what a
bid state change will do to a conversation before it happens.`,
	Example: `  gated check --project proj-1 --sender-role homeowner --bid-status pending
  gated check --sender-role contractor --recipient-role homeowner --project proj-1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		senderRole := model.Role(checkSenderRole)
		if checkSenderRole != "" && !senderRole.IsValid() {
			return fmt.Errorf("invalid sender role %q", checkSenderRole)
		}
		recipRole := model.Role(checkRecipRole)
		if checkRecipRole != "" && !recipRole.IsValid() {
			return fmt.Errorf("invalid recipient role %q", checkRecipRole)
		}

		var bids []*model.Bid
		for i, s := range checkBidStatuses {
			status := model.BidStatus(s)
			if !status.IsValid() {
				return fmt.Errorf("invalid bid status %q", s)
			}
			bids = append(bids, &model.Bid{
				ID:        fmt.Sprintf("bid-%d", i+1),
				ProjectID: checkProject,
				Status:    status,
			})
		}

		verdict := permission.Evaluate(permission.Input{
			ProjectID:          checkProject,
			SenderRole:         senderRole,
			SenderAccountID:    checkSenderAcct,
			RecipientRole:      recipRole,
			RecipientAccountID: checkRecipAcct,
			Bids:               bids,
			PriorContactExists: checkPriorContact,
		})

		if verdict.Allow {
			fmt.Printf("%s  %s\n", ui.RenderAllow("ALLOW"), verdict.Reason)
			if verdict.Transform != model.TransformNone {
				fmt.Printf("       %s\n", ui.RenderMuted("transform: "+string(verdict.Transform)))
			}
		} else {
			fmt.Printf("%s   %s\n", ui.RenderDeny("DENY"), verdict.Reason)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkProject, "project", "", "project ID (empty = no project context)")
	checkCmd.Flags().StringVar(&checkSenderRole, "sender-role", "homeowner", "sender role (homeowner or contractor)")
	checkCmd.Flags().StringVar(&checkSenderAcct, "sender-account", "acct-sender", "sender account ID")
	checkCmd.Flags().StringVar(&checkRecipRole, "recipient-role", "contractor", "recipient role (homeowner or contractor)")
	checkCmd.Flags().StringVar(&checkRecipAcct, "recipient-account", "acct-recipient", "recipient account ID")
	checkCmd.Flags().StringSliceVar(&checkBidStatuses, "bid-status", nil, "bid statuses on the project for the contractor (repeatable)")
	checkCmd.Flags().BoolVar(&checkPriorContact, "prior-contact", false, "a pre-bid contact is already recorded")
}
