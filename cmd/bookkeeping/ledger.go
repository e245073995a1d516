package main

import (
	"context"
	"fmt"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	"github.com/SscSPs/bookkeeping_core/internal/dto"
	"github.com/spf13/cobra"
)

func newOpenItemsCmd(a *app) *cobra.Command {
	var partner string
	var limit int
	cmd := &cobra.Command{
		Use:   "open-items",
		Short: "List the uncleared lines of a partner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, "clearing.open_items", func(ctx context.Context) (any, error) {
				items := make([]domain.OpenItem, 0)
				for item, err := range a.services.Clearing.OpenItems(ctx, partner) {
					if err != nil {
						return nil, err
					}
					items = append(items, item)
					if limit > 0 && len(items) == limit {
						break
					}
				}
				return items, nil
			})
		},
	}
	cmd.Flags().StringVar(&partner, "partner", "", "Partner ID")
	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many items (0: all)")
	_ = cmd.MarkFlagRequired("partner")
	return cmd
}

func newClearCmd(a *app) *cobra.Command {
	var lines []string
	var reset string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear open items that net to zero, or reset a clearing group",
		Example: `  bookkeeping clear --line 5b0c... --line 9e41...
  bookkeeping clear --reset 77d2...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case reset != "" && len(lines) > 0:
				return fmt.Errorf("--line and --reset are mutually exclusive")
			case reset != "":
				return a.run(cmd, "clearing.reset", func(ctx context.Context) (any, error) {
					if err := a.services.Clearing.ResetClearing(ctx, reset); err != nil {
						return nil, err
					}
					return map[string]string{"clearingID": reset, "status": "reset"}, nil
				})
			default:
				return a.run(cmd, "clearing.clear_manual", func(ctx context.Context) (any, error) {
					group, err := a.services.Clearing.ClearManual(ctx, lines)
					if err != nil {
						return nil, err
					}
					return dto.ToClearingResponse(group), nil
				})
			}
		},
	}
	cmd.Flags().StringArrayVar(&lines, "line", nil, "Line ID to clear (repeatable)")
	cmd.Flags().StringVar(&reset, "reset", "", "Clearing ID whose stamps are removed")
	return cmd
}

func newEntryCmd(a *app) *cobra.Command {
	entry := &cobra.Command{
		Use:   "entry",
		Short: "Inspect and correct journal entries",
	}

	var showID string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print a journal entry with its lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, "journal.get_entry", func(ctx context.Context) (any, error) {
				return a.services.Journal.GetEntryByID(ctx, showID)
			})
		},
	}
	show.Flags().StringVar(&showID, "id", "", "Entry ID")
	_ = show.MarkFlagRequired("id")

	var reverseID, reason, postingDate string
	reverse := &cobra.Command{
		Use:   "reverse",
		Short: "Post the mirror of a posted entry and cancel the original",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.ReverseEntryRequest{Reason: reason}
			if postingDate != "" {
				d, err := parseDate("posting-date", postingDate)
				if err != nil {
					return err
				}
				req.PostingDate = &d
			}
			return a.run(cmd, "journal.reverse_entry", func(ctx context.Context) (any, error) {
				return a.services.Journal.ReverseEntry(ctx, reverseID, req)
			})
		},
	}
	reverse.Flags().StringVar(&reverseID, "id", "", "Entry ID")
	reverse.Flags().StringVar(&reason, "reason", "", "Why the entry is reversed")
	reverse.Flags().StringVar(&postingDate, "posting-date", "", "Posting date of the reversal (default: the original's)")
	_ = reverse.MarkFlagRequired("id")
	_ = reverse.MarkFlagRequired("reason")

	entry.AddCommand(show, reverse)
	return entry
}
